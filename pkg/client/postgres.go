package client

import (
	"context"
	"database/sql"
	"time"

	"innkeep/pkg/logger"

	_ "github.com/lib/pq"
)

func (c *Client) SetPostgres(log *logger.Logger, dsn string, maxOpenConns int, connTimeout time.Duration) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatal("Failed to open PostgreSQL pool", "error", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxOpenConns / 2)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), connTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatal("Failed to ping PostgreSQL", "error", err)
	}

	log.Info("Successfully connected to PostgreSQL", "max_open_conns", maxOpenConns)
	c.Postgres = db
}
