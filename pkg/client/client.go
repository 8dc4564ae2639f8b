package client

import (
	"context"
	"database/sql"
	"time"

	"innkeep/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

const shutdownTimeout = 10 * time.Second

// Client holds the backing connections. Only the ones selected by
// configuration are set; the rest stay nil.
type Client struct {
	Mongo    *mongo.Client
	Postgres *sql.DB
	Redis    *redis.Client
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) GracefulShutdown(log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if c.Mongo != nil {
		if err := c.Mongo.Disconnect(ctx); err != nil {
			log.Error("Failed to disconnect from MongoDB", "error", err)
		} else {
			log.Info("Disconnected from MongoDB")
		}
	}
	if c.Postgres != nil {
		if err := c.Postgres.Close(); err != nil {
			log.Error("Failed to close PostgreSQL pool", "error", err)
		} else {
			log.Info("Closed PostgreSQL pool")
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Error("Failed to close Redis client", "error", err)
		} else {
			log.Info("Closed Redis client")
		}
	}
}
