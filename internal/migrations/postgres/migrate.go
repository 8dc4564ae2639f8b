package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"innkeep/pkg/logger"

	"github.com/pressly/goose/v3"
)

const (
	Dialect       = "postgres"
	MigrationsDir = "sql"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// gooseLogger routes goose output through the service logger.
type gooseLogger struct {
	log *logger.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.Info(fmt.Sprintf(format, v...))
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.Fatal(fmt.Sprintf(format, v...))
}

func setup(log *logger.Logger) error {
	goose.SetBaseFS(migrationFiles)
	goose.SetLogger(gooseLogger{log: log})
	return goose.SetDialect(Dialect)
}

// RunMigration applies every pending embedded migration. goose tracks what
// ran in its own version table and wraps each file in a transaction.
func RunMigration(ctx context.Context, db *sql.DB, log *logger.Logger) error {
	log.Info("Running Postgres migrations")

	if err := setup(log); err != nil {
		return fmt.Errorf("failed to configure goose: %w", err)
	}

	if err := goose.UpContext(ctx, db, MigrationsDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	log.Info("All Postgres migrations applied successfully", "version", version)
	return nil
}
