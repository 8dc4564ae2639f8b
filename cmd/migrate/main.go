package main

import (
	"context"
	"time"

	mongoMigration "innkeep/internal/migrations/mongo"
	postgresMigration "innkeep/internal/migrations/postgres"
	"innkeep/pkg/config"
)

const JobName = "migration"

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	cfg := config.Load(JobName)
	defer cfg.GracefulShutdown()

	switch cfg.StoreDriver {
	case config.StorePostgres:
		cfg.SetPostgres()
		cfg.Log.Info("Starting Postgres migration job")
		if err := postgresMigration.RunMigration(ctx, cfg.Client.Postgres, cfg.Log); err != nil {
			cfg.Log.Fatal("Migration failed", "error", err)
		}
	case config.StoreMongo:
		cfg.SetMongo()
		cfg.Log.Info("Starting Mongo migration job")
		if err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log); err != nil {
			cfg.Log.Fatal("Migration failed", "error", err)
		}
	default:
		cfg.Log.Info("Nothing to migrate", "store", cfg.StoreDriver)
		return
	}

	// Mongo hotel locks live in their own collection even with another store.
	if cfg.LockDriver == config.LockMongo && cfg.StoreDriver != config.StoreMongo {
		cfg.SetMongo()
		if err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log); err != nil {
			cfg.Log.Fatal("Lock collection migration failed", "error", err)
		}
	}

	cfg.Log.Info("Migration completed successfully")
}
