package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"library/internal/config"
	"library/internal/storage/ch"
)

const usage = "Usage: migrate [up|down|status|version|create <migration_name>]"

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using existing environment variables")
	}

	if err := run(context.Background(), os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string) error {
	command := "up"
	if len(args) > 0 {
		command = args[0]
	}

	// New migration files go to the source tree, no database needed
	if command == "create" {
		if len(args) < 2 {
			return fmt.Errorf("missing migration name. %s", usage)
		}
		if err := goose.Create(nil, "./migrations", args[1], "sql"); err != nil {
			return fmt.Errorf("failed to create migration: %w", err)
		}
		log.Printf("Created migration: %s", args[1])
		return nil
	}

	cfg, err := config.LoadClickHouseFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := ch.NewClickHouseDB(
		cfg.ClickHouseHost,
		cfg.ClickHousePort,
		cfg.ClickHouseDatabase,
		cfg.ClickHouseUser,
		cfg.ClickHousePassword,
		cfg.ClickHouseUseTLS,
	)
	if err != nil {
		return err
	}
	defer db.Close()

	log.Printf("Connected to ClickHouse at %s:%d, running %s", cfg.ClickHouseHost, cfg.ClickHousePort, command)

	switch command {
	case "up":
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		log.Println("Migrations completed successfully")
	case "down":
		if err := db.MigrateDown(ctx); err != nil {
			return err
		}
		log.Println("Rollback completed successfully")
	case "status":
		return db.MigrationStatus(ctx)
	case "version":
		version, err := db.MigrationVersion(ctx)
		if err != nil {
			return err
		}
		log.Printf("Current migration version: %d", version)
	default:
		return fmt.Errorf("unknown command: %s. %s", command, usage)
	}
	return nil
}
