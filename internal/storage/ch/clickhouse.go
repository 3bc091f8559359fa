package ch

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/pressly/goose/v3"

	"library/migrations"
)

type ClickHouseDB struct {
	conn        clickhouse.Conn
	options     *clickhouse.Options
	autoMigrate bool
}

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(host string, port int, database, user, password string, useTLS bool) (*ClickHouseDB, error) {
	addr := fmt.Sprintf("%s:%d", host, port)

	options := &clickhouse.Options{
		Addr:     []string{addr},
		Protocol: clickhouse.Native,
		Auth: clickhouse.Auth{
			Database: database,
			Username: user,
			Password: password,
		},
	}

	// Configure TLS if enabled
	if useTLS {
		options.TLS = &tls.Config{
			InsecureSkipVerify: false,
		}
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	// Test the connection
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &ClickHouseDB{conn: conn, options: options}, nil
}

// EnableAutoMigrate makes Initialize apply pending migrations
func (db *ClickHouseDB) EnableAutoMigrate() {
	db.autoMigrate = true
}

// Initialize applies the embedded migrations when auto-migrate is enabled.
// Otherwise tables are expected to be managed with cmd/migrate.
func (db *ClickHouseDB) Initialize(ctx context.Context) error {
	if !db.autoMigrate {
		return nil
	}
	return db.Migrate(ctx)
}

// Migrate runs all pending goose migrations
func (db *ClickHouseDB) Migrate(ctx context.Context) error {
	return db.withGoose(func(sqlDB *sql.DB) error {
		if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		return nil
	})
}

// MigrateDown rolls back the most recent migration
func (db *ClickHouseDB) MigrateDown(ctx context.Context) error {
	return db.withGoose(func(sqlDB *sql.DB) error {
		if err := goose.DownContext(ctx, sqlDB, "."); err != nil {
			return fmt.Errorf("failed to rollback migration: %w", err)
		}
		return nil
	})
}

// MigrationStatus logs the state of every embedded migration
func (db *ClickHouseDB) MigrationStatus(ctx context.Context) error {
	return db.withGoose(func(sqlDB *sql.DB) error {
		if err := goose.StatusContext(ctx, sqlDB, "."); err != nil {
			return fmt.Errorf("failed to get migration status: %w", err)
		}
		return nil
	})
}

// MigrationVersion returns the version of the last applied migration
func (db *ClickHouseDB) MigrationVersion(ctx context.Context) (int64, error) {
	var version int64
	err := db.withGoose(func(sqlDB *sql.DB) error {
		v, err := goose.GetDBVersionContext(ctx, sqlDB)
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		version = v
		return nil
	})
	return version, err
}

// withGoose opens a database/sql handle on the same options and points goose at the embedded migrations
func (db *ClickHouseDB) withGoose(fn func(sqlDB *sql.DB) error) error {
	sqlDB := clickhouse.OpenDB(db.options)
	defer sqlDB.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("clickhouse"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return fn(sqlDB)
}

// Close closes the database connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		err := db.conn.Close()
		db.conn = nil
		return err
	}
	return nil
}
