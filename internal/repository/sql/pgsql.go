package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/iyhunko/shopping-list/internal/config"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	// https://www.postgresql.org/docs/current/errcodes-appendix.html
	pqUniqueViolationErrCode = "23505"

	// MigrationsSource is where schema migrations are read from at startup.
	MigrationsSource = "file://migrations"

	maxOpenConns    = 10
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute
)

// StartDB connects to the product store and brings its schema up to date.
func StartDB(ctx context.Context, storeConf config.Store) (*sql.DB, error) {
	dsn, err := storeConf.DSN()
	if err != nil {
		return nil, err
	}

	db, err := Open(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize DB connection: %w", err)
	}

	if err := RunMigrations(db, MigrationsSource); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Open returns a pinged pgx-backed pool.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	slog.Info("DB connection done")
	return db, nil
}

// RunMigrations applies every pending migration found at sourceURL.
// The migrator is not closed since that would close db.
func RunMigrations(db *sql.DB, sourceURL string) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		slog.Info("DB schema up to date")
	case err != nil:
		return fmt.Errorf("failed to run migrations: %w", err)
	default:
		version, _, _ := m.Version()
		slog.Info("DB migration done", slog.Uint64("version", uint64(version)))
	}
	return nil
}
