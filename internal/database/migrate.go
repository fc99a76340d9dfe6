package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

// MigrationsDir is the directory inside the embedded filesystem that holds
// the goose SQL migrations.
const MigrationsDir = "migrations"

//go:embed migrations/*.sql
var migrations embed.FS

// MigrationFiles exposes the embedded migration filesystem.
func MigrationFiles() fs.FS {
	return migrations
}

// RunMigrations executes a goose command (up, down, status, version, reset,
// up-to, down-to) against the pool using the embedded migrations.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, command string, args ...string) error {
	if pool == nil {
		return fmt.Errorf("pool is required")
	}

	// The pool owns the connections; the sql.DB is only a goose adapter.
	db := stdlib.OpenDBFromPool(pool)

	return runGoose(ctx, db, command, args...)
}

func runGoose(ctx context.Context, db *sql.DB, command string, args ...string) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.RunContext(ctx, command, db, MigrationsDir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}

	return nil
}

// Migrate applies all pending migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	logger.Info().Str("dir", MigrationsDir).Msg("running database migrations")

	if err := RunMigrations(ctx, pool, "up"); err != nil {
		logger.Error().Err(err).Msg("database migrations failed")
		return err
	}

	logger.Info().Msg("database migrations completed")
	return nil
}
