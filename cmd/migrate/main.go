// Command migrate applies or inspects the embedded goose migrations.
//
//	migrate -cmd up
//	migrate -cmd down
//	migrate -cmd status
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"time"

	"kiosk-pos/internal/config"
	"kiosk-pos/internal/database"

	"github.com/joho/godotenv"
)

var commands = map[string]bool{
	"up":        true,
	"up-by-one": true,
	"down":      true,
	"redo":      true,
	"reset":     true,
	"status":    true,
	"version":   true,
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	command := flag.String("cmd", "up", "goose command: up, up-by-one, down, redo, reset, status, version")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall timeout")
	flag.Parse()

	if !commands[*command] {
		return fmt.Errorf("unsupported command %q", *command)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	dbCfg, logCfg, err := config.LoadDatabase()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.NewLogger(logCfg)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := database.NewPool(ctx, dbCfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	logger.Info().Str("command", *command).Msg("running migrations")
	if err := database.RunMigrations(ctx, pool, *command, flag.Args()...); err != nil {
		return fmt.Errorf("migrate %s: %w", *command, err)
	}
	logger.Info().Str("command", *command).Msg("migrations finished")
	return nil
}
