package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/saturnino-fabrica-de-software/facesim/internal/config"
	"github.com/saturnino-fabrica-de-software/facesim/internal/database"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Flags
	action := flag.String("action", "up", "Migration action: up, down, version, force")
	steps := flag.Int("steps", 0, "Target version (for force action)")
	flag.Parse()

	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	logger := config.NewLogger(cfg.Environment)

	// golang-migrate needs a database/sql connection
	migrator, err := database.OpenMigrator(cfg.DatabaseURL, cfg.DatabaseName)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() { _ = migrator.Close() }()

	logger.Info("connected to database", slog.String("database", cfg.DatabaseName))

	// Execute action
	switch *action {
	case "up":
		logger.Info("running migrations")
		if err := migrator.Up(); err != nil {
			return fmt.Errorf("migration up failed: %w", err)
		}
		logger.Info("migrations completed")

	case "down":
		logger.Info("rolling back last migration")
		if err := migrator.Down(); err != nil {
			return fmt.Errorf("migration down failed: %w", err)
		}
		logger.Info("migration rolled back")

	case "version":
		version, dirty, err := migrator.Version()
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		if dirty {
			logger.Warn("migration incomplete", slog.Uint64("version", uint64(version)), slog.Bool("dirty", true))
		} else {
			logger.Info("current version", slog.Uint64("version", uint64(version)))
		}

	case "force":
		if *steps == 0 {
			return fmt.Errorf("steps flag is required for force action")
		}
		logger.Info("forcing migration version", slog.Int("version", *steps))
		if err := migrator.Force(*steps); err != nil {
			return fmt.Errorf("force migration failed: %w", err)
		}
		logger.Info("migration version forced")

	default:
		return fmt.Errorf("invalid action: %s (use: up, down, version, force)", *action)
	}

	return nil
}
