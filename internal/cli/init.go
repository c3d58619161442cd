// Package cli holds the initialization shared by the three binaries.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"kassa/internal/config"
	"kassa/internal/storage"
)

// SetupLogger installs the default text logger.
func SetupLogger() *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads a local .env if present. Missing files are fine;
// production sets real environment variables.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig loads and validates configuration with the given validator,
// exiting on failure.
func LoadConfig(logger *slog.Logger, validate func(*config.Config) error) *config.Config {
	cfg := config.Load()
	if err := validate(cfg); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenStorage opens the SQLite repository, exiting on failure.
func OpenStorage(logger *slog.Logger, dbPath string) *storage.Repository {
	repo, err := storage.Open(dbPath)
	if err != nil {
		logger.Error("Failed to open storage", "error", err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
