// Package cli provides common startup utilities shared by
// cmd/debtplan and cmd/debtplan-worker.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"debtplan/internal/config"
	"debtplan/internal/storage"
)

// SetupLogger initializes structured logging and sets it as the
// default logger.
func SetupLogger() *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development. Errors are
// ignored as the file is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it, exiting
// the process on validation failure.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenStore opens the storage backend selected by the configuration,
// exiting the process on failure.
func OpenStore(logger *slog.Logger, cfg *config.Config) storage.Store {
	switch cfg.DataBackend {
	case "sqlite":
		store, err := storage.OpenSQLite(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to open SQLite store", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		logger.Info("Storage ready", "backend", "sqlite", "path", cfg.SQLiteDBPath)
		return store
	case "postgres":
		store, err := storage.OpenPostgres(cfg.PostgresURL)
		if err != nil {
			logger.Error("Failed to open Postgres store", "error", err)
			os.Exit(1)
		}
		logger.Info("Storage ready", "backend", "postgres")
		return store
	default:
		logger.Info("Storage ready", "backend", "memory")
		return storage.NewMemoryStore()
	}
}

// GracefulShutdown returns a context that is cancelled after a
// SIGINT/SIGTERM arrives and the cleanup function has run. cleanup
// receives a context bounded by timeout.
func GracefulShutdown(logger *slog.Logger, timeout time.Duration, cleanup func(ctx context.Context)) context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		cancel()
		logger.Info("Shutdown complete")
	}()

	return ctx
}
