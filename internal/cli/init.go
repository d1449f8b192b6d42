// Package cli provides the initialization shared by cmd/expenses and
// cmd/expensectl.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"expenses/internal/backend"
	"expenses/internal/config"
	applog "expenses/internal/log"
)

// SetupLogger builds the component logger at level and makes it the slog
// default. An unknown level falls back to info with a warning.
func SetupLogger(level string, out io.Writer) *applog.Logger {
	lvl, err := applog.ParseLevel(level)
	cfg := applog.DefaultConfig()
	cfg.Level = lvl
	if out != nil {
		cfg.Output = out
	}

	logger := applog.New(cfg)
	applog.SetDefault(logger)
	if err != nil {
		logger.Warn("Falling back to info logging", "error", err)
	}
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitBackend creates the store, the optional publisher and the service.
func InitBackend(ctx context.Context, logger *applog.Logger, cfg *config.Config) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("initialize %s backend: %w", bcfg.Type, err)
	}
	return res, nil
}

// MustInit runs the full startup sequence and exits the process on failure.
func MustInit(ctx context.Context) (*config.Config, *applog.Logger, *backend.BackendResult) {
	LoadEnvFile()

	cfg := config.Load()
	logger := SetupLogger(cfg.LogLevel, os.Stdout)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	res, err := InitBackend(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return cfg, logger, res
}
