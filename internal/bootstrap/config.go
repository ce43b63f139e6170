package bootstrap

// Package bootstrap wires configuration, logging and the client components
// into a ready-to-use App.

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/secureops/secureops-client/config"
)

// InitLogger initializes the structured logger at the given level and
// installs it as the slog default. Logs go to stderr so command output on
// stdout stays machine-readable.
func InitLogger(level config.LogLevel) *slog.Logger {
	return NewLogger(os.Stderr, level)
}

// NewLogger builds a JSON logger writing to w and installs it as the default.
func NewLogger(w io.Writer, level config.LogLevel) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slogLevel(level),
	}))
	slog.SetDefault(logger)
	return logger
}

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	return cfg, nil
}
