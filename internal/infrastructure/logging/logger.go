// Package logging provides structured logging utilities.
//
// The default console format is a compact single line:
// LEVEL HH:MM:SS [scope] message key=value
// Setting format to "json" switches to slog's JSON handler for
// log-shipping environments.
package logging

import (
	"log/slog"
	"os"

	"github.com/ledgerline/charge-recon-backend/internal/infrastructure/config"
)

// NewLogger creates a structured logger based on config
func NewLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = NewConsoleHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// NewScopedLogger creates a logger tagged with a scope (e.g. "api",
// "automatch") that the console handler renders in brackets.
func NewScopedLogger(cfg config.LoggingConfig, scope string) *slog.Logger {
	return NewLogger(cfg).With("scope", scope)
}
