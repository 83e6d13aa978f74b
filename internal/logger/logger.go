// Package logger provides structured logging using Go 1.21's log/slog.
// It sets up a JSON handler with service-level context and provides
// per-symbol attribute helpers for the ingest and scan paths.
package logger

import (
	"log/slog"
	"os"
)

// Init creates and returns a structured logger for the given service.
// The logger outputs JSON to stdout with the service name embedded.
func Init(service string, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	logger := slog.New(handler).With(
		slog.String("service", service),
	)

	// Set as default so log/slog.Info() etc. also use structured output
	slog.SetDefault(logger)

	return logger
}

// Symbol returns the standard per-symbol attribute used across the
// ingest, window and scan paths so log lines stay greppable.
func Symbol(sym string) slog.Attr {
	return slog.String("symbol", sym)
}

// Venue returns the standard venue attribute for quote-source logs.
func Venue(name string) slog.Attr {
	return slog.String("venue", name)
}
