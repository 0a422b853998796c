// Package logger provides structured logging setup.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/rcliao/browser-memory/internal/config"
)

// New creates a *slog.Logger from the given Logging config.
// Output is JSON to stderr so command output on stdout stays machine-readable.
func New(cfg config.Logging) *slog.Logger {
	return NewWithWriter(os.Stderr, cfg)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, cfg config.Logging) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})
	return slog.New(handler).With("service", cfg.Service)
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
