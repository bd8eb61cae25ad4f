package logger

import (
	"log/slog"
	"os"
)

// New creates the application logger writing JSON lines to stdout.
func New() *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(handler).With(slog.String("service", "fairmarket"))
}
