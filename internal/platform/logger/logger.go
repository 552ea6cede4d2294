package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. Text on stdout; handlers and services add
// request_id and operation attributes themselves.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
