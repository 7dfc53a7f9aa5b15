package logger

import (
	"log/slog"
	"os"
)

// New returns the root structured logger. JSON output is the default so log
// aggregation stays machine-readable; set format to "text" for local runs.
func New(format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
