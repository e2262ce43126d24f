// Package logging builds the slog logger every component hangs its child
// loggers off of. Output is text on stderr; the deployment is a single
// process on an office box, so there is no aggregator to feed JSON to.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

func parseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		// Unknown strings (including REBOOK_LOG_LEVEL left unset) mean info.
		return slog.LevelInfo
	}
}

// Setup builds the root logger at the named level, installs it as the slog
// default, and returns it for explicit wiring.
func Setup(level string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
