package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup builds the service-wide JSON logger and installs it as the slog
// default, so package-level slog calls in the core share the same handler.
func Setup(service, level string) *slog.Logger {
	return setup(os.Stdout, service, level)
}

// SetupStderr is Setup for processes whose stdout carries a protocol
// stream, such as the stdio MCP server.
func SetupStderr(service, level string) *slog.Logger {
	return setup(os.Stderr, service, level)
}

func setup(w io.Writer, service, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	logger := slog.New(handler).With("service", service)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
