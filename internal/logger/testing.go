package logger

import (
	"log/slog"
	"os"
)

// NewTestLogger creates a logger for tests.
// It logs at WARN to stdout to keep test output quiet. TEST_DEBUG enables
// debug logging; otherwise ATTENTION_LOG_LEVEL is honoured when set.
func NewTestLogger() *slog.Logger {
	level := slog.LevelWarn

	if lvl, ok := ParseLevel(os.Getenv(EnvLevel)); ok {
		level = lvl
	}
	if os.Getenv("TEST_DEBUG") != "" {
		level = slog.LevelDebug
	}

	return NewLogger(Config{
		Level:  level,
		Format: "text",
		Output: os.Stdout,
	})
}
