// Package logging configures the application's structured loggers.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

var structuredLogger *slog.Logger
var levelVar slog.LevelVar

// Init initializes the logging system. Structured JSON output goes to
// stdout; the level can be raised or lowered at runtime via SetLevel.
func Init() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: &levelVar,
	})
	structuredLogger = slog.New(handler)
	slog.SetDefault(structuredLogger)
}

// SetLevel sets the minimum logging level for the default logger.
func SetLevel(level slog.Level) {
	levelVar.Set(level)
}

// ForService returns a logger with the service name attached to every
// record. Falls back to the default logger if Init was not called.
func ForService(service string) *slog.Logger {
	if structuredLogger == nil {
		Init()
	}
	return structuredLogger.With("service", service)
}

// NewFileLogger creates a logger writing JSON records to the given path
// with size-based rotation. The returned close function flushes and
// releases the underlying file.
func NewFileLogger(path, service string, maxSizeMB, maxBackups int) (*slog.Logger, func() error, error) {
	// lumberjack doesn't create directories
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}

	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		Compress:   true,
	}

	handler := slog.NewJSONHandler(rotator, &slog.HandlerOptions{
		Level: &levelVar,
	})
	logger := slog.New(handler).With("service", service)
	return logger, rotator.Close, nil
}

// NewTextLogger returns a human-readable logger writing to w. Used by CLI
// commands that print directly to the terminal.
func NewTextLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
