// Package slogger provides structured logging for metricmail. It wraps
// log/slog with a small interface so packages can accept any logger,
// including the no-op logger used in tests.
package slogger

import (
	"context"
	"log/slog"
	"strings"
)

// DefaultLogger is used when no logger is configured.
var DefaultLogger Logger = NewDevNullLogger()

// DefaultLogLevel is the level used when none is specified.
var DefaultLogLevel = LevelInfo

// Logger is the logging interface used throughout metricmail. It supports
// structured key-value logging and is compatible with slog conventions.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)

	// With returns a Logger that includes the given key-value pairs in
	// every record.
	With(keysAndValues ...any) Logger
}

// LogLevel is the minimum level a logger emits.
type LogLevel slog.Level

const (
	LevelDebug LogLevel = LogLevel(slog.LevelDebug)
	LevelInfo  LogLevel = LogLevel(slog.LevelInfo)
	LevelWarn  LogLevel = LogLevel(slog.LevelWarn)
	LevelError LogLevel = LogLevel(slog.LevelError)
)

// LevelFromString converts a string to a LogLevel, defaulting to
// DefaultLogLevel for unrecognized values.
func LevelFromString(level string) LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return DefaultLogLevel
	}
}

type contextKey string

const loggerKey contextKey = "metricmail.logger"

// WithLogger returns a new context carrying the given logger.
func WithLogger(ctx context.Context, logger Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// Ctx returns the logger stored in the context, or a default console
// logger when none is present.
func Ctx(ctx context.Context) Logger {
	if ctx == nil {
		return New(DefaultLogLevel)
	}
	if logger, ok := ctx.Value(loggerKey).(Logger); ok {
		return logger
	}
	return New(DefaultLogLevel)
}
