package slogger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Slogger implements Logger on top of log/slog with a tint handler.
type Slogger struct {
	logger *slog.Logger
}

// New returns a console logger writing to stdout. Colors are enabled
// only when stdout is a terminal.
func New(level LogLevel) *Slogger {
	return NewWithOutput(level, os.Stdout)
}

// NewWithOutput returns a logger writing to the given destination.
func NewWithOutput(level LogLevel, w io.Writer) *Slogger {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}
	handler := tint.NewHandler(w, &tint.Options{
		NoColor:    noColor,
		TimeFormat: time.Kitchen,
		Level:      slog.Level(level),
	})
	return &Slogger{logger: slog.New(handler)}
}

// NewFileLogger returns a logger appending to a dated log file under dir,
// e.g. logs/metricmail-2026-08-30.log. The directory is created if needed.
func NewFileLogger(level LogLevel, dir string) (*Slogger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	name := fmt.Sprintf("metricmail-%s.log", time.Now().Format("2006-01-02"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	handler := tint.NewHandler(f, &tint.Options{
		NoColor:    true,
		TimeFormat: time.RFC3339,
		Level:      slog.Level(level),
	})
	return &Slogger{logger: slog.New(handler)}, nil
}

func (l *Slogger) Debug(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l *Slogger) Info(msg string, keysAndValues ...any) {
	l.logger.Info(msg, keysAndValues...)
}

func (l *Slogger) Warn(msg string, keysAndValues ...any) {
	l.logger.Warn(msg, keysAndValues...)
}

func (l *Slogger) Error(msg string, keysAndValues ...any) {
	l.logger.Error(msg, keysAndValues...)
}

func (l *Slogger) With(keysAndValues ...any) Logger {
	return &Slogger{logger: l.logger.With(keysAndValues...)}
}
