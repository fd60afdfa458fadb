// Package logger wraps log/slog behind a small interface so services can
// be tested with a silent logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the logging interface used throughout the application.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	SetLevel(level slog.Level)
	Level() slog.Level
}

// SlogLogger implements Logger on top of a slog.Logger with a dynamic level.
type SlogLogger struct {
	logger *slog.Logger
	level  *slog.LevelVar
}

// New creates a logger writing text records to stdout at info level.
func New() *SlogLogger {
	return NewWithLevel(slog.LevelInfo)
}

// NewWithLevel creates a logger at a specific level.
func NewWithLevel(level slog.Level) *SlogLogger {
	return newWriter(os.Stdout, level)
}

// NewSilent creates a logger that discards everything. Meant for tests.
func NewSilent() *SlogLogger {
	return newWriter(io.Discard, slog.LevelError)
}

func newWriter(w io.Writer, level slog.Level) *SlogLogger {
	levelVar := &slog.LevelVar{}
	levelVar.Set(level)
	return &SlogLogger{
		logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: levelVar})),
		level:  levelVar,
	}
}

// ParseLevel converts a string level to slog.Level. Unrecognized values
// fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *SlogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *SlogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *SlogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *SlogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

// SetLevel changes the logging level at runtime.
func (l *SlogLogger) SetLevel(level slog.Level) { l.level.Set(level) }

// Level returns the current logging level.
func (l *SlogLogger) Level() slog.Level { return l.level.Level() }
