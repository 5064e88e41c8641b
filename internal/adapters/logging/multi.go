package logging

import (
	"context"

	"github.com/felixgeelhaar/wslkit/internal/ports"
)

// MultiLogger forwards every entry to all of its loggers.
type MultiLogger struct {
	loggers []ports.Logger
}

// NewMultiLogger creates a logger that fans out to loggers.
func NewMultiLogger(loggers ...ports.Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

// Debug logs to every logger.
func (m *MultiLogger) Debug(ctx context.Context, msg string, fields ...ports.Field) {
	for _, l := range m.loggers {
		l.Debug(ctx, msg, fields...)
	}
}

// Info logs to every logger.
func (m *MultiLogger) Info(ctx context.Context, msg string, fields ...ports.Field) {
	for _, l := range m.loggers {
		l.Info(ctx, msg, fields...)
	}
}

// Success logs to every logger.
func (m *MultiLogger) Success(ctx context.Context, msg string, fields ...ports.Field) {
	for _, l := range m.loggers {
		l.Success(ctx, msg, fields...)
	}
}

// Warn logs to every logger.
func (m *MultiLogger) Warn(ctx context.Context, msg string, fields ...ports.Field) {
	for _, l := range m.loggers {
		l.Warn(ctx, msg, fields...)
	}
}

// Error logs to every logger.
func (m *MultiLogger) Error(ctx context.Context, msg string, fields ...ports.Field) {
	for _, l := range m.loggers {
		l.Error(ctx, msg, fields...)
	}
}

// With applies fields to every child logger.
func (m *MultiLogger) With(fields ...ports.Field) ports.Logger {
	children := make([]ports.Logger, len(m.loggers))
	for i, l := range m.loggers {
		children[i] = l.With(fields...)
	}
	return &MultiLogger{loggers: children}
}

// Level returns the most verbose level among the children.
func (m *MultiLogger) Level() ports.Level {
	level := ports.LevelError
	for _, l := range m.loggers {
		if l.Level() < level {
			level = l.Level()
		}
	}
	return level
}

// SetLevel sets the level on every child.
func (m *MultiLogger) SetLevel(level ports.Level) {
	for _, l := range m.loggers {
		l.SetLevel(level)
	}
}

// Ensure MultiLogger implements Logger.
var _ ports.Logger = (*MultiLogger)(nil)
