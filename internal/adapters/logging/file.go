package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/felixgeelhaar/wslkit/internal/ports"
	"github.com/rs/zerolog"
)

// fileTimeFormat is the timestamp layout of the durable log.
const fileTimeFormat = "2006-01-02 15:04:05"

// FileLogger appends human-readable, timestamped lines to a log file.
type FileLogger struct {
	mu     *sync.Mutex
	zl     zerolog.Logger
	closer io.Closer
	level  ports.Level
}

// OpenFileLogger opens (or creates) the log file at path in append mode.
func OpenFileLogger(path string) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := NewFileLogger(file)
	l.closer = file
	return l, nil
}

// NewFileLogger creates a FileLogger writing to w.
func NewFileLogger(w io.Writer) *FileLogger {
	writer := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: fileTimeFormat,
	}
	return &FileLogger{
		mu:    &sync.Mutex{},
		zl:    zerolog.New(writer).With().Timestamp().Logger(),
		level: ports.LevelDebug,
	}
}

// Close closes the underlying file, if any.
func (l *FileLogger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// Debug logs a debug message.
func (l *FileLogger) Debug(_ context.Context, msg string, fields ...ports.Field) {
	l.write(ports.LevelDebug, msg, fields)
}

// Info logs an informational message.
func (l *FileLogger) Info(_ context.Context, msg string, fields ...ports.Field) {
	l.write(ports.LevelInfo, msg, fields)
}

// Success logs a completed action.
func (l *FileLogger) Success(_ context.Context, msg string, fields ...ports.Field) {
	l.write(ports.LevelSuccess, msg, fields)
}

// Warn logs a warning message.
func (l *FileLogger) Warn(_ context.Context, msg string, fields ...ports.Field) {
	l.write(ports.LevelWarn, msg, fields)
}

// Error logs an error message.
func (l *FileLogger) Error(_ context.Context, msg string, fields ...ports.Field) {
	l.write(ports.LevelError, msg, fields)
}

// With returns a logger that adds fields to every entry.
func (l *FileLogger) With(fields ...ports.Field) ports.Logger {
	ctx := l.zl.With()
	for _, f := range fields {
		ctx = ctx.Interface(f.Key, f.Value)
	}
	clone := *l
	clone.zl = ctx.Logger()
	clone.closer = nil
	return &clone
}

// Level returns the minimum log level.
func (l *FileLogger) Level() ports.Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetLevel sets the minimum log level.
func (l *FileLogger) SetLevel(level ports.Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *FileLogger) write(level ports.Level, msg string, fields []ports.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	var event *zerolog.Event
	switch level {
	case ports.LevelDebug:
		event = l.zl.Debug()
	case ports.LevelWarn:
		event = l.zl.Warn()
	case ports.LevelError:
		event = l.zl.Error()
	case ports.LevelSuccess:
		event = l.zl.Info().Str("result", "ok")
	default:
		event = l.zl.Info()
	}

	for _, f := range fields {
		event = event.Interface(f.Key, f.Value)
	}
	event.Msg(msg)
}

// Ensure FileLogger implements Logger.
var _ ports.Logger = (*FileLogger)(nil)
