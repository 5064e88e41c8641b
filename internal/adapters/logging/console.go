package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/wslkit/internal/ports"
	"github.com/felixgeelhaar/wslkit/internal/tui/ui"
)

// ConsoleLogger prints one colored status line per event.
type ConsoleLogger struct {
	mu           *sync.Mutex
	out          io.Writer
	level        ports.Level
	fields       []ports.Field
	includeLevel bool
	hidden       map[string]bool
	styles       map[ports.Level]lipgloss.Style
	fieldStyle   lipgloss.Style
}

// ConsoleLoggerOption configures the console logger.
type ConsoleLoggerOption func(*ConsoleLogger)

// WithOutput sets the output writer (default: os.Stderr).
func WithOutput(w io.Writer) ConsoleLoggerOption {
	return func(l *ConsoleLogger) {
		l.out = w
	}
}

// WithLevel sets the minimum log level (default: Info).
func WithLevel(level ports.Level) ConsoleLoggerOption {
	return func(l *ConsoleLogger) {
		l.level = level
	}
}

// WithLevelLabel includes level label in log entries.
func WithLevelLabel(enabled bool) ConsoleLoggerOption {
	return func(l *ConsoleLogger) {
		l.includeLevel = enabled
	}
}

// WithHiddenFields drops the named fields from console lines. The file
// logger still records them.
func WithHiddenFields(keys ...string) ConsoleLoggerOption {
	return func(l *ConsoleLogger) {
		if l.hidden == nil {
			l.hidden = make(map[string]bool, len(keys))
		}
		for _, k := range keys {
			l.hidden[k] = true
		}
	}
}

// NewConsoleLogger creates a new console logger.
func NewConsoleLogger(opts ...ConsoleLoggerOption) *ConsoleLogger {
	l := &ConsoleLogger{
		mu:           &sync.Mutex{},
		out:          os.Stderr,
		level:        ports.LevelInfo,
		includeLevel: true,
	}

	for _, opt := range opts {
		opt(l)
	}

	r := lipgloss.NewRenderer(l.out)
	l.styles = map[ports.Level]lipgloss.Style{
		ports.LevelDebug:   r.NewStyle().Foreground(ui.ColorMuted),
		ports.LevelInfo:    r.NewStyle().Foreground(ui.ColorPrimary),
		ports.LevelSuccess: r.NewStyle().Foreground(ui.ColorSuccess).Bold(true),
		ports.LevelWarn:    r.NewStyle().Foreground(ui.ColorWarning),
		ports.LevelError:   r.NewStyle().Foreground(ui.ColorError).Bold(true),
	}
	l.fieldStyle = r.NewStyle().Faint(true)

	return l
}

// Debug logs a debug message.
func (l *ConsoleLogger) Debug(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelDebug, msg, fields)
}

// Info logs an informational message.
func (l *ConsoleLogger) Info(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelInfo, msg, fields)
}

// Success logs a completed action.
func (l *ConsoleLogger) Success(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelSuccess, msg, fields)
}

// Warn logs a warning message.
func (l *ConsoleLogger) Warn(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelWarn, msg, fields)
}

// Error logs an error message.
func (l *ConsoleLogger) Error(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelError, msg, fields)
}

// With returns a new logger with additional fields.
// The returned logger shares the output lock with its parent.
func (l *ConsoleLogger) With(fields ...ports.Field) ports.Logger {
	clone := *l
	clone.fields = appendFields(l.fields, fields)
	return &clone
}

// Level returns the minimum log level.
func (l *ConsoleLogger) Level() ports.Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetLevel sets the minimum log level.
func (l *ConsoleLogger) SetLevel(level ports.Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *ConsoleLogger) log(_ context.Context, level ports.Level, msg string, fields []ports.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	var b strings.Builder
	if l.includeLevel {
		b.WriteString(l.styles[level].Render("[" + level.String() + "]"))
		b.WriteByte(' ')
	}
	b.WriteString(msg)

	if all := appendFields(l.fields, fields); len(all) > 0 {
		parts := make([]string, 0, len(all))
		for _, f := range all {
			if l.hidden[f.Key] {
				continue
			}
			parts = append(parts, fmt.Sprintf("%s=%v", f.Key, f.Value))
		}
		if len(parts) > 0 {
			b.WriteByte(' ')
			b.WriteString(l.fieldStyle.Render(strings.Join(parts, " ")))
		}
	}

	_, _ = fmt.Fprintln(l.out, b.String())
}

func appendFields(base, extra []ports.Field) []ports.Field {
	out := make([]ports.Field, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}

// Ensure ConsoleLogger implements Logger.
var _ ports.Logger = (*ConsoleLogger)(nil)
