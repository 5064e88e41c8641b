package logging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/wslkit/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopLogger_Methods(t *testing.T) {
	logger := NewNopLogger()
	ctx := context.Background()

	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Success(ctx, "success message")
	logger.Warn(ctx, "warn message")
	logger.Error(ctx, "error message")

	assert.Same(t, logger, logger.With(ports.F("key", "value")))

	assert.Equal(t, ports.LevelInfo, logger.Level())
	logger.SetLevel(ports.LevelDebug)
	assert.Equal(t, ports.LevelDebug, logger.Level())
}

func TestConsoleLogger_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(WithOutput(&buf), WithLevel(ports.LevelDebug))

	ctx := context.Background()
	logger.Info(ctx, "probing zsh")
	logger.Success(ctx, "zsh installed")
	logger.Warn(ctx, "fuser not found")
	logger.Error(ctx, "apt-get failed")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "[INFO] probing zsh")
	assert.Contains(t, lines[1], "[OK] zsh installed")
	assert.Contains(t, lines[2], "[WARN] fuser not found")
	assert.Contains(t, lines[3], "[ERROR] apt-get failed")
}

func TestConsoleLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(WithOutput(&buf), WithLevelLabel(false))

	logger.With(ports.F("component", "zsh")).Info(context.Background(), "applying", ports.F("step", "apt:zsh"))

	output := buf.String()
	assert.Contains(t, output, "applying")
	assert.Contains(t, output, "component=zsh")
	assert.Contains(t, output, "step=apt:zsh")
	assert.NotContains(t, output, "[INFO]")
}

func TestConsoleLogger_HiddenFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(WithOutput(&buf), WithHiddenFields("run_id", "step"))

	logger.With(ports.F("run_id", "3f2a")).Success(context.Background(), "zsh: apt install zsh applied", ports.F("step", "apt install zsh"))
	logger.With(ports.F("run_id", "3f2a")).Warn(context.Background(), "retrying", ports.F("attempts", 2))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "zsh: apt install zsh applied"), lines[0])
	assert.NotContains(t, buf.String(), "run_id")
	assert.Contains(t, lines[1], "attempts=2")
}

func TestConsoleLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(WithOutput(&buf), WithLevel(ports.LevelWarn))

	ctx := context.Background()
	logger.Debug(ctx, "hidden debug")
	logger.Info(ctx, "hidden info")
	logger.Success(ctx, "hidden success")
	logger.Warn(ctx, "visible warn")

	output := buf.String()
	assert.NotContains(t, output, "hidden")
	assert.Contains(t, output, "visible warn")

	logger.SetLevel(ports.LevelDebug)
	logger.Debug(ctx, "now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestFileLogger_WritesTimestampedLines(t *testing.T) {
	var buf bytes.Buffer
	logger := NewFileLogger(&buf).With(ports.F("run_id", "abc123"))

	logger.Success(context.Background(), "step applied", ports.F("step", "git:clone:p10k"))
	logger.Error(context.Background(), "step failed", ports.F("reason", "exit 1"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} `, lines[0])
	assert.Contains(t, lines[0], "step applied")
	assert.Contains(t, lines[0], "run_id=abc123")
	assert.Contains(t, lines[0], "result=ok")
	assert.Contains(t, lines[1], "step failed")
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestOpenFileLogger_AppendsAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "wslkit.log")

	first, err := OpenFileLogger(path)
	require.NoError(t, err)
	first.Info(context.Background(), "first run")
	require.NoError(t, first.Close())

	second, err := OpenFileLogger(path)
	require.NoError(t, err)
	second.Info(context.Background(), "second run")
	require.NoError(t, second.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "first run")
	assert.Contains(t, string(data), "second run")
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}

func TestMultiLogger_FansOut(t *testing.T) {
	var console, file bytes.Buffer
	logger := NewMultiLogger(
		NewConsoleLogger(WithOutput(&console)),
		NewFileLogger(&file),
	).With(ports.F("run_id", "r1"))

	logger.Success(context.Background(), "done")

	assert.Contains(t, console.String(), "done")
	assert.Contains(t, console.String(), "run_id=r1")
	assert.Contains(t, file.String(), "done")
	assert.Contains(t, file.String(), "run_id=r1")
}

func TestMultiLogger_Level(t *testing.T) {
	console := NewConsoleLogger(WithOutput(&bytes.Buffer{}), WithLevel(ports.LevelWarn))
	file := NewFileLogger(&bytes.Buffer{})
	multi := NewMultiLogger(console, file)

	assert.Equal(t, ports.LevelDebug, multi.Level())

	multi.SetLevel(ports.LevelError)
	assert.Equal(t, ports.LevelError, console.Level())
	assert.Equal(t, ports.LevelError, file.Level())
}
