//go:build unix

package command

import (
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealRunner_RunsInOwnProcessGroup(t *testing.T) {
	if _, err := os.Stat("/proc/self/stat"); err != nil {
		t.Skip("procfs not available")
	}
	runner := NewRealRunner()

	result, err := runner.Run(context.Background(), "cat", "/proc/self/stat")
	require.NoError(t, err)
	require.True(t, result.Success())

	// pid (comm) state ppid pgrp ...
	fields := strings.Fields(result.Stdout[strings.LastIndex(result.Stdout, ")")+1:])
	require.GreaterOrEqual(t, len(fields), 3)
	pgrp, err := strconv.Atoi(fields[2])
	require.NoError(t, err)
	assert.NotEqual(t, syscall.Getpgrp(), pgrp)
}

func TestRealRunner_CancelKillsProcessGroup(t *testing.T) {
	runner := NewRealRunner()
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	result, _ := runner.Run(ctx, "sh", "-c", "sleep 20 & sleep 20")

	assert.False(t, result.Success())
	assert.Less(t, time.Since(start), 5*time.Second, "background child kept the pipes open")
}

func TestRealRunner_WaitDelayBoundsEscapedChildren(t *testing.T) {
	if _, err := exec.LookPath("setsid"); err != nil {
		t.Skip("setsid not available")
	}
	runner := NewRealRunner(WithWaitDelay(100 * time.Millisecond))
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, _ = runner.Run(ctx, "sh", "-c", "setsid sleep 20 & sleep 20")

	assert.Less(t, time.Since(start), 5*time.Second)
}
