// Package command provides command execution adapters.
package command

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/felixgeelhaar/wslkit/internal/ports"
)

// DefaultWaitDelay bounds how long Run waits for output pipes after the
// process was killed. Descendants that escaped the process group can keep
// them open indefinitely.
const DefaultWaitDelay = time.Second

// RealRunner executes actual shell commands.
//
// Every command runs in its own process group. A terminal interrupt is
// delivered to wslkit only, so a command that already started can finish,
// and cancelling the context kills the whole group rather than the direct
// child alone. Commands cannot prompt on the terminal; sudo credentials
// are primed beforehand with Authenticate.
type RealRunner struct {
	waitDelay time.Duration
}

// RealRunnerOption configures a RealRunner.
type RealRunnerOption func(*RealRunner)

// WithWaitDelay sets how long to wait for output after a kill.
func WithWaitDelay(d time.Duration) RealRunnerOption {
	return func(r *RealRunner) {
		r.waitDelay = d
	}
}

// NewRealRunner creates a new RealRunner.
func NewRealRunner(opts ...RealRunnerOption) *RealRunner {
	r := &RealRunner{waitDelay: DefaultWaitDelay}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes a command and returns the result.
func (r *RealRunner) Run(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	return r.run(r.command(ctx, command, args...))
}

// RunWithInput executes a command with input connected to its stdin.
func (r *RealRunner) RunWithInput(ctx context.Context, input []byte, command string, args ...string) (ports.CommandResult, error) {
	cmd := r.command(ctx, command, args...)
	cmd.Stdin = bytes.NewReader(input)
	return r.run(cmd)
}

// LookPath resolves an executable on PATH.
func (r *RealRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Authenticate runs "sudo -v" attached to the terminal so later sudo calls
// from the isolated process groups find cached credentials.
func (r *RealRunner) Authenticate(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "sudo", "-v")
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func (r *RealRunner) command(ctx context.Context, command string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.WaitDelay = r.waitDelay
	isolate(cmd)
	return cmd
}

func (r *RealRunner) run(cmd *exec.Cmd) (ports.CommandResult, error) {
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := ports.CommandResult{
		ExitCode: 0,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, err
	}

	return result, nil
}

// Ensure RealRunner implements the command ports.
var (
	_ ports.CommandRunner = (*RealRunner)(nil)
	_ ports.PathFinder    = (*RealRunner)(nil)
)
