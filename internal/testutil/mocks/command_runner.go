// Package mocks provides test doubles for testing.
package mocks

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/felixgeelhaar/wslkit/internal/ports"
)

// CommandRunner is a thread-safe test double for ports.CommandRunner
// and ports.PathFinder.
type CommandRunner struct {
	mu          sync.RWMutex
	results     map[string]ports.CommandResult
	errors      map[string]error
	hooks       map[string]func()
	executables map[string]string
	calls       []ports.CommandCall
}

// NewCommandRunner creates a new CommandRunner mock.
func NewCommandRunner() *CommandRunner {
	return &CommandRunner{
		results:     make(map[string]ports.CommandResult),
		errors:      make(map[string]error),
		hooks:       make(map[string]func()),
		executables: make(map[string]string),
		calls:       make([]ports.CommandCall, 0),
	}
}

// AddResult registers an expected command and its result.
func (m *CommandRunner) AddResult(command string, args []string, result ports.CommandResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[buildKey(command, args)] = result
}

// AddError registers an expected command that should return an error.
func (m *CommandRunner) AddError(command string, args []string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[buildKey(command, args)] = err
}

// OnRun registers fn to be called when the command runs.
// Tests use it to simulate the side effects of an install.
func (m *CommandRunner) OnRun(command string, args []string, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks[buildKey(command, args)] = fn
}

// AddExecutable makes LookPath resolve name.
func (m *CommandRunner) AddExecutable(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executables[name] = "/usr/bin/" + name
}

// RemoveExecutable makes LookPath fail for name.
func (m *CommandRunner) RemoveExecutable(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.executables, name)
}

// Run executes a mock command.
func (m *CommandRunner) Run(_ context.Context, command string, args ...string) (ports.CommandResult, error) {
	return m.record(ports.CommandCall{Command: command, Args: args})
}

// RunWithInput executes a mock command, recording its stdin.
func (m *CommandRunner) RunWithInput(_ context.Context, input []byte, command string, args ...string) (ports.CommandResult, error) {
	return m.record(ports.CommandCall{Command: command, Args: args, Stdin: string(input)})
}

// LookPath resolves registered executables.
func (m *CommandRunner) LookPath(name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if path, ok := m.executables[name]; ok {
		return path, nil
	}
	return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
}

func (m *CommandRunner) record(call ports.CommandCall) (ports.CommandResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	key := buildKey(call.Command, call.Args)
	hook := m.hooks[key]
	m.mu.Unlock()

	if hook != nil {
		hook()
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err, ok := m.errors[key]; ok {
		return ports.CommandResult{}, err
	}
	if result, ok := m.results[key]; ok {
		return result, nil
	}
	if hook != nil {
		return ports.CommandResult{}, nil
	}

	return ports.CommandResult{}, fmt.Errorf("no mock result for command: %s %v", call.Command, call.Args)
}

// Calls returns all recorded command invocations.
func (m *CommandRunner) Calls() []ports.CommandCall {
	m.mu.RLock()
	defer m.mu.RUnlock()

	calls := make([]ports.CommandCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CallCount returns how many times command ran with args.
func (m *CommandRunner) CallCount(command string, args ...string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	key := buildKey(command, args)
	count := 0
	for _, c := range m.calls {
		if buildKey(c.Command, c.Args) == key {
			count++
		}
	}
	return count
}

// Reset clears all registered results, errors, and recorded calls.
func (m *CommandRunner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = make(map[string]ports.CommandResult)
	m.errors = make(map[string]error)
	m.hooks = make(map[string]func())
	m.calls = make([]ports.CommandCall, 0)
}

// buildKey creates a unique key for a command and its arguments.
func buildKey(command string, args []string) string {
	return command + ":" + strings.Join(args, ":")
}

// Ensure CommandRunner implements the command ports.
var (
	_ ports.CommandRunner = (*CommandRunner)(nil)
	_ ports.PathFinder    = (*CommandRunner)(nil)
)
