// Package script runs installers that have no package manager: remote
// shell scripts piped to a shell and fixed argv command sequences.
// Both are guarded by a probe criterion.
package script

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/wslkit/internal/domain/component"
	"github.com/felixgeelhaar/wslkit/internal/domain/probe"
	"github.com/felixgeelhaar/wslkit/internal/ports"
	"github.com/felixgeelhaar/wslkit/internal/provider/commandutil"
	"github.com/felixgeelhaar/wslkit/internal/validation"
)

// Prober evaluates a criterion.
type Prober interface {
	Probe(ctx context.Context, c probe.Criterion) bool
}

// RemoteStep downloads an installer over https and feeds it to a shell.
type RemoteStep struct {
	name       string
	url        string
	shell      string
	args       []string
	env        []string
	criterion  probe.Criterion
	prober     Prober
	downloader ports.Downloader
	runner     ports.CommandRunner
}

// RemoteOption configures a RemoteStep.
type RemoteOption func(*RemoteStep)

// WithShell selects the interpreter. Defaults to sh.
func WithShell(shell string) RemoteOption {
	return func(s *RemoteStep) {
		s.shell = shell
	}
}

// WithArgs passes arguments to the script.
func WithArgs(args ...string) RemoteOption {
	return func(s *RemoteStep) {
		s.args = append([]string(nil), args...)
	}
}

// WithEnv sets KEY=VALUE pairs for the script.
func WithEnv(env ...string) RemoteOption {
	return func(s *RemoteStep) {
		s.env = append([]string(nil), env...)
	}
}

// NewRemoteStep creates a RemoteStep.
func NewRemoteStep(name, url string, criterion probe.Criterion, prober Prober, downloader ports.Downloader, runner ports.CommandRunner, opts ...RemoteOption) *RemoteStep {
	s := &RemoteStep{
		name:       name,
		url:        url,
		shell:      "sh",
		criterion:  criterion,
		prober:     prober,
		downloader: downloader,
		runner:     runner,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *RemoteStep) Name() string {
	return s.name
}

// URL returns the installer location.
func (s *RemoteStep) URL() string {
	return s.url
}

// Probe evaluates the criterion.
func (s *RemoteStep) Probe(rc component.RunContext) bool {
	return s.prober.Probe(rc.Context(), s.criterion)
}

// Apply fetches the script and runs it. Download errors keep their
// transient marking.
func (s *RemoteStep) Apply(rc component.RunContext) error {
	if err := validation.ValidateDownloadURL(s.url); err != nil {
		return err
	}

	body, err := s.downloader.Fetch(rc.Context(), s.url)
	if err != nil {
		return fmt.Errorf("failed to download installer: %w", err)
	}
	if len(body) == 0 {
		return fmt.Errorf("installer %s is empty", s.url)
	}

	args := append([]string{"-s", "--"}, s.args...)
	cmd := s.shell
	if len(s.env) > 0 {
		args = append(append(append([]string(nil), s.env...), s.shell), args...)
		cmd = "env"
	}
	result, err := s.runner.RunWithInput(rc.Context(), body, cmd, args...)
	return commandutil.Check(s.name, result, err)
}

// Command is one argv invocation.
type Command struct {
	Name string
	Args []string
}

// Cmd builds a Command.
func Cmd(name string, args ...string) Command {
	return Command{Name: name, Args: args}
}

// String renders the command for messages.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// CommandStep runs a fixed sequence of commands, stopping at the first
// failure.
type CommandStep struct {
	name      string
	commands  []Command
	criterion probe.Criterion
	prober    Prober
	runner    ports.CommandRunner
}

// NewCommandStep creates a CommandStep.
func NewCommandStep(name string, criterion probe.Criterion, prober Prober, runner ports.CommandRunner, commands ...Command) *CommandStep {
	return &CommandStep{
		name:      name,
		commands:  append([]Command(nil), commands...),
		criterion: criterion,
		prober:    prober,
		runner:    runner,
	}
}

// Name returns the step name.
func (s *CommandStep) Name() string {
	return s.name
}

// Commands returns the command sequence.
func (s *CommandStep) Commands() []Command {
	return append([]Command(nil), s.commands...)
}

// Probe evaluates the criterion.
func (s *CommandStep) Probe(rc component.RunContext) bool {
	return s.prober.Probe(rc.Context(), s.criterion)
}

// Apply runs each command in order.
func (s *CommandStep) Apply(rc component.RunContext) error {
	return runAll(rc, s.runner, s.commands)
}

// RemovableStep adds a Revert to any step that deletes the paths it
// left behind and runs optional cleanup commands first.
type RemovableStep struct {
	component.Step
	fs       ports.FileSystem
	runner   ports.CommandRunner
	paths    []string
	commands []Command
}

// Removable wraps step so that Revert removes paths.
func Removable(step component.Step, fs ports.FileSystem, paths ...string) *RemovableStep {
	return &RemovableStep{Step: step, fs: fs, paths: append([]string(nil), paths...)}
}

// WithCleanup runs commands before the paths are removed.
func (s *RemovableStep) WithCleanup(runner ports.CommandRunner, commands ...Command) *RemovableStep {
	s.runner = runner
	s.commands = append([]Command(nil), commands...)
	return s
}

// Revert runs the cleanup commands and removes the paths.
func (s *RemovableStep) Revert(rc component.RunContext) error {
	if len(s.commands) > 0 {
		if err := runAll(rc, s.runner, s.commands); err != nil {
			return err
		}
	}
	for _, p := range s.paths {
		if err := validation.ValidatePath(p); err != nil {
			return err
		}
		path := ports.ExpandPath(p)
		if !s.fs.Exists(path) {
			continue
		}
		if err := s.fs.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	return nil
}

func runAll(rc component.RunContext, runner ports.CommandRunner, commands []Command) error {
	for _, c := range commands {
		result, err := runner.Run(rc.Context(), c.Name, c.Args...)
		if err := commandutil.Check(c.String(), result, err); err != nil {
			return err
		}
	}
	return nil
}

var (
	_ component.Step           = (*RemoteStep)(nil)
	_ component.Step           = (*CommandStep)(nil)
	_ component.RevertibleStep = (*RemovableStep)(nil)
)
