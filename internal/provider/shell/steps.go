// Package shell manages rc file blocks and the login shell.
package shell

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/wslkit/internal/domain/component"
	"github.com/felixgeelhaar/wslkit/internal/domain/emitter"
	"github.com/felixgeelhaar/wslkit/internal/ports"
	"github.com/felixgeelhaar/wslkit/internal/provider/commandutil"
)

// DefaultShell is restored when the login shell change is reverted.
const DefaultShell = "/bin/bash"

// BlockStep keeps one managed block in an rc file.
type BlockStep struct {
	target  string
	marker  string
	body    string
	emitter *emitter.Emitter
}

// NewBlockStep creates a BlockStep. target may start with "~/".
func NewBlockStep(target, marker, body string, em *emitter.Emitter) *BlockStep {
	return &BlockStep{target: target, marker: marker, body: body, emitter: em}
}

// Name returns the step name.
func (s *BlockStep) Name() string {
	return fmt.Sprintf("%s block in %s", s.marker, filepath.Base(s.target))
}

// Target returns the expanded rc file path.
func (s *BlockStep) Target() string {
	return ports.ExpandPath(s.target)
}

// Probe reports whether the rc file holds exactly this block.
func (s *BlockStep) Probe(_ component.RunContext) bool {
	return s.emitter.HasBlock(s.Target(), s.marker, s.body)
}

// Apply writes the block, backing up the rc file first.
func (s *BlockStep) Apply(rc component.RunContext) error {
	result, err := s.emitter.Append(s.Target(), s.marker, s.body)
	if err != nil {
		return err
	}
	logBackup(rc, result)
	return nil
}

// Revert removes the block and leaves the rest of the file alone.
func (s *BlockStep) Revert(rc component.RunContext) error {
	result, err := s.emitter.RemoveBlock(s.Target(), s.marker)
	if err != nil {
		return err
	}
	logBackup(rc, result)
	return nil
}

// LoginShellStep makes a shell the user's login shell.
type LoginShellStep struct {
	shell  string
	user   string
	finder ports.PathFinder
	runner ports.CommandRunner
}

// NewLoginShellStep creates a LoginShellStep for user, switching to the
// shell executable named shell (e.g. "zsh").
func NewLoginShellStep(shell, user string, finder ports.PathFinder, runner ports.CommandRunner) *LoginShellStep {
	return &LoginShellStep{shell: shell, user: user, finder: finder, runner: runner}
}

// Name returns the step name.
func (s *LoginShellStep) Name() string {
	return "login shell " + s.shell
}

// Probe reports whether the passwd entry already names the shell.
func (s *LoginShellStep) Probe(rc component.RunContext) bool {
	current, ok := s.current(rc)
	if !ok {
		return false
	}
	return filepath.Base(current) == filepath.Base(s.shell)
}

// Apply runs chsh with the resolved shell path.
func (s *LoginShellStep) Apply(rc component.RunContext) error {
	path, err := s.finder.LookPath(s.shell)
	if err != nil {
		return fmt.Errorf("%s is not installed: %w", s.shell, err)
	}
	return s.chsh(rc, path)
}

// Revert switches back to bash.
func (s *LoginShellStep) Revert(rc component.RunContext) error {
	return s.chsh(rc, DefaultShell)
}

func (s *LoginShellStep) chsh(rc component.RunContext, path string) error {
	if s.user == "" {
		return fmt.Errorf("cannot change login shell: user unknown")
	}
	result, err := s.runner.Run(rc.Context(), "sudo", "chsh", "-s", path, s.user)
	return commandutil.Check("chsh -s "+path, result, err)
}

// current reads the seventh passwd field.
func (s *LoginShellStep) current(rc component.RunContext) (string, bool) {
	if s.user == "" {
		return "", false
	}
	result, err := s.runner.Run(rc.Context(), "getent", "passwd", s.user)
	if err != nil || !result.Success() {
		return "", false
	}
	fields := strings.Split(strings.TrimSpace(result.Stdout), ":")
	if len(fields) < 7 {
		return "", false
	}
	return fields[6], true
}

func logBackup(rc component.RunContext, result emitter.Result) {
	if result.Backup == nil || rc.Logger() == nil {
		return
	}
	rc.Logger().Debug(rc.Context(), "backed up "+result.Backup.Original,
		ports.F("backup", result.Backup.Path))
}

var (
	_ component.RevertibleStep = (*BlockStep)(nil)
	_ component.RevertibleStep = (*LoginShellStep)(nil)
)
