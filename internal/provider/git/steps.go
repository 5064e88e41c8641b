// Package git clones repositories such as shell frameworks and themes.
package git

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/wslkit/internal/domain/component"
	"github.com/felixgeelhaar/wslkit/internal/ports"
	"github.com/felixgeelhaar/wslkit/internal/provider/commandutil"
	"github.com/felixgeelhaar/wslkit/internal/validation"
)

// CloneStep keeps a shallow clone of a repository at a fixed path.
type CloneStep struct {
	url    string
	dest   string
	branch string
	runner ports.CommandRunner
	fs     ports.FileSystem
}

// CloneOption configures a CloneStep.
type CloneOption func(*CloneStep)

// WithBranch clones a specific branch or tag.
func WithBranch(branch string) CloneOption {
	return func(s *CloneStep) {
		s.branch = branch
	}
}

// NewCloneStep creates a CloneStep. dest may start with "~/".
func NewCloneStep(url, dest string, runner ports.CommandRunner, fs ports.FileSystem, opts ...CloneOption) *CloneStep {
	s := &CloneStep{url: url, dest: dest, runner: runner, fs: fs}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *CloneStep) Name() string {
	return "clone " + repoName(s.url)
}

// Dest returns the expanded clone destination.
func (s *CloneStep) Dest() string {
	return ports.ExpandPath(s.dest)
}

// Probe reports whether dest is a git working tree.
func (s *CloneStep) Probe(_ component.RunContext) bool {
	return s.fs.IsDir(filepath.Join(s.Dest(), ".git"))
}

// Apply clones the repository. An existing non-repository directory at
// dest is left alone and reported.
func (s *CloneStep) Apply(rc component.RunContext) error {
	if err := validation.ValidateGitRemoteURL(s.url); err != nil {
		return fmt.Errorf("invalid repository: %w", err)
	}
	if err := validation.ValidatePath(s.dest); err != nil {
		return fmt.Errorf("invalid destination: %w", err)
	}

	dest := s.Dest()
	if s.fs.IsDir(filepath.Join(dest, ".git")) {
		return nil
	}
	if s.fs.Exists(dest) {
		return fmt.Errorf("%s exists and is not a git repository", dest)
	}
	if err := s.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(dest), err)
	}

	args := []string{"clone", "--depth=1"}
	if s.branch != "" {
		args = append(args, "--branch", s.branch)
	}
	args = append(args, s.url, dest)

	result, err := s.runner.Run(rc.Context(), "git", args...)
	if checkErr := commandutil.Check("git clone "+s.url, result, err); checkErr != nil {
		// a failed clone can leave a partial directory behind
		_ = s.fs.RemoveAll(dest)
		return checkErr
	}
	return nil
}

// Revert removes the clone.
func (s *CloneStep) Revert(_ component.RunContext) error {
	dest := s.Dest()
	if !s.fs.IsDir(filepath.Join(dest, ".git")) {
		return nil
	}
	if err := s.fs.RemoveAll(dest); err != nil {
		return fmt.Errorf("failed to remove %s: %w", dest, err)
	}
	return nil
}

func repoName(url string) string {
	name := url
	if i := strings.LastIndexByte(name, ':'); i >= 0 && !strings.Contains(name, "://") {
		name = name[i+1:]
	}
	return strings.TrimSuffix(path.Base(name), ".git")
}

var _ component.RevertibleStep = (*CloneStep)(nil)
