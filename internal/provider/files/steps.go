// Package files writes whole configuration files through the emitter.
package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/wslkit/internal/domain/backup"
	"github.com/felixgeelhaar/wslkit/internal/domain/component"
	"github.com/felixgeelhaar/wslkit/internal/domain/emitter"
	"github.com/felixgeelhaar/wslkit/internal/ports"
)

// Renderer produces file content from what is on disk now. current is
// nil when the target does not exist.
type Renderer func(current []byte) ([]byte, error)

// Static renders fixed content.
func Static(content []byte) Renderer {
	return func([]byte) ([]byte, error) {
		return content, nil
	}
}

// ConfigStep keeps a file equal to its rendered content.
type ConfigStep struct {
	name    string
	target  string
	render  Renderer
	emitter *emitter.Emitter
	backups *backup.Manager
	fs      ports.FileSystem
}

// NewConfigStep creates a ConfigStep. target may start with "~/".
func NewConfigStep(name, target string, render Renderer, em *emitter.Emitter, backups *backup.Manager, fs ports.FileSystem) *ConfigStep {
	return &ConfigStep{name: name, target: target, render: render, emitter: em, backups: backups, fs: fs}
}

// Name returns the step name.
func (s *ConfigStep) Name() string {
	if s.name != "" {
		return s.name
	}
	return "write " + filepath.Base(s.target)
}

// Target returns the expanded file path.
func (s *ConfigStep) Target() string {
	return ports.ExpandPath(s.target)
}

// Probe reports whether the file already holds the rendered content.
func (s *ConfigStep) Probe(_ component.RunContext) bool {
	want, err := s.rendered()
	if err != nil {
		return false
	}
	return s.emitter.Matches(s.Target(), want)
}

// Apply writes the rendered content; the previous file is backed up.
func (s *ConfigStep) Apply(rc component.RunContext) error {
	want, err := s.rendered()
	if err != nil {
		return fmt.Errorf("render %s: %w", s.Target(), err)
	}
	if s.emitter.Matches(s.Target(), want) {
		return nil
	}
	result, err := s.emitter.Emit(s.Target(), want)
	if err != nil {
		return err
	}
	if result.Backup != nil && rc.Logger() != nil {
		rc.Logger().Debug(rc.Context(), "backed up "+result.Backup.Original, ports.F("backup", result.Backup.Path))
	}
	return nil
}

// Revert restores the newest backup, or removes the file when wslkit
// created it.
func (s *ConfigStep) Revert(rc component.RunContext) error {
	target := s.Target()
	latest, err := s.backups.Latest(target)
	switch {
	case errors.Is(err, backup.ErrNoBackup):
		if err := s.fs.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", target, err)
		}
		return nil
	case err != nil:
		return err
	}

	if _, err := s.backups.Restore(*latest); err != nil {
		return err
	}
	if rc.Logger() != nil {
		rc.Logger().Debug(rc.Context(), "restored "+target, ports.F("backup", latest.Path))
	}
	return nil
}

func (s *ConfigStep) rendered() ([]byte, error) {
	current, err := s.fs.ReadFile(s.Target())
	if err != nil {
		current = nil
	}
	return s.render(current)
}

var _ component.RevertibleStep = (*ConfigStep)(nil)
