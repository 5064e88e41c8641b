// Package npm installs global Node packages, optionally through nvm.
package npm

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/wslkit/internal/domain/component"
	"github.com/felixgeelhaar/wslkit/internal/ports"
	"github.com/felixgeelhaar/wslkit/internal/provider/commandutil"
	"github.com/felixgeelhaar/wslkit/internal/validation"
)

// GlobalPackageStep keeps one package installed with npm -g.
type GlobalPackageStep struct {
	spec    string
	name    string
	version string
	nvmDir  string
	runner  ports.CommandRunner
}

// Option configures a GlobalPackageStep.
type Option func(*GlobalPackageStep)

// WithNVM runs npm inside a shell that has sourced nvm.sh from dir, for
// installs where node is managed by nvm and not on the default PATH.
func WithNVM(dir string) Option {
	return func(s *GlobalPackageStep) {
		s.nvmDir = dir
	}
}

// NewGlobalPackageStep creates a step for spec, e.g. "typescript" or
// "@modelcontextprotocol/server-memory@0.6.0".
func NewGlobalPackageStep(spec string, runner ports.CommandRunner, opts ...Option) *GlobalPackageStep {
	name, version := SplitSpec(spec)
	s := &GlobalPackageStep{spec: spec, name: name, version: version, runner: runner}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *GlobalPackageStep) Name() string {
	return "npm " + s.spec
}

// Package returns the package name without version.
func (s *GlobalPackageStep) Package() string {
	return s.name
}

// Probe reports whether the package is installed globally, at the pinned
// version when one is given.
func (s *GlobalPackageStep) Probe(rc component.RunContext) bool {
	cmd, args := s.command("list", "-g", "--depth=0", "--json")
	result, err := s.runner.Run(rc.Context(), cmd, args...)
	if err != nil {
		return false
	}

	// npm list exits 1 on problems with unrelated packages but still
	// prints the tree
	var tree struct {
		Dependencies map[string]struct {
			Version string `json:"version"`
		} `json:"dependencies"`
	}
	if err := json.Unmarshal([]byte(result.Stdout), &tree); err != nil {
		return false
	}
	dep, ok := tree.Dependencies[s.name]
	if !ok {
		return false
	}
	return s.version == "" || dep.Version == s.version
}

// Apply installs the package.
func (s *GlobalPackageStep) Apply(rc component.RunContext) error {
	if err := validation.ValidateNpmPackage(s.spec); err != nil {
		return fmt.Errorf("invalid npm package: %w", err)
	}
	cmd, args := s.command("install", "-g", s.spec)
	result, err := s.runner.Run(rc.Context(), cmd, args...)
	return commandutil.Check("npm install -g "+s.spec, result, err)
}

// Revert uninstalls the package.
func (s *GlobalPackageStep) Revert(rc component.RunContext) error {
	if err := validation.ValidateNpmPackage(s.name); err != nil {
		return fmt.Errorf("invalid npm package: %w", err)
	}
	cmd, args := s.command("uninstall", "-g", s.name)
	result, err := s.runner.Run(rc.Context(), cmd, args...)
	return commandutil.Check("npm uninstall -g "+s.name, result, err)
}

func (s *GlobalPackageStep) command(args ...string) (string, []string) {
	if s.nvmDir == "" {
		return "npm", args
	}
	nvmScript := filepath.Join(ports.ExpandPath(s.nvmDir), "nvm.sh")
	script := fmt.Sprintf(". %s && npm %s", commandutil.ShellQuote(nvmScript), commandutil.ShellQuote(args...))
	return "bash", []string{"-c", script}
}

// SplitSpec separates "name@version" into its parts. The leading "@" of
// a scoped name is not a version separator.
func SplitSpec(spec string) (name, version string) {
	i := strings.LastIndexByte(spec, '@')
	if i <= 0 {
		return spec, ""
	}
	return spec[:i], spec[i+1:]
}

var _ component.RevertibleStep = (*GlobalPackageStep)(nil)
