// Package pip installs Python packages into the user site.
package pip

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/wslkit/internal/domain/component"
	"github.com/felixgeelhaar/wslkit/internal/ports"
	"github.com/felixgeelhaar/wslkit/internal/provider/commandutil"
	"github.com/felixgeelhaar/wslkit/internal/validation"
)

// DefaultPython is the interpreter pip runs under.
const DefaultPython = "python3"

// PackageStep keeps one requirement installed with pip --user.
type PackageStep struct {
	requirement string
	name        string
	python      string
	breakSystem func() bool
	runner      ports.CommandRunner
}

// Option configures a PackageStep.
type Option func(*PackageStep)

// WithPython selects the interpreter.
func WithPython(python string) Option {
	return func(s *PackageStep) {
		if python != "" {
			s.python = python
		}
	}
}

// WithBreakSystemPackages passes --break-system-packages, which pip
// requires for user installs on externally managed interpreters.
func WithBreakSystemPackages(enabled bool) Option {
	return WithBreakSystemPackagesFunc(func() bool { return enabled })
}

// WithBreakSystemPackagesFunc decides on --break-system-packages each
// time pip runs. An interpreter installed earlier in the same run may
// have brought the marker with it.
func WithBreakSystemPackagesFunc(fn func() bool) Option {
	return func(s *PackageStep) {
		if fn != nil {
			s.breakSystem = fn
		}
	}
}

// NewPackageStep creates a step for a requirement such as "openai>=1.0".
func NewPackageStep(requirement string, runner ports.CommandRunner, opts ...Option) *PackageStep {
	s := &PackageStep{
		requirement: requirement,
		name:        DistributionName(requirement),
		python:      DefaultPython,
		breakSystem: func() bool { return false },
		runner:      runner,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *PackageStep) Name() string {
	return "pip " + s.requirement
}

// Probe reports whether pip knows the distribution. Version specifiers
// are not re-checked.
func (s *PackageStep) Probe(rc component.RunContext) bool {
	result, err := s.runner.Run(rc.Context(), s.python, "-m", "pip", "show", "--quiet", s.name)
	return err == nil && result.Success()
}

// Apply installs the requirement.
func (s *PackageStep) Apply(rc component.RunContext) error {
	if err := validation.ValidatePipPackage(s.requirement); err != nil {
		return fmt.Errorf("invalid pip package: %w", err)
	}
	args := []string{"-m", "pip", "install", "--user", "--quiet"}
	if s.breakSystem() {
		args = append(args, "--break-system-packages")
	}
	args = append(args, s.requirement)

	result, err := s.runner.Run(rc.Context(), s.python, args...)
	return commandutil.Check("pip install "+s.requirement, result, err)
}

// Revert uninstalls the distribution.
func (s *PackageStep) Revert(rc component.RunContext) error {
	if err := validation.ValidatePipPackage(s.name); err != nil {
		return fmt.Errorf("invalid pip package: %w", err)
	}
	args := []string{"-m", "pip", "uninstall", "-y"}
	if s.breakSystem() {
		args = append(args, "--break-system-packages")
	}
	args = append(args, s.name)

	result, err := s.runner.Run(rc.Context(), s.python, args...)
	return commandutil.Check("pip uninstall "+s.name, result, err)
}

// DistributionName strips extras and version specifiers from a
// requirement: "langchain[all]==0.2.1" becomes "langchain".
func DistributionName(requirement string) string {
	if i := strings.IndexAny(requirement, "[=<>!~ ;"); i >= 0 {
		return requirement[:i]
	}
	return requirement
}

var _ component.RevertibleStep = (*PackageStep)(nil)
