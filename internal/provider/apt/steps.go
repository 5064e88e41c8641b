// Package apt installs Debian packages with apt-get.
package apt

import (
	"fmt"
	"strings"
	"sync"

	"github.com/felixgeelhaar/wslkit/internal/domain/component"
	"github.com/felixgeelhaar/wslkit/internal/ports"
	"github.com/felixgeelhaar/wslkit/internal/provider/commandutil"
	"github.com/felixgeelhaar/wslkit/internal/validation"
)

// dpkgFormat prints one status word per queried package.
const dpkgFormat = "-f=${Package}\t${db:Status-Status}\n"

// Updater refreshes the package index at most once per run.
type Updater struct {
	runner ports.CommandRunner

	mu   sync.Mutex
	done map[string]bool
}

// NewUpdater creates an Updater.
func NewUpdater(runner ports.CommandRunner) *Updater {
	return &Updater{runner: runner, done: make(map[string]bool)}
}

// Ensure runs apt-get update unless it already succeeded for this run ID.
// A failed update is retried by the next caller.
func (u *Updater) Ensure(rc component.RunContext) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.done[rc.RunID()] {
		return nil
	}
	result, err := u.runner.Run(rc.Context(), "sudo", "apt-get", "update")
	if err := commandutil.Check("apt-get update", result, err); err != nil {
		return err
	}
	u.done[rc.RunID()] = true
	return nil
}

// PackageStep installs a set of apt packages together.
type PackageStep struct {
	packages []string
	runner   ports.CommandRunner
	updater  *Updater
}

// NewPackageStep creates a PackageStep. updater may be shared between
// steps so the index is refreshed once.
func NewPackageStep(runner ports.CommandRunner, updater *Updater, packages ...string) *PackageStep {
	return &PackageStep{
		packages: append([]string(nil), packages...),
		runner:   runner,
		updater:  updater,
	}
}

// Name returns the step name.
func (s *PackageStep) Name() string {
	return "apt " + strings.Join(s.packages, " ")
}

// Packages returns the package names.
func (s *PackageStep) Packages() []string {
	return append([]string(nil), s.packages...)
}

// Probe reports whether every package is installed.
func (s *PackageStep) Probe(rc component.RunContext) bool {
	return len(s.missing(rc)) == 0
}

// Apply installs the packages that are missing.
func (s *PackageStep) Apply(rc component.RunContext) error {
	for _, pkg := range s.packages {
		if err := validation.ValidatePackageName(pkg); err != nil {
			return fmt.Errorf("invalid package name: %w", err)
		}
	}

	missing := s.missing(rc)
	if len(missing) == 0 {
		return nil
	}
	if s.updater != nil {
		if err := s.updater.Ensure(rc); err != nil {
			return err
		}
	}

	args := append([]string{"DEBIAN_FRONTEND=noninteractive", "apt-get", "install", "-y"}, missing...)
	result, err := s.runner.Run(rc.Context(), "sudo", args...)
	return commandutil.Check("apt-get install "+strings.Join(missing, " "), result, err)
}

// Revert removes the packages.
func (s *PackageStep) Revert(rc component.RunContext) error {
	for _, pkg := range s.packages {
		if err := validation.ValidatePackageName(pkg); err != nil {
			return fmt.Errorf("invalid package name: %w", err)
		}
	}
	args := append([]string{"apt-get", "remove", "-y"}, s.packages...)
	result, err := s.runner.Run(rc.Context(), "sudo", args...)
	return commandutil.Check("apt-get remove "+strings.Join(s.packages, " "), result, err)
}

// missing queries dpkg. dpkg-query exits 1 when any package is unknown
// but still prints the ones it knows, so the output is parsed either way.
func (s *PackageStep) missing(rc component.RunContext) []string {
	args := append([]string{"-W", dpkgFormat}, s.packages...)
	result, err := s.runner.Run(rc.Context(), "dpkg-query", args...)
	if err != nil {
		return s.Packages()
	}

	installed := make(map[string]bool, len(s.packages))
	for _, line := range strings.Split(result.Stdout, "\n") {
		fields := strings.Split(strings.TrimSpace(line), "\t")
		if len(fields) != 2 || fields[1] != "installed" {
			continue
		}
		// multiarch packages report as name:arch
		name, _, _ := strings.Cut(fields[0], ":")
		installed[name] = true
	}

	missing := make([]string, 0)
	for _, pkg := range s.packages {
		if !installed[pkg] {
			missing = append(missing, pkg)
		}
	}
	return missing
}

var _ component.RevertibleStep = (*PackageStep)(nil)
