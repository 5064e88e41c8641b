// Package precheck verifies the host before any installer step runs.
package precheck

import (
	"context"
	"os"
	"strings"

	"github.com/felixgeelhaar/wslkit/internal/domain/config"
	"github.com/felixgeelhaar/wslkit/internal/domain/platform"
	"github.com/felixgeelhaar/wslkit/internal/ports"
)

// EnvSkipLockCheck disables the apt lock check when set to a non-empty value.
const EnvSkipLockCheck = "WSLKIT_SKIP_LOCK_CHECK"

// LockFiles are the dpkg and apt lock files checked with fuser.
var LockFiles = []string{
	"/var/lib/dpkg/lock-frontend",
	"/var/lib/dpkg/lock",
	"/var/lib/apt/lists/lock",
	"/var/cache/apt/archives/lock",
}

// Options selects which checks run.
type Options struct {
	// DryRun skips the apt lock check since nothing will be installed.
	DryRun bool
	// Elevate primes sudo credentials before the apt lock check. It does
	// not run for dry runs.
	Elevate func(context.Context) error
}

// Checker runs the host prechecks.
type Checker struct {
	detector *platform.Detector
	finder   ports.PathFinder
	runner   ports.CommandRunner
	logger   ports.Logger
	getuid   func() int
	getenv   func(string) string
}

// New creates a Checker for the running process.
func New(detector *platform.Detector, finder ports.PathFinder, runner ports.CommandRunner, logger ports.Logger) *Checker {
	return &Checker{
		detector: detector,
		finder:   finder,
		runner:   runner,
		logger:   logger,
		getuid:   os.Geteuid,
		getenv:   os.Getenv,
	}
}

// WithUID returns a copy of the Checker reporting uid as the effective user.
func (c *Checker) WithUID(uid int) *Checker {
	cp := *c
	cp.getuid = func() int { return uid }
	return &cp
}

// WithGetenv returns a copy of the Checker reading the environment through getenv.
func (c *Checker) WithGetenv(getenv func(string) string) *Checker {
	cp := *c
	cp.getenv = getenv
	return &cp
}

// Run executes every check in order and returns the first failure as a
// *config.UserError. Skipped checks are logged as warnings.
func (c *Checker) Run(ctx context.Context, opts Options) error {
	if err := c.CheckWSL(); err != nil {
		return err
	}
	if err := c.CheckNotRoot(); err != nil {
		return err
	}

	if opts.DryRun {
		c.logger.Debug(ctx, "apt lock check skipped for dry run")
		return nil
	}
	if opts.Elevate != nil {
		if err := opts.Elevate(ctx); err != nil {
			return err
		}
	}
	if c.getenv(EnvSkipLockCheck) != "" {
		c.logger.Warn(ctx, "apt lock check skipped", ports.F("env", EnvSkipLockCheck))
		return nil
	}
	if _, err := c.finder.LookPath("fuser"); err != nil {
		c.logger.Warn(ctx, "apt lock check skipped: fuser not found", ports.F("hint", "apt-get install psmisc"))
		return nil
	}
	return c.CheckAptLock(ctx)
}

// CheckWSL fails unless the host is WSL.
func (c *Checker) CheckWSL() error {
	p := c.detector.Detect()
	if p.IsWSL() {
		return nil
	}
	ue := config.NewUserError(config.ErrCodeNotWSL, "wslkit must run inside Windows Subsystem for Linux").
		WithSuggestion("Open your WSL distribution (for example 'wsl -d Ubuntu') and run wslkit there.")
	if p.Kernel() != "" {
		ue = ue.WithContext("kernel " + p.Kernel())
	}
	return ue
}

// CheckNotRoot fails when running as root. Steps use sudo where needed
// and must write dotfiles owned by the regular user.
func (c *Checker) CheckNotRoot() error {
	if c.getuid() != 0 {
		return nil
	}
	return config.NewUserError(config.ErrCodeRunningAsRoot, "wslkit must not run as root").
		WithSuggestion("Run wslkit as your regular user; it calls sudo for package installs.")
}

// CheckAptLock fails when another process holds a dpkg or apt lock.
// The holders run as root, so fuser runs through sudo when credentials
// are cached. Otherwise only the user's own processes are visible and
// the check says so.
func (c *Checker) CheckAptLock(ctx context.Context) error {
	command, prefix := "fuser", []string{}
	if c.canSudo(ctx) {
		command, prefix = "sudo", []string{"-n", "fuser"}
	} else {
		c.logger.Warn(ctx, "apt lock check cannot see root processes without sudo",
			ports.F("hint", "run 'sudo -v' first"))
	}

	for _, lock := range LockFiles {
		args := append(append([]string{}, prefix...), lock)
		result, err := c.runner.Run(ctx, command, args...)
		if err != nil {
			continue
		}
		// fuser exits 0 when at least one process uses the file.
		if result.Success() && strings.TrimSpace(result.Stdout+result.Stderr) != "" {
			return config.NewUserError(config.ErrCodeAptLocked, "another package manager is running").
				WithContext(lock).
				WithSuggestion("Wait for apt or unattended-upgrades to finish, or set " + EnvSkipLockCheck + "=1 to bypass this check.")
		}
	}
	return nil
}

// canSudo reports whether sudo runs without a password prompt.
func (c *Checker) canSudo(ctx context.Context) bool {
	result, err := c.runner.Run(ctx, "sudo", "-n", "true")
	return err == nil && result.Success()
}
