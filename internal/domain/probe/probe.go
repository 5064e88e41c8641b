// Package probe answers whether a tool is present at the required version.
package probe

import (
	"context"
	"regexp"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/felixgeelhaar/wslkit/internal/ports"
)

// DefaultTimeout bounds each version command.
const DefaultTimeout = 10 * time.Second

// versionPattern extracts the first dotted version number from tool output.
var versionPattern = regexp.MustCompile(`v?(\d+)(\.\d+)?(\.\d+)?`)

// Criterion describes what "installed" means for one tool.
// Every non-empty field must hold for the criterion to be satisfied.
type Criterion struct {
	// Executable must resolve on PATH.
	Executable string
	// VersionArgs are passed to Executable when a version check is needed.
	// Defaults to --version.
	VersionArgs []string
	// Pattern must match the version command output.
	Pattern *regexp.Regexp
	// MinVersion is the lowest acceptable version, e.g. "18" or "v2.1.0".
	MinVersion string
	// Path must exist on the filesystem.
	Path string
}

// Prober evaluates criteria. It has no side effects.
type Prober struct {
	finder  ports.PathFinder
	runner  ports.CommandRunner
	fs      ports.FileSystem
	timeout time.Duration
}

// Option configures a Prober.
type Option func(*Prober)

// WithTimeout sets the per-command timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// New creates a Prober.
func New(finder ports.PathFinder, runner ports.CommandRunner, fs ports.FileSystem, opts ...Option) *Prober {
	p := &Prober{
		finder:  finder,
		runner:  runner,
		fs:      fs,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Timeout returns the per-command timeout.
func (p *Prober) Timeout() time.Duration {
	return p.timeout
}

// Probe reports whether c is satisfied. Any failure, including a hung or
// failing version command, is reported as not satisfied.
func (p *Prober) Probe(ctx context.Context, c Criterion) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	if c.Path != "" && !p.fs.Exists(ports.ExpandPath(c.Path)) {
		return false
	}
	if c.Executable == "" {
		return c.Path != ""
	}
	if _, err := p.finder.LookPath(c.Executable); err != nil {
		return false
	}
	if c.Pattern == nil && c.MinVersion == "" {
		return true
	}

	output, ok := p.versionOutput(ctx, c)
	if !ok {
		return false
	}
	if c.Pattern != nil && !c.Pattern.MatchString(output) {
		return false
	}
	if c.MinVersion != "" {
		return AtLeast(ExtractVersion(output), c.MinVersion)
	}
	return true
}

// Version returns the version reported by the executable, or "" if it
// cannot be determined.
func (p *Prober) Version(ctx context.Context, c Criterion) string {
	if c.Executable == "" {
		return ""
	}
	if _, err := p.finder.LookPath(c.Executable); err != nil {
		return ""
	}
	output, ok := p.versionOutput(ctx, c)
	if !ok {
		return ""
	}
	return ExtractVersion(output)
}

func (p *Prober) versionOutput(ctx context.Context, c Criterion) (string, bool) {
	args := c.VersionArgs
	if len(args) == 0 {
		args = []string{"--version"}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	result, err := p.runner.Run(ctx, c.Executable, args...)
	if err != nil || !result.Success() || ctx.Err() != nil {
		return "", false
	}
	return result.Stdout + result.Stderr, true
}

// ExtractVersion returns the first version number found in output,
// normalized to semver form ("v1.2.3"), or "" if none is found.
func ExtractVersion(output string) string {
	m := versionPattern.FindStringSubmatch(output)
	if m == nil {
		return ""
	}
	return canonical(strings.TrimPrefix(m[0], "v"))
}

// AtLeast reports whether version >= minimum using semantic comparison.
// Either argument may omit the "v" prefix or trailing components.
func AtLeast(version, minimum string) bool {
	v := canonical(version)
	m := canonical(minimum)
	if !semver.IsValid(v) || !semver.IsValid(m) {
		return false
	}
	return semver.Compare(v, m) >= 0
}

func canonical(version string) string {
	version = strings.TrimSpace(version)
	if version == "" {
		return ""
	}
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	return semver.Canonical(version)
}
