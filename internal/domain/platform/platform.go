// Package platform detects whether wslkit runs inside Windows Subsystem for Linux.
package platform

import (
	"os"
	"runtime"
	"strings"

	"github.com/felixgeelhaar/wslkit/internal/ports"
)

// Environment represents the execution environment.
type Environment string

const (
	// EnvNative is a Linux host outside WSL.
	EnvNative Environment = "native"
	// EnvWSL1 is Windows Subsystem for Linux version 1.
	EnvWSL1 Environment = "wsl1"
	// EnvWSL2 is Windows Subsystem for Linux version 2.
	EnvWSL2 Environment = "wsl2"
	// EnvUnsupported is any non-Linux OS.
	EnvUnsupported Environment = "unsupported"
)

// Kernel identification files, in lookup order.
const (
	OSReleasePath = "/proc/sys/kernel/osrelease"
	VersionPath   = "/proc/version"
	wsl2Marker    = "/run/WSL"
)

// Platform is the detected host.
type Platform struct {
	os          string
	environment Environment
	kernel      string
	distro      string
}

// Detector inspects the host through a FileSystem.
type Detector struct {
	fs     ports.FileSystem
	goos   string
	getenv func(string) string
}

// NewDetector creates a Detector for the running process.
func NewDetector(fs ports.FileSystem) *Detector {
	return &Detector{fs: fs, goos: runtime.GOOS, getenv: os.Getenv}
}

// WithGOOS returns a copy of the Detector that reports goos as the OS.
func (d *Detector) WithGOOS(goos string) *Detector {
	c := *d
	c.goos = goos
	return &c
}

// WithGetenv returns a copy of the Detector reading the environment through getenv.
func (d *Detector) WithGetenv(getenv func(string) string) *Detector {
	c := *d
	c.getenv = getenv
	return &c
}

// Detect identifies the host. It never fails; unreadable kernel files
// mean a native host.
func (d *Detector) Detect() *Platform {
	p := &Platform{os: d.goos, environment: EnvUnsupported}
	if d.goos != "linux" {
		return p
	}

	p.environment = EnvNative
	p.kernel = d.kernelString()
	lower := strings.ToLower(p.kernel)
	if !strings.Contains(lower, "microsoft") && !strings.Contains(lower, "wsl") {
		return p
	}

	if strings.Contains(lower, "wsl2") || d.fs.Exists(wsl2Marker) {
		p.environment = EnvWSL2
	} else {
		p.environment = EnvWSL1
	}
	p.distro = d.distro()
	return p
}

func (d *Detector) kernelString() string {
	for _, path := range []string{OSReleasePath, VersionPath} {
		data, err := d.fs.ReadFile(path)
		if err != nil {
			continue
		}
		if s := strings.TrimSpace(string(data)); s != "" {
			return s
		}
	}
	return ""
}

func (d *Detector) distro() string {
	if name := d.getenv("WSL_DISTRO_NAME"); name != "" {
		return name
	}

	data, err := d.fs.ReadFile("/etc/os-release")
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "ID=") {
			return strings.Trim(strings.TrimPrefix(line, "ID="), "\"")
		}
	}
	return ""
}

// OS returns the operating system name.
func (p *Platform) OS() string {
	return p.os
}

// Environment returns the execution environment.
func (p *Platform) Environment() Environment {
	return p.environment
}

// Kernel returns the kernel release string, if readable.
func (p *Platform) Kernel() string {
	return p.kernel
}

// Distro returns the WSL distribution name (empty if not WSL).
func (p *Platform) Distro() string {
	return p.distro
}

// IsWSL returns true if running in WSL (1 or 2).
func (p *Platform) IsWSL() bool {
	return p.environment == EnvWSL1 || p.environment == EnvWSL2
}

// String returns a human-readable description.
func (p *Platform) String() string {
	parts := []string{p.os, string(p.environment)}
	if p.distro != "" {
		parts = append(parts, p.distro)
	}
	return strings.Join(parts, "/")
}
