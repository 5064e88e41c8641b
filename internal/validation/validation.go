// Package validation checks names, URLs and paths before they reach a
// command line, so configuration values cannot inject shell syntax.
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

// Validation errors.
var (
	ErrEmptyInput         = errors.New("input cannot be empty")
	ErrInvalidPackageName = errors.New("invalid package name")
	ErrInvalidNpmPackage  = errors.New("invalid npm package name")
	ErrInvalidPipPackage  = errors.New("invalid pip package name")
	ErrInvalidURL         = errors.New("invalid URL")
	ErrInvalidGitURL      = errors.New("invalid git remote URL")
	ErrInvalidPath        = errors.New("invalid path")
	ErrPathTraversal      = errors.New("path traversal detected")
	ErrCommandInjection   = errors.New("potential command injection detected")
)

var (
	// apt package names: "git", "build-essential", "python3.12", "g++"
	packageNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._+-]*$`)

	// npm names, scoped or not, with an optional @version:
	// "@modelcontextprotocol/server-memory", "pnpm@10.24.0"
	npmPackageRegex = regexp.MustCompile(`^(@[a-z0-9][a-z0-9._-]*/)?[a-z0-9][a-z0-9._-]*(@[a-zA-Z0-9._-]+)?$`)

	// pip names with optional extras and version specifiers:
	// "anthropic", "openai>=1.0", "langchain[all]==0.2.1", "numpy>=1.26,<2"
	pipPackageRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*(\[[a-zA-Z0-9,._-]+\])?([=<>!~]=?[a-zA-Z0-9._*+-]+(,[=<>!~]=?[a-zA-Z0-9._*+-]+)*)?$`)

	gitURLPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^https://[a-zA-Z0-9.-]+/[a-zA-Z0-9_./-]+(?:\.git)?$`),
		regexp.MustCompile(`^git@[a-zA-Z0-9.-]+:[a-zA-Z0-9_./-]+(?:\.git)?$`),
	}

	shellMetaChars = []string{";", "|", "&", "$", "`", "(", ")", "{", "}", "<", ">", "\n", "\r", "\\"}

	// pip requirements carry "<" and ">" in version specifiers. They are
	// passed as one argv element, never through a shell.
	pipMetaChars = []string{";", "|", "&", "$", "`", "(", ")", "{", "}", "\n", "\r", "\\"}
)

// ValidatePackageName validates an apt package name.
func ValidatePackageName(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if len(name) > 256 {
		return fmt.Errorf("%w: name too long (max 256 characters)", ErrInvalidPackageName)
	}
	if !packageNameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q contains invalid characters", ErrInvalidPackageName, name)
	}
	return nil
}

// ValidateNpmPackage validates an npm package name with optional version.
func ValidateNpmPackage(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if len(name) > 256 {
		return fmt.Errorf("%w: package name too long", ErrInvalidNpmPackage)
	}
	if containsShellMeta(name) {
		return fmt.Errorf("%w: %q contains shell metacharacters", ErrCommandInjection, name)
	}
	// npm names are case-insensitive
	if !npmPackageRegex.MatchString(strings.ToLower(name)) {
		return fmt.Errorf("%w: %q is not a valid npm package name", ErrInvalidNpmPackage, name)
	}
	return nil
}

// ValidatePipPackage validates a pip requirement such as "openai>=1.0".
func ValidatePipPackage(pkg string) error {
	if pkg == "" {
		return ErrEmptyInput
	}
	if len(pkg) > 256 {
		return fmt.Errorf("%w: package name too long", ErrInvalidPipPackage)
	}
	if containsAny(pkg, pipMetaChars) {
		return fmt.Errorf("%w: %q contains shell metacharacters", ErrCommandInjection, pkg)
	}
	if !pipPackageRegex.MatchString(pkg) {
		return fmt.Errorf("%w: %q is not a valid pip package name", ErrInvalidPipPackage, pkg)
	}
	return nil
}

// ValidateDownloadURL accepts only absolute https URLs with a host.
func ValidateDownloadURL(raw string) error {
	if raw == "" {
		return ErrEmptyInput
	}
	if len(raw) > 2048 {
		return fmt.Errorf("%w: URL too long", ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("%w: %q must use https", ErrInvalidURL, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: %q has no host", ErrInvalidURL, raw)
	}
	if u.User != nil {
		return fmt.Errorf("%w: %q must not carry credentials", ErrInvalidURL, raw)
	}
	return nil
}

// ValidateGitRemoteURL validates an https or scp-style ssh remote.
func ValidateGitRemoteURL(raw string) error {
	if raw == "" {
		return ErrEmptyInput
	}
	if len(raw) > 2048 {
		return fmt.Errorf("%w: URL too long", ErrInvalidGitURL)
	}
	if containsShellMeta(raw) {
		return fmt.Errorf("%w: %q contains shell metacharacters", ErrCommandInjection, raw)
	}
	for _, pattern := range gitURLPatterns {
		if pattern.MatchString(raw) {
			return nil
		}
	}
	return fmt.Errorf("%w: %q must be an https or ssh URL", ErrInvalidGitURL, raw)
}

// ValidatePath rejects empty paths, null bytes and ".." segments.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyInput
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: path contains null byte", ErrInvalidPath)
	}
	if containsPathTraversal(path) {
		return fmt.Errorf("%w: %q contains traversal sequence", ErrPathTraversal, path)
	}
	return nil
}

func containsShellMeta(s string) bool {
	return containsAny(s, shellMetaChars)
}

func containsAny(s string, chars []string) bool {
	for _, char := range chars {
		if strings.Contains(s, char) {
			return true
		}
	}
	return false
}

func containsPathTraversal(path string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if seg == ".." {
			return true
		}
	}
	lower := strings.ToLower(path)
	return strings.Contains(lower, "%2e%2e")
}
