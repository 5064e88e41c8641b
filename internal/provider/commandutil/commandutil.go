// Package commandutil holds helpers shared by the step kinds that shell out.
package commandutil

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/felixgeelhaar/wslkit/internal/ports"
)

// transientMarkers are stderr fragments of network failures that usually
// clear on a second attempt.
var transientMarkers = []string{
	"temporary failure resolving",
	"temporary failure in name resolution",
	"could not resolve host",
	"could not connect to",
	"connection timed out",
	"connection reset by peer",
	"network is unreachable",
	"failed to fetch",
	"etimedout",
	"econnreset",
	"read timed out",
}

// IsCommandNotFound reports whether an error indicates a missing executable.
func IsCommandNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
		return true
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist) {
		return true
	}
	return false
}

// Check turns a finished command into an error. A non-zero exit becomes
// "<what> failed: <stderr>", wrapped in ports.TransientError when the
// output looks like a network hiccup.
func Check(what string, result ports.CommandResult, err error) error {
	if err != nil {
		if IsCommandNotFound(err) {
			return fmt.Errorf("%s: command not found: %w", what, err)
		}
		if ports.IsTransient(err) {
			return &ports.TransientError{Err: fmt.Errorf("%s: %w", what, err)}
		}
		return fmt.Errorf("%s: %w", what, err)
	}
	if result.Success() {
		return nil
	}

	detail := strings.TrimSpace(result.Stderr)
	if detail == "" {
		detail = strings.TrimSpace(result.Stdout)
	}
	if detail == "" {
		detail = fmt.Sprintf("exit status %d", result.ExitCode)
	}
	failure := fmt.Errorf("%s failed: %s", what, lastLine(detail))
	if IsTransientOutput(result.Stderr + result.Stdout) {
		return &ports.TransientError{Err: failure}
	}
	return failure
}

// IsTransientOutput reports whether command output names a network error.
func IsTransientOutput(output string) bool {
	lower := strings.ToLower(output)
	for _, marker := range transientMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// ShellQuote joins args into one POSIX shell word list, single-quoting
// anything that is not plainly safe.
func ShellQuote(args ...string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = quote(arg)
	}
	return strings.Join(quoted, " ")
}

func quote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !isSafeRune(r) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func isSafeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("@%+=:,./_-", r)
}

// lastLine keeps error messages to one line; tools print the useful
// part of a failure last.
func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
