// Package testutil provides test helpers shared by wslkit packages.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// WriteTempFile creates dir/filename with content and returns its path.
func WriteTempFile(t testing.TB, dir, filename, content string) string {
	t.Helper()

	path := filepath.Join(dir, filename)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// AssertFileEquals asserts that path exists with exactly expected content.
func AssertFileEquals(t testing.TB, path, expected string) {
	t.Helper()

	data, err := os.ReadFile(path)
	if !assert.NoError(t, err, "read %s", path) {
		return
	}
	assert.Equal(t, expected, string(data), "content of %s", path)
}

// AssertFileNotExists asserts that nothing exists at path.
func AssertFileNotExists(t testing.TB, path string) {
	t.Helper()

	_, err := os.Lstat(path)
	assert.True(t, os.IsNotExist(err), "expected %s not to exist", path)
}

// Backups returns the backup files of path, oldest first.
func Backups(t testing.TB, path string) []string {
	t.Helper()

	matches, err := filepath.Glob(path + ".bak.*")
	require.NoError(t, err)
	return matches
}
