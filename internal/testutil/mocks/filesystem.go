package mocks

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/wslkit/internal/ports"
)

// FileSystem is a thread-safe test double for ports.FileSystem.
type FileSystem struct {
	mu         sync.RWMutex
	files      map[string][]byte
	dirs       map[string]bool
	writeErrs  map[string]error
	copyErr    error
	writeCount map[string]int
}

// NewFileSystem creates a new FileSystem mock.
func NewFileSystem() *FileSystem {
	return &FileSystem{
		files:      make(map[string][]byte),
		dirs:       make(map[string]bool),
		writeErrs:  make(map[string]error),
		writeCount: make(map[string]int),
	}
}

// AddFile adds a file to the mock filesystem.
func (fs *FileSystem) AddFile(path string, content string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.files[path] = []byte(content)
}

// AddDir adds a directory to the mock filesystem.
func (fs *FileSystem) AddDir(path string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.dirs[path] = true
}

// FailWrite makes WriteFile on path return err.
func (fs *FileSystem) FailWrite(path string, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.writeErrs[path] = err
}

// FailCopy makes every CopyFileExclusive call return err.
func (fs *FileSystem) FailCopy(err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.copyErr = err
}

// Content returns a file's content as a string, or "" if absent.
func (fs *FileSystem) Content(path string) string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return string(fs.files[path])
}

// Files returns all file paths in sorted order.
func (fs *FileSystem) Files() []string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	paths := make([]string, 0, len(fs.files))
	for p := range fs.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// WriteCount returns how many times path was written.
func (fs *FileSystem) WriteCount(path string) int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.writeCount[path]
}

// ReadFile reads a file from the mock filesystem.
func (fs *FileSystem) ReadFile(path string) ([]byte, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if content, ok := fs.files[path]; ok {
		return append([]byte(nil), content...), nil
	}
	return nil, fmt.Errorf("read %s: %w", path, os.ErrNotExist)
}

// WriteFile writes a file to the mock filesystem.
func (fs *FileSystem) WriteFile(path string, data []byte, _ os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err, ok := fs.writeErrs[path]; ok {
		return err
	}
	fs.files[path] = append([]byte(nil), data...)
	fs.writeCount[path]++
	return nil
}

// Exists checks if a file or directory exists in the mock filesystem.
func (fs *FileSystem) Exists(path string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	_, fileExists := fs.files[path]
	return fileExists || fs.isDirLocked(path)
}

// IsDir checks if a path is a directory in the mock filesystem.
// Parents of stored files count as directories.
func (fs *FileSystem) IsDir(path string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.isDirLocked(path)
}

func (fs *FileSystem) isDirLocked(path string) bool {
	if fs.dirs[path] {
		return true
	}
	prefix := strings.TrimSuffix(path, "/") + "/"
	for p := range fs.files {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// MkdirAll creates a directory in the mock filesystem.
func (fs *FileSystem) MkdirAll(path string, _ os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.dirs[path] = true
	return nil
}

// Remove removes a file from the mock filesystem.
func (fs *FileSystem) Remove(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, ok := fs.files[path]; !ok && !fs.dirs[path] {
		return fmt.Errorf("remove %s: %w", path, os.ErrNotExist)
	}
	delete(fs.files, path)
	delete(fs.dirs, path)
	return nil
}

// RemoveAll removes a path and everything below it.
func (fs *FileSystem) RemoveAll(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	prefix := strings.TrimSuffix(path, "/") + "/"
	for p := range fs.files {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(fs.files, p)
		}
	}
	for d := range fs.dirs {
		if d == path || strings.HasPrefix(d, prefix) {
			delete(fs.dirs, d)
		}
	}
	return nil
}

// Glob matches stored file paths against pattern.
func (fs *FileSystem) Glob(pattern string) ([]string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	matches := make([]string, 0)
	for p := range fs.files {
		ok, err := filepath.Match(pattern, p)
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, p)
		}
	}
	sort.Strings(matches)
	return matches, nil
}

// GetFileInfo returns metadata about a file in the mock filesystem.
func (fs *FileSystem) GetFileInfo(path string) (ports.FileInfo, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if content, ok := fs.files[path]; ok {
		return ports.FileInfo{
			Size:    int64(len(content)),
			Mode:    0o644,
			ModTime: time.Now(),
			IsDir:   false,
		}, nil
	}

	if fs.isDirLocked(path) {
		return ports.FileInfo{
			Mode:    0o755 | os.ModeDir,
			ModTime: time.Now(),
			IsDir:   true,
		}, nil
	}

	return ports.FileInfo{}, fmt.Errorf("stat %s: %w", path, os.ErrNotExist)
}

// CopyFileExclusive copies src to dest unless dest exists.
func (fs *FileSystem) CopyFileExclusive(src, dest string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.copyErr != nil {
		return fs.copyErr
	}
	content, ok := fs.files[src]
	if !ok {
		return fmt.Errorf("open %s: %w", src, os.ErrNotExist)
	}
	if _, exists := fs.files[dest]; exists {
		return fmt.Errorf("open %s: %w", dest, os.ErrExist)
	}
	fs.files[dest] = append([]byte(nil), content...)
	return nil
}

// Ensure FileSystem implements ports.FileSystem.
var _ ports.FileSystem = (*FileSystem)(nil)
