// Package emitter writes rendered configuration to user files.
//
// Every write is preceded by a backup of the target. Shared rc files are
// edited in append mode through marker-delimited managed blocks, so a
// re-run never duplicates content.
package emitter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/felixgeelhaar/wslkit/internal/domain/backup"
	"github.com/felixgeelhaar/wslkit/internal/ports"
)

// DefaultFileMode is used for files the emitter creates.
const DefaultFileMode os.FileMode = 0o644

// Result reports what a write did.
type Result struct {
	// Changed is false when the target already had the requested content.
	Changed bool
	// Backup is the copy taken before writing, nil if the target did not exist.
	Backup *backup.Record
}

// Emitter writes files through the backup manager. Writes are serialized.
type Emitter struct {
	mu      sync.Mutex
	fs      ports.FileSystem
	backups *backup.Manager
}

// New creates an Emitter.
func New(fs ports.FileSystem, backups *backup.Manager) *Emitter {
	return &Emitter{fs: fs, backups: backups}
}

// Emit replaces target with content. The existing target is always
// backed up first; if the backup fails the target is not touched.
func (e *Emitter) Emit(target string, content []byte) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.write(target, content, e.modeOf(target))
}

// Append ensures target contains the managed block named marker with body.
// Identical content is a no-op without a backup; different content is
// replaced in place; a missing block is appended.
func (e *Emitter) Append(target, marker, body string) (Result, error) {
	if err := ValidateMarker(marker); err != nil {
		return Result{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	current, err := e.read(target)
	if err != nil {
		return Result{}, err
	}
	if existing, ok := ReadBlock(current, marker); ok && existing == normalizeBody(body) && countBlocks(current, marker) == 1 {
		return Result{}, nil
	}

	return e.write(target, []byte(WriteBlock(current, marker, body)), e.modeOf(target))
}

// RemoveBlock deletes the managed block named marker from target.
// A target without the block is left untouched.
func (e *Emitter) RemoveBlock(target, marker string) (Result, error) {
	if err := ValidateMarker(marker); err != nil {
		return Result{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	current, err := e.read(target)
	if err != nil {
		return Result{}, err
	}
	updated, removed := RemoveBlock(current, marker)
	if !removed {
		return Result{}, nil
	}
	return e.write(target, []byte(updated), e.modeOf(target))
}

// HasBlock reports whether target contains exactly one block named marker
// with body.
func (e *Emitter) HasBlock(target, marker, body string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	current, err := e.read(target)
	if err != nil {
		return false
	}
	existing, ok := ReadBlock(current, marker)
	return ok && existing == normalizeBody(body) && countBlocks(current, marker) == 1
}

// Matches reports whether target exists with exactly content.
func (e *Emitter) Matches(target string, content []byte) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	data, err := e.fs.ReadFile(target)
	return err == nil && string(data) == string(content)
}

func (e *Emitter) write(target string, content []byte, mode os.FileMode) (Result, error) {
	rec, err := e.backups.Backup(target)
	if err != nil {
		return Result{}, fmt.Errorf("emit %s: %w", target, err)
	}
	if err := e.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return Result{Backup: rec}, fmt.Errorf("emit %s: %w", target, err)
	}
	if err := e.fs.WriteFile(target, content, mode); err != nil {
		return Result{Backup: rec}, fmt.Errorf("emit %s: %w", target, err)
	}
	return Result{Changed: true, Backup: rec}, nil
}

func (e *Emitter) read(target string) (string, error) {
	data, err := e.fs.ReadFile(target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", target, err)
	}
	return string(data), nil
}

func (e *Emitter) modeOf(target string) os.FileMode {
	if info, err := e.fs.GetFileInfo(target); err == nil && !info.IsDir {
		return info.Mode.Perm()
	}
	return DefaultFileMode
}

func countBlocks(content, marker string) int {
	start := fmt.Sprintf(blockStartFmt, marker)
	count := 0
	for {
		idx := indexLine(content, start)
		if idx == -1 {
			return count
		}
		count++
		content = content[idx+len(start):]
	}
}
