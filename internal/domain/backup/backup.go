// Package backup copies user files aside before they are overwritten.
//
// A backup lives next to its original as <path>.bak.<YYYYMMDDHHMMSS>.
// A second backup within the same second gets a sequence suffix,
// <path>.bak.<YYYYMMDDHHMMSS>.<n>. Backups are never overwritten and
// never deleted.
package backup

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/wslkit/internal/ports"
)

// TimestampLayout is the suffix format of backup files.
const TimestampLayout = "20060102150405"

const suffix = ".bak."

// maxSeq bounds the backups taken of one file within one second.
const maxSeq = 99

// Errors returned by the Manager.
var (
	ErrBackupExists = errors.New("backup destination already exists")
	ErrNoBackup     = errors.New("no backup found")
)

// Record describes one backup file.
type Record struct {
	Original  string
	Path      string
	CreatedAt time.Time
	// Seq orders backups taken within the same second.
	Seq int
}

// Manager creates and restores backups.
type Manager struct {
	fs  ports.FileSystem
	now func() time.Time
}

// NewManager creates a Manager using the wall clock.
func NewManager(fs ports.FileSystem) *Manager {
	return &Manager{fs: fs, now: time.Now}
}

// WithClock returns a copy of the Manager using now for timestamps.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	return &Manager{fs: m.fs, now: now}
}

// PathFor returns the backup path of original at t.
func PathFor(original string, t time.Time) string {
	return original + suffix + t.Format(TimestampLayout)
}

// Backup copies path to a timestamped sibling. A missing path is not an
// error: Backup returns nil and does nothing. An existing destination is
// never overwritten: a byte-identical one is reused, otherwise the next
// sequence suffix is tried, and ErrBackupExists is returned when none is
// free.
func (m *Manager) Backup(path string) (*Record, error) {
	if !m.fs.Exists(path) {
		return nil, nil
	}
	if m.fs.IsDir(path) {
		return nil, fmt.Errorf("backup %s: is a directory", path)
	}

	created := m.now()
	for seq := 0; seq <= maxSeq; seq++ {
		dest := pathForSeq(path, created, seq)
		err := m.fs.CopyFileExclusive(path, dest)
		if err == nil || (errors.Is(err, os.ErrExist) && m.identical(path, dest)) {
			return &Record{
				Original:  path,
				Path:      dest,
				CreatedAt: created.Truncate(time.Second),
				Seq:       seq,
			}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("backup %s: %w", path, err)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrBackupExists, PathFor(path, created))
}

// List returns the backups of path, newest first.
func (m *Manager) List(path string) ([]Record, error) {
	matches, err := m.fs.Glob(escapeGlob(path) + suffix + "*")
	if err != nil {
		return nil, fmt.Errorf("list backups of %s: %w", path, err)
	}

	records := make([]Record, 0, len(matches))
	for _, match := range matches {
		created, seq, ok := parseStamp(strings.TrimPrefix(match, path+suffix))
		if !ok {
			continue
		}
		records = append(records, Record{Original: path, Path: match, CreatedAt: created, Seq: seq})
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].Seq > records[j].Seq
	})
	return records, nil
}

// Latest returns the newest backup of path.
func (m *Manager) Latest(path string) (*Record, error) {
	records, err := m.List(path)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoBackup, path)
	}
	return &records[0], nil
}

// Restore writes the content of rec back to its original. The current
// original, if any, is backed up first. rec itself is kept.
func (m *Manager) Restore(rec Record) (*Record, error) {
	data, err := m.fs.ReadFile(rec.Path)
	if err != nil {
		return nil, fmt.Errorf("read backup %s: %w", rec.Path, err)
	}

	current, err := m.Backup(rec.Original)
	if err != nil {
		return nil, err
	}

	mode := os.FileMode(0o644)
	if info, err := m.fs.GetFileInfo(rec.Path); err == nil {
		mode = info.Mode.Perm()
	}
	if err := m.fs.MkdirAll(filepath.Dir(rec.Original), 0o755); err != nil {
		return nil, fmt.Errorf("restore %s: %w", rec.Original, err)
	}
	if err := m.fs.WriteFile(rec.Original, data, mode); err != nil {
		return nil, fmt.Errorf("restore %s: %w", rec.Original, err)
	}
	return current, nil
}

func escapeGlob(path string) string {
	r := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`)
	return r.Replace(path)
}

func pathForSeq(original string, t time.Time, seq int) string {
	if seq == 0 {
		return PathFor(original, t)
	}
	return PathFor(original, t) + "." + strconv.Itoa(seq)
}

func parseStamp(stamp string) (time.Time, int, bool) {
	seq := 0
	if ts, n, found := strings.Cut(stamp, "."); found {
		parsed, err := strconv.Atoi(n)
		if err != nil || parsed < 1 {
			return time.Time{}, 0, false
		}
		stamp, seq = ts, parsed
	}
	created, err := time.ParseInLocation(TimestampLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}, 0, false
	}
	return created, seq, true
}

func (m *Manager) identical(a, b string) bool {
	x, err := m.fs.ReadFile(a)
	if err != nil {
		return false
	}
	y, err := m.fs.ReadFile(b)
	return err == nil && bytes.Equal(x, y)
}
