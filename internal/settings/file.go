// Package settings reads and writes an editor's settings.json.
//
// Settings files are JSON with comments and trailing commas. Reads go through
// hujson.Standardize; writes are expressed as RFC 6902 patches applied to the
// parsed hujson value so that comments, key order and formatting of untouched
// members survive.
package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"
)

// MaxAttempts bounds how often an update is recomputed when the file
// changes underneath it.
const MaxAttempts = 3

// ErrConcurrentModification is returned when the settings file kept changing
// between read and write for MaxAttempts attempts.
var ErrConcurrentModification = errors.New("settings file modified concurrently")

// Scope selects where a value is persisted.
type Scope int

const (
	// ScopeGlobal is the user settings file.
	ScopeGlobal Scope = iota
	// ScopeWorkspace is <workspace>/.vscode/settings.json.
	ScopeWorkspace
)

// String returns the scope name.
func (s Scope) String() string {
	switch s {
	case ScopeGlobal:
		return "global"
	case ScopeWorkspace:
		return "workspace"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// Result describes the outcome of an Update.
type Result struct {
	Path     string
	Changed  bool   // A patch was produced
	Written  bool   // The file was rewritten (false in dry-run)
	Before   []byte // File contents the update was computed from
	After    []byte // New contents (nil when unchanged)
	Attempts int
}

// File is a single settings.json on disk.
// Updates are serialized per File; cross-process writers are detected by
// comparing the bytes read with the bytes present just before the write.
type File struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
	format bool
	dryRun bool
}

// Option configures a File.
type Option func(*File)

// WithLogger sets the logger used for update diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(f *File) { f.logger = l }
}

// WithFormat reformats the whole document on write.
func WithFormat(format bool) Option {
	return func(f *File) { f.format = format }
}

// WithDryRun computes updates without writing them.
func WithDryRun(dryRun bool) Option {
	return func(f *File) { f.dryRun = dryRun }
}

// NewFile creates a File for path. The file does not need to exist.
func NewFile(path string, opts ...Option) *File {
	f := &File{path: path}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// Path returns the settings file path.
func (f *File) Path() string {
	return f.path
}

// DryRun reports whether updates are computed without being written.
func (f *File) DryRun() bool {
	return f.dryRun
}

// Load reads the current contents. A missing file yields an empty snapshot.
func (f *File) Load() (*Snapshot, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return newSnapshot(nil)
		}
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	snap, err := newSnapshot(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.path, err)
	}
	return snap, nil
}

// Update runs fn against a fresh snapshot and persists the staged changes.
// fn may run more than once if another writer touches the file; it must only
// stage changes through tx.
func (f *File) Update(fn func(tx *Tx) error) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	res := Result{Path: f.path}
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		res.Attempts = attempt

		snap, err := f.Load()
		if err != nil {
			return res, err
		}
		res.Before = snap.raw

		tx := newTx(snap)
		if err := fn(tx); err != nil {
			return res, err
		}
		if !tx.Changed() {
			return res, nil
		}

		patch, err := tx.patch()
		if err != nil {
			return res, fmt.Errorf("encode patch: %w", err)
		}
		after, err := snap.apply(patch, f.format)
		if err != nil {
			return res, fmt.Errorf("patch %s: %w", f.path, err)
		}
		res.Changed = true
		res.After = after

		if f.dryRun {
			return res, nil
		}

		current, err := os.ReadFile(f.path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return res, fmt.Errorf("re-read %s: %w", f.path, err)
		}
		if !bytes.Equal(current, snap.raw) {
			f.logger.Debug("settings changed during update, retrying", "path", f.path, "attempt", attempt)
			continue
		}

		if err := f.write(after); err != nil {
			return res, err
		}
		res.Written = true
		return res, nil
	}

	return res, fmt.Errorf("%s: %w", f.path, ErrConcurrentModification)
}

func (f *File) write(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	if err := atomic.WriteFile(f.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	return nil
}

// Snapshot is a parsed view of a settings file at one point in time.
type Snapshot struct {
	raw    []byte
	values map[string]any
}

func newSnapshot(raw []byte) (*Snapshot, error) {
	s := &Snapshot{raw: raw, values: map[string]any{}}
	if len(bytes.TrimSpace(raw)) == 0 {
		return s, nil
	}

	std, err := hujson.Standardize(bytes.Clone(raw))
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(std, &s.values); err != nil {
		return nil, err
	}
	if s.values == nil {
		s.values = map[string]any{}
	}
	return s, nil
}

// Raw returns the bytes the snapshot was parsed from.
func (s *Snapshot) Raw() []byte {
	return s.raw
}

// Has reports whether key is set.
func (s *Snapshot) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Value returns the decoded value of key.
func (s *Snapshot) Value(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// apply patches the raw document. An empty document starts as "{}".
func (s *Snapshot) apply(patch []byte, format bool) ([]byte, error) {
	base := s.raw
	if len(bytes.TrimSpace(base)) == 0 {
		base = []byte("{}\n")
	}

	v, err := hujson.Parse(bytes.Clone(base))
	if err != nil {
		return nil, err
	}
	if err := v.Patch(patch); err != nil {
		return nil, err
	}
	if format {
		v.Format()
	}
	return v.Pack(), nil
}
