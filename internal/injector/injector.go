// Package injector keeps the woodfish stylesheets registered with the
// editor's CSS loader.
//
// An Injector owns every dependency it needs: the settings store, the
// resolved editor installation, the asset library, the state file and the
// journal. Each operation reads the import lists, reconciles them with the
// pure functions in internal/core and writes the result back through one
// settings transaction per file, so a repeated operation is a no-op.
package injector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/aymanbagabas/go-udiff"

	"github.com/woodfish/woodfish/internal/core"
	"github.com/woodfish/woodfish/internal/editor"
	"github.com/woodfish/woodfish/internal/settings"
	"github.com/woodfish/woodfish/internal/store"
	"github.com/woodfish/woodfish/internal/theme"
)

// ErrNoLoader is returned when no configured key has an installed loader
// and RequireInstalled is set.
var ErrNoLoader = errors.New("no CSS loader extension installed")

// Options configures an Injector.
type Options struct {
	Settings         *settings.Store
	Installation     *editor.Installation // Nil when the editor could not be resolved
	Library          *theme.Library
	AssetsDir        string
	Variant          string   // Main theme variant, see theme.MainAsset
	Keys             []string // Import-list keys in preference order
	RequireInstalled bool
	Defaults         map[Effect]bool // Effect values used when settings.json has none
	StatePath        string          // Empty disables state persistence
	Journal          *store.Journal  // Optional
	Exists           func(path string) bool
	Logger           *slog.Logger
	DryRun           bool
}

// Injector applies woodfish operations to one editor.
type Injector struct {
	mu sync.Mutex

	settings         *settings.Store
	inst             *editor.Installation
	library          *theme.Library
	assetsDir        string
	main             theme.Asset
	keys             []string
	requireInstalled bool
	defaults         map[Effect]bool
	statePath        string
	journal          *store.Journal
	exists           func(string) bool
	logger           *slog.Logger
	dryRun           bool

	writeMu   sync.Mutex
	lastWrite []byte // Last bytes written to the global settings
}

// New validates opts and creates an Injector.
func New(opts Options) (*Injector, error) {
	if opts.Settings == nil || opts.Settings.Global() == nil {
		return nil, errors.New("injector: settings store is required")
	}
	if opts.AssetsDir == "" {
		return nil, errors.New("injector: assets dir is required")
	}
	if opts.DryRun && !opts.Settings.Global().DryRun() {
		return nil, errors.New("injector: dry-run needs settings files opened with settings.WithDryRun")
	}
	if ws := opts.Settings.Workspace(); ws != nil && ws.DryRun() != opts.Settings.Global().DryRun() {
		return nil, errors.New("injector: global and workspace settings disagree on dry-run")
	}
	main, err := theme.MainAsset(opts.Variant)
	if err != nil {
		return nil, fmt.Errorf("injector: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	keys := opts.Keys
	if len(keys) == 0 {
		keys = editor.DefaultKeys()
	}
	library := opts.Library
	if library == nil {
		library = theme.NewLibrary("", logger)
	}
	exists := opts.Exists
	if exists == nil {
		exists = fileExists
	}
	defaults := DefaultEffects()
	for e, v := range opts.Defaults {
		defaults[e] = v
	}

	return &Injector{
		settings:         opts.Settings,
		inst:             opts.Installation,
		library:          library,
		assetsDir:        opts.AssetsDir,
		main:             main,
		keys:             keys,
		requireInstalled: opts.RequireInstalled,
		defaults:         defaults,
		statePath:        opts.StatePath,
		journal:          opts.Journal,
		exists:           exists,
		logger:           logger,
		dryRun:           opts.DryRun || opts.Settings.Global().DryRun(),
	}, nil
}

// Keys returns the configured import-list keys.
func (in *Injector) Keys() []string {
	return in.keys
}

// DryRun reports whether operations only compute their changes.
func (in *Injector) DryRun() bool {
	return in.dryRun
}

// SettingsPath returns the global settings file path.
func (in *Injector) SettingsPath() string {
	return in.settings.Global().Path()
}

// wroteLast reports whether data is what the injector itself last wrote to
// the global settings.
func (in *Injector) wroteLast(data []byte) bool {
	in.writeMu.Lock()
	defer in.writeMu.Unlock()
	return in.lastWrite != nil && bytes.Equal(in.lastWrite, data)
}

// Change is the effect of one settings transaction.
type Change struct {
	Path     string   `json:"path" yaml:"path"`
	Key      string   `json:"key,omitempty" yaml:"key,omitempty"`
	Added    []string `json:"added,omitempty" yaml:"added,omitempty"`
	Removed  int      `json:"removed,omitempty" yaml:"removed,omitempty"`
	Settings []string `json:"settings,omitempty" yaml:"settings,omitempty"` // Other settings written
	Written  bool     `json:"written" yaml:"written"`
	Diff     string   `json:"diff,omitempty" yaml:"diff,omitempty"` // Dry-run only
}

// Changed reports whether the transaction altered the file.
func (c Change) Changed() bool {
	return len(c.Added) > 0 || c.Removed > 0 || len(c.Settings) > 0
}

// HTMLChange summarises a workbench HTML cleanup.
type HTMLChange struct {
	Path    string         `json:"path" yaml:"path"`
	Backup  string         `json:"backup,omitempty" yaml:"backup,omitempty"`
	Removed int            `json:"removed" yaml:"removed"`
	Rules   map[string]int `json:"rules,omitempty" yaml:"rules,omitempty"`
	Written bool           `json:"written" yaml:"written"`
	Diff    string         `json:"diff,omitempty" yaml:"diff,omitempty"`
}

// Report describes what an operation did.
type Report struct {
	Op       store.Op    `json:"op" yaml:"op"`
	DryRun   bool        `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Changes  []Change    `json:"changes,omitempty" yaml:"changes,omitempty"`
	Assets   []string    `json:"assets,omitempty" yaml:"assets,omitempty"` // Stylesheets written to disk
	HTML     *HTMLChange `json:"html,omitempty" yaml:"html,omitempty"`
	Warnings []string    `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Changed reports whether anything was (or in dry-run would be) modified.
func (r *Report) Changed() bool {
	if len(r.Assets) > 0 || (r.HTML != nil && r.HTML.Removed > 0) {
		return true
	}
	for _, c := range r.Changes {
		if c.Changed() {
			return true
		}
	}
	return false
}

// Added returns every URI added across all changes.
func (r *Report) Added() []string {
	var out []string
	for _, c := range r.Changes {
		out = append(out, c.Added...)
	}
	return out
}

// Removed returns the number of list elements removed across all changes.
func (r *Report) Removed() int {
	n := 0
	for _, c := range r.Changes {
		n += c.Removed
	}
	return n
}

func (in *Injector) newReport(op store.Op) *Report {
	return &Report{Op: op, DryRun: in.dryRun}
}

func (in *Injector) warn(r *Report, msg string, args ...any) {
	in.logger.Warn(msg, args...)
	r.Warnings = append(r.Warnings, formatWarning(msg, args...))
}

func formatWarning(msg string, args ...any) string {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	return b.String()
}

// listEdit reconciles one import list. It returns the new list, the URIs it
// added and the number of elements it removed.
type listEdit func(list core.List) (next core.List, added []string, removed int)

// editList applies edit to key in the global scope inside one
// transaction. The edit is recomputed from a fresh read if another writer
// touches the file.
func (in *Injector) editList(ctx context.Context, r *Report, key string, edit listEdit) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ch := Change{Key: key}
	res, err := in.settings.UpdateList(key, settings.ScopeGlobal, func(list core.List) (core.List, bool) {
		next, added, removed := edit(list)
		ch.Added, ch.Removed = added, removed
		return next, len(added) > 0 || removed > 0
	})
	if err != nil {
		return fmt.Errorf("update %s: %w", key, err)
	}

	in.finish(r, &ch, res)
	return nil
}

// editSettings runs fn as one transaction against f and records the keys it
// changed.
func (in *Injector) editSettings(ctx context.Context, r *Report, f *settings.File, fn func(tx *settings.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var ch Change
	res, err := f.Update(func(tx *settings.Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		ch.Settings = tx.Keys()
		return nil
	})
	if err != nil {
		return fmt.Errorf("update %s: %w", f.Path(), err)
	}

	in.finish(r, &ch, res)
	return nil
}

func (in *Injector) finish(r *Report, ch *Change, res settings.Result) {
	if !res.Changed {
		return
	}
	ch.Path = res.Path
	ch.Written = res.Written
	if res.Written && res.Path == in.settings.Global().Path() {
		in.writeMu.Lock()
		in.lastWrite = res.After
		in.writeMu.Unlock()
	}
	if in.dryRun {
		ch.Diff = udiff.Unified(res.Path, res.Path, string(res.Before), string(res.After))
	}
	r.Changes = append(r.Changes, *ch)

	in.logger.Debug("settings updated",
		"op", r.Op, "path", res.Path, "key", ch.Key,
		"added", len(ch.Added), "removed", ch.Removed, "attempts", res.Attempts)

	rec := store.NewRecord(r.Op, ch.Key)
	rec.Added = ch.Added
	rec.Removed = ch.Removed
	rec.Detail = strings.Join(ch.Settings, ",")
	rec.DryRun = in.dryRun
	in.record(rec)
}

func (in *Injector) record(rec store.Record) {
	if in.journal == nil {
		return
	}
	if err := in.journal.Append(rec); err != nil {
		in.logger.Warn("failed to append journal record", "op", rec.Op, "error", err)
	}
}

// primaryKey returns the key new entries are written to: the first
// configured key whose loader is installed.
func (in *Injector) primaryKey(r *Report) (string, error) {
	for _, key := range in.keys {
		if in.loaderInstalled(key) {
			return key, nil
		}
	}
	if in.requireInstalled {
		return "", fmt.Errorf("%w: install one of %s", ErrNoLoader, loaderIDs(in.keys))
	}
	in.warn(r, "no CSS loader extension detected, writing first key", "key", in.keys[0])
	return in.keys[0], nil
}

// loaderInstalled reports whether the loader reading key is installed.
// Keys without a known loader are trusted.
func (in *Injector) loaderInstalled(key string) bool {
	l, ok := editor.LoaderForKey(key)
	if !ok {
		return true
	}
	if in.inst == nil {
		return false
	}
	return in.inst.IsInstalled(l.ExtensionID)
}

func loaderIDs(keys []string) string {
	var ids []string
	for _, key := range keys {
		if l, ok := editor.LoaderForKey(key); ok {
			ids = append(ids, l.ExtensionID)
		}
	}
	if len(ids) == 0 {
		return "a CSS loader"
	}
	return strings.Join(ids, ", ")
}

// populatedKeys returns the configured keys present in the global settings.
func (in *Injector) populatedKeys() ([]string, error) {
	snap, err := in.settings.Global().Load()
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, key := range in.keys {
		if snap.Has(key) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// entries returns the import-list entries of the named assets. Outside
// dry-run the stylesheets are written to the assets dir first.
func (in *Injector) entries(r *Report, names ...string) ([]core.ManagedEntry, error) {
	out := make([]core.ManagedEntry, 0, len(names))
	if in.dryRun {
		for _, name := range names {
			a, err := theme.Lookup(name)
			if err != nil {
				return nil, err
			}
			out = append(out, theme.Entry(in.assetsDir, a))
		}
		return out, nil
	}

	mats, err := in.library.Materialize(in.assetsDir, names...)
	if err != nil {
		return nil, err
	}
	for _, m := range mats {
		out = append(out, m.Entry)
		if m.Written {
			r.Assets = append(r.Assets, m.File)
		}
	}
	return out, nil
}

func (in *Injector) entry(name string) core.ManagedEntry {
	a, err := theme.Lookup(name)
	if err != nil {
		panic(err)
	}
	return theme.Entry(in.assetsDir, a)
}

// ensure adds every entry to key.
func ensure(entries ...core.ManagedEntry) listEdit {
	return func(list core.List) (core.List, []string, int) {
		var added []string
		for _, e := range entries {
			var ok bool
			if list, ok = core.EnsurePresent(list, e); ok {
				added = append(added, e.URI)
			}
		}
		return list, added, 0
	}
}

// remove drops every element matching any entry.
func remove(entries ...core.ManagedEntry) listEdit {
	return func(list core.List) (core.List, []string, int) {
		total := 0
		for _, e := range entries {
			var n int
			list, n = core.RemovePresent(list, e.URI, e.Markers)
			total += n
		}
		return list, nil, total
	}
}

// chain runs edits in order against the same list.
func chain(edits ...listEdit) listEdit {
	return func(list core.List) (core.List, []string, int) {
		var added []string
		removed := 0
		for _, edit := range edits {
			var a []string
			var n int
			list, a, n = edit(list)
			added = append(added, a...)
			removed += n
		}
		return list, added, removed
	}
}

// updateState loads the state file, applies fn and saves it. It does
// nothing in dry-run or without a state path.
func (in *Injector) updateState(fn func(s *store.State)) {
	if in.statePath == "" || in.dryRun {
		return
	}
	st, err := store.LoadState(in.statePath)
	if err != nil {
		in.logger.Warn("failed to load state", "path", in.statePath, "error", err)
		return
	}
	fn(st)
	if err := store.SaveState(in.statePath, st); err != nil {
		in.logger.Warn("failed to save state", "path", in.statePath, "error", err)
	}
}

// State returns the persisted state, or the default state when none is
// configured.
func (in *Injector) State() *store.State {
	if in.statePath == "" {
		return store.DefaultState()
	}
	st, err := store.LoadState(in.statePath)
	if err != nil {
		in.logger.Warn("failed to load state", "path", in.statePath, "error", err)
		return store.DefaultState()
	}
	return st
}

// editorVersion returns the installed editor version, or "" if unknown.
func (in *Injector) editorVersion() string {
	if in.inst == nil {
		return ""
	}
	v, err := in.inst.Version()
	if err != nil {
		in.logger.Debug("editor version unavailable", "error", err)
		return ""
	}
	return v
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
