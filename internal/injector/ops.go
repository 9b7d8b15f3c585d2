package injector

import (
	"context"
	"fmt"

	"github.com/woodfish/woodfish/internal/core"
	"github.com/woodfish/woodfish/internal/settings"
	"github.com/woodfish/woodfish/internal/store"
	"github.com/woodfish/woodfish/internal/theme"
)

// EnableOptions tunes Enable.
type EnableOptions struct {
	Variant string // Overrides the configured theme variant when set
}

// Enable registers the main theme and every effect stylesheet whose flag is
// on in the primary key. Stylesheets of effects that are off, the other theme
// variant and a leftover cursor-reset entry are removed from the same key.
func (in *Injector) Enable(ctx context.Context, opts EnableOptions) (*Report, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	r := in.newReport(store.OpEnable)

	main := in.main
	if opts.Variant != "" {
		a, err := theme.MainAsset(opts.Variant)
		if err != nil {
			return r, err
		}
		main = a
	}

	snap, err := in.settings.Global().Load()
	if err != nil {
		return r, err
	}

	names := []string{main.Name}
	var stale []core.ManagedEntry
	for _, e := range AllEffects {
		if snap.Bool(e.SettingKey(), in.defaults[e]) {
			names = append(names, e.AssetName())
		} else {
			stale = append(stale, in.entry(e.AssetName()))
		}
	}
	for _, a := range theme.Catalog {
		if a.Name == theme.AssetCursorReset || (a.Name != main.Name && (a.Name == theme.AssetTheme || a.Name == theme.AssetModular)) {
			stale = append(stale, theme.Entry(in.assetsDir, a))
		}
	}

	key, err := in.primaryKey(r)
	if err != nil {
		return r, err
	}
	entries, err := in.entries(r, names...)
	if err != nil {
		return r, err
	}

	if err := in.editList(ctx, r, key, chain(removeExact(stale...), ensure(entries...))); err != nil {
		return r, err
	}

	version := in.editorVersion()
	in.updateState(func(s *store.State) { s.MarkEnabled(version) })
	return r, nil
}

// Disable removes every woodfish stylesheet from every populated key. The
// effect flags are left as they are.
func (in *Injector) Disable(ctx context.Context) (*Report, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	r := in.newReport(store.OpDisable)

	var managed []core.ManagedEntry
	for _, a := range theme.Catalog {
		if a.Name != theme.AssetCursorReset {
			managed = append(managed, theme.Entry(in.assetsDir, a))
		}
	}

	keys, err := in.populatedKeys()
	if err != nil {
		return r, err
	}
	for _, key := range keys {
		if err := in.editList(ctx, r, key, remove(managed...)); err != nil {
			return r, err
		}
	}

	in.updateState(func(s *store.State) { s.MarkDisabled() })
	return r, nil
}

// EffectEnabled returns the current value of an effect flag.
func (in *Injector) EffectEnabled(e Effect) (bool, error) {
	snap, err := in.settings.Global().Load()
	if err != nil {
		return false, err
	}
	return snap.Bool(e.SettingKey(), in.defaults[e]), nil
}

// SetEffect writes the effect flag and reconciles its stylesheet.
//
// Turning an effect on ensures its stylesheet in the primary key; glow also
// ensures the main theme, which glow builds on. Turning it off removes the
// stylesheet from every populated key; glow off also removes the main theme,
// since the theme carries glow rules of its own.
func (in *Injector) SetEffect(ctx context.Context, e Effect, on bool, source store.Source) (*Report, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	r := in.newReport(store.OpEffect)
	if e.SettingKey() == "" {
		return r, fmt.Errorf("unknown effect %q", e)
	}

	err := in.editSettings(ctx, r, in.settings.Global(), func(tx *settings.Tx) error {
		tx.SetBool(e.SettingKey(), on)
		return nil
	})
	if err != nil {
		return r, err
	}

	if on {
		err = in.effectOn(ctx, r, e)
	} else {
		err = in.effectOff(ctx, r, e)
	}
	if err != nil {
		return r, err
	}

	in.updateState(func(s *store.State) { s.RecordEffect(string(e), on, source) })
	return r, nil
}

// ToggleEffect flips the effect flag and returns its new value.
func (in *Injector) ToggleEffect(ctx context.Context, e Effect, source store.Source) (bool, *Report, error) {
	cur, err := in.EffectEnabled(e)
	if err != nil {
		return false, in.newReport(store.OpEffect), err
	}
	r, err := in.SetEffect(ctx, e, !cur, source)
	return !cur, r, err
}

func (in *Injector) effectOn(ctx context.Context, r *Report, e Effect) error {
	names := []string{e.AssetName()}
	if e == EffectGlow {
		names = []string{in.main.Name, theme.AssetGlow}
	}
	key, err := in.primaryKey(r)
	if err != nil {
		return err
	}
	entries, err := in.entries(r, names...)
	if err != nil {
		return err
	}

	edit := ensure(entries...)
	if e == EffectCursor {
		edit = chain(removeExact(in.entry(theme.AssetCursorReset)), edit)
	}
	return in.editList(ctx, r, key, edit)
}

func (in *Injector) effectOff(ctx context.Context, r *Report, e Effect) error {
	var entries []core.ManagedEntry
	switch e {
	case EffectGlow:
		for _, name := range []string{theme.AssetGlow, theme.AssetTheme, theme.AssetModular} {
			entry := in.entry(name)
			entry.Markers = theme.GlowOffFiles
			entries = append(entries, entry)
		}
	default:
		entries = append(entries, in.entry(e.AssetName()))
	}

	keys, err := in.populatedKeys()
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := in.editList(ctx, r, key, remove(entries...)); err != nil {
			return err
		}
	}
	return nil
}

// Validate drops empty, duplicate and dangling entries from every populated
// key. Entries that are not file URIs are kept as they are.
func (in *Injector) Validate(ctx context.Context) (*Report, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	r := in.newReport(store.OpValidate)
	if err := in.validate(ctx, r); err != nil {
		return r, err
	}
	in.updateState(func(s *store.State) { s.MarkValidated() })
	return r, nil
}

func (in *Injector) validate(ctx context.Context, r *Report) error {
	keys, err := in.populatedKeys()
	if err != nil {
		return err
	}
	for _, key := range keys {
		err := in.editList(ctx, r, key, func(list core.List) (core.List, []string, int) {
			next, removed := core.ValidateAndDedupe(list, in.exists)
			return next, nil, removed
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// removeExact drops elements equal to an entry URI, ignoring markers.
func removeExact(entries ...core.ManagedEntry) listEdit {
	return func(list core.List) (core.List, []string, int) {
		total := 0
		for _, e := range entries {
			var n int
			list, n = core.RemovePresent(list, e.URI, nil)
			total += n
		}
		return list, nil, total
	}
}
