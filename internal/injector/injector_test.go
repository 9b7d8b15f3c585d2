package injector

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woodfish/woodfish/internal/core"
	"github.com/woodfish/woodfish/internal/editor"
	"github.com/woodfish/woodfish/internal/settings"
	"github.com/woodfish/woodfish/internal/store"
	"github.com/woodfish/woodfish/internal/theme"
)

const (
	customCSSKey = "vscode_custom_css.imports"
	hotReloadKey = "custom_css_hot_reload.imports"
)

type fixture struct {
	settingsPath  string
	workspacePath string
	assetsDir     string
	statePath     string
	inst          *editor.Installation
	journal       *store.Journal
}

// newFixture lays out a fake editor install with the given extension
// directories and a settings file with content.
func newFixture(t *testing.T, content string, extensions ...string) *fixture {
	t.Helper()
	root := t.TempDir()

	f := &fixture{
		settingsPath: filepath.Join(root, "config", "Code", "User", "settings.json"),
		assetsDir:    filepath.Join(root, "data", "assets"),
		statePath:    filepath.Join(root, "data", "state.json"),
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(f.settingsPath), 0755))
	if content != "" {
		require.NoError(t, os.WriteFile(f.settingsPath, []byte(content), 0644))
	}

	extDir := filepath.Join(root, "extensions")
	require.NoError(t, os.MkdirAll(extDir, 0755))
	for _, ext := range extensions {
		require.NoError(t, os.MkdirAll(filepath.Join(extDir, ext), 0755))
	}

	installDir := filepath.Join(root, "app")
	require.NoError(t, os.MkdirAll(installDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(installDir, "package.json"), []byte(`{"version": "1.95.0"}`), 0644))

	f.inst = &editor.Installation{
		Editor:        editor.Editors["vscode"],
		SettingsPath:  f.settingsPath,
		ExtensionsDir: extDir,
		InstallDir:    installDir,
	}

	j, err := store.OpenJournal(filepath.Join(root, "data", "journal.jsonl"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	f.journal = j
	return f
}

func (f *fixture) options() Options {
	var ws *settings.File
	if f.workspacePath != "" {
		ws = settings.NewFile(f.workspacePath)
	}
	return Options{
		Settings:     settings.NewStore(settings.NewFile(f.settingsPath), ws),
		Installation: f.inst,
		AssetsDir:    f.assetsDir,
		StatePath:    f.statePath,
		Journal:      f.journal,
	}
}

func (f *fixture) injector(t *testing.T, mods ...func(*Options)) *Injector {
	t.Helper()
	opts := f.options()
	for _, mod := range mods {
		mod(&opts)
	}
	in, err := New(opts)
	require.NoError(t, err)
	return in
}

func (f *fixture) snapshot(t *testing.T) *settings.Snapshot {
	t.Helper()
	snap, err := settings.NewFile(f.settingsPath).Load()
	require.NoError(t, err)
	return snap
}

func (f *fixture) list(t *testing.T, key string) []string {
	t.Helper()
	list, err := f.snapshot(t).List(key)
	require.NoError(t, err)
	return list.Strings()
}

func (f *fixture) uri(t *testing.T, asset string) string {
	t.Helper()
	a, err := theme.Lookup(asset)
	require.NoError(t, err)
	return theme.Entry(f.assetsDir, a).URI
}

func (f *fixture) state(t *testing.T) *store.State {
	t.Helper()
	st, err := store.LoadState(f.statePath)
	require.NoError(t, err)
	return st
}

func TestNew_RequiresSettingsAndAssets(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	_, err = New(Options{Settings: settings.NewStore(settings.NewFile("x.json"), nil)})
	assert.Error(t, err)

	_, err = New(Options{
		Settings:  settings.NewStore(settings.NewFile("x.json"), nil),
		AssetsDir: t.TempDir(),
		Variant:   "neon",
	})
	assert.Error(t, err)

	_, err = New(Options{
		Settings:  settings.NewStore(settings.NewFile("x.json"), nil),
		AssetsDir: t.TempDir(),
		DryRun:    true,
	})
	assert.Error(t, err)
}

func TestEnable_RegistersThemeAndEffects(t *testing.T) {
	f := newFixture(t, `{}`, "be5invis.vscode-custom-css-7.2.0")
	in := f.injector(t)

	r, err := in.Enable(context.Background(), EnableOptions{})
	require.NoError(t, err)
	assert.True(t, r.Changed())
	assert.Empty(t, r.Warnings)

	want := []string{f.uri(t, theme.AssetTheme), f.uri(t, theme.AssetGlow), f.uri(t, theme.AssetGlass)}
	assert.Equal(t, want, f.list(t, customCSSKey))
	assert.Equal(t, want, r.Added())
	assert.False(t, f.snapshot(t).Has(hotReloadKey))

	for _, uri := range want {
		path, ok := core.URIToPath(uri)
		require.True(t, ok)
		assert.FileExists(t, path)
	}

	st := f.state(t)
	assert.True(t, st.ThemeEnabled)
	assert.Equal(t, "1.95.0", st.EditorVersion)

	records, err := f.journal.Load()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, store.OpEnable, records[0].Op)
	assert.Equal(t, customCSSKey, records[0].Key)
	assert.Equal(t, want, records[0].Added)
}

func TestEnable_Idempotent(t *testing.T) {
	f := newFixture(t, `{}`, "be5invis.vscode-custom-css-7.2.0")
	in := f.injector(t)

	_, err := in.Enable(context.Background(), EnableOptions{})
	require.NoError(t, err)
	before, err := os.ReadFile(f.settingsPath)
	require.NoError(t, err)

	r, err := in.Enable(context.Background(), EnableOptions{})
	require.NoError(t, err)
	assert.False(t, r.Changed())

	after, err := os.ReadFile(f.settingsPath)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestEnable_KeepsForeignEntriesAndComments(t *testing.T) {
	f := newFixture(t, `{
  // my stuff
  "vscode_custom_css.imports": ["file:///home/u/mine.css"],
}`, "be5invis.vscode-custom-css-7.2.0")
	in := f.injector(t)

	_, err := in.Enable(context.Background(), EnableOptions{})
	require.NoError(t, err)

	list := f.list(t, customCSSKey)
	require.Len(t, list, 4)
	assert.Equal(t, "file:///home/u/mine.css", list[0])

	data, err := os.ReadFile(f.settingsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "// my stuff")
}

func TestEnable_PrimaryKeyFollowsInstalledLoader(t *testing.T) {
	f := newFixture(t, `{}`, "bartag.custom-css-hot-reload-1.0.0")
	in := f.injector(t)

	_, err := in.Enable(context.Background(), EnableOptions{})
	require.NoError(t, err)

	assert.False(t, f.snapshot(t).Has(customCSSKey))
	assert.Contains(t, f.list(t, hotReloadKey), f.uri(t, theme.AssetTheme))
}

func TestEnable_NoLoaderInstalled(t *testing.T) {
	t.Run("falls back to first key", func(t *testing.T) {
		f := newFixture(t, `{}`)
		in := f.injector(t)

		r, err := in.Enable(context.Background(), EnableOptions{})
		require.NoError(t, err)
		assert.NotEmpty(t, r.Warnings)
		assert.Contains(t, f.list(t, customCSSKey), f.uri(t, theme.AssetTheme))
	})

	t.Run("required", func(t *testing.T) {
		f := newFixture(t, `{}`)
		in := f.injector(t, func(o *Options) { o.RequireInstalled = true })

		_, err := in.Enable(context.Background(), EnableOptions{})
		assert.True(t, errors.Is(err, ErrNoLoader))
		assert.False(t, f.snapshot(t).Has(customCSSKey))
	})
}

func TestEnable_ReconcilesEffectsAndVariant(t *testing.T) {
	f := newFixture(t, `{"woodfishTheme.enableGlassEffect": false}`, "be5invis.vscode-custom-css-7.2.0")
	in := f.injector(t)

	_, err := in.Enable(context.Background(), EnableOptions{})
	require.NoError(t, err)
	assert.NotContains(t, f.list(t, customCSSKey), f.uri(t, theme.AssetGlass))

	_, err = in.SetEffect(context.Background(), EffectCursor, false, store.SourceUser)
	require.NoError(t, err)
	_, err = in.Uninstall(context.Background(), UninstallOptions{RegisterCursorReset: true})
	require.NoError(t, err)
	require.Contains(t, f.list(t, customCSSKey), f.uri(t, theme.AssetCursorReset))

	_, err = in.Enable(context.Background(), EnableOptions{Variant: "modular"})
	require.NoError(t, err)

	list := f.list(t, customCSSKey)
	assert.NotContains(t, list, f.uri(t, theme.AssetCursorReset))
	assert.NotContains(t, list, f.uri(t, theme.AssetTheme))
	assert.Contains(t, list, f.uri(t, theme.AssetModular))
}

func TestDisable_RemovesFromAllKeys(t *testing.T) {
	f := newFixture(t, `{}`, "be5invis.vscode-custom-css-7.2.0")
	in := f.injector(t)

	_, err := in.Enable(context.Background(), EnableOptions{})
	require.NoError(t, err)
	_, err = settings.NewFile(f.settingsPath).Update(func(tx *settings.Tx) error {
		tx.SetList(hotReloadKey, core.List{f.uri(t, theme.AssetGlow), "file:///home/u/mine.css"})
		return nil
	})
	require.NoError(t, err)

	r, err := in.Disable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, r.Removed())

	assert.Empty(t, f.list(t, customCSSKey))
	assert.Equal(t, []string{"file:///home/u/mine.css"}, f.list(t, hotReloadKey))
	assert.False(t, f.state(t).ThemeEnabled)

	r, err = in.Disable(context.Background())
	require.NoError(t, err)
	assert.False(t, r.Changed())
}

func TestDisable_NothingToDo(t *testing.T) {
	f := newFixture(t, "")
	in := f.injector(t)

	r, err := in.Disable(context.Background())
	require.NoError(t, err)
	assert.False(t, r.Changed())
	assert.NoFileExists(t, f.settingsPath)
}

func TestSetEffect(t *testing.T) {
	ctx := context.Background()

	t.Run("glow off removes theme and glow", func(t *testing.T) {
		f := newFixture(t, `{}`, "be5invis.vscode-custom-css-7.2.0")
		in := f.injector(t)
		_, err := in.Enable(ctx, EnableOptions{})
		require.NoError(t, err)

		_, err = in.SetEffect(ctx, EffectGlow, false, store.SourceUser)
		require.NoError(t, err)

		assert.Equal(t, []string{f.uri(t, theme.AssetGlass)}, f.list(t, customCSSKey))
		assert.False(t, f.snapshot(t).Bool(SettingGlow, true))

		last := f.state(t).LastTransition
		require.NotNil(t, last)
		assert.Equal(t, "glow", last.Effect)
		assert.False(t, last.Enabled)
	})

	t.Run("glow on restores theme", func(t *testing.T) {
		f := newFixture(t, `{"woodfishTheme.enableGlowEffects": false}`, "be5invis.vscode-custom-css-7.2.0")
		in := f.injector(t)

		_, err := in.SetEffect(ctx, EffectGlow, true, store.SourceUser)
		require.NoError(t, err)

		assert.Equal(t, []string{f.uri(t, theme.AssetTheme), f.uri(t, theme.AssetGlow)}, f.list(t, customCSSKey))
		assert.True(t, f.snapshot(t).Bool(SettingGlow, false))
	})

	t.Run("glass off keeps theme", func(t *testing.T) {
		f := newFixture(t, `{}`, "be5invis.vscode-custom-css-7.2.0")
		in := f.injector(t)
		_, err := in.Enable(ctx, EnableOptions{})
		require.NoError(t, err)

		_, err = in.SetEffect(ctx, EffectGlass, false, store.SourceUser)
		require.NoError(t, err)

		assert.Equal(t, []string{f.uri(t, theme.AssetTheme), f.uri(t, theme.AssetGlow)}, f.list(t, customCSSKey))
	})

	t.Run("cursor on and off", func(t *testing.T) {
		f := newFixture(t, `{}`, "be5invis.vscode-custom-css-7.2.0")
		in := f.injector(t)

		_, err := in.SetEffect(ctx, EffectCursor, true, store.SourceUser)
		require.NoError(t, err)
		assert.Equal(t, []string{f.uri(t, theme.AssetCursor)}, f.list(t, customCSSKey))
		assert.True(t, f.snapshot(t).Bool(SettingCursor, false))

		r, err := in.SetEffect(ctx, EffectCursor, true, store.SourceUser)
		require.NoError(t, err)
		assert.False(t, r.Changed())

		_, err = in.SetEffect(ctx, EffectCursor, false, store.SourceUser)
		require.NoError(t, err)
		assert.Empty(t, f.list(t, customCSSKey))
	})
}

func TestToggleEffect(t *testing.T) {
	f := newFixture(t, `{}`, "be5invis.vscode-custom-css-7.2.0")
	in := f.injector(t)
	ctx := context.Background()

	on, _, err := in.ToggleEffect(ctx, EffectCursor, store.SourceUser)
	require.NoError(t, err)
	assert.True(t, on)

	on, _, err = in.ToggleEffect(ctx, EffectCursor, store.SourceUser)
	require.NoError(t, err)
	assert.False(t, on)

	enabled, err := in.EffectEnabled(EffectCursor)
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestValidate_DropsDanglingAndDuplicates(t *testing.T) {
	f := newFixture(t, "", "be5invis.vscode-custom-css-7.2.0")
	present := filepath.Join(filepath.Dir(f.settingsPath), "present.css")
	require.NoError(t, os.WriteFile(present, []byte("body{}"), 0644))
	presentURI := core.PathToURI(present)

	_, err := settings.NewFile(f.settingsPath).Update(func(tx *settings.Tx) error {
		tx.SetList(customCSSKey, core.List{presentURI, "", presentURI, "file:///nowhere/gone.css", "https://example.com/x.css"})
		tx.SetList(hotReloadKey, core.List{presentURI})
		return nil
	})
	require.NoError(t, err)

	in := f.injector(t)
	r, err := in.Validate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, r.Removed())
	require.Len(t, r.Changes, 1)

	assert.Equal(t, []string{presentURI, "https://example.com/x.css"}, f.list(t, customCSSKey))
	assert.Equal(t, []string{presentURI}, f.list(t, hotReloadKey))
	assert.NotZero(t, f.state(t).LastValidatedAt)

	r, err = in.Validate(context.Background())
	require.NoError(t, err)
	assert.False(t, r.Changed())
}

func TestDryRun_DoesNotWrite(t *testing.T) {
	f := newFixture(t, `{"editor.fontSize": 13}`, "be5invis.vscode-custom-css-7.2.0")
	in := f.injector(t, func(o *Options) {
		o.Settings = settings.NewStore(settings.NewFile(f.settingsPath, settings.WithDryRun(true)), nil)
		o.DryRun = true
	})

	r, err := in.Enable(context.Background(), EnableOptions{})
	require.NoError(t, err)
	assert.True(t, r.DryRun)
	require.Len(t, r.Changes, 1)
	assert.False(t, r.Changes[0].Written)
	assert.Contains(t, r.Changes[0].Diff, "+")
	assert.Contains(t, r.Changes[0].Diff, customCSSKey)

	data, err := os.ReadFile(f.settingsPath)
	require.NoError(t, err)
	assert.Equal(t, `{"editor.fontSize": 13}`, string(data))
	assert.NoDirExists(t, f.assetsDir)
	assert.NoFileExists(t, f.statePath)

	records, err := f.journal.Load()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].DryRun)
}

func TestContextCancelled(t *testing.T) {
	f := newFixture(t, `{}`, "be5invis.vscode-custom-css-7.2.0")
	in := f.injector(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := in.Enable(ctx, EnableOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, f.snapshot(t).Has(customCSSKey))
}

func TestParseEffect(t *testing.T) {
	tests := []struct {
		in      string
		want    Effect
		wantErr bool
	}{
		{"glow", EffectGlow, false},
		{"Glass", EffectGlass, false},
		{"rainbow-cursor", EffectCursor, false},
		{" cursor ", EffectCursor, false},
		{"sparkle", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEffect(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEffect_SettingKeyAndAsset(t *testing.T) {
	for _, e := range AllEffects {
		assert.NotEmpty(t, e.SettingKey(), e)
		_, err := theme.Lookup(e.AssetName())
		assert.NoError(t, err, e)
	}
}
