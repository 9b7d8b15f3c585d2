package editor

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkdirs(t *testing.T, root string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0755))
	}
}

func TestLookup(t *testing.T) {
	e, err := Lookup("VSCode")
	require.NoError(t, err)
	assert.Equal(t, "Code", e.SettingsDir)

	_, err = Lookup("notepad")
	assert.Error(t, err)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"cursor", "vscode", "vscodium", "windsurf"}, Names())
}

func TestDefaultSettingsPath(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only drives os.UserConfigDir on linux")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	e, err := Lookup("cursor")
	require.NoError(t, err)
	p, err := e.DefaultSettingsPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Cursor", "User", "settings.json"), p)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("WOODFISH_TEST_DIR", "/opt/x")

	assert.Equal(t, filepath.Join(home, ".vscode"), ExpandPath("~/.vscode"))
	assert.Equal(t, "/opt/x/app", ExpandPath("%WOODFISH_TEST_DIR%/app"))
	assert.Equal(t, "/opt/x/app", ExpandPath("$WOODFISH_TEST_DIR/app"))
	assert.Equal(t, "/plain", ExpandPath("/plain"))
}

func TestResolveOverrides(t *testing.T) {
	dir := t.TempDir()
	e, err := Lookup("vscode")
	require.NoError(t, err)

	inst, err := Resolve(e, Paths{
		Settings:   filepath.Join(dir, "settings.json"),
		Extensions: filepath.Join(dir, "ext"),
		Install:    filepath.Join(dir, "app"),
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "settings.json"), inst.SettingsPath)
	assert.Equal(t, filepath.Join(dir, "ext"), inst.ExtensionsDir)
	assert.Equal(t, filepath.Join(dir, "app"), inst.InstallDir)
}

func TestInstalledExtensions(t *testing.T) {
	dir := t.TempDir()
	mkdirs(t, dir,
		"be5invis.vscode-custom-css-7.2.0",
		"be5invis.vscode-custom-css-7.10.1",
		"bartag.custom-css-hot-reload-1.0.3",
		"brandonkirbyson.vscode-animations-2.0.7",
		"be5invis.vscode-custom-css-extras-1.0.0",
	)
	inst := &Installation{Editor: Editors["vscode"], ExtensionsDir: dir}

	exts, err := inst.InstalledExtensions("be5invis.vscode-custom-css", DependencyExtension, "nobody.missing")
	require.NoError(t, err)
	require.Len(t, exts, 2)

	assert.Equal(t, "be5invis.vscode-custom-css", exts[0].ID)
	assert.Equal(t, "7.10.1", exts[0].Version)
	assert.Equal(t, filepath.Join(dir, "be5invis.vscode-custom-css-7.10.1"), exts[0].Dir)

	assert.Equal(t, DependencyExtension, exts[1].ID)
	assert.Equal(t, "2.0.7", exts[1].Version)

	assert.True(t, inst.IsInstalled("bartag.custom-css-hot-reload"))
	assert.False(t, inst.IsInstalled("apc-extension.vscode-apc"))

	loaders := inst.InstalledLoaders()
	require.Len(t, loaders, 2)
	assert.Equal(t, "vscode_custom_css.imports", loaders[0].Key)
}

func TestInstalledExtensionsMissingDir(t *testing.T) {
	inst := &Installation{Editor: Editors["vscode"], ExtensionsDir: filepath.Join(t.TempDir(), "none")}

	exts, err := inst.InstalledExtensions("be5invis.vscode-custom-css")
	require.NoError(t, err)
	assert.Empty(t, exts)
}

func TestVersion(t *testing.T) {
	dir := t.TempDir()
	inst := &Installation{Editor: Editors["vscode"], InstallDir: dir}

	_, err := inst.Version()
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "product.json"), []byte(`{"nameShort":"Code","version":"1.90.0"}`), 0644))
	v, err := inst.Version()
	require.NoError(t, err)
	assert.Equal(t, "1.90.0", v)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"name":"code-oss-dev","version":"1.91.1"}`), 0644))
	v, err = inst.Version()
	require.NoError(t, err)
	assert.Equal(t, "1.91.1", v)
}

func TestWorkbenchHTML(t *testing.T) {
	dir := t.TempDir()
	inst := &Installation{Editor: Editors["vscode"], InstallDir: dir}

	_, err := inst.WorkbenchHTML()
	assert.ErrorIs(t, err, os.ErrNotExist)

	legacy := filepath.Join(dir, "out", "vs", "code", "electron-browser", "workbench", "workbench.html")
	require.NoError(t, os.MkdirAll(filepath.Dir(legacy), 0755))
	require.NoError(t, os.WriteFile(legacy, []byte("<html></html>"), 0644))

	p, err := inst.WorkbenchHTML()
	require.NoError(t, err)
	assert.Equal(t, legacy, p)

	sandbox := filepath.Join(dir, "out", "vs", "code", "electron-sandbox", "workbench", "workbench.html")
	require.NoError(t, os.MkdirAll(filepath.Dir(sandbox), 0755))
	require.NoError(t, os.WriteFile(sandbox, []byte("<html></html>"), 0644))

	p, err = inst.WorkbenchHTML()
	require.NoError(t, err)
	assert.Equal(t, sandbox, p)
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.2.3", "1.2.3", 0},
		{"1.10.0", "1.9.9", 1},
		{"1.2", "1.2.1", -1},
		{"2.0.0-insider", "2.0.0", 0},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, compareVersions(tt.a, tt.b))
		})
	}
}

func TestLoaderForKey(t *testing.T) {
	l, ok := LoaderForKey("custom_css_hot_reload.imports")
	require.True(t, ok)
	assert.Equal(t, "bartag.custom-css-hot-reload", l.ExtensionID)

	_, ok = LoaderForKey("other.imports")
	assert.False(t, ok)

	assert.Equal(t, []string{"vscode_custom_css.imports", "custom_css_hot_reload.imports"}, DefaultKeys())
}
