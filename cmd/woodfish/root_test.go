package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woodfish/woodfish/internal/config"
	"github.com/woodfish/woodfish/internal/injector"
	"github.com/woodfish/woodfish/internal/store"
)

// sandbox points every user directory at a temp dir and returns the path of
// an empty settings.json inside it.
func sandbox(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("HOME", root)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(root, "data"))

	path := filepath.Join(root, "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{\n  // mine\n  \"editor.fontSize\": 14\n}\n"), 0644))
	return path
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}

func TestEnableDisable(t *testing.T) {
	settingsPath := sandbox(t)

	require.NoError(t, execute(t, "--settings", settingsPath, "--no-color", "enable"))

	data, err := os.ReadFile(settingsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "// mine")
	assert.Contains(t, string(data), "vscode_custom_css.imports")
	assert.Contains(t, string(data), "woodfish-theme.css")

	assetsDir := filepath.Join(os.Getenv("XDG_DATA_HOME"), "woodfish", "assets")
	assert.FileExists(t, filepath.Join(assetsDir, "themes", "woodfish-theme.css"))

	journalPath, err := store.JournalPath()
	require.NoError(t, err)
	assert.FileExists(t, journalPath)

	require.NoError(t, execute(t, "--settings", settingsPath, "--no-color", "disable"))

	data, err = os.ReadFile(settingsPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "woodfish-theme.css")
	assert.Contains(t, string(data), "\"editor.fontSize\": 14")
	assert.Nil(t, journal, "journal is closed after each command")
}

func TestDryRunLeavesSettingsAlone(t *testing.T) {
	settingsPath := sandbox(t)
	before, err := os.ReadFile(settingsPath)
	require.NoError(t, err)

	require.NoError(t, execute(t, "--settings", settingsPath, "--dry-run", "enable"))
	globalOpts.dryRun = false

	after, err := os.ReadFile(settingsPath)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestUnknownFormatFails(t *testing.T) {
	settingsPath := sandbox(t)

	err := execute(t, "--settings", settingsPath, "--format", "xml", "status")
	globalOpts.format = "plain"

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestUninstallOptions(t *testing.T) {
	cfg = config.DefaultConfig()
	t.Cleanup(func() { cfg = nil })

	cmd := &cobra.Command{}
	bindUninstallFlags(cmd.Flags())

	opts := uninstallOptions(cmd)
	assert.Equal(t, cfg.Uninstall.CleanHTML, opts.CleanHTML)
	assert.Equal(t, cfg.Uninstall.ResetCursorSettings, opts.ResetCursorSettings)
	assert.False(t, opts.ClearImports)

	require.NoError(t, cmd.Flags().Set("clean-html", "false"))
	require.NoError(t, cmd.Flags().Set("clear-imports", "true"))
	opts = uninstallOptions(cmd)
	assert.False(t, opts.CleanHTML)
	assert.True(t, opts.ClearImports)

	uninstallOpts.clearImports = false
}

func TestUninstallSteps(t *testing.T) {
	settingsPath := sandbox(t)
	cfg = config.DefaultConfig()
	cfg.Editor.SettingsPath = settingsPath
	setupLogger()
	t.Cleanup(func() { cfg = nil })

	in, err := openInjector()
	require.NoError(t, err)
	t.Cleanup(func() {
		if journal != nil {
			journal.Close()
			journal = nil
		}
	})

	steps := uninstallSteps(injector.UninstallOptions{}, in)
	require.Len(t, steps, 2)
	assert.Contains(t, steps[0], settingsPath)
	assert.Equal(t, "forget the saved woodfish state", steps[1])

	steps = uninstallSteps(injector.UninstallOptions{
		ClearImports:        true,
		CleanHTML:           true,
		ResetCursorSettings: true,
		ResetColorTheme:     true,
		RegisterCursorReset: true,
	}, in)
	require.Len(t, steps, 6)
	assert.True(t, strings.HasPrefix(steps[0], "empty every import list"))
}

func TestEffectCommandsRegistered(t *testing.T) {
	for _, e := range injector.AllEffects {
		cmd, _, err := rootCmd.Find([]string{e.String(), "toggle"})
		require.NoError(t, err, e)
		assert.Equal(t, "toggle", cmd.Name())
	}
}
