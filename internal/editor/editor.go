// Package editor knows where VS Code family editors keep their settings,
// extensions and installation files.
package editor

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"
)

// Editor describes one VS Code based editor.
type Editor struct {
	Name          string              // Internal name (e.g., "vscode", "cursor")
	DisplayName   string              // User-facing name
	SettingsDir   string              // Directory under the user config dir (e.g., "Code")
	ExtensionsDir string              // Extensions directory relative to home
	InstallPaths  map[string][]string // GOOS -> candidate resources/app directories
	ProductJSON   string              // Relative path to product.json
}

// Editors is the registry of supported editors.
var Editors = map[string]*Editor{
	"vscode": {
		Name:          "vscode",
		DisplayName:   "Visual Studio Code",
		SettingsDir:   "Code",
		ExtensionsDir: ".vscode/extensions",
		InstallPaths: map[string][]string{
			"darwin": {
				"/Applications/Visual Studio Code.app/Contents/Resources/app",
				"~/Applications/Visual Studio Code.app/Contents/Resources/app",
			},
			"windows": {
				`%LOCALAPPDATA%\Programs\Microsoft VS Code\resources\app`,
				`C:\Program Files\Microsoft VS Code\resources\app`,
			},
			"linux": {
				"/usr/share/code/resources/app",
				"/opt/visual-studio-code/resources/app",
				"/usr/lib/code",
				"~/.local/share/code/resources/app",
			},
		},
		ProductJSON: "product.json",
	},
	"vscodium": {
		Name:          "vscodium",
		DisplayName:   "VSCodium",
		SettingsDir:   "VSCodium",
		ExtensionsDir: ".vscode-oss/extensions",
		InstallPaths: map[string][]string{
			"darwin": {
				"/Applications/VSCodium.app/Contents/Resources/app",
			},
			"windows": {
				`%LOCALAPPDATA%\Programs\VSCodium\resources\app`,
				`C:\Program Files\VSCodium\resources\app`,
			},
			"linux": {
				"/usr/share/codium/resources/app",
				"/opt/vscodium-bin/resources/app",
			},
		},
		ProductJSON: "product.json",
	},
	"cursor": {
		Name:          "cursor",
		DisplayName:   "Cursor",
		SettingsDir:   "Cursor",
		ExtensionsDir: ".cursor/extensions",
		InstallPaths: map[string][]string{
			"darwin": {
				"/Applications/Cursor.app/Contents/Resources/app",
				"~/Applications/Cursor.app/Contents/Resources/app",
			},
			"windows": {
				`%LOCALAPPDATA%\Programs\Cursor\resources\app`,
				`C:\Program Files\Cursor\resources\app`,
			},
			"linux": {
				"/usr/share/cursor/resources/app",
				"~/.local/share/cursor/resources/app",
			},
		},
		ProductJSON: "product.json",
	},
	"windsurf": {
		Name:          "windsurf",
		DisplayName:   "Windsurf",
		SettingsDir:   "Windsurf",
		ExtensionsDir: ".windsurf/extensions",
		InstallPaths: map[string][]string{
			"darwin": {
				"/Applications/Windsurf.app/Contents/Resources/app",
				"~/Applications/Windsurf.app/Contents/Resources/app",
			},
			"windows": {
				`%LOCALAPPDATA%\Programs\Windsurf\resources\app`,
				`C:\Program Files\Windsurf\resources\app`,
			},
			"linux": {
				"/usr/share/windsurf/resources/app",
				"~/.local/share/windsurf/resources/app",
			},
		},
		ProductJSON: "product.json",
	},
}

// Lookup returns the editor registered under name.
func Lookup(name string) (*Editor, error) {
	e, ok := Editors[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown editor %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	return e, nil
}

// Names returns the sorted names of all supported editors.
func Names() []string {
	names := make([]string, 0, len(Editors))
	for name := range Editors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DefaultSettingsPath returns <UserConfigDir>/<SettingsDir>/User/settings.json.
func (e *Editor) DefaultSettingsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config dir: %w", err)
	}
	return filepath.Join(dir, e.SettingsDir, "User", "settings.json"), nil
}

// DefaultExtensionsDir returns the extensions directory under the user's home.
func (e *Editor) DefaultExtensionsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home dir: %w", err)
	}
	return filepath.Join(home, filepath.FromSlash(e.ExtensionsDir)), nil
}

// InstallDirs returns the candidate install directories for the running OS
// with "~" and %VAR% references expanded.
func (e *Editor) InstallDirs() []string {
	paths := e.InstallPaths[runtime.GOOS]
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, ExpandPath(p))
	}
	return out
}

var windowsEnvRef = regexp.MustCompile(`%([A-Za-z_][A-Za-z0-9_]*)%`)

// ExpandPath expands a leading "~", $VAR and %VAR% references.
func ExpandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[1:])
		}
	}
	p = windowsEnvRef.ReplaceAllStringFunc(p, func(ref string) string {
		return os.Getenv(strings.Trim(ref, "%"))
	})
	return os.ExpandEnv(p)
}
