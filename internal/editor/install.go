package editor

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Paths overrides the locations derived from the registry. Empty fields use
// the editor defaults.
type Paths struct {
	Settings   string
	Extensions string
	Install    string
}

// Installation is an editor resolved against the local machine.
type Installation struct {
	Editor        *Editor
	SettingsPath  string
	ExtensionsDir string
	InstallDir    string // Empty when the editor binary was not found
}

// Extension is an installed extension directory.
type Extension struct {
	ID      string
	Version string
	Dir     string
}

// workbenchCandidates are the known locations of workbench.html relative to
// the install dir, newest layout first.
var workbenchCandidates = []string{
	"out/vs/code/electron-sandbox/workbench/workbench.html",
	"out/vs/code/electron-sandbox/workbench/workbench-apc-extension.html",
	"out/vs/code/electron-sandbox/workbench/workbench.esm.html",
	"out/vs/code/electron-browser/workbench/workbench.esm.html",
	"out/vs/code/electron-browser/workbench/workbench.html",
}

// Resolve fills in the paths of e, honouring overrides.
func Resolve(e *Editor, p Paths) (*Installation, error) {
	inst := &Installation{Editor: e}

	var err error
	if p.Settings != "" {
		inst.SettingsPath = ExpandPath(p.Settings)
	} else if inst.SettingsPath, err = e.DefaultSettingsPath(); err != nil {
		return nil, err
	}

	if p.Extensions != "" {
		inst.ExtensionsDir = ExpandPath(p.Extensions)
	} else if inst.ExtensionsDir, err = e.DefaultExtensionsDir(); err != nil {
		return nil, err
	}

	if p.Install != "" {
		inst.InstallDir = ExpandPath(p.Install)
	} else {
		for _, dir := range e.InstallDirs() {
			if info, err := os.Stat(dir); err == nil && info.IsDir() {
				inst.InstallDir = dir
				break
			}
		}
	}

	return inst, nil
}

// InstalledExtensions returns the installed extensions among ids, matched
// case-insensitively against "<id>-<version>" directory names. The newest
// directory wins when several versions are present.
func (i *Installation) InstalledExtensions(ids ...string) ([]Extension, error) {
	names, err := doublestar.Glob(os.DirFS(i.ExtensionsDir), "*")
	if err != nil {
		return nil, fmt.Errorf("list extensions: %w", err)
	}
	if len(names) == 0 {
		return nil, nil
	}

	var found []Extension
	for _, id := range ids {
		pattern := strings.ToLower(id) + "-[0-9]*"
		var best *Extension
		for _, name := range names {
			ok, err := doublestar.Match(pattern, strings.ToLower(name))
			if err != nil {
				return nil, fmt.Errorf("match %s: %w", id, err)
			}
			if !ok {
				continue
			}
			ext := Extension{ID: id, Version: name[len(id)+1:], Dir: filepath.Join(i.ExtensionsDir, name)}
			if best == nil || compareVersions(ext.Version, best.Version) > 0 {
				best = &ext
			}
		}
		if best != nil {
			found = append(found, *best)
		}
	}
	return found, nil
}

// IsInstalled reports whether extension id is installed.
func (i *Installation) IsInstalled(id string) bool {
	exts, err := i.InstalledExtensions(id)
	return err == nil && len(exts) > 0
}

// InstalledLoaders returns the loaders whose extension is installed.
func (i *Installation) InstalledLoaders() []Loader {
	var out []Loader
	for _, l := range Loaders {
		if i.IsInstalled(l.ExtensionID) {
			out = append(out, l)
		}
	}
	return out
}

// Version returns the editor version from package.json, falling back to
// product.json.
func (i *Installation) Version() (string, error) {
	if i.InstallDir == "" {
		return "", fmt.Errorf("%s: install dir not found", i.Editor.DisplayName)
	}
	for _, name := range []string{"package.json", i.Editor.ProductJSON} {
		data, err := os.ReadFile(filepath.Join(i.InstallDir, name))
		if err != nil {
			continue
		}
		var meta struct {
			Version string `json:"version"`
		}
		if err := json.Unmarshal(data, &meta); err != nil {
			return "", fmt.Errorf("parse %s: %w", name, err)
		}
		if meta.Version != "" {
			return meta.Version, nil
		}
	}
	return "", fmt.Errorf("%s: no version in %s", i.Editor.DisplayName, i.InstallDir)
}

// WorkbenchHTML returns the first workbench HTML file that exists.
func (i *Installation) WorkbenchHTML() (string, error) {
	if i.InstallDir == "" {
		return "", fmt.Errorf("%s: install dir not found: %w", i.Editor.DisplayName, os.ErrNotExist)
	}
	for _, rel := range workbenchCandidates {
		p := filepath.Join(i.InstallDir, filepath.FromSlash(rel))
		if _, err := os.Stat(p); err == nil {
			return p, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("workbench.html under %s: %w", i.InstallDir, os.ErrNotExist)
}

// compareVersions compares dotted numeric versions. Non-numeric parts
// compare as zero.
func compareVersions(a, b string) int {
	pa, pb := strings.Split(a, "."), strings.Split(b, ".")
	for n := 0; n < max(len(pa), len(pb)); n++ {
		va, vb := versionPart(pa, n), versionPart(pb, n)
		if va != vb {
			if va < vb {
				return -1
			}
			return 1
		}
	}
	return 0
}

func versionPart(parts []string, n int) int {
	if n >= len(parts) {
		return 0
	}
	v := 0
	for _, r := range parts[n] {
		if r < '0' || r > '9' {
			break
		}
		v = v*10 + int(r-'0')
	}
	return v
}
