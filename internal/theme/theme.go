package theme

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/woodfish/woodfish/internal/core"
)

// importRegex matches @import "file.css"; or @import 'file.css'; or @import url("file.css");
var importRegex = regexp.MustCompile(`@import\s+(?:url\s*\(\s*)?["']([^"']+)["']\s*\)?;?`)

// ProcessImports resolves and inlines @import statements in CSS.
// Imports are resolved relative to baseDir inside fsys. Remote imports are
// left in place. The seen map prevents circular imports.
func ProcessImports(css string, fsys fs.FS, baseDir string, seen map[string]bool) string {
	if seen == nil {
		seen = make(map[string]bool)
	}

	return importRegex.ReplaceAllStringFunc(css, func(match string) string {
		submatch := importRegex.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}

		importPath := submatch[1]
		if strings.Contains(importPath, "://") {
			return match
		}

		fullPath := path.Clean(path.Join(baseDir, importPath))
		if seen[fullPath] {
			return "/* circular import prevented: " + importPath + " */"
		}
		seen[fullPath] = true

		imported, err := fs.ReadFile(fsys, fullPath)
		if err != nil {
			return "/* import failed: " + importPath + " - " + err.Error() + " */"
		}

		processed := ProcessImports(string(imported), fsys, path.Dir(fullPath), seen)
		return "/* imported: " + importPath + " */\n" + processed
	})
}

// ThemesDir returns the user override directory, ~/.config/woodfish/themes.
func ThemesDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "woodfish", "themes"), nil
}

// Library resolves assets against the user override directory first and the
// embedded copies second.
type Library struct {
	logger      *slog.Logger
	overrideDir string
	fsys        overlayFS
}

// NewLibrary creates a Library. overrideDir may be empty or missing.
func NewLibrary(overrideDir string, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}
	return &Library{
		logger:      logger,
		overrideDir: overrideDir,
		fsys:        overlayFS{upper: dirFS(overrideDir), lower: embeddedRoot},
	}
}

// Read returns the stylesheet at rel with imports inlined.
func (l *Library) Read(rel string) (string, error) {
	data, err := fs.ReadFile(l.fsys, rel)
	if err != nil {
		return "", fmt.Errorf("read asset %s: %w", rel, err)
	}
	return ProcessImports(string(data), l.fsys, path.Dir(rel), map[string]bool{rel: true}), nil
}

// Info describes an available stylesheet.
type Info struct {
	Asset
	Overridden bool   // A user copy replaces the embedded one
	Source     string // Override path, or "embedded"
}

// List returns the catalog with the source each asset resolves to.
func (l *Library) List() []Info {
	infos := make([]Info, 0, len(Catalog))
	for _, a := range Catalog {
		info := Info{Asset: a, Source: "embedded"}
		if l.fsys.overridden(a.Path) {
			info.Overridden = true
			info.Source = filepath.Join(l.overrideDir, filepath.FromSlash(a.Path))
		}
		infos = append(infos, info)
	}
	return infos
}

// Materialized is an asset written to disk.
type Materialized struct {
	Asset
	File    string
	Entry   core.ManagedEntry
	Written bool // False when the file already had this content
}

// Materialize writes the named assets, imports inlined, below dir and returns
// the import-list entry for each. Files whose content is current are left
// alone. The entry markers are the asset's markers plus the directory URI so
// that a moved asset dir still matches.
func (l *Library) Materialize(dir string, names ...string) ([]Materialized, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	out := make([]Materialized, 0, len(names))
	for _, name := range names {
		a, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		css, err := l.Read(a.Path)
		if err != nil {
			return nil, err
		}

		file := filepath.Join(abs, filepath.FromSlash(a.Path))
		written, err := writeIfChanged(file, []byte(css))
		if err != nil {
			return nil, err
		}
		if written {
			l.logger.Debug("materialized asset", "asset", a.Name, "path", file)
		}

		out = append(out, Materialized{
			Asset:   a,
			File:    file,
			Entry:   core.ManagedEntry{URI: core.PathToURI(file), Markers: a.Markers},
			Written: written,
		})
	}
	return out, nil
}

// Entry returns the import-list entry an asset would have under dir without
// touching the filesystem.
func Entry(dir string, a Asset) core.ManagedEntry {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	return core.ManagedEntry{
		URI:     core.PathToURI(filepath.Join(abs, filepath.FromSlash(a.Path))),
		Markers: a.Markers,
	}
}

// Export copies every embedded stylesheet, unprocessed, into dir so the user
// can edit them as overrides. Existing files are kept unless force is set.
func Export(dir string, force bool) ([]string, error) {
	var written []string
	for _, rel := range ListEmbedded() {
		dst := filepath.Join(dir, filepath.FromSlash(rel))
		if !force {
			if _, err := os.Stat(dst); err == nil {
				continue
			}
		}
		css, _ := GetEmbedded(rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return written, err
		}
		if err := atomic.WriteFile(dst, strings.NewReader(css)); err != nil {
			return written, fmt.Errorf("export %s: %w", rel, err)
		}
		written = append(written, dst)
	}
	return written, nil
}

func writeIfChanged(file string, data []byte) (bool, error) {
	current, err := os.ReadFile(file)
	if err == nil && bytes.Equal(current, data) {
		return false, nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return false, fmt.Errorf("create asset dir: %w", err)
	}
	if err := atomic.WriteFile(file, bytes.NewReader(data)); err != nil {
		return false, fmt.Errorf("write %s: %w", file, err)
	}
	return true, nil
}
