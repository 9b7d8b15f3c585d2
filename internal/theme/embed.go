package theme

import (
	"embed"
	"errors"
	"io/fs"
	"os"
	"path"
	"strings"
)

// EmbeddedAssets contains all bundled stylesheets.
//
//go:embed assets
var EmbeddedAssets embed.FS

// embeddedRoot is EmbeddedAssets rooted at the assets directory.
var embeddedRoot = mustSub(EmbeddedAssets, "assets")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// GetEmbedded retrieves a bundled stylesheet by relative path.
// Imports are not processed here; use Library.Read for that.
func GetEmbedded(rel string) (string, bool) {
	data, err := fs.ReadFile(embeddedRoot, rel)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// ListEmbedded returns the relative paths of all bundled stylesheets.
func ListEmbedded() []string {
	var files []string
	_ = fs.WalkDir(embeddedRoot, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if path.Ext(p) == ".css" {
			files = append(files, p)
		}
		return nil
	})
	return files
}

// overlayFS serves files from upper when present, otherwise from lower.
type overlayFS struct {
	upper fs.FS // may be nil
	lower fs.FS
}

func (o overlayFS) Open(name string) (fs.File, error) {
	if o.upper != nil {
		f, err := o.upper.Open(name)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return o.lower.Open(name)
}

// overridden reports whether rel exists in the upper layer.
func (o overlayFS) overridden(rel string) bool {
	if o.upper == nil {
		return false
	}
	_, err := fs.Stat(o.upper, rel)
	return err == nil
}

// dirFS returns os.DirFS(dir), or nil when dir is empty or missing.
func dirFS(dir string) fs.FS {
	if strings.TrimSpace(dir) == "" {
		return nil
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil
	}
	return os.DirFS(dir)
}
