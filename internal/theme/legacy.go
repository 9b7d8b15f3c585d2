package theme

import (
	"path/filepath"

	"github.com/woodfish/woodfish/internal/core"
)

// LegacyFiles are the asset-relative paths of every file any released
// version of the theme registered, including modules that used to be
// registered one by one.
var LegacyFiles = []string{
	"themes/woodfish-theme.css",
	"themes/woodfish-theme-modular.css",
	"themes/modules/glow-effects.css",
	"themes/modules/cursor-animation.css",
	"themes/modules/transparent-ui.css",
	"themes/modules/activity-bar.css",
	"themes/modules/tab-bar.css",
	"themes/modules/syntax-highlighting.css",
	"themes/modules/variables.css",
	"custom-css/rainbow-cursor.css",
	"custom-css/cursor-loader.css",
	"themes/woodfish-theme.html",
	"index.css",
	"woodfish theme.json",
}

// LegacyURIs returns the file URIs LegacyFiles would have below dir.
func LegacyURIs(dir string) []string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	uris := make([]string, 0, len(LegacyFiles))
	for _, rel := range LegacyFiles {
		uris = append(uris, core.PathToURI(filepath.Join(abs, filepath.FromSlash(rel))))
	}
	return uris
}

// LegacyMarkers are fragments that identify an import entry as ours even when
// it points at an unknown file. Matching is case-insensitive.
var LegacyMarkers = []string{
	"woodfish-theme",
	"glow-effects",
	"cursor-animation",
	"rainbow-cursor",
	"woodfish",
	"syntax-highlighting",
	"transparent-ui",
	"activity-bar",
	"tab-bar",
	"variables.css",
	"cursor-loader",
	"bp-animation",
	"cursor-hue",
	"cursor-blink",
	"cursors-layer",
	"cursor-secondary",
	".cursor",
	"monaco-editor .cursor",
	"div.cursor",
}

// GlowOffFiles are removed from the import list when glow is turned off.
// The main theme carries glow rules of its own.
var GlowOffFiles = []string{
	"glow-effects.css",
	"woodfish-theme.css",
	"woodfish-theme-modular.css",
}
