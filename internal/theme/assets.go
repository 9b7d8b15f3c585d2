package theme

import (
	"fmt"
	"path"
	"strings"
)

// Asset is a stylesheet the tool can register with a CSS loader.
type Asset struct {
	Name        string   // Catalog name used on the command line
	Path        string   // Path relative to the asset root
	Markers     []string // Filename fragments identifying any copy of the asset
	Description string
}

// Asset names.
const (
	AssetTheme       = "theme"
	AssetModular     = "modular"
	AssetGlow        = "glow"
	AssetGlass       = "glass"
	AssetCursor      = "cursor"
	AssetCursorReset = "cursor-reset"
)

// Catalog lists every registrable asset.
var Catalog = []Asset{
	{
		Name:        AssetTheme,
		Path:        "themes/woodfish-theme.css",
		Markers:     []string{"woodfish-theme.css"},
		Description: "Woodfish workbench theme",
	},
	{
		Name:        AssetModular,
		Path:        "themes/woodfish-theme-modular.css",
		Markers:     []string{"woodfish-theme-modular.css"},
		Description: "Woodfish theme built from modules",
	},
	{
		Name:        AssetGlow,
		Path:        "themes/modules/glow-effects.css",
		Markers:     []string{"glow-effects.css"},
		Description: "Text and status bar glow",
	},
	{
		Name:        AssetGlass,
		Path:        "themes/modules/transparent-ui.css",
		Markers:     []string{"transparent-ui.css"},
		Description: "Translucent side panels",
	},
	{
		Name:        AssetCursor,
		Path:        "custom-css/rainbow-cursor.css",
		Markers:     []string{"rainbow-cursor.css"},
		Description: "Animated rainbow cursor",
	},
	{
		Name:        AssetCursorReset,
		Path:        "custom-css/cursor-reset.css",
		Markers:     []string{"cursor-reset.css"},
		Description: "Restores the default cursor",
	},
}

// Lookup returns the catalog entry called name.
func Lookup(name string) (Asset, error) {
	for _, a := range Catalog {
		if a.Name == name {
			return a, nil
		}
	}
	return Asset{}, fmt.Errorf("unknown asset %q", name)
}

// MainAsset returns the main theme asset for a theme variant
// ("woodfish" or "modular").
func MainAsset(variant string) (Asset, error) {
	switch strings.ToLower(variant) {
	case "", "woodfish", AssetTheme:
		return Lookup(AssetTheme)
	case AssetModular:
		return Lookup(AssetModular)
	default:
		return Asset{}, fmt.Errorf("unknown theme variant %q", variant)
	}
}

// FileName returns the base name of the asset file.
func (a Asset) FileName() string {
	return path.Base(a.Path)
}
