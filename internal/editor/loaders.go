package editor

import "strings"

// Loader is a third-party extension that injects the stylesheets listed in a
// settings key.
type Loader struct {
	ExtensionID string
	Key         string
	Name        string
}

// Loaders lists the supported custom CSS loaders in preference order.
var Loaders = []Loader{
	{ExtensionID: "be5invis.vscode-custom-css", Key: "vscode_custom_css.imports", Name: "Custom CSS and JS Loader"},
	{ExtensionID: "bartag.custom-css-hot-reload", Key: "custom_css_hot_reload.imports", Name: "Custom CSS Hot Reload"},
}

// DependencyExtension provides the animations the theme builds on.
const DependencyExtension = "BrandonKirbyson.vscode-animations"

// CSSInjectors are extensions known to inject CSS into the workbench. More
// than one active injector usually means duplicated styles.
var CSSInjectors = []string{
	"be5invis.vscode-custom-css",
	"apc-extension.vscode-apc",
	"robbowen.vscode-sync-rsync",
	"ms-vscode.vscode-custom-css",
	"bartag.custom-css-hot-reload",
}

// DefaultKeys returns the import-list keys of all known loaders.
func DefaultKeys() []string {
	keys := make([]string, 0, len(Loaders))
	for _, l := range Loaders {
		keys = append(keys, l.Key)
	}
	return keys
}

// LoaderForKey returns the loader reading key.
func LoaderForKey(key string) (Loader, bool) {
	for _, l := range Loaders {
		if strings.EqualFold(l.Key, key) {
			return l, true
		}
	}
	return Loader{}, false
}
