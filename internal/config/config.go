// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultEditor   = "vscode"
	DefaultTheme    = "woodfish"
	DefaultDebounce = Duration(500 * time.Millisecond)
	DefaultLogLevel = "warn"
)

// Config represents the woodfish configuration.
type Config struct {
	Editor    EditorConfig    `toml:"editor"`
	Loader    LoaderConfig    `toml:"loader"`
	Assets    AssetsConfig    `toml:"assets"`
	Effects   EffectsConfig   `toml:"effects"`
	Uninstall UninstallConfig `toml:"uninstall"`
	Watch     WatchConfig     `toml:"watch"`
	Log       LogConfig       `toml:"log"`
}

// EditorConfig selects the editor and overrides its paths.
type EditorConfig struct {
	Name          string `toml:"name"`           // vscode, vscodium, cursor, windsurf
	SettingsPath  string `toml:"settings_path"`  // Empty = editor default
	ExtensionsDir string `toml:"extensions_dir"` // Empty = editor default
	InstallDir    string `toml:"install_dir"`    // Empty = auto-detect
	Workspace     string `toml:"workspace"`      // Folder whose .vscode/settings.json is the workspace scope
}

// LoaderConfig lists the import-list keys to reconcile.
type LoaderConfig struct {
	Keys             []string `toml:"keys"`              // In preference order
	RequireInstalled bool     `toml:"require_installed"` // Only write keys whose loader extension is installed
}

// AssetsConfig controls where stylesheets are materialised.
type AssetsConfig struct {
	Dir   string `toml:"dir"`   // Empty = <data dir>/assets
	Theme string `toml:"theme"` // woodfish or modular
}

// EffectsConfig holds effect defaults used when settings.json has no value.
type EffectsConfig struct {
	Glow          bool `toml:"glow"`
	Glass         bool `toml:"glass"`
	RainbowCursor bool `toml:"rainbow_cursor"`
}

// UninstallConfig selects what the uninstall flow cleans up.
type UninstallConfig struct {
	CleanHTML           bool `toml:"clean_html"`
	ResetCursorSettings bool `toml:"reset_cursor_settings"`
	ClearImports        bool `toml:"clear_imports"`
	ResetColorTheme     bool `toml:"reset_color_theme"`
	RegisterCursorReset bool `toml:"register_cursor_reset"`
}

// WatchConfig holds settings watcher options.
type WatchConfig struct {
	Debounce Duration `toml:"debounce"`
}

// LogConfig holds logging options.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Editor: EditorConfig{
			Name: DefaultEditor,
		},
		Loader: LoaderConfig{
			Keys:             []string{"vscode_custom_css.imports", "custom_css_hot_reload.imports"},
			RequireInstalled: false,
		},
		Assets: AssetsConfig{
			Dir:   "", // <data dir>/assets
			Theme: DefaultTheme,
		},
		Effects: EffectsConfig{
			Glow:          true,
			Glass:         true,
			RainbowCursor: false,
		},
		Uninstall: UninstallConfig{
			CleanHTML:           true,
			ResetCursorSettings: true,
			ClearImports:        false,
			ResetColorTheme:     false,
			RegisterCursorReset: false,
		},
		Watch: WatchConfig{
			Debounce: DefaultDebounce,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "woodfish", "config.toml")
}

// DataPath returns the path to the data directory.
// Uses XDG_DATA_HOME if set, otherwise ~/.local/share.
func DataPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "woodfish")
}

// AssetsDir returns the configured asset directory, or <data dir>/assets.
func (c *Config) AssetsDir() string {
	if c.Assets.Dir != "" {
		return expandPath(c.Assets.Dir)
	}
	return filepath.Join(DataPath(), "assets")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if len(c.Loader.Keys) == 0 {
		return errors.New("loader.keys must not be empty")
	}
	for _, k := range c.Loader.Keys {
		if strings.TrimSpace(k) == "" {
			return errors.New("loader.keys contains an empty key")
		}
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce.Duration())
	}
	themes := []string{"woodfish", "modular"}
	if !slices.Contains(themes, strings.ToLower(c.Assets.Theme)) {
		return fmt.Errorf("invalid assets.theme %q, must be one of: %v", c.Assets.Theme, themes)
	}
	return nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q", s)
	}
}

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "500ms", "2s", "1m", or integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '500ms', '2s', '1m' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
