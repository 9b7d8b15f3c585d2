// Package store persists the tool's own state: the shared state file and
// the operation journal.
package store

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/natefinch/atomic"
)

// DataDir returns the path to the woodfish data directory.
// Uses XDG_DATA_HOME or defaults to ~/.local/share/woodfish.
func DataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "woodfish"), nil
}

// StateFilePath returns the path to the state file.
func StateFilePath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "state.json"), nil
}

// JournalPath returns the path to the operation journal.
func JournalPath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "journal.jsonl"), nil
}

// Source identifies what caused a state change.
type Source string

const (
	// SourceUser is a command run by the user.
	SourceUser Source = "user"
	// SourceWatch is the settings watcher.
	SourceWatch Source = "watch"
	// SourceUninstall is the uninstall flow.
	SourceUninstall Source = "uninstall"
)

// EffectTransition records the last effect toggle.
type EffectTransition struct {
	Effect    string `json:"effect"`
	Enabled   bool   `json:"enabled"`
	Source    Source `json:"source"`
	Timestamp int64  `json:"timestamp"`
}

// State is what the tool remembers between runs. It plays the role of the
// extension's global state and lives in ~/.local/share/woodfish/state.json.
type State struct {
	ThemeEnabled  bool   `json:"theme_enabled"`
	EnabledAt     int64  `json:"enabled_at,omitempty"`     // Unix timestamp
	EditorVersion string `json:"editor_version,omitempty"` // Editor version the theme was last applied to

	DeclinedDependencies []string `json:"declined_dependencies,omitempty"`

	LastValidatedAt int64             `json:"last_validated_at,omitempty"`
	LastTransition  *EffectTransition `json:"last_transition,omitempty"`

	SchemaVersion int `json:"schema_version"`
}

// CurrentSchemaVersion is the current version of the state schema.
const CurrentSchemaVersion = 1

// stateFileMutex protects concurrent access to state files.
var stateFileMutex sync.RWMutex

// DefaultState returns a new State with default values.
func DefaultState() *State {
	return &State{SchemaVersion: CurrentSchemaVersion}
}

// LoadState loads the state from path.
// A missing or corrupted file yields the default state.
func LoadState(path string) (*State, error) {
	stateFileMutex.RLock()
	defer stateFileMutex.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultState(), nil
		}
		return nil, err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return DefaultState(), nil
	}
	if state.SchemaVersion == 0 {
		state.SchemaVersion = CurrentSchemaVersion
	}
	return &state, nil
}

// SaveState writes state to path atomically.
func SaveState(path string, state *State) error {
	stateFileMutex.Lock()
	defer stateFileMutex.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	if state.SchemaVersion == 0 {
		state.SchemaVersion = CurrentSchemaVersion
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	return atomic.WriteFile(path, bytes.NewReader(data))
}

// MarkEnabled records that the theme was applied to editor version.
func (s *State) MarkEnabled(version string) {
	if !s.ThemeEnabled {
		s.EnabledAt = time.Now().Unix()
	}
	s.ThemeEnabled = true
	if version != "" {
		s.EditorVersion = version
	}
}

// MarkDisabled records that the theme was removed from the import lists.
func (s *State) MarkDisabled() {
	s.ThemeEnabled = false
	s.EnabledAt = 0
}

// VersionChanged reports whether the theme is enabled and the editor has
// been updated since it was applied. Editor updates replace workbench files
// and may require re-enabling the loader.
func (s *State) VersionChanged(current string) bool {
	return s.ThemeEnabled && current != "" && s.EditorVersion != "" && s.EditorVersion != current
}

// Decline remembers that the user does not want extension id suggested.
func (s *State) Decline(id string) {
	if !s.IsDeclined(id) {
		s.DeclinedDependencies = append(s.DeclinedDependencies, id)
	}
}

// IsDeclined reports whether the user declined extension id.
func (s *State) IsDeclined(id string) bool {
	return slices.ContainsFunc(s.DeclinedDependencies, func(d string) bool {
		return strings.EqualFold(d, id)
	})
}

// MarkValidated records a validate pass.
func (s *State) MarkValidated() {
	s.LastValidatedAt = time.Now().Unix()
}

// RecordEffect records an effect toggle.
func (s *State) RecordEffect(effect string, enabled bool, source Source) {
	s.LastTransition = &EffectTransition{
		Effect:    effect,
		Enabled:   enabled,
		Source:    source,
		Timestamp: time.Now().Unix(),
	}
}

// Reset clears everything but the schema version.
func (s *State) Reset() {
	*s = State{SchemaVersion: CurrentSchemaVersion}
}
