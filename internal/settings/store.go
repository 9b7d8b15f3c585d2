package settings

import (
	"fmt"
	"path/filepath"

	"github.com/woodfish/woodfish/internal/core"
)

// Store groups the settings files of one editor by scope.
type Store struct {
	global    *File
	workspace *File
}

// NewStore creates a Store. workspace may be nil.
func NewStore(global, workspace *File) *Store {
	return &Store{global: global, workspace: workspace}
}

// WorkspaceSettingsPath returns <dir>/.vscode/settings.json.
func WorkspaceSettingsPath(dir string) string {
	return filepath.Join(dir, ".vscode", "settings.json")
}

// File returns the settings file for scope.
func (s *Store) File(scope Scope) (*File, error) {
	switch scope {
	case ScopeGlobal:
		return s.global, nil
	case ScopeWorkspace:
		if s.workspace == nil {
			return nil, fmt.Errorf("no workspace configured")
		}
		return s.workspace, nil
	default:
		return nil, fmt.Errorf("unknown scope %v", scope)
	}
}

// Global returns the user settings file.
func (s *Store) Global() *File {
	return s.global
}

// Workspace returns the workspace settings file, or nil.
func (s *Store) Workspace() *File {
	return s.workspace
}

// ListEdit computes the next value of an import list. It returns false to
// leave the list as it is.
type ListEdit func(list core.List) (core.List, bool)

// UpdateList reads key in scope, passes it to edit and writes the result,
// all inside one transaction. edit may run more than once when another
// writer touches the file, so it must not depend on earlier calls.
func (s *Store) UpdateList(key string, scope Scope, edit ListEdit) (Result, error) {
	f, err := s.File(scope)
	if err != nil {
		return Result{}, err
	}
	return f.Update(func(tx *Tx) error {
		list, err := tx.List(key)
		if err != nil {
			return err
		}
		if next, ok := edit(list); ok {
			tx.SetList(key, next)
		}
		return nil
	})
}
