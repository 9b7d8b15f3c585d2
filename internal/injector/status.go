package injector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/woodfish/woodfish/internal/core"
	"github.com/woodfish/woodfish/internal/editor"
	"github.com/woodfish/woodfish/internal/htmlclean"
	"github.com/woodfish/woodfish/internal/store"
	"github.com/woodfish/woodfish/internal/theme"
)

// EntryStatus describes one element of an import list.
type EntryStatus struct {
	Value     string `json:"value" yaml:"value"`
	Managed   bool   `json:"managed" yaml:"managed"`                         // Written by woodfish, now or historically
	Missing   bool   `json:"missing,omitempty" yaml:"missing,omitempty"`     // File URI whose file is gone
	Duplicate bool   `json:"duplicate,omitempty" yaml:"duplicate,omitempty"` // Repeats an earlier element
	Invalid   bool   `json:"invalid,omitempty" yaml:"invalid,omitempty"`     // Not a non-empty string
}

// KeyStatus describes one import-list key.
type KeyStatus struct {
	Key             string        `json:"key" yaml:"key"`
	Loader          string        `json:"loader,omitempty" yaml:"loader,omitempty"`
	LoaderInstalled bool          `json:"loader_installed" yaml:"loader_installed"`
	Primary         bool          `json:"primary" yaml:"primary"`
	Present         bool          `json:"present" yaml:"present"`
	Entries         []EntryStatus `json:"entries,omitempty" yaml:"entries,omitempty"`
}

// Removable returns how many entries Validate would drop.
func (k KeyStatus) Removable() int {
	n := 0
	for _, e := range k.Entries {
		if e.Missing || e.Duplicate || e.Invalid {
			n++
		}
	}
	return n
}

// EffectStatus describes one effect.
type EffectStatus struct {
	Effect     Effect `json:"effect" yaml:"effect"`
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	Registered bool   `json:"registered" yaml:"registered"` // Its stylesheet is in an import list
}

// Status is a read-only snapshot of the installation.
type Status struct {
	Editor        string         `json:"editor" yaml:"editor"`
	SettingsPath  string         `json:"settings_path" yaml:"settings_path"`
	AssetsDir     string         `json:"assets_dir" yaml:"assets_dir"`
	Theme         string         `json:"theme" yaml:"theme"`
	Active        bool           `json:"active" yaml:"active"` // The main theme is registered
	EditorVersion string         `json:"editor_version,omitempty" yaml:"editor_version,omitempty"`
	AppliedTo     string         `json:"applied_to,omitempty" yaml:"applied_to,omitempty"` // Editor version recorded at enable
	VersionDrift  bool           `json:"version_drift" yaml:"version_drift"`
	EnabledAt     time.Time      `json:"enabled_at,omitzero" yaml:"enabled_at,omitempty"`
	LastValidated time.Time      `json:"last_validated,omitzero" yaml:"last_validated,omitempty"`
	Effects       []EffectStatus `json:"effects" yaml:"effects"`
	Keys          []KeyStatus    `json:"keys" yaml:"keys"`
}

// Status inspects the settings, the editor and the state file without
// changing anything.
func (in *Injector) Status(ctx context.Context) (*Status, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap, err := in.settings.Global().Load()
	if err != nil {
		return nil, err
	}

	st := &Status{
		SettingsPath: in.SettingsPath(),
		AssetsDir:    in.assetsDir,
		Theme:        in.main.Name,
	}
	if in.inst != nil {
		st.Editor = in.inst.Editor.DisplayName
	}

	state := in.State()
	st.EditorVersion = in.editorVersion()
	st.AppliedTo = state.EditorVersion
	st.VersionDrift = state.VersionChanged(st.EditorVersion)
	if state.EnabledAt > 0 {
		st.EnabledAt = time.Unix(state.EnabledAt, 0)
	}
	if state.LastValidatedAt > 0 {
		st.LastValidated = time.Unix(state.LastValidatedAt, 0)
	}

	exact, markers := in.sweepMatchers()
	primary := ""
	for _, key := range in.keys {
		if in.loaderInstalled(key) {
			primary = key
			break
		}
	}

	var all []string
	for _, key := range in.keys {
		ks := KeyStatus{
			Key:             key,
			LoaderInstalled: in.loaderInstalled(key),
			Primary:         key == primary,
			Present:         snap.Has(key),
		}
		if l, ok := editor.LoaderForKey(key); ok {
			ks.Loader = l.ExtensionID
		}

		list, err := snap.List(key)
		if err != nil {
			return nil, err
		}
		ks.Entries = in.inspect(list, exact, markers)
		all = append(all, list.Strings()...)
		st.Keys = append(st.Keys, ks)
	}

	mainEntry := theme.Entry(in.assetsDir, in.main)
	st.Active = anyMatches(all, mainEntry)
	for _, e := range AllEffects {
		st.Effects = append(st.Effects, EffectStatus{
			Effect:     e,
			Enabled:    snap.Bool(e.SettingKey(), in.defaults[e]),
			Registered: anyMatches(all, in.entry(e.AssetName())),
		})
	}
	return st, nil
}

func (in *Injector) inspect(list core.List, exact, markers []string) []EntryStatus {
	out := make([]EntryStatus, 0, len(list))
	seen := make(map[string]bool, len(list))
	for _, v := range list {
		s, ok := v.(string)
		if !ok || s == "" {
			out = append(out, EntryStatus{Value: fmt.Sprint(v), Invalid: true})
			continue
		}
		es := EntryStatus{
			Value:     s,
			Managed:   core.IsManaged(s, exact, markers),
			Duplicate: seen[s],
		}
		es.Missing = !core.EntryExists(s, in.exists)
		seen[s] = true
		out = append(out, es)
	}
	return out
}

func anyMatches(values []string, e core.ManagedEntry) bool {
	for _, v := range values {
		if e.Matches(v) {
			return true
		}
	}
	return false
}

// Level grades a doctor finding.
type Level string

// Finding levels.
const (
	LevelOK    Level = "ok"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Finding is the result of one doctor check.
type Finding struct {
	Check   string `json:"check" yaml:"check"`
	Level   Level  `json:"level" yaml:"level"`
	Message string `json:"message" yaml:"message"`
	Hint    string `json:"hint,omitempty" yaml:"hint,omitempty"`
}

// Doctor runs the health checks the extension used to run on activation.
func (in *Injector) Doctor(ctx context.Context) ([]Finding, error) {
	st, err := in.Status(ctx)
	if err != nil {
		return []Finding{{
			Check:   "settings",
			Level:   LevelError,
			Message: err.Error(),
			Hint:    "fix the syntax error in " + in.SettingsPath(),
		}}, nil
	}

	findings := []Finding{{Check: "settings", Level: LevelOK, Message: "parsed " + st.SettingsPath}}
	findings = append(findings, in.checkEditor())
	findings = append(findings, in.checkLoader(st))
	findings = append(findings, in.checkDependency())
	if f, ok := in.checkInjectors(); ok {
		findings = append(findings, f)
	}
	findings = append(findings, checkVersion(st), checkImports(st))
	if f, ok := in.checkAssets(st); ok {
		findings = append(findings, f)
	}
	if f, ok := in.checkWorkbench(); ok {
		findings = append(findings, f)
	}
	return findings, nil
}

// Healthy reports whether no finding is an error.
func Healthy(findings []Finding) bool {
	for _, f := range findings {
		if f.Level == LevelError {
			return false
		}
	}
	return true
}

func (in *Injector) checkEditor() Finding {
	if in.inst == nil {
		return Finding{Check: "editor", Level: LevelError, Message: "editor not resolved"}
	}
	if in.inst.InstallDir == "" {
		return Finding{
			Check:   "editor",
			Level:   LevelWarn,
			Message: in.inst.Editor.DisplayName + " install dir not found",
			Hint:    "set editor.install_dir in the config file",
		}
	}
	return Finding{Check: "editor", Level: LevelOK, Message: in.inst.Editor.DisplayName + " at " + in.inst.InstallDir}
}

func (in *Injector) checkLoader(st *Status) Finding {
	var installed []string
	for _, k := range st.Keys {
		if k.LoaderInstalled && k.Loader != "" {
			installed = append(installed, k.Loader)
		}
	}
	if len(installed) > 0 {
		return Finding{Check: "loader", Level: LevelOK, Message: strings.Join(installed, ", ")}
	}
	return Finding{
		Check:   "loader",
		Level:   LevelError,
		Message: "no CSS loader extension installed",
		Hint:    "install " + loaderIDs(in.keys) + " and run its enable command",
	}
}

func (in *Injector) checkDependency() Finding {
	id := editor.DependencyExtension
	switch {
	case in.inst != nil && in.inst.IsInstalled(id):
		return Finding{Check: "dependency", Level: LevelOK, Message: id + " installed"}
	case in.State().IsDeclined(id):
		return Finding{Check: "dependency", Level: LevelOK, Message: id + " declined"}
	default:
		return Finding{
			Check:   "dependency",
			Level:   LevelWarn,
			Message: id + " not installed, cursor and tab animations are unavailable",
			Hint:    "install it, or run 'woodfish doctor --decline " + id + "'",
		}
	}
}

func (in *Injector) checkInjectors() (Finding, bool) {
	if in.inst == nil {
		return Finding{}, false
	}
	exts, err := in.inst.InstalledExtensions(editor.CSSInjectors...)
	if err != nil || len(exts) < 2 {
		return Finding{}, false
	}
	ids := make([]string, 0, len(exts))
	for _, e := range exts {
		ids = append(ids, e.ID)
	}
	return Finding{
		Check:   "injectors",
		Level:   LevelWarn,
		Message: "several CSS injectors installed: " + strings.Join(ids, ", "),
		Hint:    "keep one loader to avoid duplicated styles",
	}, true
}

func checkVersion(st *Status) Finding {
	if st.VersionDrift {
		return Finding{
			Check:   "version",
			Level:   LevelWarn,
			Message: fmt.Sprintf("editor updated from %s to %s", st.AppliedTo, st.EditorVersion),
			Hint:    "re-run the loader's enable command, then 'woodfish enable'",
		}
	}
	msg := "no drift"
	if st.EditorVersion != "" {
		msg = st.EditorVersion
	}
	return Finding{Check: "version", Level: LevelOK, Message: msg}
}

func checkImports(st *Status) Finding {
	n := 0
	for _, k := range st.Keys {
		n += k.Removable()
	}
	if n > 0 {
		return Finding{
			Check:   "imports",
			Level:   LevelWarn,
			Message: fmt.Sprintf("%d empty, duplicate or dangling entries", n),
			Hint:    "run 'woodfish clean'",
		}
	}
	return Finding{Check: "imports", Level: LevelOK, Message: "import lists are clean"}
}

func (in *Injector) checkAssets(st *Status) (Finding, bool) {
	if !st.Active {
		return Finding{}, false
	}
	path, _ := core.URIToPath(theme.Entry(in.assetsDir, in.main).URI)
	if in.exists(path) {
		return Finding{Check: "assets", Level: LevelOK, Message: path}, true
	}
	return Finding{
		Check:   "assets",
		Level:   LevelError,
		Message: "registered theme file is missing: " + path,
		Hint:    "run 'woodfish enable'",
	}, true
}

func (in *Injector) checkWorkbench() (Finding, bool) {
	if in.inst == nil {
		return Finding{}, false
	}
	path, err := in.inst.WorkbenchHTML()
	if errors.Is(err, os.ErrNotExist) {
		return Finding{}, false
	}
	if err != nil {
		return Finding{Check: "workbench", Level: LevelWarn, Message: err.Error()}, true
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Finding{Check: "workbench", Level: LevelWarn, Message: err.Error()}, true
	}
	_, report := htmlclean.Clean(string(data), htmlclean.DefaultRules())
	if report.Total > 0 {
		return Finding{
			Check:   "workbench",
			Level:   LevelWarn,
			Message: fmt.Sprintf("%d legacy injections in %s", report.Total, path),
			Hint:    "run 'woodfish clean --html'",
		}, true
	}
	return Finding{Check: "workbench", Level: LevelOK, Message: "no legacy injections"}, true
}

// Decline remembers that the user does not want extension id suggested.
func (in *Injector) Decline(id string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.updateState(func(s *store.State) { s.Decline(id) })
}
