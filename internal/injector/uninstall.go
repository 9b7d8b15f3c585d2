package injector

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/aymanbagabas/go-udiff"

	"github.com/woodfish/woodfish/internal/core"
	"github.com/woodfish/woodfish/internal/htmlclean"
	"github.com/woodfish/woodfish/internal/settings"
	"github.com/woodfish/woodfish/internal/store"
	"github.com/woodfish/woodfish/internal/theme"
)

// CursorSettings are the editor settings the rainbow cursor used to override.
var CursorSettings = []string{
	"editor.cursorStyle",
	"editor.cursorWidth",
	"editor.cursorBlinking",
	"editor.cursorSmoothCaretAnimation",
	"editor.cursorSurroundingLines",
}

// ColorCustomizationsKey holds per-user colour overrides.
const ColorCustomizationsKey = "workbench.colorCustomizations"

// themeDefaults are the editor's stock colour, icon and product icon themes.
var themeDefaults = []struct{ key, value string }{
	{"workbench.colorTheme", "Default Dark+"},
	{"workbench.iconTheme", "vs-seti"},
	{"workbench.productIconTheme", "Default"},
}

// UninstallOptions selects the optional uninstall steps.
type UninstallOptions struct {
	ClearImports        bool // Empty every configured key instead of sweeping
	CleanHTML           bool // Strip legacy injections from workbench.html
	ResetCursorSettings bool
	ResetColorTheme     bool
	RegisterCursorReset bool // Register cursor-reset.css afterwards
}

// Uninstall removes every trace of woodfish, present or historical.
//
// Steps run in order: the import-list sweep, the workbench HTML cleanup,
// cursor settings, colour themes, the cursor-reset registration and finally
// the state reset. A step that cannot run (no install dir, no permission on
// workbench.html) is reported as a warning and the remaining steps still run.
func (in *Injector) Uninstall(ctx context.Context, opts UninstallOptions) (*Report, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	r := in.newReport(store.OpUninstall)

	if err := in.sweep(ctx, r, opts.ClearImports); err != nil {
		return r, err
	}

	if opts.CleanHTML {
		if err := in.cleanHTML(r, true); err != nil {
			return r, err
		}
	}

	if opts.ResetCursorSettings {
		if err := in.resetCursorSettings(ctx, r); err != nil {
			return r, err
		}
	}

	if opts.ResetColorTheme {
		err := in.editSettings(ctx, r, in.settings.Global(), func(tx *settings.Tx) error {
			for _, d := range themeDefaults {
				tx.SetString(d.key, d.value)
			}
			return nil
		})
		if err != nil {
			return r, err
		}
	}

	if opts.RegisterCursorReset {
		key, err := in.primaryKey(r)
		if err != nil {
			return r, err
		}
		entries, err := in.entries(r, theme.AssetCursorReset)
		if err != nil {
			return r, err
		}
		if err := in.editList(ctx, r, key, ensure(entries...)); err != nil {
			return r, err
		}
	}

	in.updateState(func(s *store.State) { s.Reset() })
	return r, nil
}

// sweepMatchers returns the exact URIs and case-insensitive markers that
// identify any woodfish entry, current or legacy.
func (in *Injector) sweepMatchers() ([]string, []string) {
	exact := theme.LegacyURIs(in.assetsDir)
	for _, a := range theme.Catalog {
		exact = append(exact, theme.Entry(in.assetsDir, a).URI)
	}

	markers := append([]string(nil), theme.LegacyMarkers...)
	if abs, err := filepath.Abs(in.assetsDir); err == nil {
		markers = append(markers, strings.TrimSuffix(core.PathToURI(abs), "/")+"/")
	}
	return exact, markers
}

func (in *Injector) sweep(ctx context.Context, r *Report, clear bool) error {
	exact, markers := in.sweepMatchers()

	keys, err := in.populatedKeys()
	if err != nil {
		return err
	}
	for _, key := range keys {
		edit := func(list core.List) (core.List, []string, int) {
			if clear {
				return core.List{}, nil, len(list)
			}
			next, removed := core.RemoveManaged(list, exact, markers)
			return next, nil, removed
		}
		if err := in.editList(ctx, r, key, edit); err != nil {
			return err
		}
	}
	return nil
}

// cleanHTML cleans workbench.html. When lenient, a missing file or a
// permission error becomes a warning.
func (in *Injector) cleanHTML(r *Report, lenient bool) error {
	if in.inst == nil {
		if !lenient {
			return errors.New("editor not resolved")
		}
		in.warn(r, "editor not resolved, skipping workbench cleanup")
		return nil
	}
	path, err := in.inst.WorkbenchHTML()
	if err != nil {
		if lenient && errors.Is(err, os.ErrNotExist) {
			in.warn(r, "workbench.html not found, skipping cleanup", "error", err)
			return nil
		}
		return err
	}

	res, err := htmlclean.CleanFile(path, htmlclean.DefaultRules(), in.dryRun)
	if err != nil {
		if lenient && errors.Is(err, os.ErrPermission) {
			in.warn(r, "no permission to clean workbench.html, rerun with elevated rights", "path", path)
			return nil
		}
		return err
	}

	r.HTML = htmlChange(res, in.dryRun)
	if res.Changed {
		rec := store.NewRecord(store.OpCleanHTML, "")
		rec.Removed = res.Report.Total
		rec.Detail = path
		rec.DryRun = in.dryRun
		in.record(rec)
		in.logger.Info("cleaned workbench html", "path", path, "removed", res.Report.Total, "backup", res.Backup)
	}
	return nil
}

func htmlChange(res htmlclean.FileResult, dryRun bool) *HTMLChange {
	hc := &HTMLChange{
		Path:    res.Path,
		Backup:  res.Backup,
		Removed: res.Report.Total,
		Written: res.Written,
	}
	if len(res.Report.Hits) > 0 {
		hc.Rules = make(map[string]int, len(res.Report.Hits))
		for _, h := range res.Report.Hits {
			hc.Rules[h.Rule] = h.Count
		}
	}
	if dryRun && res.Changed {
		hc.Diff = udiff.Unified(res.Path, res.Path, res.Before, res.After)
	}
	return hc
}

// resetCursorSettings restores the editor's own cursor. Cursor settings and
// any colour override whose name mentions the cursor are dropped from the
// user settings, the workspace colour overrides are dropped entirely, and
// every woodfish flag is turned off.
func (in *Injector) resetCursorSettings(ctx context.Context, r *Report) error {
	err := in.editSettings(ctx, r, in.settings.Global(), func(tx *settings.Tx) error {
		for _, key := range CursorSettings {
			tx.Unset(key)
		}

		if _, ok := tx.Value(ColorCustomizationsKey); ok {
			om, err := tx.Object(ColorCustomizationsKey)
			if err != nil {
				return err
			}
			var drop []string
			for pair := om.Oldest(); pair != nil; pair = pair.Next() {
				if strings.Contains(strings.ToLower(pair.Key), "cursor") {
					drop = append(drop, pair.Key)
				}
			}
			if len(drop) > 0 {
				for _, k := range drop {
					om.Delete(k)
				}
				tx.SetObject(ColorCustomizationsKey, om)
			}
		}

		for _, e := range AllEffects {
			tx.SetBool(e.SettingKey(), false)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if ws := in.settings.Workspace(); ws != nil {
		return in.editSettings(ctx, r, ws, func(tx *settings.Tx) error {
			tx.Unset(ColorCustomizationsKey)
			return nil
		})
	}
	return nil
}

// CleanHTML strips legacy injections from workbench.html without touching
// the settings.
func (in *Injector) CleanHTML(ctx context.Context) (*Report, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	r := in.newReport(store.OpCleanHTML)
	if err := ctx.Err(); err != nil {
		return r, err
	}
	return r, in.cleanHTML(r, false)
}
