package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/woodfish/woodfish/internal/injector"
	"github.com/woodfish/woodfish/internal/tui"
)

var uninstallOpts struct {
	yes                 bool
	clearImports        bool
	cleanHTML           bool
	resetCursor         bool
	resetColorTheme     bool
	registerCursorReset bool
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove every trace of the theme",
	Long: `Remove every stylesheet woodfish or an older release of the theme ever
registered, from every configured import list, and reset the tool's state.

Optional steps, defaulting to the [uninstall] section of the config file:
  --clean-html          strip legacy injections from workbench.html
  --reset-cursor        unset cursor settings the rainbow cursor overrode
  --clear-imports       empty the import lists instead of sweeping them
  --reset-color-theme   restore the stock colour, icon and product icon themes
  --cursor-reset        register a stylesheet that restores the default cursor

A confirmation prompt is shown unless --yes or --dry-run is given.`,
	Args: cobra.NoArgs,
	RunE: runUninstall,
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
	bindUninstallFlags(uninstallCmd.Flags())
}

func bindUninstallFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&uninstallOpts.yes, "yes", "y", false,
		"Do not ask for confirmation")
	fs.BoolVar(&uninstallOpts.cleanHTML, "clean-html", false,
		"Strip legacy injections from workbench.html")
	fs.BoolVar(&uninstallOpts.resetCursor, "reset-cursor", false,
		"Reset cursor settings and colour customisations")
	fs.BoolVar(&uninstallOpts.clearImports, "clear-imports", false,
		"Empty the import lists, including entries of other tools")
	fs.BoolVar(&uninstallOpts.resetColorTheme, "reset-color-theme", false,
		"Restore the stock colour and icon themes")
	fs.BoolVar(&uninstallOpts.registerCursorReset, "cursor-reset", false,
		"Register cursor-reset.css after cleaning")
}

// uninstallOptions merges the config defaults with explicitly set flags.
func uninstallOptions(cmd *cobra.Command) injector.UninstallOptions {
	opts := injector.UninstallOptions{
		ClearImports:        cfg.Uninstall.ClearImports,
		CleanHTML:           cfg.Uninstall.CleanHTML,
		ResetCursorSettings: cfg.Uninstall.ResetCursorSettings,
		ResetColorTheme:     cfg.Uninstall.ResetColorTheme,
		RegisterCursorReset: cfg.Uninstall.RegisterCursorReset,
	}

	flags := cmd.Flags()
	if flags.Changed("clear-imports") {
		opts.ClearImports = uninstallOpts.clearImports
	}
	if flags.Changed("clean-html") {
		opts.CleanHTML = uninstallOpts.cleanHTML
	}
	if flags.Changed("reset-cursor") {
		opts.ResetCursorSettings = uninstallOpts.resetCursor
	}
	if flags.Changed("reset-color-theme") {
		opts.ResetColorTheme = uninstallOpts.resetColorTheme
	}
	if flags.Changed("cursor-reset") {
		opts.RegisterCursorReset = uninstallOpts.registerCursorReset
	}
	return opts
}

// uninstallSteps describes opts for the confirmation prompt.
func uninstallSteps(opts injector.UninstallOptions, in *injector.Injector) []string {
	steps := []string{fmt.Sprintf("remove woodfish stylesheets from %s", in.SettingsPath())}
	if opts.ClearImports {
		steps[0] = fmt.Sprintf("empty every import list in %s, including other tools' entries", in.SettingsPath())
	}
	if opts.CleanHTML {
		steps = append(steps, "strip legacy injections from workbench.html (a backup is kept)")
	}
	if opts.ResetCursorSettings {
		steps = append(steps, "reset cursor settings and cursor colour customisations")
	}
	if opts.ResetColorTheme {
		steps = append(steps, "restore the stock colour, icon and product icon themes")
	}
	if opts.RegisterCursorReset {
		steps = append(steps, "register cursor-reset.css")
	}
	return append(steps, "forget the saved woodfish state")
}

func runUninstall(cmd *cobra.Command, args []string) error {
	in, err := openInjector()
	if err != nil {
		return err
	}

	opts := uninstallOptions(cmd)

	if !uninstallOpts.yes && !in.DryRun() {
		if !isInteractive() {
			return errors.New("refusing to uninstall without a terminal; pass --yes")
		}
		ok, err := tui.Confirm(os.Stdin, os.Stderr, "Uninstall the Woodfish theme?", uninstallSteps(opts, in))
		if err != nil {
			return fmt.Errorf("confirmation prompt: %w", err)
		}
		if !ok {
			fmt.Fprintln(os.Stderr, "aborted")
			return nil
		}
	}

	r, err := in.Uninstall(cmd.Context(), opts)
	return reportResult(r, err)
}

// isInteractive reports whether stdin is a terminal.
func isInteractive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
