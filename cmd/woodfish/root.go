package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/woodfish/woodfish/internal/adapter/output"
	"github.com/woodfish/woodfish/internal/config"
	"github.com/woodfish/woodfish/internal/editor"
	"github.com/woodfish/woodfish/internal/injector"
	"github.com/woodfish/woodfish/internal/settings"
	"github.com/woodfish/woodfish/internal/store"
	"github.com/woodfish/woodfish/internal/theme"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose      bool
		dryRun       bool
		noColor      bool
		configPath   string
		settingsPath string
		editorName   string
		workspace    string
		format       string
	}
	logger   *slog.Logger
	logLevel = new(slog.LevelVar)

	// journal is opened on first use by openInjector
	journal *store.Journal
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "woodfish",
	Short: "Keep the Woodfish theme registered with your editor's CSS loader",
	Long: `woodfish manages the Woodfish workbench theme for VS Code based editors.

It writes the theme stylesheets to disk and keeps their file URIs in the
import lists read by CSS loader extensions (vscode_custom_css.imports and
friends). Every command reconciles the lists idempotently: running it twice
changes nothing the second time, and entries that belong to other tools are
never touched.

Run 'woodfish doctor' to check an installation.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Setup logging
		setupLogger()

		// Load configuration
		var err error
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if !globalOpts.verbose {
			level, err := config.ParseLevel(cfg.Log.Level)
			if err != nil {
				return err
			}
			logLevel.Set(level)
		}

		applyFlagOverrides(cmd)

		if _, err := output.ParseFormat(globalOpts.format); err != nil {
			return err
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if journal == nil {
			return nil
		}
		err := journal.Close()
		journal = nil
		return err
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Commands see a context that is cancelled on SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.dryRun, "dry-run", "n", false,
		"Show what would change without writing anything")
	rootCmd.PersistentFlags().BoolVar(&globalOpts.noColor, "no-color", false,
		"Disable coloured output")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/woodfish/config.toml)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.settingsPath, "settings", "",
		"Path to the editor's settings.json (default: editor's user settings)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.editorName, "editor", "",
		"Editor to manage (vscode, vscodium, cursor, windsurf)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.workspace, "workspace", "",
		"Also clean <dir>/.vscode/settings.json on uninstall")
	rootCmd.PersistentFlags().StringVarP(&globalOpts.format, "format", "o", "plain",
		"Output format: plain, json, yaml")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	logLevel.Set(slog.LevelWarn)
	if globalOpts.verbose {
		logLevel.Set(slog.LevelDebug)
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, opts)
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// applyFlagOverrides lets explicitly set global flags win over the config file.
func applyFlagOverrides(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("editor") {
		cfg.Editor.Name = globalOpts.editorName
	}
	if flags.Changed("settings") {
		cfg.Editor.SettingsPath = globalOpts.settingsPath
	}
	if flags.Changed("workspace") {
		cfg.Editor.Workspace = globalOpts.workspace
	}
}

// resolveEditor resolves the configured editor against the local machine.
func resolveEditor() (*editor.Installation, error) {
	e, err := editor.Lookup(cfg.Editor.Name)
	if err != nil {
		return nil, err
	}
	return editor.Resolve(e, editor.Paths{
		Settings:   cfg.Editor.SettingsPath,
		Extensions: cfg.Editor.ExtensionsDir,
		Install:    cfg.Editor.InstallDir,
	})
}

// newLibrary returns the asset library with the user override directory.
func newLibrary() *theme.Library {
	dir, err := theme.ThemesDir()
	if err != nil {
		logger.Warn("no theme override directory", "error", err)
		dir = ""
	}
	return theme.NewLibrary(dir, logger)
}

// openInjector builds the injector for the configured editor.
func openInjector() (*injector.Injector, error) {
	inst, err := resolveEditor()
	if err != nil {
		return nil, err
	}

	fileOpts := []settings.Option{
		settings.WithLogger(logger),
		settings.WithDryRun(globalOpts.dryRun),
	}
	global := settings.NewFile(inst.SettingsPath, fileOpts...)
	var workspace *settings.File
	if cfg.Editor.Workspace != "" {
		path := settings.WorkspaceSettingsPath(editor.ExpandPath(cfg.Editor.Workspace))
		workspace = settings.NewFile(path, fileOpts...)
	}

	statePath, err := store.StateFilePath()
	if err != nil {
		return nil, fmt.Errorf("failed to locate state file: %w", err)
	}

	if journal == nil {
		journalPath, err := store.JournalPath()
		if err != nil {
			return nil, fmt.Errorf("failed to locate journal: %w", err)
		}
		if journal, err = store.OpenJournal(journalPath); err != nil {
			// History is a convenience; operations still run without it.
			logger.Warn("failed to open journal", "error", err)
			journal = nil
		}
	}

	return injector.New(injector.Options{
		Settings:         settings.NewStore(global, workspace),
		Installation:     inst,
		Library:          newLibrary(),
		AssetsDir:        cfg.AssetsDir(),
		Variant:          cfg.Assets.Theme,
		Keys:             cfg.Loader.Keys,
		RequireInstalled: cfg.Loader.RequireInstalled,
		Defaults: map[injector.Effect]bool{
			injector.EffectGlow:   cfg.Effects.Glow,
			injector.EffectGlass:  cfg.Effects.Glass,
			injector.EffectCursor: cfg.Effects.RainbowCursor,
		},
		StatePath: statePath,
		Journal:   journal,
		Logger:    logger,
		DryRun:    globalOpts.dryRun,
	})
}

// newFormatter returns the formatter selected by --format.
func newFormatter(mutate func(*output.FormatterOptions)) (output.Formatter, error) {
	format, err := output.ParseFormat(globalOpts.format)
	if err != nil {
		return nil, err
	}
	opts := output.DefaultFormatterOptions()
	// lipgloss drops styling by itself when stdout is not a terminal
	opts.Color = !globalOpts.noColor
	if mutate != nil {
		mutate(&opts)
	}
	return output.NewFormatter(format, opts), nil
}

// printReport writes r to stdout with the selected formatter.
func printReport(r *injector.Report) error {
	formatter, err := newFormatter(nil)
	if err != nil {
		return err
	}
	return formatter.Report(os.Stdout, r)
}
