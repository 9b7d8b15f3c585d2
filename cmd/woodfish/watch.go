package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/woodfish/woodfish/internal/injector"
)

var watchOpts struct {
	debounce string
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-validate the import lists whenever settings.json changes",
	Long: `Watch the editor's settings.json and clean the import lists after every
change, the way 'woodfish clean' does. Changes made by the watcher itself
are ignored.

Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchOpts.debounce, "debounce", "",
		"Quiet period before validating (default: watch.debounce)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	debounce := cfg.Watch.Debounce
	if watchOpts.debounce != "" {
		if err := debounce.UnmarshalText([]byte(watchOpts.debounce)); err != nil {
			return err
		}
	}

	in, err := openInjector()
	if err != nil {
		return err
	}

	w, err := injector.NewWatcher(in, debounce.Duration(), func(r *injector.Report, err error) {
		// Failures are logged by the watcher.
		if err == nil && r.Changed() {
			if err := printReport(r); err != nil {
				logger.Warn("failed to print report", "error", err)
			}
		}
	})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx := cmd.Context()
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	fmt.Fprintf(os.Stderr, "watching %s\n", in.SettingsPath())

	select {
	case <-ctx.Done():
	case <-w.Done():
	}
	return w.Stop()
}
