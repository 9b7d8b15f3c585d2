package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/woodfish/woodfish/internal/adapter/output"
	"github.com/woodfish/woodfish/internal/injector"
)

var statusOpts struct {
	entries bool
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what is registered where",
	Long: `Show the theme state for the configured editor: which import lists are
populated, whether their loader extensions are installed, the effect flags
and whether the editor was updated since the theme was last applied.

Examples:
  woodfish status
  woodfish status --entries
  woodfish status --format json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var doctorOpts struct {
	decline string
}

var errUnhealthy = errors.New("doctor found problems")

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the installation for problems",
	Long: `Run a series of checks and print a hint for every problem found:

  settings     settings.json parses and its import lists are arrays
  editor       the editor installation was found
  loader       a CSS loader extension is installed for a configured key
  dependency   the recommended animations extension is installed
  injectors    no two CSS injector extensions fight over the workbench
  version      the theme was applied to the running editor version
  imports      the import lists hold no duplicates or missing files
  assets       registered stylesheets exist on disk
  workbench    workbench.html carries no legacy injections

Exits with status 1 when any check reports an error.

Use --decline <extension-id> to stop recommending an extension.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(doctorCmd)

	statusCmd.Flags().BoolVar(&statusOpts.entries, "entries", false,
		"List every import entry with its flags")
	doctorCmd.Flags().StringVar(&doctorOpts.decline, "decline", "",
		"Stop recommending the given extension id")
}

func runStatus(cmd *cobra.Command, args []string) error {
	in, err := openInjector()
	if err != nil {
		return err
	}

	st, err := in.Status(cmd.Context())
	if err != nil {
		return err
	}

	formatter, err := newFormatter(func(o *output.FormatterOptions) {
		o.Verbose = statusOpts.entries || globalOpts.verbose
	})
	if err != nil {
		return err
	}
	return formatter.Status(os.Stdout, st)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	in, err := openInjector()
	if err != nil {
		return err
	}

	if doctorOpts.decline != "" {
		in.Decline(doctorOpts.decline)
		logger.Info("declined extension", "id", doctorOpts.decline)
	}

	findings, err := in.Doctor(cmd.Context())
	if err != nil {
		return err
	}

	formatter, err := newFormatter(nil)
	if err != nil {
		return err
	}
	if err := formatter.Findings(os.Stdout, findings); err != nil {
		return err
	}

	if !injector.Healthy(findings) {
		return errUnhealthy
	}
	return nil
}
