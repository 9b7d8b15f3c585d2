package main

import (
	"github.com/spf13/cobra"
)

var cleanOpts struct {
	html bool
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Drop duplicate, broken and missing import entries",
	Long: `Validate every populated import list: non-string and empty elements,
repeats of an earlier entry and file URIs whose file no longer exists are
dropped. The first occurrence of each entry keeps its position.

With --html, also strip the tags older releases injected directly into the
editor's workbench.html. A backup is written next to the file first.

Examples:
  woodfish clean
  woodfish clean --html --dry-run`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	cleanCmd.Flags().BoolVar(&cleanOpts.html, "html", false,
		"Also remove legacy injections from workbench.html")
}

func runClean(cmd *cobra.Command, args []string) error {
	in, err := openInjector()
	if err != nil {
		return err
	}

	r, err := in.Validate(cmd.Context())
	if err := reportResult(r, err); err != nil {
		return err
	}
	if !cleanOpts.html {
		return nil
	}

	r, err = in.CleanHTML(cmd.Context())
	return reportResult(r, err)
}
