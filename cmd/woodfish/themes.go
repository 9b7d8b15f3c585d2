package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/woodfish/woodfish/internal/theme"
)

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List or export the bundled stylesheets",
	Args:  cobra.NoArgs,
	RunE:  runThemesList,
}

var themesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stylesheets and where each one is read from",
	Args:  cobra.NoArgs,
	RunE:  runThemesList,
}

var themesExportOpts struct {
	force bool
	dir   string
}

var themesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Copy the bundled stylesheets into the override directory",
	Long: `Copy every bundled stylesheet into ~/.config/woodfish/themes (or --dir).
Files there override the bundled copies on the next enable, so they can be
edited freely. Existing files are kept unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runThemesExport,
}

func init() {
	rootCmd.AddCommand(themesCmd)
	themesCmd.AddCommand(themesListCmd)
	themesCmd.AddCommand(themesExportCmd)

	themesExportCmd.Flags().BoolVar(&themesExportOpts.force, "force", false,
		"Overwrite existing files")
	themesExportCmd.Flags().StringVar(&themesExportOpts.dir, "dir", "",
		"Target directory (default: ~/.config/woodfish/themes)")
}

func runThemesList(cmd *cobra.Command, args []string) error {
	formatter, err := newFormatter(nil)
	if err != nil {
		return err
	}
	return formatter.Themes(os.Stdout, newLibrary().List())
}

func runThemesExport(cmd *cobra.Command, args []string) error {
	dir := themesExportOpts.dir
	if dir == "" {
		var err error
		if dir, err = theme.ThemesDir(); err != nil {
			return err
		}
	}

	if globalOpts.dryRun {
		fmt.Printf("would export %d stylesheets to %s\n", len(theme.ListEmbedded()), dir)
		return nil
	}

	written, err := theme.Export(dir, themesExportOpts.force)
	for _, path := range written {
		fmt.Println(path)
	}
	if err != nil {
		return err
	}
	if len(written) == 0 {
		fmt.Fprintf(os.Stderr, "%s is up to date; use --force to overwrite\n", dir)
	}
	return nil
}
