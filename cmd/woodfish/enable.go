package main

import (
	"github.com/spf13/cobra"

	"github.com/woodfish/woodfish/internal/injector"
)

var enableOpts struct {
	variant string
}

var enableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Register the theme with the CSS loader",
	Long: `Write the theme stylesheets to the asset directory and register them in
the import list of the first configured key whose loader extension is
installed.

Effect stylesheets (glow, glass, rainbow cursor) are registered when their
woodfishTheme.* setting is on, and removed when it is off. Running enable
again changes nothing.

Examples:
  # Enable the default theme
  woodfish enable

  # Switch to the modular variant
  woodfish enable --variant modular

  # Preview the settings.json changes
  woodfish enable --dry-run`,
	Args: cobra.NoArgs,
	RunE: runEnable,
}

var disableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Unregister the theme from every import list",
	Long: `Remove the woodfish stylesheets from every configured import list.

Entries belonging to other tools are left alone. Use 'woodfish uninstall'
to also sweep stylesheets written by older releases.`,
	Args: cobra.NoArgs,
	RunE: runDisable,
}

func init() {
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(disableCmd)

	enableCmd.Flags().StringVar(&enableOpts.variant, "variant", "",
		"Theme variant: woodfish or modular (default: assets.theme)")
}

func runEnable(cmd *cobra.Command, args []string) error {
	in, err := openInjector()
	if err != nil {
		return err
	}

	r, err := in.Enable(cmd.Context(), injector.EnableOptions{Variant: enableOpts.variant})
	return reportResult(r, err)
}

func runDisable(cmd *cobra.Command, args []string) error {
	in, err := openInjector()
	if err != nil {
		return err
	}

	r, err := in.Disable(cmd.Context())
	return reportResult(r, err)
}

// reportResult prints whatever r holds, even after a partial failure, and
// returns err.
func reportResult(r *injector.Report, err error) error {
	if r != nil && (r.Changed() || err == nil || len(r.Warnings) > 0) {
		if perr := printReport(r); perr != nil && err == nil {
			err = perr
		}
	}
	return err
}
