package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/woodfish/woodfish/internal/injector"
	"github.com/woodfish/woodfish/internal/store"
)

func init() {
	for _, e := range injector.AllEffects {
		rootCmd.AddCommand(newEffectCmd(e))
	}
}

// effectDescriptions are the command group descriptions, keyed by effect.
var effectDescriptions = map[injector.Effect]string{
	injector.EffectGlow:   "text and status bar glow",
	injector.EffectGlass:  "translucent side panels",
	injector.EffectCursor: "animated rainbow cursor",
}

// newEffectCmd builds the on/off/toggle/status command group for e.
func newEffectCmd(e injector.Effect) *cobra.Command {
	desc := effectDescriptions[e]

	cmd := &cobra.Command{
		Use:   e.String(),
		Short: fmt.Sprintf("Control the %s effect", desc),
		Long: fmt.Sprintf(`Turn the %s on or off.

The effect is stored in the %s setting and its stylesheet is
registered or removed to match.`, desc, e.SettingKey()),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEffectStatus(e)
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "on",
			Short: fmt.Sprintf("Enable the %s", desc),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSetEffect(cmd, e, true)
			},
		},
		&cobra.Command{
			Use:   "off",
			Short: fmt.Sprintf("Disable the %s", desc),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSetEffect(cmd, e, false)
			},
		},
		&cobra.Command{
			Use:   "toggle",
			Short: fmt.Sprintf("Flip the %s", desc),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runToggleEffect(cmd, e)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: fmt.Sprintf("Print whether the %s is on", desc),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runEffectStatus(e)
			},
		},
	)

	return cmd
}

func runSetEffect(cmd *cobra.Command, e injector.Effect, on bool) error {
	in, err := openInjector()
	if err != nil {
		return err
	}

	r, err := in.SetEffect(cmd.Context(), e, on, store.SourceUser)
	return reportResult(r, err)
}

func runToggleEffect(cmd *cobra.Command, e injector.Effect) error {
	in, err := openInjector()
	if err != nil {
		return err
	}

	on, r, err := in.ToggleEffect(cmd.Context(), e, store.SourceUser)
	if err != nil {
		return reportResult(r, err)
	}

	logger.Info("effect toggled", "effect", e, "enabled", on)
	return reportResult(r, nil)
}

func runEffectStatus(e injector.Effect) error {
	in, err := openInjector()
	if err != nil {
		return err
	}

	on, err := in.EffectEnabled(e)
	if err != nil {
		return err
	}

	state := "off"
	if on {
		state = "on"
	}
	_, err = fmt.Fprintf(os.Stdout, "%s: %s\n", e, state)
	return err
}
