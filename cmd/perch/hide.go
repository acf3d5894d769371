package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/perch/internal/core"
	"github.com/jmylchreest/perch/internal/dbus"
)

var hideOpts struct {
	all bool
}

var hideCmd = &cobra.Command{
	Use:   "hide [ref]",
	Short: "Hide floating widgets",
	Long: `Hide the most recently created widget, a specific widget, or every
widget with --all.

A widget reference is its index in "perch list", its full ID, or the short
ID printed by listings.

Hiding when no widget exists is not an error.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHide,
}

func init() {
	rootCmd.AddCommand(hideCmd)

	hideCmd.Flags().BoolVarP(&hideOpts.all, "all", "a", false,
		"Hide every widget")
}

func runHide(cmd *cobra.Command, args []string) error {
	if hideOpts.all && len(args) > 0 {
		return fmt.Errorf("--all cannot be combined with an ID")
	}

	return withDaemon(func(ctx context.Context, c *dbus.Client) error {
		out := cmd.OutOrStdout()
		switch {
		case hideOpts.all:
			n, err := c.HideAllWidgets(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "hid %d widget(s)\n", n)

		case len(args) == 1:
			widgets, err := c.Widgets(ctx)
			if err != nil {
				return err
			}
			target, err := core.Resolve(widgets, args[0])
			if err != nil {
				return err
			}
			removed, err := c.HideWidget(ctx, target.ID)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("widget %s is already gone", target.ID.Short())
			}
			fmt.Fprintf(out, "hid %s\n", target.ID.Short())

		default:
			removed, err := c.HideTopWidget(ctx)
			if err != nil {
				return err
			}
			if !removed {
				logger.Debug("no widget to hide")
			}
		}
		return nil
	})
}
