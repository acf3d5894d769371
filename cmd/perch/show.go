package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/perch/internal/dbus"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a new floating widget",
	Long: `Ask perchd to create a floating widget centred on the screen and
print its ID.

If the compositor cannot draw overlays the daemon posts a notification
explaining why and the command fails.`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	return withDaemon(func(ctx context.Context, c *dbus.Client) error {
		id, err := c.ShowWidget(ctx)
		if errors.Is(err, dbus.ErrPermissionDenied) {
			return fmt.Errorf("cannot draw overlays: %w", err)
		}
		if err != nil {
			return err
		}
		logger.Debug("widget created", "widget_id", id)
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	})
}
