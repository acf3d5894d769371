package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/perch/internal/dbus"
	"github.com/jmylchreest/perch/internal/model"
)

var statusOpts struct {
	watch bool
}

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text       string `json:"text"`
	Alt        string `json:"alt,omitempty"`
	Tooltip    string `json:"tooltip,omitempty"`
	Class      string `json:"class,omitempty"`
	Percentage int    `json:"percentage,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Output Waybar-compatible JSON status",
	Long: `Output widget status in Waybar's custom module JSON format.

With --watch the command keeps running and prints a new line whenever a
widget is created or removed, which suits Waybar's continuous mode:

  "custom/perch": {
    "exec": "perch status --watch",
    "return-type": "json",
    "on-click": "perch show",
    "on-click-right": "perch hide"
  }

The output includes:
  - text: Number of widgets
  - alt: empty, active or locked
  - tooltip: One line per widget
  - class: Same as alt`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&statusOpts.watch, "watch", "w", false,
		"Print a new status line on every widget change")
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	client, err := dbus.Connect()
	if err != nil {
		logger.Debug("daemon unavailable", "error", err)
		return outputStatus(out, WaybarStatus{Alt: "offline", Class: "offline", Tooltip: "perchd is not running"})
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := printStatus(ctx, out, client); err != nil {
		return err
	}
	if !statusOpts.watch {
		return nil
	}

	changes, err := client.WatchActive(ctx)
	if err != nil {
		return err
	}
	for range changes {
		if err := printStatus(ctx, out, client); err != nil {
			return err
		}
	}
	return nil
}

func printStatus(ctx context.Context, w io.Writer, client *dbus.Client) error {
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	widgets, err := client.Widgets(callCtx)
	if err != nil {
		return outputStatus(w, WaybarStatus{Alt: "error", Class: "error", Tooltip: err.Error()})
	}
	return outputStatus(w, generateStatus(widgets))
}

// generateStatus summarises widgets for Waybar.
func generateStatus(widgets []model.Snapshot) WaybarStatus {
	if len(widgets) == 0 {
		return WaybarStatus{Alt: "empty", Class: "empty"}
	}

	locked := 0
	lines := make([]string, 0, len(widgets))
	for i := len(widgets) - 1; i >= 0; i-- {
		s := widgets[i]
		state := "free"
		if s.Locked {
			locked++
			state = "locked"
		}
		lines = append(lines, fmt.Sprintf("%s %s at %.0f,%.0f", s.ID.Short(), state, s.Position.X, s.Position.Y))
	}

	class := "active"
	if locked > 0 {
		class = "locked"
	}
	return WaybarStatus{
		Text:       fmt.Sprintf("%d", len(widgets)),
		Alt:        class,
		Tooltip:    strings.Join(lines, "\n"),
		Class:      class,
		Percentage: min(len(widgets), 100),
	}
}

func outputStatus(w io.Writer, status WaybarStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
