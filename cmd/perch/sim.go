package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/perch/internal/audio"
	"github.com/jmylchreest/perch/internal/engine"
	"github.com/jmylchreest/perch/internal/tui"
)

var simOpts struct {
	mute bool
}

var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Run the widget engine in a terminal simulator",
	Long: `Run the widget engine against a virtual touchscreen drawn in the
terminal. The left mouse button acts as a finger: drag widgets around,
double-tap to lock them and drop them in the red band to delete them.

The screen size comes from [screen] in the config, or 1080x1920.`,
	Args: cobra.NoArgs,
	RunE: runSim,
}

func init() {
	rootCmd.AddCommand(simCmd)

	simCmd.Flags().BoolVar(&simOpts.mute, "mute", false,
		"Do not play configured sound cues")
}

func runSim(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var feedback engine.Feedback
	if cfg.Audio.Enabled && !simOpts.mute {
		sounds := audio.NewManager(cfg, logger)
		if err := sounds.Start(); err != nil {
			logger.Warn("audio unavailable", "error", err)
		} else {
			defer sounds.Stop()
			feedback = sounds
		}
	}

	return tui.Run(ctx, cfg, feedback, logger)
}
