package tui

import (
	"context"
	"errors"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmylchreest/perch/internal/config"
	"github.com/jmylchreest/perch/internal/engine"
	"github.com/jmylchreest/perch/internal/model"
	"github.com/jmylchreest/perch/internal/overlay"
)

// DefaultScreen is the simulated screen when the config does not set one.
var DefaultScreen = model.Size{Width: 1080, Height: 1920}

// Run starts an engine on a memory host and runs the simulator until the
// user quits or ctx is done.
func Run(ctx context.Context, cfg *config.Config, feedback engine.Feedback, logger *slog.Logger) error {
	screen := DefaultScreen
	if cfg.Screen.Width > 0 {
		screen.Width = float64(cfg.Screen.Width)
	}
	if cfg.Screen.Height > 0 {
		screen.Height = float64(cfg.Screen.Height)
	}

	host := overlay.NewMemoryHost(screen)
	perm := overlay.NewSwitchPermission(true)

	opts := []engine.Option{engine.WithLogger(logger)}
	if feedback != nil {
		opts = append(opts, engine.WithFeedback(feedback))
	}
	eng := engine.New(cfg, host, perm, opts...)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- eng.Run(ctx) }()

	p := tea.NewProgram(New(ctx, cfg, eng, host, perm),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	cancel()

	if engErr := <-runErr; engErr != nil && !errors.Is(engErr, context.Canceled) {
		return engErr
	}
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
