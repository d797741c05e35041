package main

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lox/dealersim/internal/report"
	"github.com/lox/dealersim/internal/simulator"
	"github.com/lox/dealersim/internal/tui"
)

// WatchCmd runs a simulation behind the live dashboard
type WatchCmd struct {
	SimOptions `embed:""`
}

func (c *WatchCmd) Run() error {
	cfg, err := c.resolve()
	if err != nil {
		return err
	}

	// the dashboard owns the terminal, so logs only go to a file
	logger, closeLog, err := setupLogger(cfg.Logging.Level, cfg.Logging.File, c.Debug, c.NoColor, io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := signalContext(context.Background(), logger)
	defer cancel()

	s, err := newSession(&c.SimOptions, cfg, logger)
	if err != nil {
		return err
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	model := tui.New(logger, cfg.Simulation.Strategies, cancelRun)
	program := tea.NewProgram(model)

	run, err := s.execute(runCtx,
		[]sink{func(ev simulator.Event) { program.Send(tui.EventMsg{Event: ev}) }},
		func(context.Context) error {
			_, err := program.Run()
			if err != nil {
				cancelRun()
				return fmt.Errorf("dashboard: %w", err)
			}
			return nil
		},
	)
	if err != nil && run == nil {
		return err
	}
	dashErr := err

	r, err := s.finish(context.WithoutCancel(ctx), run)
	if dashErr != nil {
		// the dashboard never showed the final table
		if renderErr := report.RenderTable(os.Stdout, r.Rows); renderErr != nil {
			return renderErr
		}
		fmt.Printf("\nRun %s: %s\n", r.RunID, r.Status)
		return dashErr
	}
	fmt.Printf("\nRun %s: %s\n", r.RunID, r.Status)
	if err != nil {
		return err
	}
	return exitError(r)
}
