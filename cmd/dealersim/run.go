package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/lox/dealersim/internal/report"
	"github.com/lox/dealersim/internal/simulator"
)

// RunCmd runs a simulation without the dashboard
type RunCmd struct {
	SimOptions `embed:""`

	Quiet bool `short:"q" help:"Only print the final comparison"`
}

func (c *RunCmd) Run() error {
	cfg, err := c.resolve()
	if err != nil {
		return err
	}

	logger, closeLog, err := setupLogger(cfg.Logging.Level, cfg.Logging.File, c.Debug, c.NoColor, os.Stderr)
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

	printer := newProgressPrinter(os.Stdout, c.Quiet)
	run, err := s.execute(ctx, []sink{printer.handle})
	if err != nil {
		return err
	}

	r, err := s.finish(context.WithoutCancel(ctx), run)
	fmt.Println()
	if renderErr := report.RenderTable(os.Stdout, r.Rows); renderErr != nil {
		return renderErr
	}
	fmt.Printf("\nRun %s: %s\n", r.RunID, r.Status)
	if err != nil {
		return err
	}
	return exitError(r)
}

// progressPrinter writes one line per progress step, skipping repeats of the
// same percentage.
type progressPrinter struct {
	w           io.Writer
	quiet       bool
	lastPercent int
}

func newProgressPrinter(w io.Writer, quiet bool) *progressPrinter {
	return &progressPrinter{w: w, quiet: quiet, lastPercent: -1}
}

func (p *progressPrinter) handle(ev simulator.Event) {
	switch ev := ev.(type) {
	case simulator.Progress:
		if p.quiet || ev.Percent == p.lastPercent {
			return
		}
		p.lastPercent = ev.Percent
		fmt.Fprintf(p.w, "[%3d%%] %s\n", ev.Percent, ev.Message)
	case simulator.StrategyFailed:
		fmt.Fprintf(p.w, "warning: strategy %d failed: %v\n", ev.Strategy, ev.Err)
	case simulator.Cancelled:
		fmt.Fprintln(p.w, "Simulation stopped by user")
	case simulator.Failed:
		fmt.Fprintf(p.w, "Simulation failed: %v\n", ev.Err)
	}
}
