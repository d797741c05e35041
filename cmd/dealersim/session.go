package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"golang.org/x/sync/errgroup"

	"github.com/lox/dealersim/internal/config"
	"github.com/lox/dealersim/internal/feed"
	"github.com/lox/dealersim/internal/report"
	"github.com/lox/dealersim/internal/runid"
	"github.com/lox/dealersim/internal/simulator"
	"github.com/lox/dealersim/internal/store"
)

// sink receives every engine event in order
type sink func(simulator.Event)

// session wires one simulation run to its outputs: the live feed, the event
// consumers, the JSON report and the history store.
type session struct {
	cfg    *config.Config
	opts   *SimOptions
	logger *log.Logger

	id      string
	started time.Time
	hub     *feed.Hub
}

func newSession(opts *SimOptions, cfg *config.Config, logger *log.Logger) (*session, error) {
	if opts.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	id, err := runid.New()
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:    cfg,
		opts:   opts,
		logger: logger,
		id:     id,
		hub:    feed.NewHub(logger),
	}, nil
}

// execute starts the run and feeds its events to the hub and every sink
// until the stream closes. extra goroutines run alongside in the same group,
// and are expected to return once the run is done.
func (s *session) execute(ctx context.Context, sinks []sink, extra ...func(context.Context) error) (*simulator.Run, error) {
	g, gctx := errgroup.WithContext(ctx)

	s.started = time.Now()
	run, err := simulator.New(s.logger).Start(gctx, simulator.ConfigFrom(s.cfg))
	if err != nil {
		return nil, err
	}
	s.logger.Info("Run started", "id", s.id, "seed", run.Seed())

	pumped := make(chan struct{})
	g.Go(func() error {
		defer close(pumped)
		for ev := range run.Events() {
			s.hub.Publish(ev)
			for _, sink := range sinks {
				sink(ev)
			}
		}
		return nil
	})

	if s.opts.Listen != "" {
		ln, err := net.Listen("tcp", s.opts.Listen)
		if err != nil {
			run.Cancel()
			run.Wait()
			return nil, fmt.Errorf("failed to listen on %s: %w", s.opts.Listen, err)
		}
		s.logger.Info("Serving live feed", "address", "ws://"+ln.Addr().String()+"/")
		g.Go(func() error {
			return s.serveFeed(ln, pumped)
		})
	}

	for _, fn := range extra {
		g.Go(func() error {
			return fn(gctx)
		})
	}

	err = g.Wait()
	run.Wait()
	return run, err
}

func (s *session) serveFeed(ln net.Listener, done <-chan struct{}) error {
	srv := &http.Server{
		Handler:           s.hub,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("feed server: %w", err)
	case <-done:
	}

	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// finish builds the report and persists it wherever the config asks
func (s *session) finish(ctx context.Context, run *simulator.Run) (report.Report, error) {
	outcome := run.Wait()
	r := report.Build(report.Meta{
		RunID:      s.id,
		StartedAt:  s.started,
		FinishedAt: time.Now(),
		Config:     report.ConfigOf(run),
		Outcome:    outcome,
	}, outcome.Results, s.cfg.Simulation.Strategies)

	var errs []error
	if path := s.cfg.Output.ReportPath; path != "" {
		path = strings.ReplaceAll(path, "{run}", s.id)
		if err := report.WriteJSON(path, r); err != nil {
			errs = append(errs, fmt.Errorf("write report: %w", err))
		} else {
			s.logger.Info("Report written", "path", path)
		}
	}

	if path := s.cfg.Output.StorePath; path != "" {
		if err := saveToStore(ctx, path, r); err != nil {
			errs = append(errs, fmt.Errorf("save run: %w", err))
		} else {
			s.logger.Info("Run recorded", "store", path, "id", s.id)
		}
	}

	return r, errors.Join(errs...)
}

func saveToStore(ctx context.Context, path string, r report.Report) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(); err != nil {
		return err
	}
	return st.SaveReport(ctx, r)
}

// exitError turns a non-completed run into a command error so the process
// exits non-zero after the report is printed.
func exitError(r report.Report) error {
	switch r.Status {
	case report.StatusFailed:
		return errors.New("every strategy failed")
	case report.StatusCancelled:
		return errors.New("simulation stopped by user")
	}
	return nil
}
