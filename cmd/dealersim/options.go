package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/lox/dealersim/internal/config"
)

// SimOptions are the flags shared by run and watch. Unset flags leave the
// config file and environment values alone.
type SimOptions struct {
	Config     string   `short:"c" default:"dealersim.hcl" help:"HCL config file (ignored when missing)"`
	Strategies []int    `short:"s" sep:"," help:"Hit-until thresholds to compare, e.g. 16,17,18"`
	Games      *int     `short:"n" help:"Games per strategy"`
	Decks      *int     `help:"Decks in the shoe"`
	Threshold  *float64 `help:"Reshuffle when less than this fraction of the shoe remains"`
	Duration   *float64 `short:"d" help:"Target run duration in seconds"`
	Seed       *int64   `help:"Deterministic RNG seed (random when unset)"`
	Report     string   `help:"Write a JSON report here; {run} expands to the run ID"`
	Store      string   `help:"SQLite file that records run history"`
	Listen     string   `help:"Serve a live websocket feed on this address, e.g. :8080"`
	NoColor    bool     `help:"Disable colored output"`
	Debug      bool     `help:"Enable debug logging"`
}

// resolve loads the config file and environment, then applies the flags
func (o *SimOptions) resolve() (*config.Config, error) {
	cfg, err := config.Load(o.Config)
	if err != nil {
		return nil, err
	}
	if o.Config != config.DefaultPath {
		if _, statErr := os.Stat(o.Config); errors.Is(statErr, os.ErrNotExist) {
			return nil, fmt.Errorf("config file %s does not exist", o.Config)
		}
	}

	if len(o.Strategies) > 0 {
		cfg.Simulation.Strategies = append([]int(nil), o.Strategies...)
	}
	if o.Games != nil {
		cfg.Simulation.GamesPerStrategy = *o.Games
	}
	if o.Decks != nil {
		cfg.Game.Decks = *o.Decks
	}
	if o.Threshold != nil {
		cfg.Game.ReshuffleThreshold = *o.Threshold
	}
	if o.Duration != nil {
		cfg.Simulation.TargetDurationSeconds = *o.Duration
	}
	if o.Seed != nil {
		cfg.Simulation.Seed = *o.Seed
	}
	if o.Report != "" {
		cfg.Output.ReportPath = o.Report
	}
	if o.Store != "" {
		cfg.Output.StorePath = o.Store
	}
	if o.Debug {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
