// Package report turns simulation results into comparison reports: a JSON
// document for later analysis and a rendered table for the terminal.
package report

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/lox/dealersim/internal/simulator"
	"github.com/lox/dealersim/internal/statistics"
)

// Status values recorded for a run
const (
	StatusCompleted = "completed"
	StatusPartial   = "partial" // completed, but some strategies failed
	StatusCancelled = "cancelled"
	StatusFailed    = "failed"
)

// RunConfig is the part of the configuration worth keeping with the results
type RunConfig struct {
	Strategies            []int   `json:"strategies"`
	GamesPerStrategy      int     `json:"games_per_strategy"`
	Decks                 int     `json:"decks"`
	ReshuffleThreshold    float64 `json:"reshuffle_threshold"`
	TargetDurationSeconds float64 `json:"target_duration_seconds"`
	Seed                  int64   `json:"seed"`
}

// Meta describes the run a report belongs to
type Meta struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Config     RunConfig
	Outcome    simulator.Outcome
}

// Report is the comparison of every strategy in one run
type Report struct {
	RunID      string             `json:"run_id"`
	Status     string             `json:"status"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Config     RunConfig          `json:"config"`
	Rows       []statistics.Row   `json:"strategies"`
	Overall    statistics.Summary `json:"overall"`
	Failures   map[string]string  `json:"failures,omitempty"`
}

// ConfigOf extracts the reportable settings of a run
func ConfigOf(run *simulator.Run) RunConfig {
	cfg := run.Config()
	return RunConfig{
		Strategies:            cfg.Strategies,
		GamesPerStrategy:      cfg.GamesPerStrategy,
		Decks:                 cfg.NumDecks,
		ReshuffleThreshold:    cfg.ReshuffleThreshold,
		TargetDurationSeconds: cfg.TargetDuration.Seconds(),
		Seed:                  run.Seed(),
	}
}

// Build summarises results for the given strategies, in that order.
// Overall merges every strategy's rounds.
func Build(meta Meta, results simulator.Results, strategies []int) Report {
	r := Report{
		RunID:      meta.RunID,
		Status:     StatusOf(meta.Outcome),
		StartedAt:  meta.StartedAt,
		FinishedAt: meta.FinishedAt,
		Config:     meta.Config,
		Rows:       statistics.Compare(strategies, results),
		Overall:    statistics.SummarizeAll(results),
	}
	if len(meta.Outcome.Failures) > 0 {
		r.Failures = make(map[string]string, len(meta.Outcome.Failures))
		for _, s := range slices.Sorted(maps.Keys(meta.Outcome.Failures)) {
			r.Failures[strconv.Itoa(s)] = meta.Outcome.Failures[s].Error()
		}
	}
	return r
}

// StatusOf maps an engine outcome to the status recorded in reports
func StatusOf(o simulator.Outcome) string {
	switch o.Status {
	case simulator.StatusCancelled:
		return StatusCancelled
	case simulator.StatusFailed:
		return StatusFailed
	case simulator.StatusCompleted:
		if len(o.Failures) > 0 {
			return StatusPartial
		}
		return StatusCompleted
	}
	return string(o.Status)
}

// WriteJSON writes r to path atomically
func WriteJSON(path string, r Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return writeFileAtomic(path, append(data, '\n'), 0o644)
}

// ReadJSON loads a report written by WriteJSON
func ReadJSON(path string) (Report, error) {
	var r Report
	data, err := os.ReadFile(path)
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("failed to decode report %s: %w", path, err)
	}
	return r, nil
}
