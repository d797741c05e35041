// Package store keeps a history of simulation runs in SQLite. Only run
// metadata and per-strategy summaries are stored, never individual rounds.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lox/dealersim/internal/report"
	"github.com/lox/dealersim/internal/statistics"
)

// ErrNotFound is returned when a run ID is unknown
var ErrNotFound = errors.New("run not found")

// Run is one stored simulation run
type Run struct {
	ID                 string
	CreatedAt          time.Time
	Status             string
	Decks              int
	ReshuffleThreshold float64
	GamesPerStrategy   int
	Seed               int64
	Strategies         []int
	DurationSeconds    float64 // wall-clock time actually taken
}

// Summary is one strategy's stored statistics
type Summary struct {
	RunID     string
	Strategy  int
	Count     int
	BustCount int
	BustRate  float64
	Mean      float64
	Median    float64
	StdDev    float64
	Min       int
	Max       int
	P25       float64
	P75       float64
}

// Store is a SQLite-backed run history
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path. Use ":memory:" for a
// throwaway store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps ":memory:" databases from splitting per connection
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the schema. It is safe to run on every start.
func (s *Store) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			status TEXT NOT NULL,
			decks INTEGER NOT NULL,
			reshuffle_threshold REAL NOT NULL,
			games_per_strategy INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			strategies TEXT NOT NULL,
			duration_seconds REAL NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS strategy_summaries (
			run_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			strategy INTEGER NOT NULL,
			count INTEGER NOT NULL,
			bust_count INTEGER NOT NULL,
			bust_rate REAL NOT NULL,
			mean REAL NOT NULL,
			median REAL NOT NULL,
			std_dev REAL NOT NULL,
			min INTEGER NOT NULL,
			max INTEGER NOT NULL,
			p25 REAL NOT NULL,
			p75 REAL NOT NULL,
			PRIMARY KEY (run_id, strategy),
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// SaveRun stores a run and its summary rows in one transaction
func (s *Store) SaveRun(ctx context.Context, run Run, rows []statistics.Row) error {
	if run.ID == "" {
		return errors.New("run id is required")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs (
		id, created_at, status, decks, reshuffle_threshold,
		games_per_strategy, seed, strategies, duration_seconds
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UnixMilli(), run.Status, run.Decks, run.ReshuffleThreshold,
		run.GamesPerStrategy, run.Seed, joinInts(run.Strategies), run.DurationSeconds,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO strategy_summaries (
		run_id, position, strategy, count, bust_count, bust_rate,
		mean, median, std_dev, min, max, p25, p75
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range rows {
		_, err := stmt.ExecContext(ctx,
			run.ID, i, r.Strategy, r.Count, r.BustCount, r.BustRate,
			r.Mean, r.Median, r.StdDev, r.Min, r.Max, r.P25, r.P75,
		)
		if err != nil {
			return fmt.Errorf("failed to insert summary for strategy %d: %w", r.Strategy, err)
		}
	}

	return tx.Commit()
}

// SaveReport stores a finished report
func (s *Store) SaveReport(ctx context.Context, r report.Report) error {
	run := Run{
		ID:                 r.RunID,
		CreatedAt:          r.StartedAt,
		Status:             r.Status,
		Decks:              r.Config.Decks,
		ReshuffleThreshold: r.Config.ReshuffleThreshold,
		GamesPerStrategy:   r.Config.GamesPerStrategy,
		Seed:               r.Config.Seed,
		Strategies:         r.Config.Strategies,
		DurationSeconds:    r.FinishedAt.Sub(r.StartedAt).Seconds(),
	}
	return s.SaveRun(ctx, run, r.Rows)
}

const runColumns = `id, created_at, status, decks, reshuffle_threshold,
	games_per_strategy, seed, strategies, duration_seconds`

// ListRuns returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns one run by ID
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, err
}

// GetSummaries returns a run's per-strategy rows in the order they were saved
func (s *Store) GetSummaries(ctx context.Context, runID string) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		run_id, strategy, count, bust_count, bust_rate,
		mean, median, std_dev, min, max, p25, p75
		FROM strategy_summaries WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		err := rows.Scan(&sum.RunID, &sum.Strategy, &sum.Count, &sum.BustCount, &sum.BustRate,
			&sum.Mean, &sum.Median, &sum.StdDev, &sum.Min, &sum.Max, &sum.P25, &sum.P75)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run        Run
		createdAt  int64
		strategies string
	)
	err := sc.Scan(&run.ID, &createdAt, &run.Status, &run.Decks, &run.ReshuffleThreshold,
		&run.GamesPerStrategy, &run.Seed, &strategies, &run.DurationSeconds)
	if err != nil {
		return Run{}, err
	}
	run.CreatedAt = time.UnixMilli(createdAt)
	run.Strategies, err = splitInts(strategies)
	if err != nil {
		return Run{}, fmt.Errorf("run %s: %w", run.ID, err)
	}
	return run, nil
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ",")
}

func splitInts(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("bad strategy list %q: %w", s, err)
		}
		out[i] = n
	}
	return out, nil
}
