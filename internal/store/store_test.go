package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/dealersim/internal/dealer"
	"github.com/lox/dealersim/internal/report"
	"github.com/lox/dealersim/internal/simulator"
	"github.com/lox/dealersim/internal/statistics"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate())
	return s
}

func sampleRows() []statistics.Row {
	mk := func(strategy int, values ...int) []dealer.Round {
		out := make([]dealer.Round, len(values))
		for i, v := range values {
			out[i] = dealer.Round{Strategy: strategy, GameIndex: i + 1, HandValue: v, IsBusted: v > 21}
		}
		return out
	}
	return statistics.Compare([]int{18, 16}, map[int][]dealer.Round{
		16: mk(16, 17, 22, 19, 20),
		18: mk(18, 18, 26, 23, 21),
	})
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Migrate())
}

func TestSaveAndLoadRun(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	created := time.UnixMilli(time.Now().UnixMilli())
	run := Run{
		ID:                 "run-1",
		CreatedAt:          created,
		Status:             report.StatusCompleted,
		Decks:              6,
		ReshuffleThreshold: 0.4,
		GamesPerStrategy:   4,
		Seed:               99,
		Strategies:         []int{18, 16},
		DurationSeconds:    1.5,
	}
	require.NoError(t, s.SaveRun(ctx, run, sampleRows()))

	got, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run.Strategies, got.Strategies)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Equal(t, run.Seed, got.Seed)
	assert.Equal(t, 1.5, got.DurationSeconds)

	sums, err := s.GetSummaries(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, sums, 2)
	assert.Equal(t, 18, sums[0].Strategy, "rows keep their saved order")
	assert.Equal(t, 16, sums[1].Strategy)
	assert.Equal(t, 4, sums[1].Count)
	assert.Equal(t, 1, sums[1].BustCount)
	assert.Equal(t, 0.25, sums[1].BustRate)
	assert.Equal(t, 0.5, sums[0].BustRate)
}

func TestSaveRunRequiresID(t *testing.T) {
	s := openTestStore(t)
	assert.Error(t, s.SaveRun(context.Background(), Run{}, nil))
}

func TestSaveRunDuplicateRollsBack(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	run := Run{ID: "dup", Status: report.StatusCompleted, Strategies: []int{16}}
	require.NoError(t, s.SaveRun(ctx, run, sampleRows()))
	require.Error(t, s.SaveRun(ctx, run, sampleRows()))

	sums, err := s.GetSummaries(ctx, "dup")
	require.NoError(t, err)
	assert.Len(t, sums, 2)
}

func TestListRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		run := Run{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Minute), Status: report.StatusCompleted, Strategies: []int{17}}
		require.NoError(t, s.SaveRun(ctx, run, nil))
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)

	all, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGetRunNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveReport(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	started := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	r := report.Build(report.Meta{
		RunID:      "report-run",
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Second),
		Config:     report.RunConfig{Strategies: []int{18, 16}, GamesPerStrategy: 4, Decks: 2, ReshuffleThreshold: 0.3, Seed: 5},
		Outcome:    simulator.Outcome{Status: simulator.StatusCancelled},
	}, nil, []int{18, 16})
	r.Rows = sampleRows()
	require.NoError(t, s.SaveReport(ctx, r))

	got, err := s.GetRun(ctx, "report-run")
	require.NoError(t, err)
	assert.Equal(t, report.StatusCancelled, got.Status)
	assert.Equal(t, 2, got.Decks)
	assert.Equal(t, 2.0, got.DurationSeconds)
	assert.True(t, started.Equal(got.CreatedAt))
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	require.NoError(t, s.SaveRun(context.Background(), Run{ID: "x", Strategies: []int{17}}, nil))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "x", runs[0].ID)
}

func TestIntLists(t *testing.T) {
	got, err := splitInts(joinInts([]int{12, 17, 21}))
	require.NoError(t, err)
	assert.Equal(t, []int{12, 17, 21}, got)

	got, err = splitInts("")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = splitInts("1,x")
	assert.Error(t, err)
}
