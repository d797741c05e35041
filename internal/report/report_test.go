package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/dealersim/internal/dealer"
	"github.com/lox/dealersim/internal/simulator"
	"github.com/lox/dealersim/internal/statistics"
)

func rounds(strategy int, values ...int) []dealer.Round {
	out := make([]dealer.Round, len(values))
	for i, v := range values {
		out[i] = dealer.Round{Strategy: strategy, GameIndex: i + 1, HandValue: v, IsBusted: v > 21}
	}
	return out
}

func sampleResults() simulator.Results {
	return simulator.Results{
		16: rounds(16, 17, 18, 22, 20),
		17: rounds(17, 17, 25, 19, 21),
	}
}

func TestBuild(t *testing.T) {
	meta := Meta{
		RunID:   "0123456789abcdefghjkmnpqrs",
		Config:  RunConfig{Strategies: []int{16, 17, 18}, GamesPerStrategy: 4, Decks: 6},
		Outcome: simulator.Outcome{Status: simulator.StatusCompleted},
	}
	r := Build(meta, sampleResults(), []int{16, 17, 18})

	assert.Equal(t, StatusCompleted, r.Status)
	require.Len(t, r.Rows, 3)
	assert.Equal(t, 16, r.Rows[0].Strategy)
	assert.Equal(t, 4, r.Rows[0].Count)
	assert.Equal(t, 0.25, r.Rows[0].BustRate)
	assert.Equal(t, 18, r.Rows[2].Strategy)
	assert.Zero(t, r.Rows[2].Count, "strategies without data get an empty row")

	assert.Equal(t, 8, r.Overall.Count)
	assert.Equal(t, 2, r.Overall.BustCount)
	assert.Nil(t, r.Failures)
}

func TestStatusOf(t *testing.T) {
	failures := map[int]error{17: errors.New("boom")}
	tests := []struct {
		outcome simulator.Outcome
		want    string
	}{
		{simulator.Outcome{Status: simulator.StatusCompleted}, StatusCompleted},
		{simulator.Outcome{Status: simulator.StatusCompleted, Failures: failures}, StatusPartial},
		{simulator.Outcome{Status: simulator.StatusCancelled}, StatusCancelled},
		{simulator.Outcome{Status: simulator.StatusFailed, Failures: failures}, StatusFailed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusOf(tt.outcome))
	}
}

func TestBuildRecordsFailures(t *testing.T) {
	meta := Meta{Outcome: simulator.Outcome{
		Status:   simulator.StatusCompleted,
		Failures: map[int]error{17: errors.New("shoe ran dry")},
	}}
	r := Build(meta, sampleResults(), []int{16, 17})
	assert.Equal(t, StatusPartial, r.Status)
	assert.Equal(t, map[string]string{"17": "shoe ran dry"}, r.Failures)
}

func TestWriteJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reports", "run.json")

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	meta := Meta{
		RunID:      "abc",
		StartedAt:  started,
		FinishedAt: started.Add(10 * time.Second),
		Config:     RunConfig{Strategies: []int{16, 17}, Seed: 7},
		Outcome:    simulator.Outcome{Status: simulator.StatusCancelled},
	}
	want := Build(meta, sampleResults(), []int{16, 17})
	require.NoError(t, WriteJSON(path, want))

	got, err := ReadJSON(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"status": "cancelled"`)
	assert.Contains(t, string(raw), `"bust_rate": 0.25`)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")
}

func TestWriteJSONOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, WriteJSON(path, Report{RunID: "first"}))
	require.NoError(t, WriteJSON(path, Report{RunID: "second"}))

	got, err := ReadJSON(path)
	require.NoError(t, err)
	assert.Equal(t, "second", got.RunID)
}

func TestReadJSONMissing(t *testing.T) {
	_, err := ReadJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRenderTable(t *testing.T) {
	rows := statistics.Compare([]int{16, 17, 18}, sampleResults())

	var buf bytes.Buffer
	require.NoError(t, RenderTable(&buf, rows))
	out := buf.String()

	for _, want := range []string{"Strategy", "Bust rate", "hit < 16", "hit < 17", "hit < 18", "25.00%"} {
		assert.Contains(t, out, want)
	}
	assert.Contains(t, out, "Strategy 16: final totals (4 hands)")
	assert.Contains(t, out, "Strategy 18: final totals (0 hands)")
	assert.Contains(t, out, "no data")
}

func TestHistogramBars(t *testing.T) {
	row := statistics.Row{Strategy: 17, Summary: statistics.Summarize(rounds(17, 20, 20, 20, 20, 22))}
	out := Histogram(row)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], strings.Repeat("█", barWidth))
	assert.Contains(t, lines[1], "4 (80.0%)")
	assert.Contains(t, lines[2], "22 │")
	assert.Contains(t, lines[2], "1 (20.0%)")
}
