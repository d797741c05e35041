package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"

	"github.com/lox/dealersim/internal/report"
	"github.com/lox/dealersim/internal/runid"
	"github.com/lox/dealersim/internal/store"
)

// HistoryCmd reads the run history store
type HistoryCmd struct {
	Store   string `default:"dealersim.db" env:"DEALERSIM_STORE" help:"SQLite history file"`
	Limit   int    `short:"n" default:"20" help:"Runs to list (0 for all)"`
	RunID   string `name:"run" help:"Show the strategy summaries of one run"`
	Report  string `help:"Render a JSON report written by a previous run instead of reading the store"`
	NoColor bool   `help:"Disable colored output"`
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func (c *HistoryCmd) Run() error {
	if c.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	if c.Report != "" {
		return showReport(os.Stdout, c.Report)
	}
	if c.RunID != "" {
		if _, err := runid.Decode(c.RunID); err != nil {
			return err
		}
	}
	if _, err := os.Stat(c.Store); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("no history at %s", c.Store)
	}

	st, err := store.Open(c.Store)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(); err != nil {
		return err
	}

	ctx := context.Background()
	if c.RunID != "" {
		return c.showRun(ctx, st)
	}
	return c.listRuns(ctx, st)
}

func (c *HistoryCmd) listRuns(ctx context.Context, st *store.Store) error {
	runs, err := st.ListRuns(ctx, c.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet")
		return nil
	}

	t := newTable("Run", "Started", "Status", "Strategies", "Games", "Decks", "Seed", "Took")
	for _, r := range runs {
		t.Row(
			r.ID,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.Status,
			joinStrategies(r.Strategies),
			strconv.Itoa(r.GamesPerStrategy),
			strconv.Itoa(r.Decks),
			strconv.FormatInt(r.Seed, 10),
			fmt.Sprintf("%.1fs", r.DurationSeconds),
		)
	}
	fmt.Println(t.String())
	return nil
}

func (c *HistoryCmd) showRun(ctx context.Context, st *store.Store) error {
	run, err := st.GetRun(ctx, c.RunID)
	if err != nil {
		return err
	}
	sums, err := st.GetSummaries(ctx, run.ID)
	if err != nil {
		return err
	}

	fmt.Printf("Run %s (%s), %s\n", run.ID, run.Status, run.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("%d decks, reshuffle below %.0f%%, %d games per strategy, seed %d\n\n",
		run.Decks, run.ReshuffleThreshold*100, run.GamesPerStrategy, run.Seed)

	t := newTable("Strategy", "Games", "Bust rate", "Mean", "Median", "Std dev", "Min", "P25", "P75", "Max")
	for _, s := range sums {
		t.Row(
			fmt.Sprintf("hit < %d", s.Strategy),
			strconv.Itoa(s.Count),
			fmt.Sprintf("%.2f%%", s.BustRate*100),
			fmt.Sprintf("%.2f", s.Mean),
			fmt.Sprintf("%.1f", s.Median),
			fmt.Sprintf("%.2f", s.StdDev),
			strconv.Itoa(s.Min),
			fmt.Sprintf("%.1f", s.P25),
			fmt.Sprintf("%.1f", s.P75),
			strconv.Itoa(s.Max),
		)
	}
	fmt.Println(t.String())
	return nil
}

func showReport(w io.Writer, path string) error {
	r, err := report.ReadJSON(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Run %s (%s), %s\n", r.RunID, r.Status, r.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "%d decks, reshuffle below %.0f%%, %d games per strategy, seed %d\n\n",
		r.Config.Decks, r.Config.ReshuffleThreshold*100, r.Config.GamesPerStrategy, r.Config.Seed)
	return report.RenderTable(w, r.Rows)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func joinStrategies(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ",")
}
