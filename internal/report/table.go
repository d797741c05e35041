package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/lox/dealersim/internal/statistics"
)

const barWidth = 40

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	bestStyle   = cellStyle.Foreground(lipgloss.Color("10"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	bustStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

var headers = []string{"Strategy", "Games", "Bust rate", "Mean", "Median", "Std dev", "95% CI", "Min", "Max"}

// Table renders the comparison table. The row with the lowest bust rate is
// highlighted.
func Table(rows []statistics.Row) string {
	best := lowestBustRate(rows)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row == best:
				return bestStyle
			default:
				return cellStyle
			}
		})
	for _, r := range rows {
		t.Row(tableRow(r)...)
	}
	return t.String()
}

func tableRow(r statistics.Row) []string {
	if r.Count == 0 {
		return []string{fmt.Sprintf("hit < %d", r.Strategy), "0", "-", "-", "-", "-", "-", "-", "-"}
	}
	return []string{
		fmt.Sprintf("hit < %d", r.Strategy),
		fmt.Sprintf("%d", r.Count),
		fmt.Sprintf("%.2f%%", r.BustRate*100),
		fmt.Sprintf("%.2f", r.Mean),
		fmt.Sprintf("%.1f", r.Median),
		fmt.Sprintf("%.2f", r.StdDev),
		fmt.Sprintf("%.2f-%.2f", r.CI95Low, r.CI95High),
		fmt.Sprintf("%d", r.Min),
		fmt.Sprintf("%d", r.Max),
	}
}

func lowestBustRate(rows []statistics.Row) int {
	best := -1
	for i, r := range rows {
		if r.Count == 0 {
			continue
		}
		if best < 0 || r.BustRate < rows[best].BustRate {
			best = i
		}
	}
	return best
}

// Histogram renders the distribution of final totals as text bars, busts in red.
func Histogram(r statistics.Row) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Strategy %d: final totals (%d hands)", r.Strategy, r.Count)))
	b.WriteByte('\n')
	if r.Count == 0 {
		b.WriteString("  no data\n")
		return b.String()
	}

	peak := 0
	for _, bucket := range r.Histogram {
		peak = max(peak, bucket.Count)
	}
	for _, bucket := range r.Histogram {
		width := bucket.Count * barWidth / peak
		if width == 0 && bucket.Count > 0 {
			width = 1
		}
		bar := strings.Repeat("█", width)
		if bucket.Value > 21 {
			bar = bustStyle.Render(bar)
		} else {
			bar = barStyle.Render(bar)
		}
		pct := float64(bucket.Count) / float64(r.Count) * 100
		fmt.Fprintf(&b, "  %2d │%s %d (%.1f%%)\n", bucket.Value, bar, bucket.Count, pct)
	}
	return b.String()
}

// RenderTable writes the comparison table followed by each strategy's histogram.
func RenderTable(w io.Writer, rows []statistics.Row) error {
	if _, err := fmt.Fprintln(w, Table(rows)); err != nil {
		return err
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "\n%s", Histogram(r)); err != nil {
			return err
		}
	}
	return nil
}
