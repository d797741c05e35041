// Package tui is the live terminal dashboard for a simulation run.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/lox/dealersim/internal/report"
	"github.com/lox/dealersim/internal/simulator"
	"github.com/lox/dealersim/internal/statistics"
)

// EventMsg delivers one engine event to the model
type EventMsg struct {
	Event simulator.Event
}

// State is where the run stands, as shown to the user
type State int

const (
	Running State = iota
	Stopping
	Completed
	Stopped
	Failed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Completed:
		return "completed"
	case Stopped:
		return "stopped by user"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

const logLines = 6

// Model renders progress, the comparison table and a short event log. It
// asks for cancellation through the cancel func and quits once the run has
// published its terminal event.
type Model struct {
	logger *log.Logger
	cancel func()

	strategies []int
	progress   progress.Model
	logView    viewport.Model

	percent  int
	status   string
	state    State
	rows     []statistics.Row
	failures map[int]string
	log      []string

	width int
}

// New creates a dashboard for a run over strategies
func New(logger *log.Logger, strategies []int, cancel func()) *Model {
	m := &Model{
		logger:     logger.WithPrefix("tui"),
		cancel:     cancel,
		strategies: strategies,
		progress:   progress.New(progress.WithDefaultGradient()),
		logView:    viewport.New(80, logLines),
		status:     "Starting...",
		failures:   make(map[int]string),
		width:      80,
	}
	m.rows = statistics.Compare(strategies, nil)
	return m
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = max(10, msg.Width-4)
		m.logView.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.Finished() {
				return m, tea.Quit
			}
			if m.state == Running {
				m.logger.Info("Cancellation requested")
				m.state = Stopping
				m.status = "Stopping..."
				m.appendLog("Cancellation requested")
				m.cancel()
			}
		}
		return m, nil

	case EventMsg:
		return m, m.apply(msg.Event)
	}
	return m, nil
}

func (m *Model) apply(ev simulator.Event) tea.Cmd {
	switch ev := ev.(type) {
	case simulator.Progress:
		m.percent = ev.Percent
		if m.state == Running {
			m.status = ev.Message
		}

	case simulator.Snapshot:
		m.rows = statistics.Compare(m.strategies, ev.Results)

	case simulator.StrategyFailed:
		m.failures[ev.Strategy] = ev.Err.Error()
		m.appendLog(fmt.Sprintf("Strategy %d failed: %v", ev.Strategy, ev.Err))

	case simulator.Completed:
		m.rows = statistics.Compare(m.strategies, ev.Results)
		m.percent = 100
		m.finish(Completed, "All simulations complete")
		return tea.Quit

	case simulator.Cancelled:
		m.rows = statistics.Compare(m.strategies, ev.Results)
		m.finish(Stopped, "Simulation stopped by user")
		return tea.Quit

	case simulator.Failed:
		m.rows = statistics.Compare(m.strategies, ev.Results)
		m.finish(Failed, fmt.Sprintf("Simulation failed: %v", ev.Err))
		return tea.Quit
	}
	return nil
}

func (m *Model) finish(state State, status string) {
	m.state = state
	m.status = status
	m.appendLog(status)
}

func (m *Model) appendLog(line string) {
	m.log = append(m.log, line)
	m.logView.SetContent(strings.Join(m.log, "\n"))
	m.logView.GotoBottom()
}

// Finished reports whether the run has ended
func (m *Model) Finished() bool {
	return m.state == Completed || m.state == Stopped || m.state == Failed
}

// State returns the current state
func (m *Model) State() State {
	return m.state
}

// Rows returns the latest comparison rows
func (m *Model) Rows() []statistics.Row {
	return m.rows
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render("Dealer Strategy Simulator"))
	b.WriteString("\n\n")
	b.WriteString(m.progress.ViewAs(float64(m.percent) / 100))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n\n")
	b.WriteString(report.Table(m.rows))
	b.WriteString("\n")

	if len(m.failures) > 0 {
		b.WriteString("\n")
		for _, s := range m.strategies {
			if err, ok := m.failures[s]; ok {
				b.WriteString(WarningStyle.Render(fmt.Sprintf("! strategy %d: %s", s, err)))
				b.WriteString("\n")
			}
		}
	}

	if len(m.log) > 0 {
		b.WriteString("\n")
		b.WriteString(PaneStyle.Render(m.logView.View()))
		b.WriteString("\n")
	}

	if !m.Finished() {
		b.WriteString(InfoStyle.Render("q: stop"))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) statusLine() string {
	line := fmt.Sprintf("%3d%%  %s", m.percent, m.status)
	switch m.state {
	case Completed:
		return SuccessStyle.Render(line)
	case Failed:
		return ErrorStyle.Render(line)
	case Stopping, Stopped:
		return WarningStyle.Render(line)
	default:
		return StatusStyle.Render(line)
	}
}

var _ tea.Model = (*Model)(nil)
