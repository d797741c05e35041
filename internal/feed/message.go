package feed

import (
	"github.com/lox/dealersim/internal/simulator"
	"github.com/lox/dealersim/internal/statistics"
)

// Message types sent to clients
const (
	TypeProgress       = "progress"
	TypeSnapshot       = "snapshot"
	TypeStrategyFailed = "strategy_failed"
	TypeCompleted      = "completed"
	TypeCancelled      = "cancelled"
	TypeFailed         = "failed"
)

// Message is the JSON document pushed to every websocket client. Snapshots
// travel as summary rows, never as raw rounds.
type Message struct {
	Type     string           `json:"type"`
	Percent  int              `json:"percent"`
	Message  string           `json:"message,omitempty"`
	Strategy int              `json:"strategy,omitempty"`
	Rows     []statistics.Row `json:"rows,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// FromEvent converts an engine event into a feed message
func FromEvent(ev simulator.Event) (Message, bool) {
	switch ev := ev.(type) {
	case simulator.Progress:
		return Message{Type: TypeProgress, Percent: ev.Percent, Message: ev.Message, Strategy: ev.Strategy}, true
	case simulator.Snapshot:
		return Message{Type: TypeSnapshot, Strategy: ev.Strategy, Rows: rows(ev.Results)}, true
	case simulator.StrategyFailed:
		return Message{Type: TypeStrategyFailed, Strategy: ev.Strategy, Error: ev.Err.Error()}, true
	case simulator.Completed:
		return Message{Type: TypeCompleted, Percent: 100, Message: "completed", Rows: rows(ev.Results)}, true
	case simulator.Cancelled:
		return Message{Type: TypeCancelled, Message: "stopped by user", Rows: rows(ev.Results)}, true
	case simulator.Failed:
		return Message{Type: TypeFailed, Message: "failed", Error: ev.Err.Error(), Rows: rows(ev.Results)}, true
	}
	return Message{}, false
}

func rows(results simulator.Results) []statistics.Row {
	return statistics.Compare(results.Strategies(), results)
}
