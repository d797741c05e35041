package simulator

import "fmt"

// Event is anything a Run publishes on its event stream. The concrete types
// are Progress, Snapshot, StrategyFailed and exactly one terminal event:
// Completed, Cancelled or Failed.
type Event interface {
	isEvent()
}

// Progress reports overall completion after each batch.
type Progress struct {
	Percent   int    // 0-100, weighted equally per strategy
	Message   string // human-readable status
	Strategy  int
	Completed int // games finished for Strategy
	Total     int // games configured per strategy
}

// Snapshot carries a deep copy of every strategy's results so far. The
// receiver owns it; the worker never touches it again.
type Snapshot struct {
	Results  Results
	Strategy int  // strategy being simulated
	Final    bool // last snapshot for Strategy, reflecting all its batches
}

// StrategyFailed reports that one strategy stopped with an error. The run
// continues with the next strategy.
type StrategyFailed struct {
	Strategy int
	Err      error
}

// Completed ends a run in which at least one strategy finished.
type Completed struct {
	Results  Results
	Failures map[int]error
}

// Cancelled ends a run stopped by the caller. Results holds every batch
// finished before the stop was observed.
type Cancelled struct {
	Results Results
}

// Failed ends a run in which no strategy finished.
type Failed struct {
	Results Results
	Err     error
}

func (Progress) isEvent()       {}
func (Snapshot) isEvent()       {}
func (StrategyFailed) isEvent() {}
func (Completed) isEvent()      {}
func (Cancelled) isEvent()      {}
func (Failed) isEvent()         {}

// IsTerminal reports whether ev is the last event of a run.
func IsTerminal(ev Event) bool {
	switch ev.(type) {
	case Completed, Cancelled, Failed:
		return true
	}
	return false
}

// StrategyError ties a failure to the strategy that produced it.
type StrategyError struct {
	Strategy int
	Err      error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("strategy %d: %v", e.Strategy, e.Err)
}

func (e *StrategyError) Unwrap() error {
	return e.Err
}
