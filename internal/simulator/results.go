package simulator

import (
	"slices"

	"github.com/lox/dealersim/internal/dealer"
)

// Results maps a hit-until strategy to its rounds, in the order they were played.
type Results map[int][]dealer.Round

// Clone returns a deep copy that shares no backing arrays with r.
func (r Results) Clone() Results {
	if r == nil {
		return nil
	}
	out := make(Results, len(r))
	for s, rounds := range r {
		out[s] = slices.Clone(rounds)
	}
	return out
}

// Counts returns the number of rounds recorded per strategy.
func (r Results) Counts() map[int]int {
	out := make(map[int]int, len(r))
	for s, rounds := range r {
		out[s] = len(rounds)
	}
	return out
}

// Strategies returns the strategies present, ascending.
func (r Results) Strategies() []int {
	out := make([]int, 0, len(r))
	for s := range r {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}
