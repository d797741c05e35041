package simulator

const (
	minBatches   = 20
	maxBatches   = 100
	gamesPerUnit = 20 // one batch per this many games, before clamping
	minBatchSize = 10
)

// planBatches splits games into batch sizes. The batch count is games/20
// clamped to [20,100]; each batch holds max(10, games/count) games and the
// last one takes whatever remains, so the sizes always sum to games. Small
// runs that are used up before the last slot produce fewer batches.
func planBatches(games int) []int {
	if games <= 0 {
		return nil
	}
	count := max(minBatches, min(maxBatches, games/gamesPerUnit))
	size := max(minBatchSize, games/count)

	plan := make([]int, 0, count)
	remaining := games
	for b := 0; b < count && remaining > 0; b++ {
		n := min(size, remaining)
		if b == count-1 {
			n = remaining
		}
		plan = append(plan, n)
		remaining -= n
	}
	return plan
}
