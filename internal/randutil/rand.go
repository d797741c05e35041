package randutil

import (
	rand "math/rand/v2"
	"time"
)

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// New returns a *rand.Rand seeded deterministically from the provided int64.
// The helper centralises how we derive the two 64-bit seeds required by rand/v2
// so that all call sites get reproducible sequences.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Stream returns an independent generator for sub-stream n of seed, so each
// strategy's shoe gets its own reproducible sequence regardless of how many
// other strategies run before it.
func Stream(seed int64, n int) *rand.Rand {
	u := mix(uint64(seed)) ^ mix(uint64(n)*goldenRatio64+1)
	return rand.New(rand.NewPCG(u, mix(u+goldenRatio64)))
}

// ResolveSeed returns seed, or a time-based seed when seed is zero.
func ResolveSeed(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
