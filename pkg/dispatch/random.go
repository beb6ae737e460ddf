package dispatch

import (
	"math/rand/v2"
)

// Random selects a uniformly random candidate. A single-element candidate
// set is returned directly, which keeps pinned-then-excluded retry paths
// deterministic.
type Random struct {
	// intn allows tests to fix the choice.
	intn func(n int) int
}

// NewRandom creates a Random strategy backed by the shared PRNG.
func NewRandom() *Random {
	return &Random{intn: rand.IntN}
}

// Select returns the id of a random candidate.
func (s *Random) Select(candidates []Snapshot) int {
	if len(candidates) == 1 {
		return candidates[0].ID
	}
	return candidates[s.intn(len(candidates))].ID
}

// Name returns the strategy's configuration name.
func (s *Random) Name() string {
	return StrategyRandom
}
