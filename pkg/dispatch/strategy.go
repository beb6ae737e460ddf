package dispatch

import (
	"fmt"
)

// Strategy picks one instance from a set of candidate snapshots. Strategies
// are pure: they read the snapshots and return the chosen instance id without
// touching live registry state, so the same inputs always allow the same
// choice (Random excepted, by design of its contract rather than purity).
//
// Candidates is never empty when Select is called.
type Strategy interface {
	// Select returns the id of the chosen instance.
	Select(candidates []Snapshot) int

	// Name returns the strategy's configuration name.
	Name() string
}

// Strategy configuration names.
const (
	StrategyLeastRecentlyUsed = "least_recently_used"
	StrategyLowestLatency     = "lowest_latency"
	StrategyRandom            = "random"
)

// NewStrategy creates a strategy by configuration name.
func NewStrategy(name string) (Strategy, error) {
	switch name {
	case "", StrategyLeastRecentlyUsed, "lru":
		return &LeastRecentlyUsed{}, nil
	case StrategyLowestLatency:
		return &LowestLatency{}, nil
	case StrategyRandom:
		return NewRandom(), nil
	default:
		return nil, fmt.Errorf("unknown routing strategy %q (expected %s, %s or %s)",
			name, StrategyLeastRecentlyUsed, StrategyLowestLatency, StrategyRandom)
	}
}
