package dispatch

// LeastRecentlyUsed selects the candidate whose last attempt started longest
// ago. Never-used instances sort first since their zero timestamp precedes
// every real one; ties break toward the smallest id.
type LeastRecentlyUsed struct{}

// Select returns the id of the least recently used candidate.
func (s *LeastRecentlyUsed) Select(candidates []Snapshot) int {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.LastUsed.Before(best.LastUsed) {
			best = c
		} else if c.LastUsed.Equal(best.LastUsed) && c.ID < best.ID {
			best = c
		}
	}
	return best.ID
}

// Name returns the strategy's configuration name.
func (s *LeastRecentlyUsed) Name() string {
	return StrategyLeastRecentlyUsed
}
