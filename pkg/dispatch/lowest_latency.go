package dispatch

// LowestLatency selects the candidate with the smallest observed latency.
// Instances with no successful attempt yet carry a zero latency and therefore
// win, which gives new pool members immediate traffic and an observation.
// Ties break toward the smallest id.
type LowestLatency struct{}

// Select returns the id of the lowest-latency candidate.
func (s *LowestLatency) Select(candidates []Snapshot) int {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Latency < best.Latency {
			best = c
		} else if c.Latency == best.Latency && c.ID < best.ID {
			best = c
		}
	}
	return best.ID
}

// Name returns the strategy's configuration name.
func (s *LowestLatency) Name() string {
	return StrategyLowestLatency
}
