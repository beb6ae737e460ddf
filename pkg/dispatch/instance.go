package dispatch

import (
	"sync"
	"time"

	"helmsman-ai/helmsman/pkg/providers"
)

// Instance is one registered provider endpoint plus its usage state. All
// state mutation goes through the record methods, which serialize on the
// instance mutex; Snapshot takes a consistent copy under the same lock.
type Instance struct {
	id       int
	name     string
	provider providers.Provider

	// tasks is the set of task names this instance serves. An empty set
	// means the instance only serves untagged requests.
	tasks map[string]struct{}

	// enabled is fixed at registration. Disabled instances keep their id
	// and counters but never serve requests.
	enabled bool

	// maxConcurrent caps attempts in flight on this instance. Zero means
	// unlimited. Fixed at build time; admission enforces it.
	maxConcurrent int

	mu          sync.Mutex
	inFlight    int
	lastUsed    time.Time
	lastLatency time.Duration
	requests    int64

	// failures counts consecutive non-rate-limit failures; any success
	// resets it.
	failures   int64
	prompt     int64
	completion int64
}

// Snapshot is a point-in-time copy of an instance's usage state. Strategies
// operate on snapshots only, so selection never holds instance locks.
type Snapshot struct {
	ID            int
	Name          string
	Kind          string
	Model         string
	InFlight      int
	MaxConcurrent int
	LastUsed      time.Time
	Latency       time.Duration
	Requests      int64
	Failures      int64
	Prompt        int64
	Completion    int64
}

// ID returns the instance's registry id.
func (i *Instance) ID() int { return i.id }

// Name returns the instance's configured name.
func (i *Instance) Name() string { return i.name }

// Provider returns the backing provider adapter.
func (i *Instance) Provider() providers.Provider { return i.provider }

// Tasks returns the task names this instance serves.
func (i *Instance) Tasks() []string {
	out := make([]string, 0, len(i.tasks))
	for t := range i.tasks {
		out = append(out, t)
	}
	return out
}

// Enabled reports whether the instance takes part in routing.
func (i *Instance) Enabled() bool { return i.enabled }

// MaxConcurrent returns the instance's in-flight ceiling. Zero means
// unlimited.
func (i *Instance) MaxConcurrent() int { return i.maxConcurrent }

// Supports reports whether the instance serves the named task. The empty
// task matches every instance.
func (i *Instance) Supports(task string) bool {
	if task == "" {
		return true
	}
	_, ok := i.tasks[task]
	return ok
}

// Snapshot copies the current usage state.
func (i *Instance) Snapshot() Snapshot {
	i.mu.Lock()
	defer i.mu.Unlock()

	return Snapshot{
		ID:            i.id,
		Name:          i.name,
		Kind:          i.provider.GetKind(),
		Model:         i.provider.GetModel(),
		InFlight:      i.inFlight,
		MaxConcurrent: i.maxConcurrent,
		LastUsed:      i.lastUsed,
		Latency:       i.lastLatency,
		Requests:      i.requests,
		Failures:      i.failures,
		Prompt:        i.prompt,
		Completion:    i.completion,
	}
}

// recordStart marks the beginning of an attempt.
func (i *Instance) recordStart(now time.Time) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.inFlight++
	i.lastUsed = now
	i.requests++
}

// recordSuccess marks a successful attempt, resetting the consecutive
// failure count. Latency tracking keeps the most recent observation rather
// than an average so the lowest-latency strategy reacts quickly to changing
// backend conditions.
func (i *Instance) recordSuccess(latency time.Duration, usage providers.TokenUsage) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.inFlight--
	i.failures = 0
	i.lastLatency = latency
	i.prompt += int64(usage.PromptTokens)
	i.completion += int64(usage.CompletionTokens)
}

// recordFailure marks a failed attempt. Rate limit responses do not count
// as instance failures: the backend is healthy, just saturated.
func (i *Instance) recordFailure(rateLimited bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.inFlight--
	if !rateLimited {
		i.failures++
	}
}
