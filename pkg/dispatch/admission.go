package dispatch

import (
	"sync"
	"sync/atomic"
	"time"
)

// AdmissionConfig bounds how much work the pool accepts at once. Each
// instance additionally carries its own in-flight ceiling, enforced here
// from the candidate snapshots.
type AdmissionConfig struct {
	// MaxConcurrent caps attempts in flight across the whole pool, on top
	// of the per-instance ceilings. Zero means unlimited.
	MaxConcurrent int `yaml:"max_concurrent"`

	// BackoffSeed is the first wait issued when admission denies entry.
	BackoffSeed time.Duration `yaml:"backoff_seed"`

	// BackoffCap bounds the exponential wait.
	BackoffCap time.Duration `yaml:"backoff_cap"`

	// Cooldown is how long a rate limited instance sits out when the
	// provider gave no Retry-After hint.
	Cooldown time.Duration `yaml:"cooldown"`
}

// DefaultAdmissionConfig returns the standard admission settings.
func DefaultAdmissionConfig() AdmissionConfig {
	return AdmissionConfig{
		MaxConcurrent: 0,
		BackoffSeed:   time.Second,
		BackoffCap:    60 * time.Second,
		Cooldown:      10 * time.Second,
	}
}

// Decision is the admission controller's answer for one attempt.
type Decision struct {
	// Proceed reports whether the attempt may run now. When true,
	// Eligible holds the candidates with capacity that survived cool-down
	// filtering; it is never empty.
	Proceed  bool
	Eligible []Snapshot

	// Delay is how long to wait before asking again when Proceed is
	// false.
	Delay time.Duration
}

// Admission gates attempts on per-instance in-flight ceilings plus an
// optional pool-wide one, and keeps rate limited instances out of rotation
// while they cool down. Denials escalate a shared exponential backoff; any
// successful attempt resets it.
type Admission struct {
	cfg AdmissionConfig

	mu        sync.Mutex
	cooldowns map[int]time.Time

	denials atomic.Int64
}

// NewAdmission creates an admission controller. Zero-value durations in cfg
// fall back to defaults.
func NewAdmission(cfg AdmissionConfig) *Admission {
	def := DefaultAdmissionConfig()
	if cfg.BackoffSeed <= 0 {
		cfg.BackoffSeed = def.BackoffSeed
	}
	if cfg.BackoffCap <= 0 {
		cfg.BackoffCap = def.BackoffCap
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}

	return &Admission{
		cfg:       cfg,
		cooldowns: make(map[int]time.Time),
	}
}

// Decide filters candidates through per-instance capacity, cool-down state
// and the pool-wide ceiling. An instance at its own in-flight ceiling drops
// out of the eligible set; when every candidate is saturated or cooling
// down the caller gets a wait. Candidates must be non-empty.
func (a *Admission) Decide(now time.Time, candidates []Snapshot) Decision {
	if a.cfg.MaxConcurrent > 0 {
		var inFlight int
		for _, c := range candidates {
			inFlight += c.InFlight
		}
		if inFlight >= a.cfg.MaxConcurrent {
			return a.deny()
		}
	}

	a.mu.Lock()
	eligible := make([]Snapshot, 0, len(candidates))
	for _, c := range candidates {
		if c.MaxConcurrent > 0 && c.InFlight >= c.MaxConcurrent {
			continue
		}
		until, cooling := a.cooldowns[c.ID]
		if cooling && now.Before(until) {
			continue
		}
		if cooling {
			delete(a.cooldowns, c.ID)
		}
		eligible = append(eligible, c)
	}
	a.mu.Unlock()

	if len(eligible) == 0 {
		return a.deny()
	}

	return Decision{Proceed: true, Eligible: eligible}
}

// MarkRateLimited puts an instance in cool-down. A zero retryAfter uses the
// configured default.
func (a *Admission) MarkRateLimited(id int, now time.Time, retryAfter time.Duration) {
	if retryAfter <= 0 {
		retryAfter = a.cfg.Cooldown
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	until := now.Add(retryAfter)
	if current, ok := a.cooldowns[id]; !ok || until.After(current) {
		a.cooldowns[id] = until
	}
}

// RecordSuccess resets the backoff ladder.
func (a *Admission) RecordSuccess() {
	a.denials.Store(0)
}

// InCooldown reports whether the instance is cooling down at now.
func (a *Admission) InCooldown(id int, now time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	until, ok := a.cooldowns[id]
	return ok && now.Before(until)
}

func (a *Admission) deny() Decision {
	n := a.denials.Add(1)

	delay := a.cfg.BackoffSeed
	for i := int64(1); i < n; i++ {
		delay *= 2
		if delay >= a.cfg.BackoffCap {
			delay = a.cfg.BackoffCap
			break
		}
	}

	return Decision{Delay: delay}
}
