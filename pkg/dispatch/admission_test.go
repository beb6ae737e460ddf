package dispatch

import (
	"testing"
	"time"
)

func TestAdmissionProceedsWhenIdle(t *testing.T) {
	a := NewAdmission(AdmissionConfig{MaxConcurrent: 4})

	d := a.Decide(time.Now(), []Snapshot{{ID: 0}, {ID: 1}})
	if !d.Proceed {
		t.Fatal("expected Proceed for idle pool")
	}
	if len(d.Eligible) != 2 {
		t.Errorf("expected 2 eligible, got %d", len(d.Eligible))
	}
}

func TestAdmissionConcurrencyCeiling(t *testing.T) {
	a := NewAdmission(AdmissionConfig{MaxConcurrent: 3, BackoffSeed: time.Second})

	d := a.Decide(time.Now(), []Snapshot{{ID: 0, InFlight: 2}, {ID: 1, InFlight: 1}})
	if d.Proceed {
		t.Fatal("expected denial at the concurrency ceiling")
	}
	if d.Delay != time.Second {
		t.Errorf("expected seed delay 1s, got %s", d.Delay)
	}
}

func TestAdmissionUnlimitedConcurrency(t *testing.T) {
	a := NewAdmission(AdmissionConfig{MaxConcurrent: 0})

	d := a.Decide(time.Now(), []Snapshot{{ID: 0, InFlight: 1000}})
	if !d.Proceed {
		t.Fatal("expected Proceed with unlimited concurrency")
	}
}

func TestAdmissionBackoffLadder(t *testing.T) {
	a := NewAdmission(AdmissionConfig{
		MaxConcurrent: 1,
		BackoffSeed:   time.Second,
		BackoffCap:    5 * time.Second,
	})
	busy := []Snapshot{{ID: 0, InFlight: 1}}

	want := []time.Duration{
		time.Second,
		2 * time.Second,
		4 * time.Second,
		5 * time.Second, // capped
		5 * time.Second,
	}
	for i, w := range want {
		d := a.Decide(time.Now(), busy)
		if d.Proceed {
			t.Fatalf("denial %d: expected WaitAndRetry", i)
		}
		if d.Delay != w {
			t.Errorf("denial %d: expected delay %s, got %s", i, w, d.Delay)
		}
	}

	// Success resets the ladder
	a.RecordSuccess()
	d := a.Decide(time.Now(), busy)
	if d.Delay != time.Second {
		t.Errorf("expected seed delay after reset, got %s", d.Delay)
	}
}

func TestAdmissionCooldownFiltering(t *testing.T) {
	a := NewAdmission(AdmissionConfig{})
	now := time.Now()

	a.MarkRateLimited(0, now, 30*time.Second)

	d := a.Decide(now, []Snapshot{{ID: 0}, {ID: 1}})
	if !d.Proceed {
		t.Fatal("expected Proceed with one instance still available")
	}
	if len(d.Eligible) != 1 || d.Eligible[0].ID != 1 {
		t.Fatalf("expected only instance 1 eligible, got %v", d.Eligible)
	}

	if !a.InCooldown(0, now) {
		t.Error("instance 0 should be in cooldown")
	}
	if a.InCooldown(0, now.Add(31*time.Second)) {
		t.Error("instance 0 should be out of cooldown after 31s")
	}
}

func TestAdmissionAllCooledDown(t *testing.T) {
	a := NewAdmission(AdmissionConfig{BackoffSeed: 500 * time.Millisecond})
	now := time.Now()

	a.MarkRateLimited(0, now, 10*time.Second)
	a.MarkRateLimited(1, now, 10*time.Second)

	d := a.Decide(now, []Snapshot{{ID: 0}, {ID: 1}})
	if d.Proceed {
		t.Fatal("expected denial when every candidate is cooling down")
	}
	if d.Delay != 500*time.Millisecond {
		t.Errorf("expected seed delay, got %s", d.Delay)
	}

	// Cooldowns expire
	d = a.Decide(now.Add(11*time.Second), []Snapshot{{ID: 0}, {ID: 1}})
	if !d.Proceed {
		t.Fatal("expected Proceed after cooldowns expired")
	}
	if len(d.Eligible) != 2 {
		t.Errorf("expected 2 eligible, got %d", len(d.Eligible))
	}
}

func TestAdmissionDefaultCooldown(t *testing.T) {
	a := NewAdmission(AdmissionConfig{Cooldown: 7 * time.Second})
	now := time.Now()

	// No Retry-After hint falls back to the configured cooldown
	a.MarkRateLimited(3, now, 0)

	if !a.InCooldown(3, now.Add(6*time.Second)) {
		t.Error("expected instance in cooldown before default elapses")
	}
	if a.InCooldown(3, now.Add(8*time.Second)) {
		t.Error("expected instance out of cooldown after default elapses")
	}
}

func TestAdmissionCooldownNeverShortens(t *testing.T) {
	a := NewAdmission(AdmissionConfig{})
	now := time.Now()

	a.MarkRateLimited(0, now, time.Minute)
	a.MarkRateLimited(0, now, time.Second)

	if !a.InCooldown(0, now.Add(30*time.Second)) {
		t.Error("later shorter hint must not shorten an existing cooldown")
	}
}

func TestAdmissionInstanceCeilingFiltering(t *testing.T) {
	a := NewAdmission(AdmissionConfig{})

	// Instance 0 is saturated, instance 1 has headroom
	d := a.Decide(time.Now(), []Snapshot{
		{ID: 0, InFlight: 2, MaxConcurrent: 2},
		{ID: 1, InFlight: 1, MaxConcurrent: 2},
	})
	if !d.Proceed {
		t.Fatal("expected Proceed with one instance under its ceiling")
	}
	if len(d.Eligible) != 1 || d.Eligible[0].ID != 1 {
		t.Fatalf("expected only instance 1 eligible, got %v", d.Eligible)
	}
}

func TestAdmissionAllInstancesAtCeiling(t *testing.T) {
	a := NewAdmission(AdmissionConfig{BackoffSeed: time.Second})

	d := a.Decide(time.Now(), []Snapshot{
		{ID: 0, InFlight: 1, MaxConcurrent: 1},
		{ID: 1, InFlight: 3, MaxConcurrent: 3},
	})
	if d.Proceed {
		t.Fatal("all instances at ceiling must WaitAndRetry")
	}
	if d.Delay != time.Second {
		t.Errorf("expected seed delay, got %s", d.Delay)
	}

	// A finished call restores capacity
	d = a.Decide(time.Now(), []Snapshot{
		{ID: 0, InFlight: 0, MaxConcurrent: 1},
		{ID: 1, InFlight: 3, MaxConcurrent: 3},
	})
	if !d.Proceed {
		t.Fatal("expected Proceed once capacity frees up")
	}
	if len(d.Eligible) != 1 || d.Eligible[0].ID != 0 {
		t.Fatalf("expected only instance 0 eligible, got %v", d.Eligible)
	}
}

func TestAdmissionZeroCeilingIsUnlimited(t *testing.T) {
	a := NewAdmission(AdmissionConfig{})

	d := a.Decide(time.Now(), []Snapshot{{ID: 0, InFlight: 1000}})
	if !d.Proceed {
		t.Fatal("expected Proceed for an instance without a ceiling")
	}
}
