package dispatch

import (
	"testing"
	"time"
)

func TestNewStrategy(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{name: "least_recently_used", want: StrategyLeastRecentlyUsed},
		{name: "lru", want: StrategyLeastRecentlyUsed},
		{name: "", want: StrategyLeastRecentlyUsed},
		{name: "lowest_latency", want: StrategyLowestLatency},
		{name: "random", want: StrategyRandom},
		{name: "round_robin", wantErr: true},
	}

	for _, tt := range tests {
		s, err := NewStrategy(tt.name)
		if tt.wantErr {
			if err == nil {
				t.Errorf("NewStrategy(%q): expected error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("NewStrategy(%q) failed: %v", tt.name, err)
			continue
		}
		if s.Name() != tt.want {
			t.Errorf("NewStrategy(%q) = %s, want %s", tt.name, s.Name(), tt.want)
		}
	}
}

func TestLeastRecentlyUsed(t *testing.T) {
	base := time.Now()

	tests := []struct {
		name       string
		candidates []Snapshot
		want       int
	}{
		{
			name: "oldest last used wins",
			candidates: []Snapshot{
				{ID: 0, LastUsed: base.Add(-time.Minute)},
				{ID: 1, LastUsed: base.Add(-time.Hour)},
				{ID: 2, LastUsed: base},
			},
			want: 1,
		},
		{
			name: "never used beats used",
			candidates: []Snapshot{
				{ID: 0, LastUsed: base},
				{ID: 1},
			},
			want: 1,
		},
		{
			name: "tie breaks to smallest id",
			candidates: []Snapshot{
				{ID: 2, LastUsed: base},
				{ID: 0, LastUsed: base},
				{ID: 1, LastUsed: base},
			},
			want: 0,
		},
		{
			name:       "single candidate",
			candidates: []Snapshot{{ID: 7, LastUsed: base}},
			want:       7,
		},
	}

	s := &LeastRecentlyUsed{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Select(tt.candidates); got != tt.want {
				t.Errorf("Select = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLowestLatency(t *testing.T) {
	tests := []struct {
		name       string
		candidates []Snapshot
		want       int
	}{
		{
			name: "lowest latency wins",
			candidates: []Snapshot{
				{ID: 0, Latency: 300 * time.Millisecond},
				{ID: 1, Latency: 150 * time.Millisecond},
				{ID: 2, Latency: 900 * time.Millisecond},
			},
			want: 1,
		},
		{
			name: "unobserved latency wins",
			candidates: []Snapshot{
				{ID: 0, Latency: 50 * time.Millisecond},
				{ID: 1},
			},
			want: 1,
		},
		{
			name: "tie breaks to smallest id",
			candidates: []Snapshot{
				{ID: 3, Latency: 100 * time.Millisecond},
				{ID: 1, Latency: 100 * time.Millisecond},
			},
			want: 1,
		},
	}

	s := &LowestLatency{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Select(tt.candidates); got != tt.want {
				t.Errorf("Select = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRandom(t *testing.T) {
	candidates := []Snapshot{{ID: 4}, {ID: 5}, {ID: 6}}

	s := &Random{intn: func(n int) int { return 2 }}
	if got := s.Select(candidates); got != 6 {
		t.Errorf("Select = %d, want 6", got)
	}

	// Single candidate short-circuits the PRNG
	s = &Random{intn: func(n int) int {
		t.Fatal("intn called for single candidate")
		return 0
	}}
	if got := s.Select([]Snapshot{{ID: 9}}); got != 9 {
		t.Errorf("Select = %d, want 9", got)
	}
}

func TestRandomStaysInBounds(t *testing.T) {
	s := NewRandom()
	candidates := []Snapshot{{ID: 10}, {ID: 20}, {ID: 30}}

	for i := 0; i < 100; i++ {
		got := s.Select(candidates)
		if got != 10 && got != 20 && got != 30 {
			t.Fatalf("Select returned id %d outside the candidate set", got)
		}
	}
}
