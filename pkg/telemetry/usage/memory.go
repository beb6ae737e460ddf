package usage

import (
	"context"
	"sync"
	"time"
)

const defaultMemoryCapacity = 10000

// MemoryStore keeps usage records in a bounded in-memory buffer. The oldest
// records are evicted once capacity is reached. Intended for development and
// tests; production deployments use the SQLite store.
type MemoryStore struct {
	mu       sync.RWMutex
	records  []*Record
	capacity int
}

// NewMemoryStore creates an in-memory store holding at most capacity records.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	return &MemoryStore{
		capacity: capacity,
	}
}

// Insert persists one record, evicting the oldest when full.
func (s *MemoryStore) Insert(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
	if len(s.records) > s.capacity {
		s.records = s.records[len(s.records)-s.capacity:]
	}
	return nil
}

// Query returns matching records, newest first.
func (s *MemoryStore) Query(_ context.Context, f Filter) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Record
	for i := len(s.records) - 1; i >= 0; i-- {
		rec := s.records[i]
		if !matches(rec, f) {
			continue
		}
		out = append(out, rec)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

// Summarize aggregates matching records.
func (s *MemoryStore) Summarize(_ context.Context, f Filter) (*Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := &Summary{}
	for _, rec := range s.records {
		if !matches(rec, f) {
			continue
		}
		sum.Requests++
		if rec.Outcome == OutcomeSuccess {
			sum.Successes++
		}
		sum.Attempts += int64(rec.Attempts)
		sum.PromptTokens += int64(rec.PromptTokens)
		sum.CompletionTokens += int64(rec.CompletionTokens)
		sum.TotalTokens += int64(rec.TotalTokens)
	}
	return sum, nil
}

// Prune deletes records older than cutoff.
func (s *MemoryStore) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var pruned int64
	for _, rec := range s.records {
		if rec.Time.Before(cutoff) {
			pruned++
			continue
		}
		kept = append(kept, rec)
	}
	s.records = kept
	return pruned, nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func matches(rec *Record, f Filter) bool {
	if f.Task != "" && rec.Task != f.Task {
		return false
	}
	if f.Instance != "" && rec.Instance != f.Instance {
		return false
	}
	if f.Outcome != "" && rec.Outcome != f.Outcome {
		return false
	}
	if !f.Since.IsZero() && rec.Time.Before(f.Since) {
		return false
	}
	return true
}
