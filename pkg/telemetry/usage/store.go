package usage

import (
	"context"
	"time"
)

// Filter narrows a store query. Zero values match everything.
type Filter struct {
	Task     string
	Instance string
	Outcome  string
	Since    time.Time
	Limit    int
}

// Store persists usage records.
type Store interface {
	// Insert persists one record.
	Insert(ctx context.Context, rec *Record) error

	// Query returns records matching the filter, newest first.
	Query(ctx context.Context, f Filter) ([]*Record, error)

	// Summarize aggregates matching records.
	Summarize(ctx context.Context, f Filter) (*Summary, error)

	// Prune deletes records older than cutoff and reports how many.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases store resources.
	Close() error
}

// Summary aggregates a set of usage records.
type Summary struct {
	Requests         int64 `json:"requests"`
	Successes        int64 `json:"successes"`
	Attempts         int64 `json:"attempts"`
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}
