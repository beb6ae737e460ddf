package usage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// RetentionPolicy bounds how long usage records are kept.
type RetentionPolicy struct {
	// MaxAge is the record lifetime. Zero disables pruning.
	MaxAge time.Duration `yaml:"max_age"`

	// Schedule is a cron expression for the prune job.
	Schedule string `yaml:"schedule"`
}

// DefaultRetentionPolicy keeps thirty days of records, pruned nightly.
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		MaxAge:   30 * 24 * time.Hour,
		Schedule: "0 3 * * *",
	}
}

// RetentionScheduler periodically prunes old records from a store.
type RetentionScheduler struct {
	store  Store
	policy RetentionPolicy
	cron   *cron.Cron
}

// NewRetentionScheduler creates a scheduler for the given store and policy.
func NewRetentionScheduler(store Store, policy RetentionPolicy) (*RetentionScheduler, error) {
	s := &RetentionScheduler{
		store:  store,
		policy: policy,
		cron:   cron.New(),
	}

	if policy.MaxAge > 0 {
		if _, err := s.cron.AddFunc(policy.Schedule, s.prune); err != nil {
			return nil, fmt.Errorf("invalid retention schedule %q: %w", policy.Schedule, err)
		}
	}

	return s, nil
}

// Start begins the scheduled prune job.
func (s *RetentionScheduler) Start() {
	if s.policy.MaxAge > 0 {
		s.cron.Start()
		slog.Info("usage retention scheduler started",
			"max_age", s.policy.MaxAge,
			"schedule", s.policy.Schedule,
		)
	}
}

// Stop halts the scheduler, waiting for a running prune to finish.
func (s *RetentionScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// PruneNow runs one prune cycle immediately.
func (s *RetentionScheduler) PruneNow(ctx context.Context) (int64, error) {
	if s.policy.MaxAge <= 0 {
		return 0, nil
	}
	return s.store.Prune(ctx, time.Now().Add(-s.policy.MaxAge))
}

func (s *RetentionScheduler) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pruned, err := s.PruneNow(ctx)
	if err != nil {
		slog.Error("usage retention prune failed", "error", err)
		return
	}
	slog.Info("usage retention prune completed", "pruned", pruned)
}
