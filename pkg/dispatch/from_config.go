package dispatch

import (
	"fmt"

	"helmsman-ai/helmsman/pkg/config"
	"helmsman-ai/helmsman/pkg/providerfactory"
	"helmsman-ai/helmsman/pkg/providers"
	"helmsman-ai/helmsman/pkg/telemetry/metrics"
	"helmsman-ai/helmsman/pkg/telemetry/usage"
)

// FromConfig assembles a Manager from a loaded configuration: tasks, the
// provider pool, routing strategy, admission settings and the telemetry
// sinks. The configuration must already be validated.
func FromConfig(cfg *config.Config) (*Manager, error) {
	b := NewBuilder().
		WithStrategyName(cfg.Strategy).
		WithEngineConfig(EngineConfig{
			MaxRetries:   cfg.MaxRetries,
			CallTimeout:  cfg.CallTimeout,
			TotalTimeout: cfg.TotalTimeout,
		}).
		WithAdmission(AdmissionConfig{
			MaxConcurrent: cfg.Admission.MaxConcurrent,
			BackoffSeed:   cfg.Admission.BackoffSeed,
			BackoffCap:    cfg.Admission.BackoffCap,
			Cooldown:      cfg.Admission.Cooldown,
		})

	for _, t := range cfg.Tasks {
		b.DefineTask(t.Name, t.Params)
	}

	for _, ic := range cfg.Instances {
		p, err := providerfactory.New(ic.Kind, providers.ProviderConfig{
			Name:    ic.Name,
			Kind:    ic.Kind,
			Model:   ic.Model,
			APIKey:  ic.APIKey,
			BaseURL: ic.BaseURL,
			Timeout: ic.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create instance %q: %w", ic.Name, err)
		}
		if ic.IsEnabled() {
			b.AddInstance(p, ic.Tasks...)
		} else {
			b.AddDisabledInstance(p, ic.Tasks...)
		}
		if ic.MaxConcurrent > 0 {
			b.MaxConcurrent(ic.MaxConcurrent)
		}
	}

	if cfg.Telemetry.Metrics.Enabled {
		b.WithMetrics(metrics.NewCollector())
	}

	if cfg.Telemetry.Usage.Enabled {
		if err := wireUsage(b, cfg.Telemetry.Usage); err != nil {
			return nil, err
		}
	}

	return b.Build()
}

// wireUsage builds the usage accounting pipeline: store, async recorder,
// retention scheduler and the optional per-instance debug logger.
func wireUsage(b *Builder, cfg config.UsageConfig) error {
	var store usage.Store
	var err error

	switch cfg.Backend {
	case "", "memory":
		store = usage.NewMemoryStore(0)
	case "sqlite":
		store, err = usage.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to open usage store: %w", err)
		}
	default:
		return fmt.Errorf("unknown usage backend %q", cfg.Backend)
	}

	recorder := usage.NewRecorder(store, cfg.BufferSize)

	sinks := usage.MultiSink{recorder}
	if cfg.DebugDir != "" {
		debug, err := usage.NewDebugLogger(cfg.DebugDir)
		if err != nil {
			store.Close()
			return fmt.Errorf("failed to create usage debug logger: %w", err)
		}
		sinks = append(sinks, debug)
		b.WithCloser(debug)
	}

	scheduler, err := usage.NewRetentionScheduler(store, cfg.Retention)
	if err != nil {
		store.Close()
		return err
	}
	scheduler.Start()

	b.WithUsageSink(sinks)
	b.WithCloser(closerFunc(func() error {
		scheduler.Stop()
		if err := recorder.Close(); err != nil {
			return err
		}
		return store.Close()
	}))

	return nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
