package dispatch

import (
	"errors"
	"fmt"
	"io"

	"helmsman-ai/helmsman/pkg/providers"
	"helmsman-ai/helmsman/pkg/tasks"
	"helmsman-ai/helmsman/pkg/telemetry/metrics"
	"helmsman-ai/helmsman/pkg/telemetry/usage"
)

// Builder assembles a Manager step by step. Methods chain; errors accumulate
// and surface from Build, so call sites stay linear.
type Builder struct {
	tasks     *tasks.Registry
	registry  *Registry
	strategy  Strategy
	admission AdmissionConfig
	engineCfg EngineConfig
	metrics   *metrics.Collector
	sink      usage.Sink
	closers   []io.Closer
	errs      []error

	// last is the most recently added instance, the target of
	// per-instance options like MaxConcurrent.
	last *Instance
}

// NewBuilder creates a builder with default settings: least recently used
// routing, default retry budget, no telemetry.
func NewBuilder() *Builder {
	return &Builder{
		tasks:     tasks.NewRegistry(),
		registry:  NewInstanceRegistry(),
		strategy:  &LeastRecentlyUsed{},
		admission: DefaultAdmissionConfig(),
		engineCfg: EngineConfig{MaxRetries: DefaultMaxRetries},
	}
}

// DefineTask registers a task with default parameters.
func (b *Builder) DefineTask(name string, params map[string]any) *Builder {
	if err := b.tasks.Define(name, params); err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// AddInstance registers a provider serving the given tasks. Tasks must be
// defined before the instances that reference them.
func (b *Builder) AddInstance(p providers.Provider, taskNames ...string) *Builder {
	return b.addInstance(p, true, taskNames)
}

// AddDisabledInstance registers a provider without making it eligible for
// routing. It still gets an id, so ids stay stable when a config toggles
// instances off.
func (b *Builder) AddDisabledInstance(p providers.Provider, taskNames ...string) *Builder {
	return b.addInstance(p, false, taskNames)
}

func (b *Builder) addInstance(p providers.Provider, enabled bool, taskNames []string) *Builder {
	for _, t := range taskNames {
		if !b.tasks.Exists(t) {
			b.errs = append(b.errs, fmt.Errorf(
				"instance %s references undefined task %q", p.GetName(), t))
			return b
		}
	}
	if enabled {
		b.last = b.registry.Add(p, taskNames)
	} else {
		b.last = b.registry.AddDisabled(p, taskNames)
	}
	return b
}

// MaxConcurrent caps in-flight attempts on the most recently added instance.
// Zero means unlimited.
func (b *Builder) MaxConcurrent(n int) *Builder {
	if b.last == nil {
		b.errs = append(b.errs, fmt.Errorf("MaxConcurrent must follow AddInstance"))
		return b
	}
	if n < 0 {
		b.errs = append(b.errs, fmt.Errorf(
			"instance %s: max_concurrent cannot be negative: %d", b.last.Name(), n))
		return b
	}
	b.last.maxConcurrent = n
	return b
}

// WithStrategy sets the routing strategy.
func (b *Builder) WithStrategy(s Strategy) *Builder {
	b.strategy = s
	return b
}

// WithStrategyName sets the routing strategy by configuration name.
func (b *Builder) WithStrategyName(name string) *Builder {
	s, err := NewStrategy(name)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	b.strategy = s
	return b
}

// WithMaxRetries sets the retry budget.
func (b *Builder) WithMaxRetries(n int) *Builder {
	if n < 0 {
		b.errs = append(b.errs, fmt.Errorf("max_retries cannot be negative: %d", n))
		return b
	}
	b.engineCfg.MaxRetries = n
	return b
}

// WithEngineConfig replaces the engine configuration.
func (b *Builder) WithEngineConfig(cfg EngineConfig) *Builder {
	b.engineCfg = cfg
	return b
}

// WithAdmission replaces the admission configuration.
func (b *Builder) WithAdmission(cfg AdmissionConfig) *Builder {
	b.admission = cfg
	return b
}

// WithMetrics attaches a Prometheus collector.
func (b *Builder) WithMetrics(c *metrics.Collector) *Builder {
	b.metrics = c
	return b
}

// WithUsageSink attaches a usage sink.
func (b *Builder) WithUsageSink(s usage.Sink) *Builder {
	b.sink = s
	return b
}

// WithCloser registers a resource released by Manager.Close.
func (b *Builder) WithCloser(c io.Closer) *Builder {
	b.closers = append(b.closers, c)
	return b
}

// Build assembles the Manager, reporting every accumulated error.
func (b *Builder) Build() (*Manager, error) {
	if b.registry.Len() == 0 {
		b.errs = append(b.errs, fmt.Errorf("at least one instance is required"))
	}
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	admission := NewAdmission(b.admission)

	m := &Manager{
		registry:  b.registry,
		tasks:     b.tasks,
		admission: admission,
		strategy:  b.strategy,
		metrics:   b.metrics,
		sink:      b.sink,
		closers:   b.closers,
	}
	m.engine = &engine{
		registry:  b.registry,
		tasks:     b.tasks,
		strategy:  b.strategy,
		admission: admission,
		cfg:       b.engineCfg,
		metrics:   b.metrics,
		sink:      b.sink,
	}

	return m, nil
}
