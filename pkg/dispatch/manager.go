package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"helmsman-ai/helmsman/pkg/providers"
	"helmsman-ai/helmsman/pkg/tasks"
	"helmsman-ai/helmsman/pkg/telemetry/metrics"
	"helmsman-ai/helmsman/pkg/telemetry/usage"
)

// Manager is the public face of the dispatch engine. It owns the instance
// pool, the task registry, admission control and the routing strategy, and
// runs requests in sequential, batch or streaming mode.
//
// A Manager is safe for concurrent use.
type Manager struct {
	registry  *Registry
	tasks     *tasks.Registry
	admission *Admission
	strategy  Strategy
	engine    *engine

	metrics *metrics.Collector
	sink    usage.Sink

	// closers are extra resources released on Close, such as the usage
	// recorder and its store.
	closers []io.Closer

	closeOnce sync.Once
	closeErr  error
}

// Generate runs a single request to completion.
func (m *Manager) Generate(ctx context.Context, req *Request) *Response {
	return m.engine.execute(ctx, req)
}

// GenerateSequential runs the requests one at a time, in order. The result
// slice is positional: result i belongs to request i.
func (m *Manager) GenerateSequential(ctx context.Context, reqs []*Request) []*Response {
	out := make([]*Response, len(reqs))
	for i, req := range reqs {
		out[i] = m.engine.execute(ctx, req)
	}
	return out
}

// GenerateBatch runs the requests concurrently. The result slice is
// positional regardless of completion order.
func (m *Manager) GenerateBatch(ctx context.Context, reqs []*Request) []*Response {
	out := make([]*Response, len(reqs))

	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req *Request) {
			defer wg.Done()
			out[i] = m.engine.execute(ctx, req)
		}(i, req)
	}
	wg.Wait()

	return out
}

// GenerateStream selects one instance and streams its response. Selection,
// admission and parameter resolution happen once, up front; once the stream
// is open there is no failover, and a mid-stream failure surfaces as a chunk
// carrying the error.
func (m *Manager) GenerateStream(ctx context.Context, req *Request) (<-chan *providers.StreamChunk, error) {
	e := m.engine

	params, err := e.resolveParams(req)
	if err != nil {
		return nil, err
	}

	candidates, err := e.resolveCandidates(req)
	if err != nil {
		return nil, err
	}

	var inst *Instance
	for {
		decision := e.admission.Decide(time.Now(), Snapshots(candidates))
		if decision.Proceed {
			inst, _ = e.registry.Get(e.strategy.Select(decision.Eligible))
			break
		}
		e.metrics.RecordAdmissionWait()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(decision.Delay):
		}
	}

	completionReq := buildCompletionRequest(req, params)
	completionReq.Stream = true

	inst.recordStart(time.Now())
	e.metrics.AttemptStarted(inst.Name())
	start := time.Now()

	upstream, err := inst.Provider().StreamCompletion(ctx, completionReq)
	if err != nil {
		e.metrics.AttemptFinished(inst.Name())
		inst.recordFailure(providers.IsRateLimited(err))
		e.metrics.RecordAttempt(inst.Name(), attemptResult(err))
		if providers.IsRateLimited(err) {
			e.admission.MarkRateLimited(inst.ID(), time.Now(), providers.RetryAfter(err))
			e.metrics.RecordRateLimited(inst.Name())
		}
		m.recordStream(req, inst, nil, err, time.Since(start))
		return nil, err
	}

	out := make(chan *providers.StreamChunk, 100)

	go func() {
		defer close(out)

		var streamErr error
		var totals providers.TokenUsage

		for chunk := range upstream {
			if chunk.Error != nil {
				streamErr = chunk.Error
			}
			if chunk.Usage != nil {
				totals = *chunk.Usage
			}
			select {
			case out <- chunk:
			case <-ctx.Done():
				streamErr = ctx.Err()
				m.settleStream(req, inst, &totals, streamErr, time.Since(start))
				return
			}
		}

		m.settleStream(req, inst, &totals, streamErr, time.Since(start))
	}()

	return out, nil
}

// settleStream closes out the instance counters after the stream ends.
func (m *Manager) settleStream(req *Request, inst *Instance, totals *providers.TokenUsage, streamErr error, elapsed time.Duration) {
	e := m.engine
	e.metrics.AttemptFinished(inst.Name())

	if streamErr != nil {
		inst.recordFailure(providers.IsRateLimited(streamErr))
		e.metrics.RecordAttempt(inst.Name(), attemptResult(streamErr))
		m.recordStream(req, inst, totals, streamErr, elapsed)
		return
	}

	inst.recordSuccess(elapsed, *totals)
	e.admission.RecordSuccess()
	e.metrics.RecordAttempt(inst.Name(), "success")
	e.metrics.RecordTokens(inst.Name(), totals.PromptTokens, totals.CompletionTokens)
	m.recordStream(req, inst, totals, nil, elapsed)
}

// recordStream emits the request-level telemetry for a streaming request.
func (m *Manager) recordStream(req *Request, inst *Instance, totals *providers.TokenUsage, streamErr error, elapsed time.Duration) {
	outcome := usage.OutcomeSuccess
	if streamErr != nil {
		outcome = usage.OutcomeExhausted
	}
	m.metrics.RecordRequest(req.Task, outcome, elapsed)

	if m.sink == nil {
		return
	}

	rec := usage.NewRecord()
	rec.Task = req.Task
	rec.Streamed = true
	rec.Attempts = 1
	rec.LatencyMS = elapsed.Milliseconds()
	rec.Instance = inst.Name()
	rec.InstanceID = inst.ID()
	rec.Provider = inst.Provider().GetKind()
	rec.Model = inst.Provider().GetModel()
	rec.Outcome = outcome

	if streamErr != nil {
		rec.ErrorKind = providers.ErrorKind(streamErr)
	} else if totals != nil {
		rec.PromptTokens = totals.PromptTokens
		rec.CompletionTokens = totals.CompletionTokens
		rec.TotalTokens = totals.TotalTokens
	}

	m.sink.Record(rec)
}

// Tasks returns the task registry.
func (m *Manager) Tasks() *tasks.Registry {
	return m.tasks
}

// Instances returns the instance pool in id order.
func (m *Manager) Instances() []*Instance {
	return m.registry.All()
}

// Instance returns the instance with the given id.
func (m *Manager) Instance(id int) (*Instance, bool) {
	return m.registry.Get(id)
}

// Stats snapshots the usage state of every instance, in id order.
func (m *Manager) Stats() []Snapshot {
	return Snapshots(m.registry.All())
}

// Strategy returns the configured routing strategy.
func (m *Manager) Strategy() Strategy {
	return m.strategy
}

// Metrics returns the Prometheus collector, which may be nil.
func (m *Manager) Metrics() *metrics.Collector {
	return m.metrics
}

// Close shuts down the providers and releases telemetry resources. Safe to
// call more than once.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		var errs []error
		for _, inst := range m.registry.All() {
			if err := inst.Provider().Close(); err != nil {
				errs = append(errs, err)
			}
		}
		for _, c := range m.closers {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		m.closeErr = errors.Join(errs...)
		slog.Info("dispatch manager closed", "instances", m.registry.Len())
	})
	return m.closeErr
}
