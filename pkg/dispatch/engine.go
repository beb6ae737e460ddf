package dispatch

import (
	"context"
	"log/slog"
	"time"

	"helmsman-ai/helmsman/pkg/providers"
	"helmsman-ai/helmsman/pkg/tasks"
	"helmsman-ai/helmsman/pkg/telemetry/metrics"
	"helmsman-ai/helmsman/pkg/telemetry/usage"
)

// DefaultMaxRetries is the extra attempts granted after the first one.
const DefaultMaxRetries = 5

// EngineConfig tunes the retry and failover engine.
type EngineConfig struct {
	// MaxRetries is how many times a failed request is retried. A request
	// makes at most MaxRetries+1 provider calls.
	MaxRetries int `yaml:"max_retries"`

	// CallTimeout bounds each individual provider call. Zero means the
	// request context alone governs.
	CallTimeout time.Duration `yaml:"call_timeout"`

	// TotalTimeout bounds the whole retry loop, admission waits included.
	// Zero means the request context alone governs.
	TotalTimeout time.Duration `yaml:"total_timeout"`
}

// engine drives one request through resolution, admission, selection and
// invocation until it succeeds or the attempt budget runs out.
type engine struct {
	registry  *Registry
	tasks     *tasks.Registry
	strategy  Strategy
	admission *Admission
	cfg       EngineConfig

	metrics *metrics.Collector
	sink    usage.Sink
}

// execute runs one request to completion. It never returns nil.
func (e *engine) execute(ctx context.Context, req *Request) *Response {
	start := time.Now()

	resp := e.run(ctx, req)
	resp.Elapsed = time.Since(start)

	e.finish(req, resp)
	return resp
}

func (e *engine) run(ctx context.Context, req *Request) *Response {
	if e.cfg.TotalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.TotalTimeout)
		defer cancel()
	}

	params, err := e.resolveParams(req)
	if err != nil {
		return &Response{Err: err, InstanceID: NoInstance}
	}

	candidates, err := e.resolveCandidates(req)
	if err != nil {
		return &Response{Err: err, InstanceID: NoInstance}
	}

	completionReq := buildCompletionRequest(req, params)

	attempts := 0
	lastInstance := NoInstance
	failed := make(map[int]bool)
	var lastErr error

	for attempts <= e.cfg.MaxRetries {
		if err := ctx.Err(); err != nil {
			return &Response{
				Err:        &ExhaustedError{Task: req.Task, Attempts: attempts, LastInstanceID: lastInstance, LastErr: err},
				InstanceID: NoInstance,
				Attempts:   attempts,
			}
		}

		available := withoutFailed(candidates, failed)
		if len(available) == 0 {
			break
		}

		decision := e.admission.Decide(time.Now(), Snapshots(available))
		if !decision.Proceed {
			e.metrics.RecordAdmissionWait()
			select {
			case <-ctx.Done():
				return &Response{
					Err:        &ExhaustedError{Task: req.Task, Attempts: attempts, LastInstanceID: lastInstance, LastErr: ctx.Err()},
					InstanceID: NoInstance,
					Attempts:   attempts,
				}
			case <-time.After(decision.Delay):
			}
			continue
		}

		inst, _ := e.registry.Get(e.strategy.Select(decision.Eligible))

		attempts++
		lastInstance = inst.ID()
		result, err := e.attempt(ctx, inst, completionReq)
		if err == nil {
			e.admission.RecordSuccess()
			return &Response{
				Content:    result.Content,
				Success:    true,
				InstanceID: inst.ID(),
				Instance:   inst.Name(),
				Model:      result.Model,
				Usage:      result.Usage,
				Attempts:   attempts,
			}
		}

		lastErr = err
		if providers.IsRateLimited(err) {
			// The instance is saturated, not broken: cool it down
			// and leave it in the candidate set for later attempts.
			e.admission.MarkRateLimited(inst.ID(), time.Now(), providers.RetryAfter(err))
			e.metrics.RecordRateLimited(inst.Name())
			slog.Warn("instance rate limited",
				"instance", inst.Name(),
				"instance_id", inst.ID(),
				"task", req.Task,
			)
		} else {
			failed[inst.ID()] = true
			slog.Warn("attempt failed",
				"instance", inst.Name(),
				"instance_id", inst.ID(),
				"task", req.Task,
				"attempt", attempts,
				"error", err,
			)
		}
	}

	return &Response{
		Err:        &ExhaustedError{Task: req.Task, Attempts: attempts, LastInstanceID: lastInstance, LastErr: lastErr},
		InstanceID: NoInstance,
		Attempts:   attempts,
	}
}

// attempt makes exactly one provider call, keeping the instance counters and
// attempt metrics consistent on every path.
func (e *engine) attempt(ctx context.Context, inst *Instance, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	callCtx := ctx
	if e.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.cfg.CallTimeout)
		defer cancel()
	}

	inst.recordStart(time.Now())
	e.metrics.AttemptStarted(inst.Name())
	callStart := time.Now()

	resp, err := inst.Provider().SendCompletion(callCtx, req)

	e.metrics.AttemptFinished(inst.Name())

	if err != nil {
		inst.recordFailure(providers.IsRateLimited(err))
		e.metrics.RecordAttempt(inst.Name(), attemptResult(err))
		return nil, err
	}

	latency := time.Since(callStart)
	inst.recordSuccess(latency, resp.Usage)
	e.metrics.RecordAttempt(inst.Name(), "success")
	e.metrics.RecordTokens(inst.Name(), resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	return resp, nil
}

// resolveParams merges task defaults with request overrides.
func (e *engine) resolveParams(req *Request) (map[string]any, error) {
	if req.Task == "" {
		return req.Params, nil
	}

	def, err := e.tasks.Resolve(req.Task)
	if err != nil {
		return nil, err
	}
	return def.MergeParams(req.Params), nil
}

// resolveCandidates determines which instances may serve the request. A
// pinned instance bypasses task eligibility; an explicit id is an explicit
// override. Disabled instances never serve, pinned or not.
func (e *engine) resolveCandidates(req *Request) ([]*Instance, error) {
	if req.InstanceID != NoInstance {
		inst, ok := e.registry.Get(req.InstanceID)
		if !ok {
			return nil, &UnknownInstanceError{ID: req.InstanceID}
		}
		if !inst.Enabled() {
			return nil, &DisabledInstanceError{ID: inst.ID(), Name: inst.Name()}
		}
		return []*Instance{inst}, nil
	}

	candidates := e.registry.EligibleFor(req.Task)
	if len(candidates) == 0 {
		return nil, &NoEligibleInstanceError{Task: req.Task}
	}
	return candidates, nil
}

// finish emits the request-level telemetry.
func (e *engine) finish(req *Request, resp *Response) {
	outcome := usage.OutcomeSuccess
	if !resp.Success {
		if resp.Attempts == 0 {
			outcome = usage.OutcomeRejected
		} else {
			outcome = usage.OutcomeExhausted
		}
	}

	e.metrics.RecordRequest(req.Task, outcome, resp.Elapsed)

	if e.sink == nil {
		return
	}

	rec := usage.NewRecord()
	rec.Task = req.Task
	rec.Outcome = outcome
	rec.Attempts = resp.Attempts
	rec.LatencyMS = resp.Elapsed.Milliseconds()
	if resp.Success {
		rec.Instance = resp.Instance
		rec.InstanceID = resp.InstanceID
		rec.Model = resp.Model
		rec.PromptTokens = resp.Usage.PromptTokens
		rec.CompletionTokens = resp.Usage.CompletionTokens
		rec.TotalTokens = resp.Usage.TotalTokens
		if inst, ok := e.registry.Get(resp.InstanceID); ok {
			rec.Provider = inst.Provider().GetKind()
		}
	} else {
		rec.ErrorKind = providers.ErrorKind(resp.Err)
	}
	e.sink.Record(rec)
}

func withoutFailed(candidates []*Instance, failed map[int]bool) []*Instance {
	if len(failed) == 0 {
		return candidates
	}
	out := make([]*Instance, 0, len(candidates))
	for _, inst := range candidates {
		if !failed[inst.ID()] {
			out = append(out, inst)
		}
	}
	return out
}

func attemptResult(err error) string {
	if kind := providers.ErrorKind(err); kind != "" {
		return kind
	}
	return "unknown"
}

// buildCompletionRequest translates a dispatch request plus merged parameters
// into the provider-agnostic call shape. Parameter values arrive as YAML or
// caller-supplied any values, so numeric coercion is lenient.
func buildCompletionRequest(req *Request, params map[string]any) *providers.CompletionRequest {
	out := &providers.CompletionRequest{
		Messages: req.toMessages(),
	}

	if v, ok := intParam(params, "max_tokens"); ok {
		out.MaxTokens = v
	}
	if v, ok := floatParam(params, "temperature"); ok {
		out.Temperature = v
	}
	if v, ok := floatParam(params, "top_p"); ok {
		out.TopP = v
	}
	if v, ok := params["model"].(string); ok {
		out.Model = v
	}

	return out
}

func intParam(params map[string]any, key string) (int, bool) {
	switch v := params[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func floatParam(params map[string]any, key string) (float64, bool) {
	switch v := params[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
