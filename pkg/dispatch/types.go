package dispatch

import (
	"time"

	"helmsman-ai/helmsman/pkg/providers"
)

// NoInstance marks a request that leaves instance selection to the router.
const NoInstance = -1

// Request is one generation request handed to the Manager.
type Request struct {
	// Prompt is the user prompt. Ignored when Messages is set.
	Prompt string

	// Messages optionally carries a full conversation instead of Prompt.
	Messages []providers.Message

	// Task names a defined task whose default parameters apply. Empty
	// means no task: any instance may serve the request and only Params
	// shape the call.
	Task string

	// Params overrides task defaults key by key. Recognized keys are
	// max_tokens, temperature and top_p.
	Params map[string]any

	// InstanceID pins the request to one instance, bypassing strategy
	// selection but not admission control. NoInstance leaves routing to
	// the configured strategy.
	InstanceID int
}

// NewRequest creates a prompt request with routing left to the strategy.
func NewRequest(prompt string) *Request {
	return &Request{
		Prompt:     prompt,
		InstanceID: NoInstance,
	}
}

// WithTask sets the task name.
func (r *Request) WithTask(task string) *Request {
	r.Task = task
	return r
}

// WithParam sets one parameter override.
func (r *Request) WithParam(key string, value any) *Request {
	if r.Params == nil {
		r.Params = make(map[string]any)
	}
	r.Params[key] = value
	return r
}

// WithInstance pins the request to an instance id.
func (r *Request) WithInstance(id int) *Request {
	r.InstanceID = id
	return r
}

// Response is the outcome of one generation request.
type Response struct {
	// Content is the generated text. Empty on failure.
	Content string

	// Success reports whether any attempt succeeded.
	Success bool

	// Err carries the terminal error when Success is false.
	Err error

	// InstanceID identifies the instance that served the final attempt,
	// or NoInstance when no attempt was made.
	InstanceID int

	// Instance is that instance's name.
	Instance string

	// Model is the model that produced the content.
	Model string

	// Usage holds token counts from the successful attempt.
	Usage providers.TokenUsage

	// Attempts is the number of provider calls made.
	Attempts int

	// Elapsed is the end-to-end request duration including retries.
	Elapsed time.Duration
}

// toMessages normalizes the request into a message list.
func (r *Request) toMessages() []providers.Message {
	if len(r.Messages) > 0 {
		return r.Messages
	}
	return []providers.Message{
		{Role: providers.RoleUser, Content: r.Prompt},
	}
}
