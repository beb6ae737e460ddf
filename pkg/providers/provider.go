package providers

import "context"

// Provider is the capability interface implemented by every backend adapter.
// It provides a unified abstraction for sending completion requests to
// different LLM services (Anthropic, OpenAI, OpenAI-compatible local or
// hosted endpoints).
//
// All methods accept a context.Context for cancellation and timeout control.
// Implementations must respect context cancellation and return promptly when
// the context is cancelled.
//
// A Provider performs exactly one attempt per call: retry and failover are
// the dispatch engine's responsibility, not the adapter's.
type Provider interface {
	// SendCompletion sends a completion request and returns the normalized
	// response. The request is transformed to the provider-specific wire
	// format; the response is normalized back.
	//
	// Errors are typed: AuthError, RateLimitError, TimeoutError,
	// TransportError, RejectedError, ProviderError (unknown).
	SendCompletion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// StreamCompletion sends a streaming completion request. It returns a
	// channel that yields incremental chunks as they arrive.
	//
	// The caller must read from the channel until it closes. If an error
	// occurs mid-stream, it is delivered in the Error field of the final
	// chunk before the channel closes. Cancelling the context closes the
	// stream and releases the underlying connection.
	StreamCompletion(ctx context.Context, req *CompletionRequest) (<-chan *StreamChunk, error)

	// GetName returns the instance's configured display name.
	GetName() string

	// GetKind returns the backend kind (e.g. "anthropic", "openai", "groq").
	GetKind() string

	// GetModel returns the model identifier this adapter is configured for.
	GetModel() string

	// GetConfig returns the adapter's configuration.
	GetConfig() ProviderConfig

	// Close releases the adapter's resources (idle HTTP connections).
	Close() error
}

// StreamReader abstracts the SSE protocol used by a provider's streaming
// endpoint. Adapters use it internally to turn wire events into chunks.
type StreamReader interface {
	// Read returns the next chunk, or nil and io.EOF when the stream ends
	// normally, or nil and an error when the stream fails.
	Read(ctx context.Context) (*StreamChunk, error)

	// Close closes the stream and releases resources.
	Close() error
}
