// Package providertest provides a scriptable in-memory provider for tests.
package providertest

import (
	"context"
	"sync"
	"time"

	"helmsman-ai/helmsman/pkg/providers"
)

// Result scripts one provider call: either Err fires or Content is returned.
type Result struct {
	Content string
	Err     error
	Usage   providers.TokenUsage
}

// MockProvider is a scriptable Provider implementation. Calls consume the
// script in order; once the script is exhausted the last entry repeats. An
// empty script always succeeds with "mock response".
type MockProvider struct {
	name  string
	kind  string
	model string

	mu     sync.Mutex
	script []Result
	calls  int

	// Delay is applied before each call returns, honoring the context.
	Delay time.Duration

	// StreamChunks is the scripted stream; StreamErr fails the stream
	// call itself.
	StreamChunks []*providers.StreamChunk
	StreamErr    error
}

// New creates a mock provider with the given name.
func New(name string) *MockProvider {
	return &MockProvider{
		name:  name,
		kind:  "mock",
		model: "mock-model",
	}
}

// Script replaces the call script.
func (m *MockProvider) Script(results ...Result) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = results
	return m
}

// Calls returns the number of completion calls made, streaming included.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// SendCompletion consumes the next scripted result.
func (m *MockProvider) SendCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	res := m.next()

	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, &providers.TimeoutError{Provider: m.name, Timeout: m.Delay}
		case <-time.After(m.Delay):
		}
	}

	if res.Err != nil {
		return nil, res.Err
	}

	content := res.Content
	if content == "" {
		content = "mock response"
	}
	return &providers.CompletionResponse{
		ID:           "mock-id",
		Model:        m.model,
		Content:      content,
		FinishReason: providers.FinishReasonStop,
		Usage:        res.Usage,
		Created:      time.Now().Unix(),
	}, nil
}

// StreamCompletion replays the scripted chunks on a channel.
func (m *MockProvider) StreamCompletion(ctx context.Context, req *providers.CompletionRequest) (<-chan *providers.StreamChunk, error) {
	m.mu.Lock()
	m.calls++
	err := m.StreamErr
	chunks := m.StreamChunks
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}

	out := make(chan *providers.StreamChunk, len(chunks))
	go func() {
		defer close(out)
		for _, c := range chunks {
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (m *MockProvider) next() Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if len(m.script) == 0 {
		return Result{}
	}
	idx := m.calls - 1
	if idx >= len(m.script) {
		idx = len(m.script) - 1
	}
	return m.script[idx]
}

// GetName returns the provider name.
func (m *MockProvider) GetName() string { return m.name }

// GetKind returns "mock".
func (m *MockProvider) GetKind() string { return m.kind }

// GetModel returns the mock model name.
func (m *MockProvider) GetModel() string { return m.model }

// GetConfig returns an empty configuration.
func (m *MockProvider) GetConfig() providers.ProviderConfig {
	return providers.ProviderConfig{Name: m.name, Kind: m.kind, Model: m.model}
}

// Close is a no-op.
func (m *MockProvider) Close() error { return nil }
