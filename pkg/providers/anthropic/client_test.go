package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"helmsman-ai/helmsman/pkg/providers"
)

func newTestProvider(t *testing.T, baseURL string) *Provider {
	t.Helper()
	p, err := NewProvider(providers.ProviderConfig{
		Name:    "anthropic-test",
		Model:   "claude-sonnet-4-5",
		APIKey:  "test-key",
		BaseURL: baseURL,
	})
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	return p
}

func TestNewProviderValidation(t *testing.T) {
	if _, err := NewProvider(providers.ProviderConfig{APIKey: "k"}); err == nil {
		t.Error("expected error for missing name")
	}
	if _, err := NewProvider(providers.ProviderConfig{Name: "a"}); err == nil {
		t.Error("expected error for missing API key")
	}

	p, err := NewProvider(providers.ProviderConfig{Name: "a", APIKey: "k"})
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	if p.GetConfig().BaseURL != DefaultBaseURL {
		t.Errorf("expected default base URL, got %q", p.GetConfig().BaseURL)
	}
	if p.GetKind() != "anthropic" {
		t.Errorf("expected kind anthropic, got %q", p.GetKind())
	}
}

func TestSendCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("anthropic-version") != APIVersion {
			t.Errorf("missing version header")
		}

		var req messagesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Model != "claude-sonnet-4-5" {
			t.Errorf("expected default model, got %q", req.Model)
		}
		if req.System != "be terse" {
			t.Errorf("expected system message extracted, got %q", req.System)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("expected one user message, got %+v", req.Messages)
		}
		if req.MaxTokens != 1024 {
			t.Errorf("expected default max_tokens 1024, got %d", req.MaxTokens)
		}

		json.NewEncoder(w).Encode(messagesResponse{
			ID:         "msg_1",
			Model:      "claude-sonnet-4-5",
			Content:    []contentBlock{{Type: "text", Text: "Hello"}, {Type: "text", Text: " there"}},
			StopReason: "end_turn",
			Usage:      usage{InputTokens: 12, OutputTokens: 4},
		})
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	defer p.Close()

	resp, err := p.SendCompletion(context.Background(), &providers.CompletionRequest{
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Content: "be terse"},
			{Role: providers.RoleUser, Content: "hi"},
		},
	})
	if err != nil {
		t.Fatalf("SendCompletion failed: %v", err)
	}

	if resp.Content != "Hello there" {
		t.Errorf("expected concatenated content, got %q", resp.Content)
	}
	if resp.FinishReason != providers.FinishReasonStop {
		t.Errorf("expected finish reason stop, got %q", resp.FinishReason)
	}
	if resp.Usage.TotalTokens != 16 {
		t.Errorf("expected 16 total tokens, got %d", resp.Usage.TotalTokens)
	}
}

func TestSendCompletionValidation(t *testing.T) {
	p := newTestProvider(t, "http://unused")
	defer p.Close()

	if _, err := p.SendCompletion(context.Background(), nil); err == nil {
		t.Error("expected error for nil request")
	}
	if _, err := p.SendCompletion(context.Background(), &providers.CompletionRequest{}); err == nil {
		t.Error("expected error for empty messages")
	}
}

func TestStreamCompletion(t *testing.T) {
	sse := `event: message_start
data: {"type":"message_start","message":{"id":"msg_1","model":"claude-sonnet-4-5","usage":{"input_tokens":10}}}

event: content_block_delta
data: {"type":"content_block_delta","delta":{"type":"text_delta","text":"Hel"}}

event: content_block_delta
data: {"type":"content_block_delta","delta":{"type":"text_delta","text":"lo"}}

event: message_delta
data: {"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":2}}

event: message_stop
data: {"type":"message_stop"}

`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(sse))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	defer p.Close()

	chunks, err := p.StreamCompletion(context.Background(), &providers.CompletionRequest{
		Messages: []providers.Message{{Role: providers.RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("StreamCompletion failed: %v", err)
	}

	var content string
	var final *providers.StreamChunk
	for chunk := range chunks {
		if chunk.Error != nil {
			t.Fatalf("unexpected stream error: %v", chunk.Error)
		}
		content += chunk.Delta
		if chunk.FinishReason != "" {
			final = chunk
		}
	}

	if content != "Hello" {
		t.Errorf("expected streamed content Hello, got %q", content)
	}
	if final == nil {
		t.Fatal("expected a final chunk with finish reason")
	}
	if final.FinishReason != providers.FinishReasonStop {
		t.Errorf("expected finish reason stop, got %q", final.FinishReason)
	}
	if final.Usage == nil || final.Usage.TotalTokens != 12 {
		t.Errorf("expected final usage 12 tokens, got %+v", final.Usage)
	}
}

func TestNormalizeStopReason(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"end_turn", providers.FinishReasonStop},
		{"stop_sequence", providers.FinishReasonStop},
		{"max_tokens", providers.FinishReasonLength},
		{"tool_use", "tool_use"},
	}
	for _, tt := range tests {
		if got := normalizeStopReason(tt.in); got != tt.want {
			t.Errorf("normalizeStopReason(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
