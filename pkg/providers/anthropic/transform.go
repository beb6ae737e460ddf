package anthropic

import (
	"fmt"
	"strings"
	"time"

	"helmsman-ai/helmsman/pkg/providers"
)

// Anthropic Messages API wire types.

type messagesRequest struct {
	Model         string    `json:"model"`
	Messages      []message `json:"messages"`
	System        string    `json:"system,omitempty"`
	MaxTokens     int       `json:"max_tokens"`
	Temperature   float64   `json:"temperature,omitempty"`
	TopP          float64   `json:"top_p,omitempty"`
	Stream        bool      `json:"stream,omitempty"`
	StopSequences []string  `json:"stop_sequences,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type messagesResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       string         `json:"role"`
	Content    []contentBlock `json:"content"`
	Model      string         `json:"model"`
	StopReason string         `json:"stop_reason"`
	Usage      usage          `json:"usage"`
}

type usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Streaming wire types.

type streamEvent struct {
	Type string `json:"type"`

	// For message_start
	Message *messagesResponse `json:"message,omitempty"`

	// For content_block_delta and message_delta
	Index int          `json:"index,omitempty"`
	Delta *streamDelta `json:"delta,omitempty"`
	Usage *usage       `json:"usage,omitempty"`
}

type streamDelta struct {
	Type       string `json:"type"`
	Text       string `json:"text,omitempty"`
	StopReason string `json:"stop_reason,omitempty"`
}

// transformRequest converts a provider-agnostic request to the Messages API
// format. System messages become the top-level system field; Anthropic
// requires max_tokens, so an unset value gets a default.
func transformRequest(req *providers.CompletionRequest, defaultModel string) *messagesRequest {
	out := &messagesRequest{
		Model:         req.Model,
		Messages:      make([]message, 0, len(req.Messages)),
		MaxTokens:     req.MaxTokens,
		Temperature:   req.Temperature,
		TopP:          req.TopP,
		Stream:        req.Stream,
		StopSequences: req.Stop,
	}

	if out.Model == "" {
		out.Model = defaultModel
	}
	if out.MaxTokens == 0 {
		out.MaxTokens = 1024
	}

	var systemParts []string
	for _, m := range req.Messages {
		if m.Role == providers.RoleSystem {
			systemParts = append(systemParts, m.Content)
			continue
		}
		out.Messages = append(out.Messages, message{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	out.System = strings.Join(systemParts, "\n")

	return out
}

// transformResponse normalizes a Messages API response.
func transformResponse(resp *messagesResponse) (*providers.CompletionResponse, error) {
	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("response contains no content blocks")
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &providers.CompletionResponse{
		ID:           resp.ID,
		Model:        resp.Model,
		Content:      text.String(),
		FinishReason: normalizeStopReason(resp.StopReason),
		Usage: providers.TokenUsage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
		Created: time.Now().Unix(),
	}, nil
}

// normalizeStopReason maps Anthropic stop reasons to the shared constants.
func normalizeStopReason(reason string) string {
	switch reason {
	case "end_turn", "stop_sequence":
		return providers.FinishReasonStop
	case "max_tokens":
		return providers.FinishReasonLength
	default:
		return reason
	}
}
