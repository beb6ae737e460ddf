package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"helmsman-ai/helmsman/pkg/providers"
)

// errStreamDone signals normal stream termination.
var errStreamDone = errors.New("stream done")

// streamReader reads Server-Sent Events from an OpenAI-compatible streaming
// endpoint. Events are plain "data:" lines terminated by "data: [DONE]".
type streamReader struct {
	provider *providers.HTTPProvider
	resp     io.ReadCloser
	scanner  *bufio.Scanner
	closed   bool
}

// newStreamReader opens the streaming request and wraps its body.
func newStreamReader(ctx context.Context, provider *providers.HTTPProvider, url string, req *chatRequest, headers map[string]string) (*streamReader, error) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := provider.DoRequest(ctx, "POST", url, bodyBytes, headers)
	if err != nil {
		return nil, err
	}

	return &streamReader{
		provider: provider,
		resp:     resp.Body,
		scanner:  bufio.NewScanner(resp.Body),
	}, nil
}

// Read returns the next content chunk, or errStreamDone when the stream ends.
func (s *streamReader) Read(ctx context.Context) (*providers.StreamChunk, error) {
	if s.closed {
		return nil, errStreamDone
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		data, err := s.readData()
		if err != nil {
			if err == io.EOF {
				return nil, errStreamDone
			}
			return nil, &providers.StreamError{
				Provider: s.provider.GetName(),
				Message:  "failed to read stream",
				Cause:    err,
			}
		}

		if data == "[DONE]" {
			return nil, errStreamDone
		}

		var event streamResponse
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			return nil, &providers.ParseError{
				Provider:    s.provider.GetName(),
				RawResponse: data,
				Cause:       fmt.Errorf("failed to parse stream event: %w", err),
			}
		}

		if len(event.Choices) == 0 {
			// Usage-only chunk or keepalive
			continue
		}

		choice := event.Choices[0]
		chunk := &providers.StreamChunk{
			ID:           event.ID,
			Model:        event.Model,
			Delta:        choice.Delta.Content,
			FinishReason: normalizeFinishReason(choice.FinishReason),
		}
		if event.Usage != nil {
			chunk.Usage = &providers.TokenUsage{
				PromptTokens:     event.Usage.PromptTokens,
				CompletionTokens: event.Usage.CompletionTokens,
				TotalTokens:      event.Usage.TotalTokens,
			}
		}

		// Role-only preamble chunks carry no content
		if chunk.Delta == "" && chunk.FinishReason == "" {
			continue
		}

		return chunk, nil
	}
}

// readData reads the next non-empty data line from the body.
func (s *streamReader) readData() (string, error) {
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "data:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "data:")), nil
		}
		// Ignore other SSE fields (event, id, retry)
	}

	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// Close closes the stream and releases the connection.
func (s *streamReader) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.resp.Close()
}
