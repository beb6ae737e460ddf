package anthropic

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

// streamReader reads Server-Sent Events from Anthropic's streaming API.
type streamReader struct {
	provider *providers.HTTPProvider
	resp     io.ReadCloser
	scanner  *bufio.Scanner
	id       string
	model    string
	usage    usage
	closed   bool
}

// newStreamReader opens the streaming request and wraps its body.
func newStreamReader(ctx context.Context, provider *providers.HTTPProvider, url string, req *messagesRequest, headers map[string]string) (*streamReader, error) {
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

		event, err := s.readEvent()
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
		if event == nil {
			continue
		}

		switch event.Type {
		case "message_start":
			if event.Message != nil {
				s.id = event.Message.ID
				s.model = event.Message.Model
				s.usage.InputTokens = event.Message.Usage.InputTokens
			}

		case "content_block_delta":
			if event.Delta == nil {
				continue
			}
			return &providers.StreamChunk{
				ID:    s.id,
				Model: s.model,
				Delta: event.Delta.Text,
			}, nil

		case "message_delta":
			if event.Usage != nil {
				s.usage.OutputTokens = event.Usage.OutputTokens
			}
			if event.Delta != nil && event.Delta.StopReason != "" {
				total := s.usage.InputTokens + s.usage.OutputTokens
				return &providers.StreamChunk{
					ID:           s.id,
					Model:        s.model,
					FinishReason: normalizeStopReason(event.Delta.StopReason),
					Usage: &providers.TokenUsage{
						PromptTokens:     s.usage.InputTokens,
						CompletionTokens: s.usage.OutputTokens,
						TotalTokens:      total,
					},
				}, nil
			}

		case "message_stop":
			return nil, errStreamDone

		case "error":
			return nil, &providers.StreamError{
				Provider: s.provider.GetName(),
				Message:  "provider reported stream error",
			}
		}
		// ping, content_block_start, content_block_stop carry no content
	}
}

// readEvent reads one complete SSE event from the body.
func (s *streamReader) readEvent() (*streamEvent, error) {
	var eventType string
	var dataLines []string

	for s.scanner.Scan() {
		line := s.scanner.Text()

		// Empty line marks end of event
		if line == "" {
			if eventType != "" || len(dataLines) > 0 {
				break
			}
			continue
		}

		if strings.HasPrefix(line, "event: ") {
			eventType = strings.TrimPrefix(line, "event: ")
		} else if strings.HasPrefix(line, "data: ") {
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		}
		// Ignore other SSE fields (id, retry)
	}

	if err := s.scanner.Err(); err != nil {
		return nil, err
	}

	if eventType == "" && len(dataLines) == 0 {
		return nil, io.EOF
	}

	var event streamEvent
	if len(dataLines) > 0 {
		data := strings.Join(dataLines, "\n")
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			return nil, &providers.ParseError{
				Provider:    s.provider.GetName(),
				RawResponse: data,
				Cause:       fmt.Errorf("failed to parse stream event: %w", err),
			}
		}
	}
	if eventType != "" && event.Type == "" {
		event.Type = eventType
	}

	return &event, nil
}

// Close closes the stream and releases the connection.
func (s *streamReader) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.resp.Close()
}
