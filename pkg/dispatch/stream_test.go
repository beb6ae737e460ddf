package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"helmsman-ai/helmsman/internal/providertest"
	"helmsman-ai/helmsman/pkg/providers"
	"helmsman-ai/helmsman/pkg/telemetry/usage"
)

func TestGenerateStreamDeliversChunks(t *testing.T) {
	mock := providertest.New("streamer")
	mock.StreamChunks = []*providers.StreamChunk{
		{Delta: "Hello"},
		{Delta: ", world"},
		{FinishReason: providers.FinishReasonStop, Usage: &providers.TokenUsage{
			PromptTokens: 2, CompletionTokens: 3, TotalTokens: 5,
		}},
	}

	m, err := NewBuilder().AddInstance(mock).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer m.Close()

	chunks, err := m.GenerateStream(context.Background(), NewRequest("hi"))
	if err != nil {
		t.Fatalf("GenerateStream failed: %v", err)
	}

	var got string
	var finish string
	for chunk := range chunks {
		if chunk.Error != nil {
			t.Fatalf("unexpected stream error: %v", chunk.Error)
		}
		got += chunk.Delta
		if chunk.FinishReason != "" {
			finish = chunk.FinishReason
		}
	}

	if got != "Hello, world" {
		t.Errorf("expected assembled content, got %q", got)
	}
	if finish != providers.FinishReasonStop {
		t.Errorf("expected finish reason stop, got %q", finish)
	}

	// Stream completion settles the instance counters
	deadline := time.Now().Add(time.Second)
	for {
		snap := m.Stats()[0]
		if snap.InFlight == 0 && snap.Completion == 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("counters not settled: in_flight=%d completion=%d",
				snap.InFlight, snap.Completion)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestGenerateStreamMidStreamErrorNoFailover(t *testing.T) {
	failing := providertest.New("failing")
	failing.StreamChunks = []*providers.StreamChunk{
		{Delta: "partial "},
		{Delta: "output"},
		{Error: &providers.StreamError{Provider: "failing", Message: "connection reset"}},
	}
	standby := providertest.New("standby")

	m, err := NewBuilder().AddInstance(failing).AddInstance(standby).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer m.Close()

	chunks, err := m.GenerateStream(context.Background(), NewRequest("hi").WithInstance(0))
	if err != nil {
		t.Fatalf("GenerateStream failed: %v", err)
	}

	var got string
	var streamErr error
	for chunk := range chunks {
		if chunk.Error != nil {
			streamErr = chunk.Error
			continue
		}
		got += chunk.Delta
	}

	if got != "partial output" {
		t.Errorf("expected partial output before the failure, got %q", got)
	}
	if streamErr == nil {
		t.Fatal("expected an error chunk")
	}
	if standby.Calls() != 0 {
		t.Errorf("mid-stream failure must not fail over: standby got %d calls", standby.Calls())
	}
}

func TestGenerateStreamOpenFailure(t *testing.T) {
	mock := providertest.New("closed")
	mock.StreamErr = &providers.TransportError{Provider: "closed", Cause: errors.New("refused")}

	m, err := NewBuilder().AddInstance(mock).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer m.Close()

	_, err = m.GenerateStream(context.Background(), NewRequest("hi"))
	if err == nil {
		t.Fatal("expected error when the stream cannot open")
	}

	var transport *providers.TransportError
	if !errors.As(err, &transport) {
		t.Errorf("expected TransportError, got %T", err)
	}

	if got := m.Stats()[0].InFlight; got != 0 {
		t.Errorf("in_flight not restored after open failure, got %d", got)
	}
}

func TestGenerateStreamUnknownTask(t *testing.T) {
	mock := providertest.New("idle")

	m, err := NewBuilder().AddInstance(mock).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer m.Close()

	_, err = m.GenerateStream(context.Background(), NewRequest("hi").WithTask("nope"))
	if err == nil {
		t.Fatal("expected error for unknown task")
	}
	if mock.Calls() != 0 {
		t.Errorf("expected zero provider calls, got %d", mock.Calls())
	}
}

func TestGenerateStreamUsageRecord(t *testing.T) {
	sink := &captureSink{}
	mock := providertest.New("streamer")
	mock.StreamChunks = []*providers.StreamChunk{
		{Delta: "x"},
		{FinishReason: providers.FinishReasonStop, Usage: &providers.TokenUsage{
			PromptTokens: 1, CompletionTokens: 1, TotalTokens: 2,
		}},
	}

	m, err := NewBuilder().AddInstance(mock).WithUsageSink(sink).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer m.Close()

	chunks, err := m.GenerateStream(context.Background(), NewRequest("hi"))
	if err != nil {
		t.Fatalf("GenerateStream failed: %v", err)
	}
	for range chunks {
	}

	deadline := time.Now().Add(time.Second)
	for {
		recs := sink.all()
		if len(recs) == 1 {
			if !recs[0].Streamed {
				t.Error("expected streamed record")
			}
			if recs[0].Outcome != usage.OutcomeSuccess {
				t.Errorf("expected success outcome, got %s", recs[0].Outcome)
			}
			if recs[0].TotalTokens != 2 {
				t.Errorf("expected 2 tokens, got %d", recs[0].TotalTokens)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected 1 usage record, got %d", len(recs))
		}
		time.Sleep(time.Millisecond)
	}
}
