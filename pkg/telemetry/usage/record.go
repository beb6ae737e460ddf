// Package usage collects per-request accounting records from the dispatch
// engine. Emission is fire-and-forget: the engine hands records to a Sink and
// never blocks or fails on their behalf.
package usage

import (
	"time"

	"github.com/google/uuid"
)

// Outcome values for a completed request.
const (
	OutcomeSuccess   = "success"
	OutcomeExhausted = "exhausted"
	OutcomeRejected  = "rejected"
)

// Record is one completed generation request.
type Record struct {
	// ID uniquely identifies the record.
	ID string `json:"id"`

	// Time is when the request completed.
	Time time.Time `json:"time"`

	// Task is the task name the request referenced, if any.
	Task string `json:"task,omitempty"`

	// Instance identifies the instance that served the final attempt.
	Instance string `json:"instance,omitempty"`

	// InstanceID is the numeric id of that instance, or -1.
	InstanceID int `json:"instance_id"`

	// Provider and Model describe the serving backend.
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`

	// Outcome is success, exhausted or rejected.
	Outcome string `json:"outcome"`

	// ErrorKind classifies the final error for non-success outcomes.
	ErrorKind string `json:"error_kind,omitempty"`

	// Attempts is the number of provider calls made.
	Attempts int `json:"attempts"`

	// Token counts from the final successful attempt.
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	// LatencyMS is the end-to-end request latency in milliseconds.
	LatencyMS int64 `json:"latency_ms"`

	// Streamed marks records produced by streaming requests.
	Streamed bool `json:"streamed,omitempty"`
}

// NewRecord creates a record with a fresh id and the current time.
func NewRecord() *Record {
	return &Record{
		ID:         uuid.New().String(),
		Time:       time.Now().UTC(),
		InstanceID: -1,
	}
}
