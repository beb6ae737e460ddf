package dispatch

import (
	"fmt"
)

// UnknownInstanceError is returned when a request pins an instance id that
// does not exist in the registry.
type UnknownInstanceError struct {
	ID int
}

func (e *UnknownInstanceError) Error() string {
	return fmt.Sprintf("instance %d does not exist", e.ID)
}

// NoEligibleInstanceError is returned before any provider call when no
// instance in the pool can serve the request's task.
type NoEligibleInstanceError struct {
	Task string
}

func (e *NoEligibleInstanceError) Error() string {
	if e.Task == "" {
		return "no instance is eligible for untagged requests"
	}
	return fmt.Sprintf("no instance supports task %q", e.Task)
}

// DisabledInstanceError is returned when a request pins an instance that is
// registered but disabled.
type DisabledInstanceError struct {
	ID   int
	Name string
}

func (e *DisabledInstanceError) Error() string {
	return fmt.Sprintf("instance %d (%s) is disabled", e.ID, e.Name)
}

// ExhaustedError is returned when the attempt budget ran out or every
// eligible instance failed during the request.
type ExhaustedError struct {
	Task     string
	Attempts int

	// LastInstanceID identifies the last instance tried, or NoInstance
	// when no provider call was made.
	LastInstanceID int

	// LastErr is the error from the final attempt, if any was made.
	LastErr error
}

func (e *ExhaustedError) Error() string {
	msg := fmt.Sprintf("request exhausted after %d attempt(s)", e.Attempts)
	if e.Task != "" {
		msg += fmt.Sprintf(" for task %q", e.Task)
	}
	if e.LastInstanceID != NoInstance {
		msg += fmt.Sprintf(" (last instance %d)", e.LastInstanceID)
	}
	if e.LastErr != nil {
		msg += ": " + e.LastErr.Error()
	}
	return msg
}

func (e *ExhaustedError) Unwrap() error {
	return e.LastErr
}
