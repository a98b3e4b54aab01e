package services

import (
	"errors"
	"fmt"
)

// Engine failure taxonomy. Handlers map these onto HTTP statuses; the pure
// computations (normalizer, scoring, heuristics) never return any of them.

// ValidationError is a user-correctable gate failure (policy, selection,
// reason). No partial mutation happens when one is returned.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// NotFoundError marks a referenced record that does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// UpstreamError wraps a collaborator failure. Local state is left unchanged
// so the caller may retry.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ErrStaleResponse marks a background load that resolved after it was
// superseded by a newer requisition selection. Callers discard it silently.
var ErrStaleResponse = errors.New("stale response: superseded by a newer requisition selection")

// ErrTransitionInFlight is returned when a lifecycle transition is attempted
// while another one is still outstanding for the same session.
var ErrTransitionInFlight = errors.New("a save or submit is already in progress")
