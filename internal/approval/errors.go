package approval

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned for any action from a non-designated
	// reviewer. Callers reply with a generic denial and reveal nothing.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNoSession means a text message arrived while no rename is pending.
	ErrNoSession = errors.New("no active session")
	// ErrSessionExpired means the rename window closed before the name
	// arrived; the candidate has been reopened for a fresh approval.
	ErrSessionExpired = errors.New("session expired")
)

// ValidationError reports which rule a candidate name violated. The session
// stays open so the reviewer can retry.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid name: %s", e.Reason)
}

// UpstreamError wraps a failure of the source download or the storage upload.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
