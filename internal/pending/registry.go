// Package pending owns all in-memory workflow state: the candidates awaiting a
// reviewer decision and the reviewer's rename session. Both maps live behind
// one mutex and are only reachable through check-and-set operations, so
// concurrent duplicate actions (a double-tapped button, a redelivered update)
// lose cleanly instead of double-processing.
//
// Nothing in this package is persisted. A restart drops all pending work,
// which is an accepted property of the system.
package pending

import (
	"errors"
	"sync"
	"time"

	"mediarelay/internal/ids"
	"mediarelay/internal/models"
)

var (
	// ErrNotFound means the handle is unknown or already finalized.
	ErrNotFound = errors.New("candidate not found")
	// ErrInvalidTransition means the handle exists but is not in the state
	// the operation requires, i.e. the action was already handled.
	ErrInvalidTransition = errors.New("invalid candidate transition")
)

type Registry struct {
	mu         sync.Mutex
	candidates map[string]*models.FileCandidate
	sessions   map[int64]models.ReviewerSession
}

func NewRegistry() *Registry {
	return &Registry{
		candidates: make(map[string]*models.FileCandidate),
		sessions:   make(map[int64]models.ReviewerSession),
	}
}

// Insert stores the candidate as awaiting review under a freshly allocated
// handle and returns the handle.
func (r *Registry) Insert(candidate models.FileCandidate) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	handle := ids.New()
	for _, exists := r.candidates[handle]; exists; _, exists = r.candidates[handle] {
		handle = ids.New()
	}

	candidate.Handle = handle
	candidate.Status = models.StatusAwaitingReview
	candidate.ApprovedAt = nil
	if candidate.CreatedAt.IsZero() {
		candidate.CreatedAt = time.Now().UTC()
	}
	r.candidates[handle] = &candidate
	return handle
}

// Get returns a copy of the candidate. Absence is not an error at this layer;
// callers translate it into a "not found" reply.
func (r *Registry) Get(handle string) (models.FileCandidate, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.candidates[handle]
	if !ok {
		return models.FileCandidate{}, false
	}
	return *c, true
}

// Remove deletes the candidate. Removing an absent handle is a no-op.
func (r *Registry) Remove(handle string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.candidates, handle)
}

// MarkAwaitingRename transitions awaiting_review -> awaiting_rename and stamps
// the approval time. The losing side of a concurrent double-approve gets
// ErrInvalidTransition.
func (r *Registry) MarkAwaitingRename(handle string, approvedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.candidates[handle]
	if !ok {
		return ErrNotFound
	}
	if c.Status != models.StatusAwaitingReview {
		return ErrInvalidTransition
	}
	at := approvedAt.UTC()
	c.Status = models.StatusAwaitingRename
	c.ApprovedAt = &at
	return nil
}

// Reopen reverts awaiting_rename -> awaiting_review after a session timeout,
// so the reviewer can approve again from the original keyboard.
func (r *Registry) Reopen(handle string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.candidates[handle]
	if !ok {
		return ErrNotFound
	}
	if c.Status != models.StatusAwaitingRename {
		return ErrInvalidTransition
	}
	c.Status = models.StatusAwaitingReview
	c.ApprovedAt = nil
	return nil
}

// SetPromptMessage remembers the reviewer-side message carrying the
// approve/reject keyboard for later in-place edits.
func (r *Registry) SetPromptMessage(handle string, messageID int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.candidates[handle]; ok {
		c.PromptMessageID = messageID
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.candidates)
}

// BeginSession points the reviewer's session at the handle, replacing any
// previous session.
func (r *Registry) BeginSession(reviewerID int64, handle string, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[reviewerID] = models.ReviewerSession{
		Handle: handle,
		Since:  now.UTC(),
	}
}

// SessionFor reports the reviewer's active session. Absence of an entry is the
// only "no session" state; empty sessions are never stored.
func (r *Registry) SessionFor(reviewerID int64) (models.ReviewerSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[reviewerID]
	return s, ok
}

// TakeSession atomically reads and deletes the reviewer's session, but only
// if it still points at the given handle. The losing side of two concurrent
// name submissions gets false and must not start an upload.
func (r *Registry) TakeSession(reviewerID int64, handle string) (models.ReviewerSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[reviewerID]
	if !ok || s.Handle != handle {
		return models.ReviewerSession{}, false
	}
	delete(r.sessions, reviewerID)
	return s, true
}

// ClearSession deletes the reviewer's session. Idempotent.
func (r *Registry) ClearSession(reviewerID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, reviewerID)
}
