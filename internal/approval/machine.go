// Package approval drives a file candidate through its lifecycle in response
// to reviewer actions: approve, reject, and the free-text name submission that
// completes an approval. All collaborator I/O sits behind interfaces so the
// transition logic is testable without Telegram, MinIO, or Postgres.
package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"mediarelay/internal/ids"
	"mediarelay/internal/models"
	"mediarelay/internal/pending"
)

// Feed fetches the raw bytes of a source-channel file on demand.
type Feed interface {
	FetchBytes(ctx context.Context, sourceRef string) ([]byte, error)
}

// Gateway copies bytes to durable storage and returns the public location.
type Gateway interface {
	Upload(ctx context.Context, data []byte, filename string, kind models.MediaKind) (string, error)
}

// Recorder persists the trace of a finalized upload. Recording is best
// effort; a recording failure never fails the upload.
type Recorder interface {
	Record(ctx context.Context, rec models.UploadRecord) error
}

// SubmitResult is the outcome of a name submission. On ErrSessionExpired and
// on upstream failures the Candidate field carries the reopened candidate so
// the caller can re-offer the approval keyboard.
type SubmitResult struct {
	Candidate models.FileCandidate
	FinalName string
	URL       string
}

type Machine struct {
	registry       *pending.Registry
	feed           Feed
	gateway        Gateway
	recorder       Recorder
	reviewerID     int64
	sessionTimeout time.Duration
	log            zerolog.Logger
	now            func() time.Time
}

func NewMachine(
	registry *pending.Registry,
	feed Feed,
	gateway Gateway,
	recorder Recorder,
	reviewerID int64,
	sessionTimeout time.Duration,
	log zerolog.Logger,
) *Machine {
	return &Machine{
		registry:       registry,
		feed:           feed,
		gateway:        gateway,
		recorder:       recorder,
		reviewerID:     reviewerID,
		sessionTimeout: sessionTimeout,
		log:            log,
		now:            time.Now,
	}
}

func (m *Machine) authorize(reviewerID int64) error {
	if reviewerID != m.reviewerID {
		return ErrUnauthorized
	}
	return nil
}

// Approve moves the candidate to awaiting_rename and opens a rename session
// for the reviewer. A duplicate approve loses the check-and-set and returns
// pending.ErrInvalidTransition.
func (m *Machine) Approve(reviewerID int64, handle string) (models.FileCandidate, error) {
	if err := m.authorize(reviewerID); err != nil {
		return models.FileCandidate{}, err
	}

	now := m.now()
	if err := m.registry.MarkAwaitingRename(handle, now); err != nil {
		return models.FileCandidate{}, err
	}
	m.registry.BeginSession(reviewerID, handle, now)

	candidate, _ := m.registry.Get(handle)
	m.log.Info().
		Str("handle", handle).
		Str("name", candidate.OriginalName).
		Msg("candidate approved, awaiting rename")
	return candidate, nil
}

// Reject removes the candidate regardless of its state. If the reviewer's
// session points at the rejected handle it is cleared too.
func (m *Machine) Reject(reviewerID int64, handle string) (models.FileCandidate, error) {
	if err := m.authorize(reviewerID); err != nil {
		return models.FileCandidate{}, err
	}

	candidate, ok := m.registry.Get(handle)
	if !ok {
		return models.FileCandidate{}, pending.ErrNotFound
	}
	m.registry.Remove(handle)
	if s, ok := m.registry.SessionFor(reviewerID); ok && s.Handle == handle {
		m.registry.ClearSession(reviewerID)
	}

	m.log.Info().
		Str("handle", handle).
		Str("name", candidate.OriginalName).
		Msg("candidate rejected")
	return candidate, nil
}

// SubmitName completes an approval: it validates the supplied display name,
// downloads the source bytes, uploads them to storage, and finalizes the
// candidate. Validation failures leave the session open for a retry; upstream
// failures clear the session and leave the candidate awaiting a fresh approve.
func (m *Machine) SubmitName(ctx context.Context, reviewerID int64, name string) (SubmitResult, error) {
	if err := m.authorize(reviewerID); err != nil {
		return SubmitResult{}, err
	}

	session, ok := m.registry.SessionFor(reviewerID)
	if !ok {
		return SubmitResult{}, ErrNoSession
	}

	if m.now().Sub(session.Since) > m.sessionTimeout {
		return m.expireSession(reviewerID, session)
	}

	candidate, ok := m.registry.Get(session.Handle)
	if !ok {
		// The candidate vanished under the session (rejected elsewhere).
		m.registry.ClearSession(reviewerID)
		return SubmitResult{}, pending.ErrNotFound
	}

	finalName, err := FinalizeName(name, candidate.OriginalName)
	if err != nil {
		return SubmitResult{}, err
	}

	if _, ok := m.registry.TakeSession(reviewerID, session.Handle); !ok {
		// A concurrent submission won the session; do not start a second upload.
		return SubmitResult{}, ErrNoSession
	}

	data, err := m.feed.FetchBytes(ctx, candidate.SourceRef)
	if err != nil {
		m.log.Error().Err(err).Str("handle", candidate.Handle).Msg("source download failed")
		return m.failUpstream(candidate, &UpstreamError{Op: "download source file", Err: err})
	}

	url, err := m.gateway.Upload(ctx, data, finalName, candidate.Kind)
	if err != nil {
		m.log.Error().Err(err).
			Str("handle", candidate.Handle).
			Str("final_name", finalName).
			Msg("storage upload failed")
		return m.failUpstream(candidate, &UpstreamError{Op: "upload to storage", Err: err})
	}

	m.registry.Remove(candidate.Handle)
	m.record(ctx, candidate, finalName, url)

	m.log.Info().
		Str("handle", candidate.Handle).
		Str("final_name", finalName).
		Str("url", url).
		Int64("size", candidate.SizeBytes).
		Msg("candidate uploaded")

	return SubmitResult{
		Candidate: candidate,
		FinalName: finalName,
		URL:       url,
	}, nil
}

// failUpstream finalizes a failed download or upload: the session is already
// consumed, and the candidate is reopened so a fresh approve can retry. The
// reopened candidate is returned so the caller can re-offer the keyboard.
func (m *Machine) failUpstream(candidate models.FileCandidate, uErr *UpstreamError) (SubmitResult, error) {
	result := SubmitResult{}
	if err := m.registry.Reopen(candidate.Handle); err == nil {
		result.Candidate, _ = m.registry.Get(candidate.Handle)
	}
	return result, uErr
}

func (m *Machine) expireSession(reviewerID int64, session models.ReviewerSession) (SubmitResult, error) {
	m.registry.ClearSession(reviewerID)

	result := SubmitResult{}
	if err := m.registry.Reopen(session.Handle); err == nil {
		result.Candidate, _ = m.registry.Get(session.Handle)
	}
	m.log.Warn().
		Str("handle", session.Handle).
		Time("since", session.Since).
		Msg("rename session expired, candidate reopened")
	return result, ErrSessionExpired
}

func (m *Machine) record(ctx context.Context, candidate models.FileCandidate, finalName, url string) {
	if m.recorder == nil {
		return
	}
	rec := models.UploadRecord{
		ID:         ids.New(),
		Handle:     candidate.Handle,
		Kind:       candidate.Kind,
		FileName:   finalName,
		MimeType:   candidate.MimeType,
		SizeBytes:  candidate.SizeBytes,
		Caption:    candidate.Caption,
		StorageURL: url,
		UploadedAt: m.now().UTC(),
	}
	if err := m.recorder.Record(ctx, rec); err != nil {
		m.log.Warn().Err(err).Str("handle", candidate.Handle).Msg("record upload failed")
	}
}

// Describe renders the reviewer-facing error for any failure returned by the
// machine, keeping the taxonomy distinctions visible to the reviewer.
func Describe(err error) string {
	var vErr *ValidationError
	var uErr *UpstreamError
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "You are not allowed to do that."
	case errors.Is(err, pending.ErrNotFound):
		return "File not found. It may have already been handled."
	case errors.Is(err, pending.ErrInvalidTransition):
		return "This file was already processed."
	case errors.Is(err, ErrSessionExpired):
		return "Time window expired. Please approve the file again."
	case errors.As(err, &vErr):
		return vErr.Reason
	case errors.As(err, &uErr):
		return fmt.Sprintf("Upload failed: %s. Approve the file again to retry.", truncate(uErr.Error(), 200))
	default:
		return "Something went wrong. Please try again."
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
