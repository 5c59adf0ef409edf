package models

import "time"

type MediaKind string

const (
	KindPhoto    MediaKind = "photo"
	KindDocument MediaKind = "document"
)

type CandidateStatus string

const (
	StatusAwaitingReview CandidateStatus = "awaiting_review"
	StatusAwaitingRename CandidateStatus = "awaiting_rename"
)

// FileCandidate is a file detected in the source channel that has not yet been
// approved or rejected. It lives only in the pending registry; removal from the
// registry is the terminal state.
type FileCandidate struct {
	Handle       string
	SourceRef    string
	Kind         MediaKind
	OriginalName string
	MimeType     string
	SizeBytes    int64
	Caption      string
	PostID       int
	Status       CandidateStatus
	ApprovedAt   *time.Time
	CreatedAt    time.Time

	// PromptMessageID is the reviewer-side message carrying the
	// approve/reject keyboard, so decisions can edit it in place.
	PromptMessageID int
}

// ReviewerSession records that the reviewer is expected to reply with a
// display name for one candidate. A session without a handle is never stored.
type ReviewerSession struct {
	Handle string
	Since  time.Time
}
