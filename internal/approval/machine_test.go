package approval

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediarelay/internal/models"
	"mediarelay/internal/pending"
)

const (
	reviewerID = int64(42)
	strangerID = int64(99)
)

type fakeFeed struct {
	data []byte
	err  error
}

func (f *fakeFeed) FetchBytes(ctx context.Context, sourceRef string) ([]byte, error) {
	return f.data, f.err
}

type fakeGateway struct {
	mu    sync.Mutex
	url   string
	err   error
	calls []string
}

func (g *fakeGateway) Upload(ctx context.Context, data []byte, filename string, kind models.MediaKind) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, filename)
	if g.err != nil {
		return "", g.err
	}
	return g.url + "/" + filename, nil
}

type fakeRecorder struct {
	mu   sync.Mutex
	recs []models.UploadRecord
}

func (r *fakeRecorder) Record(ctx context.Context, rec models.UploadRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, rec)
	return nil
}

type fixture struct {
	registry *pending.Registry
	feed     *fakeFeed
	gateway  *fakeGateway
	recorder *fakeRecorder
	machine  *Machine
	clock    *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	now := time.Date(2025, 11, 23, 12, 0, 0, 0, time.UTC)
	f := &fixture{
		registry: pending.NewRegistry(),
		feed:     &fakeFeed{data: []byte("file bytes")},
		gateway:  &fakeGateway{url: "https://storage.example.com/media"},
		recorder: &fakeRecorder{},
		clock:    &now,
	}
	f.machine = NewMachine(
		f.registry, f.feed, f.gateway, f.recorder,
		reviewerID, 10*time.Minute, zerolog.Nop(),
	)
	f.machine.now = func() time.Time { return *f.clock }
	return f
}

func (f *fixture) insertDocument(name string) string {
	return f.registry.Insert(models.FileCandidate{
		SourceRef:    "tg-file-id",
		Kind:         models.KindDocument,
		OriginalName: name,
		MimeType:     "application/pdf",
		SizeBytes:    2 << 20,
	})
}

func (f *fixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func TestApproveTransitionsExactlyOnce(t *testing.T) {
	f := newFixture(t)
	handle := f.insertDocument("doc.pdf")

	candidate, err := f.machine.Approve(reviewerID, handle)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingRename, candidate.Status)
	require.NotNil(t, candidate.ApprovedAt)

	s, ok := f.registry.SessionFor(reviewerID)
	require.True(t, ok)
	assert.Equal(t, handle, s.Handle)

	_, err = f.machine.Approve(reviewerID, handle)
	assert.ErrorIs(t, err, pending.ErrInvalidTransition)

	_, err = f.machine.Approve(reviewerID, "unknown")
	assert.ErrorIs(t, err, pending.ErrNotFound)
}

func TestApproveUnauthorized(t *testing.T) {
	f := newFixture(t)
	handle := f.insertDocument("doc.pdf")

	_, err := f.machine.Approve(strangerID, handle)
	assert.ErrorIs(t, err, ErrUnauthorized)

	c, ok := f.registry.Get(handle)
	require.True(t, ok)
	assert.Equal(t, models.StatusAwaitingReview, c.Status, "state must be untouched")
	_, ok = f.registry.SessionFor(strangerID)
	assert.False(t, ok)
}

func TestRejectRemovesInAnyState(t *testing.T) {
	f := newFixture(t)

	// Awaiting review.
	handle := f.insertDocument("doc.pdf")
	_, err := f.machine.Reject(reviewerID, handle)
	require.NoError(t, err)
	_, ok := f.registry.Get(handle)
	assert.False(t, ok)

	// Awaiting rename: the dangling session is cleared too.
	handle = f.insertDocument("doc.pdf")
	_, err = f.machine.Approve(reviewerID, handle)
	require.NoError(t, err)
	_, err = f.machine.Reject(reviewerID, handle)
	require.NoError(t, err)
	_, ok = f.registry.Get(handle)
	assert.False(t, ok)
	_, ok = f.registry.SessionFor(reviewerID)
	assert.False(t, ok)

	// Absent handle.
	_, err = f.machine.Reject(reviewerID, handle)
	assert.ErrorIs(t, err, pending.ErrNotFound)
}

func TestSubmitNameWithoutSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.machine.SubmitName(context.Background(), reviewerID, "whatever")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSubmitNameValidationKeepsSession(t *testing.T) {
	f := newFixture(t)
	handle := f.insertDocument("doc.pdf")
	_, err := f.machine.Approve(reviewerID, handle)
	require.NoError(t, err)

	_, err = f.machine.SubmitName(context.Background(), reviewerID, "a")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)

	s, ok := f.registry.SessionFor(reviewerID)
	require.True(t, ok, "session must survive a validation failure")
	assert.Equal(t, handle, s.Handle)
	assert.Empty(t, f.gateway.calls)

	// The reviewer retries with a valid name and succeeds.
	result, err := f.machine.SubmitName(context.Background(), reviewerID, "report-2025")
	require.NoError(t, err)
	assert.Equal(t, "report-2025.pdf", result.FinalName)
}

func TestSubmitNameEndToEnd(t *testing.T) {
	f := newFixture(t)
	handle := f.insertDocument("doc.pdf")

	_, err := f.machine.Approve(reviewerID, handle)
	require.NoError(t, err)

	result, err := f.machine.SubmitName(context.Background(), reviewerID, "Minutes (Nov)")
	require.NoError(t, err)
	assert.Equal(t, "Minutes (Nov).pdf", result.FinalName)
	assert.Equal(t, "https://storage.example.com/media/Minutes (Nov).pdf", result.URL)

	_, ok := f.registry.Get(handle)
	assert.False(t, ok, "candidate must be removed after upload")
	_, ok = f.registry.SessionFor(reviewerID)
	assert.False(t, ok, "session must be cleared after upload")

	require.Len(t, f.recorder.recs, 1)
	rec := f.recorder.recs[0]
	assert.Equal(t, handle, rec.Handle)
	assert.Equal(t, "Minutes (Nov).pdf", rec.FileName)
	assert.Equal(t, result.URL, rec.StorageURL)
}

func TestSubmitNameUploadFailureReopensCandidate(t *testing.T) {
	f := newFixture(t)
	f.gateway.err = errors.New("bucket quota exceeded")
	handle := f.insertDocument("doc.pdf")

	_, err := f.machine.Approve(reviewerID, handle)
	require.NoError(t, err)

	result, err := f.machine.SubmitName(context.Background(), reviewerID, "summary")
	var uErr *UpstreamError
	require.ErrorAs(t, err, &uErr)
	assert.Equal(t, handle, result.Candidate.Handle)

	_, ok := f.registry.SessionFor(reviewerID)
	assert.False(t, ok, "session must be cleared on upstream failure")

	c, ok := f.registry.Get(handle)
	require.True(t, ok, "candidate must survive an upstream failure")
	assert.Equal(t, models.StatusAwaitingReview, c.Status)

	// A fresh approve and name submission now succeeds.
	f.gateway.err = nil
	_, err = f.machine.Approve(reviewerID, handle)
	require.NoError(t, err)
	_, err = f.machine.SubmitName(context.Background(), reviewerID, "summary")
	require.NoError(t, err)
}

func TestSubmitNameDownloadFailure(t *testing.T) {
	f := newFixture(t)
	f.feed.err = errors.New("file expired")
	handle := f.insertDocument("doc.pdf")

	_, err := f.machine.Approve(reviewerID, handle)
	require.NoError(t, err)

	_, err = f.machine.SubmitName(context.Background(), reviewerID, "summary")
	var uErr *UpstreamError
	require.ErrorAs(t, err, &uErr)
	assert.Empty(t, f.gateway.calls, "upload must not start after a failed download")

	c, ok := f.registry.Get(handle)
	require.True(t, ok)
	assert.Equal(t, models.StatusAwaitingReview, c.Status)
}

func TestSessionTimeout(t *testing.T) {
	f := newFixture(t)
	handle := f.insertDocument("doc.pdf")

	_, err := f.machine.Approve(reviewerID, handle)
	require.NoError(t, err)

	f.advance(10*time.Minute + time.Second)

	result, err := f.machine.SubmitName(context.Background(), reviewerID, "summary")
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, handle, result.Candidate.Handle, "reopened candidate is returned")

	_, ok := f.registry.SessionFor(reviewerID)
	assert.False(t, ok, "session must be cleared on timeout")

	c, ok := f.registry.Get(handle)
	require.True(t, ok)
	assert.Equal(t, models.StatusAwaitingReview, c.Status, "candidate reverts to awaiting review")

	// Without a fresh approve the next submission is still rejected.
	_, err = f.machine.SubmitName(context.Background(), reviewerID, "summary")
	assert.ErrorIs(t, err, ErrNoSession)

	// A fresh approve restores the flow.
	_, err = f.machine.Approve(reviewerID, handle)
	require.NoError(t, err)
	_, err = f.machine.SubmitName(context.Background(), reviewerID, "summary")
	require.NoError(t, err)
}

func TestSubmitNameJustInsideTimeout(t *testing.T) {
	f := newFixture(t)
	handle := f.insertDocument("doc.pdf")

	_, err := f.machine.Approve(reviewerID, handle)
	require.NoError(t, err)

	f.advance(10 * time.Minute)

	_, err = f.machine.SubmitName(context.Background(), reviewerID, "summary")
	require.NoError(t, err, "elapsed == timeout must still be accepted")
}

func TestConcurrentSubmitStartsOneUpload(t *testing.T) {
	f := newFixture(t)
	handle := f.insertDocument("doc.pdf")

	_, err := f.machine.Approve(reviewerID, handle)
	require.NoError(t, err)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.machine.SubmitName(context.Background(), reviewerID, "summary")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var successes int
	for err := range errs {
		if err == nil {
			successes++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Len(t, f.gateway.calls, 1, "exactly one upload must run")
}

func TestDescribeDistinguishesTaxonomy(t *testing.T) {
	notFound := Describe(pending.ErrNotFound)
	alreadyDone := Describe(pending.ErrInvalidTransition)
	assert.NotEqual(t, notFound, alreadyDone,
		"not-found and already-processed must read differently")

	assert.Contains(t, Describe(ErrSessionExpired), "approve")
	assert.Contains(t, Describe(&ValidationError{Reason: "too short"}), "too short")
	assert.Contains(t, Describe(&UpstreamError{Op: "upload", Err: errors.New("boom")}), "boom")
}
