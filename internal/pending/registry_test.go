package pending

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediarelay/internal/models"
)

func newCandidate(name string) models.FileCandidate {
	return models.FileCandidate{
		SourceRef:    "file-" + name,
		Kind:         models.KindDocument,
		OriginalName: name,
		MimeType:     "application/pdf",
		SizeBytes:    1024,
	}
}

func TestInsertAllocatesUniqueHandles(t *testing.T) {
	r := NewRegistry()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		handle := r.Insert(newCandidate("doc.pdf"))
		assert.False(t, seen[handle], "handle %s issued twice", handle)
		seen[handle] = true

		c, ok := r.Get(handle)
		require.True(t, ok)
		assert.Equal(t, models.StatusAwaitingReview, c.Status)
		assert.Equal(t, handle, c.Handle)
		assert.Nil(t, c.ApprovedAt)
	}
	assert.Equal(t, 100, r.Len())
}

func TestGetAbsentHandle(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Get("nope")
	assert.False(t, ok)
}

func TestRemoveIsIdempotent(t *testing.T) {
	r := NewRegistry()
	handle := r.Insert(newCandidate("doc.pdf"))

	r.Remove(handle)
	_, ok := r.Get(handle)
	assert.False(t, ok)

	r.Remove(handle)
	r.Remove("never-existed")
	assert.Equal(t, 0, r.Len())
}

func TestMarkAwaitingRename(t *testing.T) {
	r := NewRegistry()
	handle := r.Insert(newCandidate("doc.pdf"))
	at := time.Now()

	require.NoError(t, r.MarkAwaitingRename(handle, at))

	c, ok := r.Get(handle)
	require.True(t, ok)
	assert.Equal(t, models.StatusAwaitingRename, c.Status)
	require.NotNil(t, c.ApprovedAt)
	assert.Equal(t, at.UTC(), *c.ApprovedAt)

	assert.ErrorIs(t, r.MarkAwaitingRename(handle, at), ErrInvalidTransition)
	assert.ErrorIs(t, r.MarkAwaitingRename("nope", at), ErrNotFound)
}

func TestConcurrentApproveHasOneWinner(t *testing.T) {
	r := NewRegistry()
	handle := r.Insert(newCandidate("doc.pdf"))

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- r.MarkAwaitingRename(handle, time.Now())
		}()
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrInvalidTransition)
			losses++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, attempts-1, losses)
}

func TestReopen(t *testing.T) {
	r := NewRegistry()
	handle := r.Insert(newCandidate("doc.pdf"))

	assert.ErrorIs(t, r.Reopen(handle), ErrInvalidTransition)

	require.NoError(t, r.MarkAwaitingRename(handle, time.Now()))
	require.NoError(t, r.Reopen(handle))

	c, ok := r.Get(handle)
	require.True(t, ok)
	assert.Equal(t, models.StatusAwaitingReview, c.Status)
	assert.Nil(t, c.ApprovedAt)

	assert.ErrorIs(t, r.Reopen("nope"), ErrNotFound)
}

func TestSessionLifecycle(t *testing.T) {
	r := NewRegistry()
	now := time.Now()

	_, ok := r.SessionFor(7)
	assert.False(t, ok)

	r.BeginSession(7, "h1", now)
	s, ok := r.SessionFor(7)
	require.True(t, ok)
	assert.Equal(t, "h1", s.Handle)
	assert.Equal(t, now.UTC(), s.Since)

	// A second approval replaces the session.
	r.BeginSession(7, "h2", now.Add(time.Minute))
	s, ok = r.SessionFor(7)
	require.True(t, ok)
	assert.Equal(t, "h2", s.Handle)

	r.ClearSession(7)
	_, ok = r.SessionFor(7)
	assert.False(t, ok)

	r.ClearSession(7) // idempotent
}

func TestTakeSession(t *testing.T) {
	r := NewRegistry()
	r.BeginSession(7, "h1", time.Now())

	_, ok := r.TakeSession(7, "other-handle")
	assert.False(t, ok, "take must fail when the handle does not match")
	_, ok = r.SessionFor(7)
	assert.True(t, ok, "mismatched take must not consume the session")

	s, ok := r.TakeSession(7, "h1")
	require.True(t, ok)
	assert.Equal(t, "h1", s.Handle)

	_, ok = r.TakeSession(7, "h1")
	assert.False(t, ok, "second take must lose")
}

func TestConcurrentTakeSessionHasOneWinner(t *testing.T) {
	r := NewRegistry()
	r.BeginSession(7, "h1", time.Now())

	const attempts = 16
	var wg sync.WaitGroup
	wins := make(chan bool, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := r.TakeSession(7, "h1")
			wins <- ok
		}()
	}
	wg.Wait()
	close(wins)

	var count int
	for ok := range wins {
		if ok {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
