package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// flakyStore fails the first failures appends, then delegates to a MemoryStore.
type flakyStore struct {
	mu       sync.Mutex
	failures int
	calls    int
	inner    *MemoryStore
}

func (s *flakyStore) Append(ctx context.Context, e *Entry) error {
	s.mu.Lock()
	s.calls++
	fail := s.calls <= s.failures
	s.mu.Unlock()
	if fail {
		return errors.New("store unavailable")
	}
	return s.inner.Append(ctx, e)
}

func (s *flakyStore) List(ctx context.Context, q Query) ([]Entry, int64, error) {
	return s.inner.List(ctx, q)
}

func (s *flakyStore) Get(ctx context.Context, q Query, id string) (*Entry, error) {
	return s.inner.Get(ctx, q, id)
}

func (s *flakyStore) Stats(ctx context.Context, q Query, since time.Time) (Stats, error) {
	return s.inner.Stats(ctx, q, since)
}

func TestOutboxDrainsOnClose(t *testing.T) {
	store := NewMemoryStore()
	outbox := NewOutbox(store, 16)
	outbox.Start()

	rec := NewRecorder(store, WithOutbox(outbox))
	for i := 0; i < 5; i++ {
		rec.SystemEvent(context.Background(), ActionSystemStartup, Actor{}, "event", nil)
	}
	outbox.Close()

	if got := store.Len(); got != 5 {
		t.Fatalf("persisted = %d, want 5", got)
	}
	// Close again is a no-op.
	outbox.Close()
}

func TestOutboxRetriesTransientFailure(t *testing.T) {
	store := &flakyStore{failures: 2, inner: NewMemoryStore()}
	outbox := NewOutbox(store, 4)
	outbox.Start()

	outbox.Enqueue(Entry{ID: "e1", Action: ActionSystemStartup, ResourceType: ResourceSystem, CreatedAt: time.Now()})
	outbox.Close()

	if got := store.inner.Len(); got != 1 {
		t.Fatalf("persisted = %d, want 1", got)
	}
	if store.calls != 3 {
		t.Fatalf("append calls = %d, want 3", store.calls)
	}
}

func TestOutboxGivesUpAfterMaxAttempts(t *testing.T) {
	store := &flakyStore{failures: maxWriteAttempts, inner: NewMemoryStore()}
	outbox := NewOutbox(store, 4)
	outbox.Start()

	outbox.Enqueue(Entry{ID: "e1", Action: ActionSystemStartup, ResourceType: ResourceSystem, CreatedAt: time.Now()})
	outbox.Close()

	if got := store.inner.Len(); got != 0 {
		t.Fatalf("persisted = %d, want 0", got)
	}
	if store.calls != maxWriteAttempts {
		t.Fatalf("append calls = %d, want %d", store.calls, maxWriteAttempts)
	}
}

func TestOutboxDropsWhenFull(t *testing.T) {
	// Worker not started, so the queue cannot drain.
	outbox := NewOutbox(NewMemoryStore(), 1)

	if !outbox.Enqueue(Entry{ID: "e1", Action: ActionSystemStartup}) {
		t.Fatalf("first enqueue should fit")
	}
	if outbox.Enqueue(Entry{ID: "e2", Action: ActionSystemStartup}) {
		t.Fatalf("second enqueue should be dropped")
	}
}
