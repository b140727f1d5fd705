package audit

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process Store used by tests and DSN-less runs.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(ctx context.Context, e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *e)
	return nil
}

func matches(e Entry, q Query) bool {
	if q.RestrictUserID != "" && e.UserID != q.RestrictUserID {
		return false
	}
	if q.RestrictOrgID != "" && e.OrganizationID != q.RestrictOrgID {
		return false
	}
	if q.Action != "" && e.Action != q.Action {
		return false
	}
	if q.ResourceType != "" && e.ResourceType != q.ResourceType {
		return false
	}
	if q.UserID != "" && e.UserID != q.UserID {
		return false
	}
	if q.OrganizationID != "" && e.OrganizationID != q.OrganizationID {
		return false
	}
	if q.From != nil && e.CreatedAt.Before(*q.From) {
		return false
	}
	if q.To != nil && e.CreatedAt.After(*q.To) {
		return false
	}
	return true
}

func (s *MemoryStore) visible(q Query) []Entry {
	var out []Entry
	for _, e := range s.entries {
		if matches(e, q) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *MemoryStore) List(ctx context.Context, q Query) ([]Entry, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.visible(q)
	total := int64(len(all))
	if q.Offset > 0 {
		if q.Offset >= len(all) {
			return nil, total, nil
		}
		all = all[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(all) {
		all = all[:q.Limit]
	}
	return all, total, nil
}

func (s *MemoryStore) Get(ctx context.Context, q Query, id string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == id && matches(e, q) {
			copied := e
			return &copied, nil
		}
	}
	return nil, ErrNotFoundOrDenied
}

func (s *MemoryStore) Stats(ctx context.Context, q Query, since time.Time) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		ByAction:       map[string]int64{},
		ByResourceType: map[string]int64{},
	}
	for _, e := range s.visible(q) {
		stats.Total++
		if !e.CreatedAt.Before(since) {
			stats.Today++
		}
		stats.ByAction[string(e.Action)]++
		stats.ByResourceType[e.ResourceType]++
	}
	return stats, nil
}

// Len reports the number of stored entries. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
