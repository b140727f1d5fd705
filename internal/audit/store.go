package audit

import (
	"context"
	"time"
)

// Query is the storage-level criteria List/Get/Stats operate on. Restrict
// fields carry the role-scoping computed by the recorder and are ANDed with
// any caller-supplied filters, so a filter can never widen visibility.
type Query struct {
	Action         Action
	ResourceType   string
	UserID         string
	OrganizationID string
	From           *time.Time
	To             *time.Time

	RestrictUserID string
	RestrictOrgID  string

	Limit  int
	Offset int
}

// Store is the append-only persistence behind the recorder. Implementations
// must order List results newest-first.
type Store interface {
	Append(ctx context.Context, e *Entry) error
	List(ctx context.Context, q Query) ([]Entry, int64, error)
	Get(ctx context.Context, q Query, id string) (*Entry, error)
	Stats(ctx context.Context, q Query, since time.Time) (Stats, error)
}
