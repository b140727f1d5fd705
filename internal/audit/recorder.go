package audit

import (
	"context"
	"errors"
	"strings"
	"time"

	"freightdesk.org/internal/ids"
	"freightdesk.org/internal/obs"
)

const defaultPageSize = 50

// Recorder appends immutable entries and serves the role-scoped read path.
// Mutating services submit entries through the outbox so a failed write never
// reverses the primary operation; Record is the synchronous path whose error
// the caller owns.
type Recorder struct {
	store  Store
	outbox *Outbox
	now    func() time.Time
}

// RecorderOption configures Recorder behavior.
type RecorderOption func(*Recorder)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) RecorderOption {
	return func(r *Recorder) {
		if fn != nil {
			r.now = fn
		}
	}
}

// WithOutbox routes Submit through an asynchronous outbox.
func WithOutbox(o *Outbox) RecorderOption {
	return func(r *Recorder) { r.outbox = o }
}

// NewRecorder constructs a Recorder over the given store.
func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{store: store, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record persists one entry synchronously and returns the write error. Use it
// when the log write is itself the point of the call.
func (r *Recorder) Record(ctx context.Context, e Entry) error {
	if strings.TrimSpace(string(e.Action)) == "" {
		return errors.New("audit: action is required")
	}
	r.stamp(ctx, &e)
	if err := r.store.Append(ctx, &e); err != nil {
		obs.CountAuditWrite("error")
		return err
	}
	obs.CountAuditWrite("ok")
	return nil
}

// Submit records an entry without propagating failure to the caller. When an
// outbox is configured the write happens asynchronously with retry; otherwise
// the error is logged and dropped.
func (r *Recorder) Submit(ctx context.Context, e Entry) {
	if strings.TrimSpace(string(e.Action)) == "" {
		return
	}
	r.stamp(ctx, &e)
	if r.outbox != nil {
		r.outbox.Enqueue(e)
		return
	}
	if err := r.store.Append(context.WithoutCancel(ctx), &e); err != nil {
		obs.CountAuditWrite("error")
		obs.Emit("warn", "audit_write_failed", map[string]any{
			"action": string(e.Action),
			"error":  err.Error(),
		})
		return
	}
	obs.CountAuditWrite("ok")
}

func (r *Recorder) stamp(ctx context.Context, e *Entry) {
	if e.ID == "" {
		e.ID = ids.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now().UTC()
	}
	if e.IPAddress == "" || e.UserAgent == "" {
		ip, ua := requestMetaFromContext(ctx)
		if e.IPAddress == "" {
			e.IPAddress = ip
		}
		if e.UserAgent == "" {
			e.UserAgent = ua
		}
	}
}

// Actor identifies who performed an operation. Zero values are allowed for
// unauthenticated paths.
type Actor struct {
	UserID string
	OrgID  string
}

// Per-category wrappers pre-bind the resource type. They are ergonomics over
// Submit, not a distinct contract.

func (r *Recorder) UserEvent(ctx context.Context, action Action, actor Actor, resourceID, description string, details map[string]any) {
	r.categoryEvent(ctx, action, ResourceUser, actor, resourceID, description, details)
}

func (r *Recorder) OrganizationEvent(ctx context.Context, action Action, actor Actor, resourceID, description string, details map[string]any) {
	r.categoryEvent(ctx, action, ResourceOrganization, actor, resourceID, description, details)
}

func (r *Recorder) InquiryEvent(ctx context.Context, action Action, actor Actor, resourceID, description string, details map[string]any) {
	r.categoryEvent(ctx, action, ResourceInquiry, actor, resourceID, description, details)
}

func (r *Recorder) SalesCallEvent(ctx context.Context, action Action, actor Actor, resourceID, description string, details map[string]any) {
	r.categoryEvent(ctx, action, ResourceSalesCall, actor, resourceID, description, details)
}

func (r *Recorder) RateEvent(ctx context.Context, action Action, actor Actor, resourceID, description string, details map[string]any) {
	r.categoryEvent(ctx, action, ResourceRate, actor, resourceID, description, details)
}

func (r *Recorder) SystemEvent(ctx context.Context, action Action, actor Actor, description string, details map[string]any) {
	r.categoryEvent(ctx, action, ResourceSystem, actor, "", description, details)
}

func (r *Recorder) categoryEvent(ctx context.Context, action Action, resourceType string, actor Actor, resourceID, description string, details map[string]any) {
	r.Submit(ctx, Entry{
		Action:         action,
		ResourceType:   resourceType,
		ResourceID:     resourceID,
		Description:    description,
		Details:        details,
		UserID:         actor.UserID,
		OrganizationID: actor.OrgID,
	})
}

// scopedQuery translates caller role into storage-level restrictions: root
// sees everything, admin sees entries of their own organization, anyone else
// sees only their own entries.
func scopedQuery(scope Scope) Query {
	switch scope.Role {
	case scopeRoleRoot:
		return Query{}
	case scopeRoleAdmin:
		return Query{RestrictOrgID: scope.OrgID}
	default:
		return Query{RestrictUserID: scope.UserID}
	}
}

// List returns visible entries newest-first with pagination info.
func (r *Recorder) List(ctx context.Context, scope Scope, f Filter) ([]Entry, PageInfo, error) {
	page := f.Page
	if page < 1 {
		page = 1
	}
	size := f.PageSize
	if size < 1 {
		size = defaultPageSize
	}

	q := scopedQuery(scope)
	q.Action = f.Action
	q.ResourceType = f.ResourceType
	q.UserID = f.UserID
	q.OrganizationID = f.OrganizationID
	q.From = f.From
	q.To = f.To
	q.Limit = size
	q.Offset = (page - 1) * size

	entries, total, err := r.store.List(ctx, q)
	if err != nil {
		return nil, PageInfo{}, err
	}
	pageCount := int((total + int64(size) - 1) / int64(size))
	return entries, PageInfo{Total: total, Page: page, PageSize: size, PageCount: pageCount}, nil
}

// GetByID loads a single entry under the caller's visibility. A missing entry
// and an out-of-scope entry are the same error.
func (r *Recorder) GetByID(ctx context.Context, scope Scope, id string) (*Entry, error) {
	entry, err := r.store.Get(ctx, scopedQuery(scope), id)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// StatsFor computes totals, a since-local-midnight count and per-action /
// per-resource-type breakdowns under the caller's visibility.
func (r *Recorder) StatsFor(ctx context.Context, scope Scope) (Stats, error) {
	now := r.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return r.store.Stats(ctx, scopedQuery(scope), midnight)
}
