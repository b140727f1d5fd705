package audit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func seedEntries(t *testing.T, rec *Recorder) {
	t.Helper()
	ctx := context.Background()
	rec.UserEvent(ctx, ActionUserCreate, Actor{UserID: "root-1"}, "u-alice", "user created", nil)
	rec.UserEvent(ctx, ActionUserLogin, Actor{UserID: "u-alice", OrgID: "org-a"}, "u-alice", "user logged in", nil)
	rec.UserEvent(ctx, ActionUserLogin, Actor{UserID: "u-bob", OrgID: "org-a"}, "u-bob", "user logged in", nil)
	rec.InquiryEvent(ctx, ActionInquiryCreate, Actor{UserID: "u-carol", OrgID: "org-b"}, "inq-1", "inquiry created", nil)
	rec.SystemEvent(ctx, ActionSystemStartup, Actor{UserID: "root-1"}, "service started", nil)
}

func TestListScoping(t *testing.T) {
	store := NewMemoryStore()
	rec := NewRecorder(store)
	seedEntries(t, rec)
	ctx := context.Background()

	rootEntries, info, err := rec.List(ctx, Scope{UserID: "root-1", Role: "root"}, Filter{})
	if err != nil {
		t.Fatalf("root list: %v", err)
	}
	if info.Total != 5 || len(rootEntries) != 5 {
		t.Fatalf("root sees total=%d len=%d, want 5/5", info.Total, len(rootEntries))
	}

	adminEntries, info, err := rec.List(ctx, Scope{UserID: "u-admin", OrgID: "org-a", Role: "admin"}, Filter{})
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if info.Total != 2 {
		t.Fatalf("org-a admin total = %d, want 2", info.Total)
	}
	for _, e := range adminEntries {
		if e.OrganizationID != "org-a" {
			t.Fatalf("admin saw foreign entry %+v", e)
		}
	}

	empEntries, info, err := rec.List(ctx, Scope{UserID: "u-alice", OrgID: "org-a", Role: "employee"}, Filter{})
	if err != nil {
		t.Fatalf("employee list: %v", err)
	}
	if info.Total != 1 {
		t.Fatalf("employee total = %d, want 1", info.Total)
	}
	if empEntries[0].UserID != "u-alice" {
		t.Fatalf("employee saw entry of %q", empEntries[0].UserID)
	}
}

func TestListFilterCannotWidenScope(t *testing.T) {
	store := NewMemoryStore()
	rec := NewRecorder(store)
	seedEntries(t, rec)

	// An employee filtering for another user's entries gets nothing.
	entries, info, err := rec.List(context.Background(),
		Scope{UserID: "u-alice", Role: "employee"}, Filter{UserID: "u-bob"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if info.Total != 0 || len(entries) != 0 {
		t.Fatalf("filter widened scope: total=%d len=%d", info.Total, len(entries))
	}
}

func TestListPagination(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	rec := NewRecorder(NewMemoryStore(), WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}))
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		rec.SystemEvent(ctx, ActionSystemStartup, Actor{}, "tick", nil)
	}

	scope := Scope{Role: "root"}
	first, info, err := rec.List(ctx, scope, Filter{Page: 1, PageSize: 3})
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if info.Total != 7 || info.PageCount != 3 || len(first) != 3 {
		t.Fatalf("page 1: total=%d pages=%d len=%d", info.Total, info.PageCount, len(first))
	}
	// Newest first.
	if !first[0].CreatedAt.After(first[1].CreatedAt) {
		t.Fatalf("entries not newest-first: %v then %v", first[0].CreatedAt, first[1].CreatedAt)
	}

	last, info, err := rec.List(ctx, scope, Filter{Page: 3, PageSize: 3})
	if err != nil {
		t.Fatalf("page 3: %v", err)
	}
	if len(last) != 1 {
		t.Fatalf("page 3 len = %d, want 1", len(last))
	}
	if info.Page != 3 {
		t.Fatalf("page echoed as %d", info.Page)
	}

	// Out-of-range pages are empty, not errors.
	none, _, err := rec.List(ctx, scope, Filter{Page: 9, PageSize: 3})
	if err != nil {
		t.Fatalf("page 9: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("page 9 len = %d, want 0", len(none))
	}

	// Page zero clamps to one; size zero uses the default.
	clamped, info, err := rec.List(ctx, scope, Filter{})
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if info.Page != 1 || info.PageSize != defaultPageSize || len(clamped) != 7 {
		t.Fatalf("defaults: page=%d size=%d len=%d", info.Page, info.PageSize, len(clamped))
	}
}

func TestGetByIDScoped(t *testing.T) {
	store := NewMemoryStore()
	rec := NewRecorder(store)
	seedEntries(t, rec)
	ctx := context.Background()

	all, _, err := rec.List(ctx, Scope{Role: "root"}, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var foreign string
	for _, e := range all {
		if e.OrganizationID == "org-b" {
			foreign = e.ID
		}
	}
	if foreign == "" {
		t.Fatalf("no org-b entry seeded")
	}

	if _, err := rec.GetByID(ctx, Scope{Role: "root"}, foreign); err != nil {
		t.Fatalf("root get: %v", err)
	}
	if _, err := rec.GetByID(ctx, Scope{UserID: "u-admin", OrgID: "org-a", Role: "admin"}, foreign); !errors.Is(err, ErrNotFoundOrDenied) {
		t.Fatalf("cross-org get: error = %v, want ErrNotFoundOrDenied", err)
	}
	if _, err := rec.GetByID(ctx, Scope{Role: "root"}, "no-such-id"); !errors.Is(err, ErrNotFoundOrDenied) {
		t.Fatalf("missing get: error = %v, want ErrNotFoundOrDenied", err)
	}
}

func TestStatsForCountsSinceMidnight(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	store := NewMemoryStore()
	rec := NewRecorder(store, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	// One entry from yesterday, two from today.
	yesterday := Entry{Action: ActionUserLogin, ResourceType: ResourceUser, UserID: "u1",
		CreatedAt: now.Add(-24 * time.Hour)}
	if err := rec.Record(ctx, yesterday); err != nil {
		t.Fatalf("record: %v", err)
	}
	rec.UserEvent(ctx, ActionUserLogin, Actor{UserID: "u1"}, "u1", "user logged in", nil)
	rec.SystemEvent(ctx, ActionSystemStartup, Actor{}, "service started", nil)

	stats, err := rec.StatsFor(ctx, Scope{Role: "root"})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 3 {
		t.Fatalf("total = %d, want 3", stats.Total)
	}
	if stats.Today != 2 {
		t.Fatalf("today = %d, want 2", stats.Today)
	}
	if stats.ByAction[string(ActionUserLogin)] != 2 {
		t.Fatalf("login count = %d, want 2", stats.ByAction[string(ActionUserLogin)])
	}
	if stats.ByResourceType[ResourceSystem] != 1 {
		t.Fatalf("system count = %d, want 1", stats.ByResourceType[ResourceSystem])
	}
}

func TestStampFillsRequestMeta(t *testing.T) {
	store := NewMemoryStore()
	rec := NewRecorder(store)

	ctx := WithRequestMeta(context.Background(), "203.0.113.9", "curl/8.0")
	rec.SystemEvent(ctx, ActionSystemStartup, Actor{}, "with meta", nil)
	rec.SystemEvent(context.Background(), ActionSystemStartup, Actor{}, "without meta", nil)

	entries, _, err := rec.List(context.Background(), Scope{Role: "root"}, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	for _, e := range entries {
		if e.ID == "" || e.CreatedAt.IsZero() {
			t.Fatalf("entry not stamped: %+v", e)
		}
		switch e.Description {
		case "with meta":
			if e.IPAddress != "203.0.113.9" || e.UserAgent != "curl/8.0" {
				t.Fatalf("meta not carried: %+v", e)
			}
		case "without meta":
			if e.IPAddress != UnknownMeta || e.UserAgent != UnknownMeta {
				t.Fatalf("missing meta not defaulted: %+v", e)
			}
		}
	}
}

func TestRecordRequiresAction(t *testing.T) {
	rec := NewRecorder(NewMemoryStore())
	if err := rec.Record(context.Background(), Entry{}); err == nil {
		t.Fatalf("expected error for empty action")
	}
}
