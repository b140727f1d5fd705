package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"freightdesk.org/internal/audit"
)

type serviceFixture struct {
	svc      *Service
	store    *MemoryStore
	auditLog *audit.MemoryStore
}

func newServiceFixture(t *testing.T, opts ...ServiceOption) *serviceFixture {
	t.Helper()
	store := NewMemoryStore()
	auditLog := audit.NewMemoryStore()
	rec := audit.NewRecorder(auditLog)
	opts = append([]ServiceOption{WithRecorder(rec)}, opts...)
	svc, err := NewService(store, "test-secret", opts...)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &serviceFixture{svc: svc, store: store, auditLog: auditLog}
}

func (f *serviceFixture) seedUser(t *testing.T, email, password, orgID string, role Role, status string) *User {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &User{
		OrganizationID: orgID,
		Email:          email,
		PasswordHash:   hash,
		FirstName:      "Test",
		LastName:       "User",
		Role:           role,
		Status:         status,
	}
	if err := f.store.Users(context.Background()).Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func (f *serviceFixture) seedOrg(t *testing.T, name, slug, status string) *Organization {
	t.Helper()
	org := &Organization{Name: name, Slug: slug, Status: status, MaxUsers: 10}
	if err := f.store.Organizations(context.Background()).Create(context.Background(), org); err != nil {
		t.Fatalf("seed org: %v", err)
	}
	return org
}

func (f *serviceFixture) countAction(t *testing.T, action audit.Action) int64 {
	t.Helper()
	stats, err := f.auditLog.Stats(context.Background(), audit.Query{}, time.Time{})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	return stats.ByAction[string(action)]
}

func TestLoginSuccess(t *testing.T) {
	f := newServiceFixture(t)
	org := f.seedOrg(t, "Acme Freight", "acme", StatusActive)
	f.seedUser(t, "carla@acme.test", "pass1234", org.ID, RoleManager, StatusActive)

	pair, user, err := f.svc.Login(context.Background(), "Carla@Acme.Test", "pass1234")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", pair)
	}
	if user.LastLoginAt == nil {
		t.Fatalf("expected last login to be stamped")
	}
	if got := f.countAction(t, audit.ActionUserLogin); got != 1 {
		t.Fatalf("login audit entries = %d, want 1", got)
	}

	identity, err := f.svc.Authenticate(pair.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if identity.UserID != user.ID || identity.Role != RoleManager || identity.OrganizationID != org.ID {
		t.Fatalf("unexpected identity %+v", identity)
	}
}

func TestLoginFailures(t *testing.T) {
	f := newServiceFixture(t)
	activeOrg := f.seedOrg(t, "Active Org", "active-org", StatusActive)
	inactiveOrg := f.seedOrg(t, "Dormant Org", "dormant-org", StatusInactive)
	f.seedUser(t, "good@x.test", "pass1234", activeOrg.ID, RoleEmployee, StatusActive)
	f.seedUser(t, "suspended@x.test", "pass1234", activeOrg.ID, RoleEmployee, StatusSuspended)
	f.seedUser(t, "dormant@x.test", "pass1234", inactiveOrg.ID, RoleEmployee, StatusActive)

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "good@x.test", "wrong"},
		{"unknown user", "nobody@x.test", "pass1234"},
		{"suspended user", "suspended@x.test", "pass1234"},
		{"inactive organization", "dormant@x.test", "pass1234"},
		{"empty credentials", "", ""},
	}
	for _, c := range cases {
		_, _, err := f.svc.Login(context.Background(), c.email, c.password)
		if !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("%s: error = %v, want ErrUnauthenticated", c.name, err)
		}
	}
	// Empty credentials are rejected before the store lookup, without audit.
	if got := f.countAction(t, audit.ActionUserLoginFailed); got != 4 {
		t.Fatalf("failed-login audit entries = %d, want 4", got)
	}
}

func TestRefreshKeepsOldTokenUsable(t *testing.T) {
	f := newServiceFixture(t)
	user := f.seedUser(t, "root@x.test", "pass1234", "", RoleRoot, StatusActive)

	first, err := f.svc.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	second, _, err := f.svc.Refresh(context.Background(), first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatalf("refresh should mint a new token")
	}
	// Concurrent sessions: the exchanged token still works.
	if _, _, err := f.svc.Refresh(context.Background(), first.RefreshToken); err != nil {
		t.Fatalf("second refresh of the original token: %v", err)
	}
}

func TestRefreshRejectsExpired(t *testing.T) {
	base := time.Now()
	clock := &base
	f := newServiceFixture(t,
		WithRefreshTTL(time.Hour),
		WithClock(func() time.Time { return *clock }))
	user := f.seedUser(t, "u@x.test", "pass1234", "", RoleRoot, StatusActive)

	pair, err := f.svc.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	later := base.Add(2 * time.Hour)
	clock = &later
	if _, _, err := f.svc.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expired refresh: error = %v, want ErrUnauthenticated", err)
	}
}

func TestRefreshRejectsTamperedSecret(t *testing.T) {
	f := newServiceFixture(t)
	user := f.seedUser(t, "u@x.test", "pass1234", "", RoleRoot, StatusActive)
	pair, err := f.svc.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id := strings.SplitN(pair.RefreshToken, ".", 2)[0]
	if _, _, err := f.svc.Refresh(context.Background(), id+".forged-secret"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("tampered refresh: error = %v, want ErrUnauthenticated", err)
	}
}

func TestRevokeBlocksRefreshAndIsIdempotent(t *testing.T) {
	f := newServiceFixture(t)
	user := f.seedUser(t, "u@x.test", "pass1234", "", RoleRoot, StatusActive)
	pair, err := f.svc.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := f.svc.Revoke(context.Background(), pair.RefreshToken); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, _, err := f.svc.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("refresh after revoke: error = %v, want ErrUnauthenticated", err)
	}
	if err := f.svc.Revoke(context.Background(), pair.RefreshToken); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
	if err := f.svc.Revoke(context.Background(), "never.seen"); err != nil {
		t.Fatalf("revoke of unknown token: %v", err)
	}
	if got := f.countAction(t, audit.ActionSystemTokenRevoke); got != 3 {
		t.Fatalf("revoke audit entries = %d, want 3", got)
	}
}

func TestRefreshRejectsInactiveUser(t *testing.T) {
	f := newServiceFixture(t)
	user := f.seedUser(t, "u@x.test", "pass1234", "", RoleRoot, StatusActive)
	pair, err := f.svc.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	status := StatusSuspended
	if _, err := f.store.Users(context.Background()).Update(context.Background(), user.ID, UserUpdate{Status: &status}); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if _, _, err := f.svc.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("refresh for suspended user: error = %v, want ErrUnauthenticated", err)
	}
}

func TestEnsureRootUserIdempotent(t *testing.T) {
	f := newServiceFixture(t)
	if err := f.svc.EnsureRootUser(context.Background(), "root@x.test", "bootpass"); err != nil {
		t.Fatalf("first bootstrap: %v", err)
	}
	root, err := f.store.Users(context.Background()).FindByEmail(context.Background(), "root@x.test")
	if err != nil {
		t.Fatalf("find root: %v", err)
	}
	if root.Role != RoleRoot || root.OrganizationID != "" || root.Status != StatusActive {
		t.Fatalf("unexpected root user %+v", root)
	}

	// Second call is a no-op even without a password.
	if err := f.svc.EnsureRootUser(context.Background(), "root@x.test", ""); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	users, err := f.store.Users(context.Background()).List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("users = %d, want 1", len(users))
	}
	if got := f.countAction(t, audit.ActionSystemStartup); got != 1 {
		t.Fatalf("startup audit entries = %d, want 1", got)
	}
}

func TestEnsureRootUserRequiresPasswordOnFirstRun(t *testing.T) {
	f := newServiceFixture(t)
	if err := f.svc.EnsureRootUser(context.Background(), "root@x.test", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}

func TestNewServiceRequiresSecret(t *testing.T) {
	if _, err := NewService(NewMemoryStore(), "   "); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
