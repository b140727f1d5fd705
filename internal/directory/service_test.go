package directory

import (
	"context"
	"errors"
	"testing"

	"freightdesk.org/internal/audit"
	"freightdesk.org/internal/auth"
)

type fixture struct {
	svc      *Service
	store    *auth.MemoryStore
	auditLog *audit.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := auth.NewMemoryStore()
	auditLog := audit.NewMemoryStore()
	return &fixture{
		svc:      NewService(store, audit.NewRecorder(auditLog)),
		store:    store,
		auditLog: auditLog,
	}
}

var rootActor = auth.Identity{UserID: "root-1", Role: auth.RoleRoot}

func (f *fixture) createOrg(t *testing.T, name, slug string) (*auth.Organization, *auth.User) {
	t.Helper()
	org, admin, err := f.svc.CreateOrganization(context.Background(), rootActor, CreateOrganizationInput{
		Name:          name,
		Slug:          slug,
		AdminEmail:    "admin@" + slug + ".test",
		AdminPassword: "pass1234",
	})
	if err != nil {
		t.Fatalf("create org %s: %v", slug, err)
	}
	return org, admin
}

func (f *fixture) countAction(t *testing.T, action audit.Action) int {
	t.Helper()
	entries, _, err := f.auditLog.List(context.Background(), audit.Query{Action: action})
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	return len(entries)
}

func TestCreateOrganizationActiveWithAdmin(t *testing.T) {
	f := newFixture(t)
	org, admin := f.createOrg(t, "Acme Freight", "acme")

	if org.Status != auth.StatusActive {
		t.Fatalf("org status = %q, want active", org.Status)
	}
	if admin.OrganizationID != org.ID || admin.Role != auth.RoleAdmin || admin.Status != auth.StatusActive {
		t.Fatalf("unexpected admin %+v", admin)
	}
	if got := f.countAction(t, audit.ActionOrgCreate); got != 1 {
		t.Fatalf("org.create entries = %d, want 1", got)
	}
}

func TestCreateOrganizationDuplicateSlug(t *testing.T) {
	f := newFixture(t)
	f.createOrg(t, "Acme Freight", "acme")

	_, _, err := f.svc.CreateOrganization(context.Background(), rootActor, CreateOrganizationInput{
		Name:          "Other Name",
		Slug:          "acme",
		AdminEmail:    "other@acme2.test",
		AdminPassword: "pass1234",
	})
	if !errors.Is(err, auth.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
}

func TestCreateOrganizationRequiresRoot(t *testing.T) {
	f := newFixture(t)
	admin := auth.Identity{UserID: "u1", OrganizationID: "org-x", Role: auth.RoleAdmin}
	_, _, err := f.svc.CreateOrganization(context.Background(), admin, CreateOrganizationInput{
		Name: "X", Slug: "x", AdminEmail: "a@x.test", AdminPassword: "p",
	})
	if !errors.Is(err, auth.ErrAccessDenied) {
		t.Fatalf("error = %v, want ErrAccessDenied", err)
	}
}

func TestPublicRegisterInactiveAndUnaudited(t *testing.T) {
	f := newFixture(t)
	org, admin, err := f.svc.PublicRegister(context.Background(), CreateOrganizationInput{
		Name:          "Pending Corp",
		Slug:          "pending",
		AdminEmail:    "boss@pending.test",
		AdminPassword: "pass1234",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if org.Status != auth.StatusInactive || admin.Status != auth.StatusInactive {
		t.Fatalf("statuses = %q/%q, want inactive/inactive", org.Status, admin.Status)
	}
	if f.auditLog.Len() != 0 {
		t.Fatalf("audit entries = %d, want 0", f.auditLog.Len())
	}
}

func TestDeleteOrganizationCascadesWithOneAuditEntry(t *testing.T) {
	f := newFixture(t)
	org, _ := f.createOrg(t, "Acme Freight", "acme")
	for _, email := range []string{"e1@acme.test", "e2@acme.test"} {
		if _, err := f.svc.CreateUser(context.Background(), rootActor, CreateUserInput{
			OrganizationID: org.ID, Email: email, Password: "pass1234", Role: "employee",
		}); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	before := f.auditLog.Len()

	if err := f.svc.DeleteOrganization(context.Background(), rootActor, org.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := f.store.Organizations(context.Background()).Find(context.Background(), org.ID); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("org still present: %v", err)
	}
	users, err := f.store.Users(context.Background()).ListByOrg(context.Background(), org.ID)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("users remaining = %d, want 0", len(users))
	}
	if got := f.auditLog.Len() - before; got != 1 {
		t.Fatalf("audit entries for delete = %d, want exactly 1", got)
	}
	if got := f.countAction(t, audit.ActionOrgDelete); got != 1 {
		t.Fatalf("org.delete entries = %d, want 1", got)
	}
}

func TestDeleteOrganizationNotFound(t *testing.T) {
	f := newFixture(t)
	if err := f.svc.DeleteOrganization(context.Background(), rootActor, "missing"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestUpdateOrganizationStatus(t *testing.T) {
	f := newFixture(t)
	org, _ := f.createOrg(t, "Acme Freight", "acme")

	updated, err := f.svc.UpdateOrganizationStatus(context.Background(), rootActor, org.ID, "suspended")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if updated.Status != auth.StatusSuspended {
		t.Fatalf("status = %q, want suspended", updated.Status)
	}
	if _, err := f.svc.UpdateOrganizationStatus(context.Background(), rootActor, org.ID, "retired"); !errors.Is(err, auth.ErrInvalidInput) {
		t.Fatalf("bad status: error = %v, want ErrInvalidInput", err)
	}
}
