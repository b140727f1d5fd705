package directory

import (
	"context"
	"errors"
	"testing"

	"freightdesk.org/internal/auth"
)

func actorFor(u *auth.User) auth.Identity {
	return auth.Identity{UserID: u.ID, Email: u.Email, Role: u.Role, OrganizationID: u.OrganizationID}
}

func (f *fixture) seedUser(t *testing.T, orgID, email string, role auth.Role) *auth.User {
	t.Helper()
	u, err := f.svc.CreateUser(context.Background(), rootActor, CreateUserInput{
		OrganizationID: orgID,
		Email:          email,
		Password:       "pass1234",
		Role:           role.String(),
	})
	if err != nil {
		t.Fatalf("seed %s: %v", email, err)
	}
	return u
}

func TestCreateUserCapabilities(t *testing.T) {
	f := newFixture(t)
	orgA, adminA := f.createOrg(t, "Org A", "org-a")
	orgB, _ := f.createOrg(t, "Org B", "org-b")
	manager := f.seedUser(t, orgA.ID, "mgr@a.test", auth.RoleManager)

	// Admin may create within their own org without naming it.
	u, err := f.svc.CreateUser(context.Background(), actorFor(adminA), CreateUserInput{
		Email: "emp1@a.test", Password: "pass1234", Role: "employee",
	})
	if err != nil {
		t.Fatalf("admin create: %v", err)
	}
	if u.OrganizationID != orgA.ID {
		t.Fatalf("defaulted org = %q, want %q", u.OrganizationID, orgA.ID)
	}

	// Admin may not reach into another org.
	if _, err := f.svc.CreateUser(context.Background(), actorFor(adminA), CreateUserInput{
		OrganizationID: orgB.ID, Email: "x@b.test", Password: "pass1234", Role: "employee",
	}); !errors.Is(err, auth.ErrAccessDenied) {
		t.Fatalf("cross-org create: error = %v, want ErrAccessDenied", err)
	}

	// Manager may create employees only.
	if _, err := f.svc.CreateUser(context.Background(), actorFor(manager), CreateUserInput{
		Email: "emp2@a.test", Password: "pass1234", Role: "employee",
	}); err != nil {
		t.Fatalf("manager create employee: %v", err)
	}
	if _, err := f.svc.CreateUser(context.Background(), actorFor(manager), CreateUserInput{
		Email: "mgr2@a.test", Password: "pass1234", Role: "manager",
	}); !errors.Is(err, auth.ErrAccessDenied) {
		t.Fatalf("manager create manager: error = %v, want ErrAccessDenied", err)
	}

	// Nobody creates roots through this path.
	if _, err := f.svc.CreateUser(context.Background(), rootActor, CreateUserInput{
		OrganizationID: orgA.ID, Email: "r@a.test", Password: "pass1234", Role: "root",
	}); !errors.Is(err, auth.ErrInvalidInput) {
		t.Fatalf("create root: error = %v, want ErrInvalidInput", err)
	}
}

func TestCreateUserEnforcesOrgLimit(t *testing.T) {
	f := newFixture(t)
	org, _, err := f.svc.CreateOrganization(context.Background(), rootActor, CreateOrganizationInput{
		Name: "Tiny", Slug: "tiny", MaxUsers: 2,
		AdminEmail: "admin@tiny.test", AdminPassword: "pass1234",
	})
	if err != nil {
		t.Fatalf("create org: %v", err)
	}
	// Admin already counts as one of the two seats.
	if _, err := f.svc.CreateUser(context.Background(), rootActor, CreateUserInput{
		OrganizationID: org.ID, Email: "e1@tiny.test", Password: "pass1234", Role: "employee",
	}); err != nil {
		t.Fatalf("second seat: %v", err)
	}
	if _, err := f.svc.CreateUser(context.Background(), rootActor, CreateUserInput{
		OrganizationID: org.ID, Email: "e2@tiny.test", Password: "pass1234", Role: "employee",
	}); !errors.Is(err, auth.ErrConflict) {
		t.Fatalf("over limit: error = %v, want ErrConflict", err)
	}
}

func TestUpdateUserManagerCannotTouchAdmin(t *testing.T) {
	f := newFixture(t)
	orgA, adminA := f.createOrg(t, "Org A", "org-a")
	manager := f.seedUser(t, orgA.ID, "mgr@a.test", auth.RoleManager)
	employee := f.seedUser(t, orgA.ID, "emp@a.test", auth.RoleEmployee)

	name := "Renamed"
	if _, err := f.svc.UpdateUser(context.Background(), actorFor(manager), employee.ID,
		UpdateUserInput{FirstName: &name}); err != nil {
		t.Fatalf("manager update employee: %v", err)
	}
	if _, err := f.svc.UpdateUser(context.Background(), actorFor(manager), adminA.ID,
		UpdateUserInput{FirstName: &name}); !errors.Is(err, auth.ErrAccessDenied) {
		t.Fatalf("manager update admin: error = %v, want ErrAccessDenied", err)
	}

	// A manager cannot promote an employee past employee.
	role := "manager"
	if _, err := f.svc.UpdateUser(context.Background(), actorFor(manager), employee.ID,
		UpdateUserInput{Role: &role}); !errors.Is(err, auth.ErrAccessDenied) {
		t.Fatalf("manager promote: error = %v, want ErrAccessDenied", err)
	}
	// An admin can.
	if _, err := f.svc.UpdateUser(context.Background(), actorFor(adminA), employee.ID,
		UpdateUserInput{Role: &role}); err != nil {
		t.Fatalf("admin promote: %v", err)
	}
}

func TestDeleteUserScoped(t *testing.T) {
	f := newFixture(t)
	orgA, adminA := f.createOrg(t, "Org A", "org-a")
	orgB, _ := f.createOrg(t, "Org B", "org-b")
	empA := f.seedUser(t, orgA.ID, "emp@a.test", auth.RoleEmployee)
	empB := f.seedUser(t, orgB.ID, "emp@b.test", auth.RoleEmployee)

	if err := f.svc.DeleteUser(context.Background(), actorFor(adminA), empB.ID); !errors.Is(err, auth.ErrAccessDenied) {
		t.Fatalf("cross-org delete: error = %v, want ErrAccessDenied", err)
	}
	if err := f.svc.DeleteUser(context.Background(), actorFor(adminA), empA.ID); err != nil {
		t.Fatalf("own-org delete: %v", err)
	}
	if err := f.svc.DeleteUser(context.Background(), actorFor(adminA), "missing"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("missing delete: error = %v, want ErrNotFound", err)
	}
}

func TestListUsersScoped(t *testing.T) {
	f := newFixture(t)
	orgA, adminA := f.createOrg(t, "Org A", "org-a")
	orgB, _ := f.createOrg(t, "Org B", "org-b")
	f.seedUser(t, orgA.ID, "emp@a.test", auth.RoleEmployee)
	f.seedUser(t, orgB.ID, "emp@b.test", auth.RoleEmployee)

	all, err := f.svc.ListUsers(context.Background(), rootActor)
	if err != nil {
		t.Fatalf("root list: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("root sees %d users, want 4", len(all))
	}

	scoped, err := f.svc.ListUsers(context.Background(), actorFor(adminA))
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(scoped) != 2 {
		t.Fatalf("admin sees %d users, want 2", len(scoped))
	}
	for _, u := range scoped {
		if u.OrganizationID != orgA.ID {
			t.Fatalf("admin saw foreign user %+v", u)
		}
	}

	employee := auth.Identity{UserID: "emp", OrganizationID: orgA.ID, Role: auth.RoleEmployee}
	if _, err := f.svc.ListUsers(context.Background(), employee); !errors.Is(err, auth.ErrAccessDenied) {
		t.Fatalf("employee list: error = %v, want ErrAccessDenied", err)
	}
}

func TestProfileSelfService(t *testing.T) {
	f := newFixture(t)
	_, adminA := f.createOrg(t, "Org A", "org-a")

	got, err := f.svc.Profile(context.Background(), actorFor(adminA))
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if got.ID != adminA.ID {
		t.Fatalf("profile id = %q, want %q", got.ID, adminA.ID)
	}

	first := "New"
	pw := "changed-pass"
	updated, err := f.svc.UpdateProfile(context.Background(), actorFor(adminA),
		UpdateProfileInput{FirstName: &first, Password: &pw})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.FirstName != "New" {
		t.Fatalf("first name = %q, want New", updated.FirstName)
	}
	if err := auth.VerifyPassword(updated.PasswordHash, "changed-pass"); err != nil {
		t.Fatalf("new password not set: %v", err)
	}
}
