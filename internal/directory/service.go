// Package directory implements organization and user management on top of the
// identity store: tenant lifecycle, capability-scoped user administration and
// profile self-service. Route-level role gating happens in the HTTP layer;
// this package enforces tenant scope and returns AccessDenied when a caller
// reaches for a resource outside it.
package directory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"freightdesk.org/internal/audit"
	"freightdesk.org/internal/auth"
)

const defaultMaxUsers = 10

// Service carries out organization and user operations for an authenticated
// caller.
type Service struct {
	store auth.Store
	rec   *audit.Recorder
	now   func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the directory service.
func NewService(store auth.Store, rec *audit.Recorder, opts ...ServiceOption) *Service {
	s := &Service{store: store, rec: rec, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) actorOf(identity auth.Identity) audit.Actor {
	return audit.Actor{UserID: identity.UserID, OrgID: identity.OrganizationID}
}

// CreateOrganizationInput describes a new tenant and its first admin account.
type CreateOrganizationInput struct {
	Name          string     `json:"name"`
	Slug          string     `json:"slug"`
	MaxUsers      int        `json:"max_users"`
	Plan          string     `json:"plan"`
	PlanExpiresAt *time.Time `json:"plan_expires_at"`

	AdminEmail     string `json:"admin_email"`
	AdminPassword  string `json:"admin_password"`
	AdminFirstName string `json:"admin_first_name"`
	AdminLastName  string `json:"admin_last_name"`
}

func (in *CreateOrganizationInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	in.AdminEmail = strings.ToLower(strings.TrimSpace(in.AdminEmail))
	if in.Name == "" || in.Slug == "" {
		return fmt.Errorf("%w: organization name and slug are required", auth.ErrInvalidInput)
	}
	if in.AdminEmail == "" || in.AdminPassword == "" {
		return fmt.Errorf("%w: admin email and password are required", auth.ErrInvalidInput)
	}
	if in.MaxUsers <= 0 {
		in.MaxUsers = defaultMaxUsers
	}
	return nil
}

// createTenant persists the organization and its admin user sequentially. The
// two writes are not atomic; a failed admin insert removes the fresh
// organization on a best-effort basis.
func (s *Service) createTenant(ctx context.Context, in CreateOrganizationInput, status string) (*auth.Organization, *auth.User, error) {
	hash, err := auth.HashPassword(in.AdminPassword)
	if err != nil {
		return nil, nil, err
	}
	org := &auth.Organization{
		Name:          in.Name,
		Slug:          in.Slug,
		Status:        status,
		MaxUsers:      in.MaxUsers,
		Plan:          in.Plan,
		PlanExpiresAt: in.PlanExpiresAt,
	}
	if err := s.store.Organizations(ctx).Create(ctx, org); err != nil {
		return nil, nil, err
	}
	admin := &auth.User{
		OrganizationID: org.ID,
		Email:          in.AdminEmail,
		PasswordHash:   hash,
		FirstName:      in.AdminFirstName,
		LastName:       in.AdminLastName,
		Role:           auth.RoleAdmin,
		Status:         status,
	}
	if err := s.store.Users(ctx).Create(ctx, admin); err != nil {
		_ = s.store.Organizations(ctx).Delete(ctx, org.ID)
		return nil, nil, err
	}
	return org, admin, nil
}

// CreateOrganization provisions an active tenant with an active admin user.
// One audit entry is written, after both records exist.
func (s *Service) CreateOrganization(ctx context.Context, actor auth.Identity, in CreateOrganizationInput) (*auth.Organization, *auth.User, error) {
	if actor.Role != auth.RoleRoot {
		return nil, nil, auth.ErrAccessDenied
	}
	if err := in.normalize(); err != nil {
		return nil, nil, err
	}
	org, admin, err := s.createTenant(ctx, in, auth.StatusActive)
	if err != nil {
		return nil, nil, err
	}
	s.rec.OrganizationEvent(ctx, audit.ActionOrgCreate, s.actorOf(actor), org.ID,
		"organization created", map[string]any{"slug": org.Slug, "admin_user_id": admin.ID})
	return org, admin, nil
}

// PublicRegister is the unauthenticated self-service path: the organization
// and its admin start inactive, pending approval. No audit entry is written;
// there is no actor to attribute.
func (s *Service) PublicRegister(ctx context.Context, in CreateOrganizationInput) (*auth.Organization, *auth.User, error) {
	if err := in.normalize(); err != nil {
		return nil, nil, err
	}
	return s.createTenant(ctx, in, auth.StatusInactive)
}

// ListOrganizations returns all tenants. Root only.
func (s *Service) ListOrganizations(ctx context.Context, actor auth.Identity) ([]*auth.Organization, error) {
	if actor.Role != auth.RoleRoot {
		return nil, auth.ErrAccessDenied
	}
	return s.store.Organizations(ctx).List(ctx)
}

// GetOrganization loads one tenant. Root only.
func (s *Service) GetOrganization(ctx context.Context, actor auth.Identity, id string) (*auth.Organization, error) {
	if actor.Role != auth.RoleRoot {
		return nil, auth.ErrAccessDenied
	}
	return s.store.Organizations(ctx).Find(ctx, id)
}

// UpdateOrganizationInput carries optional tenant changes; nil means unchanged.
type UpdateOrganizationInput struct {
	Name          *string    `json:"name"`
	Slug          *string    `json:"slug"`
	MaxUsers      *int       `json:"max_users"`
	Plan          *string    `json:"plan"`
	PlanExpiresAt *time.Time `json:"plan_expires_at"`
}

// UpdateOrganization applies tenant changes. Root only.
func (s *Service) UpdateOrganization(ctx context.Context, actor auth.Identity, id string, in UpdateOrganizationInput) (*auth.Organization, error) {
	if actor.Role != auth.RoleRoot {
		return nil, auth.ErrAccessDenied
	}
	upd := auth.OrganizationUpdate{
		MaxUsers:      in.MaxUsers,
		Plan:          in.Plan,
		PlanExpiresAt: in.PlanExpiresAt,
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: organization name cannot be empty", auth.ErrInvalidInput)
		}
		upd.Name = &name
	}
	if in.Slug != nil {
		slug := strings.ToLower(strings.TrimSpace(*in.Slug))
		if slug == "" {
			return nil, fmt.Errorf("%w: organization slug cannot be empty", auth.ErrInvalidInput)
		}
		upd.Slug = &slug
	}
	org, err := s.store.Organizations(ctx).Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.rec.OrganizationEvent(ctx, audit.ActionOrgUpdate, s.actorOf(actor), org.ID,
		"organization updated", nil)
	return org, nil
}

// UpdateOrganizationStatus flips a tenant between active, inactive and
// suspended. Root only. Users of a non-active organization cannot log in.
func (s *Service) UpdateOrganizationStatus(ctx context.Context, actor auth.Identity, id, status string) (*auth.Organization, error) {
	if actor.Role != auth.RoleRoot {
		return nil, auth.ErrAccessDenied
	}
	status = strings.ToLower(strings.TrimSpace(status))
	if !auth.ValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", auth.ErrInvalidInput, status)
	}
	org, err := s.store.Organizations(ctx).Update(ctx, id, auth.OrganizationUpdate{Status: &status})
	if err != nil {
		return nil, err
	}
	s.rec.OrganizationEvent(ctx, audit.ActionOrgStatusChange, s.actorOf(actor), org.ID,
		"organization status changed", map[string]any{"status": status})
	return org, nil
}

// DeleteOrganization removes the tenant and all of its users. The cascade runs
// at this layer, not in storage, and produces exactly one audit entry.
func (s *Service) DeleteOrganization(ctx context.Context, actor auth.Identity, id string) error {
	if actor.Role != auth.RoleRoot {
		return auth.ErrAccessDenied
	}
	org, err := s.store.Organizations(ctx).Find(ctx, id)
	if err != nil {
		return err
	}
	deleted, err := s.store.Users(ctx).DeleteByOrg(ctx, org.ID)
	if err != nil {
		return err
	}
	if err := s.store.Organizations(ctx).Delete(ctx, org.ID); err != nil {
		return err
	}
	s.rec.OrganizationEvent(ctx, audit.ActionOrgDelete, s.actorOf(actor), org.ID,
		"organization deleted", map[string]any{"slug": org.Slug, "deleted_users": deleted})
	return nil
}

// canManage applies the capability matrix for one caller acting on a user
// that belongs to targetOrg and holds targetRole.
func canManage(actor auth.Identity, targetOrg string, targetRole auth.Role) error {
	switch actor.Role {
	case auth.RoleRoot:
		return nil
	case auth.RoleAdmin:
		if targetOrg != "" && targetOrg == actor.OrganizationID && targetRole != auth.RoleRoot {
			return nil
		}
	case auth.RoleManager:
		if targetOrg != "" && targetOrg == actor.OrganizationID && targetRole == auth.RoleEmployee {
			return nil
		}
	}
	return auth.ErrAccessDenied
}
