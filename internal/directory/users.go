package directory

import (
	"context"
	"fmt"
	"strings"

	"freightdesk.org/internal/audit"
	"freightdesk.org/internal/auth"
)

// CreateUserInput describes a subordinate account. OrganizationID may be
// omitted by admin and manager callers; it then defaults to their own tenant.
type CreateUserInput struct {
	OrganizationID string `json:"organization_id"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Role           string `json:"role"`
}

// CreateUser adds a user under the capability matrix and the tenant's user
// limit.
func (s *Service) CreateUser(ctx context.Context, actor auth.Identity, in CreateUserInput) (*auth.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", auth.ErrInvalidInput)
	}
	role, err := auth.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}
	if role == auth.RoleRoot {
		return nil, fmt.Errorf("%w: root accounts are created at bootstrap only", auth.ErrInvalidInput)
	}
	orgID := strings.TrimSpace(in.OrganizationID)
	if orgID == "" && actor.Role != auth.RoleRoot {
		orgID = actor.OrganizationID
	}
	if orgID == "" {
		return nil, fmt.Errorf("%w: organization id is required", auth.ErrInvalidInput)
	}
	if err := canManage(actor, orgID, role); err != nil {
		return nil, err
	}

	org, err := s.store.Organizations(ctx).Find(ctx, orgID)
	if err != nil {
		return nil, err
	}
	count, err := s.store.Users(ctx).CountByOrg(ctx, org.ID)
	if err != nil {
		return nil, err
	}
	if count >= org.MaxUsers {
		return nil, fmt.Errorf("%w: organization user limit reached", auth.ErrConflict)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &auth.User{
		OrganizationID: org.ID,
		Email:          in.Email,
		PasswordHash:   hash,
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Role:           role,
		Status:         auth.StatusActive,
	}
	if err := s.store.Users(ctx).Create(ctx, user); err != nil {
		return nil, err
	}
	s.rec.UserEvent(ctx, audit.ActionUserCreate, s.actorOf(actor), user.ID,
		"user created", map[string]any{"email": user.Email, "role": user.Role.String()})
	return user, nil
}

// ListUsers returns all users for root and the caller's own tenant for admin
// and manager.
func (s *Service) ListUsers(ctx context.Context, actor auth.Identity) ([]*auth.User, error) {
	switch actor.Role {
	case auth.RoleRoot:
		return s.store.Users(ctx).List(ctx)
	case auth.RoleAdmin, auth.RoleManager:
		return s.store.Users(ctx).ListByOrg(ctx, actor.OrganizationID)
	default:
		return nil, auth.ErrAccessDenied
	}
}

// GetUser loads one user under tenant scoping.
func (s *Service) GetUser(ctx context.Context, actor auth.Identity, id string) (*auth.User, error) {
	user, err := s.store.Users(ctx).Find(ctx, id)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case auth.RoleRoot:
		return user, nil
	case auth.RoleAdmin, auth.RoleManager:
		if user.OrganizationID != "" && user.OrganizationID == actor.OrganizationID {
			return user, nil
		}
	}
	return nil, auth.ErrAccessDenied
}

// UpdateUserInput carries optional user changes; nil means unchanged.
type UpdateUserInput struct {
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Role      *string `json:"role"`
	Status    *string `json:"status"`
}

// UpdateUser applies changes to a user the caller may manage. A role change
// additionally requires the caller to be allowed to manage the new role.
func (s *Service) UpdateUser(ctx context.Context, actor auth.Identity, id string, in UpdateUserInput) (*auth.User, error) {
	target, err := s.store.Users(ctx).Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := canManage(actor, target.OrganizationID, target.Role); err != nil {
		return nil, err
	}

	upd := auth.UserUpdate{
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}
	action := audit.ActionUserUpdate
	details := map[string]any{}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email == "" {
			return nil, fmt.Errorf("%w: email cannot be empty", auth.ErrInvalidInput)
		}
		upd.Email = &email
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, fmt.Errorf("%w: password cannot be empty", auth.ErrInvalidInput)
		}
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		upd.PasswordHash = &hash
		action = audit.ActionUserPasswordChange
	}
	if in.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*in.Status))
		if !auth.ValidStatus(status) {
			return nil, fmt.Errorf("%w: unknown status %q", auth.ErrInvalidInput, status)
		}
		upd.Status = &status
		action = audit.ActionUserStatusChange
		details["status"] = status
	}
	if in.Role != nil {
		role, err := auth.ParseRole(*in.Role)
		if err != nil {
			return nil, err
		}
		if role == auth.RoleRoot {
			return nil, fmt.Errorf("%w: cannot promote to root", auth.ErrInvalidInput)
		}
		if err := canManage(actor, target.OrganizationID, role); err != nil {
			return nil, err
		}
		upd.Role = &role
		action = audit.ActionUserRoleChange
		details["role"] = role.String()
	}

	user, err := s.store.Users(ctx).Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		details = nil
	}
	s.rec.UserEvent(ctx, action, s.actorOf(actor), user.ID, "user updated", details)
	return user, nil
}

// DeleteUser removes a user the caller may manage.
func (s *Service) DeleteUser(ctx context.Context, actor auth.Identity, id string) error {
	target, err := s.store.Users(ctx).Find(ctx, id)
	if err != nil {
		return err
	}
	if err := canManage(actor, target.OrganizationID, target.Role); err != nil {
		return err
	}
	if err := s.store.Users(ctx).Delete(ctx, id); err != nil {
		return err
	}
	s.rec.UserEvent(ctx, audit.ActionUserDelete, s.actorOf(actor), id,
		"user deleted", map[string]any{"email": target.Email})
	return nil
}

// Profile returns the caller's own record.
func (s *Service) Profile(ctx context.Context, actor auth.Identity) (*auth.User, error) {
	return s.store.Users(ctx).Find(ctx, actor.UserID)
}

// UpdateProfileInput is the self-service subset of user fields.
type UpdateProfileInput struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Password  *string `json:"password"`
}

// UpdateProfile lets any authenticated user edit their own name and password.
// Role, status and tenant are not self-serviceable.
func (s *Service) UpdateProfile(ctx context.Context, actor auth.Identity, in UpdateProfileInput) (*auth.User, error) {
	upd := auth.UserUpdate{
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}
	action := audit.ActionUserProfileUpdate
	if in.Password != nil {
		if *in.Password == "" {
			return nil, fmt.Errorf("%w: password cannot be empty", auth.ErrInvalidInput)
		}
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		upd.PasswordHash = &hash
		action = audit.ActionUserPasswordChange
	}
	user, err := s.store.Users(ctx).Update(ctx, actor.UserID, upd)
	if err != nil {
		return nil, err
	}
	s.rec.UserEvent(ctx, action, s.actorOf(actor), user.ID, "profile updated", nil)
	return user, nil
}
