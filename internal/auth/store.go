package auth

import (
	"context"
	"time"
)

// Store describes persistence operations required by the identity subsystem.
type Store interface {
	Organizations(ctx context.Context) OrganizationStore
	Users(ctx context.Context) UserStore
	RefreshTokens(ctx context.Context) RefreshTokenStore
}

// OrganizationUpdate carries optional field changes; nil means unchanged.
type OrganizationUpdate struct {
	Name          *string
	Slug          *string
	Status        *string
	MaxUsers      *int
	Plan          *string
	PlanExpiresAt *time.Time
}

// UserUpdate carries optional field changes; nil means unchanged.
type UserUpdate struct {
	Email        *string
	PasswordHash *string
	FirstName    *string
	LastName     *string
	Role         *Role
	Status       *string
}

// OrganizationStore manages tenant records.
type OrganizationStore interface {
	Create(ctx context.Context, org *Organization) error
	Find(ctx context.Context, id string) (*Organization, error)
	FindBySlug(ctx context.Context, slug string) (*Organization, error)
	List(ctx context.Context) ([]*Organization, error)
	Update(ctx context.Context, id string, upd OrganizationUpdate) (*Organization, error)
	Delete(ctx context.Context, id string) error
}

// UserStore manages identity records.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	ListByOrg(ctx context.Context, orgID string) ([]*User, error)
	CountByOrg(ctx context.Context, orgID string) (int, error)
	Update(ctx context.Context, id string, upd UserUpdate) (*User, error)
	Delete(ctx context.Context, id string) error
	DeleteByOrg(ctx context.Context, orgID string) (int, error)
	SetLastLogin(ctx context.Context, id string, at time.Time) error
}

// RefreshTokenStore manages the refresh-token lifecycle. Tokens are never
// physically deleted.
type RefreshTokenStore interface {
	Create(ctx context.Context, tok *RefreshToken) error
	Find(ctx context.Context, id string) (*RefreshToken, error)
	// Revoke sets the revocation timestamp once. Calling it on an already
	// revoked token changes nothing and returns no error.
	Revoke(ctx context.Context, id string, at time.Time) error
}
