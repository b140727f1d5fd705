package auth

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"freightdesk.org/internal/ids"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process Store used by tests and DSN-less runs. Unique
// constraints (email, organization name and slug) are enforced the same way
// the PostgreSQL schema does.
type MemoryStore struct {
	mu     sync.RWMutex
	orgs   map[string]*Organization
	users  map[string]*User
	tokens map[string]*RefreshToken
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orgs:   map[string]*Organization{},
		users:  map[string]*User{},
		tokens: map[string]*RefreshToken{},
		now:    time.Now,
	}
}

func (s *MemoryStore) Organizations(context.Context) OrganizationStore { return &memOrgStore{s} }
func (s *MemoryStore) Users(context.Context) UserStore                 { return &memUserStore{s} }
func (s *MemoryStore) RefreshTokens(context.Context) RefreshTokenStore { return &memTokenStore{s} }

// Organization store -------------------------------------------------------

type memOrgStore struct{ s *MemoryStore }

func (m *memOrgStore) Create(ctx context.Context, org *Organization) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.orgs {
		if strings.EqualFold(existing.Name, org.Name) || strings.EqualFold(existing.Slug, org.Slug) {
			return ErrConflict
		}
	}
	if org.ID == "" {
		org.ID = ids.New()
	}
	now := m.s.now().UTC()
	org.CreatedAt = now
	org.UpdatedAt = now
	copied := *org
	m.s.orgs[org.ID] = &copied
	return nil
}

func (m *memOrgStore) Find(ctx context.Context, id string) (*Organization, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	org, ok := m.s.orgs[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *org
	return &copied, nil
}

func (m *memOrgStore) FindBySlug(ctx context.Context, slug string) (*Organization, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	for _, org := range m.s.orgs {
		if strings.EqualFold(org.Slug, slug) {
			copied := *org
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memOrgStore) List(ctx context.Context) ([]*Organization, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var result []*Organization
	for _, org := range m.s.orgs {
		copied := *org
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *memOrgStore) Update(ctx context.Context, id string, upd OrganizationUpdate) (*Organization, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	org, ok := m.s.orgs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Name != nil {
		for oid, existing := range m.s.orgs {
			if oid != id && strings.EqualFold(existing.Name, *upd.Name) {
				return nil, ErrConflict
			}
		}
		org.Name = *upd.Name
	}
	if upd.Slug != nil {
		for oid, existing := range m.s.orgs {
			if oid != id && strings.EqualFold(existing.Slug, *upd.Slug) {
				return nil, ErrConflict
			}
		}
		org.Slug = *upd.Slug
	}
	if upd.Status != nil {
		org.Status = *upd.Status
	}
	if upd.MaxUsers != nil {
		org.MaxUsers = *upd.MaxUsers
	}
	if upd.Plan != nil {
		org.Plan = *upd.Plan
	}
	if upd.PlanExpiresAt != nil {
		t := *upd.PlanExpiresAt
		org.PlanExpiresAt = &t
	}
	org.UpdatedAt = m.s.now().UTC()
	copied := *org
	return &copied, nil
}

func (m *memOrgStore) Delete(ctx context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.orgs[id]; !ok {
		return ErrNotFound
	}
	delete(m.s.orgs, id)
	return nil
}

// User store ---------------------------------------------------------------

type memUserStore struct{ s *MemoryStore }

func (m *memUserStore) Create(ctx context.Context, u *User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrConflict
		}
	}
	if u.OrganizationID != "" {
		if _, ok := m.s.orgs[u.OrganizationID]; !ok {
			return ErrNotFound
		}
	}
	if u.ID == "" {
		u.ID = ids.New()
	}
	now := m.s.now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	copied := *u
	m.s.users[u.ID] = &copied
	return nil
}

func (m *memUserStore) Find(ctx context.Context, id string) (*User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	u, ok := m.s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *memUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	for _, u := range m.s.users {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memUserStore) List(ctx context.Context) ([]*User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	return m.collect(func(*User) bool { return true }), nil
}

func (m *memUserStore) ListByOrg(ctx context.Context, orgID string) ([]*User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	return m.collect(func(u *User) bool { return u.OrganizationID == orgID }), nil
}

func (m *memUserStore) collect(keep func(*User) bool) []*User {
	var users []*User
	for _, u := range m.s.users {
		if keep(u) {
			copied := *u
			users = append(users, &copied)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func (m *memUserStore) CountByOrg(ctx context.Context, orgID string) (int, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	count := 0
	for _, u := range m.s.users {
		if u.OrganizationID == orgID {
			count++
		}
	}
	return count, nil
}

func (m *memUserStore) Update(ctx context.Context, id string, upd UserUpdate) (*User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Email != nil {
		for uid, existing := range m.s.users {
			if uid != id && strings.EqualFold(existing.Email, *upd.Email) {
				return nil, ErrConflict
			}
		}
		u.Email = *upd.Email
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.Status != nil {
		u.Status = *upd.Status
	}
	u.UpdatedAt = m.s.now().UTC()
	copied := *u
	return &copied, nil
}

func (m *memUserStore) Delete(ctx context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.s.users, id)
	return nil
}

func (m *memUserStore) DeleteByOrg(ctx context.Context, orgID string) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	count := 0
	for id, u := range m.s.users {
		if u.OrganizationID == orgID {
			delete(m.s.users, id)
			count++
		}
	}
	return count, nil
}

func (m *memUserStore) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[id]
	if !ok {
		return ErrNotFound
	}
	t := at
	u.LastLoginAt = &t
	return nil
}

// Refresh token store ------------------------------------------------------

type memTokenStore struct{ s *MemoryStore }

func (m *memTokenStore) Create(ctx context.Context, tok *RefreshToken) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	copied := *tok
	m.s.tokens[tok.ID] = &copied
	return nil
}

func (m *memTokenStore) Find(ctx context.Context, id string) (*RefreshToken, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	tok, ok := m.s.tokens[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *tok
	if tok.RevokedAt != nil {
		t := *tok.RevokedAt
		copied.RevokedAt = &t
	}
	return &copied, nil
}

func (m *memTokenStore) Revoke(ctx context.Context, id string, at time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	tok, ok := m.s.tokens[id]
	if !ok || tok.RevokedAt != nil {
		return nil
	}
	t := at
	tok.RevokedAt = &t
	return nil
}
