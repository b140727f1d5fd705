package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"freightdesk.org/internal/audit"
	"freightdesk.org/internal/ids"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// Service owns credential verification and the bearer-token lifecycle.
type Service struct {
	store  Store
	rec    *audit.Recorder
	secret []byte
	now    func() time.Time

	accessTTL  time.Duration
	refreshTTL time.Duration
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithAccessTTL configures access token lifetime.
func WithAccessTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.accessTTL = ttl
		}
	}
}

// WithRefreshTTL configures refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithRecorder attaches the audit recorder. Token events are fire-and-forget.
func WithRecorder(rec *audit.Recorder) ServiceOption {
	return func(s *Service) { s.rec = rec }
}

// NewService constructs the token service.
func NewService(store Store, secret string, opts ...ServiceOption) (*Service, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("auth: token secret is required")
	}
	svc := &Service{
		store:      store,
		secret:     []byte(secret),
		now:        time.Now,
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// TokenPair is the result of login and refresh.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// Login verifies credentials and issues a token pair. Inactive accounts and
// inactive organizations are rejected the same way as bad credentials.
func (s *Service) Login(ctx context.Context, email, password string) (TokenPair, *User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return TokenPair{}, nil, ErrUnauthenticated
	}
	user, err := s.store.Users(ctx).FindByEmail(ctx, email)
	if err != nil {
		s.auditLoginFailed(ctx, email)
		return TokenPair{}, nil, ErrUnauthenticated
	}
	if user.Status != StatusActive {
		s.auditLoginFailed(ctx, email)
		return TokenPair{}, nil, ErrUnauthenticated
	}
	if user.OrganizationID != "" {
		org, err := s.store.Organizations(ctx).Find(ctx, user.OrganizationID)
		if err != nil || org.Status != StatusActive {
			s.auditLoginFailed(ctx, email)
			return TokenPair{}, nil, ErrUnauthenticated
		}
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		s.auditLoginFailed(ctx, email)
		return TokenPair{}, nil, ErrUnauthenticated
	}

	pair, err := s.Issue(ctx, user)
	if err != nil {
		return TokenPair{}, nil, err
	}

	loginAt := s.now().UTC()
	if err := s.store.Users(ctx).SetLastLogin(ctx, user.ID, loginAt); err == nil {
		user.LastLoginAt = &loginAt
	}
	if s.rec != nil {
		s.rec.UserEvent(ctx, audit.ActionUserLogin, audit.Actor{UserID: user.ID, OrgID: user.OrganizationID},
			user.ID, "user logged in", nil)
	}
	return pair, user, nil
}

func (s *Service) auditLoginFailed(ctx context.Context, email string) {
	if s.rec == nil {
		return
	}
	s.rec.UserEvent(ctx, audit.ActionUserLoginFailed, audit.Actor{}, "",
		"failed login attempt", map[string]any{"email": email})
}

// Issue mints an access token and persists a fresh refresh token for the user.
func (s *Service) Issue(ctx context.Context, user *User) (TokenPair, error) {
	now := s.now().UTC()
	access, accessExp, err := mintAccessToken(user, s.secret, s.accessTTL, now)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rec, err := s.generateRefreshToken(user.ID, now)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.store.RefreshTokens(ctx).Create(ctx, rec); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: rec.ExpiresAt,
	}, nil
}

// Refresh exchanges a valid refresh token for a new pair. The presented token
// stays valid until its own expiry or an explicit revoke; concurrent sessions
// per user are allowed.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, *User, error) {
	tokenID, secret, err := splitRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, nil, ErrUnauthenticated
	}
	record, err := s.store.RefreshTokens(ctx).Find(ctx, tokenID)
	if err != nil {
		return TokenPair{}, nil, ErrUnauthenticated
	}
	if !record.Valid(s.now()) {
		return TokenPair{}, nil, ErrUnauthenticated
	}
	if !secureCompareHash(record.TokenHash, secret) {
		return TokenPair{}, nil, ErrUnauthenticated
	}
	user, err := s.store.Users(ctx).Find(ctx, record.UserID)
	if err != nil {
		return TokenPair{}, nil, ErrUnauthenticated
	}
	if user.Status != StatusActive {
		return TokenPair{}, nil, ErrUnauthenticated
	}

	pair, err := s.Issue(ctx, user)
	if err != nil {
		return TokenPair{}, nil, err
	}
	if s.rec != nil {
		s.rec.SystemEvent(ctx, audit.ActionSystemTokenRefresh,
			audit.Actor{UserID: user.ID, OrgID: user.OrganizationID},
			"refresh token exchanged", map[string]any{"token_id": tokenID})
	}
	return pair, user, nil
}

// Revoke marks the matching refresh token revoked. Idempotent: revoking an
// already revoked or unknown token is not an error, and the audit event is
// recorded either way.
func (s *Service) Revoke(ctx context.Context, refreshToken string) error {
	tokenID, _, err := splitRefreshToken(refreshToken)
	details := map[string]any{"matched": false}
	var owner string
	if err == nil {
		if record, findErr := s.store.RefreshTokens(ctx).Find(ctx, tokenID); findErr == nil {
			details["matched"] = true
			details["token_id"] = tokenID
			owner = record.UserID
			if revokeErr := s.store.RefreshTokens(ctx).Revoke(ctx, record.ID, s.now().UTC()); revokeErr != nil {
				return revokeErr
			}
		}
	}
	if s.rec != nil {
		s.rec.SystemEvent(ctx, audit.ActionSystemTokenRevoke, audit.Actor{UserID: owner}, "refresh token revoked", details)
		if owner != "" {
			s.rec.UserEvent(ctx, audit.ActionUserLogout, audit.Actor{UserID: owner}, owner, "user logged out", nil)
		}
	}
	return nil
}

// Authenticate validates an access token and resolves the caller identity
// without touching the database.
func (s *Service) Authenticate(token string) (Identity, error) {
	identity, err := parseAccessToken(token, s.secret)
	if err != nil {
		return Identity{}, ErrUnauthenticated
	}
	return identity, nil
}

// EnsureRootUser creates the root account when absent. Called once at process
// startup; never an import-time side effect. Idempotent.
func (s *Service) EnsureRootUser(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return fmt.Errorf("%w: root email is required", ErrInvalidInput)
	}
	if _, err := s.store.Users(ctx).FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	if password == "" {
		return fmt.Errorf("%w: root password is required to bootstrap", ErrInvalidInput)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	root := &User{
		ID:           ids.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Root",
		LastName:     "User",
		Role:         RoleRoot,
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Users(ctx).Create(ctx, root); err != nil {
		// A concurrent bootstrap may have won; that still satisfies the
		// one-root goal.
		if errors.Is(err, ErrConflict) {
			return nil
		}
		return err
	}
	if s.rec != nil {
		s.rec.SystemEvent(ctx, audit.ActionSystemStartup, audit.Actor{UserID: root.ID},
			"root user bootstrapped", map[string]any{"email": email})
	}
	return nil
}

// generateRefreshToken produces the wire token "id.secret" and the persisted
// record holding only a hash of the secret.
func (s *Service) generateRefreshToken(userID string, now time.Time) (string, *RefreshToken, error) {
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", nil, err
	}
	secret := base64.RawURLEncoding.EncodeToString(secretBytes)
	sum := sha256.Sum256([]byte(secret))
	rec := &RefreshToken{
		ID:        ids.New(),
		UserID:    userID,
		TokenHash: hex.EncodeToString(sum[:]),
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}
	return rec.ID + "." + secret, rec, nil
}

func splitRefreshToken(raw string) (id, secret string, err error) {
	parts := strings.Split(strings.TrimSpace(raw), ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.New("invalid refresh token format")
	}
	return parts[0], parts[1], nil
}

func secureCompareHash(expectedHash, secret string) bool {
	sum := sha256.Sum256([]byte(secret))
	actual := hex.EncodeToString(sum[:])
	if len(expectedHash) != len(actual) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expectedHash), []byte(actual)) == 1
}
