package auth

import (
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	user := &User{
		ID:             "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		OrganizationID: "org-1",
		Email:          "carla@acme.test",
		Role:           RoleManager,
	}
	secret := []byte("test-secret")
	now := time.Now()

	signed, exp, err := mintAccessToken(user, secret, 15*time.Minute, now)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if !exp.After(now) {
		t.Fatalf("expiry %v not after issue time %v", exp, now)
	}

	identity, err := parseAccessToken(signed, secret)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if identity.UserID != user.ID {
		t.Fatalf("user id = %q, want %q", identity.UserID, user.ID)
	}
	if identity.Email != user.Email {
		t.Fatalf("email = %q, want %q", identity.Email, user.Email)
	}
	if identity.Role != RoleManager {
		t.Fatalf("role = %q, want manager", identity.Role)
	}
	if identity.OrganizationID != "org-1" {
		t.Fatalf("org = %q, want org-1", identity.OrganizationID)
	}
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	user := &User{ID: "u1", Email: "u@x.test", Role: RoleEmployee}
	signed, _, err := mintAccessToken(user, []byte("secret-a"), time.Minute, time.Now())
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := parseAccessToken(signed, []byte("secret-b")); err == nil {
		t.Fatalf("expected rejection with the wrong secret")
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	user := &User{ID: "u1", Email: "u@x.test", Role: RoleEmployee}
	signed, _, err := mintAccessToken(user, []byte("secret"), time.Minute, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := parseAccessToken(signed, []byte("secret")); err == nil {
		t.Fatalf("expected rejection of an expired token")
	}
}

func TestParseAccessTokenRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "  ", "not.a.jwt", "a.b"} {
		if _, err := parseAccessToken(raw, []byte("secret")); err == nil {
			t.Fatalf("parse(%q): expected error", raw)
		}
	}
}
