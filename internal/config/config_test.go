package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FREIGHTDESK_TOKEN_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected addr: %s", cfg.Addr)
	}
	if cfg.AccessTTL != 15*time.Minute {
		t.Fatalf("unexpected access ttl: %v", cfg.AccessTTL)
	}
	if cfg.RefreshTTL != 7*24*time.Hour {
		t.Fatalf("unexpected refresh ttl: %v", cfg.RefreshTTL)
	}
	if cfg.FrontendOrigin != "http://localhost:3000" {
		t.Fatalf("unexpected frontend origin: %s", cfg.FrontendOrigin)
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("FREIGHTDESK_TOKEN_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing secret")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FREIGHTDESK_TOKEN_SECRET", "test-secret")
	t.Setenv("FREIGHTDESK_ACCESS_TTL", "5m")
	t.Setenv("FREIGHTDESK_RATE_BURST", "50")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AccessTTL != 5*time.Minute {
		t.Fatalf("unexpected access ttl: %v", cfg.AccessTTL)
	}
	if cfg.RateBurst != 50 {
		t.Fatalf("unexpected burst: %d", cfg.RateBurst)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("FREIGHTDESK_TOKEN_SECRET", "test-secret")
	t.Setenv("FREIGHTDESK_REFRESH_TTL", "banana")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed duration")
	}
}
