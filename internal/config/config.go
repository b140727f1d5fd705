package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries all environment-driven settings for the API process.
type Config struct {
	Addr string

	// AuthDSN points at the identity/audit schema, CargoDSN at the business
	// data schema. Either may be empty, in which case the process runs on
	// in-memory stores (dev/test mode).
	AuthDSN  string
	CargoDSN string

	TokenSecret string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration

	FrontendOrigin string

	RootEmail    string
	RootPassword string

	RateBurst  int
	RatePerSec int
}

var errMissingSecret = errors.New("config: FREIGHTDESK_TOKEN_SECRET is required")

// Load reads configuration from the environment. Defaults mirror production
// settings; only the token signing secret is mandatory.
func Load() (Config, error) {
	cfg := Config{
		Addr:           getString("FREIGHTDESK_ADDR", ":8080"),
		AuthDSN:        os.Getenv("FREIGHTDESK_AUTH_DSN"),
		CargoDSN:       os.Getenv("FREIGHTDESK_CARGO_DSN"),
		TokenSecret:    strings.TrimSpace(os.Getenv("FREIGHTDESK_TOKEN_SECRET")),
		FrontendOrigin: getString("FREIGHTDESK_FRONTEND_ORIGIN", "http://localhost:3000"),
		RootEmail:      getString("FREIGHTDESK_ROOT_EMAIL", "root@freightdesk.org"),
		RootPassword:   os.Getenv("FREIGHTDESK_ROOT_PASSWORD"),
	}
	if cfg.TokenSecret == "" {
		return Config{}, errMissingSecret
	}

	var err error
	if cfg.AccessTTL, err = getDuration("FREIGHTDESK_ACCESS_TTL", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTTL, err = getDuration("FREIGHTDESK_REFRESH_TTL", 7*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.RateBurst, err = getInt("FREIGHTDESK_RATE_BURST", 20); err != nil {
		return Config{}, err
	}
	if cfg.RatePerSec, err = getInt("FREIGHTDESK_RATE_PER_SEC", 10); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive", key)
	}
	return d, nil
}

func getInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("config: %s must be positive", key)
	}
	return v, nil
}
