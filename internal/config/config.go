// Package config loads server configuration from the environment.
//
// Every setting has a usable local default so `agenthub serve` works out
// of the box with a SQLite database under the user's home directory.
// Auth is opt-in: enabling it requires a JWT secret, which Load enforces.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all runtime settings.
type Config struct {
	// DatabaseURL selects the storage backend. A postgres:// or
	// postgresql:// URL uses PostgreSQL; anything else is treated as a
	// SQLite file path. Empty means the default SQLite location.
	DatabaseURL string

	// HTTPAddr is the listen address for HTTP mode.
	HTTPAddr string

	// AuthEnabled turns on bearer token checks for the HTTP surface.
	AuthEnabled bool

	// JWTSecret signs and verifies access tokens (HS256).
	JWTSecret string

	// TokenTTL bounds issued token lifetimes.
	TokenTTL time.Duration

	// ClientID and ClientSecret are the credentials accepted by the
	// token endpoint.
	ClientID     string
	ClientSecret string

	// CacheTTL and CacheMaxEntries tune the summary response cache.
	CacheTTL        time.Duration
	CacheMaxEntries int

	// LogLevel sets the zap level: debug, info, warn, error.
	LogLevel string
}

// Load reads configuration from the environment, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		HTTPAddr:        envOr("HTTP_ADDR", ":8000"),
		AuthEnabled:     envBool("AUTH_ENABLED", false),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		TokenTTL:        envDuration("TOKEN_TTL", time.Hour),
		ClientID:        os.Getenv("AUTH_CLIENT_ID"),
		ClientSecret:    os.Getenv("AUTH_CLIENT_SECRET"),
		CacheTTL:        envDuration("CACHE_TTL", 5*time.Minute),
		CacheMaxEntries: envInt("CACHE_MAX_ENTRIES", 1000),
		LogLevel:        envOr("LOG_LEVEL", "info"),
	}

	if cfg.DatabaseURL == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("config: resolve home dir: %w", err)
		}
		cfg.DatabaseURL = filepath.Join(home, ".agenthub", "agenthub.db")
	}

	if cfg.AuthEnabled && cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("config: JWT_SECRET is required when AUTH_ENABLED=true")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
