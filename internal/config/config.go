// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/tournament.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Store drivers
// --------------------------------------------------------------------------

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DefaultDBName is the fixed database the tournament lives in when no
// DATABASE_URL is given.
const DefaultDBName = "tournament"

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Store
	StoreDriver string
	DatabaseURL string
	SQLitePath  string

	// Postgres pool
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Cache
	CacheEnabled bool

	// Tournament rules
	StrictMatches bool

	// Background work
	ReconcileInterval time.Duration
	ListenEnabled     bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	driver := strings.ToLower(envOr("STORE_DRIVER", DriverPostgres))
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, driver)
	}

	return &Config{
		StoreDriver: driver,
		DatabaseURL: envOr("DATABASE_URL", "dbname="+envOr("TOURNAMENT_DB_NAME", DefaultDBName)),
		SQLitePath:  envOr("SQLITE_PATH", DefaultDBName+".db"),

		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 1),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		CacheEnabled: envBool("CACHE_ENABLED", true),

		StrictMatches: envBool("STRICT_MATCHES", false),

		ReconcileInterval: time.Duration(envInt("RECONCILE_INTERVAL_MINUTES", 0)) * time.Minute,
		ListenEnabled:     envBool("LISTEN_ENABLED", true),
	}, nil
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
