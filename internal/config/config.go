// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains example secrets that must never be used.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"COURSEHUB_DB_PATH" envDefault:"./data/coursehub.db"`
	SessionSecret string `env:"COURSEHUB_SESSION_SECRET,required"`
	ServerHost    string `env:"COURSEHUB_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"COURSEHUB_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"COURSEHUB_ENV" envDefault:"development"`
	LogLevel      string `env:"COURSEHUB_LOG_LEVEL" envDefault:"info"`

	// Cache configuration
	RedisURL     string `env:"COURSEHUB_REDIS_URL"`                              // Optional Redis URL for a shared course cache
	CachePrefix  string `env:"COURSEHUB_CACHE_PREFIX" envDefault:"coursehub:"`   // Redis key prefix
	CacheTTL     int    `env:"COURSEHUB_CACHE_TTL" envDefault:"300"`             // Course cache TTL in seconds
	CacheMaxSize int    `env:"COURSEHUB_CACHE_MAX_SIZE" envDefault:"1000"`       // Max memory cache entries

	// Background jobs. An empty schedule leaves the job manual-only.
	SweepSchedule      string `env:"COURSEHUB_SWEEP_SCHEDULE" envDefault:"@hourly"`
	PruneSchedule      string `env:"COURSEHUB_PRUNE_SCHEDULE" envDefault:"@daily"`
	EventRetentionDays int    `env:"COURSEHUB_EVENT_RETENTION_DAYS" envDefault:"90"`

	// Origins allowed to submit state-changing requests, e.g. a dev frontend.
	TrustedOrigins []string `env:"COURSEHUB_TRUSTED_ORIGINS" envSeparator:","`

	// Seed demo accounts and course content into an empty database.
	DoSeed bool `env:"COURSEHUB_DO_SEED" envDefault:"true"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// EventRetention returns how long events are kept. Zero disables pruning.
func (c Config) EventRetention() time.Duration {
	if c.EventRetentionDays <= 0 {
		return 0
	}
	return time.Duration(c.EventRetentionDays) * 24 * time.Hour
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("COURSEHUB_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("COURSEHUB_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if cfg.ServerPort <= 0 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("COURSEHUB_SERVER_PORT %d is out of range", cfg.ServerPort)
	}
	if cfg.CacheTTL < 0 || cfg.CacheMaxSize < 0 {
		return nil, fmt.Errorf("cache TTL and size must not be negative")
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("COURSEHUB_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
