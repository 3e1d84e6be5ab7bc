// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"log/slog"
	"time"
)

// Backend names reported in Stats.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config selects and tunes a backend.
type Config struct {
	// RedisURL selects the Redis backend when set.
	RedisURL string

	// Prefix namespaces Redis keys. Defaults to DefaultPrefix.
	Prefix string

	DefaultTTL time.Duration

	// MaxItems caps the memory backend.
	MaxItems int

	CleanupInterval time.Duration
}

// DefaultConfig returns a memory cache configuration.
func DefaultConfig() Config {
	return Config{
		Prefix:          DefaultPrefix,
		DefaultTTL:      time.Hour,
		MaxItems:        1000,
		CleanupInterval: time.Minute,
	}
}

// New returns a Redis cache when cfg.RedisURL is set and reachable, and a
// memory cache otherwise. A Redis failure is logged and never fatal.
func New(cfg Config) Cacher {
	if cfg.RedisURL != "" {
		opts := DefaultRedisCacheOptions()
		opts.URL = cfg.RedisURL
		if cfg.Prefix != "" {
			opts.Prefix = cfg.Prefix
		}
		if cfg.DefaultTTL > 0 {
			opts.DefaultTTL = cfg.DefaultTTL
		}

		rc, err := NewRedisCache(opts)
		if err == nil {
			slog.Info("course cache using redis", "category", "cache", "prefix", opts.Prefix)
			return rc
		}
		slog.Warn("redis unavailable, falling back to memory cache",
			"category", "cache", "error", err)
	}

	slog.Info("course cache using memory", "category", "cache", "max_items", cfg.MaxItems)
	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxItems:        cfg.MaxItems,
		CleanupInterval: cfg.CleanupInterval,
	})
}

// StatsOf returns the counters of c, or only its backend name when c keeps
// none.
func StatsOf(c Cacher) Stats {
	if sp, ok := c.(StatsProvider); ok {
		return sp.Stats()
	}
	return Stats{Backend: "unknown"}
}
