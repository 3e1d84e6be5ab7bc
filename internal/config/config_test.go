// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"log/slog"
	"os"
	"slices"
	"testing"
	"time"
)

const testSecret = "test-secret-key-32-bytes-long!!!"

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	// Clear environment and set only required var
	os.Clearenv()
	setEnv(t, "COURSEHUB_SESSION_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "./data/coursehub.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/coursehub.db")
	}
	if cfg.ServerHost != "localhost" {
		t.Errorf("ServerHost = %q, want %q", cfg.ServerHost, "localhost")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want %q", cfg.Env, "development")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.SweepSchedule != "@hourly" {
		t.Errorf("SweepSchedule = %q, want %q", cfg.SweepSchedule, "@hourly")
	}
	if cfg.EventRetention() != 90*24*time.Hour {
		t.Errorf("EventRetention() = %v", cfg.EventRetention())
	}
	if cfg.CacheTTLDuration() != 5*time.Minute {
		t.Errorf("CacheTTLDuration() = %v", cfg.CacheTTLDuration())
	}
	if cfg.UseRedisCache() {
		t.Error("UseRedisCache() = true without a URL")
	}
	if !cfg.DoSeed {
		t.Error("DoSeed should default to true")
	}
	if len(cfg.TrustedOrigins) != 0 {
		t.Errorf("TrustedOrigins = %v, want none", cfg.TrustedOrigins)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	customSecret := "custom-secret-key-32-bytes-long!"
	setEnv(t, "COURSEHUB_SESSION_SECRET", customSecret)
	setEnv(t, "COURSEHUB_DB_PATH", "/custom/path.db")
	setEnv(t, "COURSEHUB_SERVER_HOST", "0.0.0.0")
	setEnv(t, "COURSEHUB_SERVER_PORT", "3000")
	setEnv(t, "COURSEHUB_ENV", "production")
	setEnv(t, "COURSEHUB_LOG_LEVEL", "debug")
	setEnv(t, "COURSEHUB_REDIS_URL", "redis://localhost:6379/0")
	setEnv(t, "COURSEHUB_SWEEP_SCHEDULE", "")
	setEnv(t, "COURSEHUB_EVENT_RETENTION_DAYS", "0")
	setEnv(t, "COURSEHUB_TRUSTED_ORIGINS", "localhost:5173,coursehub.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.SessionSecret != customSecret {
		t.Errorf("SessionSecret = %q, want %q", cfg.SessionSecret, customSecret)
	}
	if cfg.DBPath != "/custom/path.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "/custom/path.db")
	}
	if cfg.ServerAddr() != "0.0.0.0:3000" {
		t.Errorf("ServerAddr() = %q", cfg.ServerAddr())
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true in production")
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v", cfg.SlogLevel())
	}
	if !cfg.UseRedisCache() {
		t.Error("UseRedisCache() = false with a URL")
	}
	if cfg.SweepSchedule != "" {
		t.Errorf("SweepSchedule = %q, want manual-only", cfg.SweepSchedule)
	}
	if cfg.EventRetention() != 0 {
		t.Errorf("EventRetention() = %v, want 0", cfg.EventRetention())
	}
	if !slices.Equal(cfg.TrustedOrigins, []string{"localhost:5173", "coursehub.example.com"}) {
		t.Errorf("TrustedOrigins = %v", cfg.TrustedOrigins)
	}
}

func TestLoad_RequiredSessionSecret(t *testing.T) {
	os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail when COURSEHUB_SESSION_SECRET is not set")
	}
}

func TestLoad_RejectsSecrets(t *testing.T) {
	tests := []struct {
		name   string
		secret string
	}{
		{"empty", ""},
		{"short", "short"},
		{"31_bytes", "1234567890123456789012345678901"},
		{"known_default", "change-me-to-32-byte-secret-key!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			setEnv(t, "COURSEHUB_SESSION_SECRET", tt.secret)

			if _, err := Load(); err == nil {
				t.Fatalf("Load() should reject %q", tt.secret)
			}
		})
	}
}

func TestLoad_SessionSecretMinimumLength(t *testing.T) {
	os.Clearenv()
	// Exactly 32 bytes should work
	secret32 := "12345678901234567890123456789012"
	setEnv(t, "COURSEHUB_SESSION_SECRET", secret32)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() should succeed with 32-byte secret: %v", err)
	}
	if cfg.SessionSecret != secret32 {
		t.Errorf("SessionSecret = %q, want %q", cfg.SessionSecret, secret32)
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	for _, port := range []string{"0", "70000", "http"} {
		t.Run(port, func(t *testing.T) {
			os.Clearenv()
			setEnv(t, "COURSEHUB_SESSION_SECRET", testSecret)
			setEnv(t, "COURSEHUB_SERVER_PORT", port)

			if _, err := Load(); err == nil {
				t.Fatalf("Load() should reject port %q", port)
			}
		})
	}
}

func TestConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := Config{LogLevel: tt.level}
			if got := cfg.SlogLevel(); got != tt.want {
				t.Errorf("SlogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	tests := []struct {
		secret string
		want   bool
	}{
		{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", false},
		{"abcdefghABCDEFGHabcdefghABCDEFGH", false},
		{"abcdefghABCDEFGH1234567812345678", true},
		{testSecret, true},
	}

	for _, tt := range tests {
		t.Run(tt.secret, func(t *testing.T) {
			if got := hasMinimumEntropy(tt.secret); got != tt.want {
				t.Errorf("hasMinimumEntropy() = %v, want %v", got, tt.want)
			}
		})
	}
}
