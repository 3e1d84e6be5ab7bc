// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"
	"time"

	"github.com/olegiv/coursehub/internal/cache"
	"github.com/olegiv/coursehub/internal/middleware"
	"github.com/olegiv/coursehub/internal/version"
)

// healthCheckTimeout bounds each dependency check.
const healthCheckTimeout = 2 * time.Second

// Readiness reports whether startup has completed. *access.Manager
// satisfies it.
type Readiness interface {
	Ready() bool
}

// pinger is implemented by cache backends with a remote server.
type pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	db        *sql.DB
	cache     cache.Cacher
	ready     Readiness
	version   version.Info
	startTime time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db *sql.DB, c cache.Cacher, ready Readiness, info version.Info) *HealthHandler {
	return &HealthHandler{
		db:        db,
		cache:     c,
		ready:     ready,
		version:   info,
		startTime: time.Now(),
	}
}

// HealthStatusPublic is the minimal health response for anonymous callers.
type HealthStatusPublic struct {
	Status string `json:"status"`
}

// HealthStatus is the detailed response for coaches.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   version.Info     `json:"version"`
	Checks    map[string]Check `json:"checks"`
	Cache     cache.Stats      `json:"cache"`
	Go        GoInfo           `json:"go"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// GoInfo contains runtime information.
type GoInfo struct {
	Version    string `json:"version"`
	Goroutines int    `json:"goroutines"`
}

// Health handles GET /health. Anonymous callers get the overall status
// only. Any failing check turns the status to degraded with a 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]Check{
		"database": h.checkDatabase(r.Context()),
		"cache":    h.checkCache(r.Context()),
		"startup":  h.checkStartup(),
	}

	status := "healthy"
	for _, c := range checks {
		if c.Status != "healthy" {
			status = "degraded"
		}
	}
	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	user := middleware.GetUser(r)
	if user == nil || !user.Role.IsCoach() {
		WriteJSON(w, code, HealthStatusPublic{Status: status})
		return
	}

	WriteJSON(w, code, HealthStatus{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version,
		Checks:    checks,
		Cache:     cache.StatsOf(h.cache),
		Go:        GoInfo{Version: runtime.Version(), Goroutines: runtime.NumGoroutine()},
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	start := time.Now()
	if err := h.db.PingContext(ctx); err != nil {
		return Check{Status: "unhealthy", Message: "database unreachable"}
	}
	return Check{Status: "healthy", Latency: time.Since(start).String()}
}

func (h *HealthHandler) checkCache(ctx context.Context) Check {
	p, ok := h.cache.(pinger)
	if !ok {
		return Check{Status: "healthy", Message: "in-memory"}
	}

	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	start := time.Now()
	if err := p.Ping(ctx); err != nil {
		return Check{Status: "unhealthy", Message: "cache unreachable"}
	}
	return Check{Status: "healthy", Latency: time.Since(start).String()}
}

func (h *HealthHandler) checkStartup() Check {
	if h.ready != nil && !h.ready.Ready() {
		return Check{Status: "starting"}
	}
	return Check{Status: "healthy"}
}
