// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for session restoration, the
// access gate, login protection, CSRF and response headers.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"slices"

	"github.com/olegiv/coursehub/internal/access"
	"github.com/olegiv/coursehub/internal/model"
	"github.com/olegiv/coursehub/internal/service"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for request data.
const (
	ContextKeyUser        ContextKey = "user"
	ContextKeyRequestPath ContextKey = "request_path"
)

// Restorer resolves the session user of a request.
// *access.Manager satisfies it.
type Restorer interface {
	Ready() bool
	Restore(ctx context.Context, sess access.Session, notify access.Notifier) (*model.User, error)
}

// SessionStore is a request session that can also queue notices.
type SessionStore interface {
	access.Session
	access.Notifier
}

// LoadUser restores the session user into the request context. Requests
// arriving before the manager finished initializing get 503. It must run
// inside the session manager's LoadAndSave.
func LoadUser(mgr Restorer, sess SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !mgr.Ready() {
				WriteAPIError(w, http.StatusServiceUnavailable, "starting", "The service is starting. Please retry shortly.", nil)
				return
			}

			user, err := mgr.Restore(r.Context(), sess, sess)
			if err != nil {
				slog.Error("restoring session user failed", "error", err, "path", r.URL.Path)
				WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Internal server error", nil)
				return
			}
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser retrieves the current user from the request context.
// Returns nil if no user is in context.
func GetUser(r *http.Request) *model.User {
	user, _ := r.Context().Value(ContextKeyUser).(*model.User)
	return user
}

// GetUserID returns the current user's ID from context, or "".
func GetUserID(r *http.Request) string {
	if user := GetUser(r); user != nil {
		return user.ID
	}
	return ""
}

// WithUser returns a copy of r carrying user. Used by tests and handlers
// that replace the session user mid-request.
func WithUser(r *http.Request, user *model.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ContextKeyUser, user))
}

// RequestPath stores the request path in the context.
// The logging handler includes it in mirrored events.
func RequestPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ContextKeyRequestPath, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestPath retrieves the request path from the context.
func GetRequestPath(ctx context.Context) string {
	path, _ := ctx.Value(ContextKeyRequestPath).(string)
	return path
}

// RequireSession sends requests without a session user to the login page.
// Used for routes open to users the gate would otherwise redirect, such as
// first login and the expiry notice.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUser(r) == nil {
			http.Redirect(w, r, access.PathLogin, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAccess applies the access gate. Denied requests receive a 303
// redirect to the gate's target. An empty role list admits any role.
func RequireAccess(roles ...model.Role) func(http.Handler) http.Handler {
	return RequireAccessWithEventLog(nil, roles...)
}

// RequireAccessWithEventLog is RequireAccess that also records role denials
// in the event log when events is not nil.
func RequireAccessWithEventLog(events *service.EventService, roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			d := access.Authorize(user, roles...)
			if d.Allow {
				next.ServeHTTP(w, r)
				return
			}

			if user != nil && len(roles) > 0 && !slices.Contains(roles, user.Role) {
				slog.Warn("access denied",
					"method", r.Method,
					"path", r.URL.Path,
					"user_id", user.ID,
					"user_role", user.Role,
					"redirect", d.Redirect,
				)
				if events != nil {
					_ = events.LogAccessEvent(r, model.EventLevelWarning, "Access denied: insufficient role", user.ID, map[string]any{
						"method":    r.Method,
						"user_role": user.Role,
					})
				}
			}

			http.Redirect(w, r, d.Redirect, http.StatusSeeOther)
		})
	}
}
