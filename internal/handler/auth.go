// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/coursehub/internal/access"
	"github.com/olegiv/coursehub/internal/auth"
	"github.com/olegiv/coursehub/internal/middleware"
	"github.com/olegiv/coursehub/internal/model"
	"github.com/olegiv/coursehub/internal/service"
)

// Session is the request session the handlers work with.
// *session.Store satisfies it.
type Session interface {
	access.Session
	Notices
}

// AuthHandler handles sign-in, sign-out and the password flows.
type AuthHandler struct {
	responder
	manager         *access.Manager
	sessions        Session
	events          *service.EventService
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(mgr *access.Manager, sess Session, events *service.EventService, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		responder:       responder{notices: sess},
		manager:         mgr,
		sessions:        sess,
		events:          events,
		loginProtection: lp,
	}
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionView is returned after sign-in and by GET /me.
type SessionView struct {
	User          *model.User `json:"user"`
	Redirect      string      `json:"redirect"`
	ExpiresInDays *int        `json:"expires_in_days,omitempty"`
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		h.validation(w, r, map[string]string{"email": "Email and password are required"})
		return
	}

	if locked, remaining := h.loginProtection.IsAccountLocked(req.Email); locked {
		slog.Warn("login attempt on locked account", "category", model.EventCategoryAuth, "email", req.Email, "remaining", remaining)
		h.writeError(w, r, http.StatusTooManyRequests, "account_locked",
			"Too many failed attempts. Try again in "+remaining.Round(time.Second).String()+".", nil)
		return
	}

	result, err := h.manager.Login(r.Context(), h.sessions, h.sessions, req.Email, req.Password)
	if err != nil {
		h.internal(w, r, "login failed", err)
		return
	}

	switch result.Reason {
	case access.ReasonOK:
		h.loginProtection.RecordSuccessfulLogin(req.Email)
		_ = h.events.LogAuthEvent(r, model.EventLevelInfo, "User logged in", result.User.ID, nil)
		h.success(w, r, SessionView{
			User:          result.User,
			Redirect:      access.Landing(result.User),
			ExpiresInDays: result.ExpiresInDays,
		})

	case access.ReasonDisabled:
		_ = h.events.LogAuthEvent(r, model.EventLevelWarning, "Login refused: account disabled", result.User.ID, nil)
		h.writeError(w, r, http.StatusForbidden, "account_disabled",
			"Your account has been disabled. Please contact support.", nil)

	default:
		// Unknown user and wrong password look the same to the client.
		locked, lockout := h.loginProtection.RecordFailedAttempt(req.Email)
		meta := map[string]any{"email": req.Email, "reason": string(result.Reason)}
		if locked {
			meta["lockout"] = lockout.String()
		}
		_ = h.events.LogAuthEvent(r, model.EventLevelWarning, "Login failed", "", meta)
		h.writeError(w, r, http.StatusUnauthorized, "invalid_credentials", "Incorrect email or password.", nil)
	}
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if err := h.manager.Logout(r.Context(), h.sessions); err != nil {
		h.internal(w, r, "logout failed", err)
		return
	}
	_ = h.events.LogAuthEvent(r, model.EventLevelInfo, "User logged out", userID, nil)
	h.success(w, r, map[string]string{"redirect": access.PathLogin})
}

// Me handles GET /me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	h.success(w, r, SessionView{User: user, Redirect: access.Landing(user)})
}

// FirstLoginRequest is the body of POST /first-login.
type FirstLoginRequest struct {
	AccessCode      string `json:"access_code"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// FirstLogin handles POST /first-login: the student proves the emailed
// access code and chooses a permanent password.
func (h *AuthHandler) FirstLogin(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if !user.FirstLogin {
		h.writeError(w, r, http.StatusConflict, "not_required", "Your password is already set.", nil)
		return
	}

	var req FirstLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err.Error())
		return
	}

	reason, err := h.manager.CheckCredential(r.Context(), user.ID, req.AccessCode)
	if err != nil {
		h.internal(w, r, "checking access code failed", err)
		return
	}
	if reason != access.ReasonOK {
		_ = h.events.LogAuthEvent(r, model.EventLevelWarning, "First login: wrong access code", user.ID, nil)
		h.validation(w, r, map[string]string{"access_code": "The access code is incorrect"})
		return
	}
	if err := auth.ValidateNewPassword(req.Password, req.ConfirmPassword); err != nil {
		h.validation(w, r, map[string]string{"password": err.Error()})
		return
	}

	if err := h.manager.ChangePassword(r.Context(), h.sessions, h.sessions, access.ChangePasswordInput{
		UserID:      user.ID,
		NewPassword: req.Password,
	}); err != nil {
		h.fail(w, r, "first login password change failed", err)
		return
	}

	updated, err := h.manager.GetUser(r.Context(), user.ID)
	if err != nil {
		h.fail(w, r, "reloading user failed", err)
		return
	}
	_ = h.events.LogAuthEvent(r, model.EventLevelInfo, "First login completed", user.ID, nil)
	h.success(w, r, SessionView{User: &updated, Redirect: access.Landing(&updated)})
}

// AccessExpiredView is returned by GET /access-expired.
type AccessExpiredView struct {
	Expired   bool       `json:"expired"`
	ExpiresAt *time.Time `json:"expires_at"`
	Message   string     `json:"message"`
	Redirect  string     `json:"redirect"`
}

// AccessExpired handles GET /access-expired.
func (h *AuthHandler) AccessExpired(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	view := AccessExpiredView{
		Expired:   user.IsStudent() && user.Status != model.StatusActive,
		ExpiresAt: user.ExpiresAt,
		Redirect:  access.Landing(user),
	}
	switch {
	case user.Status == model.StatusDisabled:
		view.Message = "Your account has been disabled. Please contact support."
	case view.Expired:
		view.Message = "Your access to the course has expired. Contact your coach to renew it."
	default:
		view.Message = "Your access is active."
	}
	h.success(w, r, view)
}

// Profile handles GET /profile.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	view := map[string]any{"user": user}
	if days, ok := user.DaysUntilExpiry(time.Now()); ok && days >= 0 {
		view["days_remaining"] = days
	}
	h.success(w, r, view)
}

// ChangePasswordRequest is the body of POST /profile/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ChangePassword handles POST /profile/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	var req ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	if err := auth.ValidateProfileChange(req.NewPassword, req.ConfirmPassword); err != nil {
		h.validation(w, r, map[string]string{"new_password": err.Error()})
		return
	}

	err := h.manager.ChangePassword(r.Context(), h.sessions, h.sessions, access.ChangePasswordInput{
		UserID:          user.ID,
		NewPassword:     req.NewPassword,
		FromProfile:     true,
		CurrentPassword: req.CurrentPassword,
	})
	if err != nil {
		h.fail(w, r, "password change failed", err)
		return
	}
	_ = h.events.LogAuthEvent(r, model.EventLevelInfo, "Password changed", user.ID, nil)
	h.success(w, r, map[string]bool{"changed": true})
}
