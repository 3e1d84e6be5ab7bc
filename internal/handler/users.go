// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/coursehub/internal/access"
	"github.com/olegiv/coursehub/internal/middleware"
	"github.com/olegiv/coursehub/internal/model"
	"github.com/olegiv/coursehub/internal/service"
	"github.com/olegiv/coursehub/internal/util"
)

// Role filters accepted by GET /admin/users.
const (
	RoleFilterAll     = "all"
	RoleFilterStudent = "student"
	RoleFilterCoach   = "coach" // coach and supercoach
)

// UsersHandler handles user administration for coaches.
type UsersHandler struct {
	responder
	manager  *access.Manager
	sessions Session
	events   *service.EventService
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(mgr *access.Manager, sess Session, events *service.EventService) *UsersHandler {
	return &UsersHandler{
		responder: responder{notices: sess},
		manager:   mgr,
		sessions:  sess,
		events:    events,
	}
}

// UserList is the response of GET /admin/users.
type UserList struct {
	Users []model.User `json:"users"`
	Total int          `json:"total"`
}

// List handles GET /admin/users?role=&q=.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	if role == "" {
		role = RoleFilterAll
	}
	if role != RoleFilterAll && role != RoleFilterStudent && role != RoleFilterCoach {
		h.badRequest(w, r, "role must be all, student or coach")
		return
	}
	query := r.URL.Query().Get("q")

	users, err := h.manager.ListUsers(r.Context())
	if err != nil {
		h.internal(w, r, "listing users failed", err)
		return
	}

	list := UserList{Users: []model.User{}, Total: len(users)}
	for _, u := range users {
		if !matchesRole(u, role) || !util.MatchesQuery(query, u.Name, u.Email) {
			continue
		}
		list.Users = append(list.Users, u)
	}
	h.success(w, r, list)
}

func matchesRole(u model.User, filter string) bool {
	switch filter {
	case RoleFilterStudent:
		return u.IsStudent()
	case RoleFilterCoach:
		return u.Role.IsCoach()
	default:
		return true
	}
}

// Get handles GET /admin/users/{userID}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.manager.GetUser(r.Context(), chi.URLParam(r, ParamUserID))
	if err != nil {
		h.fail(w, r, "loading user failed", err)
		return
	}
	h.success(w, r, u)
}

// CreateUserRequest is the body of POST /admin/users. An empty Password is
// generated by role.
type CreateUserRequest struct {
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Role            model.Role `json:"role"`
	Password        string     `json:"password"`
	AccessMonths    int        `json:"access_months"`
	PaymentStatus   string     `json:"payment_status"`
	AmountPaidCents int64      `json:"amount_paid_cents"`
}

// IssuedCredential is returned whenever a credential is created. The
// plaintext value is shown once.
type IssuedCredential struct {
	User       model.User        `json:"user"`
	Credential access.Credential `json:"credential"`
}

// Create handles POST /admin/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err.Error())
		return
	}

	u, cred, err := h.manager.AddUser(r.Context(), h.sessions, access.NewUser{
		Name:            req.Name,
		Email:           req.Email,
		Role:            req.Role,
		Credential:      req.Password,
		AccessMonths:    req.AccessMonths,
		PaymentStatus:   req.PaymentStatus,
		AmountPaidCents: req.AmountPaidCents,
	})
	if err != nil {
		h.fail(w, r, "creating user failed", err)
		return
	}

	_ = h.events.LogUserEvent(r, model.EventLevelInfo, "User created", middleware.GetUserID(r), map[string]any{
		"target_user_id": u.ID,
		"role":           string(u.Role),
	})
	h.notices.Notify(r.Context(), access.Notice{
		Level:   access.NoticeSuccess,
		Title:   "User added",
		Message: u.Name + " has been added and emailed their credentials.",
	})
	h.created(w, r, IssuedCredential{User: u, Credential: cred})
}

// UpdateUserRequest is the body of PUT /admin/users/{userID}. Omitted
// fields are kept.
type UpdateUserRequest struct {
	Name            *string       `json:"name"`
	Email           *string       `json:"email"`
	Role            *model.Role   `json:"role"`
	Status          *model.Status `json:"status"`
	AccessMonths    *int          `json:"access_months"`
	PaymentStatus   *string       `json:"payment_status"`
	AmountPaidCents *int64        `json:"amount_paid_cents"`
}

// Update handles PUT /admin/users/{userID}.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err.Error())
		return
	}

	id := chi.URLParam(r, ParamUserID)
	u, err := h.manager.UpdateUser(r.Context(), h.sessions, id, access.UserPatch{
		Name:            req.Name,
		Email:           req.Email,
		Role:            req.Role,
		Status:          req.Status,
		AccessMonths:    req.AccessMonths,
		PaymentStatus:   req.PaymentStatus,
		AmountPaidCents: req.AmountPaidCents,
	})
	if err != nil {
		h.fail(w, r, "updating user failed", err)
		return
	}

	_ = h.events.LogUserEvent(r, model.EventLevelInfo, "User updated", middleware.GetUserID(r), map[string]any{
		"target_user_id": u.ID,
	})
	h.success(w, r, u)
}

// Delete handles DELETE /admin/users/{userID}.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, ParamUserID)
	if err := h.manager.DeleteUser(r.Context(), h.sessions, id); err != nil {
		h.fail(w, r, "deleting user failed", err)
		return
	}

	_ = h.events.LogUserEvent(r, model.EventLevelInfo, "User deleted", middleware.GetUserID(r), map[string]any{
		"target_user_id": id,
	})
	h.success(w, r, map[string]string{"deleted": id})
}

// RegenerateCredential handles POST /admin/users/{userID}/credentials. It
// also serves "send credentials again": stored credentials are hashed, so a
// new one is issued and emailed.
func (h *UsersHandler) RegenerateCredential(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, ParamUserID)
	u, cred, err := h.manager.RegenerateCredential(r.Context(), h.sessions, id)
	if err != nil {
		h.fail(w, r, "regenerating credential failed", err)
		return
	}

	_ = h.events.LogAuthEvent(r, model.EventLevelInfo, "Credential regenerated", middleware.GetUserID(r), map[string]any{
		"target_user_id": u.ID,
		"temporary":      cred.Temporary,
	})
	h.success(w, r, IssuedCredential{User: u, Credential: cred})
}
