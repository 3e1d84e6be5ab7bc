// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/coursehub/internal/access"
	"github.com/olegiv/coursehub/internal/mailer"
	"github.com/olegiv/coursehub/internal/model"
	"github.com/olegiv/coursehub/internal/service"
)

// EmailLog lists simulated emails. *mailer.Mailer satisfies it.
type EmailLog interface {
	Recent(ctx context.Context, limit int) ([]model.OutboxEmail, error)
}

// CoachHandler serves the coach dashboard, student detail, analytics and
// the email and event logs.
type CoachHandler struct {
	responder
	manager   *access.Manager
	progress  *service.ProgressService
	chapters  *service.ChapterService
	analytics *service.AnalyticsService
	emails    EmailLog
	events    *service.EventService
}

// NewCoachHandler creates a new CoachHandler.
func NewCoachHandler(
	notices Notices,
	mgr *access.Manager,
	progress *service.ProgressService,
	chapters *service.ChapterService,
	analytics *service.AnalyticsService,
	emails EmailLog,
	events *service.EventService,
) *CoachHandler {
	return &CoachHandler{
		responder: responder{notices: notices},
		manager:   mgr,
		progress:  progress,
		chapters:  chapters,
		analytics: analytics,
		emails:    emails,
		events:    events,
	}
}

// StudentRow is one line of the coach dashboard.
type StudentRow struct {
	model.User
	Progress int `json:"progress"`
}

// DashboardView is the response of GET /coach.
type DashboardView struct {
	Stats    service.DashboardStats `json:"stats"`
	Students []StudentRow           `json:"students"`
}

// Dashboard handles GET /coach.
func (h *CoachHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.Dashboard(r.Context())
	if err != nil {
		h.internal(w, r, "computing dashboard failed", err)
		return
	}
	users, err := h.manager.ListUsers(r.Context())
	if err != nil {
		h.internal(w, r, "listing users failed", err)
		return
	}

	view := DashboardView{Stats: stats, Students: []StudentRow{}}
	for _, u := range users {
		if !u.IsStudent() {
			continue
		}
		summary, err := h.progress.Summary(r.Context(), u.ID)
		if err != nil {
			h.internal(w, r, "loading progress failed", err)
			return
		}
		view.Students = append(view.Students, StudentRow{User: u, Progress: summary.Percentage})
	}
	h.success(w, r, view)
}

// StudentView is the response of GET /coach/students/{userID}.
type StudentView struct {
	User     model.User              `json:"user"`
	Progress service.ProgressSummary `json:"progress"`
	Chapters service.ChapterList     `json:"chapters"`
}

// Student handles GET /coach/students/{userID}.
func (h *CoachHandler) Student(w http.ResponseWriter, r *http.Request) {
	u, err := h.manager.GetUser(r.Context(), chi.URLParam(r, ParamUserID))
	if err != nil {
		h.fail(w, r, "loading student failed", err)
		return
	}

	view := StudentView{User: u}
	if view.Progress, err = h.progress.Summary(r.Context(), u.ID); err != nil {
		h.internal(w, r, "loading progress failed", err)
		return
	}
	if view.Chapters, err = h.chapters.List(r.Context(), u.ID); err != nil {
		h.internal(w, r, "listing chapters failed", err)
		return
	}
	h.success(w, r, view)
}

// Analytics handles GET /analytics.
func (h *CoachHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	report, err := h.analytics.Compute(r.Context())
	if err != nil {
		h.internal(w, r, "computing analytics failed", err)
		return
	}
	h.success(w, r, report)
}

// Emails handles GET /admin/emails.
func (h *CoachHandler) Emails(w http.ResponseWriter, r *http.Request) {
	emails, err := h.emails.Recent(r.Context(), parseLimit(r, mailer.OutboxLimit, mailer.OutboxLimit))
	if err != nil {
		h.internal(w, r, "listing emails failed", err)
		return
	}
	if emails == nil {
		emails = []model.OutboxEmail{}
	}
	h.success(w, r, emails)
}

// Events handles GET /admin/events.
func (h *CoachHandler) Events(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.Recent(r.Context(), parseLimit(r, 50, service.MaxEventsListed))
	if err != nil {
		h.internal(w, r, "listing events failed", err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	h.success(w, r, events)
}
