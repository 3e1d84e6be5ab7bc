// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/coursehub/internal/access"
	"github.com/olegiv/coursehub/internal/middleware"
	"github.com/olegiv/coursehub/internal/model"
	"github.com/olegiv/coursehub/internal/scheduler"
	"github.com/olegiv/coursehub/internal/service"
)

// SchedulerHandler lists the maintenance jobs and runs them on demand.
type SchedulerHandler struct {
	responder
	registry *scheduler.Registry
	events   *service.EventService
}

// NewSchedulerHandler creates a new SchedulerHandler.
func NewSchedulerHandler(notices Notices, registry *scheduler.Registry, events *service.EventService) *SchedulerHandler {
	return &SchedulerHandler{
		responder: responder{notices: notices},
		registry:  registry,
		events:    events,
	}
}

// List handles GET /admin/jobs.
func (h *SchedulerHandler) List(w http.ResponseWriter, r *http.Request) {
	h.success(w, r, h.registry.List())
}

// Run handles POST /admin/jobs/{name}/run. A failing job is reported as a
// notice; the response carries the updated job list.
func (h *SchedulerHandler) Run(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, ParamJobName)
	err := h.registry.TriggerNow(name)
	if errors.Is(err, scheduler.ErrJobNotFound) {
		h.fail(w, r, "running job failed", err)
		return
	}

	meta := map[string]any{"job": name}
	if err != nil {
		meta["error"] = err.Error()
		_ = h.events.LogRequestEvent(r, model.EventLevelError, model.EventCategorySystem, "Job run failed", middleware.GetUserID(r), meta)
		h.notices.Notify(r.Context(), access.Notice{Level: access.NoticeError, Title: "Job failed", Message: err.Error()})
	} else {
		_ = h.events.LogRequestEvent(r, model.EventLevelInfo, model.EventCategorySystem, "Job run manually", middleware.GetUserID(r), meta)
		h.notices.Notify(r.Context(), access.Notice{Level: access.NoticeSuccess, Title: "Job finished", Message: name + " ran successfully."})
	}
	h.success(w, r, h.registry.List())
}
