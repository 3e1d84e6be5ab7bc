// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/olegiv/coursehub/internal/middleware"
	"github.com/olegiv/coursehub/internal/model"
	"github.com/olegiv/coursehub/internal/service"
)

// ContentHandler handles course content administration.
type ContentHandler struct {
	responder
	content *service.ContentService
	events  *service.EventService
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(notices Notices, content *service.ContentService, events *service.EventService) *ContentHandler {
	return &ContentHandler{
		responder: responder{notices: notices},
		content:   content,
		events:    events,
	}
}

// Overview handles GET /admin/content: every module and lesson, including
// inactive ones.
func (h *ContentHandler) Overview(w http.ResponseWriter, r *http.Request) {
	modules, err := h.content.AllModules(r.Context())
	if err != nil {
		h.internal(w, r, "listing content failed", err)
		return
	}
	h.success(w, r, modules)
}

// ModuleRequest is the body of module create and update. IsActive defaults
// to true.
type ModuleRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	OrderIndex  int    `json:"order_index"`
	IsActive    *bool  `json:"is_active"`
}

func (req ModuleRequest) module(id int64) model.Module {
	return model.Module{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		OrderIndex:  req.OrderIndex,
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
}

// CreateModule handles POST /admin/modules.
func (h *ContentHandler) CreateModule(w http.ResponseWriter, r *http.Request) {
	var req ModuleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	m, err := h.content.CreateModule(r.Context(), req.module(0))
	if err != nil {
		h.fail(w, r, "creating module failed", err)
		return
	}
	h.logChange(r, "Module created", "module_id", m.ID)
	h.created(w, r, m)
}

// UpdateModule handles PUT /admin/modules/{moduleID}.
func (h *ContentHandler) UpdateModule(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r, ParamModuleID)
	if err != nil {
		h.badRequest(w, r, "Invalid module ID")
		return
	}
	var req ModuleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	m, err := h.content.UpdateModule(r.Context(), req.module(id))
	if err != nil {
		h.fail(w, r, "updating module failed", err)
		return
	}
	h.logChange(r, "Module updated", "module_id", id)
	h.success(w, r, m)
}

// DeleteModule handles DELETE /admin/modules/{moduleID}.
func (h *ContentHandler) DeleteModule(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r, ParamModuleID)
	if err != nil {
		h.badRequest(w, r, "Invalid module ID")
		return
	}
	if err := h.content.DeleteModule(r.Context(), id); err != nil {
		h.fail(w, r, "deleting module failed", err)
		return
	}
	h.logChange(r, "Module deleted", "module_id", id)
	h.success(w, r, map[string]int64{"deleted": id})
}

// LessonRequest is the body of lesson create and update. IsActive defaults
// to true.
type LessonRequest struct {
	ModuleID        int64                `json:"module_id"`
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	VideoURL        string               `json:"video_url"`
	Duration        string               `json:"duration"`
	OrderIndex      int                  `json:"order_index"`
	ExplanatoryText string               `json:"explanatory_text"`
	IsActive        *bool                `json:"is_active"`
	Resources       []model.ResourceLink `json:"resources_links"`
}

func (req LessonRequest) lesson(id int64) model.Lesson {
	return model.Lesson{
		ID:              id,
		ModuleID:        req.ModuleID,
		Title:           req.Title,
		Description:     req.Description,
		VideoURL:        req.VideoURL,
		Duration:        req.Duration,
		OrderIndex:      req.OrderIndex,
		ExplanatoryText: req.ExplanatoryText,
		IsActive:        req.IsActive == nil || *req.IsActive,
		Resources:       req.Resources,
	}
}

// CreateLesson handles POST /admin/lessons.
func (h *ContentHandler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	var req LessonRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	l, err := h.content.CreateLesson(r.Context(), req.lesson(0))
	if err != nil {
		h.fail(w, r, "creating lesson failed", err)
		return
	}
	h.logChange(r, "Lesson created", "lesson_id", l.ID)
	h.created(w, r, l)
}

// UpdateLesson handles PUT /admin/lessons/{lessonID}.
func (h *ContentHandler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r, ParamLessonID)
	if err != nil {
		h.badRequest(w, r, "Invalid lesson ID")
		return
	}
	var req LessonRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	l, err := h.content.UpdateLesson(r.Context(), req.lesson(id))
	if err != nil {
		h.fail(w, r, "updating lesson failed", err)
		return
	}
	h.logChange(r, "Lesson updated", "lesson_id", id)
	h.success(w, r, l)
}

// DeleteLesson handles DELETE /admin/lessons/{lessonID}.
func (h *ContentHandler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r, ParamLessonID)
	if err != nil {
		h.badRequest(w, r, "Invalid lesson ID")
		return
	}
	if err := h.content.DeleteLesson(r.Context(), id); err != nil {
		h.fail(w, r, "deleting lesson failed", err)
		return
	}
	h.logChange(r, "Lesson deleted", "lesson_id", id)
	h.success(w, r, map[string]int64{"deleted": id})
}

func (h *ContentHandler) logChange(r *http.Request, message, key string, id int64) {
	_ = h.events.LogContentEvent(r, model.EventLevelInfo, message, middleware.GetUserID(r), map[string]any{key: id})
}
