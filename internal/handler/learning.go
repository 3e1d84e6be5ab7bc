// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/olegiv/coursehub/internal/access"
	"github.com/olegiv/coursehub/internal/middleware"
	"github.com/olegiv/coursehub/internal/model"
	"github.com/olegiv/coursehub/internal/service"
)

// LearningHandler serves the course, lesson progress and chapters to
// signed-in users.
type LearningHandler struct {
	responder
	content  *service.ContentService
	progress *service.ProgressService
	chapters *service.ChapterService
}

// NewLearningHandler creates a new LearningHandler.
func NewLearningHandler(notices Notices, content *service.ContentService, progress *service.ProgressService, chapters *service.ChapterService) *LearningHandler {
	return &LearningHandler{
		responder: responder{notices: notices},
		content:   content,
		progress:  progress,
		chapters:  chapters,
	}
}

// CourseView is the lessons page: the active course and the user's progress.
type CourseView struct {
	Modules  []model.Module          `json:"modules"`
	Progress service.ProgressSummary `json:"progress"`
}

// Lessons handles GET /lessons.
func (h *LearningHandler) Lessons(w http.ResponseWriter, r *http.Request) {
	modules, err := h.content.ActiveCourse(r.Context())
	if err != nil {
		h.internal(w, r, "loading course failed", err)
		return
	}
	summary, err := h.progress.Summary(r.Context(), middleware.GetUserID(r))
	if err != nil {
		h.internal(w, r, "loading progress failed", err)
		return
	}
	h.success(w, r, CourseView{Modules: modules, Progress: summary})
}

// Lesson handles GET /lessons/{lessonID}.
func (h *LearningHandler) Lesson(w http.ResponseWriter, r *http.Request) {
	id, ok := h.lessonID(w, r)
	if !ok {
		return
	}
	if err := h.content.RequireActiveLesson(r.Context(), id); err != nil {
		h.fail(w, r, "loading lesson failed", err)
		return
	}
	lesson, err := h.content.GetLesson(r.Context(), id)
	if err != nil {
		h.fail(w, r, "loading lesson failed", err)
		return
	}
	h.success(w, r, lesson)
}

// OpenLesson handles POST /lessons/{lessonID}/open.
func (h *LearningHandler) OpenLesson(w http.ResponseWriter, r *http.Request) {
	id, ok := h.lessonID(w, r)
	if !ok {
		return
	}
	userID := middleware.GetUserID(r)
	if err := h.progress.OpenLesson(r.Context(), userID, id); err != nil {
		h.fail(w, r, "recording lesson open failed", err)
		return
	}
	h.writeSummary(w, r, userID)
}

// CompleteLesson handles POST /lessons/{lessonID}/complete.
func (h *LearningHandler) CompleteLesson(w http.ResponseWriter, r *http.Request) {
	id, ok := h.lessonID(w, r)
	if !ok {
		return
	}
	userID := middleware.GetUserID(r)
	if err := h.progress.CompleteLesson(r.Context(), userID, id); err != nil {
		h.fail(w, r, "completing lesson failed", err)
		return
	}
	h.notices.Notify(r.Context(), access.Notice{
		Level:   access.NoticeSuccess,
		Title:   "Lesson completed",
		Message: "Your progress has been saved.",
	})
	h.writeSummary(w, r, userID)
}

func (h *LearningHandler) writeSummary(w http.ResponseWriter, r *http.Request, userID string) {
	summary, err := h.progress.Summary(r.Context(), userID)
	if err != nil {
		h.internal(w, r, "loading progress failed", err)
		return
	}
	h.success(w, r, summary)
}

// Chapters handles GET /chapters.
func (h *LearningHandler) Chapters(w http.ResponseWriter, r *http.Request) {
	list, err := h.chapters.List(r.Context(), middleware.GetUserID(r))
	if err != nil {
		h.internal(w, r, "listing chapters failed", err)
		return
	}
	h.success(w, r, list)
}

// ChapterLinkRequest is the body of PUT /chapters/{lessonID}/link.
type ChapterLinkRequest struct {
	DocumentLink string `json:"document_link"`
}

// SaveChapterLink handles PUT /chapters/{lessonID}/link.
func (h *LearningHandler) SaveChapterLink(w http.ResponseWriter, r *http.Request) {
	id, ok := h.lessonID(w, r)
	if !ok {
		return
	}
	var req ChapterLinkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err.Error())
		return
	}

	saved, err := h.chapters.SaveLink(r.Context(), middleware.GetUserID(r), id, req.DocumentLink)
	if err != nil {
		h.fail(w, r, "saving chapter link failed", err)
		return
	}
	h.success(w, r, saved)
}

// CompleteChapter handles POST /chapters/{lessonID}/complete.
func (h *LearningHandler) CompleteChapter(w http.ResponseWriter, r *http.Request) {
	id, ok := h.lessonID(w, r)
	if !ok {
		return
	}
	saved, err := h.chapters.Complete(r.Context(), middleware.GetUserID(r), id)
	if err != nil {
		h.fail(w, r, "completing chapter failed", err)
		return
	}
	h.notices.Notify(r.Context(), access.Notice{
		Level:   access.NoticeSuccess,
		Title:   "Chapter completed",
		Message: "Nice work.",
	})
	h.success(w, r, saved)
}

func (h *LearningHandler) lessonID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := ParseIDParam(r, ParamLessonID)
	if err != nil {
		h.badRequest(w, r, "Invalid lesson ID")
		return 0, false
	}
	return id, true
}
