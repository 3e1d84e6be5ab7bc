// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the JSON HTTP handlers of CourseHub.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/olegiv/coursehub/internal/access"
	"github.com/olegiv/coursehub/internal/auth"
	"github.com/olegiv/coursehub/internal/scheduler"
	"github.com/olegiv/coursehub/internal/service"
)

// Notices is the per-session notice queue. *session.Store satisfies it.
type Notices interface {
	access.Notifier
	PopNotices(ctx context.Context) []access.Notice
}

// Response is the standard success envelope.
type Response struct {
	Data    any             `json:"data"`
	Notices []access.Notice `json:"notices"`
}

// ErrorResponse is the standard error envelope. Notices queued while the
// request failed travel with it.
type ErrorResponse struct {
	Error   ErrorDetail     `json:"error"`
	Notices []access.Notice `json:"notices,omitempty"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// responder writes envelopes carrying the session's pending notices.
type responder struct {
	notices Notices
}

func (rs responder) pop(r *http.Request) []access.Notice {
	if rs.notices == nil {
		return nil
	}
	return rs.notices.PopNotices(r.Context())
}

func (rs responder) write(w http.ResponseWriter, r *http.Request, statusCode int, data any) {
	notices := rs.pop(r)
	if notices == nil {
		notices = []access.Notice{}
	}
	WriteJSON(w, statusCode, Response{Data: data, Notices: notices})
}

func (rs responder) success(w http.ResponseWriter, r *http.Request, data any) {
	rs.write(w, r, http.StatusOK, data)
}

func (rs responder) created(w http.ResponseWriter, r *http.Request, data any) {
	rs.write(w, r, http.StatusCreated, data)
}

func (rs responder) writeError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error:   ErrorDetail{Code: code, Message: message, Details: details},
		Notices: rs.pop(r),
	})
}

func (rs responder) badRequest(w http.ResponseWriter, r *http.Request, message string) {
	rs.writeError(w, r, http.StatusBadRequest, "bad_request", message, nil)
}

func (rs responder) notFound(w http.ResponseWriter, r *http.Request, message string) {
	rs.writeError(w, r, http.StatusNotFound, "not_found", message, nil)
}

func (rs responder) validation(w http.ResponseWriter, r *http.Request, fields map[string]string) {
	rs.writeError(w, r, http.StatusUnprocessableEntity, "validation_error", "Validation failed", fields)
}

// internal logs err and writes a 500 without exposing it.
func (rs responder) internal(w http.ResponseWriter, r *http.Request, logMsg string, err error) {
	slog.ErrorContext(r.Context(), logMsg, "error", err, "path", r.URL.Path)
	rs.writeError(w, r, http.StatusInternalServerError, "internal_error", "Internal server error", nil)
}

// fail maps a domain error to its HTTP response. Unknown errors become 500.
func (rs responder) fail(w http.ResponseWriter, r *http.Request, logMsg string, err error) {
	var (
		userErr    *access.ValidationError
		contentErr *service.ContentError
	)
	switch {
	case errors.As(err, &userErr):
		rs.validation(w, r, userErr.Fields)
	case errors.As(err, &contentErr):
		rs.validation(w, r, contentErr.Fields)
	case errors.Is(err, access.ErrUserNotFound):
		rs.notFound(w, r, "User not found")
	case errors.Is(err, service.ErrModuleNotFound):
		rs.notFound(w, r, "Module not found")
	case errors.Is(err, service.ErrLessonNotFound):
		rs.notFound(w, r, "Lesson not found")
	case errors.Is(err, scheduler.ErrJobNotFound):
		rs.notFound(w, r, "Job not found")
	case errors.Is(err, access.ErrDuplicateEmail):
		rs.writeError(w, r, http.StatusConflict, "email_taken", "Email already in use",
			map[string]string{"email": "Email already in use"})
	case errors.Is(err, access.ErrSelfDelete):
		rs.writeError(w, r, http.StatusConflict, "self_delete", "You cannot delete your own account", nil)
	case errors.Is(err, access.ErrBadPassword):
		rs.validation(w, r, map[string]string{"current_password": "The current password is incorrect"})
	case errors.Is(err, service.ErrLinkRequired):
		rs.validation(w, r, map[string]string{"document_link": err.Error()})
	case isPasswordPolicy(err):
		rs.validation(w, r, map[string]string{"password": err.Error()})
	default:
		rs.internal(w, r, logMsg, err)
	}
}

func isPasswordPolicy(err error) bool {
	return errors.Is(err, auth.ErrPasswordTooShort) ||
		errors.Is(err, auth.ErrPasswordNoUpper) ||
		errors.Is(err, auth.ErrPasswordNoDigit) ||
		errors.Is(err, auth.ErrPasswordsMismatch)
}
