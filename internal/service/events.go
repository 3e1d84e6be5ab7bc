// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides the course-side business logic: the audit event
// log, course content, lesson progress, chapters and analytics.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mileusna/useragent"

	"github.com/olegiv/coursehub/internal/model"
	"github.com/olegiv/coursehub/internal/store"
	"github.com/olegiv/coursehub/internal/util"
)

// MaxEventsListed caps Recent.
const MaxEventsListed = 200

// EventService provides event logging functionality.
type EventService struct {
	queries *store.Queries
	now     func() time.Time
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{
		queries: store.New(db),
		now:     time.Now,
	}
}

// LogEvent creates a new event log entry. An empty userID records a system
// event.
func (s *EventService) LogEvent(ctx context.Context, level, category, message, userID, ipAddress string, metadata map[string]any) error {
	metadataJSON := "{}"
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(b)
		}
	}

	_, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		UserID:    userID,
		Metadata:  metadataJSON,
		IPAddress: ipAddress,
		CreatedAt: s.now(),
	})
	if err != nil {
		// Logged at debug: the event log handler mirrors warnings into this table.
		slog.Debug("failed to log event", "error", err)
		return err
	}
	return nil
}

// LogRequestEvent logs an event carrying the client address, request path and
// the parsed user agent of r.
func (s *EventService) LogRequestEvent(r *http.Request, level, category, message, userID string, metadata map[string]any) error {
	if metadata == nil {
		metadata = make(map[string]any, 4)
	}
	metadata["path"] = r.URL.Path
	for k, v := range parseUserAgent(r.UserAgent()) {
		metadata[k] = v
	}
	return s.LogEvent(r.Context(), level, category, message, userID, util.ClientIP(r), metadata)
}

// LogAuthEvent logs an authentication event for r.
func (s *EventService) LogAuthEvent(r *http.Request, level, message, userID string, metadata map[string]any) error {
	return s.LogRequestEvent(r, level, model.EventCategoryAuth, message, userID, metadata)
}

// LogUserEvent logs a user administration event for r.
func (s *EventService) LogUserEvent(r *http.Request, level, message, userID string, metadata map[string]any) error {
	return s.LogRequestEvent(r, level, model.EventCategoryUser, message, userID, metadata)
}

// LogAccessEvent logs a gate or expiry event for r.
func (s *EventService) LogAccessEvent(r *http.Request, level, message, userID string, metadata map[string]any) error {
	return s.LogRequestEvent(r, level, model.EventCategoryAccess, message, userID, metadata)
}

// LogContentEvent logs a course content change for r.
func (s *EventService) LogContentEvent(r *http.Request, level, message, userID string, metadata map[string]any) error {
	return s.LogRequestEvent(r, level, model.EventCategoryContent, message, userID, metadata)
}

// LogSystemEvent logs an event not tied to a request.
func (s *EventService) LogSystemEvent(ctx context.Context, level, message string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategorySystem, message, "", "", metadata)
}

// Recent returns up to limit events, newest first.
func (s *EventService) Recent(ctx context.Context, limit int) ([]model.Event, error) {
	if limit <= 0 || limit > MaxEventsListed {
		limit = MaxEventsListed
	}
	return s.queries.ListEvents(ctx, limit)
}

// DeleteOldEvents removes events older than the specified duration and
// returns how many were removed.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.queries.DeleteOldEvents(ctx, s.now().Add(-olderThan))
}

// parseUserAgent extracts browser, OS and device type for event metadata.
func parseUserAgent(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	ua := useragent.Parse(raw)

	out := map[string]string{
		"browser": ua.Name,
		"os":      ua.OS,
	}
	if out["browser"] == "" {
		out["browser"] = "Unknown"
	}
	if out["os"] == "" {
		out["os"] = "Unknown"
	}

	switch {
	case ua.Mobile:
		out["device"] = "mobile"
	case ua.Tablet:
		out["device"] = "tablet"
	case ua.Bot:
		out["device"] = "bot"
	default:
		out["device"] = "desktop"
	}
	return out
}
