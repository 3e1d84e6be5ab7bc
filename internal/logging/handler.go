// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that mirrors warnings and errors
// into the events table, so problems seen in the logs also show up in the
// coach-facing event log.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/olegiv/coursehub/internal/model"
	"github.com/olegiv/coursehub/internal/store"
)

// Attribute keys with special meaning for the event row.
const (
	keyCategory = "category"
	keyUserID   = "user_id"
	keyIP       = "ip"
)

// EventLogHandler wraps another handler and also writes records at or above
// its level to the events table.
type EventLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
	attrs   []slog.Attr
	group   string
}

// NewEventLogHandler mirrors WARN and above.
func NewEventLogHandler(inner slog.Handler, db *sql.DB) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, db, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel mirrors records at level and above.
func NewEventLogHandlerWithLevel(inner slog.Handler, db *sql.DB, level slog.Level) *EventLogHandler {
	return &EventLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.level {
		h.writeEvent(r)
	}
	return nil
}

func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := h.clone()
	c.inner = h.inner.WithAttrs(attrs)
	for _, a := range attrs {
		c.attrs = append(c.attrs, h.qualify(a))
	}
	return c
}

func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	c := h.clone()
	c.inner = h.inner.WithGroup(name)
	if name != "" {
		c.group = h.qualifyKey(name)
	}
	return c
}

func (h *EventLogHandler) clone() *EventLogHandler {
	return &EventLogHandler{
		inner:   h.inner,
		queries: h.queries,
		level:   h.level,
		attrs:   append([]slog.Attr(nil), h.attrs...),
		group:   h.group,
	}
}

func (h *EventLogHandler) qualifyKey(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}

func (h *EventLogHandler) qualify(a slog.Attr) slog.Attr {
	return slog.Attr{Key: h.qualifyKey(a.Key), Value: a.Value}
}

// writeEvent stores r. It uses a background context so an event is kept
// even when the request that logged it was cancelled. Insert failures are
// dropped: logging them would recurse.
func (h *EventLogHandler) writeEvent(r slog.Record) {
	params := store.CreateEventParams{
		Level:     eventLevel(r.Level),
		Message:   r.Message,
		CreatedAt: r.Time,
	}

	metadata := make(map[string]any)
	collect := func(a slog.Attr) {
		switch a.Key {
		case keyCategory:
			params.Category = a.Value.String()
		case keyUserID:
			params.UserID = a.Value.String()
		case keyIP:
			params.IPAddress = a.Value.String()
		default:
			metadata[a.Key] = a.Value.Resolve().Any()
		}
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		collect(h.qualify(a))
		return true
	})

	if params.Category == "" {
		params.Category = inferCategory(r.Message)
	}
	params.Metadata = encodeMetadata(metadata)

	_, _ = h.queries.CreateEvent(context.Background(), params)
}

func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// inferCategory guesses a category for records logged without one.
func inferCategory(message string) string {
	msg := strings.ToLower(message)
	switch {
	case strings.Contains(msg, "auth") || strings.Contains(msg, "login") || strings.Contains(msg, "logout") ||
		strings.Contains(msg, "password") || strings.Contains(msg, "csrf"):
		return model.EventCategoryAuth
	case strings.Contains(msg, "expir") || strings.Contains(msg, "sweep"):
		return model.EventCategoryAccess
	case strings.Contains(msg, "mail"):
		return model.EventCategoryMail
	case strings.Contains(msg, "lesson") || strings.Contains(msg, "module") || strings.Contains(msg, "chapter"):
		return model.EventCategoryContent
	case strings.Contains(msg, "user"):
		return model.EventCategoryUser
	case strings.Contains(msg, "cache") || strings.Contains(msg, "redis"):
		return model.EventCategoryCache
	default:
		return model.EventCategorySystem
	}
}

func encodeMetadata(m map[string]any) string {
	if len(m) == 0 {
		return "{}"
	}
	for k, v := range m {
		switch val := v.(type) {
		case error:
			m[k] = val.Error()
		case json.Marshaler:
		default:
			if _, err := json.Marshal(val); err != nil {
				m[k] = slog.AnyValue(val).String()
			}
		}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}
