// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/coursehub/internal/model"
)

const createEvent = `-- name: CreateEvent :one
INSERT INTO events (level, category, message, user_id, metadata, ip_address, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id`

// CreateEventParams holds a new event row. An empty UserID is stored as NULL.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	UserID    string
	Metadata  string
	IPAddress string
	CreatedAt time.Time
}

func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (int64, error) {
	userID := sql.NullString{String: arg.UserID, Valid: arg.UserID != ""}
	metadata := arg.Metadata
	if metadata == "" {
		metadata = "{}"
	}
	var id int64
	err := q.db.QueryRowContext(ctx, createEvent,
		arg.Level, arg.Category, arg.Message, userID, metadata, arg.IPAddress, arg.CreatedAt.UTC(),
	).Scan(&id)
	return id, err
}

const listEvents = `-- name: ListEvents :many
SELECT id, level, category, message, user_id, metadata, ip_address, created_at
FROM events ORDER BY created_at DESC, id DESC LIMIT ?`

func (q *Queries) ListEvents(ctx context.Context, limit int) ([]model.Event, error) {
	rows, err := q.db.QueryContext(ctx, listEvents, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []model.Event
	for rows.Next() {
		var (
			e      model.Event
			userID sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &userID, &e.Metadata, &e.IPAddress, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.UserID = userID.String
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteOldEvents = `-- name: DeleteOldEvents :execrows
DELETE FROM events WHERE created_at < ?`

// DeleteOldEvents removes events created before the cutoff.
func (q *Queries) DeleteOldEvents(ctx context.Context, before time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteOldEvents, before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
