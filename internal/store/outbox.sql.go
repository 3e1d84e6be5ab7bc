// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"

	"github.com/olegiv/coursehub/internal/model"
)

const insertEmail = `-- name: InsertEmail :exec
INSERT INTO email_outbox (id, sent_at, recipient, template, subject, body, html_body, status)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertEmail(ctx context.Context, e model.OutboxEmail) error {
	_, err := q.db.ExecContext(ctx, insertEmail,
		e.ID, e.SentAt.UTC(), e.To, e.Template, e.Subject, e.Body, e.HTMLBody, e.Status,
	)
	return err
}

const trimEmails = `-- name: TrimEmails :execrows
DELETE FROM email_outbox WHERE id NOT IN (
    SELECT id FROM email_outbox ORDER BY sent_at DESC, rowid DESC LIMIT ?
)`

// TrimEmails keeps the newest keep entries and deletes the rest.
func (q *Queries) TrimEmails(ctx context.Context, keep int) (int64, error) {
	res, err := q.db.ExecContext(ctx, trimEmails, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listEmails = `-- name: ListEmails :many
SELECT id, sent_at, recipient, template, subject, body, html_body, status
FROM email_outbox ORDER BY sent_at DESC, rowid DESC LIMIT ?`

// ListEmails returns up to limit outbox entries, newest first.
func (q *Queries) ListEmails(ctx context.Context, limit int) ([]model.OutboxEmail, error) {
	rows, err := q.db.QueryContext(ctx, listEmails, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []model.OutboxEmail
	for rows.Next() {
		var e model.OutboxEmail
		if err := rows.Scan(&e.ID, &e.SentAt, &e.To, &e.Template, &e.Subject, &e.Body, &e.HTMLBody, &e.Status); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
