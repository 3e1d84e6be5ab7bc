// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/coursehub/internal/model"
)

const upsertLessonOpened = `-- name: UpsertLessonOpened :exec
INSERT INTO lesson_progress (user_id, lesson_id, status, opened_at)
VALUES (?, ?, 'started', ?)
ON CONFLICT (user_id, lesson_id) DO UPDATE SET opened_at = excluded.opened_at`

// UpsertLessonOpened records that a user opened a lesson. A completed lesson
// keeps its status, only the opened timestamp moves.
func (q *Queries) UpsertLessonOpened(ctx context.Context, userID string, lessonID int64, at time.Time) error {
	_, err := q.db.ExecContext(ctx, upsertLessonOpened, userID, lessonID, at.UTC())
	return err
}

const completeLesson = `-- name: CompleteLesson :exec
INSERT INTO lesson_progress (user_id, lesson_id, status, opened_at, completed_at)
VALUES (?, ?, 'completed', ?, ?)
ON CONFLICT (user_id, lesson_id) DO UPDATE SET
    status = 'completed',
    completed_at = COALESCE(lesson_progress.completed_at, excluded.completed_at)`

func (q *Queries) CompleteLesson(ctx context.Context, userID string, lessonID int64, at time.Time) error {
	_, err := q.db.ExecContext(ctx, completeLesson, userID, lessonID, at.UTC(), at.UTC())
	return err
}

const listLessonProgress = `-- name: ListLessonProgress :many
SELECT user_id, lesson_id, status, opened_at, completed_at FROM lesson_progress
WHERE (? = '' OR user_id = ?)
ORDER BY opened_at`

// ListLessonProgress returns progress rows for userID, or for every user when
// userID is empty.
func (q *Queries) ListLessonProgress(ctx context.Context, userID string) ([]model.LessonProgress, error) {
	rows, err := q.db.QueryContext(ctx, listLessonProgress, userID, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []model.LessonProgress
	for rows.Next() {
		var (
			p           model.LessonProgress
			status      string
			completedAt sql.NullTime
		)
		if err := rows.Scan(&p.UserID, &p.LessonID, &status, &p.OpenedAt, &completedAt); err != nil {
			return nil, err
		}
		p.Status = model.LessonStatus(status)
		p.CompletedAt = timePtr(completedAt)
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getLastOpenedLesson = `-- name: GetLastOpenedLesson :one
SELECT lesson_id FROM lesson_progress WHERE user_id = ?
ORDER BY opened_at DESC LIMIT 1`

// GetLastOpenedLesson returns the id of the lesson the user opened most recently.
func (q *Queries) GetLastOpenedLesson(ctx context.Context, userID string) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, getLastOpenedLesson, userID).Scan(&id)
	return id, err
}

const chapterColumns = `user_id, lesson_id, status, document_link, updated_at`

func scanChapter(row rowScanner) (model.ChapterProgress, error) {
	var (
		c      model.ChapterProgress
		status string
	)
	err := row.Scan(&c.UserID, &c.LessonID, &status, &c.DocumentLink, &c.UpdatedAt)
	c.Status = model.ChapterStatus(status)
	return c, err
}

const listChapterProgress = `-- name: ListChapterProgress :many
SELECT ` + chapterColumns + ` FROM chapter_progress WHERE user_id = ?`

func (q *Queries) ListChapterProgress(ctx context.Context, userID string) ([]model.ChapterProgress, error) {
	rows, err := q.db.QueryContext(ctx, listChapterProgress, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []model.ChapterProgress
	for rows.Next() {
		c, err := scanChapter(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getChapterProgress = `-- name: GetChapterProgress :one
SELECT ` + chapterColumns + ` FROM chapter_progress WHERE user_id = ? AND lesson_id = ?`

func (q *Queries) GetChapterProgress(ctx context.Context, userID string, lessonID int64) (model.ChapterProgress, error) {
	return scanChapter(q.db.QueryRowContext(ctx, getChapterProgress, userID, lessonID))
}

const upsertChapterProgress = `-- name: UpsertChapterProgress :one
INSERT INTO chapter_progress (user_id, lesson_id, status, document_link, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (user_id, lesson_id) DO UPDATE SET
    status = excluded.status,
    document_link = excluded.document_link,
    updated_at = excluded.updated_at
RETURNING ` + chapterColumns

func (q *Queries) UpsertChapterProgress(ctx context.Context, arg model.ChapterProgress) (model.ChapterProgress, error) {
	row := q.db.QueryRowContext(ctx, upsertChapterProgress,
		arg.UserID, arg.LessonID, string(arg.Status), arg.DocumentLink, arg.UpdatedAt.UTC(),
	)
	return scanChapter(row)
}
