// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/coursehub/internal/model"
)

const moduleColumns = `id, title, description, order_index, is_active, created_at, updated_at`

func scanModule(row rowScanner) (model.Module, error) {
	var m model.Module
	err := row.Scan(&m.ID, &m.Title, &m.Description, &m.OrderIndex, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

const countModules = `-- name: CountModules :one
SELECT COUNT(*) FROM modules`

func (q *Queries) CountModules(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countModules).Scan(&n)
	return n, err
}

const listModules = `-- name: ListModules :many
SELECT ` + moduleColumns + ` FROM modules ORDER BY order_index, id`

func (q *Queries) ListModules(ctx context.Context) ([]model.Module, error) {
	rows, err := q.db.QueryContext(ctx, listModules)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []model.Module
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getModule = `-- name: GetModule :one
SELECT ` + moduleColumns + ` FROM modules WHERE id = ?`

func (q *Queries) GetModule(ctx context.Context, id int64) (model.Module, error) {
	return scanModule(q.db.QueryRowContext(ctx, getModule, id))
}

const createModule = `-- name: CreateModule :one
INSERT INTO modules (title, description, order_index, is_active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + moduleColumns

// ModuleParams holds the editable columns of a module.
type ModuleParams struct {
	ID          int64
	Title       string
	Description string
	OrderIndex  int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (q *Queries) CreateModule(ctx context.Context, arg ModuleParams) (model.Module, error) {
	row := q.db.QueryRowContext(ctx, createModule,
		arg.Title, arg.Description, arg.OrderIndex, arg.IsActive,
		arg.CreatedAt.UTC(), arg.UpdatedAt.UTC(),
	)
	return scanModule(row)
}

const updateModule = `-- name: UpdateModule :one
UPDATE modules SET title = ?, description = ?, order_index = ?, is_active = ?, updated_at = ?
WHERE id = ?
RETURNING ` + moduleColumns

func (q *Queries) UpdateModule(ctx context.Context, arg ModuleParams) (model.Module, error) {
	row := q.db.QueryRowContext(ctx, updateModule,
		arg.Title, arg.Description, arg.OrderIndex, arg.IsActive, arg.UpdatedAt.UTC(), arg.ID,
	)
	return scanModule(row)
}

const deleteModule = `-- name: DeleteModule :execrows
DELETE FROM modules WHERE id = ?`

func (q *Queries) DeleteModule(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteModule, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const lessonColumns = `id, module_id, title, description, video_url, duration, order_index,
    explanatory_text, is_active, created_at, updated_at`

func scanLesson(row rowScanner) (model.Lesson, error) {
	var l model.Lesson
	err := row.Scan(
		&l.ID, &l.ModuleID, &l.Title, &l.Description, &l.VideoURL, &l.Duration,
		&l.OrderIndex, &l.ExplanatoryText, &l.IsActive, &l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

func scanLessons(rows *sql.Rows) ([]model.Lesson, error) {
	defer func() { _ = rows.Close() }()
	var items []model.Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listLessons = `-- name: ListLessons :many
SELECT ` + lessonColumns + ` FROM lessons ORDER BY module_id, order_index, id`

// ListLessons returns every lesson regardless of its active flag.
func (q *Queries) ListLessons(ctx context.Context) ([]model.Lesson, error) {
	rows, err := q.db.QueryContext(ctx, listLessons)
	if err != nil {
		return nil, err
	}
	return scanLessons(rows)
}

const listActiveLessons = `-- name: ListActiveLessons :many
SELECT l.id, l.module_id, l.title, l.description, l.video_url, l.duration, l.order_index,
    l.explanatory_text, l.is_active, l.created_at, l.updated_at
FROM lessons l
JOIN modules m ON m.id = l.module_id
WHERE l.is_active = 1 AND m.is_active = 1
ORDER BY m.order_index, m.id, l.order_index, l.id`

// ListActiveLessons returns active lessons of active modules in course order.
func (q *Queries) ListActiveLessons(ctx context.Context) ([]model.Lesson, error) {
	rows, err := q.db.QueryContext(ctx, listActiveLessons)
	if err != nil {
		return nil, err
	}
	return scanLessons(rows)
}

const getLesson = `-- name: GetLesson :one
SELECT ` + lessonColumns + ` FROM lessons WHERE id = ?`

func (q *Queries) GetLesson(ctx context.Context, id int64) (model.Lesson, error) {
	return scanLesson(q.db.QueryRowContext(ctx, getLesson, id))
}

const createLesson = `-- name: CreateLesson :one
INSERT INTO lessons (module_id, title, description, video_url, duration, order_index,
    explanatory_text, is_active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + lessonColumns

// LessonParams holds the editable columns of a lesson.
type LessonParams struct {
	ID              int64
	ModuleID        int64
	Title           string
	Description     string
	VideoURL        string
	Duration        string
	OrderIndex      int
	ExplanatoryText string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (q *Queries) CreateLesson(ctx context.Context, arg LessonParams) (model.Lesson, error) {
	row := q.db.QueryRowContext(ctx, createLesson,
		arg.ModuleID, arg.Title, arg.Description, arg.VideoURL, arg.Duration, arg.OrderIndex,
		arg.ExplanatoryText, arg.IsActive, arg.CreatedAt.UTC(), arg.UpdatedAt.UTC(),
	)
	return scanLesson(row)
}

const updateLesson = `-- name: UpdateLesson :one
UPDATE lessons SET module_id = ?, title = ?, description = ?, video_url = ?, duration = ?,
    order_index = ?, explanatory_text = ?, is_active = ?, updated_at = ?
WHERE id = ?
RETURNING ` + lessonColumns

func (q *Queries) UpdateLesson(ctx context.Context, arg LessonParams) (model.Lesson, error) {
	row := q.db.QueryRowContext(ctx, updateLesson,
		arg.ModuleID, arg.Title, arg.Description, arg.VideoURL, arg.Duration,
		arg.OrderIndex, arg.ExplanatoryText, arg.IsActive, arg.UpdatedAt.UTC(), arg.ID,
	)
	return scanLesson(row)
}

const deleteLesson = `-- name: DeleteLesson :execrows
DELETE FROM lessons WHERE id = ?`

func (q *Queries) DeleteLesson(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteLesson, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// LessonResource is a resource link row with its owning lesson.
type LessonResource struct {
	LessonID int64
	model.ResourceLink
}

const listResources = `-- name: ListResources :many
SELECT lesson_id, title, url, description FROM lesson_resources ORDER BY lesson_id, position`

// ListResources returns all resource links ordered by lesson and position.
func (q *Queries) ListResources(ctx context.Context) ([]LessonResource, error) {
	rows, err := q.db.QueryContext(ctx, listResources)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []LessonResource
	for rows.Next() {
		var r LessonResource
		if err := rows.Scan(&r.LessonID, &r.Title, &r.URL, &r.Description); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteResources = `-- name: DeleteResources :exec
DELETE FROM lesson_resources WHERE lesson_id = ?`

const insertResource = `-- name: InsertResource :exec
INSERT INTO lesson_resources (lesson_id, position, title, url, description) VALUES (?, ?, ?, ?, ?)`

// ReplaceResources swaps the resource links of a lesson for links.
// Callers run it inside a transaction.
func (q *Queries) ReplaceResources(ctx context.Context, lessonID int64, links []model.ResourceLink) error {
	if _, err := q.db.ExecContext(ctx, deleteResources, lessonID); err != nil {
		return err
	}
	for i, link := range links {
		if _, err := q.db.ExecContext(ctx, insertResource, lessonID, i, link.Title, link.URL, link.Description); err != nil {
			return err
		}
	}
	return nil
}
