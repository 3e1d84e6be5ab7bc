// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/coursehub/internal/cache"
	"github.com/olegiv/coursehub/internal/model"
	"github.com/olegiv/coursehub/internal/render"
	"github.com/olegiv/coursehub/internal/store"
)

// Cache keys for course content. Every mutation drops the whole prefix.
const (
	coursePrefix    = "course:"
	activeCourseKey = coursePrefix + "active"
)

// Content errors.
var (
	ErrModuleNotFound = errors.New("module not found")
	ErrLessonNotFound = errors.New("lesson not found")
	ErrInvalidContent = errors.New("invalid content")
)

// ContentError carries per-field messages and matches ErrInvalidContent.
type ContentError struct {
	Fields map[string]string
}

func (e *ContentError) Error() string {
	return ErrInvalidContent.Error()
}

func (e *ContentError) Is(target error) bool {
	return target == ErrInvalidContent
}

// ContentService manages modules, lessons and their resource links.
type ContentService struct {
	db      *sql.DB
	queries *store.Queries
	backend cache.Cacher
	course  *cache.TypedCache[[]model.Module]
	md      *render.Markdown
	now     func() time.Time
}

// NewContentService creates a ContentService. Active course reads go
// through c.
func NewContentService(db *sql.DB, c cache.Cacher, ttl time.Duration) *ContentService {
	return &ContentService{
		db:      db,
		queries: store.New(db),
		backend: c,
		course:  cache.NewTypedCache[[]model.Module](c, ttl),
		md:      render.NewMarkdown(),
		now:     time.Now,
	}
}

// AllModules returns every module with every lesson, active or not, for
// the content editor.
func (s *ContentService) AllModules(ctx context.Context) ([]model.Module, error) {
	modules, err := s.queries.ListModules(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing modules: %w", err)
	}
	lessons, err := s.queries.ListLessons(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing lessons: %w", err)
	}
	return s.assemble(ctx, modules, lessons, false)
}

// ActiveCourse returns active modules in order, each with its active
// lessons in order. Modules without active lessons are kept.
func (s *ContentService) ActiveCourse(ctx context.Context) ([]model.Module, error) {
	return s.course.GetOrLoad(ctx, activeCourseKey, s.loadActiveCourse)
}

func (s *ContentService) loadActiveCourse(ctx context.Context) ([]model.Module, error) {
	modules, err := s.queries.ListModules(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing modules: %w", err)
	}
	active := modules[:0]
	for _, m := range modules {
		if m.IsActive {
			active = append(active, m)
		}
	}
	lessons, err := s.queries.ListActiveLessons(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing active lessons: %w", err)
	}
	return s.assemble(ctx, active, lessons, true)
}

// ActiveLessons flattens ActiveCourse in course order.
func (s *ContentService) ActiveLessons(ctx context.Context) ([]model.Lesson, error) {
	modules, err := s.ActiveCourse(ctx)
	if err != nil {
		return nil, err
	}
	var lessons []model.Lesson
	for _, m := range modules {
		lessons = append(lessons, m.Lessons...)
	}
	return lessons, nil
}

// RequireActiveLesson returns ErrLessonNotFound unless id is an active
// lesson of an active module.
func (s *ContentService) RequireActiveLesson(ctx context.Context, id int64) error {
	lessons, err := s.ActiveLessons(ctx)
	if err != nil {
		return err
	}
	for _, l := range lessons {
		if l.ID == id {
			return nil
		}
	}
	return ErrLessonNotFound
}

// assemble attaches lessons and resource links to modules. Lessons whose
// module is not in modules are dropped.
func (s *ContentService) assemble(ctx context.Context, modules []model.Module, lessons []model.Lesson, renderHTML bool) ([]model.Module, error) {
	resources, err := s.queries.ListResources(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing resources: %w", err)
	}
	links := make(map[int64][]model.ResourceLink)
	for _, r := range resources {
		links[r.LessonID] = append(links[r.LessonID], r.ResourceLink)
	}

	index := make(map[int64]int, len(modules))
	for i := range modules {
		modules[i].Lessons = []model.Lesson{}
		index[modules[i].ID] = i
	}

	for _, l := range lessons {
		i, ok := index[l.ModuleID]
		if !ok {
			continue
		}
		l.Resources = links[l.ID]
		if l.Resources == nil {
			l.Resources = []model.ResourceLink{}
		}
		if renderHTML {
			s.renderLesson(&l)
		}
		modules[i].Lessons = append(modules[i].Lessons, l)
	}

	if modules == nil {
		modules = []model.Module{}
	}
	return modules, nil
}

func (s *ContentService) renderLesson(l *model.Lesson) {
	if strings.TrimSpace(l.ExplanatoryText) == "" {
		return
	}
	html, err := s.md.SafeHTML(l.ExplanatoryText)
	if err != nil {
		slog.Warn("rendering lesson text", "category", "content", "lesson_id", l.ID, "error", err)
		return
	}
	l.ExplanatoryHTML = html
}

// GetLesson returns one lesson with its resource links and rendered text.
func (s *ContentService) GetLesson(ctx context.Context, id int64) (model.Lesson, error) {
	l, err := s.queries.GetLesson(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Lesson{}, ErrLessonNotFound
	}
	if err != nil {
		return model.Lesson{}, fmt.Errorf("getting lesson %d: %w", id, err)
	}

	resources, err := s.queries.ListResources(ctx)
	if err != nil {
		return model.Lesson{}, fmt.Errorf("listing resources: %w", err)
	}
	l.Resources = []model.ResourceLink{}
	for _, r := range resources {
		if r.LessonID == id {
			l.Resources = append(l.Resources, r.ResourceLink)
		}
	}
	s.renderLesson(&l)
	return l, nil
}

// CreateModule validates and stores a new module.
func (s *ContentService) CreateModule(ctx context.Context, m model.Module) (model.Module, error) {
	if errs := m.Validate(); errs != nil {
		return model.Module{}, &ContentError{Fields: errs}
	}
	now := s.now()
	created, err := s.queries.CreateModule(ctx, store.ModuleParams{
		Title:       strings.TrimSpace(m.Title),
		Description: m.Description,
		OrderIndex:  m.OrderIndex,
		IsActive:    m.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return model.Module{}, fmt.Errorf("creating module: %w", err)
	}
	s.Invalidate(ctx)
	return created, nil
}

// UpdateModule replaces the editable fields of module m.ID.
func (s *ContentService) UpdateModule(ctx context.Context, m model.Module) (model.Module, error) {
	if errs := m.Validate(); errs != nil {
		return model.Module{}, &ContentError{Fields: errs}
	}
	updated, err := s.queries.UpdateModule(ctx, store.ModuleParams{
		ID:          m.ID,
		Title:       strings.TrimSpace(m.Title),
		Description: m.Description,
		OrderIndex:  m.OrderIndex,
		IsActive:    m.IsActive,
		UpdatedAt:   s.now(),
	})
	if errors.Is(err, sql.ErrNoRows) {
		return model.Module{}, ErrModuleNotFound
	}
	if err != nil {
		return model.Module{}, fmt.Errorf("updating module %d: %w", m.ID, err)
	}
	s.Invalidate(ctx)
	return updated, nil
}

// DeleteModule removes a module, its lessons and all progress on them.
func (s *ContentService) DeleteModule(ctx context.Context, id int64) error {
	n, err := s.queries.DeleteModule(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting module %d: %w", id, err)
	}
	if n == 0 {
		return ErrModuleNotFound
	}
	s.Invalidate(ctx)
	return nil
}

// CreateLesson validates and stores a lesson with its resource links.
func (s *ContentService) CreateLesson(ctx context.Context, l model.Lesson) (model.Lesson, error) {
	if err := s.validateLesson(ctx, l); err != nil {
		return model.Lesson{}, err
	}

	now := s.now()
	var created model.Lesson
	err := s.inTx(ctx, func(q *store.Queries) error {
		var err error
		created, err = q.CreateLesson(ctx, lessonParams(l, now))
		if err != nil {
			return err
		}
		return q.ReplaceResources(ctx, created.ID, l.Resources)
	})
	if err != nil {
		return model.Lesson{}, fmt.Errorf("creating lesson: %w", err)
	}
	s.Invalidate(ctx)
	created.Resources = nonNilLinks(l.Resources)
	return created, nil
}

// UpdateLesson replaces a lesson and its resource links.
func (s *ContentService) UpdateLesson(ctx context.Context, l model.Lesson) (model.Lesson, error) {
	if err := s.validateLesson(ctx, l); err != nil {
		return model.Lesson{}, err
	}

	var updated model.Lesson
	err := s.inTx(ctx, func(q *store.Queries) error {
		var err error
		updated, err = q.UpdateLesson(ctx, lessonParams(l, s.now()))
		if err != nil {
			return err
		}
		return q.ReplaceResources(ctx, updated.ID, l.Resources)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return model.Lesson{}, ErrLessonNotFound
	}
	if err != nil {
		return model.Lesson{}, fmt.Errorf("updating lesson %d: %w", l.ID, err)
	}
	s.Invalidate(ctx)
	updated.Resources = nonNilLinks(l.Resources)
	return updated, nil
}

// DeleteLesson removes a lesson and all progress on it.
func (s *ContentService) DeleteLesson(ctx context.Context, id int64) error {
	n, err := s.queries.DeleteLesson(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting lesson %d: %w", id, err)
	}
	if n == 0 {
		return ErrLessonNotFound
	}
	s.Invalidate(ctx)
	return nil
}

// Invalidate drops cached course content. Failures are logged; entries
// also expire with their TTL.
func (s *ContentService) Invalidate(ctx context.Context) {
	if err := s.backend.DeleteByPrefix(ctx, coursePrefix); err != nil {
		slog.Warn("invalidating course cache", "category", "cache", "error", err)
	}
}

func (s *ContentService) validateLesson(ctx context.Context, l model.Lesson) error {
	errs := l.Validate()
	if l.ModuleID != 0 {
		if _, err := s.queries.GetModule(ctx, l.ModuleID); errors.Is(err, sql.ErrNoRows) {
			if errs == nil {
				errs = make(map[string]string)
			}
			errs["module_id"] = "Module does not exist"
		} else if err != nil {
			return fmt.Errorf("getting module %d: %w", l.ModuleID, err)
		}
	}
	if errs != nil {
		return &ContentError{Fields: errs}
	}
	return nil
}

func (s *ContentService) inTx(ctx context.Context, fn func(q *store.Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(s.queries.WithTx(tx)); err != nil {
		return err
	}
	return tx.Commit()
}

func lessonParams(l model.Lesson, now time.Time) store.LessonParams {
	return store.LessonParams{
		ID:              l.ID,
		ModuleID:        l.ModuleID,
		Title:           strings.TrimSpace(l.Title),
		Description:     l.Description,
		VideoURL:        strings.TrimSpace(l.VideoURL),
		Duration:        l.Duration,
		OrderIndex:      l.OrderIndex,
		ExplanatoryText: l.ExplanatoryText,
		IsActive:        l.IsActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func nonNilLinks(links []model.ResourceLink) []model.ResourceLink {
	if links == nil {
		return []model.ResourceLink{}
	}
	return links
}
