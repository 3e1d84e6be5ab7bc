// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/olegiv/coursehub/internal/model"
	"github.com/olegiv/coursehub/internal/store"
	"github.com/olegiv/coursehub/internal/util"
)

// ErrLinkRequired is returned when completing a chapter that has no saved
// document link.
var ErrLinkRequired = errors.New("save a document link before completing the chapter")

// Chapter is one student's written work for an active lesson.
type Chapter struct {
	LessonID     int64               `json:"lesson_id"`
	ModuleID     int64               `json:"module_id"`
	Title        string              `json:"title"`
	ModuleTitle  string              `json:"module_title"`
	Status       model.ChapterStatus `json:"status"`
	DocumentLink string              `json:"document_link"`
	UpdatedAt    *time.Time          `json:"updated_at,omitempty"`
}

// ChapterList is the chapter overview with counts per status.
type ChapterList struct {
	Chapters   []Chapter `json:"chapters"`
	NotStarted int       `json:"not_started"`
	InProgress int       `json:"in_progress"`
	Completed  int       `json:"completed"`
}

// ChapterService tracks one chapter per active lesson.
type ChapterService struct {
	queries *store.Queries
	content *ContentService
	now     func() time.Time
}

func NewChapterService(db *sql.DB, content *ContentService) *ChapterService {
	return &ChapterService{
		queries: store.New(db),
		content: content,
		now:     time.Now,
	}
}

// List returns the user's chapters in course order. Titles always come from
// the current course; lessons without a record are not_started.
func (s *ChapterService) List(ctx context.Context, userID string) (ChapterList, error) {
	modules, err := s.content.ActiveCourse(ctx)
	if err != nil {
		return ChapterList{}, err
	}
	records, err := s.queries.ListChapterProgress(ctx, userID)
	if err != nil {
		return ChapterList{}, fmt.Errorf("listing chapters: %w", err)
	}
	byLesson := make(map[int64]model.ChapterProgress, len(records))
	for _, r := range records {
		byLesson[r.LessonID] = r
	}

	list := ChapterList{Chapters: []Chapter{}}
	for _, m := range modules {
		for _, l := range m.Lessons {
			ch := Chapter{
				LessonID:    l.ID,
				ModuleID:    m.ID,
				Title:       l.Title,
				ModuleTitle: m.Title,
				Status:      model.ChapterNotStarted,
			}
			if r, ok := byLesson[l.ID]; ok {
				ch.Status = r.Status
				ch.DocumentLink = r.DocumentLink
				updated := r.UpdatedAt
				ch.UpdatedAt = &updated
			}

			switch ch.Status {
			case model.ChapterCompleted:
				list.Completed++
			case model.ChapterInProgress:
				list.InProgress++
			default:
				list.NotStarted++
			}
			list.Chapters = append(list.Chapters, ch)
		}
	}
	return list, nil
}

// SaveLink stores the document link for a chapter. A not-started chapter
// moves to in_progress; a completed one stays completed.
func (s *ChapterService) SaveLink(ctx context.Context, userID string, lessonID int64, link string) (model.ChapterProgress, error) {
	link, err := util.ValidateHTTPURL(link)
	if err != nil {
		return model.ChapterProgress{}, &ContentError{Fields: map[string]string{"document_link": err.Error()}}
	}
	if err := s.content.RequireActiveLesson(ctx, lessonID); err != nil {
		return model.ChapterProgress{}, err
	}

	status := model.ChapterInProgress
	current, err := s.queries.GetChapterProgress(ctx, userID, lessonID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return model.ChapterProgress{}, fmt.Errorf("getting chapter: %w", err)
	case current.Status == model.ChapterCompleted:
		status = model.ChapterCompleted
	}

	saved, err := s.queries.UpsertChapterProgress(ctx, model.ChapterProgress{
		UserID:       userID,
		LessonID:     lessonID,
		Status:       status,
		DocumentLink: link,
		UpdatedAt:    s.now(),
	})
	if err != nil {
		return model.ChapterProgress{}, fmt.Errorf("saving chapter link: %w", err)
	}
	return saved, nil
}

// Complete marks a chapter completed. It requires a saved link.
func (s *ChapterService) Complete(ctx context.Context, userID string, lessonID int64) (model.ChapterProgress, error) {
	if err := s.content.RequireActiveLesson(ctx, lessonID); err != nil {
		return model.ChapterProgress{}, err
	}

	current, err := s.queries.GetChapterProgress(ctx, userID, lessonID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && current.DocumentLink == "") {
		return model.ChapterProgress{}, ErrLinkRequired
	}
	if err != nil {
		return model.ChapterProgress{}, fmt.Errorf("getting chapter: %w", err)
	}

	current.Status = model.ChapterCompleted
	current.UpdatedAt = s.now()
	saved, err := s.queries.UpsertChapterProgress(ctx, current)
	if err != nil {
		return model.ChapterProgress{}, fmt.Errorf("completing chapter: %w", err)
	}
	return saved, nil
}
