// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/olegiv/coursehub/internal/model"
	"github.com/olegiv/coursehub/internal/store"
)

// ProgressSummary is a student's position in the active course.
type ProgressSummary struct {
	CompletedLessonIDs []int64 `json:"completed_lesson_ids"`
	Completed          int     `json:"completed"`
	Total              int     `json:"total"`
	Percentage         int     `json:"percentage"`
	LastLessonID       *int64  `json:"last_lesson_id"`
}

// ProgressService records lesson opening and completion.
type ProgressService struct {
	queries *store.Queries
	content *ContentService
	now     func() time.Time
}

// NewProgressService creates a ProgressService over the active course of
// content.
func NewProgressService(db *sql.DB, content *ContentService) *ProgressService {
	return &ProgressService{
		queries: store.New(db),
		content: content,
		now:     time.Now,
	}
}

// OpenLesson records lessonID as the user's last opened lesson. A completed
// lesson stays completed.
func (s *ProgressService) OpenLesson(ctx context.Context, userID string, lessonID int64) error {
	if err := s.content.RequireActiveLesson(ctx, lessonID); err != nil {
		return err
	}
	if err := s.queries.UpsertLessonOpened(ctx, userID, lessonID, s.now()); err != nil {
		return fmt.Errorf("recording lesson %d opened: %w", lessonID, err)
	}
	return nil
}

// CompleteLesson marks lessonID completed for the user.
func (s *ProgressService) CompleteLesson(ctx context.Context, userID string, lessonID int64) error {
	if err := s.content.RequireActiveLesson(ctx, lessonID); err != nil {
		return err
	}
	if err := s.queries.CompleteLesson(ctx, userID, lessonID, s.now()); err != nil {
		return fmt.Errorf("completing lesson %d: %w", lessonID, err)
	}
	return nil
}

// Summary counts completed lessons among the active ones. Completions of
// lessons that were since deactivated are not counted.
func (s *ProgressService) Summary(ctx context.Context, userID string) (ProgressSummary, error) {
	lessons, err := s.content.ActiveLessons(ctx)
	if err != nil {
		return ProgressSummary{}, err
	}
	rows, err := s.queries.ListLessonProgress(ctx, userID)
	if err != nil {
		return ProgressSummary{}, fmt.Errorf("listing progress: %w", err)
	}

	done := make(map[int64]bool, len(rows))
	for _, p := range rows {
		if p.Status == model.LessonCompleted {
			done[p.LessonID] = true
		}
	}

	sum := ProgressSummary{CompletedLessonIDs: []int64{}, Total: len(lessons)}
	for _, l := range lessons {
		if done[l.ID] {
			sum.CompletedLessonIDs = append(sum.CompletedLessonIDs, l.ID)
		}
	}
	sum.Completed = len(sum.CompletedLessonIDs)
	sum.Percentage = percentage(sum.Completed, sum.Total)

	last, err := s.queries.GetLastOpenedLesson(ctx, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return ProgressSummary{}, fmt.Errorf("getting last lesson: %w", err)
	default:
		sum.LastLessonID = &last
	}
	return sum, nil
}

// percentage returns part/total as a whole percent, rounded half away from
// zero. A zero total is 0%.
func percentage(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
