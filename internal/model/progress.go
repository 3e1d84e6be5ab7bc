// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// LessonStatus is the progress tag of a (user, lesson) pair.
type LessonStatus string

// Lesson progress tags. A missing row means the lesson was never opened.
const (
	LessonStarted   LessonStatus = "started"
	LessonCompleted LessonStatus = "completed"
)

// LessonProgress maps a (user, lesson) pair to its status.
type LessonProgress struct {
	UserID      string       `json:"user_id"`
	LessonID    int64        `json:"lesson_id"`
	Status      LessonStatus `json:"status"`
	OpenedAt    time.Time    `json:"opened_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// ChapterStatus is the state of a student's written work for a lesson.
type ChapterStatus string

// Chapter states.
const (
	ChapterNotStarted ChapterStatus = "not_started"
	ChapterInProgress ChapterStatus = "in_progress"
	ChapterCompleted  ChapterStatus = "completed"
)

// ChapterProgress is a student's document link and status for one lesson.
type ChapterProgress struct {
	UserID       string        `json:"user_id"`
	LessonID     int64         `json:"lesson_id"`
	Status       ChapterStatus `json:"status"`
	DocumentLink string        `json:"document_link"`
	UpdatedAt    time.Time     `json:"updated_at"`
}
