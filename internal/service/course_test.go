// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/coursehub/internal/model"
	"github.com/olegiv/coursehub/internal/store"
)

type studentSpec struct {
	status    model.Status
	createdAt time.Time
	expiresAt *time.Time
	payment   string
	cents     int64
}

func (f *courseFixture) student(t *testing.T, s studentSpec) model.User {
	t.Helper()
	if s.status == "" {
		s.status = model.StatusActive
	}
	if s.createdAt.IsZero() {
		s.createdAt = testNow.AddDate(0, -3, 0)
	}
	u, err := f.queries.CreateUser(context.Background(), store.CreateUserParams{
		ID:              uuid.NewString(),
		Name:            "Student",
		Email:           uuid.NewString() + "@example.com",
		Role:            model.RoleStudent,
		Status:          s.status,
		ExpiresAt:       s.expiresAt,
		PaymentStatus:   s.payment,
		AmountPaidCents: s.cents,
		CreatedAt:       s.createdAt,
		UpdatedAt:       s.createdAt,
	})
	require.NoError(t, err)
	return u
}

func at(t time.Time) *time.Time { return &t }

// fourLessons creates one active module with lessons A..D and an inactive
// lesson X.
func (f *courseFixture) fourLessons(t *testing.T) []model.Lesson {
	t.Helper()
	m := f.module(t, "Basics", 1, true)
	var lessons []model.Lesson
	for i, title := range []string{"A", "B", "C", "D"} {
		lessons = append(lessons, f.lesson(t, m.ID, title, i, true))
	}
	f.lesson(t, m.ID, "X", 9, false)
	return lessons
}

func TestProgress_OpenCompleteSummary(t *testing.T) {
	f := newCourseFixture(t)
	ctx := context.Background()
	lessons := f.fourLessons(t)
	u := f.student(t, studentSpec{})

	clock := testNow
	progress := NewProgressService(f.db, f.content)
	progress.now = func() time.Time { return clock }

	sum, err := progress.Summary(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Total)
	assert.Zero(t, sum.Percentage)
	assert.Nil(t, sum.LastLessonID)
	assert.NotNil(t, sum.CompletedLessonIDs)

	require.NoError(t, progress.CompleteLesson(ctx, u.ID, lessons[0].ID))
	clock = clock.Add(time.Minute)
	require.NoError(t, progress.OpenLesson(ctx, u.ID, lessons[0].ID))
	clock = clock.Add(time.Minute)
	require.NoError(t, progress.OpenLesson(ctx, u.ID, lessons[2].ID))

	sum, err = progress.Summary(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{lessons[0].ID}, sum.CompletedLessonIDs, "re-opening keeps completion")
	assert.Equal(t, 25, sum.Percentage)
	require.NotNil(t, sum.LastLessonID)
	assert.Equal(t, lessons[2].ID, *sum.LastLessonID)

	require.NoError(t, progress.CompleteLesson(ctx, u.ID, lessons[1].ID))
	require.NoError(t, progress.CompleteLesson(ctx, u.ID, lessons[1].ID))
	sum, err = progress.Summary(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, sum.Percentage)
}

func TestProgress_InactiveLessonRejected(t *testing.T) {
	f := newCourseFixture(t)
	ctx := context.Background()
	m := f.module(t, "Basics", 1, true)
	inactive := f.lesson(t, m.ID, "Draft", 1, false)
	u := f.student(t, studentSpec{})

	progress := NewProgressService(f.db, f.content)
	assert.ErrorIs(t, progress.OpenLesson(ctx, u.ID, inactive.ID), ErrLessonNotFound)
	assert.ErrorIs(t, progress.CompleteLesson(ctx, u.ID, 999), ErrLessonNotFound)
}

func TestPercentage(t *testing.T) {
	tests := []struct{ part, total, want int }{
		{0, 0, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},
		{3, 3, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, percentage(tt.part, tt.total), "%d/%d", tt.part, tt.total)
	}
}

func TestChapters_Lifecycle(t *testing.T) {
	f := newCourseFixture(t)
	ctx := context.Background()
	lessons := f.fourLessons(t)
	u := f.student(t, studentSpec{})
	chapters := NewChapterService(f.db, f.content)

	list, err := chapters.List(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list.Chapters, 4)
	assert.Equal(t, 4, list.NotStarted)
	assert.Equal(t, "Basics", list.Chapters[0].ModuleTitle)

	_, err = chapters.Complete(ctx, u.ID, lessons[0].ID)
	assert.ErrorIs(t, err, ErrLinkRequired)

	for _, bad := range []string{"", "   ", "docs.example.com/x", "javascript:alert(1)"} {
		_, err := chapters.SaveLink(ctx, u.ID, lessons[0].ID, bad)
		assert.ErrorIs(t, err, ErrInvalidContent, "link %q", bad)
	}

	saved, err := chapters.SaveLink(ctx, u.ID, lessons[0].ID, " https://docs.example.com/d/1 ")
	require.NoError(t, err)
	assert.Equal(t, model.ChapterInProgress, saved.Status)
	assert.Equal(t, "https://docs.example.com/d/1", saved.DocumentLink)

	done, err := chapters.Complete(ctx, u.ID, lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.ChapterCompleted, done.Status)

	// A new link on a completed chapter keeps it completed.
	saved, err = chapters.SaveLink(ctx, u.ID, lessons[0].ID, "https://docs.example.com/d/2")
	require.NoError(t, err)
	assert.Equal(t, model.ChapterCompleted, saved.Status)

	_, err = chapters.SaveLink(ctx, u.ID, lessons[1].ID, "https://docs.example.com/d/3")
	require.NoError(t, err)

	list, err = chapters.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Completed)
	assert.Equal(t, 1, list.InProgress)
	assert.Equal(t, 2, list.NotStarted)
}

func TestChapters_TitlesFollowCourse(t *testing.T) {
	f := newCourseFixture(t)
	ctx := context.Background()
	lessons := f.fourLessons(t)
	u := f.student(t, studentSpec{})
	chapters := NewChapterService(f.db, f.content)

	_, err := chapters.SaveLink(ctx, u.ID, lessons[3].ID, "https://docs.example.com/d")
	require.NoError(t, err)

	renamed := lessons[3]
	renamed.Title = "Renamed"
	_, err = f.content.UpdateLesson(ctx, renamed)
	require.NoError(t, err)

	list, err := chapters.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", list.Chapters[3].Title)
	assert.Equal(t, "https://docs.example.com/d", list.Chapters[3].DocumentLink)

	renamed.IsActive = false
	_, err = f.content.UpdateLesson(ctx, renamed)
	require.NoError(t, err)
	list, err = chapters.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, list.Chapters, 3)
}

func TestAnalytics_Dashboard(t *testing.T) {
	f := newCourseFixture(t)
	ctx := context.Background()

	f.student(t, studentSpec{expiresAt: at(testNow.AddDate(0, 0, 3))})
	f.student(t, studentSpec{expiresAt: at(testNow.AddDate(0, 0, 20)), createdAt: testNow.AddDate(0, 0, -5)})
	f.student(t, studentSpec{status: model.StatusExpired, expiresAt: at(testNow.AddDate(0, 0, -1))})
	f.student(t, studentSpec{status: model.StatusDisabled, expiresAt: at(testNow.AddDate(0, 0, 2))})

	svc := NewAnalyticsService(f.db, f.content)
	svc.now = func() time.Time { return testNow }

	stats, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, DashboardStats{Total: 4, Active: 2, ExpiringSoon: 1, NewThisMonth: 1}, stats)
}

func TestAnalytics_Compute(t *testing.T) {
	f := newCourseFixture(t)
	ctx := context.Background()
	lessons := f.fourLessons(t)

	paidNow := f.student(t, studentSpec{
		createdAt: testNow.AddDate(0, 0, -2), payment: model.PaymentPaid, cents: 10000,
		expiresAt: at(testNow.AddDate(0, 0, 10)),
	})
	pending := f.student(t, studentSpec{
		createdAt: testNow.AddDate(0, -1, 0), payment: model.PaymentPending, cents: 5000,
		expiresAt: at(testNow.AddDate(0, 0, 5)),
	})
	f.student(t, studentSpec{
		createdAt: testNow.AddDate(0, -5, 0), payment: model.PaymentPaid, cents: 7000,
		expiresAt: at(testNow.AddDate(0, 2, 0)),
	})
	f.student(t, studentSpec{createdAt: testNow.AddDate(-1, 0, 0)})

	progress := NewProgressService(f.db, f.content)
	require.NoError(t, progress.CompleteLesson(ctx, paidNow.ID, lessons[0].ID))
	require.NoError(t, progress.CompleteLesson(ctx, paidNow.ID, lessons[1].ID))
	require.NoError(t, progress.CompleteLesson(ctx, pending.ID, lessons[1].ID))
	require.NoError(t, progress.OpenLesson(ctx, pending.ID, lessons[2].ID))

	svc := NewAnalyticsService(f.db, f.content)
	svc.now = func() time.Time { return testNow }

	report, err := svc.Compute(ctx)
	require.NoError(t, err)

	require.Len(t, report.Monthly, 6)
	assert.Equal(t, "2025-10", report.Monthly[0].Month)
	assert.Equal(t, "2026-03", report.Monthly[5].Month)
	assert.Equal(t, "Mar", report.Monthly[5].Label)
	assert.Equal(t, 1, report.Monthly[5].NewStudents)
	assert.EqualValues(t, 10000, report.Monthly[5].RevenueCents)
	assert.Equal(t, 1, report.Monthly[4].NewStudents)
	assert.Zero(t, report.Monthly[4].RevenueCents, "pending students bring no revenue")
	assert.EqualValues(t, 7000, report.Monthly[0].RevenueCents)

	// (50% + 25%) / 2 students with progress rows.
	assert.Equal(t, 38, report.AverageProgression)

	require.Len(t, report.TopLessons, 4)
	assert.Equal(t, "B", report.TopLessons[0].Title)
	assert.Equal(t, 2, report.TopLessons[0].Completions)
	assert.Equal(t, "A", report.TopLessons[1].Title)
	require.Len(t, report.BottomLessons, 4)
	assert.Equal(t, "D", report.BottomLessons[0].Title)
	assert.Equal(t, "B", report.BottomLessons[3].Title)

	assert.Equal(t, 1, report.ExpiringSoonCount)
	assert.EqualValues(t, 10000, report.RevenueAtRiskCents)
	assert.Equal(t, 4, report.TotalStudents)
}
