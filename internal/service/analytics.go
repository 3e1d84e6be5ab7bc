// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/olegiv/coursehub/internal/model"
	"github.com/olegiv/coursehub/internal/store"
)

const (
	monthsReported  = 6
	popularityLimit = 5
)

// MonthStats is one calendar month of enrolment.
type MonthStats struct {
	Month        string `json:"month"` // YYYY-MM
	Label        string `json:"label"`
	NewStudents  int    `json:"new_students"`
	RevenueCents int64  `json:"revenue_cents"`
}

// LessonPopularity is the number of students who completed a lesson.
type LessonPopularity struct {
	LessonID    int64  `json:"lesson_id"`
	Title       string `json:"title"`
	Completions int    `json:"completions"`
}

// Analytics aggregates enrolment, revenue and progress over all students.
type Analytics struct {
	Monthly            []MonthStats       `json:"monthly"`
	AverageProgression int                `json:"average_progression"`
	TopLessons         []LessonPopularity `json:"top_lessons"`
	BottomLessons      []LessonPopularity `json:"bottom_lessons"`
	ExpiringSoonCount  int                `json:"expiring_soon_count"`
	RevenueAtRiskCents int64              `json:"revenue_at_risk_cents"`
	TotalStudents      int                `json:"total_students"`
}

// DashboardStats are the coach landing page counters.
type DashboardStats struct {
	Total        int `json:"total"`
	Active       int `json:"active"`
	ExpiringSoon int `json:"expiring_soon"`
	NewThisMonth int `json:"new_this_month"`
}

// AnalyticsService computes coach-facing aggregates on demand.
type AnalyticsService struct {
	queries *store.Queries
	content *ContentService
	now     func() time.Time
}

func NewAnalyticsService(db *sql.DB, content *ContentService) *AnalyticsService {
	return &AnalyticsService{
		queries: store.New(db),
		content: content,
		now:     time.Now,
	}
}

// Dashboard counts students: all, active, active and expiring within seven
// days, and created within the last month.
func (s *AnalyticsService) Dashboard(ctx context.Context) (DashboardStats, error) {
	students, err := s.queries.ListUsersByRole(ctx, model.RoleStudent)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("listing students: %w", err)
	}

	now := s.now()
	weekAhead := now.AddDate(0, 0, 7)
	monthAgo := now.AddDate(0, -1, 0)

	stats := DashboardStats{Total: len(students)}
	for _, u := range students {
		if u.Status == model.StatusActive {
			stats.Active++
			if u.ExpiresAt != nil && u.ExpiresAt.After(now) && u.ExpiresAt.Before(weekAhead) {
				stats.ExpiringSoon++
			}
		}
		if u.CreatedAt.After(monthAgo) {
			stats.NewThisMonth++
		}
	}
	return stats, nil
}

// Compute builds the analytics report.
func (s *AnalyticsService) Compute(ctx context.Context) (Analytics, error) {
	students, err := s.queries.ListUsersByRole(ctx, model.RoleStudent)
	if err != nil {
		return Analytics{}, fmt.Errorf("listing students: %w", err)
	}
	lessons, err := s.content.ActiveLessons(ctx)
	if err != nil {
		return Analytics{}, err
	}
	progress, err := s.queries.ListLessonProgress(ctx, "")
	if err != nil {
		return Analytics{}, fmt.Errorf("listing progress: %w", err)
	}

	now := s.now()
	report := Analytics{
		Monthly:       monthlyStats(students, now),
		TotalStudents: len(students),
	}

	isStudent := make(map[string]bool, len(students))
	for _, u := range students {
		isStudent[u.ID] = true
	}
	active := make(map[int64]bool, len(lessons))
	for _, l := range lessons {
		active[l.ID] = true
	}

	// Completions per student and per lesson, over active lessons only.
	tracked := make(map[string]bool)
	completedBy := make(map[string]int)
	completions := make(map[int64]int)
	for _, p := range progress {
		if !isStudent[p.UserID] {
			continue
		}
		tracked[p.UserID] = true
		if p.Status == model.LessonCompleted && active[p.LessonID] {
			completedBy[p.UserID]++
			completions[p.LessonID]++
		}
	}

	if len(lessons) > 0 && len(tracked) > 0 {
		var total float64
		for id := range tracked {
			total += float64(completedBy[id]) / float64(len(lessons)) * 100
		}
		report.AverageProgression = int(math.Round(total / float64(len(tracked))))
	}

	popularity := make([]LessonPopularity, 0, len(lessons))
	for _, l := range lessons {
		popularity = append(popularity, LessonPopularity{LessonID: l.ID, Title: l.Title, Completions: completions[l.ID]})
	}
	slices.SortStableFunc(popularity, func(a, b LessonPopularity) int {
		return cmp.Compare(b.Completions, a.Completions)
	})
	report.TopLessons = popularity[:min(popularityLimit, len(popularity))]
	bottom := slices.Clone(popularity[max(0, len(popularity)-popularityLimit):])
	slices.Reverse(bottom)
	report.BottomLessons = bottom

	monthAhead := now.AddDate(0, 1, 0)
	for _, u := range students {
		if u.PaymentStatus != model.PaymentPaid || u.ExpiresAt == nil {
			continue
		}
		if !u.ExpiresAt.Before(now) && !u.ExpiresAt.After(monthAhead) {
			report.ExpiringSoonCount++
			report.RevenueAtRiskCents += u.AmountPaidCents
		}
	}

	return report, nil
}

// monthlyStats buckets students by creation month over the last
// monthsReported calendar months, oldest first. Revenue counts paid
// students only.
func monthlyStats(students []model.User, now time.Time) []MonthStats {
	loc := now.Location()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, -(monthsReported - 1), 0)

	buckets := make([]MonthStats, monthsReported)
	for i := range buckets {
		start := first.AddDate(0, i, 0)
		buckets[i] = MonthStats{
			Month: start.Format("2006-01"),
			Label: start.Format("Jan"),
		}
	}

	for _, u := range students {
		created := u.CreatedAt.In(loc)
		i := (created.Year()-first.Year())*12 + int(created.Month()) - int(first.Month())
		if i < 0 || i >= monthsReported {
			continue
		}
		buckets[i].NewStudents++
		if u.PaymentStatus == model.PaymentPaid {
			buckets[i].RevenueCents += u.AmountPaidCents
		}
	}
	return buckets
}
