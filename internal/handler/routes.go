// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/coursehub/internal/middleware"
	"github.com/olegiv/coursehub/internal/model"
	"github.com/olegiv/coursehub/internal/service"
)

// Handlers groups every route handler. Register mounts them behind the
// access gate; the caller installs session loading and LoadUser first.
type Handlers struct {
	Health    *HealthHandler
	Auth      *AuthHandler
	Learning  *LearningHandler
	Users     *UsersHandler
	Coach     *CoachHandler
	Content   *ContentHandler
	Scheduler *SchedulerHandler

	// LoginLimiter wraps POST /login, typically LoginProtection.Middleware.
	LoginLimiter func(http.Handler) http.Handler
	// Events records role denials; nil disables them.
	Events *service.EventService
}

// Register mounts the routes on r.
func (hs Handlers) Register(r chi.Router) {
	r.Get(RouteHealth, hs.Health.Health)

	login := http.Handler(http.HandlerFunc(hs.Auth.Login))
	if hs.LoginLimiter != nil {
		login = hs.LoginLimiter(login)
	}
	r.Method(http.MethodPost, RouteLogin, login)

	// Signed in, whatever the access state.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession)
		r.Post(RouteLogout, hs.Auth.Logout)
		r.Get(RouteMe, hs.Auth.Me)
		r.Post(RouteFirstLogin, hs.Auth.FirstLogin)
		r.Get(RouteAccessExpired, hs.Auth.AccessExpired)
	})

	// Any role with current access.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAccessWithEventLog(hs.Events))
		r.Get(RouteLessons, hs.Learning.Lessons)
		r.Get(RouteLessonID, hs.Learning.Lesson)
		r.Post(RouteLessonOpen, hs.Learning.OpenLesson)
		r.Post(RouteLessonComplete, hs.Learning.CompleteLesson)
		r.Get(RouteChapters, hs.Learning.Chapters)
		r.Put(RouteChapterLink, hs.Learning.SaveChapterLink)
		r.Post(RouteChapterComplete, hs.Learning.CompleteChapter)
		r.Get(RouteProfile, hs.Auth.Profile)
		r.Post(RouteProfilePassword, hs.Auth.ChangePassword)
	})

	// Coaches and supercoaches.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAccessWithEventLog(hs.Events, model.RoleCoach, model.RoleSupercoach))
		r.Use(middleware.NoStore)

		r.Get(RouteCoach, hs.Coach.Dashboard)
		r.Get(RouteCoachStudent, hs.Coach.Student)
		r.Get(RouteAnalytics, hs.Coach.Analytics)

		r.Get(RouteAdminUsers, hs.Users.List)
		r.Post(RouteAdminUsers, hs.Users.Create)
		r.Get(RouteAdminUserID, hs.Users.Get)
		r.Put(RouteAdminUserID, hs.Users.Update)
		r.Delete(RouteAdminUserID, hs.Users.Delete)
		r.Post(RouteAdminUserCredentials, hs.Users.RegenerateCredential)

		r.Get(RouteAdminEmails, hs.Coach.Emails)
		r.Get(RouteAdminEvents, hs.Coach.Events)

		r.Get(RouteAdminContent, hs.Content.Overview)
		r.Post(RouteAdminModules, hs.Content.CreateModule)
		r.Put(RouteAdminModuleID, hs.Content.UpdateModule)
		r.Delete(RouteAdminModuleID, hs.Content.DeleteModule)
		r.Post(RouteAdminLessons, hs.Content.CreateLesson)
		r.Put(RouteAdminLessonID, hs.Content.UpdateLesson)
		r.Delete(RouteAdminLessonID, hs.Content.DeleteLesson)

		if hs.Scheduler != nil {
			r.Get(RouteAdminJobs, hs.Scheduler.List)
			r.Post(RouteAdminJobRun, hs.Scheduler.Run)
		}
	})
}
