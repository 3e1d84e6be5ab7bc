// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import "github.com/olegiv/coursehub/internal/access"

// URL parameter names.
const (
	ParamLessonID = "lessonID"
	ParamModuleID = "moduleID"
	ParamUserID   = "userID"
	ParamJobName  = "name"
)

// Route pattern constants for chi router registration.
const (
	RouteHealth        = "/health"
	RouteLogin         = access.PathLogin
	RouteLogout        = "/logout"
	RouteMe            = "/me"
	RouteFirstLogin    = access.PathFirstLogin
	RouteAccessExpired = access.PathAccessExpired

	RouteLessons         = access.PathLessons
	RouteLessonID        = RouteLessons + "/{" + ParamLessonID + "}"
	RouteLessonOpen      = RouteLessonID + "/open"
	RouteLessonComplete  = RouteLessonID + "/complete"
	RouteChapters        = access.PathChapters
	RouteChapterLink     = RouteChapters + "/{" + ParamLessonID + "}/link"
	RouteChapterComplete = RouteChapters + "/{" + ParamLessonID + "}/complete"
	RouteProfile         = access.PathProfile
	RouteProfilePassword = RouteProfile + "/password"

	RouteCoach        = access.PathCoach
	RouteCoachStudent = RouteCoach + "/students/{" + ParamUserID + "}"
	RouteAnalytics    = access.PathAnalytics

	RouteAdminUsers           = access.PathAdminUsers
	RouteAdminUserID          = RouteAdminUsers + "/{" + ParamUserID + "}"
	RouteAdminUserCredentials = RouteAdminUserID + "/credentials"
	RouteAdminEmails          = "/admin/emails"
	RouteAdminEvents          = "/admin/events"
	RouteAdminContent         = access.PathAdminContent
	RouteAdminModules         = "/admin/modules"
	RouteAdminModuleID        = RouteAdminModules + "/{" + ParamModuleID + "}"
	RouteAdminLessons         = "/admin/lessons"
	RouteAdminLessonID        = RouteAdminLessons + "/{" + ParamLessonID + "}"
	RouteAdminJobs            = "/admin/jobs"
	RouteAdminJobRun          = RouteAdminJobs + "/{" + ParamJobName + "}/run"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20
