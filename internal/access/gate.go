// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package access

import (
	"slices"

	"github.com/olegiv/coursehub/internal/model"
)

// Authorize decides whether user may view a page restricted to the required
// roles. An empty required list admits every role.
//
// The checks run in a fixed order: no session, pending first login, student
// without active access, then role. A student who must first change the
// access code or whose access expired is therefore sent to that page even
// when the role check would also fail.
func Authorize(user *model.User, required ...model.Role) Decision {
	switch {
	case user == nil:
		return Decision{Redirect: PathLogin}
	case user.IsStudent() && user.FirstLogin:
		return Decision{Redirect: PathFirstLogin}
	case user.IsStudent() && user.Status != model.StatusActive:
		return Decision{Redirect: PathAccessExpired}
	case len(required) > 0 && !slices.Contains(required, user.Role):
		return Decision{Redirect: DefaultLanding}
	}
	return Decision{Allow: true}
}

// Landing returns the page a signed-in user starts on.
func Landing(user *model.User) string {
	if d := Authorize(user); !d.Allow {
		return d.Redirect
	}
	if user.Role.IsCoach() {
		return PathCoach
	}
	return PathLessons
}
