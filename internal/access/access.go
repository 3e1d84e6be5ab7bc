// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package access manages sessions, access expiry, credential issuance and
// rotation, and the role gate used by the router.
package access

import (
	"context"
	"errors"
	"time"

	"github.com/olegiv/coursehub/internal/mailer"
	"github.com/olegiv/coursehub/internal/model"
	"github.com/olegiv/coursehub/internal/store"
)

// Route paths the gate redirects to.
const (
	PathLogin         = "/login"
	PathFirstLogin    = "/first-login"
	PathAccessExpired = "/access-expired"
	PathLessons       = "/lessons"
	PathChapters      = "/chapters"
	PathProfile       = "/profile"
	PathCoach         = "/coach"
	PathAdminUsers    = "/admin/users"
	PathAdminContent  = "/admin/content"
	PathAnalytics     = "/analytics"
)

// DefaultLanding is where users without the required role are sent.
const DefaultLanding = PathLessons

// ExpiryWarningDays is the window before expiry in which students are warned.
const ExpiryWarningDays = 7

// Reason is the outcome code of a credential check.
type Reason string

// Outcome codes.
const (
	ReasonOK          Reason = "ok"
	ReasonUnknownUser Reason = "unknown_user"
	ReasonBadPassword Reason = "bad_password"
	ReasonDisabled    Reason = "disabled"
	ReasonNotFound    Reason = "not_found"
)

// LoginResult is the outcome of Login. ExpiresInDays is set when the user was
// warned about an upcoming expiry.
type LoginResult struct {
	Reason        Reason
	User          *model.User
	ExpiresInDays *int
}

// OK reports whether the login succeeded.
func (r LoginResult) OK() bool {
	return r.Reason == ReasonOK
}

// Decision is the gate's answer for one request.
type Decision struct {
	Allow    bool
	Redirect string
}

// Credential is a freshly issued plaintext secret. Temporary marks a student
// access code that must be replaced at first login.
type Credential struct {
	Value     string `json:"value"`
	Temporary bool   `json:"temporary"`
}

// Errors returned by the manager.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrSelfDelete     = errors.New("cannot delete the signed-in user")
	ErrInvalidUser    = errors.New("invalid user")
	ErrDuplicateEmail = errors.New("email already in use")
	ErrBadPassword    = errors.New("current password is incorrect")
)

// ValidationError carries per-field messages and matches ErrInvalidUser.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return ErrInvalidUser.Error()
}

// Is lets errors.Is match ErrInvalidUser.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidUser
}

// Session flags.
const (
	flagExpiryWarned   = "expiry_warned"
	flagExpiryMailSent = "expiry_mail_sent"
)

// Session is the current-user pointer of one client.
type Session interface {
	// UserID returns the signed-in user id or "".
	UserID(ctx context.Context) string
	// SetUser stores the user id and a snapshot of the record.
	SetUser(ctx context.Context, u *model.User) error
	// Renew rotates the session token.
	Renew(ctx context.Context) error
	// Clear signs the user out.
	Clear(ctx context.Context) error
	Flag(ctx context.Context, name string) bool
	SetFlag(ctx context.Context, name string)
}

// Notice levels.
const (
	NoticeInfo    = "info"
	NoticeSuccess = "success"
	NoticeWarning = "warning"
	NoticeError   = "error"
)

// Notice is a short user-facing message.
type Notice struct {
	Level   string `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Notifier delivers notices to the current client.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notice)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, n Notice) { f(ctx, n) }

var discardNotices = NotifierFunc(func(context.Context, Notice) {})

// UserStore is the persistence the manager needs. *store.Queries satisfies it.
type UserStore interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUserByID(ctx context.Context, id string) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	CreateUser(ctx context.Context, arg store.CreateUserParams) (model.User, error)
	UpdateUser(ctx context.Context, arg store.UpdateUserParams) (model.User, error)
	ExpireUser(ctx context.Context, id string, at time.Time) (int64, error)
	UpdateUserCredentials(ctx context.Context, arg store.UpdateUserCredentialsParams) (model.User, error)
	DeleteUser(ctx context.Context, id string) (int64, error)
	EmailTaken(ctx context.Context, email, exceptID string) (bool, error)
}

// Mailer sends templated emails. *mailer.Mailer satisfies it.
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) (model.OutboxEmail, error)
}
