// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package access

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/olegiv/coursehub/internal/auth"
	"github.com/olegiv/coursehub/internal/model"
	"github.com/olegiv/coursehub/internal/store"
)

// Manager owns the user access lifecycle.
type Manager struct {
	store  UserStore
	mail   Mailer
	logger *slog.Logger
	now    func() time.Time
	seed   func(ctx context.Context, now time.Time) error
	ready  atomic.Bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithSeeder sets the function Initialize calls to fill an empty database.
func WithSeeder(seed func(ctx context.Context, now time.Time) error) Option {
	return func(m *Manager) { m.seed = seed }
}

// NewManager creates a Manager.
func NewManager(users UserStore, mail Mailer, opts ...Option) *Manager {
	m := &Manager{
		store:  users,
		mail:   mail,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize seeds an empty database and runs the expiry sweep. Failures are
// logged and initialization completes anyway.
func (m *Manager) Initialize(ctx context.Context) {
	defer m.ready.Store(true)

	if m.seed != nil {
		if err := m.seed(ctx, m.now()); err != nil {
			m.logger.ErrorContext(ctx, "seeding users failed", "category", model.EventCategorySystem, "error", err)
		}
	}

	if _, err := m.Sweep(ctx); err != nil {
		m.logger.ErrorContext(ctx, "initial expiry sweep failed", "category", model.EventCategoryAccess, "error", err)
	}
}

// Ready reports whether Initialize has completed.
func (m *Manager) Ready() bool {
	return m.ready.Load()
}

// Restore resolves the session user for a request. The user is swept before
// it is returned, so an expired window is never seen as active. A session
// pointing to a deleted user is cleared and nil is returned.
func (m *Manager) Restore(ctx context.Context, sess Session, notify Notifier) (*model.User, error) {
	id := sess.UserID(ctx)
	if id == "" {
		return nil, nil
	}

	u, err := m.store.GetUserByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		if err := sess.Clear(ctx); err != nil {
			return nil, fmt.Errorf("clearing stale session: %w", err)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session user: %w", err)
	}

	if _, err := m.sweepUser(ctx, &u); err != nil {
		return nil, err
	}
	if err := sess.SetUser(ctx, &u); err != nil {
		return nil, fmt.Errorf("refreshing session: %w", err)
	}

	days, warned := m.warnExpiry(ctx, sess, notify, &u)
	if warned && days == ExpiryWarningDays && !sess.Flag(ctx, flagExpiryMailSent) {
		sess.SetFlag(ctx, flagExpiryMailSent)
		m.sendMail(ctx, notify, &u, model.TemplateExpirySoon, "")
	}

	return &u, nil
}

// warnExpiry notifies an active student whose access ends within
// ExpiryWarningDays, once per session. It returns the days left and whether
// the user is inside the warning window.
func (m *Manager) warnExpiry(ctx context.Context, sess Session, notify Notifier, u *model.User) (int, bool) {
	if !u.IsStudent() || u.Status != model.StatusActive {
		return 0, false
	}
	days, ok := u.DaysUntilExpiry(m.now())
	if !ok || days < 0 || days > ExpiryWarningDays {
		return 0, false
	}

	if !sess.Flag(ctx, flagExpiryWarned) {
		sess.SetFlag(ctx, flagExpiryWarned)
		notifierOrDiscard(notify).Notify(ctx, Notice{
			Level:   NoticeWarning,
			Title:   "Access expiring",
			Message: "Your access expires in " + strconv.Itoa(days) + " day(s).",
		})
	}
	return days, true
}

// Login signs a user in by email and password. Storage failures are returned
// as errors; every other outcome is reported through the result.
func (m *Manager) Login(ctx context.Context, sess Session, notify Notifier, email, password string) (LoginResult, error) {
	notify = notifierOrDiscard(notify)
	invalid := Notice{Level: NoticeError, Title: "Sign-in failed", Message: "Incorrect email or password."}

	u, err := m.store.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		notify.Notify(ctx, invalid)
		return LoginResult{Reason: ReasonUnknownUser}, nil
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("looking up user: %w", err)
	}

	if _, err := m.sweepUser(ctx, &u); err != nil {
		return LoginResult{}, err
	}

	if !m.verify(ctx, &u, password) {
		notify.Notify(ctx, invalid)
		return LoginResult{Reason: ReasonBadPassword}, nil
	}

	if u.Status == model.StatusDisabled {
		notify.Notify(ctx, Notice{
			Level:   NoticeError,
			Title:   "Account disabled",
			Message: "Your account has been disabled. Please contact support.",
		})
		return LoginResult{Reason: ReasonDisabled, User: &u}, nil
	}

	// Flags and notices belong to the previous occupant of the session.
	if prev := sess.UserID(ctx); prev != "" && prev != u.ID {
		if err := sess.Clear(ctx); err != nil {
			return LoginResult{}, fmt.Errorf("clearing previous session: %w", err)
		}
	}
	if err := sess.Renew(ctx); err != nil {
		return LoginResult{}, fmt.Errorf("renewing session: %w", err)
	}
	if err := sess.SetUser(ctx, &u); err != nil {
		return LoginResult{}, fmt.Errorf("storing session: %w", err)
	}

	result := LoginResult{Reason: ReasonOK, User: &u}
	if days, warned := m.warnExpiry(ctx, sess, notify, &u); warned {
		result.ExpiresInDays = &days
	}

	m.logger.InfoContext(ctx, "user signed in", "user_id", u.ID, "role", u.Role)
	return result, nil
}

// Logout clears the session.
func (m *Manager) Logout(ctx context.Context, sess Session) error {
	return sess.Clear(ctx)
}

// CheckCredential verifies password against the user's authoritative
// credential without signing in.
func (m *Manager) CheckCredential(ctx context.Context, userID, password string) (Reason, error) {
	u, err := m.GetUser(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return ReasonNotFound, nil
	}
	if err != nil {
		return "", err
	}
	if !m.verify(ctx, &u, password) {
		return ReasonBadPassword, nil
	}
	return ReasonOK, nil
}

// verify reports whether password matches the credential selected by
// password_changed. Undecodable hashes never match.
func (m *Manager) verify(ctx context.Context, u *model.User, password string) bool {
	ok, err := auth.VerifyCredential(password, u.CredentialHash())
	if err != nil {
		m.logger.WarnContext(ctx, "stored credential could not be verified",
			"category", model.EventCategoryAuth,
			"user_id", u.ID,
			"error", err,
		)
		return false
	}
	return ok
}

// ChangePasswordInput describes a password change. CurrentPassword is
// checked only when FromProfile is set; the first-login flow validates the
// access code beforehand with CheckCredential.
type ChangePasswordInput struct {
	UserID          string
	NewPassword     string
	FromProfile     bool
	CurrentPassword string
}

// ChangePassword replaces the user's credential with a permanent password and
// ends the first-login state.
func (m *Manager) ChangePassword(ctx context.Context, sess Session, notify Notifier, in ChangePasswordInput) error {
	notify = notifierOrDiscard(notify)

	u, err := m.GetUser(ctx, in.UserID)
	if err != nil {
		return err
	}

	if in.FromProfile && !m.verify(ctx, &u, in.CurrentPassword) {
		notify.Notify(ctx, Notice{Level: NoticeError, Title: "Error", Message: "The current password is incorrect."})
		return ErrBadPassword
	}

	validate := auth.ValidatePassword
	if in.FromProfile {
		validate = auth.ValidateProfilePassword
	}
	if err := validate(in.NewPassword); err != nil {
		notify.Notify(ctx, Notice{Level: NoticeError, Title: "Error", Message: err.Error()})
		return err
	}

	hash, err := auth.HashCredential(in.NewPassword)
	if err != nil {
		return err
	}

	updated, err := m.store.UpdateUserCredentials(ctx, store.UpdateUserCredentialsParams{
		ID:              u.ID,
		PasswordHash:    hash,
		PasswordChanged: true,
		FirstLogin:      false,
		UpdatedAt:       m.now(),
	})
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	if err := m.refreshSession(ctx, sess, &updated); err != nil {
		return err
	}

	notify.Notify(ctx, Notice{Level: NoticeSuccess, Title: "Success", Message: "Your password has been updated."})
	m.logger.InfoContext(ctx, "password changed", "category", model.EventCategoryAuth, "user_id", u.ID)
	return nil
}

// GetUser returns the user with id or ErrUserNotFound.
func (m *Manager) GetUser(ctx context.Context, id string) (model.User, error) {
	u, err := m.store.GetUserByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("loading user: %w", err)
	}
	return u, nil
}

// ListUsers returns all users in creation order.
func (m *Manager) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := m.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// refreshSession replaces the session snapshot when u is the session user.
func (m *Manager) refreshSession(ctx context.Context, sess Session, u *model.User) error {
	if sess == nil || sess.UserID(ctx) != u.ID {
		return nil
	}
	if err := sess.SetUser(ctx, u); err != nil {
		return fmt.Errorf("refreshing session: %w", err)
	}
	return nil
}

func notifierOrDiscard(n Notifier) Notifier {
	if n == nil {
		return discardNotices
	}
	return n
}
