// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package access

import (
	"context"
	"fmt"
	"time"

	"github.com/olegiv/coursehub/internal/mailer"
	"github.com/olegiv/coursehub/internal/model"
)

// SweepExpired returns a copy of users in which every active student whose
// expiry lies before now is marked expired, the users that changed, and
// whether anything changed. The input is not modified.
func SweepExpired(users []model.User, now time.Time) (updated, expired []model.User, changed bool) {
	updated = make([]model.User, len(users))
	copy(updated, users)
	for i := range updated {
		if expireIfDue(&updated[i], now) {
			expired = append(expired, updated[i])
		}
	}
	return updated, expired, len(expired) > 0
}

func expireIfDue(u *model.User, now time.Time) bool {
	if u.Role != model.RoleStudent || u.Status != model.StatusActive || !u.IsPastExpiry(now) {
		return false
	}
	u.Status = model.StatusExpired
	u.UpdatedAt = now
	return true
}

// Sweep expires every student whose access window has passed, persists only
// the changed users and sends one access_expired email per newly expired user.
// It returns the number of users expired.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	users, err := m.store.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing users: %w", err)
	}

	_, expired, changed := SweepExpired(users, m.now())
	if !changed {
		return 0, nil
	}

	for i := range expired {
		if err := m.persistExpired(ctx, &expired[i]); err != nil {
			return i, err
		}
	}

	m.logger.InfoContext(ctx, "expired student access",
		"category", model.EventCategoryAccess,
		"count", len(expired),
	)
	return len(expired), nil
}

// sweepUser applies the sweep to a single loaded user and persists the
// change. It reports whether the user was expired.
func (m *Manager) sweepUser(ctx context.Context, u *model.User) (bool, error) {
	if !expireIfDue(u, m.now()) {
		return false, nil
	}
	return true, m.persistExpired(ctx, u)
}

// persistExpired stores the expired status and mails the user. Only the
// caller whose update moved the row sends the email.
func (m *Manager) persistExpired(ctx context.Context, u *model.User) error {
	n, err := m.store.ExpireUser(ctx, u.ID, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("expiring user %s: %w", u.ID, err)
	}
	if n == 0 {
		return nil
	}

	m.sendMail(ctx, nil, u, model.TemplateAccessExpired, "")
	return nil
}

// sendMail sends a template to u. Failures are logged and, when notify is
// set, reported as a generic notice; they never fail the calling operation.
func (m *Manager) sendMail(ctx context.Context, notify Notifier, u *model.User, template, credential string) {
	_, err := m.mail.Send(ctx, mailer.Message{
		To:       u.Email,
		Template: template,
		Data: mailer.Data{
			Name:       u.Name,
			Email:      u.Email,
			Credential: credential,
			ExpiresAt:  u.ExpiresAt,
		},
	})
	if err == nil {
		return
	}

	m.logger.ErrorContext(ctx, "sending email failed",
		"category", model.EventCategoryMail,
		"template", template,
		"user_id", u.ID,
		"error", err,
	)
	if notify != nil {
		notify.Notify(ctx, Notice{
			Level:   NoticeError,
			Title:   "Email error",
			Message: "The email could not be sent.",
		})
	}
}
