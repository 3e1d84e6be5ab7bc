// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package access

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/olegiv/coursehub/internal/auth"
	"github.com/olegiv/coursehub/internal/model"
	"github.com/olegiv/coursehub/internal/store"
)

// DefaultAccessMonths is the access window given to new students.
const DefaultAccessMonths = 1

// NewUser is the input of AddUser. An empty Credential is generated by role.
// AccessMonths applies to students only.
type NewUser struct {
	Name            string
	Email           string
	Role            model.Role
	Credential      string
	AccessMonths    int
	PaymentStatus   string
	AmountPaidCents int64
}

// UserPatch lists the fields UpdateUser may change. Nil fields are kept.
type UserPatch struct {
	Name            *string
	Email           *string
	Role            *model.Role
	Status          *model.Status
	AccessMonths    *int
	PaymentStatus   *string
	AmountPaidCents *int64
}

// AddUser creates an active user with a fresh credential and emails it.
// Coaches receive a permanent password and no expiry; students receive a
// temporary access code and an access window.
func (m *Manager) AddUser(ctx context.Context, notify Notifier, in NewUser) (model.User, Credential, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.AccessMonths == 0 {
		in.AccessMonths = DefaultAccessMonths
	}

	fields := validateUser(in.Name, in.Email, in.Role)
	if in.AccessMonths < 0 {
		fields["access_months"] = "Access duration must be positive"
	}
	if in.AmountPaidCents < 0 {
		fields["amount_paid_cents"] = "Amount must not be negative"
	}
	if !model.ValidPaymentStatus(in.PaymentStatus) {
		fields["payment_status"] = "Payment status must be paid or pending"
	}
	if len(fields) > 0 {
		return model.User{}, Credential{}, &ValidationError{Fields: fields}
	}

	if err := m.checkEmailFree(ctx, in.Email, ""); err != nil {
		return model.User{}, Credential{}, err
	}

	cred, err := issueCredential(in.Role, in.Credential)
	if err != nil {
		return model.User{}, Credential{}, err
	}
	hash, err := auth.HashCredential(cred.Value)
	if err != nil {
		return model.User{}, Credential{}, err
	}

	now := m.now()
	params := store.CreateUserParams{
		ID:              uuid.NewString(),
		Name:            in.Name,
		Email:           in.Email,
		Role:            in.Role,
		Status:          model.StatusActive,
		PaymentStatus:   in.PaymentStatus,
		AmountPaidCents: in.AmountPaidCents,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if cred.Temporary {
		params.TempPasswordHash = hash
		params.FirstLogin = true
		expires := now.AddDate(0, in.AccessMonths, 0)
		params.ExpiresAt = &expires
	} else {
		params.PasswordHash = hash
		params.PasswordChanged = true
	}

	u, err := m.store.CreateUser(ctx, params)
	if err != nil {
		return model.User{}, Credential{}, fmt.Errorf("creating user: %w", err)
	}

	m.sendMail(ctx, notify, &u, welcomeTemplate(u.Role), cred.Value)
	m.logger.InfoContext(ctx, "user created", "category", model.EventCategoryUser, "user_id", u.ID, "role", u.Role)
	return u, cred, nil
}

// UpdateUser merges patch into the user. AccessMonths restarts the access
// window from now and reactivates an expired student. Role changes keep
// coaches without expiry and give students without one a default window.
func (m *Manager) UpdateUser(ctx context.Context, sess Session, id string, patch UserPatch) (model.User, error) {
	u, err := m.GetUser(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	now := m.now()
	wasStudent := u.IsStudent()

	if patch.Name != nil {
		u.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		u.Email = strings.TrimSpace(*patch.Email)
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	if patch.Status != nil {
		u.Status = *patch.Status
	}
	if patch.PaymentStatus != nil {
		u.PaymentStatus = *patch.PaymentStatus
	}
	if patch.AmountPaidCents != nil {
		u.AmountPaidCents = *patch.AmountPaidCents
	}

	if u.Role.IsCoach() && u.Status == model.StatusExpired && patch.Status == nil {
		u.Status = model.StatusActive
	}

	fields := validateUser(u.Name, u.Email, u.Role)
	if !u.Status.Valid() {
		fields["status"] = "Unknown status"
	}
	if u.Role.IsCoach() && u.Status == model.StatusExpired {
		fields["status"] = "Coaches cannot be expired"
	}
	if u.IsStudent() && patch.Status != nil && *patch.Status == model.StatusExpired &&
		(patch.AccessMonths != nil || !u.IsPastExpiry(now)) {
		fields["status"] = "Access expires on its own once the end date has passed"
	}
	if patch.AccessMonths != nil && *patch.AccessMonths <= 0 {
		fields["access_months"] = "Access duration must be positive"
	}
	if u.AmountPaidCents < 0 {
		fields["amount_paid_cents"] = "Amount must not be negative"
	}
	if !model.ValidPaymentStatus(u.PaymentStatus) {
		fields["payment_status"] = "Payment status must be paid or pending"
	}
	if len(fields) > 0 {
		return model.User{}, &ValidationError{Fields: fields}
	}

	if patch.Email != nil {
		if err := m.checkEmailFree(ctx, u.Email, u.ID); err != nil {
			return model.User{}, err
		}
	}

	switch {
	case u.Role.IsCoach():
		u.ExpiresAt = nil
		u.FirstLogin = false
	case patch.AccessMonths != nil:
		expires := now.AddDate(0, *patch.AccessMonths, 0)
		u.ExpiresAt = &expires
		if u.Status == model.StatusExpired {
			u.Status = model.StatusActive
		}
	case u.ExpiresAt == nil:
		expires := now.AddDate(0, DefaultAccessMonths, 0)
		u.ExpiresAt = &expires
	}

	// An active student whose window already passed goes straight to expired.
	expired := expireIfDue(&u, now)

	updated, err := m.store.UpdateUser(ctx, store.UpdateUserParams{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Role:            u.Role,
		Status:          u.Status,
		FirstLogin:      u.FirstLogin,
		ExpiresAt:       u.ExpiresAt,
		PaymentStatus:   u.PaymentStatus,
		AmountPaidCents: u.AmountPaidCents,
		UpdatedAt:       now,
	})
	if err != nil {
		return model.User{}, fmt.Errorf("updating user: %w", err)
	}
	if expired {
		m.sendMail(ctx, nil, &updated, model.TemplateAccessExpired, "")
	}

	// A promoted student still signing in with an access code gets a
	// permanent password.
	if wasStudent && updated.Role.IsCoach() && !updated.PasswordChanged {
		if updated, _, err = m.reissue(ctx, nil, updated); err != nil {
			return model.User{}, err
		}
	}

	if err := m.refreshSession(ctx, sess, &updated); err != nil {
		return model.User{}, err
	}

	m.logger.InfoContext(ctx, "user updated", "category", model.EventCategoryUser, "user_id", updated.ID)
	return updated, nil
}

// DeleteUser removes a user and its progress. The session user cannot
// delete itself.
func (m *Manager) DeleteUser(ctx context.Context, sess Session, id string) error {
	if sess != nil && sess.UserID(ctx) == id {
		return ErrSelfDelete
	}

	n, err := m.store.DeleteUser(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}

	m.logger.InfoContext(ctx, "user deleted", "category", model.EventCategoryUser, "user_id", id)
	return nil
}

// RegenerateCredential issues a new credential by role and emails it.
// Coaches get a new permanent password. Students get a new access code, lose
// their permanent password and go back through first login.
func (m *Manager) RegenerateCredential(ctx context.Context, notify Notifier, id string) (model.User, Credential, error) {
	u, err := m.GetUser(ctx, id)
	if err != nil {
		return model.User{}, Credential{}, err
	}
	return m.reissue(ctx, notify, u)
}

// reissue stores a fresh credential for u by role and emails it.
func (m *Manager) reissue(ctx context.Context, notify Notifier, u model.User) (model.User, Credential, error) {
	cred, err := issueCredential(u.Role, "")
	if err != nil {
		return model.User{}, Credential{}, err
	}
	hash, err := auth.HashCredential(cred.Value)
	if err != nil {
		return model.User{}, Credential{}, err
	}

	params := store.UpdateUserCredentialsParams{ID: u.ID, UpdatedAt: m.now()}
	if cred.Temporary {
		params.TempPasswordHash = hash
		params.FirstLogin = true
	} else {
		params.PasswordHash = hash
		params.PasswordChanged = true
	}

	updated, err := m.store.UpdateUserCredentials(ctx, params)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, Credential{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, Credential{}, fmt.Errorf("storing credential: %w", err)
	}

	m.sendMail(ctx, notify, &updated, welcomeTemplate(updated.Role), cred.Value)
	m.logger.InfoContext(ctx, "credential regenerated", "category", model.EventCategoryAuth, "user_id", updated.ID)
	return updated, cred, nil
}

func issueCredential(role model.Role, supplied string) (Credential, error) {
	cred := Credential{Value: supplied, Temporary: !role.IsCoach()}
	if cred.Value != "" {
		return cred, nil
	}

	var err error
	if cred.Temporary {
		cred.Value, err = auth.GenerateAccessCode()
	} else {
		cred.Value, err = auth.GeneratePassword()
	}
	return cred, err
}

func welcomeTemplate(role model.Role) string {
	if role.IsCoach() {
		return model.TemplateWelcomeCoach
	}
	return model.TemplateWelcomeStudent
}

func validateUser(name, email string, role model.Role) map[string]string {
	fields := make(map[string]string)
	if name == "" {
		fields["name"] = "Name is required"
	}
	if email == "" {
		fields["email"] = "Email is required"
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		fields["email"] = "Invalid email address"
	}
	if !role.Valid() {
		fields["role"] = "Role must be student, coach or supercoach"
	}
	return fields
}

func (m *Manager) checkEmailFree(ctx context.Context, email, exceptID string) error {
	taken, err := m.store.EmailTaken(ctx, email, exceptID)
	if err != nil {
		return fmt.Errorf("checking email: %w", err)
	}
	if taken {
		return ErrDuplicateEmail
	}
	return nil
}
