// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the application
// including User, Module, Lesson, progress records, outbox emails and events.
package model

import (
	"time"
)

// Role is the closed set of user roles.
type Role string

// User roles.
const (
	RoleStudent    Role = "student"
	RoleCoach      Role = "coach"
	RoleSupercoach Role = "supercoach"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleCoach, RoleSupercoach:
		return true
	}
	return false
}

// IsCoach reports whether r is a coach or supercoach role.
// Coach roles never expire and hold a permanent password.
func (r Role) IsCoach() bool {
	return r == RoleCoach || r == RoleSupercoach
}

// Status is the lifecycle state of a user account.
type Status string

// User statuses.
const (
	StatusActive   Status = "active"
	StatusExpired  Status = "expired"
	StatusDisabled Status = "disabled"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusExpired, StatusDisabled:
		return true
	}
	return false
}

// Payment statuses recorded for students.
const (
	PaymentPaid    = "paid"
	PaymentPending = "pending"
)

// ValidPaymentStatus reports whether s is a known payment status. The empty
// status means not recorded.
func ValidPaymentStatus(s string) bool {
	return s == "" || s == PaymentPaid || s == PaymentPending
}

// User is an identity plus its access record.
type User struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Role             Role       `json:"role"`
	Status           Status     `json:"status"`
	PasswordHash     string     `json:"-"` // Never expose in JSON
	TempPasswordHash string     `json:"-"`
	PasswordChanged  bool       `json:"password_changed"`
	FirstLogin       bool       `json:"first_login"`
	ExpiresAt        *time.Time `json:"expires_at"`
	PaymentStatus    string     `json:"payment_status,omitempty"`
	AmountPaidCents  int64      `json:"amount_paid_cents"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// IsStudent returns true if the user has the student role.
func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}

// CredentialHash returns the hash of the credential currently authoritative
// for the user: the permanent password once changed, the temp code before.
func (u *User) CredentialHash() string {
	if u.PasswordChanged {
		return u.PasswordHash
	}
	return u.TempPasswordHash
}

// IsPastExpiry reports whether the user has an expiry date that lies before now.
func (u *User) IsPastExpiry(now time.Time) bool {
	return u.ExpiresAt != nil && now.After(*u.ExpiresAt)
}

// DaysUntilExpiry returns the whole number of days left before expiry,
// truncated toward zero. ok is false when the user never expires.
func (u *User) DaysUntilExpiry(now time.Time) (days int, ok bool) {
	if u.ExpiresAt == nil {
		return 0, false
	}
	return int(u.ExpiresAt.Sub(now) / (24 * time.Hour)), true
}
