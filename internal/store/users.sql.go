// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/coursehub/internal/model"
)

const userColumns = `id, name, email, role, status, password_hash, temp_password_hash,
    password_changed, first_login, expires_at, payment_status, amount_paid_cents,
    created_at, updated_at`

func scanUser(row rowScanner) (model.User, error) {
	var (
		u         model.User
		role      string
		status    string
		expiresAt sql.NullTime
	)
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&role,
		&status,
		&u.PasswordHash,
		&u.TempPasswordHash,
		&u.PasswordChanged,
		&u.FirstLogin,
		&expiresAt,
		&u.PaymentStatus,
		&u.AmountPaidCents,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	u.Role = model.Role(role)
	u.Status = model.Status(status)
	u.ExpiresAt = timePtr(expiresAt)
	return u, err
}

func scanUsers(rows *sql.Rows) ([]model.User, error) {
	defer func() { _ = rows.Close() }()
	var items []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createUser = `-- name: CreateUser :one
INSERT INTO users (` + userColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + userColumns

// CreateUserParams holds the columns of a new user row.
type CreateUserParams struct {
	ID               string
	Name             string
	Email            string
	Role             model.Role
	Status           model.Status
	PasswordHash     string
	TempPasswordHash string
	PasswordChanged  bool
	FirstLogin       bool
	ExpiresAt        *time.Time
	PaymentStatus    string
	AmountPaidCents  int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (model.User, error) {
	row := q.db.QueryRowContext(ctx, createUser,
		arg.ID,
		arg.Name,
		arg.Email,
		string(arg.Role),
		string(arg.Status),
		arg.PasswordHash,
		arg.TempPasswordHash,
		arg.PasswordChanged,
		arg.FirstLogin,
		nullTime(arg.ExpiresAt),
		arg.PaymentStatus,
		arg.AmountPaidCents,
		arg.CreatedAt.UTC(),
		arg.UpdatedAt.UTC(),
	)
	return scanUser(row)
}

const getUserByID = `-- name: GetUserByID :one
SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUserByID(ctx context.Context, id string) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

// Email matching is exact. When several rows share an address the oldest wins.
const getUserByEmail = `-- name: GetUserByEmail :one
SELECT ` + userColumns + ` FROM users WHERE email = ?
ORDER BY created_at, rowid
LIMIT 1`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const listUsers = `-- name: ListUsers :many
SELECT ` + userColumns + ` FROM users ORDER BY created_at, rowid`

func (q *Queries) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

const listUsersByRole = `-- name: ListUsersByRole :many
SELECT ` + userColumns + ` FROM users WHERE role = ? ORDER BY created_at, rowid`

func (q *Queries) ListUsersByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	rows, err := q.db.QueryContext(ctx, listUsersByRole, string(role))
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

const countUsers = `-- name: CountUsers :one
SELECT COUNT(*) FROM users`

func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countUsers).Scan(&n)
	return n, err
}

const updateUser = `-- name: UpdateUser :one
UPDATE users SET
    name = ?, email = ?, role = ?, status = ?, first_login = ?, expires_at = ?,
    payment_status = ?, amount_paid_cents = ?, updated_at = ?
WHERE id = ?
RETURNING ` + userColumns

// UpdateUserParams holds the editable profile and access columns of a user.
type UpdateUserParams struct {
	ID              string
	Name            string
	Email           string
	Role            model.Role
	Status          model.Status
	FirstLogin      bool
	ExpiresAt       *time.Time
	PaymentStatus   string
	AmountPaidCents int64
	UpdatedAt       time.Time
}

func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (model.User, error) {
	row := q.db.QueryRowContext(ctx, updateUser,
		arg.Name,
		arg.Email,
		string(arg.Role),
		string(arg.Status),
		arg.FirstLogin,
		nullTime(arg.ExpiresAt),
		arg.PaymentStatus,
		arg.AmountPaidCents,
		arg.UpdatedAt.UTC(),
		arg.ID,
	)
	return scanUser(row)
}

const expireUser = `-- name: ExpireUser :execrows
UPDATE users SET status = 'expired', updated_at = ?
WHERE id = ? AND status = 'active'`

// ExpireUser moves an active user to expired. It returns 0 when the user was
// already expired, disabled or missing, so concurrent sweeps expire once.
func (q *Queries) ExpireUser(ctx context.Context, id string, at time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, expireUser, at.UTC(), id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const updateUserCredentials = `-- name: UpdateUserCredentials :one
UPDATE users SET
    password_hash = ?, temp_password_hash = ?, password_changed = ?,
    first_login = ?, updated_at = ?
WHERE id = ?
RETURNING ` + userColumns

// UpdateUserCredentialsParams holds the credential columns of a user.
type UpdateUserCredentialsParams struct {
	ID               string
	PasswordHash     string
	TempPasswordHash string
	PasswordChanged  bool
	FirstLogin       bool
	UpdatedAt        time.Time
}

func (q *Queries) UpdateUserCredentials(ctx context.Context, arg UpdateUserCredentialsParams) (model.User, error) {
	row := q.db.QueryRowContext(ctx, updateUserCredentials,
		arg.PasswordHash,
		arg.TempPasswordHash,
		arg.PasswordChanged,
		arg.FirstLogin,
		arg.UpdatedAt.UTC(),
		arg.ID,
	)
	return scanUser(row)
}

const deleteUser = `-- name: DeleteUser :execrows
DELETE FROM users WHERE id = ?`

// DeleteUser removes a user and returns the number of rows deleted.
func (q *Queries) DeleteUser(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteUser, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const emailTaken = `-- name: EmailTaken :one
SELECT EXISTS(SELECT 1 FROM users WHERE email = ? AND id != ?)`

// EmailTaken reports whether another user than exceptID already uses email.
func (q *Queries) EmailTaken(ctx context.Context, email, exceptID string) (bool, error) {
	var taken bool
	err := q.db.QueryRowContext(ctx, emailTaken, email, exceptID).Scan(&taken)
	return taken, err
}
