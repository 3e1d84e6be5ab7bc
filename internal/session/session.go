// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session stores the signed-in user, per-session flags and pending
// notices in server-side scs sessions backed by SQLite.
package session

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// Lifetime is the absolute session lifetime.
const Lifetime = 24 * time.Hour

// IdleTimeout ends sessions without requests for this long.
const IdleTimeout = 2 * time.Hour

// New creates a session manager configured with the SQLite store.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()
	sm.Store = sqlite3store.New(db)

	sm.Lifetime = Lifetime
	sm.IdleTimeout = IdleTimeout
	sm.Cookie.Name = "coursehub_session"
	sm.Cookie.Path = "/"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev

	// The __Host- prefix requires Secure, Path=/ and no Domain.
	if !isDev {
		sm.Cookie.Name = "__Host-coursehub_session"
	}

	return sm
}
