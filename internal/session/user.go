// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/coursehub/internal/access"
	"github.com/olegiv/coursehub/internal/model"
)

// Session keys.
const (
	KeyUserID  = "user_id"
	KeyUser    = "user"
	KeyNotices = "notices"
	flagPrefix = "flag:"
)

// Store adapts an scs manager to access.Session and access.Notifier for the
// session carried by the request context.
type Store struct {
	sm *scs.SessionManager
}

// Bind wraps sm.
func Bind(sm *scs.SessionManager) *Store {
	return &Store{sm: sm}
}

// Manager returns the underlying scs manager.
func (s *Store) Manager() *scs.SessionManager {
	return s.sm
}

// UserID returns the signed-in user id or "".
func (s *Store) UserID(ctx context.Context) string {
	return s.sm.GetString(ctx, KeyUserID)
}

// SetUser stores the user id and a JSON snapshot of the record. Credential
// hashes are excluded by the model's JSON tags.
func (s *Store) SetUser(ctx context.Context, u *model.User) error {
	snap, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encoding user snapshot: %w", err)
	}
	s.sm.Put(ctx, KeyUserID, u.ID)
	s.sm.Put(ctx, KeyUser, snap)
	return nil
}

// Snapshot returns the user stored by SetUser, or nil.
func (s *Store) Snapshot(ctx context.Context) *model.User {
	raw := s.sm.GetBytes(ctx, KeyUser)
	if len(raw) == 0 {
		return nil
	}
	var u model.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil
	}
	return &u
}

// Renew rotates the session token to prevent fixation.
func (s *Store) Renew(ctx context.Context) error {
	return s.sm.RenewToken(ctx)
}

// Clear destroys the session. Notices queued afterwards start a new one.
func (s *Store) Clear(ctx context.Context) error {
	return s.sm.Destroy(ctx)
}

// Flag reports whether name was set in this session.
func (s *Store) Flag(ctx context.Context, name string) bool {
	return s.sm.GetBool(ctx, flagPrefix+name)
}

// SetFlag marks name for the rest of the session.
func (s *Store) SetFlag(ctx context.Context, name string) {
	s.sm.Put(ctx, flagPrefix+name, true)
}

var _ access.Session = (*Store)(nil)
