// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"encoding/json"

	"github.com/olegiv/coursehub/internal/access"
)

// maxNotices bounds the queue so an idle client cannot grow its session.
const maxNotices = 20

// Notify queues n in the session until the next PopNotices.
func (s *Store) Notify(ctx context.Context, n access.Notice) {
	queued := s.notices(ctx)
	queued = append(queued, n)
	if len(queued) > maxNotices {
		queued = queued[len(queued)-maxNotices:]
	}
	raw, err := json.Marshal(queued)
	if err != nil {
		return
	}
	s.sm.Put(ctx, KeyNotices, raw)
}

// PopNotices returns and removes all queued notices.
func (s *Store) PopNotices(ctx context.Context) []access.Notice {
	queued := s.notices(ctx)
	if len(queued) > 0 {
		s.sm.Remove(ctx, KeyNotices)
	}
	return queued
}

func (s *Store) notices(ctx context.Context) []access.Notice {
	raw := s.sm.GetBytes(ctx, KeyNotices)
	if len(raw) == 0 {
		return nil
	}
	var queued []access.Notice
	if err := json.Unmarshal(raw, &queued); err != nil {
		return nil
	}
	return queued
}

var _ access.Notifier = (*Store)(nil)
