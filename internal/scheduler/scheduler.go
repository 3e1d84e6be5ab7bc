// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic maintenance jobs: the access expiry
// sweep and event log pruning.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job names.
const (
	JobSweep       = "access-sweep"
	JobPruneEvents = "prune-events"
)

// jobTimeout bounds one run of any job.
const jobTimeout = 2 * time.Minute

// Sweeper expires students whose access has lapsed.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// EventPruner deletes old event log rows.
type EventPruner interface {
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Config holds the job schedules in cron syntax. An empty schedule keeps
// the job available for manual runs only.
type Config struct {
	SweepSchedule  string
	PruneSchedule  string
	EventRetention time.Duration
}

// Scheduler owns the cron instance and its jobs.
type Scheduler struct {
	cron     *cron.Cron
	registry *Registry
	logger   *slog.Logger
	sweeper  Sweeper
	events   EventPruner
	cfg      Config
}

// New creates a scheduler. Jobs are added by Start.
func New(sweeper Sweeper, events EventPruner, cfg Config, logger *slog.Logger) *Scheduler {
	c := cron.New()
	return &Scheduler{
		cron:     c,
		registry: NewRegistry(c, logger),
		logger:   logger,
		sweeper:  sweeper,
		events:   events,
		cfg:      cfg,
	}
}

// Registry exposes the job list for the admin API.
func (s *Scheduler) Registry() *Registry {
	return s.registry
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if err := s.registry.Add(JobSweep, "Expire students whose access date has passed",
		s.cfg.SweepSchedule, s.sweep); err != nil {
		return err
	}
	if s.cfg.EventRetention > 0 {
		if err := s.registry.Add(JobPruneEvents, "Delete events older than the retention period",
			s.cfg.PruneSchedule, s.pruneEvents); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "category", "system", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped", "category", "system")
}

func (s *Scheduler) sweep() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.sweeper.Sweep(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("scheduled sweep expired students", "category", "access", "count", n)
	}
	return nil
}

func (s *Scheduler) pruneEvents() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.events.DeleteOldEvents(ctx, s.cfg.EventRetention)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("pruned old events", "category", "system", "count", n)
	}
	return nil
}
