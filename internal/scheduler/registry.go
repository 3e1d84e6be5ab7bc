// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrJobNotFound is returned by TriggerNow for an unknown job name.
var ErrJobNotFound = errors.New("job not found")

// registeredJob holds a job and the outcome of its last run.
type registeredJob struct {
	name        string
	description string
	schedule    string
	entryID     cron.EntryID
	run         func() error

	mu        sync.Mutex
	running   bool
	lastRun   time.Time
	lastError string
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Schedule    string    `json:"schedule"`
	LastRun     time.Time `json:"last_run,omitzero"`
	LastError   string    `json:"last_error,omitempty"`
	NextRun     time.Time `json:"next_run,omitzero"`
}

// Registry tracks the jobs of one cron instance and lets coaches run a
// job immediately.
type Registry struct {
	cron   *cron.Cron
	logger *slog.Logger
	now    func() time.Time
	mu     sync.RWMutex
	jobs   map[string]*registeredJob
}

// NewRegistry creates a registry for jobs added to c.
func NewRegistry(c *cron.Cron, logger *slog.Logger) *Registry {
	return &Registry{
		cron:   c,
		logger: logger,
		now:    time.Now,
		jobs:   make(map[string]*registeredJob),
	}
}

// Add schedules run on the cron instance under name. An empty schedule
// registers the job for manual runs only.
func (r *Registry) Add(name, description, schedule string, run func() error) error {
	job := &registeredJob{
		name:        name,
		description: description,
		schedule:    schedule,
		run:         run,
	}

	if schedule != "" {
		id, err := r.cron.AddFunc(schedule, func() { r.execute(job) })
		if err != nil {
			return err
		}
		job.entryID = id
	}

	r.mu.Lock()
	r.jobs[name] = job
	r.mu.Unlock()

	r.logger.Debug("registered scheduled job", "category", "system", "name", name, "schedule", schedule)
	return nil
}

// execute runs job unless a previous run is still in progress and records
// the outcome.
func (r *Registry) execute(job *registeredJob) error {
	job.mu.Lock()
	if job.running {
		job.mu.Unlock()
		r.logger.Debug("job still running, skipped", "category", "system", "name", job.name)
		return nil
	}
	job.running = true
	job.mu.Unlock()

	start := r.now()
	err := job.run()

	job.mu.Lock()
	job.running = false
	job.lastRun = start
	job.lastError = ""
	if err != nil {
		job.lastError = err.Error()
	}
	job.mu.Unlock()

	if err != nil {
		r.logger.Error("scheduled job failed", "category", "system", "name", job.name, "error", err)
	}
	return err
}

// List returns the registered jobs sorted by name.
func (r *Registry) List() []JobInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]JobInfo, 0, len(r.jobs))
	for _, job := range r.jobs {
		job.mu.Lock()
		info := JobInfo{
			Name:        job.name,
			Description: job.description,
			Schedule:    job.schedule,
			LastRun:     job.lastRun,
			LastError:   job.lastError,
		}
		job.mu.Unlock()

		if job.entryID != 0 {
			info.NextRun = r.cron.Entry(job.entryID).Next
		}
		result = append(result, info)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// TriggerNow runs a job synchronously.
func (r *Registry) TriggerNow(name string) error {
	r.mu.RLock()
	job, ok := r.jobs[name]
	r.mu.RUnlock()

	if !ok {
		return ErrJobNotFound
	}

	r.logger.Info("manually triggering job", "category", "system", "name", name)
	return r.execute(job)
}
