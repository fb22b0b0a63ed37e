// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

// Package scheduler runs named background jobs on fixed intervals. Each
// job gets its own goroutine: one immediate run at startup, then a
// ticker. Handler errors and panics are logged and recorded, never
// fatal; durable run-once-per-day semantics belong to the handlers
// themselves (the weekly insight job keeps a marker in the store).
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/abbasaisolutions/notive-health/internal/metrics"
)

type job struct {
	name     string
	interval time.Duration
	handler  func(context.Context) error
}

// Scheduler owns a fixed set of interval jobs. Register with Add before
// Start; the zero value is not usable, construct with New.
type Scheduler struct {
	logger zerolog.Logger

	mu      sync.Mutex
	jobs    []job
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New creates an empty scheduler logging through the given logger.
func New(logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		logger: logger.With().Str("component", "scheduler").Logger(),
	}
}

// Add registers a job. Jobs must be registered before Start; an Add on a
// running scheduler is logged and ignored.
func (s *Scheduler) Add(name string, interval time.Duration, handler func(context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Error().Str("job", name).Msg("Cannot add job to a running scheduler")
		return
	}
	if interval <= 0 {
		s.logger.Error().Str("job", name).Dur("interval", interval).Msg("Job interval must be positive")
		return
	}
	s.jobs = append(s.jobs, job{name: name, interval: interval, handler: handler})
}

// Start launches every registered job: one immediate run, then the
// per-job ticker. Returns an error if the scheduler is already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	jobs := s.jobs
	s.mu.Unlock()

	s.logger.Info().Int("jobs", len(jobs)).Msg("Starting scheduler")

	for _, j := range jobs {
		s.wg.Add(1)
		go s.runJob(ctx, j)
	}
	return nil
}

// Stop halts all job loops and waits for in-flight runs to return. Safe
// to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info().Msg("Scheduler stopped")
}

// IsRunning reports whether Start has been called without a matching Stop.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) runJob(ctx context.Context, j job) {
	defer s.wg.Done()

	s.logger.Info().Str("job", j.name).Dur("interval", j.interval).Msg("Job scheduled")
	s.execute(ctx, j)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.execute(ctx, j)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// execute runs one invocation with a timeout derived from the interval,
// so a wedged handler cannot overlap its own next run indefinitely.
func (s *Scheduler) execute(ctx context.Context, j job) {
	runCtx, cancel := context.WithTimeout(ctx, j.interval)
	defer cancel()

	started := time.Now()
	err := s.invoke(runCtx, j)
	metrics.RecordSchedulerJob(j.name, time.Since(started), err)

	if err != nil {
		s.logger.Error().Err(err).
			Str("job", j.name).
			Dur("duration", time.Since(started)).
			Msg("Scheduled job failed")
		return
	}
	s.logger.Debug().
		Str("job", j.name).
		Dur("duration", time.Since(started)).
		Msg("Scheduled job completed")
}

// invoke isolates panic recovery so execute always records an outcome.
func (s *Scheduler) invoke(ctx context.Context, j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return j.handler(ctx)
}
