// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(zerolog.Nop())
	s.Add("noop", time.Hour, func(ctx context.Context) error { return nil })

	ctx := context.Background()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !s.IsRunning() {
		t.Error("IsRunning() should be true after Start")
	}

	if err := s.Start(ctx); err == nil {
		t.Error("Second Start() should return error")
	}

	s.Stop()
	if s.IsRunning() {
		t.Error("IsRunning() should be false after Stop")
	}

	// Second Stop must be a no-op, not a panic or a hang.
	s.Stop()
}

func TestScheduler_RunsImmediately(t *testing.T) {
	var runs atomic.Int64

	s := New(zerolog.Nop())
	s.Add("immediate", time.Hour, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	// The hour-long interval means any run we observe is the startup run.
	waitFor(t, 2*time.Second, func() bool { return runs.Load() == 1 },
		"job did not run immediately after Start")
}

func TestScheduler_RunsOnInterval(t *testing.T) {
	var runs atomic.Int64

	s := New(zerolog.Nop())
	s.Add("ticking", 20*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	waitFor(t, 2*time.Second, func() bool { return runs.Load() >= 3 },
		"job did not re-arm on its interval")
}

func TestScheduler_StopWaitsForInFlightRun(t *testing.T) {
	started := make(chan struct{})
	var finished atomic.Bool

	s := New(zerolog.Nop())
	s.Add("slow", time.Hour, func(ctx context.Context) error {
		close(started)
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
		return nil
	})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	<-started
	s.Stop()

	if !finished.Load() {
		t.Error("Stop() returned before the in-flight run completed")
	}
}

func TestScheduler_PanicDoesNotKillLoop(t *testing.T) {
	var runs atomic.Int64

	s := New(zerolog.Nop())
	s.Add("panicky", 20*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		panic("boom")
	})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	waitFor(t, 2*time.Second, func() bool { return runs.Load() >= 2 },
		"loop did not survive a panicking handler")
}

func TestScheduler_ErrorDoesNotKillLoop(t *testing.T) {
	var runs atomic.Int64

	s := New(zerolog.Nop())
	s.Add("failing", 20*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("transient failure")
	})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	waitFor(t, 2*time.Second, func() bool { return runs.Load() >= 2 },
		"loop did not survive a failing handler")
}

func TestScheduler_RunTimeoutDerivedFromInterval(t *testing.T) {
	var runs atomic.Int64

	s := New(zerolog.Nop())
	s.Add("blocking", 30*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		<-ctx.Done()
		return ctx.Err()
	})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	// Each run blocks until its per-run timeout fires; seeing a second
	// run proves the timeout released the first.
	waitFor(t, 2*time.Second, func() bool { return runs.Load() >= 2 },
		"per-run timeout did not release a blocked handler")
}

func TestScheduler_ContextCancelStopsJobs(t *testing.T) {
	var runs atomic.Int64

	ctx, cancel := context.WithCancel(context.Background())

	s := New(zerolog.Nop())
	s.Add("canceled", 20*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	waitFor(t, 2*time.Second, func() bool { return runs.Load() >= 1 },
		"job never ran")
	cancel()

	// Let any in-flight tick drain, then verify the loop is dead.
	time.Sleep(60 * time.Millisecond)
	before := runs.Load()
	time.Sleep(100 * time.Millisecond)
	if after := runs.Load(); after != before {
		t.Errorf("job ran %d more times after context cancel", after-before)
	}

	s.Stop()
}

func TestScheduler_AddAfterStartIgnored(t *testing.T) {
	var early, late atomic.Int64

	s := New(zerolog.Nop())
	s.Add("early", time.Hour, func(ctx context.Context) error {
		early.Add(1)
		return nil
	})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	s.Add("late", time.Millisecond, func(ctx context.Context) error {
		late.Add(1)
		return nil
	})

	waitFor(t, 2*time.Second, func() bool { return early.Load() == 1 },
		"registered job never ran")
	time.Sleep(50 * time.Millisecond)

	if late.Load() != 0 {
		t.Errorf("job added after Start ran %d times, want 0", late.Load())
	}
}

func TestScheduler_AddNonPositiveIntervalIgnored(t *testing.T) {
	var runs atomic.Int64

	s := New(zerolog.Nop())
	s.Add("bad", 0, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	s.Stop()

	if runs.Load() != 0 {
		t.Errorf("job with zero interval ran %d times, want 0", runs.Load())
	}
}
