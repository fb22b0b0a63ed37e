// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// HTTPServer matches *http.Server's lifecycle methods so the wrapper can
// be tested without binding a real listener.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService adapts an HTTP server's blocking ListenAndServe to
// suture's context-aware Serve: the listener runs in a goroutine and a
// context cancellation triggers a bounded graceful Shutdown.
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
}

// NewHTTPServerService wraps an HTTP server as a supervised service. The
// shutdownTimeout bounds how long active connections get to drain.
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service. http.ErrServerClosed is the expected
// result of Shutdown and is not treated as a failure.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	listenErr := make(chan error, 1)
	go func() {
		listenErr <- h.server.ListenAndServe()
	}()

	select {
	case err := <-listenErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http listener exited: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	return h.drain(ctx, listenErr)
}

// drain gives in-flight requests shutdownTimeout to finish once the serve
// context has ended. The deadline lives on a fresh context because ctx is
// already canceled.
func (h *HTTPServerService) drain(ctx context.Context, listenErr <-chan error) error {
	stopCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()

	if err := h.server.Shutdown(stopCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	<-listenErr
	return ctx.Err()
}

func (h *HTTPServerService) String() string { return "http-server" }

// JobScheduler matches the scheduler's Start/Stop lifecycle.
//
// Satisfied by *scheduler.Scheduler.
type JobScheduler interface {
	Start(ctx context.Context) error
	Stop()
}

// SchedulerService adapts the Start/Stop job scheduler to suture's Serve
// pattern. Stop waits for in-flight job runs, so a Serve return means the
// jobs have fully drained.
type SchedulerService struct {
	scheduler JobScheduler
}

// NewSchedulerService wraps the background job scheduler as a supervised
// service.
func NewSchedulerService(scheduler JobScheduler) *SchedulerService {
	return &SchedulerService{scheduler: scheduler}
}

// Serve implements suture.Service. A Start failure is returned so suture
// can restart with backoff.
func (s *SchedulerService) Serve(ctx context.Context) error {
	if err := s.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("starting job scheduler: %w", err)
	}

	<-ctx.Done()

	s.scheduler.Stop()
	return ctx.Err()
}

func (s *SchedulerService) String() string { return "job-scheduler" }

// GCStore matches the store's value-log garbage collection loop.
//
// Satisfied by *store.Store.
type GCStore interface {
	RunGC(ctx context.Context, interval time.Duration)
}

// StoreGCService runs the store's GC loop as a supervised service so a GC
// panic gets the same restart-with-backoff treatment as everything else.
type StoreGCService struct {
	store    GCStore
	interval time.Duration
}

// NewStoreGCService wraps the store GC loop. Non-positive intervals fall
// back to five minutes.
func NewStoreGCService(store GCStore, interval time.Duration) *StoreGCService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &StoreGCService{store: store, interval: interval}
}

// Serve implements suture.Service. RunGC blocks until the context ends.
func (g *StoreGCService) Serve(ctx context.Context) error {
	g.store.RunGC(ctx, g.interval)
	return ctx.Err()
}

func (g *StoreGCService) String() string { return "store-gc" }
