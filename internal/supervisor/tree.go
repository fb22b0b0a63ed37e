// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

// Package supervisor assembles the suture process tree that keeps the
// service's long-running parts alive. Store maintenance, scheduled jobs,
// and the HTTP listener each live in their own layer, so a restart storm
// in one layer backs off alone while the others keep running.
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig tunes restart behavior for every supervisor in the tree.
type TreeConfig struct {
	FailureThreshold float64       // failures tolerated before backing off (default 5)
	FailureDecay     float64       // seconds over which old failures age out (default 30)
	FailureBackoff   time.Duration // pause once the threshold trips (default 15s)
	ShutdownTimeout  time.Duration // grace period for stopping children (default 10s)
}

// DefaultTreeConfig mirrors suture's documented defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// withDefaults fills zero fields from DefaultTreeConfig.
func (c TreeConfig) withDefaults() TreeConfig {
	d := DefaultTreeConfig()
	if c.FailureThreshold != 0 {
		d.FailureThreshold = c.FailureThreshold
	}
	if c.FailureDecay != 0 {
		d.FailureDecay = c.FailureDecay
	}
	if c.FailureBackoff != 0 {
		d.FailureBackoff = c.FailureBackoff
	}
	if c.ShutdownTimeout != 0 {
		d.ShutdownTimeout = c.ShutdownTimeout
	}
	return d
}

// spec renders the config as a suture.Spec. Only the root carries the
// event hook; children inherit it when added.
func (c TreeConfig) spec(hook suture.EventHook) suture.Spec {
	return suture.Spec{
		EventHook:        hook,
		FailureThreshold: c.FailureThreshold,
		FailureDecay:     c.FailureDecay,
		FailureBackoff:   c.FailureBackoff,
		Timeout:          c.ShutdownTimeout,
	}
}

// Tree is the supervisor hierarchy: a root with three child layers.
//
//	data  — store maintenance (Badger value-log GC)
//	jobs  — the background scheduler (periodic sync, weekly insights)
//	api   — the HTTP server
type Tree struct {
	root   *suture.Supervisor
	data   *suture.Supervisor
	jobs   *suture.Supervisor
	api    *suture.Supervisor
	config TreeConfig
}

// NewTree builds the tree. suture events are reported through logger via
// sutureslog; zero config fields take suture's defaults.
func NewTree(logger *slog.Logger, config TreeConfig) (*Tree, error) {
	config = config.withDefaults()

	// sutureslog.Handler.MustHook has a pointer receiver.
	hook := (&sutureslog.Handler{Logger: logger}).MustHook()

	t := &Tree{
		root:   suture.New("notive-health", config.spec(hook)),
		config: config,
	}
	layer := func(name string) *suture.Supervisor {
		s := suture.New(name, config.spec(nil))
		t.root.Add(s)
		return s
	}
	t.data = layer("data-layer")
	t.jobs = layer("jobs-layer")
	t.api = layer("api-layer")

	return t, nil
}

// Root exposes the root supervisor.
func (t *Tree) Root() *suture.Supervisor {
	return t.root
}

// AddDataService registers svc under the data layer.
func (t *Tree) AddDataService(svc suture.Service) suture.ServiceToken {
	return t.data.Add(svc)
}

// AddJobService registers svc under the jobs layer.
func (t *Tree) AddJobService(svc suture.Service) suture.ServiceToken {
	return t.jobs.Add(svc)
}

// AddAPIService registers svc under the API layer.
func (t *Tree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// Serve runs the tree until ctx is canceled.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in a goroutine. The returned channel
// yields the terminal error (or nil) once the supervisor stops.
func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services still running after the shutdown
// timeout expired.
func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
