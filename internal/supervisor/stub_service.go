// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
)

// StubService is a controllable suture.Service for exercising the tree in
// tests. It can fail a fixed number of times, return a fixed error, or
// park until its context ends.
type StubService struct {
	name     string
	starts   atomic.Int32
	stops    atomic.Int32
	failures atomic.Int32
	result   atomic.Value
}

// NewStubService returns a stub that parks in Serve until canceled.
func NewStubService(name string) *StubService {
	return &StubService{name: name}
}

// FailTimes makes the next n Serve calls return an error before the stub
// settles into parking.
func (s *StubService) FailTimes(n int) {
	s.failures.Store(int32(n))
}

// AlwaysReturn makes every Serve call return err immediately.
func (s *StubService) AlwaysReturn(err error) {
	s.result.Store(err)
}

// Serve implements suture.Service.
func (s *StubService) Serve(ctx context.Context) error {
	s.starts.Add(1)
	defer s.stops.Add(1)

	if s.failures.Add(-1) >= 0 {
		return errors.New("stub failure")
	}
	if v := s.result.Load(); v != nil {
		return v.(error)
	}

	<-ctx.Done()
	return ctx.Err()
}

// Starts reports how many times Serve was entered.
func (s *StubService) Starts() int {
	return int(s.starts.Load())
}

// Stops reports how many times Serve returned.
func (s *StubService) Stops() int {
	return int(s.stops.Load())
}

// String names the stub in suture's event log.
func (s *StubService) String() string {
	return s.name
}
