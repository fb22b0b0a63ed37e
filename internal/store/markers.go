// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

package store

import (
	"context"
)

// PutMarker stores a small opaque string under a named key. The scheduler
// uses markers to remember when durable jobs (like the weekly insight run)
// last completed, so restarts do not repeat or skip a run.
func (s *Store) PutMarker(ctx context.Context, name, value string) error {
	return s.set(markerKeyPrefix+name, []byte(value))
}

// GetMarker retrieves a named marker. Returns ErrNotFound when the marker
// has never been written.
func (s *Store) GetMarker(ctx context.Context, name string) (string, error) {
	var value string
	err := s.get(markerKeyPrefix+name, func(val []byte) error {
		value = string(val)
		return nil
	})
	if err != nil {
		return "", err
	}
	return value, nil
}
