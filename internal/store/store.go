// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

// Package store provides BadgerDB-backed persistence for provider
// connections, daily health records, weekly insights, and job markers.
//
// Key layout:
//
//	conn:<provider>:<userID>      -> models.Connection (JSON)
//	health:<userID>:<YYYY-MM-DD>  -> models.DailyHealthRecord (JSON)
//	insight:<userID>:<YYYY-MM-DD> -> models.WeeklyInsight (JSON, key is week start)
//	marker:<name>                 -> opaque string
//
// Dates in keys are zero-padded ISO strings, so lexicographic key order is
// chronological order and range scans come back sorted.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/abbasaisolutions/notive-health/internal/logging"
)

// ErrNotFound is returned when a requested key does not exist.
var ErrNotFound = errors.New("store: not found")

// Key prefixes for BadgerDB namespacing
const (
	connKeyPrefix    = "conn:"
	recordKeyPrefix  = "health:"
	insightKeyPrefix = "insight:"
	markerKeyPrefix  = "marker:"
)

// gcDiscardRatio is the value-log rewrite threshold passed to Badger GC.
const gcDiscardRatio = 0.5

// Options configures how the store is opened.
type Options struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path string
	// InMemory keeps all data in RAM. Intended for tests.
	InMemory bool
}

// Store is a BadgerDB-backed persistence layer. All methods are safe for
// concurrent use; Badger provides transaction isolation.
type Store struct {
	db       *badger.DB
	inMemory bool
}

// Open opens (or creates) the store at the configured path.
func Open(opts Options) (*Store, error) {
	var badgerOpts badger.Options
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Path == "" {
			return nil, errors.New("store: path is required")
		}
		badgerOpts = badger.DefaultOptions(opts.Path)
		// Tokens and health records are precious; fsync every write.
		badgerOpts.SyncWrites = true
		// Small value log files: the dataset is per-user JSON documents,
		// not bulk media analytics.
		badgerOpts.ValueLogFileSize = 16 << 20 // 16MB
	}
	badgerOpts.Logger = nil // Suppress BadgerDB internal logs

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	log := logging.WithComponent("store")
	log.Info().
		Str("path", opts.Path).
		Bool("in_memory", opts.InMemory).
		Msg("store opened")

	return &Store{db: db, inMemory: opts.InMemory}, nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunGC runs Badger value-log garbage collection on a ticker until the
// context is cancelled. In-memory stores have no value log, so the loop
// just waits for cancellation.
func (s *Store) RunGC(ctx context.Context, interval time.Duration) {
	if s.inMemory {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.gcPass()
		}
	}
}

// gcPass rewrites value log files until Badger reports nothing left to do.
func (s *Store) gcPass() {
	for {
		err := s.db.RunValueLogGC(gcDiscardRatio)
		if err == nil {
			continue
		}
		if !errors.Is(err, badger.ErrNoRewrite) {
			logging.WithComponent("store").Debug().Err(err).Msg("value log GC pass ended")
		}
		return
	}
}

// get loads and unmarshals a single key into dst via the provided decode
// function. Returns ErrNotFound for missing keys.
func (s *Store) get(key string, decode func(val []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		return item.Value(decode)
	})
}

// set stores a marshaled value under key.
func (s *Store) set(key string, data []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// delete removes a key. Deleting a missing key is not an error.
func (s *Store) delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete %s: %w", key, err)
		}
		return nil
	})
}
