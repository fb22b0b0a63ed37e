// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/abbasaisolutions/notive-health/internal/models"
)

func recordKey(userID, date string) string {
	return recordKeyPrefix + userID + ":" + date
}

// PutDailyRecord upserts the health record for its user and date. Re-syncing
// a day replaces the previous snapshot wholesale, which keeps repeated syncs
// idempotent.
func (s *Store) PutDailyRecord(ctx context.Context, rec *models.DailyHealthRecord) error {
	if rec == nil {
		return errors.New("store: record cannot be nil")
	}
	if rec.UserID == "" || rec.Date == "" {
		return errors.New("store: record requires user ID and date")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	return s.set(recordKey(rec.UserID, rec.Date), data)
}

// GetDailyRecord retrieves the record for a single day.
// Returns ErrNotFound when the day has never been synced.
func (s *Store) GetDailyRecord(ctx context.Context, userID, date string) (*models.DailyHealthRecord, error) {
	var rec models.DailyHealthRecord
	err := s.get(recordKey(userID, date), func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetDailyRecordRange returns all records with start <= date <= end, in
// ascending date order. Days that were never synced are simply absent;
// an empty range returns an empty slice, not an error.
func (s *Store) GetDailyRecordRange(ctx context.Context, userID, start, end string) ([]*models.DailyHealthRecord, error) {
	var records []*models.DailyHealthRecord

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(recordKeyPrefix + userID + ":")
		startKey := []byte(recordKey(userID, start))
		endKey := recordKey(userID, end)

		for it.Seek(startKey); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			if string(item.Key()) > endKey {
				break
			}

			var rec models.DailyHealthRecord
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return fmt.Errorf("unmarshal record %s: %w", item.Key(), err)
			}
			records = append(records, &rec)
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("range records: %w", err)
	}

	return records, nil
}

// DeleteUserRecords removes every daily record for the user and returns the
// number of records deleted.
func (s *Store) DeleteUserRecords(ctx context.Context, userID string) (int, error) {
	keys, err := s.collectKeys(recordKeyPrefix + userID + ":")
	if err != nil {
		return 0, fmt.Errorf("scan user records: %w", err)
	}

	count := 0
	for _, key := range keys {
		if err := s.delete(key); err != nil {
			continue
		}
		count++
	}

	return count, nil
}

// collectKeys gathers all keys under a prefix without prefetching values.
func (s *Store) collectKeys(prefix string) ([]string, error) {
	var keys []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			keys = append(keys, string(it.Item().Key()))
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return keys, nil
}
