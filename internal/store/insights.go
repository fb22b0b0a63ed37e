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

func insightKey(userID, weekStart string) string {
	return insightKeyPrefix + userID + ":" + weekStart
}

// PutWeeklyInsight stores or replaces the insight for its week. The weekly
// job may legitimately regenerate a week after a backfill changes its data.
func (s *Store) PutWeeklyInsight(ctx context.Context, ins *models.WeeklyInsight) error {
	if ins == nil {
		return errors.New("store: insight cannot be nil")
	}
	if ins.UserID == "" || ins.WeekStart == "" {
		return errors.New("store: insight requires user ID and week start")
	}

	data, err := json.Marshal(ins)
	if err != nil {
		return fmt.Errorf("marshal insight: %w", err)
	}

	return s.set(insightKey(ins.UserID, ins.WeekStart), data)
}

// GetWeeklyInsight retrieves the insight for a specific week start date.
// Returns ErrNotFound when that week was never summarized.
func (s *Store) GetWeeklyInsight(ctx context.Context, userID, weekStart string) (*models.WeeklyInsight, error) {
	var ins models.WeeklyInsight
	err := s.get(insightKey(userID, weekStart), func(val []byte) error {
		return json.Unmarshal(val, &ins)
	})
	if err != nil {
		return nil, err
	}
	return &ins, nil
}

// LatestWeeklyInsight returns the most recent weekly insight for the user.
// Week-start keys are ISO dates, so the lexicographically last key under the
// prefix is the newest week. Returns ErrNotFound when no insight exists yet.
func (s *Store) LatestWeeklyInsight(ctx context.Context, userID string) (*models.WeeklyInsight, error) {
	var ins models.WeeklyInsight
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(insightKeyPrefix + userID + ":")
		var lastKey []byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			lastKey = it.Item().KeyCopy(lastKey)
		}
		if lastKey == nil {
			return nil
		}

		item, err := txn.Get(lastKey)
		if err != nil {
			return fmt.Errorf("get latest insight: %w", err)
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &ins)
		}); err != nil {
			return err
		}
		found = true
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("latest insight: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return &ins, nil
}

// DeleteUserInsights removes every weekly insight for the user and returns
// the number deleted.
func (s *Store) DeleteUserInsights(ctx context.Context, userID string) (int, error) {
	keys, err := s.collectKeys(insightKeyPrefix + userID + ":")
	if err != nil {
		return 0, fmt.Errorf("scan user insights: %w", err)
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
