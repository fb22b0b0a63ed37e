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

func connKey(provider, userID string) string {
	return connKeyPrefix + provider + ":" + userID
}

// PutConnection stores or replaces a provider connection. Tokens inside the
// connection must already be encrypted by the vault; the store never sees
// plaintext credentials.
func (s *Store) PutConnection(ctx context.Context, conn *models.Connection) error {
	if conn == nil {
		return errors.New("store: connection cannot be nil")
	}
	if conn.UserID == "" || conn.Provider == "" {
		return errors.New("store: connection requires user ID and provider")
	}

	data, err := json.Marshal(conn)
	if err != nil {
		return fmt.Errorf("marshal connection: %w", err)
	}

	return s.set(connKey(conn.Provider, conn.UserID), data)
}

// GetConnection retrieves a user's connection for a provider.
// Returns ErrNotFound when the user has never connected (or has disconnected).
func (s *Store) GetConnection(ctx context.Context, provider, userID string) (*models.Connection, error) {
	var conn models.Connection
	err := s.get(connKey(provider, userID), func(val []byte) error {
		return json.Unmarshal(val, &conn)
	})
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

// DeleteConnection removes a user's connection for a provider.
// Deleting a connection that does not exist is not an error.
func (s *Store) DeleteConnection(ctx context.Context, provider, userID string) error {
	return s.delete(connKey(provider, userID))
}

// ListConnections returns every stored connection for a provider. The sync
// orchestrator iterates this set on each scheduled run.
func (s *Store) ListConnections(ctx context.Context, provider string) ([]*models.Connection, error) {
	var conns []*models.Connection

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(connKeyPrefix + provider + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()

			var conn models.Connection
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &conn)
			})
			if err != nil {
				return fmt.Errorf("unmarshal connection %s: %w", item.Key(), err)
			}
			conns = append(conns, &conn)
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}

	return conns, nil
}
