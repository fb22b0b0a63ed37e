// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

package oauth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// StateValidity bounds how long an issued OAuth state parameter stays
// acceptable. A callback arriving later than this is rejected even with a
// valid signature.
const StateValidity = 5 * time.Minute

// StateClaims is the payload round-tripped through the OAuth state
// parameter. It ties the provider callback back to the user who started
// the flow.
type StateClaims struct {
	UserID   string
	IssuedAt time.Time
}

// stateToken is the JWT shape of the state parameter. The user ID rides
// in the subject claim.
type stateToken struct {
	jwt.RegisteredClaims
}

// signState mints a signed, URL-safe state parameter for userID.
func (m *Manager) signState(userID string) (string, error) {
	now := m.now()
	claims := &stateToken{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.stateSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign state: %w", err)
	}
	return signed, nil
}

// ParseState decodes and verifies a state parameter from a provider
// callback. It returns nil when the signature is invalid, the payload is
// malformed, or the state is older than StateValidity. Callers must treat
// nil as "reject the callback"; no connection may be created from it.
func (m *Manager) ParseState(raw string) *StateClaims {
	token, err := jwt.ParseWithClaims(raw, &stateToken{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.stateSecret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil
	}

	claims, ok := token.Claims.(*stateToken)
	if !ok || !token.Valid {
		return nil
	}
	if claims.Subject == "" || claims.IssuedAt == nil {
		return nil
	}
	if m.now().Sub(claims.IssuedAt.Time) > StateValidity {
		return nil
	}

	return &StateClaims{
		UserID:   claims.Subject,
		IssuedAt: claims.IssuedAt.Time,
	}
}
