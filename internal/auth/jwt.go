// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

// Package auth validates the bearer tokens issued by the main Notive
// backend. This service never issues session tokens of its own; it only
// verifies signatures and extracts the user ID from the subject claim.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the JWT claims this service cares about. The Notive backend
// puts the user ID in the registered subject claim.
type Claims struct {
	jwt.RegisteredClaims
}

// UserID returns the authenticated user's ID (the subject claim).
func (c *Claims) UserID() string {
	return c.Subject
}

// JWTManager validates HS256 tokens against the shared secret.
type JWTManager struct {
	secret []byte
}

// NewJWTManager creates a token validator for the given shared secret.
// The secret must match the one the Notive backend signs with; length
// requirements are enforced at config load.
func NewJWTManager(secret string) (*JWTManager, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required but was empty")
	}

	return &JWTManager{secret: []byte(secret)}, nil
}

// keyFunc pins the signing method to HMAC, so a token declaring RS256 or
// "none" fails before signature verification (algorithm confusion).
func (m *JWTManager) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return m.secret, nil
}

// ValidateToken verifies a token's signature, expiry, and not-before
// window, and returns its claims. Tokens without a subject are rejected:
// every authenticated request must resolve to a user.
func (m *JWTManager) ValidateToken(raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, m.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
