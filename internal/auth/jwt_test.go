// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func signHS256(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return signed
}

func TestNewJWTManager_EmptySecret(t *testing.T) {
	if _, err := NewJWTManager(""); err == nil {
		t.Error("NewJWTManager(\"\") expected error, got nil")
	}
}

func TestValidateToken_Valid(t *testing.T) {
	m, err := NewJWTManager(testSecret)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	token := signHS256(t, testSecret, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID() != "user-42" {
		t.Errorf("UserID() = %q, want %q", claims.UserID(), "user-42")
	}
}

func TestValidateToken_Rejections(t *testing.T) {
	m, err := NewJWTManager(testSecret)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	expired := signHS256(t, testSecret, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	})
	notYetValid := signHS256(t, testSecret, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(2 * time.Hour)),
			NotBefore: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	wrongSecret := signHS256(t, "ffffffffffffffffffffffffffffffff", &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	noSubject := signHS256(t, testSecret, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	noAlg := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	unsigned, err := noAlg.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString(none) error = %v", err)
	}

	tests := []struct {
		name    string
		token   string
		wantErr string
	}{
		{"expired", expired, "expired"},
		{"not yet valid", notYetValid, "not valid yet"},
		{"wrong secret", wrongSecret, "signature"},
		{"missing subject", noSubject, "no subject"},
		{"none algorithm", unsigned, "unexpected signing method"},
		{"malformed", "not.a.token", "failed to parse"},
		{"empty", "", "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.ValidateToken(tt.token)
			if err == nil {
				t.Fatal("ValidateToken() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateToken() error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}
