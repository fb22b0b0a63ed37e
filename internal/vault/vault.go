// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

// Package vault encrypts OAuth credentials before they reach the store.
//
// The scheme is AES-256-GCM with a fresh 12-byte nonce per call; the key
// is derived from the configured secret with HKDF-SHA256, so the secret
// itself is never used as key material. Ciphertexts serialize as
// hex(nonce) + ":" + hex(sealed), and the random nonce makes repeated
// encryptions of the same plaintext produce different ciphertexts.
//
// Every decryption failure is a sentinel the caller must treat as
// "credentials unusable, re-authorize". None of them are retryable.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// HKDF salt and info bind derived keys to this service's token encryption,
// so the same secret used elsewhere yields unrelated keys.
const (
	hkdfSalt = "notive-health-credentials"
	hkdfInfo = "token-vault-v1"

	keyLen    = 32 // AES-256
	nonceLen  = 12 // standard GCM nonce
	minSecret = 32 // shortest accepted configured secret
)

// Sentinel errors returned by New, Encrypt, and Decrypt. Decrypt
// distinguishes malformed input (ErrInvalidCiphertext,
// ErrCiphertextTooShort) from authentication failure (ErrDecryptionFailed),
// which covers both tampering and a rotated secret.
var (
	ErrEmptySecret        = errors.New("encryption secret cannot be empty")
	ErrWeakSecret         = errors.New("encryption secret must be at least 32 bytes")
	ErrEmptyPlaintext     = errors.New("plaintext cannot be empty")
	ErrEmptyCiphertext    = errors.New("ciphertext cannot be empty")
	ErrInvalidCiphertext  = errors.New("invalid ciphertext format")
	ErrCiphertextTooShort = errors.New("ciphertext too short")
	ErrDecryptionFailed   = errors.New("decryption failed: invalid ciphertext or authentication tag")
)

// Vault seals and opens OAuth tokens with AES-256-GCM.
type Vault struct {
	aead cipher.AEAD
}

// New derives the cipher key from secret and returns a ready Vault.
func New(secret string) (*Vault, error) {
	switch {
	case secret == "":
		return nil, ErrEmptySecret
	case len(secret) < minSecret:
		return nil, ErrWeakSecret
	}

	kdf := hkdf.New(sha256.New, []byte(secret), []byte(hkdfSalt), []byte(hkdfInfo))
	key := make([]byte, keyLen)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init GCM: %w", err)
	}

	return &Vault{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh nonce and returns
// hex(nonce) + ":" + hex(sealed).
func (v *Vault) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPlaintext
	}

	nonce := make([]byte, nonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := v.aead.Seal(nil, nonce, []byte(plaintext), nil)

	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(sealed), nil
}

// Decrypt opens a ciphertext produced by Encrypt.
func (v *Vault) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", ErrEmptyCiphertext
	}

	nonceHex, payloadHex, ok := strings.Cut(ciphertext, ":")
	if !ok {
		return "", fmt.Errorf("%w: no nonce separator", ErrInvalidCiphertext)
	}

	nonce, err := hex.DecodeString(nonceHex)
	if err != nil || len(nonce) != nonceLen {
		return "", fmt.Errorf("%w: bad nonce", ErrInvalidCiphertext)
	}
	payload, err := hex.DecodeString(payloadHex)
	if err != nil {
		return "", fmt.Errorf("%w: bad payload", ErrInvalidCiphertext)
	}

	// At least one plaintext byte under the GCM tag.
	if len(payload) <= v.aead.Overhead() {
		return "", ErrCiphertextTooShort
	}

	plaintext, err := v.aead.Open(nil, nonce, payload, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// MaskCredential renders a credential safe for display: everything but the
// last four characters replaced with asterisks.
func MaskCredential(credential string) string {
	switch {
	case credential == "":
		return ""
	case len(credential) <= 4:
		return "****"
	default:
		return "****..." + credential[len(credential)-4:]
	}
}

// ValidateSetup round-trips a probe value through the cipher. main runs it
// once at startup so a broken secret fails the boot rather than the first
// token exchange.
func (v *Vault) ValidateSetup() error {
	const probe = "vault-self-check"

	sealed, err := v.Encrypt(probe)
	if err != nil {
		return fmt.Errorf("self-check encrypt: %w", err)
	}
	opened, err := v.Decrypt(sealed)
	if err != nil {
		return fmt.Errorf("self-check decrypt: %w", err)
	}
	if opened != probe {
		return errors.New("self-check round-trip mismatch")
	}
	return nil
}
