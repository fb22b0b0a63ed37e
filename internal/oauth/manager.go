// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

// Package oauth manages the Google Fit authorization lifecycle: building
// consent URLs, validating callback state, exchanging and refreshing
// tokens, and revoking access on disconnect. Tokens never touch the store
// unencrypted; encryption and decryption go through the vault.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/abbasaisolutions/notive-health/internal/config"
	"github.com/abbasaisolutions/notive-health/internal/logging"
	"github.com/abbasaisolutions/notive-health/internal/metrics"
	"github.com/abbasaisolutions/notive-health/internal/models"
	"github.com/abbasaisolutions/notive-health/internal/store"
	"github.com/abbasaisolutions/notive-health/internal/vault"
)

const (
	// ExpiryBuffer is the safety margin before token expiry. A token whose
	// recorded expiry is within this window is refreshed before use, so
	// callers never receive a token about to die mid-request.
	ExpiryBuffer = 5 * time.Minute

	// DefaultTokenLifetime is assumed when the provider's token response
	// omits an expiry.
	DefaultTokenLifetime = time.Hour

	googleRevokeURL = "https://oauth2.googleapis.com/revoke"

	revokeTimeout = 10 * time.Second
)

// Exchange failures for incomplete provider responses. Partial credentials
// are never stored.
var (
	ErrNoAccessToken  = errors.New("oauth: token response missing access token")
	ErrNoRefreshToken = errors.New("oauth: token response missing refresh token")
)

// TokenStatus classifies the outcome of a token lookup.
type TokenStatus int

const (
	// TokenOK means a usable access token was returned.
	TokenOK TokenStatus = iota
	// TokenNotConnected means the user has no stored connection.
	TokenNotConnected
	// TokenAuthExpired means stored credentials exist but are unusable
	// (refresh rejected or undecryptable). The user must re-authorize.
	TokenAuthExpired
)

// TokenResult carries a token lookup outcome. AccessToken is set only
// when Status is TokenOK.
type TokenResult struct {
	Status      TokenStatus
	AccessToken string
}

// Manager drives the OAuth flow against Google's endpoints.
type Manager struct {
	oauth       *oauth2.Config
	vault       *vault.Vault
	store       *store.Store
	stateSecret []byte
	revokeURL   string
	httpClient  *http.Client
	logger      zerolog.Logger
	security    *logging.SecurityLogger

	// now is the clock; tests swap it to pin expiry arithmetic.
	now func() time.Time
}

// NewManager wires an OAuth manager from the Google Fit config. The state
// secret signs the OAuth state parameter and is shared with the API's JWT
// validation.
func NewManager(cfg config.GoogleFitConfig, stateSecret string, v *vault.Vault, st *store.Store) *Manager {
	return &Manager{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     google.Endpoint,
		},
		vault:       v,
		store:       st,
		stateSecret: []byte(stateSecret),
		revokeURL:   googleRevokeURL,
		httpClient:  &http.Client{Timeout: revokeTimeout},
		logger:      logging.WithComponent("oauth"),
		security:    logging.NewSecurityLogger(),
		now:         time.Now,
	}
}

// AuthURL builds the provider authorization URL for userID. Offline access
// and forced consent are always requested: without forced consent, Google
// omits the refresh token when a previously-authorized user reconnects,
// which silently breaks long-term sync.
func (m *Manager) AuthURL(userID string) (string, error) {
	state, err := m.signState(userID)
	if err != nil {
		return "", err
	}

	return m.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	), nil
}

// Exchange trades an authorization code for tokens in a single round-trip.
// A response missing either token is a hard failure.
func (m *Manager) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := m.oauth.Exchange(ctx, code)
	if err != nil {
		metrics.RecordOAuthOperation("exchange", false)
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}
	if tok.AccessToken == "" {
		metrics.RecordOAuthOperation("exchange", false)
		return nil, ErrNoAccessToken
	}
	if tok.RefreshToken == "" {
		metrics.RecordOAuthOperation("exchange", false)
		return nil, ErrNoRefreshToken
	}

	metrics.RecordOAuthOperation("exchange", true)
	return tok, nil
}

// StoreTokens encrypts both tokens and upserts the user's connection.
// Reconnecting replaces credentials in place; an existing last-sync
// timestamp survives so sync history is not reset by a re-authorization.
func (m *Manager) StoreTokens(ctx context.Context, userID string, tok *oauth2.Token, scopes []string) error {
	if tok == nil || tok.AccessToken == "" {
		return ErrNoAccessToken
	}
	if tok.RefreshToken == "" {
		return ErrNoRefreshToken
	}

	encAccess, err := m.vault.Encrypt(tok.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}
	encRefresh, err := m.vault.Encrypt(tok.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	expiry := tok.Expiry
	if expiry.IsZero() {
		expiry = m.now().Add(DefaultTokenLifetime)
	}

	conn := &models.Connection{
		UserID:       userID,
		Provider:     models.ProviderGoogleFit,
		AccessToken:  encAccess,
		RefreshToken: encRefresh,
		Expiry:       expiry,
		Scopes:       scopes,
		ConnectedAt:  m.now(),
	}
	if existing, err := m.store.GetConnection(ctx, models.ProviderGoogleFit, userID); err == nil {
		conn.LastSyncAt = existing.LastSyncAt
	}

	if err := m.store.PutConnection(ctx, conn); err != nil {
		return fmt.Errorf("failed to store connection: %w", err)
	}

	m.security.LogConnected(userID, models.ProviderGoogleFit, scopes)
	return nil
}

// ValidToken returns a usable access token for userID, refreshing first
// when the stored token expires within ExpiryBuffer. The returned result
// is tagged: TokenNotConnected when no connection exists, TokenAuthExpired
// when credentials are unusable (callers skip the user's sync and the UI
// prompts for re-authorization). The error return is reserved for storage
// faults.
func (m *Manager) ValidToken(ctx context.Context, userID string) (TokenResult, error) {
	conn, err := m.store.GetConnection(ctx, models.ProviderGoogleFit, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return TokenResult{Status: TokenNotConnected}, nil
		}
		return TokenResult{}, fmt.Errorf("failed to load connection: %w", err)
	}

	accessToken, err := m.vault.Decrypt(conn.AccessToken)
	if err != nil {
		m.logger.Warn().Err(err).Str("user_id", logging.SanitizeUserID(userID)).
			Msg("Stored access token is undecryptable, treating connection as expired")
		return TokenResult{Status: TokenAuthExpired}, nil
	}

	if conn.Expiry.After(m.now().Add(ExpiryBuffer)) {
		return TokenResult{Status: TokenOK, AccessToken: accessToken}, nil
	}

	refreshToken, err := m.vault.Decrypt(conn.RefreshToken)
	if err != nil {
		m.logger.Warn().Err(err).Str("user_id", logging.SanitizeUserID(userID)).
			Msg("Stored refresh token is undecryptable, treating connection as expired")
		return TokenResult{Status: TokenAuthExpired}, nil
	}

	// Seeding the source with only the refresh token forces an immediate
	// refresh round-trip.
	src := m.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		metrics.RecordTokenRefresh(false)
		metrics.RecordOAuthOperation("refresh", false)
		m.security.LogTokenRefresh(userID, models.ProviderGoogleFit, false, err.Error())
		return TokenResult{Status: TokenAuthExpired}, nil
	}

	newRefresh := tok.RefreshToken
	if newRefresh == "" {
		newRefresh = refreshToken
	}

	encAccess, err := m.vault.Encrypt(tok.AccessToken)
	if err != nil {
		return TokenResult{}, fmt.Errorf("failed to encrypt refreshed access token: %w", err)
	}
	encRefresh, err := m.vault.Encrypt(newRefresh)
	if err != nil {
		return TokenResult{}, fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	conn.AccessToken = encAccess
	conn.RefreshToken = encRefresh
	conn.Expiry = tok.Expiry
	if conn.Expiry.IsZero() {
		conn.Expiry = m.now().Add(DefaultTokenLifetime)
	}
	if err := m.store.PutConnection(ctx, conn); err != nil {
		return TokenResult{}, fmt.Errorf("failed to persist refreshed tokens: %w", err)
	}

	metrics.RecordTokenRefresh(true)
	metrics.RecordOAuthOperation("refresh", true)
	m.security.LogTokenRefresh(userID, models.ProviderGoogleFit, true, "")
	return TokenResult{Status: TokenOK, AccessToken: tok.AccessToken}, nil
}

// Disconnect revokes the user's access token with the provider on a
// best-effort basis, then deletes the connection unconditionally. Health
// records are retained; the user's historical data is not provider-owned.
// Disconnecting an unconnected user is a no-op.
func (m *Manager) Disconnect(ctx context.Context, userID string) error {
	conn, err := m.store.GetConnection(ctx, models.ProviderGoogleFit, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load connection: %w", err)
	}

	revoked := false
	if accessToken, err := m.vault.Decrypt(conn.AccessToken); err == nil {
		revoked = m.revokeToken(ctx, accessToken)
	} else {
		m.logger.Debug().Err(err).Msg("Skipping revocation, stored token unreadable")
	}
	metrics.RecordOAuthOperation("revoke", revoked)

	if err := m.store.DeleteConnection(ctx, models.ProviderGoogleFit, userID); err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}

	m.security.LogDisconnected(userID, models.ProviderGoogleFit, revoked)
	return nil
}

// revokeToken POSTs to the provider's revocation endpoint. Failures
// (already-revoked tokens, network trouble) are logged at debug and
// swallowed; disconnect proceeds regardless.
func (m *Manager) revokeToken(ctx context.Context, accessToken string) bool {
	form := url.Values{"token": {accessToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		m.logger.Debug().Err(err).Msg("Failed to build revocation request")
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		m.logger.Debug().Err(err).Msg("Token revocation request failed")
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		m.logger.Debug().Int("status", resp.StatusCode).Msg("Provider declined token revocation")
		return false
	}
	return true
}

// Status summarizes the user's connection for the frontend status check.
func (m *Manager) Status(ctx context.Context, userID string) (*models.ConnectionStatus, error) {
	conn, err := m.store.GetConnection(ctx, models.ProviderGoogleFit, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &models.ConnectionStatus{Connected: false}, nil
		}
		return nil, fmt.Errorf("failed to load connection: %w", err)
	}

	return &models.ConnectionStatus{
		Connected:   true,
		ConnectedAt: &conn.ConnectedAt,
		LastSyncAt:  conn.LastSyncAt,
		Scopes:      conn.Scopes,
	}, nil
}
