// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

package api

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/abbasaisolutions/notive-health/internal/config"
	"github.com/abbasaisolutions/notive-health/internal/logging"
	"github.com/abbasaisolutions/notive-health/internal/models"
	"github.com/abbasaisolutions/notive-health/internal/oauth"
)

// ConnectionProvider is the OAuth surface the handlers need.
// Implemented by oauth.Manager.
type ConnectionProvider interface {
	AuthURL(userID string) (string, error)
	ParseState(raw string) *oauth.StateClaims
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	StoreTokens(ctx context.Context, userID string, tok *oauth2.Token, scopes []string) error
	Disconnect(ctx context.Context, userID string) error
	Status(ctx context.Context, userID string) (*models.ConnectionStatus, error)
}

// SyncProvider is the orchestrator surface the handlers need.
// Implemented by sync.Orchestrator.
type SyncProvider interface {
	SyncUser(ctx context.Context, userID string) bool
	Backfill(ctx context.Context, userID string, days int) int
	PurgeUserData(ctx context.Context, userID string) (int, error)
	ContextForDate(ctx context.Context, userID, date string) (*models.HealthContext, error)
	ContextRange(ctx context.Context, userID, start, end string) ([]*models.HealthContext, error)
	Stats(ctx context.Context, userID string, days int) (*models.HealthStats, error)
	InsightWindow(ctx context.Context, userID string, days int) ([]models.DailyHealthRecord, error)
	LatestWeeklyInsight(ctx context.Context, userID string) (*models.WeeklyInsight, error)
}

// Handler holds the request handlers and their collaborators.
type Handler struct {
	cfg         *config.Config
	connections ConnectionProvider
	sync        SyncProvider
	logger      zerolog.Logger
	security    *logging.SecurityLogger
}

// NewHandler creates the handler set.
func NewHandler(cfg *config.Config, connections ConnectionProvider, syncer SyncProvider) *Handler {
	return &Handler{
		cfg:         cfg,
		connections: connections,
		sync:        syncer,
		logger:      logging.WithComponent("api"),
		security:    logging.NewSecurityLogger(),
	}
}

// Healthz is the liveness probe.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "ok"})
}
