// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

// Package sync orchestrates Google Fit synchronization: per-user syncs,
// scheduled all-user batches, bounded backfill, weekly insight generation,
// and the derived context and stats queries built on stored records.
package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/abbasaisolutions/notive-health/internal/config"
	"github.com/abbasaisolutions/notive-health/internal/logging"
	"github.com/abbasaisolutions/notive-health/internal/metrics"
	"github.com/abbasaisolutions/notive-health/internal/models"
	"github.com/abbasaisolutions/notive-health/internal/oauth"
	"github.com/abbasaisolutions/notive-health/internal/store"
)

// TokenProvider is the slice of the OAuth manager the orchestrator needs:
// usable access tokens for connected users, and disconnect for purges.
type TokenProvider interface {
	ValidToken(ctx context.Context, userID string) (oauth.TokenResult, error)
	Disconnect(ctx context.Context, userID string) error
}

// Fetcher retrieves one normalized day of health data from the provider.
type Fetcher interface {
	FetchDailyData(ctx context.Context, accessToken string, date time.Time) (*models.DailyHealthRecord, error)
}

// Orchestrator drives synchronization between Google Fit and the store.
// Batch operations (SyncAll, Backfill, the weekly pass) are serialized by
// batchMu; run metadata has its own lock so queries never block on a sync.
type Orchestrator struct {
	tokens  TokenProvider
	fetcher Fetcher
	store   *store.Store
	cfg     *config.Config
	loc     *time.Location
	limiter *rate.Limiter
	logger  zerolog.Logger

	batchMu sync.Mutex
	mu      sync.RWMutex
	lastRun time.Time

	now func() time.Time
}

// New creates the orchestrator. Sync.Timezone resolves day boundaries;
// empty selects process-local time.
func New(cfg *config.Config, tokens TokenProvider, fetcher Fetcher, st *store.Store) (*Orchestrator, error) {
	loc := time.Local
	if cfg.Sync.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(cfg.Sync.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid sync timezone %q: %w", cfg.Sync.Timezone, err)
		}
	}

	limit := rate.Inf
	if cfg.Sync.UserDelay > 0 {
		limit = rate.Every(cfg.Sync.UserDelay)
	}

	return &Orchestrator{
		tokens:  tokens,
		fetcher: fetcher,
		store:   st,
		cfg:     cfg,
		loc:     loc,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logging.WithComponent("sync"),
		now:     time.Now,
	}, nil
}

// today returns midnight of the current day in the configured timezone.
func (o *Orchestrator) today() time.Time {
	now := o.now().In(o.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, o.loc)
}

// yesterday is the last complete day, the target of every routine sync.
func (o *Orchestrator) yesterday() time.Time {
	return o.today().AddDate(0, 0, -1)
}

// SyncUser fetches yesterday's data for one user and upserts the record.
// Users without a usable token are skipped, and any fetch or store
// failure is absorbed: the return value reports success, never an error,
// so one user cannot abort a batch.
func (o *Orchestrator) SyncUser(ctx context.Context, userID string) bool {
	user := logging.SanitizeUserID(userID)

	res, err := o.tokens.ValidToken(ctx, userID)
	if err != nil {
		o.logger.Error().Err(err).Str("user_id", user).Msg("Token lookup failed, skipping user")
		metrics.RecordSyncUser("failure")
		return false
	}
	switch res.Status {
	case oauth.TokenNotConnected:
		o.logger.Debug().Str("user_id", user).Msg("User has no Google Fit connection, skipping")
		metrics.RecordSyncUser("skipped")
		return false
	case oauth.TokenAuthExpired:
		o.logger.Info().Str("user_id", user).Msg("Authorization expired, user must reconnect")
		metrics.RecordSyncUser("skipped")
		return false
	}

	day := o.yesterday()
	record, err := o.fetcher.FetchDailyData(ctx, res.AccessToken, day)
	if err != nil {
		o.logger.Warn().Err(err).
			Str("user_id", user).
			Str("date", day.Format(time.DateOnly)).
			Msg("Health data fetch failed")
		metrics.RecordSyncUser("failure")
		return false
	}

	record.UserID = userID
	record.SyncedAt = o.now().UTC()
	if err := o.store.PutDailyRecord(ctx, record); err != nil {
		o.logger.Error().Err(err).Str("user_id", user).Msg("Failed to persist health record")
		metrics.RecordSyncUser("failure")
		return false
	}

	if err := o.touchLastSync(ctx, userID); err != nil {
		o.logger.Warn().Err(err).Str("user_id", user).Msg("Failed to update last-sync marker")
	}

	metrics.RecordSyncUser("success")
	return true
}

// SyncAll syncs every stored connection sequentially with the courtesy
// delay between users. Cancellation stops the batch between users;
// individual failures never short-circuit it.
func (o *Orchestrator) SyncAll(ctx context.Context) models.SyncSummary {
	o.batchMu.Lock()
	defer o.batchMu.Unlock()

	started := time.Now()

	var summary models.SyncSummary
	conns, err := o.store.ListConnections(ctx, models.ProviderGoogleFit)
	if err != nil {
		o.logger.Error().Err(err).Msg("Failed to list connections for sync batch")
		metrics.RecordSyncRun("scheduled", time.Since(started), err)
		return summary
	}

	o.logger.Info().Int("users", len(conns)).Msg("Starting health sync batch")

	for _, conn := range conns {
		if err := o.limiter.Wait(ctx); err != nil {
			o.logger.Warn().Err(err).Msg("Sync batch canceled")
			break
		}
		if o.SyncUser(ctx, conn.UserID) {
			summary.Success++
		} else {
			summary.Failed++
		}
	}

	o.setLastRun(o.now().UTC())
	metrics.RecordSyncRun("scheduled", time.Since(started), nil)
	o.logger.Info().
		Int("success", summary.Success).
		Int("failed", summary.Failed).
		Dur("duration", time.Since(started)).
		Msg("Health sync batch completed")
	return summary
}

// Backfill fetches the window today-days through yesterday for one user
// and returns how many days were stored. The token is resolved once up
// front; per-day failures are logged and skipped. Clamping the day count
// is the HTTP boundary's job, not this method's.
func (o *Orchestrator) Backfill(ctx context.Context, userID string, days int) int {
	if days <= 0 {
		return 0
	}

	o.batchMu.Lock()
	defer o.batchMu.Unlock()

	user := logging.SanitizeUserID(userID)

	res, err := o.tokens.ValidToken(ctx, userID)
	if err != nil {
		o.logger.Error().Err(err).Str("user_id", user).Msg("Token lookup failed, backfill aborted")
		return 0
	}
	if res.Status != oauth.TokenOK {
		o.logger.Info().Str("user_id", user).Msg("Backfill requires an active Google Fit connection")
		return 0
	}

	o.logger.Info().Str("user_id", user).Int("days", days).Msg("Starting backfill")
	metrics.RecordBackfill(days)
	started := time.Now()

	today := o.today()
	processed := 0
	for offset := days; offset >= 1; offset-- {
		if err := o.limiter.Wait(ctx); err != nil {
			o.logger.Warn().Err(err).Str("user_id", user).Msg("Backfill canceled")
			break
		}

		day := today.AddDate(0, 0, -offset)
		record, err := o.fetcher.FetchDailyData(ctx, res.AccessToken, day)
		if err != nil {
			o.logger.Warn().Err(err).
				Str("user_id", user).
				Str("date", day.Format(time.DateOnly)).
				Msg("Backfill day failed, skipping")
			continue
		}

		record.UserID = userID
		record.SyncedAt = o.now().UTC()
		if err := o.store.PutDailyRecord(ctx, record); err != nil {
			o.logger.Error().Err(err).
				Str("user_id", user).
				Str("date", record.Date).
				Msg("Failed to persist backfill record")
			continue
		}
		processed++
	}

	if processed > 0 {
		if err := o.touchLastSync(ctx, userID); err != nil {
			o.logger.Warn().Err(err).Str("user_id", user).Msg("Failed to update last-sync marker")
		}
	}

	metrics.RecordSyncRun("backfill", time.Since(started), nil)
	o.logger.Info().
		Str("user_id", user).
		Int("processed", processed).
		Int("requested", days).
		Msg("Backfill completed")
	return processed
}

// PurgeUserData disconnects the provider and deletes every stored daily
// record and weekly insight for the user. Returns the number of daily
// records removed.
func (o *Orchestrator) PurgeUserData(ctx context.Context, userID string) (int, error) {
	if err := o.tokens.Disconnect(ctx, userID); err != nil {
		return 0, fmt.Errorf("disconnect failed: %w", err)
	}

	deleted, err := o.store.DeleteUserRecords(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete health records: %w", err)
	}
	if _, err := o.store.DeleteUserInsights(ctx, userID); err != nil {
		return deleted, fmt.Errorf("failed to delete weekly insights: %w", err)
	}

	o.logger.Info().
		Str("user_id", logging.SanitizeUserID(userID)).
		Int("records", deleted).
		Msg("User health data purged")
	return deleted, nil
}

// LastSyncTime reports when the last batch finished; zero before any run.
func (o *Orchestrator) LastSyncTime() time.Time {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastRun
}

func (o *Orchestrator) setLastRun(t time.Time) {
	o.mu.Lock()
	o.lastRun = t
	o.mu.Unlock()
}

// touchLastSync stamps the connection's LastSyncAt after a successful sync.
func (o *Orchestrator) touchLastSync(ctx context.Context, userID string) error {
	conn, err := o.store.GetConnection(ctx, models.ProviderGoogleFit, userID)
	if err != nil {
		return err
	}
	ts := o.now().UTC()
	conn.LastSyncAt = &ts
	return o.store.PutConnection(ctx, conn)
}
