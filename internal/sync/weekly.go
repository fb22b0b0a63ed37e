// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abbasaisolutions/notive-health/internal/insights"
	"github.com/abbasaisolutions/notive-health/internal/logging"
	"github.com/abbasaisolutions/notive-health/internal/models"
	"github.com/abbasaisolutions/notive-health/internal/store"
)

// weeklyMarker is the durable store key recording the date of the last
// weekly insight run. It is what keeps a restart near the run boundary
// from skipping or double-running the pass.
const weeklyMarker = "weekly_insights_last_run"

// CheckWeeklyInsights runs the weekly generation pass when today (in the
// sync timezone) is the configured weekly day and the marker shows no run
// for this date yet. The scheduler calls this every check interval.
func (o *Orchestrator) CheckWeeklyInsights(ctx context.Context) error {
	today := o.today()
	if today.Weekday().String() != o.cfg.Insights.WeeklyDay {
		return nil
	}

	todayStr := today.Format(time.DateOnly)
	last, err := o.store.GetMarker(ctx, weeklyMarker)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to read weekly marker: %w", err)
	}
	if last == todayStr {
		o.logger.Debug().Str("date", todayStr).Msg("Weekly insights already generated today")
		return nil
	}

	if err := o.generateWeeklyInsights(ctx, today); err != nil {
		return err
	}
	if err := o.store.PutMarker(ctx, weeklyMarker, todayStr); err != nil {
		return fmt.Errorf("failed to write weekly marker: %w", err)
	}
	return nil
}

// generateWeeklyInsights summarizes the last completed Monday-based week
// for every user with at least Insights.MinDays days of data, persisting
// one WeeklyInsight per qualifying user.
func (o *Orchestrator) generateWeeklyInsights(ctx context.Context, today time.Time) error {
	o.batchMu.Lock()
	defer o.batchMu.Unlock()

	// Walk back to the Monday of the current week, then one more week:
	// the current week is still in progress on the run day.
	daysSinceMonday := (int(today.Weekday()) + 6) % 7
	weekStart := today.AddDate(0, 0, -daysSinceMonday-7)
	weekEnd := weekStart.AddDate(0, 0, 6)
	prevStart := weekStart.AddDate(0, 0, -7)
	prevEnd := weekStart.AddDate(0, 0, -1)

	conns, err := o.store.ListConnections(ctx, models.ProviderGoogleFit)
	if err != nil {
		return fmt.Errorf("failed to list connections: %w", err)
	}

	generated := 0
	for _, conn := range conns {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		user := logging.SanitizeUserID(conn.UserID)

		week, err := o.store.GetDailyRecordRange(ctx, conn.UserID,
			weekStart.Format(time.DateOnly), weekEnd.Format(time.DateOnly))
		if err != nil {
			o.logger.Warn().Err(err).Str("user_id", user).Msg("Failed to load week records")
			continue
		}
		if daysWithData(week) < o.cfg.Insights.MinDays {
			o.logger.Debug().Str("user_id", user).Msg("Too few days with data, skipping weekly insight")
			continue
		}

		prev, err := o.store.GetDailyRecordRange(ctx, conn.UserID,
			prevStart.Format(time.DateOnly), prevEnd.Format(time.DateOnly))
		if err != nil {
			o.logger.Warn().Err(err).Str("user_id", user).Msg("Failed to load previous week, summarizing without deltas")
			prev = nil
		}

		ins := insights.WeeklySummary(conn.UserID, derefRecords(week), derefRecords(prev), weekStart)
		if err := o.store.PutWeeklyInsight(ctx, ins); err != nil {
			o.logger.Error().Err(err).Str("user_id", user).Msg("Failed to persist weekly insight")
			continue
		}
		generated++
	}

	o.logger.Info().
		Int("connections", len(conns)).
		Int("generated", generated).
		Str("week_start", weekStart.Format(time.DateOnly)).
		Msg("Weekly insights generated")
	return nil
}

func daysWithData(records []*models.DailyHealthRecord) int {
	n := 0
	for _, r := range records {
		if r.HasAnyMetric() {
			n++
		}
	}
	return n
}
