// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

package insights

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/abbasaisolutions/notive-health/internal/models"
)

// deltaThreshold is the week-over-week percentage change below which a
// metric is classified as stable.
const deltaThreshold = 10.0

// WeeklySummary builds the weekly insight for one user from a completed
// week of records and the week before it. weekStart must be the Monday
// of the summarized week; prev may be empty when the user is new.
func WeeklySummary(userID string, week, prev []models.DailyHealthRecord, weekStart time.Time) *models.WeeklyInsight {
	insight := &models.WeeklyInsight{
		UserID:           userID,
		WeekStart:        weekStart.Format(time.DateOnly),
		GeneratedAt:      time.Now().UTC(),
		DaysWithData:     countWithData(week),
		AvgSleepMinutes:  roundAvg(avgOf(week, sleepMinutes)),
		AvgSteps:         roundAvg(avgOf(week, steps)),
		AvgActiveMinutes: roundAvg(avgOf(week, activeMinutes)),
	}
	insight.BestSleepDate, insight.WorstSleepDate = bestWorstSleep(week)

	for _, m := range []struct {
		name string
		f    extractor
	}{
		{"sleep_minutes", sleepMinutes},
		{"steps", steps},
		{"active_minutes", activeMinutes},
	} {
		if d := deltaFor(m.name, week, prev, m.f); d != nil {
			insight.Deltas = append(insight.Deltas, *d)
		}
	}

	insight.Highlights = weeklyHighlights(insight)
	return insight
}

// deltaFor compares one metric's weekly averages. A metric absent from
// the current week produces no delta; a missing or zero previous average
// leaves PercentChange nil and the classification stable.
func deltaFor(metric string, week, prev []models.DailyHealthRecord, f extractor) *models.MetricDelta {
	cur := avgOf(week, f)
	if cur == nil {
		return nil
	}

	delta := &models.MetricDelta{
		Metric:         metric,
		CurrentAvg:     round1(*cur),
		Classification: models.TrendStable,
	}

	prevAvg := avgOf(prev, f)
	if prevAvg == nil || *prevAvg == 0 {
		return delta
	}
	delta.PreviousAvg = roundAvg(prevAvg)

	pc := round1((*cur - *prevAvg) / *prevAvg * 100)
	delta.PercentChange = &pc
	switch {
	case pc > deltaThreshold:
		delta.Classification = models.TrendImproving
	case pc < -deltaThreshold:
		delta.Classification = models.TrendDeclining
	}
	return delta
}

// bestWorstSleep picks the dates with the longest and shortest sleep.
// Ties keep the earliest date; weeks without sleep data return empty
// strings.
func bestWorstSleep(week []models.DailyHealthRecord) (best, worst string) {
	bestMin, worstMin := -1, -1
	for i := range week {
		r := &week[i]
		if r.SleepMinutes == nil {
			continue
		}
		m := *r.SleepMinutes
		if bestMin == -1 || m > bestMin {
			bestMin, best = m, r.Date
		}
		if worstMin == -1 || m < worstMin {
			worstMin, worst = m, r.Date
		}
	}
	return best, worst
}

func weeklyHighlights(w *models.WeeklyInsight) []string {
	var hs []string

	if w.AvgSleepMinutes != nil {
		hs = append(hs, fmt.Sprintf("You averaged %s of sleep per tracked night.",
			formatMinutes(*w.AvgSleepMinutes)))
	}

	for _, d := range w.Deltas {
		if d.PercentChange == nil || math.Abs(*d.PercentChange) < deltaThreshold {
			continue
		}
		direction := "up"
		if *d.PercentChange < 0 {
			direction = "down"
		}
		label := metricLabels[d.Metric]
		hs = append(hs, fmt.Sprintf("%s %s %.1f%% from the previous week.",
			capitalize(label), direction, math.Abs(*d.PercentChange)))
	}

	if w.BestSleepDate != "" && w.BestSleepDate != w.WorstSleepDate {
		hs = append(hs, fmt.Sprintf("Your best sleep was on %s.", w.BestSleepDate))
	}

	return hs
}

// formatMinutes renders a minute count as "7h 45m".
func formatMinutes(v float64) string {
	total := int(math.Round(v))
	return fmt.Sprintf("%dh %02dm", total/60, total%60)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func roundAvg(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := round1(*v)
	return &r
}
