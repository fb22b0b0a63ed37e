// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

package fit

import (
	"sort"

	"github.com/abbasaisolutions/notive-health/internal/models"
)

// SleepQualityScore scores a night 0-100 from its per-stage minutes.
//
// Components: duration (max 40), deep-sleep share (max 30), REM share
// (max 20), awake share (max 10, a penalty expressed as withheld points).
// Deep and REM percentages are taken against total sleep; the awake
// percentage is taken against time in bed (total + awake).
func SleepQualityScore(total, deep, rem, awake int) int {
	if total <= 0 {
		return 0
	}

	score := 0

	switch {
	case total >= 420 && total <= 540: // 7-9h
		score += 40
	case total >= 360 && total <= 600:
		score += 30
	case total >= 300:
		score += 20
	default:
		score += 10
	}

	deepPct := float64(deep) / float64(total) * 100
	switch {
	case deepPct >= 15 && deepPct <= 25:
		score += 30
	case deepPct >= 10:
		score += 20
	case deepPct >= 5:
		score += 10
	}

	remPct := float64(rem) / float64(total) * 100
	switch {
	case remPct >= 20 && remPct <= 30:
		score += 20
	case remPct >= 15:
		score += 15
	case remPct >= 10:
		score += 10
	}

	awakePct := float64(awake) / float64(total+awake) * 100
	switch {
	case awakePct <= 5:
		score += 10
	case awakePct <= 10:
		score += 5
	}

	return score
}

// SleepQualityBucket maps a 0-100 quality score to its categorical bucket.
func SleepQualityBucket(score int) string {
	switch {
	case score >= 80:
		return models.SleepQualityExcellent
	case score >= 60:
		return models.SleepQualityGood
	case score >= 40:
		return models.SleepQualityFair
	default:
		return models.SleepQualityPoor
	}
}

// ActivityLevel categorizes a day from steps and active minutes. Either
// input may be nil (metric unavailable); both nil means the level itself
// is unknown, which is distinct from "low".
func ActivityLevel(steps, activeMinutes *int) *string {
	if steps == nil && activeMinutes == nil {
		return nil
	}

	score := 0
	if steps != nil {
		switch {
		case *steps >= 10000:
			score += 2
		case *steps >= 5000:
			score++
		}
	}
	if activeMinutes != nil {
		switch {
		case *activeMinutes >= 30:
			score += 2
		case *activeMinutes >= 15:
			score++
		}
	}

	var level string
	switch {
	case score >= 3:
		level = models.ActivityHigh
	case score >= 1:
		level = models.ActivityModerate
	default:
		level = models.ActivityLow
	}
	return &level
}

// restingFromSamples approximates resting heart rate as the mean of the
// lowest 10% of samples (at least one). A statistical proxy, not true
// resting-state detection.
func restingFromSamples(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	n := len(sorted) / 10
	if n < 1 {
		n = 1
	}

	var sum float64
	for _, v := range sorted[:n] {
		sum += v
	}
	return sum / float64(n)
}
