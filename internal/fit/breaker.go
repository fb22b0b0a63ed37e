// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

package fit

import (
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/abbasaisolutions/notive-health/internal/logging"
	"github.com/abbasaisolutions/notive-health/internal/metrics"
)

const breakerName = "googlefit"

// newBreaker builds the circuit breaker guarding every aggregate call.
// The breaker opens after at least 5 requests with a 60% failure rate,
// waits 30s before probing half-open, and admits 3 probe requests.
//
// Permission-denied responses are an expected per-user condition (missing
// scope grant), not a provider outage, so they never count as failures.
func newBreaker() *gobreaker.CircuitBreaker[*aggregateResponse] {
	metrics.SetBreakerState(breakerName, 0)

	return gobreaker.NewCircuitBreaker[*aggregateResponse](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6

			if shouldTrip {
				log := logging.WithComponent("fit")
				log.Warn().
					Uint32("requests", counts.Requests).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("Opening circuit to Google Fit")
			}

			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			log := logging.WithComponent("fit")
			log.Info().
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("Circuit breaker state transition")

			metrics.SetBreakerState(name, stateToInt(to))
		},

		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrPermissionDenied)
		},
	})
}

// breakerRejected reports whether err means the breaker refused the call
// outright (open circuit or half-open overflow) rather than the call failing.
func breakerRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func stateToInt(state gobreaker.State) int {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
