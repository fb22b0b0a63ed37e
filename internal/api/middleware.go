// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/abbasaisolutions/notive-health/internal/auth"
	"github.com/abbasaisolutions/notive-health/internal/config"
	"github.com/abbasaisolutions/notive-health/internal/logging"
	"github.com/abbasaisolutions/notive-health/internal/metrics"
)

type contextKey string

const userIDContextKey contextKey = "notive.user_id"

// UserIDFromContext returns the authenticated user ID, or "" when the
// request did not pass the auth middleware.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDContextKey).(string); ok {
		return id
	}
	return ""
}

const requestIDHeader = "X-Request-ID"

// requestID tags each request with an ID, honoring one the caller already
// supplied. The ID is echoed in the response header and threaded into the
// logging context together with a fresh correlation ID. chi's own
// RequestID middleware runs inside the wrapper so chi sees the same value.
func requestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		inner := chimiddleware.RequestID(next)

		fn := func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = logging.GenerateRequestID()
				r.Header.Set(requestIDHeader, id)
			}
			w.Header().Set(requestIDHeader, id)

			ctx := logging.ContextWithNewCorrelationID(
				logging.ContextWithRequestID(r.Context(), id))
			inner.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}

// requestLogger logs one line per completed request. Probe endpoints
// poll frequently and log at debug instead of info.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			ww := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(ww, r)

			event := logger.Info()
			if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
				event = logger.Debug()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.status).
				Dur("duration", time.Since(started)).
				Str("request_id", logging.RequestIDFromContext(r.Context())).
				Msg("Request completed")
		})
	}
}

// prometheusMetrics records per-route request counts, latency, and the
// active-request gauge. The endpoint label uses the chi route pattern so
// path parameters do not explode label cardinality.
func prometheusMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		release := metrics.TrackActiveRequest()
		defer release()

		started := time.Now()
		ww := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(ww, r)

		endpoint := chi.RouteContext(r.Context()).RoutePattern()
		if endpoint == "" {
			endpoint = r.URL.Path
		}
		metrics.RecordAPIRequest(r.Method, endpoint, ww.status, time.Since(started))
	})
}

// corsHandler allows the configured frontend origins. The browser only
// ever calls this service directly during the OAuth redirect dance and
// from the settings page.
func corsHandler(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           86400,
	})
}

// rateLimiter enforces the configured per-IP request budget. Rejections
// use the standard envelope and are counted.
func rateLimiter(cfg config.SecurityConfig) func(http.Handler) http.Handler {
	if cfg.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		cfg.RateLimitReqs,
		cfg.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.RecordRateLimitHit(r.URL.Path)
			NewResponseWriter(w, r).TooManyRequests("Rate limit exceeded, slow down")
		}),
	)
}

// authenticate verifies the bearer token minted by the Notive backend
// and stores the subject user ID in the request context. Requests
// without a valid token never reach the sync core.
func authenticate(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const prefix = "Bearer "

			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, prefix) {
				NewResponseWriter(w, r).Unauthorized("Missing or malformed Authorization header")
				return
			}

			claims, err := jwtManager.ValidateToken(strings.TrimPrefix(header, prefix))
			if err != nil {
				logging.Debug().Err(err).Str("path", r.URL.Path).Msg("Bearer token rejected")
				NewResponseWriter(w, r).Unauthorized("Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDContextKey, claims.UserID())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// statusRecorder captures the response status code for logging and
// metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
