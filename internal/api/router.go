// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

package api

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abbasaisolutions/notive-health/internal/auth"
	"github.com/abbasaisolutions/notive-health/internal/config"
	"github.com/abbasaisolutions/notive-health/internal/logging"
)

// Router wires the handlers into the chi route tree.
type Router struct {
	cfg     *config.Config
	handler *Handler
	jwt     *auth.JWTManager
}

// NewRouter creates a router over the given handler set.
func NewRouter(cfg *config.Config, handler *Handler, jwtManager *auth.JWTManager) *Router {
	return &Router{
		cfg:     cfg,
		handler: handler,
		jwt:     jwtManager,
	}
}

// Setup builds the full route tree.
//
// Global middleware order matters: the request ID must exist before the
// logger reads it, recovery must sit inside logging so panics still get
// a request line, and CORS must be global to catch OPTIONS preflights.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID())
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(logging.WithComponent("http")))
	r.Use(chimiddleware.Recoverer)
	r.Use(corsHandler(rt.cfg.Security.CORSOrigins))

	// Probe and scrape endpoints stay outside the rate-limited API tree.
	r.Get("/healthz", rt.handler.Healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(rateLimiter(rt.cfg.Security))
		r.Use(prometheusMetrics)

		// The OAuth callback is a browser redirect from Google and
		// carries no bearer token; the signed state parameter is its
		// authentication.
		r.Get("/google-fit/callback", rt.handler.Callback)

		r.Group(func(r chi.Router) {
			r.Use(authenticate(rt.jwt))

			r.Get("/google-fit/status", rt.handler.ConnectionStatus)
			r.Get("/google-fit/connect", rt.handler.Connect)
			r.Post("/google-fit/disconnect", rt.handler.Disconnect)

			r.Get("/context/range", rt.handler.HealthContextRange)
			r.Get("/context/{date}", rt.handler.HealthContext)
			r.Get("/stats", rt.handler.HealthStats)
			r.Get("/insights", rt.handler.Insights)
			r.Get("/weekly-summary", rt.handler.WeeklySummary)

			r.Post("/sync", rt.handler.SyncNow)
			r.Post("/backfill", rt.handler.Backfill)
			r.Delete("/data", rt.handler.PurgeData)
		})
	})

	return r
}

// NewServer builds the http.Server around the routed handler using the
// configured timeouts.
func NewServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}
}
