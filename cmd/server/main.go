// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

// The notive-health server connects Notive journaling accounts to Google
// Fit. Users authorize access via OAuth, a background scheduler pulls
// their daily sleep, activity, and heart-rate data, and the HTTP API
// serves the stored records back to the Notive backend as per-day health
// context, windowed statistics, correlation insights, and weekly
// summaries.
//
// # Wiring
//
// Startup assembles components in dependency order: configuration (Koanf
// layers: defaults, optional YAML, NOTIVE_* environment), the Badger
// store, the token vault (AES-GCM keyed via HKDF-SHA256), the OAuth
// manager, the Google Fit client, the sync orchestrator, the job
// scheduler, and finally the chi HTTP server. Everything long-running
// then goes under a suture supervisor tree with separate data, jobs, and
// api layers so failures restart in isolation.
//
// # Required environment
//
//	NOTIVE_JWT_SECRET               32+ chars, verifies API bearer tokens
//	NOTIVE_ENCRYPTION_SECRET        32+ chars, vault master secret
//	NOTIVE_GOOGLEFIT_CLIENT_ID      OAuth client (when integration enabled)
//	NOTIVE_GOOGLEFIT_CLIENT_SECRET
//	NOTIVE_GOOGLEFIT_REDIRECT_URL
//
// A config file can be supplied with --config, NOTIVE_CONFIG, or as
// config.yaml in the working directory or /etc/notive/.
//
// # Shutdown
//
// SIGINT and SIGTERM cancel the root context. The HTTP server drains
// in-flight requests, the scheduler waits for running jobs, and the store
// flushes and closes before the process exits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/abbasaisolutions/notive-health/internal/api"
	"github.com/abbasaisolutions/notive-health/internal/auth"
	"github.com/abbasaisolutions/notive-health/internal/config"
	"github.com/abbasaisolutions/notive-health/internal/fit"
	"github.com/abbasaisolutions/notive-health/internal/logging"
	"github.com/abbasaisolutions/notive-health/internal/oauth"
	"github.com/abbasaisolutions/notive-health/internal/scheduler"
	"github.com/abbasaisolutions/notive-health/internal/store"
	"github.com/abbasaisolutions/notive-health/internal/supervisor"
	"github.com/abbasaisolutions/notive-health/internal/sync"
	"github.com/abbasaisolutions/notive-health/internal/vault"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Default logger; config (and its logging settings) never loaded.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("store_path", cfg.Store.Path).
		Bool("googlefit_enabled", cfg.GoogleFit.Enabled).
		Msg("Starting Notive health sync service")

	st, err := store.Open(store.Options{
		Path:     cfg.Store.Path,
		InMemory: cfg.Store.InMemory,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()

	tokenVault, err := vault.New(cfg.Security.EncryptionSecret)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize token vault")
	}
	if err := tokenVault.ValidateSetup(); err != nil {
		logging.Fatal().Err(err).Msg("Token vault self-check failed")
	}

	jwtManager, err := auth.NewJWTManager(cfg.Security.JWTSecret)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}

	// The OAuth state parameter is a short-lived JWT signed with the same
	// secret as the API bearer tokens.
	oauthManager := oauth.NewManager(cfg.GoogleFit, cfg.Security.JWTSecret, tokenVault, st)
	fitClient := fit.NewClient(cfg.GoogleFit)

	orchestrator, err := sync.New(cfg, oauthManager, fitClient, st)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create sync orchestrator")
	}

	sched := scheduler.New(logging.Logger())
	registerJobs(sched, cfg, orchestrator)

	handler := api.NewHandler(cfg, oauthManager, orchestrator)
	router := api.NewRouter(cfg, handler, jwtManager)
	server := api.NewServer(cfg.Server, router.Setup())

	treeConfig := supervisor.DefaultTreeConfig()
	treeConfig.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree, err := supervisor.NewTree(logging.NewSlogLogger(), treeConfig)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddDataService(supervisor.NewStoreGCService(st, cfg.Store.GCInterval))
	if cfg.GoogleFit.Enabled {
		tree.AddJobService(supervisor.NewSchedulerService(sched))
	}
	tree.AddAPIService(supervisor.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("API service registered")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-signals
		logging.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		cancel()
	}()

	runTree(ctx, tree)
	logging.Info().Msg("Notive health sync stopped")
}

// registerJobs wires the background work onto the scheduler: the periodic
// sync pass over all connected users and the daily check that decides
// whether weekly insights are due. Nothing is scheduled when the Google
// Fit integration is off.
func registerJobs(sched *scheduler.Scheduler, cfg *config.Config, orchestrator *sync.Orchestrator) {
	if !cfg.GoogleFit.Enabled {
		logging.Warn().Msg("Google Fit integration disabled; background sync jobs not scheduled")
		return
	}

	sched.Add("health-sync", cfg.Sync.Interval, func(ctx context.Context) error {
		summary := orchestrator.SyncAll(ctx)
		if summary.Failed > 0 {
			return fmt.Errorf("%d of %d users failed to sync",
				summary.Failed, summary.Success+summary.Failed)
		}
		return nil
	})
	sched.Add("weekly-insights", cfg.Insights.CheckInterval, orchestrator.CheckWeeklyInsights)
}

// runTree serves the supervisor tree until ctx is canceled, drains the
// error channel so late failures still get logged, and names anything
// that refused to stop inside the shutdown timeout.
func runTree(ctx context.Context, tree *supervisor.Tree) {
	logging.Info().Msg("Supervision starting")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown requested, stopping supervised services")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor exited early")
		}
	}

	// ServeBackground closes the channel once every service has stopped.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Error during supervisor shutdown")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service did not stop within the timeout")
	}
}
