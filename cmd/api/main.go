// Copyright (c) 2026 SafraReport. All rights reserved.

// Command api is the entry point for the SafraReport HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/safrareport/safrareport/internal/ads/campaign"
	"github.com/safrareport/safrareport/internal/api"
	"github.com/safrareport/safrareport/internal/directory/business"
	"github.com/safrareport/safrareport/internal/market/listing"
	"github.com/safrareport/safrareport/internal/news/article"
	"github.com/safrareport/safrareport/internal/platform/config"
	"github.com/safrareport/safrareport/internal/platform/constants"
	"github.com/safrareport/safrareport/internal/platform/metrics"
	"github.com/safrareport/safrareport/internal/platform/migration"
	pgstore "github.com/safrareport/safrareport/internal/platform/postgres"
	redisstore "github.com/safrareport/safrareport/internal/platform/redis"
	"github.com/safrareport/safrareport/internal/platform/sanitize"
	"github.com/safrareport/safrareport/internal/platform/sec"
	"github.com/safrareport/safrareport/internal/system/audit"
	"github.com/safrareport/safrareport/internal/users/account"
	"github.com/safrareport/safrareport/internal/users/auth"
)

// listingSweepInterval is how often overdue classified listings are expired.
const listingSweepInterval = 15 * time.Minute

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "safrareport"))
	slog.SetDefault(log)

	log.Info("[SafraReport] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "safrareport"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Metrics ────────────────────────────────────────────────────────
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// ── 7. Shared Services ────────────────────────────────────────────────
	previewTokens, err := sec.NewPreviewTokenService(cfg.PreviewSecret, constants.PreviewTokenIssuer)
	must(log, err, "initialize preview token service")

	sanitizer := sanitize.New()

	// ── 8. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 9. Domain Wiring ──────────────────────────────────────────────────
	// Audit first: most other services record into the trail.
	auditService := audit.NewService(audit.NewRepository(pool), log)
	auditHandler := audit.NewHandler(auditService)

	authService := auth.NewService(
		auth.NewPrincipalRepository(pool),
		auth.NewSessionRepository(pool),
		auth.NewResetTokenRepository(rdb),
		auth.Policy{
			LockoutThreshold: cfg.LockoutThreshold,
			LockoutDuration:  cfg.LockoutDuration,
			UserSessionTTL:   cfg.UserSessionTTL,
			AdminSessionTTL:  cfg.AdminSessionTTL,
		},
		collector,
	)
	authHandler := auth.NewHandler(authService)

	accountService := account.NewService(
		account.NewAccountRepository(pool),
		account.NewSessionRepository(pool),
		auditService,
		log,
	)
	accountHandler := account.NewHandler(accountService)

	articleService := article.NewService(article.NewRepository(pool), sanitizer, previewTokens, auditService, log)
	articleHandler := article.NewHandler(articleService)

	listingService := listing.NewService(listing.NewRepository(pool), sanitizer, auditService, log)
	listingHandler := listing.NewHandler(listingService)

	businessService := business.NewService(
		business.NewRepository(pool),
		business.NewReviewRepository(pool),
		sanitizer,
		auditService,
		log,
	)
	businessHandler := business.NewHandler(businessService)

	campaignService := campaign.NewService(campaign.NewRepository(pool), auditService, collector, log)
	campaignHandler := campaign.NewHandler(campaignService)

	// ── 10. HTTP Server ───────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Metrics:   metrics.Handler(registry),
		Auth:      authHandler,
		Account:   accountHandler,
		Article:   articleHandler,
		Listing:   listingHandler,
		Business:  businessHandler,
		Campaign:  campaignHandler,
		Audit:     auditHandler,
	}

	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, authService, collector, handlers)

	// ── 11. Background Sweeps ─────────────────────────────────────────────
	go sweepOverdueListings(serverCtx, listingService, log)

	// ── 12. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Stop background sweeps before draining in-flight requests.
	serverCancel()

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// sweepOverdueListings periodically transitions active listings past their
// expiry date. The sweep runs until ctx is cancelled.
func sweepOverdueListings(ctx context.Context, listings *listing.Service, log *slog.Logger) {
	ticker := time.NewTicker(listingSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := listings.ExpireOverdue(ctx); err != nil {
				log.Error("listing_sweep_failed", slog.Any("error", err))
			}
		}
	}
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
