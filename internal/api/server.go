// Copyright (c) 2026 SafraReport. All rights reserved.

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/safrareport/safrareport/internal/ads/campaign"
	"github.com/safrareport/safrareport/internal/directory/business"
	"github.com/safrareport/safrareport/internal/market/listing"
	"github.com/safrareport/safrareport/internal/news/article"
	"github.com/safrareport/safrareport/internal/platform/config"
	"github.com/safrareport/safrareport/internal/platform/constants"
	"github.com/safrareport/safrareport/internal/platform/metrics"
	"github.com/safrareport/safrareport/internal/platform/middleware"
	"github.com/safrareport/safrareport/internal/platform/sec"
	"github.com/safrareport/safrareport/internal/system/audit"
	"github.com/safrareport/safrareport/internal/users/account"
	"github.com/safrareport/safrareport/internal/users/auth"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here — no other change to server.go is required.
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Metrics serves the Prometheus scrape endpoint.
	Metrics http.Handler

	// Auth handles both reader and back-office session surfaces.
	Auth *auth.Handler

	// Account handles self-service profiles and the admin roster.
	Account *account.Handler

	// Article handles the public news feed and the editorial desk.
	Article *article.Handler

	// Listing handles the classifieds marketplace.
	Listing *listing.Handler

	// Business handles the local business directory and reviews.
	Business *business.Handler

	// Campaign handles ad serving and campaign management.
	Campaign *campaign.Handler

	// Audit exposes the admin audit trail.
	Audit *audit.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, validator middleware.SessionValidator, collector *metrics.Collector, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(context))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.Metrics(collector))
	r.Use(middleware.Authenticate(validator))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)
	r.Method(http.MethodGet, "/metrics", h.Metrics)

	// # Application API
	// Domain-specific route groups mounted under versioned prefix. Reader
	// surfaces come first; the /admin subtree is the back-office surface and
	// each mount is gated on the admin session pool at the required role.
	r.Route("/api/v1", func(api chi.Router) {
		api.Mount("/auth", h.Auth.Routes())
		api.Mount("/articles", h.Article.Routes())
		api.Mount("/listings", h.Listing.Routes())
		api.Mount("/directory", h.Business.Routes())
		api.Mount("/ads", h.Campaign.Routes())

		api.Group(func(protected chi.Router) {
			protected.Use(middleware.RequireSession)
			protected.Mount("/account", h.Account.Routes())
		})

		api.Route("/admin", func(admin chi.Router) {
			// Session endpoints sit at the subtree root: /admin/login,
			// /admin/logout, /admin/me.
			admin.Mount("/", h.Auth.AdminRoutes())

			admin.Group(func(editorial chi.Router) {
				editorial.Use(middleware.RequireRole(sec.RoleEditor))
				editorial.Mount("/articles", h.Article.AdminRoutes())
			})

			admin.Group(func(moderation chi.Router) {
				moderation.Use(middleware.RequireRole(sec.RoleModerator))
				moderation.Mount("/directory", h.Business.AdminRoutes())
			})

			admin.Group(func(restricted chi.Router) {
				restricted.Use(middleware.RequireRole(sec.RoleAdmin))
				restricted.Mount("/principals", h.Account.AdminRoutes())
				restricted.Mount("/campaigns", h.Campaign.AdminRoutes())
				restricted.Mount("/audit", h.Audit.Routes())
			})
		})
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
