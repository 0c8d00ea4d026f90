// Copyright (c) 2026 Aria. All rights reserved.

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

	"github.com/soramiya/aria/internal/catalog/album"
	"github.com/soramiya/aria/internal/catalog/character"
	"github.com/soramiya/aria/internal/catalog/game"
	"github.com/soramiya/aria/internal/catalog/music"
	"github.com/soramiya/aria/internal/catalog/staff"
	"github.com/soramiya/aria/internal/platform/config"
	"github.com/soramiya/aria/internal/platform/constants"
	"github.com/soramiya/aria/internal/platform/middleware"
	"github.com/soramiya/aria/internal/platform/pagecache"
	"github.com/soramiya/aria/internal/revalidate"
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

	// Game serves the game catalog.
	Game *game.Handler

	// Character serves the character catalog.
	Character *character.Handler

	// Music serves tracks, the player view, and bulk import.
	Music *music.Handler

	// Album serves the music album catalog.
	Album *album.Handler

	// Staff serves staff members and their credits.
	Staff *staff.Handler

	// Revalidate purges cached page payloads after admin edits.
	Revalidate *revalidate.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
//
// pages may be nil when Redis page caching is disabled; catalog routes are
// then served live on every request.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, pages *pagecache.Cache, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(context))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.Authenticate(verifier))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// # Application API
	// Domain-specific route groups mounted under versioned prefix. Public GET
	// responses are cached by path until the revalidation endpoint purges them.
	r.Route("/api/v1", func(api chi.Router) {
		api.Group(func(catalog chi.Router) {
			if pages != nil {
				catalog.Use(pages.Middleware())
			}
			catalog.Mount("/games", h.Game.Routes())
			catalog.Mount("/characters", h.Character.Routes())
			catalog.Mount("/music", h.Music.Routes())
			catalog.Mount("/music-albums", h.Album.Routes())
			catalog.Mount("/staff", h.Staff.Routes())
		})

		if h.Revalidate != nil {
			api.Mount("/revalidate", h.Revalidate.Routes())
		}
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
