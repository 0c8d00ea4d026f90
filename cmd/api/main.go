// Copyright (c) 2026 Aria. All rights reserved.

// Command api is the entry point for the Aria HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool) and Redis.
//  4. Run database migrations (idempotent).
//  5. Subscribe the in-memory cache-document mirror.
//  6. Wire domain services and HTTP handlers.
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

	"github.com/soramiya/aria/internal/api"
	"github.com/soramiya/aria/internal/catalog/album"
	"github.com/soramiya/aria/internal/catalog/cachesync"
	"github.com/soramiya/aria/internal/catalog/character"
	"github.com/soramiya/aria/internal/catalog/game"
	"github.com/soramiya/aria/internal/catalog/music"
	"github.com/soramiya/aria/internal/catalog/staff"
	"github.com/soramiya/aria/internal/platform/blob"
	"github.com/soramiya/aria/internal/platform/config"
	"github.com/soramiya/aria/internal/platform/constants"
	"github.com/soramiya/aria/internal/platform/docstore"
	"github.com/soramiya/aria/internal/platform/migration"
	"github.com/soramiya/aria/internal/platform/mirror"
	"github.com/soramiya/aria/internal/platform/pagecache"
	pgstore "github.com/soramiya/aria/internal/platform/postgres"
	redisstore "github.com/soramiya/aria/internal/platform/redis"
	"github.com/soramiya/aria/internal/platform/sec"
	"github.com/soramiya/aria/internal/revalidate"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
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

	// ── 6. Document store + cache mirror ──────────────────────────────────
	store := docstore.NewPostgresStore(pool)

	cacheMirror := mirror.New(store, rdb, log)
	must(log, cacheMirror.Subscribe(startupCtx, docstore.CacheDocIDs()...), "subscribe cache mirror")
	defer func() {
		if cerr := cacheMirror.Close(); cerr != nil {
			log.Error("mirror close error", slog.Any("error", cerr))
		}
	}()

	propagator := cachesync.NewPropagator(store, cacheMirror, log)
	pages := pagecache.New(rdb, log)

	// ── 7. Object storage (optional) ──────────────────────────────────────
	var blobs *blob.Store
	if cfg.HasBlobStorage() {
		blobs, err = blob.New(startupCtx, cfg, log)
		must(log, err, "connect to object storage")
	} else {
		log.Warn("blob_storage_disabled")
	}

	// ── 8. Token verification ─────────────────────────────────────────────
	verifier, err := sec.NewVerifier(cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "load token verification key")

	// ── 9. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 10. Domain Wiring ─────────────────────────────────────────────────
	gameService := game.NewService(store, propagator, blobs, log)
	characterService := character.NewService(store, propagator, blobs, log)
	musicService := music.NewService(store, propagator, log)
	albumService := album.NewService(store, propagator, blobs, log)
	staffService := staff.NewService(store, propagator, blobs, log)

	handlers := api.Handlers{
		Liveness:   liveness,
		Readiness:  readiness,
		Game:       game.NewHandler(gameService, blobs),
		Character:  character.NewHandler(characterService, blobs),
		Music:      music.NewHandler(musicService),
		Album:      album.NewHandler(albumService, blobs),
		Staff:      staff.NewHandler(staffService, blobs),
		Revalidate: revalidate.NewHandler(pages, log),
	}

	// ── 11. HTTP Server ───────────────────────────────────────────────────
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, verifier, pages, handlers)

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

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
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
