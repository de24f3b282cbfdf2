// Command api is the Aegis Notify API server.
//
// Usage:
//
//	aegis-api
//	API_PORT=8080 aegis-api

// @title Aegis Notify API
// @version 1.0.0
// @description Scheduled shift notifications, duplicate cleanup, and usage reset jobs for the security-operations dashboard.
// @host localhost:8000
// @BasePath /
// @schemes http https
// @contact.name ATRA
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/atra-dev/aegis-notify/internal/api"
	"github.com/atra-dev/aegis-notify/internal/clock"
	"github.com/atra-dev/aegis-notify/internal/config"
	"github.com/atra-dev/aegis-notify/internal/db"
	"github.com/atra-dev/aegis-notify/internal/external"
	"github.com/atra-dev/aegis-notify/internal/maintenance"
	"github.com/atra-dev/aegis-notify/internal/notify"
	"github.com/atra-dev/aegis-notify/internal/shift"

	_ "github.com/atra-dev/aegis-notify/docs" // swagger docs
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Resolve the operating timezone once; every job shares it.
	resolver, err := clock.NewResolver(cfg.Timezone)
	if err != nil {
		logger.Error("Failed to resolve timezone", "error", err)
		os.Exit(1)
	}

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Push gateway client (nil when not configured; dispatch degrades to
	// logged no-ops)
	var pusher notify.Pusher
	if ps := external.NewPushService(cfg.PushGatewayURL, cfg.PushGatewayKey); ps != nil {
		pusher = ps
	} else {
		logger.Info("Push delivery disabled (no PUSH_GATEWAY_URL)")
	}

	// Wire the notification pipeline
	store := notify.NewStore(pool.Pool, resolver)
	dispatcher := notify.NewDispatcher(store, pusher, logger)
	orchestrator := shift.NewOrchestrator(store, dispatcher, resolver,
		shift.DefaultRules(cfg.ToleranceMinutes), logger)

	// Start job schedules (shift tick, daily sweep, midnight reset)
	mCfg := maintenance.DefaultConfig()
	mCfg.ShiftTickInterval = cfg.ShiftTickInterval
	mCfg.ReaperLookback = time.Duration(cfg.ReaperLookbackDays) * 24 * time.Hour
	mCfg.DeleteBatchSize = cfg.DeleteBatchSize
	go maintenance.Start(ctx, maintenance.Deps{
		Orchestrator: orchestrator,
		Store:        store,
		Pool:         pool.Pool,
		Clock:        resolver,
		Logger:       logger,
	}, mCfg)

	// Create router
	router := api.NewRouter(pool.Pool, cfg, store, orchestrator, resolver, logger)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Aegis Notify API",
			"addr", addr,
			"environment", cfg.Environment,
			"timezone", cfg.Timezone)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
