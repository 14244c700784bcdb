// Command api is the Swiss tournament HTTP server.
//
// Usage:
//
//	tournament-api
//	STORE_DRIVER=sqlite API_PORT=8080 tournament-api

// @title Swiss Tournament API
// @version 1.0.0
// @description Registers players, records match results, reports standings and computes Swiss-system pairings for the next round.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
// @license.name MIT
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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/albapepper/swiss-tournament/internal/api"
	"github.com/albapepper/swiss-tournament/internal/bootstrap"
	"github.com/albapepper/swiss-tournament/internal/cache"
	"github.com/albapepper/swiss-tournament/internal/config"
	"github.com/albapepper/swiss-tournament/internal/listener"
	"github.com/albapepper/swiss-tournament/internal/maintenance"
	"github.com/albapepper/swiss-tournament/internal/metrics"
	"github.com/albapepper/swiss-tournament/internal/store"
	"github.com/albapepper/swiss-tournament/internal/tournament"

	_ "github.com/albapepper/swiss-tournament/docs" // swagger docs
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
	if cfg.Debug {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
		slog.SetDefault(logger)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Open record store
	logger.Info("Opening record store...", "driver", cfg.StoreDriver)
	st, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open record store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Initialize cache
	appCache := cache.New(cfg.CacheEnabled)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	svc := tournament.New(st, m, logger, tournament.Options{StrictMatches: cfg.StrictMatches})

	// Create router
	router := api.NewRouter(svc, appCache, m, cfg)

	// Start LISTEN/NOTIFY consumer so writes from other processes purge reads
	if cfg.StoreDriver == config.DriverPostgres && cfg.ListenEnabled {
		go listener.Start(ctx, cfg.DatabaseURL, func(store.Event) {
			appCache.Purge(cache.PrefixStandings)
			appCache.Purge(cache.PrefixPairings)
		}, logger)
	}

	// Start maintenance tickers (tally reconcile)
	if cfg.ReconcileInterval > 0 {
		go maintenance.Start(ctx, svc, maintenance.Config{ReconcileInterval: cfg.ReconcileInterval}, logger)
	}

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
		logger.Info("Starting Swiss Tournament API",
			"addr", addr,
			"environment", cfg.Environment,
			"store", cfg.StoreDriver,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
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
