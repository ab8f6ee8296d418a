// Command server runs the presence reconciliation service.
//
// Startup order:
//  1. Load .env (best effort) and environment configuration.
//  2. Configure zerolog (level, optional pretty console output).
//  3. Initialize OpenTelemetry tracing (optional).
//  4. Open the SQLite run-history database and migrate its schema.
//  5. Build the Gin engine and register routes/middleware.
//  6. Start the in-process cron scheduler when RECONCILE_CRON is set.
//  7. Serve HTTP until SIGINT/SIGTERM, then shut down gracefully.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/presencelab/go-presence-sync/internal/baserow"
	"github.com/presencelab/go-presence-sync/internal/config"
	"github.com/presencelab/go-presence-sync/internal/directory"
	httpapi "github.com/presencelab/go-presence-sync/internal/http"
	"github.com/presencelab/go-presence-sync/internal/observability"
	"github.com/presencelab/go-presence-sync/internal/reconcile"
	"github.com/presencelab/go-presence-sync/internal/repo"
	"github.com/presencelab/go-presence-sync/internal/services"
	"github.com/presencelab/go-presence-sync/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	logger := log.With().Str("service", cfg.OTEL.ServiceName).Logger()

	logger.Info().
		Str("version", version).
		Str("port", cfg.Port).
		Str("gin_mode", cfg.GinMode).
		Str("api_base", cfg.APIBasePath).
		Str("cron", cfg.Reconcile.Cron).
		Int("concurrency", cfg.Reconcile.Concurrency).
		Msg("starting presence sync service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing (no-op unless OTEL_ENABLED=true).
	otelShutdown, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		logger.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shCtx); err != nil {
			logger.Warn().Err(err).Msg("otel shutdown failed")
		}
	}()

	// Run-history store.
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open sqlite failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		logger.Fatal().Err(err).Msg("migrate failed")
	}
	if cfg.OTEL.Enabled {
		if err := repo.EnableTracing(db); err != nil {
			logger.Warn().Err(err).Msg("db tracing setup failed")
		}
	}

	// HTTP surface.
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, cfg, logger)

	// Scheduled reconciliation (optional). The cron entry shares the same
	// sync path as the HTTP trigger so every run lands in the history table.
	if cfg.Reconcile.Cron != "" {
		store := baserow.New(cfg.Baserow.BaseURL, cfg.Baserow.Token, cfg.Baserow.TableID, cfg.Reconcile.ClientTimeout, logger)
		dir := directory.New(cfg.Directory.BaseURL, cfg.Directory.Token, cfg.Directory.Domain, cfg.Reconcile.ClientTimeout, logger)
		rec := reconcile.NewService(store, dir, logger)
		rec.Concurrency = cfg.Reconcile.Concurrency
		syncSvc := services.NewSyncService(db, rec, logger)

		c := cron.New()
		_, err := c.AddFunc(cfg.Reconcile.Cron, func() {
			sum, err := syncSvc.Trigger(ctx, "cron")
			if err != nil {
				logger.Error().Err(err).Msg("scheduled reconcile failed")
				return
			}
			logger.Info().
				Int("checked", sum.Checked).
				Int("changed", len(sum.Changed)).
				Int("errored", sum.Errored).
				Int("created", sum.Created).
				Msg("scheduled reconcile finished")
		})
		if err != nil {
			logger.Fatal().Err(err).Str("spec", cfg.Reconcile.Cron).Msg("invalid cron spec")
		}
		c.Start()
		defer c.Stop()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		logger.Error().Err(err).Msg("http server failed")
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("stopped")
}
