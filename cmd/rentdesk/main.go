package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentdesk/internal/app/outbox"
	"rentdesk/internal/app/service"
	"rentdesk/internal/infra/config"
	"rentdesk/internal/infra/fixtures"
	ginserver "rentdesk/internal/infra/http/gin"
	"rentdesk/internal/infra/jobs"
	"rentdesk/internal/infra/obs"
	"rentdesk/internal/infra/security"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) == 3 && os.Args[1] == "hash-token" {
		hash, err := security.BcryptHasher{}.Hash(os.Args[2])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("rentdesk stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("rentdesk stopped")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	metrics := obs.NewMetrics()

	infra, err := openInfrastructure(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer infra.close(logger)

	deps := service.Deps{
		UoW:         infra.uow,
		Snapshots:   infra.snapshots,
		Archive:     infra.archive,
		Idempotency: infra.idempotency,
		Recorder:    metrics,
		Metrics:     metrics,
		Encoder:     outbox.JSONEventEncoder{},
		Logger:      logger,
		PreviewRows: cfg.PreviewRows,
	}
	worker := infra.outboxWorker(cfg, logger, metrics)
	if worker != nil {
		deps.Flusher = worker
	}
	svc, err := service.New(deps)
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}

	loader := fixtures.PropertyLoader{
		UoW:             infra.uow,
		Encoder:         deps.Encoder,
		DefaultCurrency: cfg.DefaultCurrency,
		Logger:          logger,
	}
	if n, err := loader.LoadFile(ctx, cfg.PropertyFixtures); err != nil {
		logger.Warn("property fixtures load failed", "error", err, "path", cfg.PropertyFixtures)
	} else if n > 0 {
		logger.Info("property fixtures loaded", "count", n, "path", cfg.PropertyFixtures)
	}

	if worker != nil {
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}
	if err := infra.startListener(ctx, cfg, svc, logger); err != nil {
		return err
	}
	if cfg.RecomputeSchedule != "" {
		scheduler := jobs.NewScheduler(logger)
		if _, err := scheduler.Add(cfg.RecomputeSchedule, &jobs.RecomputeJob{
			Bus:     svc.Commands,
			Timeout: 10 * time.Minute,
			Logger:  logger,
		}); err != nil {
			return fmt.Errorf("schedule recompute: %w", err)
		}
		go scheduler.Run(ctx)
		logger.Info("recompute scheduled", "schedule", cfg.RecomputeSchedule)
	}

	handlers := ginserver.Handlers{
		Property:     ginserver.PropertyHandler{Commands: svc.Commands, Queries: svc.Queries},
		Booking:      ginserver.BookingHandler{Commands: svc.Commands, Queries: svc.Queries},
		QuoteLimiter: ginserver.NewClientLimiter(cfg.QuoteRateLimit, cfg.QuoteRateBurst).Middleware(),
		Metrics:      metrics.Handler(),
	}
	switch {
	case cfg.AdminTokenHash != "":
		handlers.Admin = ginserver.AdminAuth{Verifier: security.BcryptToken{Hash: cfg.AdminTokenHash}, Logger: logger}.Handle
	case cfg.AdminToken != "":
		handlers.Admin = ginserver.AdminAuth{Verifier: security.StaticToken(cfg.AdminToken), Logger: logger}.Handle
	default:
		logger.Warn("ADMIN_TOKEN_HASH and ADMIN_TOKEN not set, admin routes disabled")
	}
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger, Metrics: metrics}, obs.HealthHandlers{
		Checks:  infra.checks,
		Timeout: 2 * time.Second,
	}, handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
