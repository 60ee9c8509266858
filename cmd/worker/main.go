// Package main provides the entry point for the change pipeline worker.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/infraops/change-pipeline/internal/config"
	"github.com/infraops/change-pipeline/internal/database/database"
	"github.com/infraops/change-pipeline/internal/database/migrate"
	"github.com/infraops/change-pipeline/internal/health"
	"github.com/infraops/change-pipeline/internal/hosting"
	"github.com/infraops/change-pipeline/internal/identity"
	"github.com/infraops/change-pipeline/internal/metrics"
	"github.com/infraops/change-pipeline/internal/middleware"
	"github.com/infraops/change-pipeline/internal/pipeline"
	"github.com/infraops/change-pipeline/internal/queue/repository"
	statisticsRouter "github.com/infraops/change-pipeline/internal/statistics/router"
	"github.com/infraops/change-pipeline/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		return 1
	}

	log, err := logger.NewWithConfig(cfg.Logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	db, err := database.New()
	if err != nil {
		log.Errorw("failed to connect to queue store", "error", err)
		return 1
	}
	defer func() {
		if cerr := database.Close(db); cerr != nil {
			log.Warnw("failed to close queue store connection", "error", cerr)
		}
	}()

	if err := migrate.Migrate(db); err != nil {
		log.Errorw("failed to apply migrations", "error", err)
		return 1
	}

	queue := repository.New(db)
	hostingClient := hosting.NewGitHub(hosting.Config{
		APIBaseURL:  cfg.GitHub.APIBaseURL,
		HTMLBaseURL: cfg.GitHub.HTMLBaseURL,
		Owner:       cfg.GitHub.Owner,
		Repo:        cfg.GitHub.Repo,
		Token:       cfg.GitHub.Token,
	})

	processorID := identity.New()
	processor := pipeline.NewProcessor(
		hostingClient, queue, processorID, cfg.GitHub.BaseBranch, cfg.GitHub.ReviewerTeams, log)

	registry := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(registry)
	orchestrator := pipeline.NewOrchestrator(queue, processor, processorID, cfg.Worker.PollInterval, recorder, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := newOpsServer(cfg, db, queue, orchestrator, registry, log)
	go func() {
		log.Infow("starting operational server", "address", cfg.Server.GetAddress())
		if serr := srv.ListenAndServe(); serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			log.Errorw("operational server stopped", "error", serr)
		}
	}()
	defer shutdownOpsServer(srv, log)

	log.Infow("worker started",
		"processor_id", processorID,
		"repository", cfg.GitHub.Owner+"/"+cfg.GitHub.Repo,
		"run_once", cfg.Worker.RunOnce,
		"poll_interval", cfg.Worker.PollInterval,
	)

	if cfg.Worker.RunOnce {
		stats, rerr := orchestrator.RunOnce(ctx)
		if rerr != nil {
			log.Errorw("batch aborted", "error", rerr, "processed", stats.Processed)
			return 1
		}
		log.Infow("batch complete",
			"processed", stats.Processed,
			"succeeded", stats.Succeeded,
			"failed", stats.Failed,
		)
		return 0
	}

	if rerr := orchestrator.RunContinuous(ctx); rerr != nil {
		log.Errorw("poll loop terminated", "error", rerr)
		return 1
	}
	return 0
}

// newOpsServer builds the operational HTTP server exposing health, queue
// statistics, and Prometheus metrics. It runs beside the poll loop and never
// affects pipeline outcomes.
func newOpsServer(
	cfg config.Config,
	db *gorm.DB,
	queue repository.Repository,
	orchestrator *pipeline.Orchestrator,
	registry *prometheus.Registry,
	log *zap.SugaredLogger,
) *http.Server {
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))

	healthHandler := health.New(db, queue, orchestrator, log)
	r.GET("/health", healthHandler.Check)

	statisticsRouter.RegisterRoutes(r, db, log)

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	return &http.Server{
		Addr:         cfg.Server.GetAddress(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}

func shutdownOpsServer(srv *http.Server, log *zap.SugaredLogger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnw("operational server shutdown failed", "error", err)
	}
}
