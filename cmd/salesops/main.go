package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/siddha-avenue/salesops/internal/app"
	"github.com/siddha-avenue/salesops/internal/kpi"
	"github.com/siddha-avenue/salesops/internal/kpi/export"
	kpihttp "github.com/siddha-avenue/salesops/internal/kpi/http"
	"github.com/siddha-avenue/salesops/internal/observability"
	"github.com/siddha-avenue/salesops/internal/period"
	"github.com/siddha-avenue/salesops/internal/platform/cache"
	"github.com/siddha-avenue/salesops/internal/targets"
	"github.com/siddha-avenue/salesops/jobs"
	"github.com/siddha-avenue/salesops/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	stores, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("open stores", slog.Any("error", err))
		os.Exit(1)
	}
	defer stores.Close()

	var reportCache *cache.Versioned
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, report cache disabled", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		reportCache = cache.NewVersioned(redisClient, "kpi", cfg.ReportCacheTTL)
		if err := reportCache.ListenForInvalidation(ctx, logger); err != nil {
			logger.Warn("cache invalidation listener", slog.Any("error", err))
		}
	}

	mode, err := kpi.ParseComparatorMode(cfg.ReportComparatorMode)
	if err != nil {
		logger.Error("comparator mode", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	periods := period.NewResolver(logger, cfg.Location())
	provider := targets.NewProvider(stores.Targets)
	reports := kpi.NewService(stores.Sales, provider, periods, reportCache, kpi.Config{
		ComparatorMode:   mode,
		DefaultSalesType: cfg.ReportDefaultSalesType,
	}, logger)
	reports.WithMetrics(metrics)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	targetService := targets.NewService(stores.Targets, jobClient, logger)
	targetHandler := targets.NewHandler(logger, targetService, provider, cfg.Location())

	reportClient := report.NewClient(cfg.GotenbergURL, report.WithLandscape())
	reportHandler := report.NewHandler(reportClient, logger)
	kpiHandler := kpihttp.NewHandler(logger, reports, reports.Hierarchy(), export.NewPDFExporter(reportClient))
	kpiHandler.WithTimeout(cfg.ReportTimeout)

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	checks := stores.HealthChecks()
	if redisClient != nil {
		checks = append(checks, app.HealthCheck{Name: "redis", Probe: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		Metrics:       metrics,
		KPIHandler:    kpiHandler,
		TargetHandler: targetHandler,
		ReportHandler: reportHandler,
		JobHandler:    jobHandler,
		HealthChecks:  checks,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("sales_store", cfg.SalesStore))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
