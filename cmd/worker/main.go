package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/siddha-avenue/salesops/internal/app"
	jobmetrics "github.com/siddha-avenue/salesops/internal/jobs"
	"github.com/siddha-avenue/salesops/internal/kpi"
	"github.com/siddha-avenue/salesops/internal/period"
	"github.com/siddha-avenue/salesops/internal/platform/cache"
	"github.com/siddha-avenue/salesops/internal/targets"
	"github.com/siddha-avenue/salesops/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	reportCache := cache.NewVersioned(redisClient, "kpi", cfg.ReportCacheTTL)

	mode, err := kpi.ParseComparatorMode(cfg.ReportComparatorMode)
	if err != nil {
		logger.Error("comparator mode", slog.Any("error", err))
		os.Exit(1)
	}
	reports := kpi.NewService(stores.Sales, targets.NewProvider(stores.Targets), period.NewResolver(logger, cfg.Location()), reportCache, kpi.Config{
		ComparatorMode:   mode,
		DefaultSalesType: cfg.ReportDefaultSalesType,
	}, logger)

	registry := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(registry)
	warmupJob := jobs.NewReportWarmupJob(reports, stores.Sales, logger, metrics)
	bumpJob := jobs.NewCacheBumpJob(reportCache, logger, metrics)

	warmupTask, err := jobs.NewReportWarmupTask(jobs.ReportWarmupPayload{})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Location:    cfg.Location(),
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReportWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskReportCacheBump, Handler: bumpJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: jobs.WarmupCronSpec, Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(2)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{})}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("worker metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		if err := metricsServer.Close(); err != nil {
			logger.Warn("worker metrics close", slog.Any("error", err))
		}
	}()

	logger.Info("starting worker", slog.String("warmup_cron", jobs.WarmupCronSpec), slog.String("timezone", cfg.Location().String()))
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
