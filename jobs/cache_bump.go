package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/siddha-avenue/salesops/internal/jobs"
)

// Bumper advances the report cache version.
type Bumper interface {
	Bump(ctx context.Context) (int64, error)
}

// CacheBumpJob invalidates cached reports after new data lands.
type CacheBumpJob struct {
	Cache   Bumper
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewCacheBumpJob wires the bump handler.
func NewCacheBumpJob(cache Bumper, logger *slog.Logger, metrics *jobmetrics.Metrics) *CacheBumpJob {
	return &CacheBumpJob{Cache: cache, Logger: logger, Metrics: metrics}
}

// Handle processes cache bump tasks.
func (j *CacheBumpJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Cache == nil {
		return errors.New("cache bump: handler not configured")
	}
	var payload CacheBumpPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := metricsOrDefault(j.Metrics).Track(TaskReportCacheBump)
	defer func() { err = tracker.End(err) }()

	version, err := j.Cache.Bump(ctx)
	if err != nil {
		jobLogger(j.Logger, TaskReportCacheBump).Error("bump report cache", slog.String("reason", payload.Reason), slog.Any("error", err))
		return err
	}
	jobLogger(j.Logger, TaskReportCacheBump).Info("report cache bumped",
		slog.String("reason", payload.Reason),
		slog.Int64("version", version))
	return nil
}

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

func metricsOrDefault(m *jobmetrics.Metrics) *jobmetrics.Metrics {
	if m != nil {
		return m
	}
	return defaultJobMetrics
}

func jobLogger(logger *slog.Logger, job string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("job", job))
}
