package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/siddha-avenue/salesops/internal/hierarchy"
	jobmetrics "github.com/siddha-avenue/salesops/internal/jobs"
	"github.com/siddha-avenue/salesops/internal/kpi"
	"github.com/siddha-avenue/salesops/internal/period"
	"github.com/siddha-avenue/salesops/internal/sales"
	"github.com/siddha-avenue/salesops/internal/targets"
)

const warmupBuildTimeout = 20 * time.Second

var warmupDimensions = []kpi.Dimension{kpi.DimensionChannel, kpi.DimensionSegment}

// ReportBuilder builds a KPI report, filling the cache on the way.
type ReportBuilder interface {
	Build(ctx context.Context, req kpi.Request) (kpi.Report, error)
}

// ReportWarmupJob pre-builds the channel and segment reports for the
// unfiltered view and for every ZSM so morning dashboards hit the cache.
type ReportWarmupJob struct {
	Reports ReportBuilder
	Store   sales.Store
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewReportWarmupJob wires dependencies for the warmup handler.
func NewReportWarmupJob(reports ReportBuilder, store sales.Store, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportWarmupJob {
	return &ReportWarmupJob{Reports: reports, Store: store, Logger: logger, Metrics: metrics}
}

// Handle processes report warmup tasks.
func (j *ReportWarmupJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Reports == nil || j.Store == nil {
		return errors.New("report warmup: handler not configured")
	}
	var payload ReportWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	format, err := period.ParseFormat(payload.Format)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	metrics := metricsOrDefault(j.Metrics)
	tracker := metrics.Track(TaskReportWarmup)
	defer func() { err = tracker.End(err) }()

	logger := jobLogger(j.Logger, TaskReportWarmup).With(slog.String("format", string(format)))
	started := time.Now()
	logger.Info("starting report warmup")

	holders := payload.Holders
	if len(holders) == 0 {
		holders, err = j.Store.Distinct(ctx, nil, hierarchy.ZSM.Field())
		if err != nil {
			logger.Error("list zsm holders", slog.Any("error", err))
			return err
		}
	}

	entities := make([]targets.EntityKey, 0, len(holders)+1)
	entities = append(entities, targets.EntityKey{})
	for _, name := range holders {
		if name == "" || name == "0" {
			continue
		}
		entities = append(entities, targets.RoleHolder(name, hierarchy.ZSM))
	}

	for _, dim := range warmupDimensions {
		warmed := 0
		for _, entity := range entities {
			if err := j.warm(ctx, dim, format, entity); err != nil {
				metrics.AddWarmed(string(dim), warmed)
				logger.Error("warm report", slog.String("dimension", string(dim)), slog.String("entity", entity.String()), slog.Any("error", err))
				return err
			}
			warmed++
		}
		metrics.AddWarmed(string(dim), warmed)
	}

	logger.Info("completed report warmup",
		slog.Int("entities", len(entities)),
		slog.Duration("duration", time.Since(started)))
	return nil
}

func (j *ReportWarmupJob) warm(ctx context.Context, dim kpi.Dimension, format period.Format, entity targets.EntityKey) error {
	buildCtx, cancel := context.WithTimeout(ctx, warmupBuildTimeout)
	defer cancel()
	_, err := j.Reports.Build(buildCtx, kpi.Request{
		Dimension: dim,
		Period:    period.Request{Format: format},
		Entity:    entity,
		ValueKind: kpi.ValueKindValue,
	})
	return err
}
