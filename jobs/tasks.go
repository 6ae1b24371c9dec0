package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportWarmup pre-builds the daily KPI reports into the cache.
	TaskReportWarmup = "report:warmup"
	// TaskReportCacheBump invalidates every cached report.
	TaskReportCacheBump = "report:cache_bump"
	// WarmupCronSpec runs the warmup shortly after the nightly extract lands.
	WarmupCronSpec = "15 1 * * *"
)

// ReportWarmupPayload narrows a warmup run. An empty holder list warms every
// ZSM found in the sales data.
type ReportWarmupPayload struct {
	Holders []string `json:"holders,omitempty"`
	Format  string   `json:"format,omitempty"`
}

// CacheBumpPayload records why the cache was invalidated.
type CacheBumpPayload struct {
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewReportWarmupTask constructs a warmup task.
func NewReportWarmupTask(payload ReportWarmupPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportWarmup, body, asynq.Queue(QueueDefault), asynq.MaxRetry(2)), nil
}

// NewCacheBumpTask constructs a cache bump task.
func NewCacheBumpTask(reason string, at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(CacheBumpPayload{Reason: reason, RequestedAt: at.UTC()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportCacheBump, body, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}
