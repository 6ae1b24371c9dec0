package perf

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	jobmetrics "github.com/siddha-avenue/salesops/internal/jobs"
	"github.com/siddha-avenue/salesops/internal/kpi"
	"github.com/siddha-avenue/salesops/internal/sales"
	"github.com/siddha-avenue/salesops/jobs"
)

type failingBuilder struct{}

func (failingBuilder) Build(context.Context, kpi.Request) (kpi.Report, error) {
	return kpi.Report{}, errors.New("timeout")
}

func TestWarmupThroughputAndReliability(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)
	store := sales.NewMemoryStore(syntheticRecords(5000)...)

	task, err := jobs.NewReportWarmupTask(jobs.ReportWarmupPayload{})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}

	job := jobs.NewReportWarmupJob(newService(store, nil), store, nil, metrics)
	for i := 0; i < 10; i++ {
		if err := job.Handle(context.Background(), task); err != nil {
			t.Fatalf("warmup run %d: %v", i, err)
		}
	}

	broken := jobs.NewReportWarmupJob(failingBuilder{}, store, nil, metrics)
	if err := broken.Handle(context.Background(), asynq.NewTask(jobs.TaskReportWarmup, nil)); err == nil {
		t.Fatal("expected warmup failure to propagate")
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	success := metricValue(t, families, "salesops_jobs_total", map[string]string{"job": jobs.TaskReportWarmup, "status": "success"})
	failure := metricValue(t, families, "salesops_jobs_total", map[string]string{"job": jobs.TaskReportWarmup, "status": "failure"})
	if success != 10 || failure != 1 {
		t.Fatalf("unexpected run counts: success=%v failure=%v", success, failure)
	}

	// grand view plus one entity per zone, ten runs
	warmed := metricValue(t, families, "salesops_reports_warmed_total", map[string]string{"dimension": string(kpi.DimensionChannel)})
	if want := float64(10 * (len(zsms) + 1)); warmed != want {
		t.Fatalf("warmed channel reports = %v, want %v", warmed, want)
	}

	mean := histogramMean(t, families, "salesops_job_duration_seconds", map[string]string{"job": jobs.TaskReportWarmup})
	if mean > 2.0 {
		t.Fatalf("warmup duration above budget: %f", mean)
	}
}

func metricValue(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				if fam.GetType() == dto.MetricType_COUNTER {
					return metric.GetCounter().GetValue()
				}
				if fam.GetType() == dto.MetricType_GAUGE {
					return metric.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func histogramMean(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				hist := metric.GetHistogram()
				if hist == nil || hist.GetSampleCount() == 0 {
					t.Fatalf("histogram %s missing samples", name)
				}
				return hist.GetSampleSum() / float64(hist.GetSampleCount())
			}
		}
	}
	t.Fatalf("histogram %s with labels %v not found", name, labels)
	return 0
}

func hasLabels(metric *dto.Metric, labels map[string]string) bool {
	if len(metric.GetLabel()) != len(labels) {
		return false
	}
	for _, lp := range metric.GetLabel() {
		if val, ok := labels[lp.GetName()]; !ok || lp.GetValue() != val {
			return false
		}
	}
	return true
}
