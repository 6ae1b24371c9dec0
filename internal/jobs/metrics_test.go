package jobmetrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, reg *prometheus.Registry) string {
	t.Helper()
	rr := httptest.NewRecorder()
	promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestTrackerRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	require.NoError(t, m.Track("report:warmup").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("report:warmup").End(boom), boom)

	body := scrape(t, reg)
	assert.Contains(t, body, `salesops_jobs_total{job="report:warmup",status="success"} 1`)
	assert.Contains(t, body, `salesops_jobs_total{job="report:warmup",status="failure"} 1`)
	assert.Contains(t, body, `salesops_jobs_failures_total{job="report:warmup"} 1`)
	assert.Contains(t, body, `salesops_job_duration_seconds_count{job="report:warmup"} 2`)
}

func TestAddWarmedIgnoresEmptyCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.AddWarmed("segment", 0)
	m.AddWarmed("segment", 3)
	assert.Contains(t, scrape(t, reg), `salesops_reports_warmed_total{dimension="segment"} 3`)

	var nilMetrics *Metrics
	nilMetrics.AddWarmed("segment", 1)
	assert.NoError(t, nilMetrics.Track("x").End(nil))
}
