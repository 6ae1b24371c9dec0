package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	kpihttp "github.com/siddha-avenue/salesops/internal/kpi/http"
	"github.com/siddha-avenue/salesops/internal/observability"
	"github.com/siddha-avenue/salesops/internal/platform/httpx"
	"github.com/siddha-avenue/salesops/internal/targets"
	"github.com/siddha-avenue/salesops/jobs"
	"github.com/siddha-avenue/salesops/report"
)

// HealthCheck probes one backing dependency.
type HealthCheck struct {
	Name  string
	Probe func(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger        *slog.Logger
	Config        *Config
	Metrics       *observability.Metrics
	KPIHandler    *kpihttp.Handler
	TargetHandler *targets.Handler
	ReportHandler *report.Handler
	JobHandler    *jobs.Handler
	HealthChecks  []HealthCheck
}

// NewRouter constructs the chi.Router with service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", healthHandler(params.Logger, params.HealthChecks))
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route("/api/v1", func(api chi.Router) {
		if params.KPIHandler != nil {
			params.KPIHandler.MountRoutes(api)
		}
		if params.TargetHandler != nil {
			params.TargetHandler.MountRoutes(api)
		}
		if params.ReportHandler != nil {
			api.Route("/renderer", params.ReportHandler.MountRoutes)
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "Method Not Allowed", r.Method)
	})

	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(logger *slog.Logger, checks []HealthCheck) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		for _, check := range checks {
			if check.Probe == nil {
				continue
			}
			if resp.Checks == nil {
				resp.Checks = make(map[string]string, len(checks))
			}
			if err := check.Probe(ctx); err != nil {
				logger.Warn("health check failed", slog.String("check", check.Name), slog.Any("error", err))
				resp.Checks[check.Name] = "down"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[check.Name] = "ok"
		}
		httpx.JSON(w, status, resp)
	}
}
