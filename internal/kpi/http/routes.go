// Package kpihttp exposes KPI reports, exports, catalogs and the hierarchy
// lookup over HTTP.
package kpihttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/siddha-avenue/salesops/internal/platform/httpx"
)

// exportsPerMinute bounds CSV and PDF downloads per client IP.
const exportsPerMinute = 10

// MountRoutes registers report endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(exportsPerMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "export rate limit reached")
		}),
	)

	r.Get("/reports/kpi", h.handleReport)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/reports/kpi/export.csv", h.handleCSV)
		gr.Get("/reports/kpi/export.pdf", h.handlePDF)
	})
	r.Get("/hierarchy/subordinates", h.handleSubordinates)
	r.Get("/catalogs/{dimension}", h.handleCatalog)
}
