package kpihttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/siddha-avenue/salesops/internal/hierarchy"
	"github.com/siddha-avenue/salesops/internal/kpi"
	"github.com/siddha-avenue/salesops/internal/kpi/export"
	"github.com/siddha-avenue/salesops/internal/platform/httpx"
	"github.com/siddha-avenue/salesops/internal/shared"
	"github.com/siddha-avenue/salesops/report"
)

const requestTimeout = 5 * time.Second

// ReportService builds KPI reports.
type ReportService interface {
	Build(ctx context.Context, req kpi.Request) (kpi.Report, error)
}

// HierarchyService lists role holders under a hierarchy node.
type HierarchyService interface {
	SubordinatesOf(ctx context.Context, holder string, role hierarchy.Role) ([]hierarchy.Subordinates, error)
}

// PDFService renders a report to PDF bytes.
type PDFService interface {
	RenderReport(ctx context.Context, report kpi.Report) ([]byte, error)
}

// Handler serves the KPI report endpoints.
type Handler struct {
	logger    *slog.Logger
	service   ReportService
	hierarchy HierarchyService
	pdf       PDFService
	csvPool   sync.Pool
	timeout   time.Duration
}

// NewHandler wires the report endpoints. pdf may be nil, in which case the
// PDF export answers 503.
func NewHandler(logger *slog.Logger, service ReportService, hierarchy HierarchyService, pdf PDFService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		hierarchy: hierarchy,
		pdf:       pdf,
		timeout:   requestTimeout,
		csvPool: sync.Pool{New: func() any {
			return new(bytes.Buffer)
		}},
	}
}

// WithTimeout overrides the per-request deadline.
func (h *Handler) WithTimeout(d time.Duration) {
	if d > 0 {
		h.timeout = d
	}
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.buildReport(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	report, ok := h.buildReport(w, r)
	if !ok {
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := export.WriteReportCSV(buf, report); err != nil {
		h.handleServerError(w, "write report csv", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", export.Filename(report, "csv")))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "PDF Export Disabled", "no renderer configured")
		return
	}
	rep, ok := h.buildReport(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	pdfBytes, err := h.pdf.RenderReport(ctx, rep)
	if err != nil {
		if errors.Is(err, report.ErrUnavailable) {
			h.logger.Warn("render report pdf", slog.Any("error", err))
			httpx.Problem(w, http.StatusBadGateway, "Renderer Unavailable", "pdf renderer did not respond")
			return
		}
		h.respond(w, "render report pdf", err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", export.Filename(rep, "pdf")))
	if _, err := w.Write(pdfBytes); err != nil {
		h.logError("stream pdf", err)
	}
}

type subordinatesResponse struct {
	Name         string                  `json:"name"`
	Role         hierarchy.Role          `json:"role"`
	Subordinates []hierarchy.Subordinates `json:"subordinates"`
}

func (h *Handler) handleSubordinates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	role, err := hierarchy.ParseRole(q.Get("role"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	name := strings.TrimSpace(q.Get("name"))
	if name == "" {
		httpx.RespondError(w, shared.Invalid("name", "is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	subs, err := h.hierarchy.SubordinatesOf(ctx, name, role)
	if err != nil {
		h.respond(w, "resolve subordinates", err)
		return
	}
	httpx.JSON(w, http.StatusOK, subordinatesResponse{Name: name, Role: role, Subordinates: subs})
}

type catalogResponse struct {
	Dimension kpi.Dimension `json:"dimension"`
	Values    []string      `json:"values"`
}

func (h *Handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	dim, err := kpi.ParseDimension(chi.URLParam(r, "dimension"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	values, err := dim.Catalog()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, catalogResponse{Dimension: dim, Values: values})
}

func (h *Handler) buildReport(w http.ResponseWriter, r *http.Request) (kpi.Report, bool) {
	req, err := kpi.ParseParams(paramsFromQuery(r))
	if err != nil {
		httpx.RespondError(w, err)
		return kpi.Report{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	report, err := h.service.Build(ctx, req)
	if err != nil {
		h.respond(w, "build report", err)
		return kpi.Report{}, false
	}
	return report, true
}

func paramsFromQuery(r *http.Request) kpi.Params {
	q := r.URL.Query()
	return kpi.Params{
		Dimension: q.Get("dimension"),
		Format:    q.Get("format"),
		Start:     q.Get("start"),
		End:       q.Get("end"),
		Name:      q.Get("name"),
		Role:      q.Get("role"),
		Dealer:    q.Get("dealer"),
		GroupRole: q.Get("groupRole"),
		ValueKind: q.Get("valueKind"),
		SalesType: q.Get("salesType"),
	}
}

func (h *Handler) respond(w http.ResponseWriter, op string, err error) {
	if httpx.IsClientError(err) {
		httpx.RespondError(w, err)
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		h.logger.Warn(op+" timed out", slog.Any("error", err))
		httpx.Problem(w, http.StatusGatewayTimeout, "Timeout", "report did not finish in time")
		return
	}
	h.handleServerError(w, op, err)
}

func (h *Handler) handleServerError(w http.ResponseWriter, op string, err error) {
	h.logError(op, err)
	httpx.RespondError(w, err)
}

func (h *Handler) logError(op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
}
