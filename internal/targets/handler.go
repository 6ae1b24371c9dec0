package targets

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/siddha-avenue/salesops/internal/hierarchy"
	"github.com/siddha-avenue/salesops/internal/platform/httpx"
	"github.com/siddha-avenue/salesops/internal/sales"
	"github.com/siddha-avenue/salesops/internal/shared"
)

// Handler exposes target upload and lookup endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	provider *Provider
	loc      *time.Location
	now      func() time.Time
}

// NewHandler builds a Handler. Dates without an explicit asOf resolve in loc.
func NewHandler(logger *slog.Logger, service *Service, provider *Provider, loc *time.Location) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{logger: logger, service: service, provider: provider, loc: loc, now: time.Now}
}

// WithNow overrides the clock used for the default asOf date.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

// MountRoutes registers target routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/targets", h.upload)
	r.Get("/targets", h.current)
}

type uploadRequest struct {
	Entries []EntryInput `json:"entries"`
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	receipt, err := h.service.Upload(r.Context(), req.Entries)
	if err != nil {
		if !httpx.IsClientError(err) {
			h.logger.Error("upload targets", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, receipt)
}

type currentResponse struct {
	Entity    string            `json:"entity"`
	Dimension Dimension         `json:"dimension"`
	AsOf      string            `json:"asOf"`
	Targets   map[string]Target `json:"targets"`
}

func (h *Handler) current(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key, err := EntityFromQuery(q.Get("name"), q.Get("role"), q.Get("dealer"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if key.IsZero() {
		httpx.RespondError(w, shared.Invalid("entity", "name and role or dealer required"))
		return
	}
	dim, err := ParseDimension(q.Get("dimension"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	asOf := sales.Day(h.now().In(h.loc))
	if raw := strings.TrimSpace(q.Get("asOf")); raw != "" {
		parsed, ok := sales.ParseInputDate(raw)
		if !ok {
			httpx.RespondError(w, shared.Invalid("asOf", "must be MM/DD/YYYY or YYYY-MM-DD"))
			return
		}
		asOf = parsed
	}
	current, err := h.provider.Current(r.Context(), key, dim, asOf)
	if err != nil {
		h.logger.Error("lookup targets", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, currentResponse{
		Entity:    key.String(),
		Dimension: dim,
		AsOf:      sales.FormatDate(asOf),
		Targets:   current,
	})
}

// EntityFromQuery builds an entity key from request parameters. A dealer
// code wins over name and role; all empty yields the zero key.
func EntityFromQuery(name, role, dealer string) (EntityKey, error) {
	if strings.TrimSpace(dealer) != "" {
		return Dealer(dealer), nil
	}
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, hierarchy.AllSentinel) {
		if strings.TrimSpace(role) != "" && name == "" {
			return EntityKey{}, shared.Invalid("name", "required with role")
		}
		return EntityKey{}, nil
	}
	parsed, err := hierarchy.ParseRole(role)
	if err != nil {
		return EntityKey{}, err
	}
	return RoleHolder(name, parsed), nil
}
