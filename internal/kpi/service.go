package kpi

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/siddha-avenue/salesops/internal/hierarchy"
	"github.com/siddha-avenue/salesops/internal/period"
	"github.com/siddha-avenue/salesops/internal/platform/cache"
	"github.com/siddha-avenue/salesops/internal/sales"
	"github.com/siddha-avenue/salesops/internal/shared"
	"github.com/siddha-avenue/salesops/internal/targets"
)

// Recorder observes report builds.
type Recorder interface {
	ObserveReport(dimension, format, status string, elapsed time.Duration)
}

// Config tunes report semantics.
type Config struct {
	ComparatorMode ComparatorMode
	// DefaultSalesType applies when a request names none. SalesTypeAll
	// disables the filter.
	DefaultSalesType string
	// TargetBasis is the target dimension summed for role and dealer rows.
	TargetBasis targets.Dimension
	// LookupConcurrency bounds per-row target lookups.
	LookupConcurrency int
}

// Service builds KPI reports.
type Service struct {
	store     sales.Store
	hierarchy *hierarchy.Resolver
	targets   *targets.Provider
	periods   *period.Resolver
	cache     *cache.Versioned
	cfg       Config
	logger    *slog.Logger
	metrics   Recorder
}

// NewService wires the report dependencies. cache may be nil.
func NewService(store sales.Store, provider *targets.Provider, periods *period.Resolver, reportCache *cache.Versioned, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ComparatorMode == "" {
		cfg.ComparatorMode = ComparatorPrecomputed
	}
	if cfg.TargetBasis == "" {
		cfg.TargetBasis = targets.Segment
	}
	if cfg.LookupConcurrency <= 0 {
		cfg.LookupConcurrency = 8
	}
	if st, ok := canonicalSalesType(cfg.DefaultSalesType); ok {
		cfg.DefaultSalesType = st
	} else {
		cfg.DefaultSalesType = string(sales.SellOut)
	}
	return &Service{
		store:     store,
		hierarchy: hierarchy.NewResolver(store),
		targets:   provider,
		periods:   periods,
		cache:     reportCache,
		cfg:       cfg,
		logger:    logger,
	}
}

// WithMetrics attaches a build recorder.
func (s *Service) WithMetrics(r Recorder) {
	s.metrics = r
}

// Periods exposes the period resolver.
func (s *Service) Periods() *period.Resolver {
	return s.periods
}

// Hierarchy exposes the hierarchy resolver over the same store.
func (s *Service) Hierarchy() *hierarchy.Resolver {
	return s.hierarchy
}

// Build validates req, then returns the cached report or computes it.
func (s *Service) Build(ctx context.Context, req Request) (Report, error) {
	start := time.Now()
	report, err := s.build(ctx, req)
	s.observe(req, err, time.Since(start))
	return report, err
}

func (s *Service) build(ctx context.Context, req Request) (Report, error) {
	if err := req.Validate(); err != nil {
		return Report{}, err
	}
	if req.SalesType == "" {
		req.SalesType = s.cfg.DefaultSalesType
	}
	w := s.periods.Resolve(req.Period)

	if s.cache == nil {
		return s.compute(ctx, req, w)
	}
	key, err := s.cache.BuildKey(ctx, s.cacheKey(req, w)...)
	if err != nil {
		s.logger.Warn("report cache unavailable", slog.Any("error", err))
		return s.compute(ctx, req, w)
	}

	var (
		built     *Report
		loaderErr error
	)
	loader := func(ctx context.Context) (any, error) {
		r, err := s.compute(ctx, req, w)
		if err != nil {
			loaderErr = err
			return nil, err
		}
		built = &r
		return r, nil
	}
	var report Report
	err = s.cache.FetchJSON(ctx, key, &report, loader)
	switch {
	case err == nil:
		return report, nil
	case loaderErr != nil:
		return Report{}, loaderErr
	case built != nil:
		s.logger.Warn("report cache write failed", slog.String("key", key), slog.Any("error", err))
		return *built, nil
	default:
		s.logger.Warn("report cache read failed", slog.String("key", key), slog.Any("error", err))
		return s.compute(ctx, req, w)
	}
}

func (s *Service) cacheKey(req Request, w period.Window) []string {
	return []string{
		"kpi",
		string(req.Dimension),
		string(req.ValueKind),
		string(w.Format),
		w.Current().String(),
		w.Comparator().String(),
		string(s.cfg.ComparatorMode),
		strings.ReplaceAll(req.SalesType, " ", "_"),
		string(req.Entity.Kind),
		string(req.Entity.Role),
		req.Entity.Name,
		string(req.GroupRole),
	}
}

func (s *Service) compute(ctx context.Context, req Request, w period.Window) (Report, error) {
	plan := BuildPlan(req, w, s.cfg.ComparatorMode)

	var (
		catalog  []string
		sums     Sums
		byValue  map[string]targets.Target
		staticOK = req.Dimension.Static()
	)
	if staticOK {
		var err error
		if catalog, err = req.Dimension.Catalog(); err != nil {
			return Report{}, err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sums, err = Aggregate(gctx, s.store, plan)
		return err
	})
	if staticOK {
		g.Go(func() (err error) {
			byValue, err = s.targets.Lookup(gctx, req.Entity, req.Dimension.targetDimension(), catalog, w.CurrentEnd)
			return err
		})
	} else {
		g.Go(func() (err error) {
			catalog, err = s.dynamicCatalog(gctx, req)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	if !staticOK {
		var err error
		if byValue, err = s.rowTargets(ctx, req, catalog, w.CurrentEnd); err != nil {
			return Report{}, err
		}
	}

	picked := make(map[string]int64, len(byValue))
	for value, t := range byValue {
		picked[value] = req.ValueKind.pick(t)
	}
	rows := Compose(catalog, Figures{
		Current:    sums.Current,
		Comparator: sums.Comparator,
		FirstDay:   sums.FirstDay,
		Targets:    picked,
	}, w.DaysElapsed, w.DaysRemaining)

	report := Report{
		Dimension: req.Dimension,
		ValueKind: req.ValueKind,
		SalesType: req.SalesType,
		Columns:   Columns(req.Dimension, req.GroupRole, w.Format),
		Rows:      rows,
		Period:    summarize(w),
	}
	if !req.Entity.IsZero() {
		report.Entity = req.Entity.String()
	}
	return report, nil
}

func (s *Service) dynamicCatalog(ctx context.Context, req Request) ([]string, error) {
	switch req.Dimension {
	case DimensionRole:
		return s.hierarchy.Holders(ctx, req.Entity.Name, req.Entity.Role, req.GroupRole)
	case DimensionDealer:
		return s.store.Distinct(ctx, Filter(req.Entity, SalesTypeAll), sales.FieldDealerCode)
	default:
		return nil, shared.Invalid("dimension", "no dynamic catalog")
	}
}

// rowTargets totals each role-holder's or dealer's own targets.
func (s *Service) rowTargets(ctx context.Context, req Request, catalog []string, asOf time.Time) (map[string]targets.Target, error) {
	results := make([]targets.Target, len(catalog))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.LookupConcurrency)
	for i, value := range catalog {
		key := targets.Dealer(value)
		if req.Dimension == DimensionRole {
			key = targets.RoleHolder(value, req.GroupRole)
		}
		g.Go(func() (err error) {
			results[i], err = s.targets.Totals(gctx, key, s.cfg.TargetBasis, asOf)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make(map[string]targets.Target, len(catalog))
	for i, value := range catalog {
		out[value] = results[i]
	}
	return out, nil
}

func (s *Service) observe(req Request, err error, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	status := "ok"
	switch {
	case errors.Is(err, shared.ErrValidation):
		status = "invalid"
	case err != nil:
		status = "error"
	}
	format := string(req.Period.Format)
	if format == "" {
		format = string(period.MTD)
	}
	s.metrics.ObserveReport(string(req.Dimension), format, status, elapsed)
}
