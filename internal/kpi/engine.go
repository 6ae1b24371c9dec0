package kpi

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/siddha-avenue/salesops/internal/period"
	"github.com/siddha-avenue/salesops/internal/sales"
	"github.com/siddha-avenue/salesops/internal/targets"
)

// ComparatorMode selects how the MTD comparator column is sourced.
type ComparatorMode string

const (
	// ComparatorPrecomputed re-aggregates the extract's comparator field over
	// the current window.
	ComparatorPrecomputed ComparatorMode = "precomputed"
	// ComparatorShifted sums the current field over the shifted window.
	ComparatorShifted ComparatorMode = "shifted"
)

// ParseComparatorMode accepts "precomputed" or "shifted"; empty means precomputed.
func ParseComparatorMode(raw string) (ComparatorMode, error) {
	switch m := ComparatorMode(strings.ToLower(strings.TrimSpace(raw))); m {
	case "":
		return ComparatorPrecomputed, nil
	case ComparatorPrecomputed, ComparatorShifted:
		return m, nil
	default:
		return "", fmt.Errorf("kpi: unknown comparator mode %q", raw)
	}
}

// Plan is the three grouped sums behind one report.
type Plan struct {
	Current    sales.SumQuery
	Comparator sales.SumQuery
	FirstDay   sales.SumQuery
}

// Filter returns the equality constraints for an entity and a resolved sales
// type. SalesTypeAll and empty add no sales type constraint.
func Filter(entity targets.EntityKey, salesType string) []sales.Constraint {
	var filter []sales.Constraint
	if salesType != "" && salesType != SalesTypeAll {
		filter = append(filter, sales.Constraint{Field: sales.FieldSalesType, Value: salesType})
	}
	switch entity.Kind {
	case targets.KindRole:
		filter = append(filter, sales.Constraint{Field: entity.Role.Field(), Value: entity.Name})
	case targets.KindDealer:
		filter = append(filter, sales.Constraint{Field: sales.FieldDealerCode, Value: entity.Name})
	}
	return filter
}

// BuildPlan derives the queries for req over w. YTD always compares against
// the shifted window since extracts only carry a month-to-date comparator.
func BuildPlan(req Request, w period.Window, mode ComparatorMode) Plan {
	filter := Filter(req.Entity, req.SalesType)
	groupBy := req.Dimension.groupField(req.GroupRole)
	current := req.ValueKind.currentField()

	plan := Plan{
		Current:  sales.SumQuery{Filter: filter, Window: w.Current(), GroupBy: groupBy, Sum: current},
		FirstDay: sales.SumQuery{Filter: filter, Window: w.FirstDay(), GroupBy: groupBy, Sum: current},
	}
	if w.Format == period.MTD && mode != ComparatorShifted {
		plan.Comparator = sales.SumQuery{Filter: filter, Window: w.Current(), GroupBy: groupBy, Sum: req.ValueKind.comparatorField()}
	} else {
		plan.Comparator = sales.SumQuery{Filter: filter, Window: w.Comparator(), GroupBy: groupBy, Sum: current}
	}
	return plan
}

// Sums holds the results of a Plan.
type Sums struct {
	Current    map[string]int64
	Comparator map[string]int64
	FirstDay   map[string]int64
}

// Aggregate runs the three queries of p concurrently. Any failure cancels the
// rest and is returned.
func Aggregate(ctx context.Context, store sales.Store, p Plan) (Sums, error) {
	var out Sums
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Current, err = store.Sum(gctx, p.Current)
		return err
	})
	g.Go(func() (err error) {
		out.Comparator, err = store.Sum(gctx, p.Comparator)
		return err
	})
	g.Go(func() (err error) {
		out.FirstDay, err = store.Sum(gctx, p.FirstDay)
		return err
	})
	if err := g.Wait(); err != nil {
		return Sums{}, err
	}
	return out, nil
}
