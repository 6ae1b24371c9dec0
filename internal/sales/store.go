package sales

import (
	"context"
	"errors"
	"fmt"
)

// ErrQuery wraps every failure reported by a backing store.
var ErrQuery = errors.New("sales: query failed")

// Constraint is an exact-match predicate on one field.
type Constraint struct {
	Field Field
	Value string
}

// SumQuery describes one grouped sum: filter, then window, then group and sum.
type SumQuery struct {
	Filter  []Constraint
	Window  Window
	GroupBy Field
	Sum     Field
}

// Validate rejects queries that name unknown columns. Every store calls it
// before touching the backend; column names reach SQL only after this check.
func (q SumQuery) Validate() error {
	if err := validateFilter(q.Filter); err != nil {
		return err
	}
	if !q.GroupBy.Valid() || q.GroupBy.Numeric() {
		return fmt.Errorf("sales: invalid group field %q", q.GroupBy)
	}
	if !q.Sum.Numeric() {
		return fmt.Errorf("sales: invalid sum field %q", q.Sum)
	}
	if q.Window.From.IsZero() || q.Window.To.IsZero() {
		return errors.New("sales: window bounds required")
	}
	return nil
}

func validateFilter(filter []Constraint) error {
	for _, c := range filter {
		if !c.Field.Valid() || c.Field.Numeric() {
			return fmt.Errorf("sales: invalid filter field %q", c.Field)
		}
	}
	return nil
}

// Store answers the aggregate reads the report engine needs.
type Store interface {
	// Sum groups rows matching the query by GroupBy and totals the coerced
	// Sum field. Rows whose date does not parse are skipped.
	Sum(ctx context.Context, q SumQuery) (map[string]int64, error)
	// Distinct lists the non-empty values of field among rows matching filter,
	// in ascending order.
	Distinct(ctx context.Context, filter []Constraint, field Field) ([]string, error)
}

// Writer persists ingest batches.
type Writer interface {
	Insert(ctx context.Context, batch Batch) (int64, error)
}

func queryErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrQuery, op, err)
}
