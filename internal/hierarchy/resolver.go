package hierarchy

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/siddha-avenue/salesops/internal/sales"
	"github.com/siddha-avenue/salesops/internal/shared"
)

// AllSentinel heads every subordinate list and means "no further filter".
const AllSentinel = "All"

// placeholder marks an unassigned role slot in extracts.
const placeholder = "0"

// Subordinates is the resolver output for one role level.
type Subordinates struct {
	Role  Role     `json:"role"`
	Names []string `json:"names"`
}

// Resolver derives the hierarchy from distinct role columns in the sales store.
type Resolver struct {
	store sales.Store
}

// NewResolver builds a resolver over store.
func NewResolver(store sales.Store) *Resolver {
	return &Resolver{store: store}
}

// SubordinatesOf lists, for every role below role, the distinct holders that
// appear on rows where role's column equals holder. Each list starts with
// AllSentinel. The result is ordered most senior first.
func (r *Resolver) SubordinatesOf(ctx context.Context, holder string, role Role) ([]Subordinates, error) {
	if !role.Valid() {
		_, err := ParseRole(string(role))
		return nil, err
	}
	holder = strings.TrimSpace(holder)
	if holder == "" {
		return nil, shared.Invalid("name", "is required")
	}
	subRoles := role.Subordinates()
	out := make([]Subordinates, len(subRoles))

	g, gctx := errgroup.WithContext(ctx)
	for i, sub := range subRoles {
		g.Go(func() error {
			names, err := r.Holders(gctx, holder, role, sub)
			if err != nil {
				return err
			}
			out[i] = Subordinates{Role: sub, Names: append([]string{AllSentinel}, names...)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Holders returns the distinct, assigned holders of sub on rows owned by
// holder at role, sorted ascending and without the sentinel.
func (r *Resolver) Holders(ctx context.Context, holder string, role, sub Role) ([]string, error) {
	filter := []sales.Constraint{{Field: role.Field(), Value: holder}}
	values, err := r.store.Distinct(ctx, filter, sub.Field())
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" || v == placeholder {
			continue
		}
		names = append(names, v)
	}
	return names, nil
}
