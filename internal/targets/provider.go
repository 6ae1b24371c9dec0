package targets

import (
	"context"
	"time"
)

// Provider resolves the targets in force for report rows.
type Provider struct {
	repo Repository
}

// NewProvider builds a Provider over repo.
func NewProvider(repo Repository) *Provider {
	return &Provider{repo: repo}
}

// Lookup returns one target per catalog value. Values without an entry, and
// every value when key is zero, get a zero target.
func (p *Provider) Lookup(ctx context.Context, key EntityKey, dim Dimension, catalog []string, asOf time.Time) (map[string]Target, error) {
	out := make(map[string]Target, len(catalog))
	for _, value := range catalog {
		out[value] = Target{}
	}
	if key.IsZero() {
		return out, nil
	}
	latest, err := p.repo.Latest(ctx, key, dim, asOf)
	if err != nil {
		return nil, err
	}
	for _, value := range catalog {
		out[value] = latest[value]
	}
	return out, nil
}

// Totals sums the entries in force for key across every value of dim.
func (p *Provider) Totals(ctx context.Context, key EntityKey, dim Dimension, asOf time.Time) (Target, error) {
	if key.IsZero() {
		return Target{}, nil
	}
	latest, err := p.repo.Latest(ctx, key, dim, asOf)
	if err != nil {
		return Target{}, err
	}
	var total Target
	for _, t := range latest {
		total = total.Add(t)
	}
	return total, nil
}

// Current returns the raw entries in force for key.
func (p *Provider) Current(ctx context.Context, key EntityKey, dim Dimension, asOf time.Time) (map[string]Target, error) {
	if key.IsZero() {
		return map[string]Target{}, nil
	}
	return p.repo.Latest(ctx, key, dim, asOf)
}
