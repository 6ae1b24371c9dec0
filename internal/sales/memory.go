package sales

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps records in process. It backs tests and the "memory"
// driver used for local runs against a loaded extract.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryStore returns a store seeded with records.
func NewMemoryStore(records ...Record) *MemoryStore {
	s := &MemoryStore{}
	s.records = append(s.records, records...)
	return s
}

// Insert appends the batch records.
func (s *MemoryStore) Insert(ctx context.Context, batch Batch) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, batch.Records...)
	return int64(len(batch.Records)), nil
}

// Sum implements Store.
func (s *MemoryStore) Sum(ctx context.Context, q SumQuery) (map[string]int64, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, queryErr("sum", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]int64)
	for _, rec := range s.records {
		if !matches(rec, q.Filter) {
			continue
		}
		day, ok := ParseDate(rec.Date)
		if !ok || !q.Window.Contains(day) {
			continue
		}
		key := rec.Get(q.GroupBy)
		out[key] += CoerceInt(rec.Get(q.Sum))
	}
	return out, nil
}

// Distinct implements Store.
func (s *MemoryStore) Distinct(ctx context.Context, filter []Constraint, field Field) ([]string, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	if !field.Valid() || field.Numeric() {
		return nil, fmt.Errorf("sales: invalid distinct field %q", field)
	}
	if err := ctx.Err(); err != nil {
		return nil, queryErr("distinct", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, rec := range s.records {
		if !matches(rec, filter) {
			continue
		}
		if v := rec.Get(field); v != "" {
			seen[v] = struct{}{}
		}
	}
	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return values, nil
}

// Len reports the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func matches(rec Record, filter []Constraint) bool {
	for _, c := range filter {
		if rec.Get(c.Field) != c.Value {
			return false
		}
	}
	return true
}
