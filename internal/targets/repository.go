package targets

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/siddha-avenue/salesops/internal/platform/db"
)

// Repository persists target entries.
type Repository interface {
	// Latest returns, per dimension value, the newest entry for key effective
	// on or before asOf.
	Latest(ctx context.Context, key EntityKey, dim Dimension, asOf time.Time) (map[string]Target, error)
	// Insert stores a batch atomically.
	Insert(ctx context.Context, batchID uuid.UUID, entries []Entry) error
}

const uniqueViolation = "23505"

const latestSQL = `SELECT DISTINCT ON (dimension_value) dimension_value, target_value, target_volume
FROM sales_targets
WHERE entity_kind = $1 AND entity_name = $2 AND entity_role = $3 AND dimension = $4 AND effective_date <= $5
ORDER BY dimension_value, effective_date DESC, id DESC`

const insertSQL = `INSERT INTO sales_targets
(batch_id, entity_kind, entity_name, entity_role, dimension, dimension_value, target_value, target_volume, effective_date)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a Repository backed by the sales_targets table.
func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) Latest(ctx context.Context, key EntityKey, dim Dimension, asOf time.Time) (map[string]Target, error) {
	rows, err := r.pool.Query(ctx, latestSQL, string(key.Kind), key.Name, string(key.Role), string(dim), pgDate(asOf))
	if err != nil {
		return nil, fmt.Errorf("targets: latest: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Target)
	for rows.Next() {
		var (
			value string
			t     Target
		)
		if err := rows.Scan(&value, &t.Value, &t.Volume); err != nil {
			return nil, fmt.Errorf("targets: scan: %w", err)
		}
		out[value] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("targets: latest: %w", err)
	}
	return out, nil
}

func (r *pgRepository) Insert(ctx context.Context, batchID uuid.UUID, entries []Entry) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, e := range entries {
			batch.Queue(insertSQL, batchID, string(e.Key.Kind), e.Key.Name, string(e.Key.Role),
				string(e.Dimension), e.DimensionValue, e.Target.Value, e.Target.Volume, pgDate(e.EffectiveDate))
		}
		results := tx.SendBatch(ctx, batch)
		for range entries {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return mapInsertErr(err)
			}
		}
		if err := results.Close(); err != nil {
			return mapInsertErr(err)
		}
		return nil
	})
}

func mapInsertErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.Detail)
	}
	return fmt.Errorf("targets: insert: %w", err)
}

func pgDate(t time.Time) pgtype.Date {
	return pgtype.Date{Time: t, Valid: true}
}

// MemoryRepository keeps targets in process for tests and the memory driver.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries []Entry
	seen    map[entryIdentity]struct{}
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{seen: make(map[entryIdentity]struct{})}
}

// Latest implements Repository.
func (r *MemoryRepository) Latest(ctx context.Context, key EntityKey, dim Dimension, asOf time.Time) (map[string]Target, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	candidates := make([]Entry, 0)
	for _, e := range r.entries {
		if e.Key == key && e.Dimension == dim && !e.EffectiveDate.After(asOf) {
			candidates = append(candidates, e)
		}
	}
	// Stable so a later insert wins a tie on effective date.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].EffectiveDate.Before(candidates[j].EffectiveDate)
	})
	out := make(map[string]Target)
	for _, e := range candidates {
		out[e.DimensionValue] = e.Target
	}
	return out, nil
}

// Insert implements Repository.
func (r *MemoryRepository) Insert(ctx context.Context, _ uuid.UUID, entries []Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		if _, dup := r.seen[e.identity()]; dup {
			return fmt.Errorf("%w: %s %s %s", ErrConflict, e.Key, e.DimensionValue, e.EffectiveDate.Format("2006-01-02"))
		}
	}
	for _, e := range entries {
		r.seen[e.identity()] = struct{}{}
		r.entries = append(r.entries, e)
	}
	return nil
}
