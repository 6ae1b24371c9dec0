package sales

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/siddha-avenue/salesops/internal/platform/db"
)

const recordsTable = "sales_records"

// PostgresStore aggregates sales rows held in Postgres. Date parsing and
// numeric coercion run server side through salesops_parse_date and
// salesops_coerce_int, which follow ParseDate and CoerceInt.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps a pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Sum implements Store.
func (s *PostgresStore) Sum(ctx context.Context, q SumQuery) (map[string]int64, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	sql, args := buildSumSQL(q)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, queryErr("sum", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var key string
		var total int64
		if err := rows.Scan(&key, &total); err != nil {
			return nil, queryErr("sum scan", err)
		}
		out[key] += total
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr("sum rows", err)
	}
	return out, nil
}

// Distinct implements Store.
func (s *PostgresStore) Distinct(ctx context.Context, filter []Constraint, field Field) ([]string, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	if !field.Valid() || field.Numeric() {
		return nil, fmt.Errorf("sales: invalid distinct field %q", field)
	}
	sql, args := buildDistinctSQL(filter, field)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, queryErr("distinct", err)
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, queryErr("distinct scan", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr("distinct rows", err)
	}
	return values, nil
}

// Insert records the batch header and copies its rows in one transaction.
func (s *PostgresStore) Insert(ctx context.Context, batch Batch) (int64, error) {
	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	columns := make([]string, 0, len(Columns)+1)
	columns = append(columns, "batch_id")
	for _, f := range Columns {
		columns = append(columns, string(f))
	}

	var copied int64
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO sales_batches (id, source, row_count) VALUES ($1, $2, $3)`,
			batch.ID, batch.Source, len(batch.Records),
		); err != nil {
			return fmt.Errorf("sales: insert batch: %w", err)
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{recordsTable}, columns,
			pgx.CopyFromSlice(len(batch.Records), func(i int) ([]any, error) {
				rec := batch.Records[i]
				row := make([]any, 0, len(columns))
				row = append(row, batch.ID)
				for _, f := range Columns {
					row = append(row, rec.Get(f))
				}
				return row, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("sales: copy records: %w", err)
		}
		copied = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return copied, nil
}

func buildWhere(filter []Constraint, args []any) ([]string, []any) {
	where := make([]string, 0, len(filter)+1)
	for _, c := range filter {
		args = append(args, c.Value)
		where = append(where, fmt.Sprintf("%s = $%d", c.Field, len(args)))
	}
	return where, args
}

func buildSumSQL(q SumQuery) (string, []any) {
	where, args := buildWhere(q.Filter, nil)
	args = append(args,
		pgtype.Date{Time: Day(q.Window.From), Valid: true},
		pgtype.Date{Time: Day(q.Window.To), Valid: true},
	)
	where = append(where, fmt.Sprintf("salesops_parse_date(%s) BETWEEN $%d AND $%d", FieldDate, len(args)-1, len(args)))
	sql := fmt.Sprintf(
		"SELECT %[1]s, COALESCE(SUM(salesops_coerce_int(%[2]s)), 0)::BIGINT FROM %[3]s WHERE %[4]s GROUP BY %[1]s",
		q.GroupBy, q.Sum, recordsTable, strings.Join(where, " AND "),
	)
	return sql, args
}

func buildDistinctSQL(filter []Constraint, field Field) (string, []any) {
	where, args := buildWhere(filter, nil)
	where = append(where, fmt.Sprintf("%s <> ''", field))
	sql := fmt.Sprintf(
		"SELECT DISTINCT %[1]s FROM %[2]s WHERE %[3]s ORDER BY %[1]s",
		field, recordsTable, strings.Join(where, " AND "),
	)
	return sql, args
}
