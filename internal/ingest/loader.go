package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/siddha-avenue/salesops/internal/sales"
	"github.com/siddha-avenue/salesops/internal/shared"
	"github.com/siddha-avenue/salesops/internal/targets"
)

// DefaultChunkSize bounds the rows written per store call.
const DefaultChunkSize = 5000

// Result summarises one load.
type Result struct {
	Source   string      `json:"source"`
	Batches  []uuid.UUID `json:"batches"`
	Rows     int         `json:"rows"`
	Inserted int64       `json:"inserted"`
}

// Loader writes extract rows into the sales store in chunks and asks for a
// report cache bump once everything is stored.
type Loader struct {
	writer      sales.Writer
	invalidator targets.CacheInvalidator
	logger      *slog.Logger
	chunkSize   int
	newID       func() uuid.UUID
}

// NewLoader constructs a Loader. invalidator may be nil.
func NewLoader(writer sales.Writer, invalidator targets.CacheInvalidator, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		writer:      writer,
		invalidator: invalidator,
		logger:      logger,
		chunkSize:   DefaultChunkSize,
		newID:       uuid.New,
	}
}

// WithChunkSize overrides the rows written per store call.
func (l *Loader) WithChunkSize(n int) *Loader {
	if n > 0 {
		l.chunkSize = n
	}
	return l
}

// LoadFile reads path and loads its rows.
func (l *Loader) LoadFile(ctx context.Context, path, sheet string) (Result, error) {
	table, err := ReadFile(path, sheet)
	if err != nil {
		return Result{}, err
	}
	records, err := table.Records()
	if err != nil {
		return Result{}, err
	}
	return l.Load(ctx, filepath.Base(path), records)
}

// Load writes records in chunks, one batch per chunk. A failed chunk stops
// the load; chunks already written stay and are reported in the result.
func (l *Loader) Load(ctx context.Context, source string, records []sales.Record) (Result, error) {
	res := Result{Source: source, Rows: len(records)}
	if len(records) == 0 {
		return res, shared.Invalid("records", "file has no data rows")
	}

	for start := 0; start < len(records); start += l.chunkSize {
		end := min(start+l.chunkSize, len(records))
		batch := sales.Batch{ID: l.newID(), Source: source, Records: records[start:end]}
		n, err := l.writer.Insert(ctx, batch)
		if err != nil {
			return res, fmt.Errorf("ingest: insert rows %d-%d: %w", start+1, end, err)
		}
		res.Batches = append(res.Batches, batch.ID)
		res.Inserted += n
		l.logger.Debug("sales chunk stored",
			slog.String("source", source),
			slog.String("batch_id", batch.ID.String()),
			slog.Int64("rows", n))
	}

	l.logger.Info("sales extract loaded",
		slog.String("source", source),
		slog.Int("rows", res.Rows),
		slog.Int("batches", len(res.Batches)))

	if l.invalidator != nil {
		if err := l.invalidator.EnqueueCacheBump(ctx, "ingest:"+source); err != nil {
			l.logger.Warn("enqueue cache bump", slog.String("source", source), slog.Any("error", err))
		}
	}
	return res, nil
}

// TargetUploader stores a batch of targets.
type TargetUploader interface {
	Upload(ctx context.Context, inputs []targets.EntryInput) (targets.Receipt, error)
}

// LoadTargetsFile reads a target sheet and uploads it as one batch.
func LoadTargetsFile(ctx context.Context, uploader TargetUploader, path, sheet string) (targets.Receipt, error) {
	table, err := ReadFile(path, sheet)
	if err != nil {
		return targets.Receipt{}, err
	}
	inputs, err := table.TargetInputs()
	if err != nil {
		return targets.Receipt{}, err
	}
	return uploader.Upload(ctx, inputs)
}
