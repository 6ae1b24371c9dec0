package targets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/siddha-avenue/salesops/internal/shared"
)

// CacheInvalidator is notified after a batch is stored.
type CacheInvalidator interface {
	EnqueueCacheBump(ctx context.Context, reason string) error
}

// Receipt acknowledges a stored upload.
type Receipt struct {
	BatchID uuid.UUID `json:"batchId"`
	Stored  int       `json:"stored"`
}

// Service handles target uploads.
type Service struct {
	repo        Repository
	validate    *validator.Validate
	invalidator CacheInvalidator
	logger      *slog.Logger
	newID       func() uuid.UUID
}

// NewService builds a Service. invalidator may be nil.
func NewService(repo Repository, invalidator CacheInvalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		validate:    validator.New(),
		invalidator: invalidator,
		logger:      logger,
		newID:       uuid.New,
	}
}

// Upload validates and stores one batch in a single transaction.
func (s *Service) Upload(ctx context.Context, inputs []EntryInput) (Receipt, error) {
	if len(inputs) == 0 {
		return Receipt{}, shared.Invalid("entries", "must not be empty")
	}
	entries := make([]Entry, 0, len(inputs))
	seen := make(map[entryIdentity]int, len(inputs))
	for i, in := range inputs {
		if err := s.validate.Struct(in); err != nil {
			return Receipt{}, describeValidation(i, err)
		}
		entry, err := in.Entry()
		if err != nil {
			return Receipt{}, fmt.Errorf("entries[%d]: %w", i, err)
		}
		if first, dup := seen[entry.identity()]; dup {
			return Receipt{}, fmt.Errorf("%w: entries[%d] repeats entries[%d]", ErrConflict, i, first)
		}
		seen[entry.identity()] = i
		entries = append(entries, entry)
	}

	batchID := s.newID()
	if err := s.repo.Insert(ctx, batchID, entries); err != nil {
		return Receipt{}, err
	}
	s.logger.Info("targets stored", slog.String("batch_id", batchID.String()), slog.Int("entries", len(entries)))

	if s.invalidator != nil {
		if err := s.invalidator.EnqueueCacheBump(ctx, "targets:"+batchID.String()); err != nil {
			s.logger.Warn("enqueue cache bump", slog.Any("error", err))
		}
	}
	return Receipt{BatchID: batchID, Stored: len(entries)}, nil
}

func describeValidation(index int, err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return shared.Invalid(fmt.Sprintf("entries[%d]", index), err.Error())
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return shared.Invalid(fmt.Sprintf("entries[%d]", index), strings.Join(parts, "; "))
}
