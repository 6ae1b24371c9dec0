package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/siddha-avenue/salesops/internal/platform/db"
	"github.com/siddha-avenue/salesops/internal/platform/docstore"
	"github.com/siddha-avenue/salesops/internal/sales"
	"github.com/siddha-avenue/salesops/internal/targets"
)

// SalesBackend is a sales store that also accepts ingest batches.
type SalesBackend interface {
	sales.Store
	sales.Writer
}

// Stores holds the persistence backends selected by SALES_STORE. Targets live
// in Postgres unless the memory driver is selected.
type Stores struct {
	Sales   SalesBackend
	Targets targets.Repository
	Pool    *pgxpool.Pool
	Mongo   *mongo.Client

	logger *slog.Logger
}

// OpenStores connects the configured backends.
func OpenStores(ctx context.Context, cfg *Config, logger *slog.Logger) (*Stores, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Stores{logger: logger}
	if cfg.SalesStore == StoreMemory {
		logger.Warn("using in-memory sales and target stores; data is lost on exit")
		s.Sales = sales.NewMemoryStore()
		s.Targets = targets.NewMemoryRepository()
		return s, nil
	}

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: 16})
	if err != nil {
		return nil, err
	}
	s.Pool = pool
	s.Targets = targets.NewPostgresRepository(pool)

	switch cfg.SalesStore {
	case StoreMongo:
		client, err := docstore.New(ctx, cfg.MongoURI)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Mongo = client
		store := sales.NewMongoStore(client.Database(cfg.MongoDatabase).Collection(cfg.MongoSalesCollection))
		if err := store.EnsureIndexes(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("app: mongo indexes: %w", err)
		}
		s.Sales = store
	default:
		s.Sales = sales.NewPostgresStore(pool)
	}
	return s, nil
}

// HealthChecks probes every open backend.
func (s *Stores) HealthChecks() []HealthCheck {
	var checks []HealthCheck
	if s.Pool != nil {
		checks = append(checks, HealthCheck{Name: "postgres", Probe: s.Pool.Ping})
	}
	if s.Mongo != nil {
		checks = append(checks, HealthCheck{Name: "mongo", Probe: func(ctx context.Context) error {
			return s.Mongo.Ping(ctx, nil)
		}})
	}
	return checks
}

// Close releases every backend connection.
func (s *Stores) Close() {
	if s == nil {
		return
	}
	if s.Mongo != nil {
		if err := s.Mongo.Disconnect(context.Background()); err != nil {
			s.logger.Warn("mongo disconnect", slog.Any("error", err))
		}
	}
	if s.Pool != nil {
		s.Pool.Close()
	}
}
