// Package app wires configuration into stores and services shared by the
// command-line entry points.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aliskhannn/study-planner-bot/internal/config"
	"github.com/aliskhannn/study-planner-bot/internal/infra/postgres"
	"github.com/aliskhannn/study-planner-bot/internal/infra/postgres/repository"
	"github.com/aliskhannn/study-planner-bot/internal/infra/sqlite"
	"github.com/aliskhannn/study-planner-bot/internal/service"
	"github.com/aliskhannn/study-planner-bot/internal/storage"
)

// OpenStore opens the store selected by cfg.DB.Driver and migrates it.
// The returned close function releases its connections.
func OpenStore(ctx context.Context, cfg config.DB, logger *zap.Logger) (service.Store, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		dsn, err := cfg.DSN()
		if err != nil {
			return nil, nil, err
		}

		pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
			MaxConns:        int32(cfg.MaxConnections),
			MaxConnLifetime: cfg.MaxConnLifetime,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}

		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}

		logger.Info("using postgres store")
		return repository.NewStore(pool), pool.Close, nil

	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}

		logger.Info("using sqlite store", zap.String("path", cfg.SQLitePath))
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("failed to close sqlite store", zap.Error(err))
			}
		}, nil

	case config.DriverMemory:
		logger.Warn("using in-memory store, data is lost on exit")
		return storage.NewMemoryStore(), func() {}, nil
	}

	return nil, nil, fmt.Errorf("%w: unknown database driver %q", config.ErrInvalidConfig, cfg.Driver)
}
