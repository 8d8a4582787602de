// Package bootstrap assembles the storage stack and the ledger service from
// configuration. The HTTP server and the operator CLI share it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"andicblue/backend/internal/cache"
	"andicblue/backend/internal/config"
	"andicblue/backend/internal/observability"
	"andicblue/backend/internal/service"
	"andicblue/backend/internal/store"
	"andicblue/backend/internal/store/csvfile"
	"andicblue/backend/internal/store/memory"
	pgstore "andicblue/backend/internal/store/postgres"
	"andicblue/backend/internal/store/retry"
)

// Closers release backend connections in order. Safe to call on nil.
type Closers []func() error

func (c Closers) Close(logger *zap.Logger) {
	for _, closeFn := range c {
		if err := closeFn(); err != nil {
			logger.Warn("close error", zap.Error(err))
		}
	}
}

// OpenStore picks the storage backend and wraps it with retries and a
// snapshot cache. Closers are returned even when err is non-nil.
func OpenStore(ctx context.Context, cfg config.Config, logger *zap.Logger, metrics *observability.Metrics) (store.PersistenceStore, Closers, error) {
	closers := make(Closers, 0, 2)

	var backend store.PersistenceStore
	switch cfg.Storage {
	case config.StoragePostgres:
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, closers, fmt.Errorf("postgres unavailable and storage is postgres: %w", err)
		}
		closers = append(closers, pg.Close)
		backend = pg
	case config.StorageMemory:
		backend = memory.New()
	default:
		csvStore, err := csvfile.New(cfg.DataDir)
		if err != nil {
			return nil, closers, err
		}
		backend = csvStore
	}
	logger.Info("storage selected", zap.String("storage", cfg.Storage))

	snapshots := cache.TableCache(cache.NewMemoryTableCache())
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisTableCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, 0)
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, using in-process snapshots", zap.Error(err))
			_ = redisCache.Close()
		} else {
			snapshots = redisCache
			closers = append(closers, redisCache.Close)
			logger.Info("snapshot cache: redis", zap.String("addr", cfg.RedisAddr))
		}
	}

	policy := retry.Policy{
		Attempts:    cfg.RetryAttempts,
		Initial:     cfg.RetryInitial,
		MaxInterval: cfg.RetryMaxSleep,
	}
	return retry.New(backend, snapshots, policy, logger, metrics), closers, nil
}

// Open builds the catalog, opens storage and loads the ledgers. Tables that
// fail to load are logged and start empty.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger, metrics *observability.Metrics) (*service.Service, Closers, error) {
	products, fee, err := cfg.Catalog()
	if err != nil {
		return nil, nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}

	persistence, closers, err := OpenStore(ctx, cfg, logger, metrics)
	if err != nil {
		return nil, closers, err
	}

	svc := service.New(persistence, products, service.Options{
		DeliveryFee: fee,
		Location:    loc,
		Logger:      logger,
		Recorder:    metrics,
	})
	if err := svc.Load(ctx); err != nil {
		var warning *store.PersistenceWarning
		if !errors.As(err, &warning) {
			return nil, closers, err
		}
		logger.Warn("ledger loaded with warnings", zap.Error(err))
	}
	return svc, closers, nil
}
