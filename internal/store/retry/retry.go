// Package retry wraps a PersistenceStore with exponential backoff on
// rate-limit errors and a snapshot cache for loads.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"andicblue/backend/internal/cache"
	"andicblue/backend/internal/store"
)

// Observer receives retry and fallback events. *observability.Metrics
// satisfies it.
type Observer interface {
	StorageRetry(op, table string)
	CacheFallback(table string)
}

type Policy struct {
	Attempts    int
	Initial     time.Duration
	MaxInterval time.Duration
}

func DefaultPolicy() Policy {
	return Policy{Attempts: 5, Initial: 500 * time.Millisecond, MaxInterval: 8 * time.Second}
}

type Store struct {
	inner    store.PersistenceStore
	cache    cache.TableCache
	policy   Policy
	logger   *zap.Logger
	observer Observer
}

func New(inner store.PersistenceStore, snapshots cache.TableCache, policy Policy, logger *zap.Logger, observer Observer) *Store {
	if snapshots == nil {
		snapshots = cache.NoopTableCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	return &Store{inner: inner, cache: snapshots, policy: policy, logger: logger, observer: observer}
}

// LoadTable serves the cached snapshot when the inner store keeps failing.
func (s *Store) LoadTable(ctx context.Context, name string) ([]store.Row, error) {
	var rows []store.Row
	err := s.do(ctx, "load", name, func() error {
		var err error
		rows, err = s.inner.LoadTable(ctx, name)
		return err
	})
	if err == nil {
		if cacheErr := s.cache.Set(ctx, name, rows); cacheErr != nil {
			s.logger.Warn("snapshot cache update failed", zap.String("table", name), zap.Error(cacheErr))
		}
		return rows, nil
	}
	if errors.Is(err, store.ErrUnknownTable) {
		return nil, err
	}

	cached, ok, cacheErr := s.cache.Get(ctx, name)
	if cacheErr != nil || !ok {
		if cacheErr != nil {
			s.logger.Warn("snapshot cache read failed", zap.String("table", name), zap.Error(cacheErr))
		}
		return nil, err
	}
	s.logger.Warn("serving table from snapshot cache", zap.String("table", name), zap.Error(err))
	if s.observer != nil {
		s.observer.CacheFallback(name)
	}
	return cached, nil
}

func (s *Store) SaveTable(ctx context.Context, name string, rows []store.Row) error {
	err := s.do(ctx, "save", name, func() error {
		return s.inner.SaveTable(ctx, name, rows)
	})
	if err != nil {
		return err
	}
	if cacheErr := s.cache.Set(ctx, name, rows); cacheErr != nil {
		s.logger.Warn("snapshot cache update failed", zap.String("table", name), zap.Error(cacheErr))
	}
	return nil
}

func (s *Store) AppendRow(ctx context.Context, name string, row store.Row) error {
	err := s.do(ctx, "append", name, func() error {
		return s.inner.AppendRow(ctx, name, row)
	})
	if err != nil {
		return err
	}
	cached, ok, cacheErr := s.cache.Get(ctx, name)
	if cacheErr == nil && ok {
		cacheErr = s.cache.Set(ctx, name, append(cached, row))
	}
	if cacheErr != nil {
		s.logger.Warn("snapshot cache update failed", zap.String("table", name), zap.Error(cacheErr))
	}
	return nil
}

// do retries op while it fails with store.ErrRateLimited; any other error
// stops at once.
func (s *Store) do(ctx context.Context, op, table string, fn func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.policy.Initial
	policy.MaxInterval = s.policy.MaxInterval
	policy.MaxElapsedTime = 0

	attempt := 0
	operation := func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrRateLimited) {
			return backoff.Permanent(err)
		}
		if attempt < s.policy.Attempts {
			s.logger.Debug("storage rate limited, backing off",
				zap.String("op", op), zap.String("table", table), zap.Int("attempt", attempt))
			if s.observer != nil {
				s.observer.StorageRetry(op, table)
			}
		}
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(s.policy.Attempts-1)), ctx)
	return backoff.Retry(operation, b)
}
