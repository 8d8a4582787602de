package cache

import (
	"context"
	"sync"

	"andicblue/backend/internal/store"
)

// TableCache holds the last rows seen for each table. Loads fall back to
// it when the backing store is unavailable.
type TableCache interface {
	Get(ctx context.Context, table string) ([]store.Row, bool, error)
	Set(ctx context.Context, table string, rows []store.Row) error
}

type NoopTableCache struct{}

func (NoopTableCache) Get(_ context.Context, _ string) ([]store.Row, bool, error) {
	return nil, false, nil
}

func (NoopTableCache) Set(_ context.Context, _ string, _ []store.Row) error {
	return nil
}

// MemoryTableCache keeps snapshots in process.
type MemoryTableCache struct {
	mu     sync.RWMutex
	tables map[string][]store.Row
}

func NewMemoryTableCache() *MemoryTableCache {
	return &MemoryTableCache{tables: make(map[string][]store.Row)}
}

func (c *MemoryTableCache) Get(_ context.Context, table string) ([]store.Row, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rows, ok := c.tables[table]
	if !ok {
		return nil, false, nil
	}
	return store.CloneRows(rows), true, nil
}

func (c *MemoryTableCache) Set(_ context.Context, table string, rows []store.Row) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[table] = store.CloneRows(rows)
	return nil
}
