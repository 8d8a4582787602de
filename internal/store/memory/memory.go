package memory

import (
	"context"
	"sync"

	"andicblue/backend/internal/store"
)

// Store keeps every table in process memory. It backs tests and the
// "memory" storage mode.
type Store struct {
	mu       sync.RWMutex
	tables   map[string][]store.Row
	failures map[string][]error
}

func New() *Store {
	tables := make(map[string][]store.Row, len(store.Tables()))
	for _, name := range store.Tables() {
		tables[name] = nil
	}
	return &Store{tables: tables, failures: make(map[string][]error)}
}

// NewSeeded returns a store pre-filled with the given tables.
func NewSeeded(seed map[string][]store.Row) *Store {
	s := New()
	for name, rows := range seed {
		if _, ok := s.tables[name]; ok {
			s.tables[name] = store.CloneRows(rows)
		}
	}
	return s
}

// FailNext queues errors returned by the next calls touching table, one per call.
func (s *Store) FailNext(table string, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[table] = append(s.failures[table], errs...)
}

func (s *Store) LoadTable(_ context.Context, name string) ([]store.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, ok := s.tables[name]
	if !ok {
		return nil, store.ErrUnknownTable
	}
	if err := s.popFailure(name); err != nil {
		return nil, err
	}
	return store.DropDuplicateHeader(name, store.CloneRows(rows)), nil
}

func (s *Store) SaveTable(_ context.Context, name string, rows []store.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[name]; !ok {
		return store.ErrUnknownTable
	}
	for _, row := range rows {
		if err := store.ValidateRow(name, row); err != nil {
			return err
		}
	}
	if err := s.popFailure(name); err != nil {
		return err
	}
	s.tables[name] = store.CloneRows(rows)
	return nil
}

func (s *Store) AppendRow(_ context.Context, name string, row store.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := store.ValidateRow(name, row); err != nil {
		return err
	}
	if err := s.popFailure(name); err != nil {
		return err
	}
	s.tables[name] = append(s.tables[name], append(store.Row(nil), row...))
	return nil
}

// Rows returns a snapshot of a table without consuming queued failures.
func (s *Store) Rows(name string) []store.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return store.CloneRows(s.tables[name])
}

func (s *Store) popFailure(name string) error {
	queue := s.failures[name]
	if len(queue) == 0 {
		return nil
	}
	s.failures[name] = queue[1:]
	return queue[0]
}
