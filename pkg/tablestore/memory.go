package tablestore

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store used by tests and local tooling.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string][]Row

	// FailWrites forces WriteTable to return the given error when set.
	FailWrites error
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string][]Row)}
}

// ReadTable returns a copy of the stored rows.
func (s *MemoryStore) ReadTable(_ context.Context, name string) ([]Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.tables[name]
	rows := make([]Row, len(stored))
	for i, row := range stored {
		rows[i] = row.Clone()
	}
	return rows, nil
}

// WriteTable replaces the stored rows.
func (s *MemoryStore) WriteTable(_ context.Context, name string, _ []string, rows []Row) error {
	if s.FailWrites != nil {
		return s.FailWrites
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]Row, len(rows))
	for i, row := range rows {
		copied[i] = row.Clone()
	}
	s.tables[name] = copied
	return nil
}
