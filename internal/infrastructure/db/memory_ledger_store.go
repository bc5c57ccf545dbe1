package db

import (
	"context"
	"sync"

	"github.com/damon-houk/fx-ledger-backfill/internal/domain/entity"
)

// MemoryLedgerStore provides a thread-safe in-memory ledger. It backs dry runs,
// where it is seeded from the real store and nothing is written back.
type MemoryLedgerStore struct {
	rows  entity.LedgerTable
	mutex sync.RWMutex
}

// NewMemoryLedgerStore creates a ledger holding a copy of seed
func NewMemoryLedgerStore(seed entity.LedgerTable) *MemoryLedgerStore {
	return &MemoryLedgerStore{rows: seed.Clone()}
}

// ReadAll returns a copy of every row
func (s *MemoryLedgerStore) ReadAll(ctx context.Context) (entity.LedgerTable, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.rows.Clone(), nil
}

// EnsureHeader inserts the header row unless the first row already is one
func (s *MemoryLedgerStore) EnsureHeader(ctx context.Context, columns []string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.rows.HasHeader() {
		return false, nil
	}
	s.rows = withHeader(s.rows, columns)
	return true, nil
}

// AppendRow adds a row at the end
func (s *MemoryLedgerStore) AppendRow(ctx context.Context, row []string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.rows = append(s.rows, append([]string(nil), row...))
	return nil
}

// DeleteRows removes the rows at the given 1-based positions
func (s *MemoryLedgerStore) DeleteRows(ctx context.Context, indices []int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	order, err := deletionOrder(indices, len(s.rows))
	if err != nil {
		return err
	}

	for _, idx := range order {
		s.rows = append(s.rows[:idx-1], s.rows[idx:]...)
	}
	return nil
}

// Size returns the number of rows, header included
func (s *MemoryLedgerStore) Size() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.rows)
}
