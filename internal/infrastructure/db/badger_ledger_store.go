package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/damon-houk/fx-ledger-backfill/internal/domain/entity"
	"github.com/dgraph-io/badger/v3"
)

// BadgerLedgerStore implements the ledger store interface using BadgerDB.
// The whole table lives under one key so every mutation is a single transaction.
type BadgerLedgerStore struct {
	db  *badger.DB
	key []byte
}

// NewBadgerLedgerStore creates a BadgerDB ledger store for the named ledger
func NewBadgerLedgerStore(db *badger.DB, name string) *BadgerLedgerStore {
	return &BadgerLedgerStore{
		db:  db,
		key: []byte("ledger:" + name),
	}
}

// ReadAll returns every row, header first when present
func (s *BadgerLedgerStore) ReadAll(ctx context.Context) (entity.LedgerTable, error) {
	var table entity.LedgerTable

	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		table, err = s.load(txn)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	return table, nil
}

// EnsureHeader inserts the header row unless the first row already is one
func (s *BadgerLedgerStore) EnsureHeader(ctx context.Context, columns []string) (bool, error) {
	inserted := false

	err := s.update(func(table entity.LedgerTable) (entity.LedgerTable, error) {
		if table.HasHeader() {
			return table, nil
		}
		inserted = true
		return withHeader(table, columns), nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to insert header: %w", err)
	}

	return inserted, nil
}

// AppendRow adds a row at the end
func (s *BadgerLedgerStore) AppendRow(ctx context.Context, row []string) error {
	err := s.update(func(table entity.LedgerTable) (entity.LedgerTable, error) {
		return append(table, append([]string(nil), row...)), nil
	})
	if err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}

	return nil
}

// DeleteRows removes the rows at the given 1-based positions
func (s *BadgerLedgerStore) DeleteRows(ctx context.Context, indices []int) error {
	err := s.update(func(table entity.LedgerTable) (entity.LedgerTable, error) {
		order, err := deletionOrder(indices, len(table))
		if err != nil {
			return nil, err
		}
		for _, idx := range order {
			table = append(table[:idx-1], table[idx:]...)
		}
		return table, nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete rows: %w", err)
	}

	return nil
}

func (s *BadgerLedgerStore) load(txn *badger.Txn) (entity.LedgerTable, error) {
	item, err := txn.Get(s.key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return entity.LedgerTable{}, nil
	}
	if err != nil {
		return nil, err
	}

	var table entity.LedgerTable
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &table)
	})
	return table, err
}

func (s *BadgerLedgerStore) update(fn func(entity.LedgerTable) (entity.LedgerTable, error)) error {
	return s.db.Update(func(txn *badger.Txn) error {
		table, err := s.load(txn)
		if err != nil {
			return err
		}

		table, err = fn(table)
		if err != nil {
			return err
		}

		data, err := json.Marshal(table)
		if err != nil {
			return fmt.Errorf("failed to marshal ledger: %w", err)
		}
		return txn.Set(s.key, data)
	})
}
