// Package repository internal/domain/repository/ledger_repository.go
package repository

import (
	"context"

	"github.com/damon-houk/fx-ledger-backfill/internal/domain/entity"
)

// LedgerStore defines the interface for the ordered, date-keyed rate ledger
type LedgerStore interface {
	// ReadAll returns every row, header first when present
	ReadAll(ctx context.Context) (entity.LedgerTable, error)

	// EnsureHeader inserts the header row at the top unless the first row already is one
	EnsureHeader(ctx context.Context, columns []string) (bool, error)

	// AppendRow adds a row at the end. No ordering or uniqueness check is made.
	AppendRow(ctx context.Context, row []string) error

	// DeleteRows removes the rows at the given 1-based positions
	DeleteRows(ctx context.Context, indices []int) error
}
