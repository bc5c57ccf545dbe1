// Package db internal/infrastructure/db/ledger_store.go
package db

import (
	"fmt"
	"sort"

	"github.com/damon-houk/fx-ledger-backfill/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// deletionOrder validates 1-based row positions against a table of size rows and
// returns them deduplicated, highest first, so earlier deletions never shift later ones
func deletionOrder(indices []int, size int) ([]int, error) {
	seen := make(map[int]struct{}, len(indices))
	out := make([]int, 0, len(indices))

	for _, idx := range indices {
		if idx < 1 || idx > size {
			return nil, fmt.Errorf("row index %d out of range [1, %d]", idx, size)
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}

	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out, nil
}

// nativeCells converts a rendered row into spreadsheet cell values: the date column
// stays text, rate columns become numbers, and empty cells stay empty
func nativeCells(row []string) []interface{} {
	cells := make([]interface{}, len(row))
	for i, cell := range row {
		if i == 0 || cell == "" {
			cells[i] = cell
			continue
		}

		value, err := decimal.NewFromString(cell)
		if err != nil {
			cells[i] = cell
			continue
		}
		cells[i] = value.InexactFloat64()
	}
	return cells
}

// withHeader returns table with the header row inserted at the top
func withHeader(table entity.LedgerTable, columns []string) entity.LedgerTable {
	out := make(entity.LedgerTable, 0, len(table)+1)
	out = append(out, entity.Header(columns))
	return append(out, table...)
}
