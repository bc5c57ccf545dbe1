package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/damon-houk/fx-ledger-backfill/internal/domain/entity"
	"github.com/xuri/excelize/v2"
)

// XLSXLedgerStore keeps the ledger in the first sheet of a local workbook.
// The workbook is created on first write and saved after every mutation.
type XLSXLedgerStore struct {
	path  string
	mutex sync.Mutex
}

// NewXLSXLedgerStore creates a workbook-backed ledger store
func NewXLSXLedgerStore(path string) *XLSXLedgerStore {
	return &XLSXLedgerStore{path: path}
}

// ReadAll returns every row, header first when present
func (s *XLSXLedgerStore) ReadAll(ctx context.Context) (entity.LedgerTable, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	f, sheet, err := s.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from %s: %w", sheet, err)
	}

	return entity.LedgerTable(rows), nil
}

// EnsureHeader inserts the header row unless the first row already is one
func (s *XLSXLedgerStore) EnsureHeader(ctx context.Context, columns []string) (bool, error) {
	inserted := false

	err := s.mutate(func(f *excelize.File, sheet string, rows [][]string) error {
		if entity.LedgerTable(rows).HasHeader() {
			return nil
		}
		if len(rows) > 0 {
			if err := f.InsertRows(sheet, 1, 1); err != nil {
				return fmt.Errorf("failed to insert header row: %w", err)
			}
		}
		inserted = true
		return setRow(f, sheet, 1, nativeCells(entity.Header(columns)))
	})

	return inserted, err
}

// AppendRow adds a row at the end
func (s *XLSXLedgerStore) AppendRow(ctx context.Context, row []string) error {
	return s.mutate(func(f *excelize.File, sheet string, rows [][]string) error {
		return setRow(f, sheet, len(rows)+1, nativeCells(row))
	})
}

// DeleteRows removes the rows at the given 1-based positions
func (s *XLSXLedgerStore) DeleteRows(ctx context.Context, indices []int) error {
	return s.mutate(func(f *excelize.File, sheet string, rows [][]string) error {
		order, err := deletionOrder(indices, len(rows))
		if err != nil {
			return err
		}
		for _, idx := range order {
			if err := f.RemoveRow(sheet, idx); err != nil {
				return fmt.Errorf("failed to remove row %d: %w", idx, err)
			}
		}
		return nil
	})
}

// open loads the workbook, or a new one if the file does not exist yet
func (s *XLSXLedgerStore) open() (*excelize.File, string, error) {
	var f *excelize.File

	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		f = excelize.NewFile()
	} else {
		f, err = excelize.OpenFile(s.path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open workbook %s: %w", s.path, err)
		}
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		_ = f.Close()
		return nil, "", fmt.Errorf("workbook %s has no sheets", s.path)
	}

	return f, sheets[0], nil
}

func (s *XLSXLedgerStore) mutate(fn func(f *excelize.File, sheet string, rows [][]string) error) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	f, sheet, err := s.open()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("failed to read rows from %s: %w", sheet, err)
	}

	if err := fn(f, sheet, rows); err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", s.path, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}
