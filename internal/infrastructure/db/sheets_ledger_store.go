package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/damon-houk/fx-ledger-backfill/internal/domain/entity"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"
)

const (
	spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

	// Cells are written as given: dates stay DD/MM/YYYY text, rates stay numbers
	valueInputRaw = "RAW"
)

// SheetsLedgerStore implements the ledger store on the first worksheet of a Google spreadsheet
type SheetsLedgerStore struct {
	service       *sheets.Service
	spreadsheetID string
	sheetID       int64
	sheetTitle    string
}

// FindSpreadsheetID looks up a spreadsheet by its exact name
func FindSpreadsheetID(ctx context.Context, drv *drive.Service, name string) (string, error) {
	query := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		strings.ReplaceAll(name, "'", `\'`), spreadsheetMimeType)

	list, err := drv.Files.List().
		Q(query).
		Fields("files(id, name)").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to search spreadsheet %q: %w", name, err)
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("spreadsheet %q not found", name)
	}

	return list.Files[0].Id, nil
}

// NewSheetsLedgerStore opens the first worksheet of the spreadsheet
func NewSheetsLedgerStore(ctx context.Context, svc *sheets.Service, spreadsheetID string) (*SheetsLedgerStore, error) {
	spreadsheet, err := svc.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet %s: %w", spreadsheetID, err)
	}
	if len(spreadsheet.Sheets) == 0 || spreadsheet.Sheets[0].Properties == nil {
		return nil, fmt.Errorf("spreadsheet %s has no worksheets", spreadsheetID)
	}

	props := spreadsheet.Sheets[0].Properties
	return &SheetsLedgerStore{
		service:       svc,
		spreadsheetID: spreadsheetID,
		sheetID:       props.SheetId,
		sheetTitle:    props.Title,
	}, nil
}

// ReadAll returns every row, header first when present
func (s *SheetsLedgerStore) ReadAll(ctx context.Context) (entity.LedgerTable, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.sheetRange("")).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %s: %w", s.sheetTitle, err)
	}

	table := make(entity.LedgerTable, 0, len(resp.Values))
	for _, values := range resp.Values {
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = fmt.Sprint(v)
		}
		table = append(table, row)
	}

	return table, nil
}

// EnsureHeader inserts the header row unless the first row already is one
func (s *SheetsLedgerStore) EnsureHeader(ctx context.Context, columns []string) (bool, error) {
	table, err := s.ReadAll(ctx)
	if err != nil {
		return false, err
	}
	if table.HasHeader() {
		return false, nil
	}

	if len(table) > 0 {
		insert := &sheets.Request{
			InsertDimension: &sheets.InsertDimensionRequest{
				Range:             s.rowRange(1),
				InheritFromBefore: false,
			},
		}
		if err := s.batchUpdate(ctx, []*sheets.Request{insert}); err != nil {
			return false, fmt.Errorf("failed to insert header row: %w", err)
		}
	}

	header := &sheets.ValueRange{
		Values: [][]interface{}{nativeCells(entity.Header(columns))},
	}
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, s.sheetRange("A1"), header).
		ValueInputOption(valueInputRaw).
		Context(ctx).
		Do()
	if err != nil {
		return false, fmt.Errorf("failed to write header row: %w", err)
	}

	return true, nil
}

// AppendRow adds a row after the last row of the worksheet
func (s *SheetsLedgerStore) AppendRow(ctx context.Context, row []string) error {
	values := &sheets.ValueRange{
		Values: [][]interface{}{nativeCells(row)},
	}

	_, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, s.sheetRange(""), values).
		ValueInputOption(valueInputRaw).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}

	return nil
}

// DeleteRows removes the rows at the given 1-based positions in one batch
func (s *SheetsLedgerStore) DeleteRows(ctx context.Context, indices []int) error {
	if len(indices) == 0 {
		return nil
	}

	table, err := s.ReadAll(ctx)
	if err != nil {
		return err
	}

	order, err := deletionOrder(indices, len(table))
	if err != nil {
		return err
	}

	requests := make([]*sheets.Request, 0, len(order))
	for _, idx := range order {
		requests = append(requests, &sheets.Request{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: s.rowRange(idx),
			},
		})
	}

	if err := s.batchUpdate(ctx, requests); err != nil {
		return fmt.Errorf("failed to delete rows: %w", err)
	}
	return nil
}

func (s *SheetsLedgerStore) batchUpdate(ctx context.Context, requests []*sheets.Request) error {
	_, err := s.service.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return err
}

// rowRange addresses the single 1-based row idx
func (s *SheetsLedgerStore) rowRange(idx int) *sheets.DimensionRange {
	return &sheets.DimensionRange{
		SheetId:         s.sheetID,
		Dimension:       "ROWS",
		StartIndex:      int64(idx - 1),
		EndIndex:        int64(idx),
		ForceSendFields: []string{"SheetId", "StartIndex"},
	}
}

// sheetRange builds an A1 range on the worksheet, the whole sheet when cells is empty
func (s *SheetsLedgerStore) sheetRange(cells string) string {
	quoted := "'" + strings.ReplaceAll(s.sheetTitle, "'", "''") + "'"
	if cells == "" {
		return quoted
	}
	return quoted + "!" + cells
}
