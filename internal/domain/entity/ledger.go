package entity

import (
	"strings"
	"time"
)

const (
	// HeaderSentinel marks the first cell of the ledger header row
	HeaderSentinel = "DATE"

	// LedgerDateLayout is the DD/MM/YYYY layout of the ledger date column
	LedgerDateLayout = "02/01/2006"

	// APIDateLayout is the YYYY-MM-DD layout used by the rate provider
	APIDateLayout = "2006-01-02"
)

// LedgerTable is the raw content of the ledger, header first when present
type LedgerTable [][]string

// HasHeader reports whether the first row is the ledger header
func (t LedgerTable) HasHeader() bool {
	return len(t) > 0 && IsHeaderRow(t[0])
}

// Clone returns a deep copy of the table
func (t LedgerTable) Clone() LedgerTable {
	if t == nil {
		return nil
	}

	out := make(LedgerTable, len(t))
	for i, row := range t {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// IsHeaderRow reports whether row starts with the header sentinel
func IsHeaderRow(row []string) bool {
	return len(row) > 0 && row[0] == HeaderSentinel
}

// Header builds the header row for the given currency columns
func Header(columns []string) []string {
	header := make([]string, 0, len(columns)+1)
	header = append(header, HeaderSentinel)
	return append(header, columns...)
}

// LedgerRow is one day of rebased rates
type LedgerRow struct {
	Date   time.Time
	Values AdjustedRateSet
}

// Cells renders the row in column order. Values are fixed to places decimals;
// a column without a value renders as an empty cell.
func (r LedgerRow) Cells(columns []string, places int32) []string {
	cells := make([]string, 0, len(columns)+1)
	cells = append(cells, FormatLedgerDate(r.Date))

	for _, currency := range columns {
		value, ok := r.Values[currency]
		if !ok {
			cells = append(cells, "")
			continue
		}
		cells = append(cells, value.StringFixed(places))
	}

	return cells
}

// CalendarDate truncates t to midnight UTC of its wall-clock date
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatLedgerDate formats a date as DD/MM/YYYY
func FormatLedgerDate(date time.Time) string {
	return date.Format(LedgerDateLayout)
}

// ParseLedgerDate parses a DD/MM/YYYY cell
func ParseLedgerDate(cell string) (time.Time, error) {
	return time.Parse(LedgerDateLayout, strings.TrimSpace(cell))
}

// FormatAPIDate formats a date as YYYY-MM-DD
func FormatAPIDate(date time.Time) string {
	return date.Format(APIDateLayout)
}
