// Package service internal/application/service/backfill_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/damon-houk/fx-ledger-backfill/internal/apperrors"
	"github.com/damon-houk/fx-ledger-backfill/internal/domain/entity"
	"github.com/damon-houk/fx-ledger-backfill/internal/domain/repository"
	domainservice "github.com/damon-houk/fx-ledger-backfill/internal/domain/service"
	"github.com/damon-houk/fx-ledger-backfill/internal/infrastructure/logger"
	"github.com/damon-houk/fx-ledger-backfill/internal/infrastructure/middleware"
)

// PartialRowPolicy decides what happens to a date whose rate set lacks some wanted currencies
type PartialRowPolicy string

const (
	// PartialRowsSkip skips the date like a missing base rate
	PartialRowsSkip PartialRowPolicy = "skip"
	// PartialRowsFill appends the row with empty cells for the missing currencies
	PartialRowsFill PartialRowPolicy = "fill"
)

// BackfillOptions configures a BackfillService
type BackfillOptions struct {
	BaseCurrency   string
	Currencies     []string
	RetentionDays  int
	CleanupEnabled bool
	PartialRows    PartialRowPolicy
	Precision      Precision
}

// SkippedDate records a date that produced no row and why
type SkippedDate struct {
	Date   time.Time
	Reason error
}

// RunReport summarises one backfill run
type RunReport struct {
	RunID          string
	Today          time.Time
	LastDate       time.Time
	Cutoff         time.Time
	HeaderInserted bool
	Range          []time.Time
	Appended       []time.Time
	Skipped        []SkippedDate
	Expired        []int
	Deleted        int
}

// BackfillService keeps the rate ledger up to date: it appends one row per day
// missing since the last recorded date and prunes rows older than the retention window
type BackfillService struct {
	source   domainservice.RateSource
	store    repository.LedgerStore
	adjuster *RateAdjuster
	opts     BackfillOptions
	logger   logger.Logger
	now      func() time.Time
}

// NewBackfillService creates a new backfill service
func NewBackfillService(source domainservice.RateSource, store repository.LedgerStore, opts BackfillOptions, log logger.Logger) *BackfillService {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	if opts.Precision == (Precision{}) {
		opts.Precision = DefaultPrecision
	}
	if opts.PartialRows == "" {
		opts.PartialRows = PartialRowsSkip
	}

	return &BackfillService{
		source:   source,
		store:    store,
		adjuster: NewRateAdjuster(opts.Precision),
		opts:     opts,
		logger:   log,
		now:      time.Now,
	}
}

// SetClock replaces the clock used to determine today
func (s *BackfillService) SetClock(now func() time.Time) {
	s.now = now
}

// Run performs one backfill pass. Per-date source and data problems are logged
// and skipped; store failures and an unreadable ledger abort the run.
func (s *BackfillService) Run(ctx context.Context) (*RunReport, error) {
	runID := middleware.GetRunID(ctx)
	log := s.logger.WithField("run_id", runID)

	report := &RunReport{
		RunID: runID,
		Today: entity.CalendarDate(s.now()),
	}

	table, err := s.store.ReadAll(ctx)
	if err != nil {
		return report, fmt.Errorf("%w: failed to read ledger: %w", apperrors.ErrStore, err)
	}

	// Header check
	if !table.HasHeader() {
		inserted, err := s.store.EnsureHeader(ctx, s.opts.Currencies)
		if err != nil {
			return report, fmt.Errorf("%w: failed to insert header: %w", apperrors.ErrStore, err)
		}
		report.HeaderInserted = inserted

		if inserted {
			log.Info("Inserted ledger header", map[string]interface{}{
				"columns": s.opts.Currencies,
			})
		}

		// Row positions shift after the insert
		if table, err = s.store.ReadAll(ctx); err != nil {
			return report, fmt.Errorf("%w: failed to read ledger: %w", apperrors.ErrStore, err)
		}
	}

	// Range computation
	report.LastDate, err = LastLedgerDate(table, report.Today)
	if err != nil {
		return report, err
	}
	report.Range = BackfillRange(report.LastDate, report.Today)

	log.Info("Computed backfill range", map[string]interface{}{
		"last_date": entity.FormatLedgerDate(report.LastDate),
		"today":     entity.FormatLedgerDate(report.Today),
		"days":      len(report.Range),
	})

	// Retention check
	report.Cutoff = RetentionCutoff(report.Today, s.opts.RetentionDays)
	report.Expired = s.expiredRows(log, table, report.Cutoff)

	if len(report.Expired) > 0 {
		fields := map[string]interface{}{
			"cutoff": entity.FormatLedgerDate(report.Cutoff),
			"rows":   len(report.Expired),
		}

		if !s.opts.CleanupEnabled {
			log.Info("Rows older than retention window left in place, cleanup disabled", fields)
		} else {
			log.Info("Cleaning rows older than retention window", fields)
			if err := s.store.DeleteRows(ctx, report.Expired); err != nil {
				return report, fmt.Errorf("%w: failed to delete expired rows: %w", apperrors.ErrStore, err)
			}
			report.Deleted = len(report.Expired)
		}
	}

	// Per-date processing, oldest first
	for _, date := range report.Range {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		dateLog := log.WithField("date", entity.FormatAPIDate(date))

		err := s.processDate(ctx, dateLog, date)
		switch {
		case err == nil:
			report.Appended = append(report.Appended, date)
		case apperrors.IsRecoverable(err):
			report.Skipped = append(report.Skipped, SkippedDate{Date: date, Reason: err})
			dateLog.Warn("Skipping date", map[string]interface{}{
				"error": err.Error(),
			})
		default:
			dateLog.Error("Aborting run", map[string]interface{}{
				"error": err.Error(),
			})
			return report, err
		}
	}

	log.Info("Exchange rates updated in ledger", map[string]interface{}{
		"appended": len(report.Appended),
		"skipped":  len(report.Skipped),
		"deleted":  report.Deleted,
	})

	return report, nil
}

// processDate runs fetch, adjust and append for one date
func (s *BackfillService) processDate(ctx context.Context, log logger.Logger, date time.Time) error {
	rates, err := s.source.FetchRates(ctx, date)
	if err != nil {
		if errors.Is(err, apperrors.ErrSourceUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %w", apperrors.ErrSourceUnavailable, err)
	}

	result, err := s.adjuster.Adjust(rates, s.opts.BaseCurrency, s.opts.Currencies)
	if err != nil {
		return err
	}

	if !result.Complete() {
		missing := strings.Join(result.Missing, ",")
		if s.opts.PartialRows != PartialRowsFill {
			return fmt.Errorf("%w: missing %s", apperrors.ErrIncompleteRates, missing)
		}
		log.Warn("Appending partial row", map[string]interface{}{
			"missing": missing,
		})
	}

	row := entity.LedgerRow{Date: date, Values: result.Rates}
	if err := s.store.AppendRow(ctx, row.Cells(s.opts.Currencies, s.opts.Precision.Places)); err != nil {
		return fmt.Errorf("%w: failed to append row for %s: %w", apperrors.ErrStore, entity.FormatLedgerDate(date), err)
	}

	log.Info("Appended ledger row", map[string]interface{}{
		"base": result.Base,
	})
	return nil
}

// expiredRows returns the 1-based positions of data rows dated strictly before cutoff
func (s *BackfillService) expiredRows(log logger.Logger, table entity.LedgerTable, cutoff time.Time) []int {
	var expired []int

	for i, row := range table {
		if len(row) == 0 || entity.IsHeaderRow(row) {
			continue
		}

		date, err := entity.ParseLedgerDate(row[0])
		if err != nil {
			log.Warn("Ignoring row with unparseable date", map[string]interface{}{
				"row":  i + 1,
				"cell": row[0],
			})
			continue
		}

		if date.Before(cutoff) {
			expired = append(expired, i+1)
		}
	}

	return expired
}

// LastLedgerDate returns the date in the first cell of the last row, or today when
// the table holds no data rows
func LastLedgerDate(table entity.LedgerTable, today time.Time) (time.Time, error) {
	if len(table) == 0 || entity.IsHeaderRow(table[len(table)-1]) {
		return today, nil
	}

	last := table[len(table)-1]
	if len(last) == 0 {
		return time.Time{}, fmt.Errorf("%w: last row %d is empty", apperrors.ErrMalformedLedger, len(table))
	}

	date, err := entity.ParseLedgerDate(last[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: last row %d: %w", apperrors.ErrMalformedLedger, len(table), err)
	}
	return date, nil
}

// BackfillRange returns the consecutive calendar dates after last up to and
// including today, oldest first. It is empty when today is not after last.
func BackfillRange(last, today time.Time) []time.Time {
	last = entity.CalendarDate(last)
	today = entity.CalendarDate(today)

	var dates []time.Time
	for date := last.AddDate(0, 0, 1); !date.After(today); date = date.AddDate(0, 0, 1) {
		dates = append(dates, date)
	}
	return dates
}

// RetentionCutoff returns the date retentionDays before today
func RetentionCutoff(today time.Time, retentionDays int) time.Time {
	return entity.CalendarDate(today).AddDate(0, 0, -retentionDays)
}
