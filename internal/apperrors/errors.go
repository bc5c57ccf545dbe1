// Package apperrors holds the error taxonomy shared by the backfill job.
package apperrors

import "errors"

// ErrConfiguration indicates missing or invalid configuration. The run aborts before any processing.
var ErrConfiguration = errors.New("configuration error")

// ErrSourceUnavailable indicates the rate provider call for one date did not succeed.
var ErrSourceUnavailable = errors.New("rate source unavailable")

// ErrMissingBaseRate indicates the base currency is absent from a day's rates.
var ErrMissingBaseRate = errors.New("base currency rate missing")

// ErrIncompleteRates indicates one or more allow-listed currencies are absent from a day's rates.
var ErrIncompleteRates = errors.New("incomplete rate set")

// ErrStore indicates a ledger store read or write failed. It aborts the run.
var ErrStore = errors.New("ledger store error")

// ErrMalformedLedger indicates the ledger holds a row whose date cannot be parsed.
var ErrMalformedLedger = errors.New("malformed ledger")

// IsRecoverable reports whether err only affects a single date and the run may continue.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable) ||
		errors.Is(err, ErrMissingBaseRate) ||
		errors.Is(err, ErrIncompleteRates)
}
