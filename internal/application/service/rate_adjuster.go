// Package service internal/application/service/rate_adjuster.go
package service

import (
	"fmt"

	"github.com/damon-houk/fx-ledger-backfill/internal/apperrors"
	"github.com/damon-houk/fx-ledger-backfill/internal/domain/entity"
)

// Precision controls decimal arithmetic during rebasing. Quotients are computed to
// DivisionScale fractional digits, then rounded half-up to Places.
type Precision struct {
	DivisionScale int32
	Places        int32
}

// DefaultPrecision keeps 28 digits through division and 8 decimal places in the ledger
var DefaultPrecision = Precision{DivisionScale: 28, Places: 8}

// RateAdjuster rebases provider rates onto a base currency
type RateAdjuster struct {
	precision Precision
}

// NewRateAdjuster creates a rate adjuster with the given precision
func NewRateAdjuster(precision Precision) *RateAdjuster {
	return &RateAdjuster{precision: precision}
}

// Precision returns the adjuster's precision settings
func (a *RateAdjuster) Precision() Precision {
	return a.precision
}

// Adjust computes rates[c] / rates[base] for every wanted currency c.
// A missing or non-positive base rate fails with ErrMissingBaseRate. Wanted
// currencies absent from rates are reported in Missing rather than failing.
func (a *RateAdjuster) Adjust(rates entity.RateSet, base string, wanted []string) (entity.AdjustResult, error) {
	baseRate, ok := rates[base]
	if !ok || !baseRate.IsPositive() {
		return entity.AdjustResult{}, fmt.Errorf("%w: no usable rate for %s", apperrors.ErrMissingBaseRate, base)
	}

	result := entity.AdjustResult{
		Base:  base,
		Rates: make(entity.AdjustedRateSet, len(wanted)),
	}

	for _, currency := range wanted {
		rate, ok := rates[currency]
		if !ok || !rate.IsPositive() {
			result.Missing = append(result.Missing, currency)
			continue
		}

		// Round rounds half away from zero, which is half-up for positive rates
		result.Rates[currency] = rate.DivRound(baseRate, a.precision.DivisionScale).Round(a.precision.Places)
	}

	return result, nil
}
