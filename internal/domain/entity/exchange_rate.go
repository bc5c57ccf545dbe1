package entity

import (
	"github.com/shopspring/decimal"
)

// RateSet maps a currency code to its rate against the provider's reference currency for one date
type RateSet map[string]decimal.Decimal

// AdjustedRateSet maps allow-listed currency codes to rates rebased on the base currency
type AdjustedRateSet map[string]decimal.Decimal

// AdjustResult is the outcome of rebasing a RateSet. Missing lists wanted currencies
// the provider did not return, so callers decide whether a partial row is acceptable.
type AdjustResult struct {
	Base    string
	Rates   AdjustedRateSet
	Missing []string
}

// Complete reports whether every wanted currency was rebased
func (r AdjustResult) Complete() bool {
	return len(r.Missing) == 0
}
