package service

import (
	"context"
	"time"

	"github.com/damon-houk/fx-ledger-backfill/internal/domain/entity"
)

// RateSource defines the interface for fetching a day's exchange rates
type RateSource interface {
	// FetchRates retrieves every currency rate published for a calendar date
	FetchRates(ctx context.Context, date time.Time) (entity.RateSet, error)
}
