package internal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/damon-houk/fx-ledger-backfill/internal/apperrors"
	"github.com/damon-houk/fx-ledger-backfill/internal/application/service"
	"github.com/damon-houk/fx-ledger-backfill/internal/infrastructure/api"
	"github.com/damon-houk/fx-ledger-backfill/internal/infrastructure/db"
	"github.com/damon-houk/fx-ledger-backfill/internal/infrastructure/logger"
	"github.com/damon-houk/fx-ledger-backfill/internal/infrastructure/middleware"
	"github.com/dgraph-io/badger/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRatesServer serves historical rates for every date except the ones in outages
func newRatesServer(t *testing.T, outages ...string) (*httptest.Server, *int32) {
	var requests int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)

		day := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/historical/"), ".json")
		for _, o := range outages {
			if day == o {
				http.Error(w, `{"error": true, "status": 503}`, http.StatusServiceUnavailable)
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"timestamp": 1773532800,
			"base": "USD",
			"rates": {"CHF": 0.88, "EUR": 0.9, "HKD": 7.8, "USD": 1, "JPY": 150.25}
		}`))
	}))
	t.Cleanup(server.Close)

	return server, &requests
}

func TestBackfillEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping end-to-end test in short mode")
	}

	dbPath, err := os.MkdirTemp("", "badger-backfill-test")
	require.NoError(t, err)
	defer os.RemoveAll(dbPath)

	badgerDB, err := badger.Open(badger.DefaultOptions(dbPath).WithLogger(nil))
	require.NoError(t, err)
	defer badgerDB.Close()

	ctx := context.Background()
	store := db.NewBadgerLedgerStore(badgerDB, "rates")
	require.NoError(t, store.AppendRow(ctx, []string{"DATE", "USD", "EUR", "CHF"}))
	require.NoError(t, store.AppendRow(ctx, []string{"10/03/2026", "0.12820513", "0.11538462", "0.11282051"}))

	server, requests := newRatesServer(t, "2026-03-12")

	log := logger.GetDefaultLogger()
	httpClient := &http.Client{
		Timeout:   5 * time.Second,
		Transport: middleware.NewLoggingTransport(http.DefaultTransport, log),
	}
	source := api.NewOpenExchangeRatesClient(server.URL, "test-key", httpClient)

	svc := service.NewBackfillService(source, store, service.BackfillOptions{
		BaseCurrency:   "HKD",
		Currencies:     []string{"USD", "EUR", "CHF"},
		RetentionDays:  400,
		CleanupEnabled: true,
	}, log)
	svc.SetClock(func() time.Time { return time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC) })

	runCtx := middleware.WithRunID(ctx, middleware.NewRunID())

	startTime := time.Now()
	report, err := svc.Run(runCtx)
	require.NoError(t, err)
	t.Logf("Backfilled %d dates in %v", len(report.Range), time.Since(startTime))

	assert.Len(t, report.Range, 5)
	assert.Len(t, report.Appended, 4)
	require.Len(t, report.Skipped, 1)
	assert.ErrorIs(t, report.Skipped[0].Reason, apperrors.ErrSourceUnavailable)
	assert.EqualValues(t, 5, atomic.LoadInt32(requests))

	rows, err := store.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 6)

	dates := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		dates = append(dates, row[0])
	}
	assert.Equal(t, []string{"10/03/2026", "11/03/2026", "13/03/2026", "14/03/2026", "15/03/2026"}, dates)
	assert.Equal(t, []string{"15/03/2026", "0.12820513", "0.11538462", "0.11282051"}, rows[5])

	// Run again on the same day: nothing to fetch, nothing appended
	report, err = svc.Run(runCtx)
	require.NoError(t, err)
	assert.Empty(t, report.Range)
	assert.EqualValues(t, 5, atomic.LoadInt32(requests))

	rows, err = store.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 6)
	assert.True(t, rows.HasHeader())
}
