// internal/infrastructure/api/openexchangerates_integration_test.go
package api

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenExchangeRatesIntegration(t *testing.T) {
	// This test makes actual API calls - skip in short mode and without a key
	if testing.Short() {
		t.Skip("Skipping openexchangerates integration test in short mode")
	}
	appID := os.Getenv("OXR_INTEGRATION_APP_ID")
	if appID == "" {
		t.Skip("OXR_INTEGRATION_APP_ID not set")
	}

	client := NewOpenExchangeRatesClient("", appID, nil)

	// Use a date in the past to ensure rates exist
	date := time.Now().UTC().AddDate(0, 0, -7)
	rates, err := client.FetchRates(context.Background(), date)
	require.NoError(t, err)

	for _, currency := range []string{"HKD", "CHF", "DKK", "EUR", "NOK", "SEK", "USD", "CNY"} {
		rate, ok := rates[currency]
		if assert.True(t, ok, currency) {
			assert.True(t, rate.IsPositive(), currency)
		}
	}
}
