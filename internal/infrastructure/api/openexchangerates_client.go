package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/damon-houk/fx-ledger-backfill/internal/apperrors"
	"github.com/damon-houk/fx-ledger-backfill/internal/domain/entity"
	"github.com/shopspring/decimal"
)

const (
	// DefaultBaseURL is the openexchangerates.org API root
	DefaultBaseURL = "https://openexchangerates.org/api"
	historicalPath = "/historical/%s.json"
)

// OpenExchangeRatesClient implements the RateSource interface against openexchangerates.org
type OpenExchangeRatesClient struct {
	baseURL    string
	appID      string
	httpClient *http.Client
}

// NewOpenExchangeRatesClient creates a new rate provider client.
// Each call is a single attempt: the client neither retries nor caches.
func NewOpenExchangeRatesClient(baseURL, appID string, httpClient *http.Client) *OpenExchangeRatesClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}

	return &OpenExchangeRatesClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		appID:      appID,
		httpClient: httpClient,
	}
}

// HistoricalResponse represents the response of the historical rates endpoint
type HistoricalResponse struct {
	Timestamp int64                      `json:"timestamp"`
	Base      string                     `json:"base"`
	Rates     map[string]decimal.Decimal `json:"rates"`
}

// FetchRates retrieves the full rate set published for a calendar date
func (c *OpenExchangeRatesClient) FetchRates(ctx context.Context, date time.Time) (entity.RateSet, error) {
	dateStr := entity.FormatAPIDate(date)

	reqURL := fmt.Sprintf("%s"+historicalPath+"?app_id=%s",
		c.baseURL,
		dateStr,
		url.QueryEscape(c.appID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Add("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch exchange rates for date %s: %s",
			apperrors.ErrSourceUnavailable, dateStr, c.redact(err.Error()))
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response for date %s: %v",
			apperrors.ErrSourceUnavailable, dateStr, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: failed to fetch exchange rates for date %s: status %d, body: %s",
			apperrors.ErrSourceUnavailable, dateStr, resp.StatusCode, c.redact(string(bodyBytes)))
	}

	var historical HistoricalResponse
	if err := json.Unmarshal(bodyBytes, &historical); err != nil {
		return nil, fmt.Errorf("%w: failed to decode exchange rates for date %s: %v",
			apperrors.ErrSourceUnavailable, dateStr, err)
	}

	rates := make(entity.RateSet, len(historical.Rates))
	for currency, rate := range historical.Rates {
		rates[currency] = rate
	}

	return rates, nil
}

// redact strips the app ID from text that may echo the request URL
func (c *OpenExchangeRatesClient) redact(s string) string {
	if c.appID == "" {
		return s
	}
	s = strings.ReplaceAll(s, url.QueryEscape(c.appID), "REDACTED")
	return strings.ReplaceAll(s, c.appID, "REDACTED")
}
