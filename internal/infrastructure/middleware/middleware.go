// internal/infrastructure/middleware/middleware.go
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/damon-houk/fx-ledger-backfill/internal/infrastructure/logger"
	"github.com/google/uuid"
)

// Keys for context values
type contextKey string

const (
	runIDKey contextKey = "run_id"

	// RequestIDHeader carries the ID of an outbound request
	RequestIDHeader = "X-Request-ID"
)

// NewRunID generates an ID identifying one backfill run
func NewRunID() string {
	return uuid.New().String()
}

// WithRunID stores the run ID in the context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// GetRunID retrieves the run ID from context
func GetRunID(ctx context.Context) string {
	runID, ok := ctx.Value(runIDKey).(string)
	if !ok || runID == "" {
		return "unknown"
	}
	return runID
}

// LoggingTransport is an http.RoundTripper that tags outbound requests with a
// request ID and logs their outcome. Query strings are never logged since they
// carry the provider credential.
type LoggingTransport struct {
	next http.RoundTripper
	log  logger.Logger
}

// NewLoggingTransport wraps next, falling back to http.DefaultTransport
func NewLoggingTransport(next http.RoundTripper, log logger.Logger) *LoggingTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &LoggingTransport{
		next: next,
		log:  log,
	}
}

// RoundTrip implements http.RoundTripper
func (t *LoggingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	startTime := time.Now()

	requestID := r.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.New().String()
		// RoundTrippers must not modify the caller's request
		r = r.Clone(r.Context())
		r.Header.Set(RequestIDHeader, requestID)
	}

	fields := map[string]interface{}{
		"request_id": requestID,
		"run_id":     GetRunID(r.Context()),
		"method":     r.Method,
		"host":       r.URL.Host,
		"path":       r.URL.Path,
	}

	t.log.Debug("Outbound request", fields)

	resp, err := t.next.RoundTrip(r)
	fields["duration_ms"] = time.Since(startTime).Milliseconds()
	if err != nil {
		fields["error"] = err.Error()
		t.log.Warn("Outbound request failed", fields)
		return nil, err
	}

	fields["status"] = resp.StatusCode
	t.log.Info("Outbound response", fields)

	return resp, nil
}
