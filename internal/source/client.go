// Package source provides the upstream transaction sources used by the
// acquisition layer: HTTP endpoints and the local backup file.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fraud-signal-engine/internal/circuitbreaker"
	apperrors "github.com/fraud-signal-engine/internal/errors"
	"github.com/fraud-signal-engine/internal/metrics"
	"github.com/fraud-signal-engine/internal/types"
)

// DefaultTimeout bounds a single fetch attempt
const DefaultTimeout = 15 * time.Second

// maxBodyBytes caps the size of an upstream response
const maxBodyBytes = 64 << 20

// Client fetches a raw transaction list from one named source.
// Implementations carry no fallback logic of their own.
type Client interface {
	Name() string
	Kind() types.SourceKind
	Fetch(ctx context.Context) ([]types.TransactionRecord, error)
}

// HealthReporter is implemented by clients that track request outcomes
type HealthReporter interface {
	Health() Health
}

// HTTPClientConfig configures an HTTP source
type HTTPClientConfig struct {
	Name            string
	Kind            types.SourceKind
	URL             string
	Timeout         time.Duration
	BreakerFailures int
	BreakerCooldown time.Duration
}

// HTTPClient fetches a JSON array of transaction records with a GET request
type HTTPClient struct {
	name       string
	kind       types.SourceKind
	url        string
	timeout    time.Duration
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	health     *healthTracker
}

// NewHTTPClient creates a new HTTP source client
func NewHTTPClient(cfg HTTPClientConfig) (*HTTPClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("source %s: url is required", cfg.Name)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Name == "" {
		cfg.Name = string(cfg.Kind)
	}

	return &HTTPClient{
		name:    cfg.Name,
		kind:    cfg.Kind,
		url:     cfg.URL,
		timeout: cfg.Timeout,
		// the per-attempt deadline comes from the request context
		httpClient: &http.Client{},
		breaker: circuitbreaker.NewCircuitBreaker(&circuitbreaker.Config{
			Name:        "source-" + cfg.Name,
			MaxFailures: cfg.BreakerFailures,
			Cooldown:    cfg.BreakerCooldown,
		}),
		health: newHealthTracker(),
	}, nil
}

// Name returns the source name
func (c *HTTPClient) Name() string { return c.name }

// Kind returns the fallback tier of the source
func (c *HTTPClient) Kind() types.SourceKind { return c.kind }

// Fetch performs one GET against the endpoint. Status 200 with a JSON array
// body is success; anything else is a SourceUnavailable error. An attempt cut
// short by the caller's own context is not held against the source.
func (c *HTTPClient) Fetch(ctx context.Context) ([]types.TransactionRecord, error) {
	var records []types.TransactionRecord

	start := time.Now()
	err := c.breaker.ExecuteIgnoring(func() error {
		var fetchErr error
		records, fetchErr = c.fetch(ctx)
		return fetchErr
	}, func(error) bool {
		return ctx.Err() != nil
	})
	duration := time.Since(start)

	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return nil, apperrors.NewSourceUnavailableError(c.name, err)
	}
	if err != nil && ctx.Err() != nil {
		return nil, err
	}

	metrics.SourceFetchDuration.WithLabelValues(c.name).Observe(duration.Seconds())
	if err != nil {
		c.health.recordFailure(err)
		return nil, err
	}
	c.health.recordSuccess(duration)
	return records, nil
}

func (c *HTTPClient) fetch(ctx context.Context) ([]types.TransactionRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError(c.name, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewSourceTimeoutError(c.name, err)
		}
		return nil, apperrors.NewSourceUnavailableError(c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewSourceStatusError(c.name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewSourceTimeoutError(c.name, err)
		}
		return nil, apperrors.NewSourceUnavailableError(c.name, fmt.Errorf("failed to read body: %w", err))
	}

	return decodeRecords(c.name, body)
}

// Health returns the source's request statistics
func (c *HTTPClient) Health() Health {
	h := c.health.snapshot(c.name, c.url)
	h.BreakerState = string(c.breaker.GetState())
	if c.breaker.GetState() == circuitbreaker.StateOpen {
		h.IsHealthy = false
	}
	return h
}

// decodeRecords parses a JSON array of records. Any other JSON shape is malformed.
func decodeRecords(name string, body []byte) ([]types.TransactionRecord, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, apperrors.NewMalformedBodyError(name, errors.New("body is not a JSON array"))
	}

	records := make([]types.TransactionRecord, 0)
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, apperrors.NewMalformedBodyError(name, err)
	}
	return records, nil
}
