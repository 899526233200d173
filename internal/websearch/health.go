package websearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hession/searxmate/internal/logger"
)

// HealthConfig controls WaitReady.
type HealthConfig struct {
	MaxRetries int
	RetryDelay time.Duration
	ExpectText string // substring expected in the landing page, e.g. "SearXNG"
}

// DefaultHealthConfig matches the stock docker setup, which can take a while
// to come up after `docker compose up`.
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		MaxRetries: 5,
		RetryDelay: 10 * time.Second,
		ExpectText: "SearXNG",
	}
}

// Health is the outcome of a successful Ping.
type Health struct {
	StatusCode   int
	ExpectedText bool
	Latency      time.Duration
}

// Ping requests the instance landing page once. Anything but 200 is a
// TransportError.
func (c *Client) Ping(ctx context.Context, expectText string) (*Health, error) {
	start := time.Now()
	resp, err := c.rest.R().
		SetContext(ctx).
		Get(c.baseURL + "/")
	if err != nil {
		return nil, &TransportError{Endpoint: c.baseURL, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &TransportError{Endpoint: c.baseURL, StatusCode: resp.StatusCode()}
	}

	health := &Health{
		StatusCode: resp.StatusCode(),
		Latency:    time.Since(start),
	}
	if expectText == "" || strings.Contains(resp.String(), expectText) {
		health.ExpectedText = true
	}
	return health, nil
}

// WaitReady pings the instance until it answers 200, retrying only on
// unexpected status codes. A connection failure aborts immediately.
func (c *Client) WaitReady(ctx context.Context, cfg HealthConfig) (*Health, error) {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	logger.Info("testing searxng server at %s", c.baseURL)

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		health, err := c.Ping(ctx, cfg.ExpectText)
		if err == nil {
			logger.Info("searxng server is up (%s)", health.Latency.Round(time.Millisecond))
			if !health.ExpectedText {
				logger.Warn("expected content %q not found, but status code OK", cfg.ExpectText)
			}
			return health, nil
		}

		lastErr = err
		var transportErr *TransportError
		if !errors.As(err, &transportErr) || transportErr.StatusCode == 0 {
			logger.Error("searxng health request failed: %v", err)
			return nil, err
		}
		logger.Error("received unexpected status code %d (attempt %d/%d)", transportErr.StatusCode, attempt, cfg.MaxRetries)

		if attempt == cfg.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, &TransportError{Endpoint: c.baseURL, Err: ctx.Err()}
		case <-time.After(cfg.RetryDelay):
		}
	}

	logger.Error("failed to connect to searxng server after %d attempts", cfg.MaxRetries)
	statusCode := 0
	var transportErr *TransportError
	if errors.As(lastErr, &transportErr) {
		statusCode = transportErr.StatusCode
	}
	return nil, &TransportError{
		Endpoint:   c.baseURL,
		StatusCode: statusCode,
		Err:        fmt.Errorf("server not ready after %d attempts", cfg.MaxRetries),
	}
}
