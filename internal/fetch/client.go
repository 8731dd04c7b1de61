// Package fetch talks to the remote rendering proxy. Every page this system
// reads comes through here: the proxy fetches (and optionally JS-renders) the
// target URL on our behalf, and transient failures are retried with
// exponential backoff before the caller sees an error.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/jonesrussell/newscrawl/internal/logger"
)

// Retry defaults, matching the proxy's rate characteristics.
const (
	DefaultMaxAttempts     = 5
	DefaultInitialInterval = 4 * time.Second
	DefaultMaxInterval     = 10 * time.Second
	DefaultTimeout         = 90 * time.Second
)

// Params are site-specific rendering-proxy options (js_render,
// js_instructions, premium_proxy, proxy_country, block_resource, ...).
// The client passes them through opaquely; it never interprets them.
type Params map[string]string

// Config holds the proxy endpoint and retry tuning.
type Config struct {
	// BaseURL is the proxy endpoint, e.g. "https://api.zenrows.com/v1/".
	BaseURL string `mapstructure:"base_url"`
	// APIKey authenticates against the proxy.
	APIKey string `mapstructure:"api_key"`
	// Timeout bounds a single attempt, not the whole retry budget.
	Timeout time.Duration `mapstructure:"timeout"`

	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
}

// Client fetches pages through the rendering proxy.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     logger.Interface
}

// New creates a fetch client, filling zero config fields with defaults.
func New(cfg Config, log logger.Interface) *Client {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = DefaultInitialInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = DefaultMaxInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     log,
	}
}

// Fetch retrieves one page through the proxy. Transport errors and non-2xx
// proxy responses are retried with exponential backoff up to the attempt
// budget; a 2xx response ends the call regardless of what the contained page
// looks like (page usability is the analyzer's concern). On exhaustion the
// returned error is a *Error carrying the last failure.
func (c *Client) Fetch(ctx context.Context, target string, params Params) ([]byte, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.InitialInterval
	policy.MaxInterval = c.cfg.MaxInterval
	policy.Multiplier = 2
	policy.MaxElapsedTime = 0

	var (
		body       []byte
		attempts   int
		lastStatus int
	)
	operation := func() error {
		attempts++
		fetched, status, err := c.do(ctx, target, params)
		if err != nil {
			lastStatus = status
			c.logger.Debug("fetch attempt failed",
				"url", target, "attempt", attempts, "status", status, "error", err)
			return err
		}
		body = fetched
		return nil
	}

	err := backoff.Retry(operation,
		backoff.WithMaxRetries(backoff.WithContext(policy, ctx), uint64(c.cfg.MaxAttempts-1)))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &Error{URL: target, Attempts: attempts, StatusCode: lastStatus, Err: err}
	}
	return body, nil
}

// do performs one proxy request. The proxy contract is a GET with the target
// url, the api key and the opaque site options as query parameters.
func (c *Client) do(ctx context.Context, target string, params Params) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}

	query := req.URL.Query()
	query.Set("url", target)
	query.Set("apikey", c.cfg.APIKey)
	for key, value := range params {
		query.Set(key, value)
	}
	req.URL.RawQuery = query.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, fmt.Errorf("proxy returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}
