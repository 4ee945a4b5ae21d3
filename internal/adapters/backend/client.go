// Package backend fetches chart datasets from the stock data HTTP API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stockMatrix/internal/domain"
	"stockMatrix/internal/ports"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 64 << 20
)

// Client implements ports.DatasetProvider against POST /api/stocks/{symbol}.
type Client struct {
	baseURL string
	http    *http.Client
	logger  ports.Logger
}

// Config holds configuration for the backend client.
type Config struct {
	BaseURL    string
	Logger     ports.Logger
	HTTPClient *http.Client // optional; a client with a 30s timeout is used otherwise
}

// New creates a backend client.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for backend client")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("backend url %q: %w: %w", cfg.BaseURL, ports.ErrConfigurationError, err)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: strings.TrimRight(cfg.BaseURL, "/"), http: hc, logger: cfg.Logger}, nil
}

type stockRequest struct {
	Interval  string `json:"interval"`
	MAOptions string `json:"ma_options"`
	TechInd   string `json:"tech_ind"`
}

// FetchDataset requests and decodes the dataset for cfg.
func (c *Client) FetchDataset(ctx context.Context, cfg domain.ChartConfig) (*domain.Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrInvalidRequest, err)
	}

	body, err := json.Marshal(stockRequest{Interval: cfg.Interval, MAOptions: cfg.MAFamily, TechInd: string(cfg.Indicator)})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	endpoint := c.baseURL + "/api/stocks/" + url.PathEscape(strings.ToUpper(cfg.Ticker))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, cfg, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.transportError(ctx, cfg, err)
	}
	if err := statusError(resp.StatusCode, payload); err != nil {
		c.logger.Warn(ctx, "Backend returned an error status", map[string]interface{}{
			"config": cfg.Key(), "status": resp.StatusCode,
		})
		return nil, err
	}

	ds, err := DecodeChartData(cfg, payload)
	if err != nil {
		c.logger.Error(ctx, err, "Backend payload rejected", map[string]interface{}{"config": cfg.Key()})
		return nil, err
	}
	c.logger.Debug(ctx, "Backend dataset fetched", map[string]interface{}{
		"config": cfg.Key(), "candles": len(ds.Candles.Points), "elapsed": time.Since(start).String(),
	})
	return ds, nil
}

func (c *Client) transportError(ctx context.Context, cfg domain.ChartConfig, err error) error {
	var sentinel error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		sentinel = ports.ErrTimeout
	case errors.Is(err, context.Canceled):
		sentinel = ports.ErrContextCanceled
	default:
		sentinel = ports.ErrDataSourceUnavailable
	}
	c.logger.Error(ctx, err, "Backend request failed", map[string]interface{}{"config": cfg.Key()})
	return fmt.Errorf("fetch %s: %w: %w", cfg.Key(), sentinel, err)
}

// statusError maps a non-2xx response onto a ports error, using the API's
// {"detail": ...} message when present.
func statusError(status int, payload []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	var body struct {
		Detail string `json:"detail"`
	}
	detail := strings.TrimSpace(string(payload))
	if json.Unmarshal(payload, &body) == nil && body.Detail != "" {
		detail = body.Detail
	}

	var sentinel error
	switch {
	case status == http.StatusNotFound:
		sentinel = ports.ErrNotFound
	case status == http.StatusTooManyRequests:
		sentinel = ports.ErrRateLimited
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		sentinel = ports.ErrAuthenticationFailed
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		sentinel = ports.ErrInvalidRequest
	default:
		sentinel = ports.ErrDataSourceUnavailable
	}
	return fmt.Errorf("backend status %d: %s: %w", status, detail, sentinel)
}
