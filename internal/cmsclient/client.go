package cmsclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rambosorn/khadimy/internal/config"
	"github.com/rambosorn/khadimy/internal/metrics"
)

// MaxResponseSize is the maximum response body size (10MB)
const MaxResponseSize = 10 * 1024 * 1024

// FetchError is returned for a non-2xx response.
type FetchError struct {
	Method   string
	Endpoint string
	Status   int
	Body     string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("content API error %d on %s %s: %s", e.Status, e.Method, e.Endpoint, e.Body)
}

// Client issues requests against the content API. It keeps no state between
// calls and never retries.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client for baseURL, normalised with config.NormalizeBaseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: config.NormalizeBaseURL(baseURL),
		http:    &http.Client{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalised base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL builds baseURL + "/api" + endpoint + "?" + query.
func (c *Client) URL(endpoint string, params Params) string {
	u := c.baseURL + "/api" + endpoint
	if q := BuildQuery(params, "").Encode(); q != "" {
		u += "?" + q
	}
	return u
}

// Fetch performs one GET and returns the raw JSON body.
func (c *Client) Fetch(ctx context.Context, endpoint string, params Params) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(endpoint, params), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, endpoint)
}

// Get fetches endpoint and normalizes the response.
func (c *Client) Get(ctx context.Context, endpoint string, params Params) (Result, error) {
	body, err := c.Fetch(ctx, endpoint, params)
	if err != nil {
		return Result{}, err
	}
	res, err := Normalize(body)
	if err != nil {
		return Result{}, fmt.Errorf("GET %s: %w", endpoint, err)
	}
	return res, nil
}

// Post sends {data: payload} to endpoint and returns the raw JSON body.
func (c *Client) Post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	raw, err := json.Marshal(map[string]any{"data": payload})
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(endpoint, nil), bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, endpoint)
}

func (c *Client) do(req *http.Request, endpoint string) ([]byte, error) {
	start := time.Now()
	method := req.Method
	defer func() {
		metrics.CMSRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}()

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.CMSRequestsTotal.WithLabelValues(method, "transport_error").Inc()
		c.logger.Error("content API request failed",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		metrics.CMSRequestsTotal.WithLabelValues(method, "transport_error").Inc()
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if len(body) > MaxResponseSize {
		metrics.CMSRequestsTotal.WithLabelValues(method, "transport_error").Inc()
		return nil, fmt.Errorf("response body too large: %d bytes (max %d)", len(body), MaxResponseSize)
	}

	c.logger.Debug("content API request",
		zap.String("method", method),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.CMSRequestsTotal.WithLabelValues(method, "http_error").Inc()
		return nil, &FetchError{Method: method, Endpoint: endpoint, Status: resp.StatusCode, Body: string(body)}
	}

	metrics.CMSRequestsTotal.WithLabelValues(method, "ok").Inc()
	return body, nil
}
