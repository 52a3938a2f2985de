// Package api provides a client for the SubKiller backend's JSON API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/subkill/internal/metrics"
)

const (
	// DefaultBaseURL is used when neither config nor flags name a backend.
	DefaultBaseURL = "http://localhost:8080"

	maxBodySize = 1 << 20 // 1 MB

	initDataHeader  = "X-Telegram-Init-Data"
	requestIDHeader = "X-Request-ID"
)

var (
	// ErrNetwork marks failures where no HTTP response was received.
	ErrNetwork = errors.New("api: network error")
	// ErrDecode marks a 2xx response whose body could not be parsed.
	ErrDecode = errors.New("api: malformed response")
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api: %s: unexpected status %d", e.Endpoint, e.Code)
}

// IsStatus reports whether err carries the given HTTP status.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// IsNetwork reports whether err is a transport-level failure.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// Client talks to the backend. It is safe for concurrent use.
type Client struct {
	baseURL   string
	initData  string
	userAgent string
	timeout   time.Duration
	http      *http.Client
	log       logrus.FieldLogger
	metrics   *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithInitData attaches the host launch data to every request.
func WithInitData(initData string) Option {
	return func(c *Client) { c.initData = strings.TrimSpace(initData) }
}

// WithLogger sets the logger used for per-request lines.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) { c.log = l }
}

// WithMetrics records every request into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithTimeout bounds each request. Zero means no client-side limit.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	c := &Client{
		baseURL:   baseURL,
		userAgent: "subkill/1.0",
		http:      &http.Client{},
		log:       quiet,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalized backend address.
func (c *Client) BaseURL() string { return c.baseURL }

// do performs one request. in, when non-nil, is sent as a JSON body; out,
// when non-nil, receives the decoded response.
func (c *Client) do(ctx context.Context, method, endpoint, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("api: encoding %s body: %w", endpoint, err)
		}
		body = bytes.NewReader(buf)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("api: creating %s request: %w", endpoint, err)
	}

	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(requestIDHeader, reqID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.initData != "" {
		req.Header.Set(initDataHeader, c.initData)
	}

	log := c.log.WithFields(logrus.Fields{
		"endpoint":   endpoint,
		"method":     method,
		"request_id": reqID,
	})

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(endpoint, "network", time.Since(start))
		log.WithError(err).Warn("request failed")
		return fmt.Errorf("api: %s: %w: %w", endpoint, ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	elapsed := time.Since(start)
	c.metrics.ObserveRequest(endpoint, strconv.Itoa(resp.StatusCode), elapsed)
	log = log.WithFields(logrus.Fields{"status": resp.StatusCode, "duration": elapsed})

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		log.Warn("unexpected status")
		return &StatusError{Endpoint: endpoint, Code: resp.StatusCode}
	}
	log.Debug("request ok")

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(out); err != nil {
		return fmt.Errorf("api: parsing %s: %w: %w", endpoint, ErrDecode, err)
	}
	return nil
}
