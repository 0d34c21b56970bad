// Package httpds fetches scan reports from the vendor's HTTP endpoint. The
// endpoint is flaky around its nightly publish window, so the client retries
// transient failures with exponential backoff; it is read-only because the
// vendor exposes reports as plain GET resources.
package httpds

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config configures the report client. Zero values get defaults: 30s timeout,
// 3 retries, 200ms initial backoff capped at 5s.
type Config struct {
	// Timeout is the per-request timeout applied at the http.Client level.
	Timeout time.Duration

	// MaxRetries is the number of retry attempts after the initial request.
	MaxRetries int

	// InitialBackoff is the wait before the first retry; each subsequent
	// retry doubles it up to MaxBackoff.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential backoff.
	MaxBackoff time.Duration

	// InsecureSkipVerify disables TLS certificate verification. The vendor's
	// staging endpoint serves a self-signed certificate.
	InsecureSkipVerify bool

	// Transport overrides the default *http.Transport when non-nil.
	Transport http.RoundTripper
}

// Client is an HTTP report fetcher with retry and backoff.
type Client struct {
	httpClient     *http.Client
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration

	// sleep is injectable to make retry tests fast and deterministic.
	sleep func(time.Duration)
}

// NewClient constructs a Client from cfg, applying defaults for zero values.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}

	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // explicitly configurable
			},
		}
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		sleep:          time.Sleep,
	}
}

// Get fetches rawURL, retrying network errors, 429s and 5xx responses with
// exponential backoff. The caller must close the response body. A 4xx other
// than 429 is final: the vendor returns 404 until a report is published, and
// retrying that only delays the "report missing" signal.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("httpds: url must not be empty")
	}

	attempts := c.maxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("httpds: build request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else if !retryableStatus(resp.StatusCode) {
			if resp.StatusCode != http.StatusOK {
				_ = resp.Body.Close()
				return nil, fmt.Errorf("httpds: status %d from GET %s", resp.StatusCode, rawURL)
			}
			return resp, nil
		} else {
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("httpds: retryable status %d from GET %s", resp.StatusCode, rawURL)
		}

		if attempt+1 >= attempts {
			return nil, lastErr
		}
		c.sleep(backoffDuration(c.initialBackoff, attempt, c.maxBackoff))
	}
	return nil, lastErr
}

// retryableStatus reports whether the status should trigger a retry. 5xx and
// 429 are transient; everything else is final.
func retryableStatus(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// backoffDuration returns the backoff for the given 0-based retry index,
// clamped to max.
func backoffDuration(initial time.Duration, attempt int, max time.Duration) time.Duration {
	d := initial << attempt
	if d > max || d <= 0 {
		return max
	}
	return d
}

// URLSource exposes one remote report as a datasource.Source.
type URLSource struct {
	client *Client
	url    string
}

// NewURLSource joins base and remotePath into a single report URL served by
// client. base carries scheme and host; remotePath is the vendor's absolute
// report path, for example /POSReportDaily/report_Xebio_2024-06-29-2024-06-29.xlsx.
func NewURLSource(client *Client, base, remotePath string) *URLSource {
	u := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(remotePath, "/")
	return &URLSource{client: client, url: u}
}

// URL returns the fully joined report URL.
func (s *URLSource) URL() string { return s.url }

// Open fetches the report and returns its body. The body is the response
// stream, so callers should drain or close it promptly.
func (s *URLSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if _, err := url.Parse(s.url); err != nil {
		return nil, fmt.Errorf("httpds: bad report url %q: %w", s.url, err)
	}
	resp, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
