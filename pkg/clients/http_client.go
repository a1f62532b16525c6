// Package clients provides the HTTP client used to talk to the catalog API
package clients

import (
	"context"
	"crypto/tls"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http2"

	"github.com/mirrorkit/filterlists-etl/pkg/errors"
)

// HTTPClient wraps net/http with a tuned transport and a transport-level
// retry tier for transient status codes on idempotent requests. Callers
// layer their own attempt budget on top of this.
type HTTPClient struct {
	config     *HTTPConfig
	logger     *zap.Logger
	httpClient *http.Client
	transport  *http.Transport
	retry      *RetryPolicy

	totalRequests  int64
	failedRequests int64
}

// HTTPConfig configures the HTTP client
type HTTPConfig struct {
	// Connection settings
	MaxIdleConns        int           `json:"max_idle_conns"`
	MaxIdleConnsPerHost int           `json:"max_idle_conns_per_host"`
	IdleConnTimeout     time.Duration `json:"idle_conn_timeout"`
	DisableKeepAlives   bool          `json:"disable_keep_alives"`

	// HTTP/2 settings
	EnableHTTP2 bool `json:"enable_http2"`

	// Timeouts
	DialTimeout           time.Duration `json:"dial_timeout"`
	TLSHandshakeTimeout   time.Duration `json:"tls_handshake_timeout"`
	ResponseHeaderTimeout time.Duration `json:"response_header_timeout"`
	RequestTimeout        time.Duration `json:"request_timeout"`
	KeepAlive             time.Duration `json:"keep_alive"`

	// TLS settings
	InsecureSkipVerify bool   `json:"insecure_skip_verify"`
	TLSMinVersion      uint16 `json:"tls_min_version"`

	// Transport-level retry for transient statuses on GET/HEAD.
	// MaxRetries is the number of retries beyond the initial try.
	MaxRetries        int           `json:"max_retries"`
	RetryInitialDelay time.Duration `json:"retry_initial_delay"`
	RetryMaxDelay     time.Duration `json:"retry_max_delay"`
	RetryStatuses     []int         `json:"retry_statuses"`

	// UserAgent sent with every request
	UserAgent string `json:"user_agent"`
}

// DefaultHTTPConfig returns the default configuration
func DefaultHTTPConfig() *HTTPConfig {
	return &HTTPConfig{
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		DisableKeepAlives:     false,
		EnableHTTP2:           true,
		DialTimeout:           30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		RequestTimeout:        10 * time.Second,
		KeepAlive:             30 * time.Second,
		InsecureSkipVerify:    false,
		TLSMinVersion:         tls.VersionTLS12,
		MaxRetries:            5,
		RetryInitialDelay:     time.Second,
		RetryMaxDelay:         30 * time.Second,
		RetryStatuses:         []int{429, 500, 502, 503, 504},
		UserAgent:             "filterlists-etl/1.0",
	}
}

// NewHTTPClient creates a new HTTP client
func NewHTTPClient(config *HTTPConfig, logger *zap.Logger) *HTTPClient {
	if config == nil {
		config = DefaultHTTPConfig()
	}

	client := &HTTPClient{
		config: config,
		logger: logger.With(zap.String("component", "http_client")),
		retry: &RetryPolicy{
			// The retry budget is on top of the initial try.
			MaxAttempts:     config.MaxRetries + 1,
			InitialDelay:    config.RetryInitialDelay,
			MaxDelay:        config.RetryMaxDelay,
			Multiplier:      2.0,
			RandomizeFactor: 0.25,
		},
	}

	client.transport = &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   config.DialTimeout,
			KeepAlive: config.KeepAlive,
		}).DialContext,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
		DisableKeepAlives:     config.DisableKeepAlives,
		TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
		ResponseHeaderTimeout: config.ResponseHeaderTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: config.InsecureSkipVerify,
			MinVersion:         config.TLSMinVersion,
		},
	}

	if config.EnableHTTP2 {
		if err := http2.ConfigureTransport(client.transport); err != nil {
			client.logger.Warn("failed to configure HTTP/2", zap.Error(err))
		}
	}

	// The client timeout bounds each individual try; backoff sleeps between
	// retries are excluded, so the full retry budget is always available.
	client.httpClient = &http.Client{
		Transport: client.transport,
		Timeout:   config.RequestTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	return client
}

// Get performs an HTTP GET request with transport-level retries
func (c *HTTPClient) Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodGet, url, headers)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Do performs an HTTP request. Idempotent requests (GET, HEAD) whose try
// fails with a retryable error or a transient status are retried with
// exponential backoff up to the configured retry budget; all other requests
// go through once. Each try is bounded by the client timeout on its own.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	atomic.AddInt64(&c.totalRequests, 1)

	if !c.isIdempotent(req.Method) || c.retry.MaxAttempts <= 1 {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			atomic.AddInt64(&c.failedRequests, 1)
		}
		return resp, err
	}

	var resp *http.Response
	err := c.retry.ExecuteWithCondition(req.Context(), func() error {
		var doErr error
		resp, doErr = c.httpClient.Do(req)
		if doErr != nil {
			if isTimeoutErr(doErr) {
				return errors.Wrap(doErr, errors.ErrorTypeTimeout, "request timed out")
			}
			return errors.Wrap(doErr, errors.ErrorTypeConnection, "request failed")
		}
		if c.isRetryableStatus(resp.StatusCode) {
			// Drain so the connection can be reused across retries.
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			errType := errors.ErrorTypeConnection
			if resp.StatusCode == http.StatusTooManyRequests {
				errType = errors.ErrorTypeRateLimit
			}
			return errors.New(errType, fmt.Sprintf("transient status %d for %s", resp.StatusCode, req.URL)).
				WithDetail("status", resp.StatusCode)
		}
		return nil
	}, errors.IsRetryable)
	if err != nil {
		atomic.AddInt64(&c.failedRequests, 1)
		return nil, err
	}

	return resp, nil
}

// isTimeoutErr reports whether the error is a deadline or network timeout
func isTimeoutErr(err error) bool {
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

// newRequest creates a new HTTP request with default headers applied
func (c *HTTPClient) newRequest(ctx context.Context, method, url string, headers map[string]string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	if req.Header.Get("User-Agent") == "" && c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	return req, nil
}

func (c *HTTPClient) isIdempotent(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

func (c *HTTPClient) isRetryableStatus(status int) bool {
	for _, s := range c.config.RetryStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Stats returns current client statistics
func (c *HTTPClient) Stats() HTTPStats {
	total := atomic.LoadInt64(&c.totalRequests)
	failed := atomic.LoadInt64(&c.failedRequests)

	stats := HTTPStats{
		TotalRequests:  total,
		FailedRequests: failed,
	}
	if total > 0 {
		stats.SuccessRate = float64(total-failed) / float64(total) * 100
	}
	return stats
}

// Close releases idle connections held by the client
func (c *HTTPClient) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}

// HTTPStats represents HTTP client statistics
type HTTPStats struct {
	TotalRequests  int64   `json:"total_requests"`
	FailedRequests int64   `json:"failed_requests"`
	SuccessRate    float64 `json:"success_rate"`
}
