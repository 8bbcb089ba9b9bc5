package webapi

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"breedmirror/pkg/errors"
	"breedmirror/pkg/logger"
	"breedmirror/pkg/ratelimit"
	"breedmirror/pkg/retry"
)

// Default values for client configuration
const (
	// DefaultPollInterval is how long the rate-limit gate sleeps between
	// rechecks. A low value yields more requests within the limits, a
	// high value costs less CPU at a lower request rate.
	DefaultPollInterval = 100 * time.Millisecond

	// DefaultHistoryRetention is how long completed requests stay in the
	// request history before being pruned.
	DefaultHistoryRetention = 2 * time.Second

	// Recommended by the Requests docs the original tooling followed
	DefaultConnectTimeout = 3050 * time.Millisecond
	DefaultReadTimeout    = 27 * time.Second
)

// Config holds per-instance settings for a rate-limited API client
type Config struct {
	// APIRoot is the base URL all endpoints are resolved against
	APIRoot string

	// OAuthToken, when set, is sent as an OAuth Authorization header
	OAuthToken string

	// Limits are checked in order before every request; all of them
	// must be satisfied for a request to proceed
	Limits []ratelimit.Limit

	// PollInterval is the rate-limit gate recheck interval
	PollInterval time.Duration

	// HistoryRetention bounds how long request records are kept
	HistoryRetention time.Duration

	// Connect/read timeout pair for the HTTP transport
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration

	// Proxy optionally rewrites outgoing URLs through a CORS relay
	Proxy Proxy
}

// Client performs HTTP requests against one API root while keeping the
// outbound request rate within every configured limit. Each instance
// owns its request history exclusively; requests are dispatched in the
// order they are issued.
type Client struct {
	cfg        Config
	limits     []ratelimit.Limit
	window     *ratelimit.SlidingWindow
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient creates a rate-limited API client
func NewClient(cfg Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.HistoryRetention <= 0 {
		cfg.HistoryRetention = DefaultHistoryRetention
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}

	limits := make([]ratelimit.Limit, 0, len(cfg.Limits))
	limits = append(limits, cfg.Limits...)
	if cfg.Proxy != nil {
		// The relay's own budget gates our requests too
		limits = append(limits, cfg.Proxy.Limits()...)
	}

	return &Client{
		cfg:    cfg,
		limits: limits,
		window: ratelimit.NewSlidingWindow(),
		httpClient: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   cfg.ConnectTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				ResponseHeaderTimeout: cfg.ReadTimeout,
			},
		},
		logger: log,
	}
}

// RatePerPeriod returns the number of requests dispatched during the
// trailing period.
func (c *Client) RatePerPeriod(period time.Duration) int {
	now := time.Now()
	c.window.Prune(c.cfg.HistoryRetention, now)
	return c.window.CountInWindow(period, now)
}

// Send performs one HTTP request to an API endpoint. It blocks until
// every configured rate limit permits the request, records the dispatch,
// and applies the suppression policy to the response. A non-suppressed
// 4xx/5xx is returned as a StatusError annotated with the response body.
func (c *Client) Send(ctx context.Context, req Request) (*http.Response, error) {
	if err := c.waitForLimits(ctx); err != nil {
		return nil, err
	}

	url := c.buildURL(req)

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range c.constructHeaders(req.Headers) {
		httpReq.Header.Set(key, value)
	}

	// Register the dispatch before sending so subsequent limiter checks
	// see this request whether it succeeds or fails.
	c.window.Record(time.Now())

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    url,
	})

	resp, err := c.httpClient.Do(httpReq)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      url,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
			Code:    0,
		}
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      url,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return RaiseForStatus(resp, req.Suppress)
}

// waitForLimits blocks until the current request rate is back within
// every configured limit, rechecking each one in order.
func (c *Client) waitForLimits(ctx context.Context) error {
	for _, limit := range c.limits {
		for {
			now := time.Now()
			c.window.Prune(c.cfg.HistoryRetention, now)
			if c.window.CountInWindow(limit.Period, now) < limit.MaxRequests {
				break
			}
			if err := retry.Wait(ctx, c.cfg.PollInterval); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildURL resolves the endpoint against the API root and encodes the
// query parameters, routing through the proxy when one is configured.
func (c *Client) buildURL(req Request) string {
	url := strings.TrimSuffix(c.cfg.APIRoot, "/") + "/" + strings.TrimPrefix(req.Endpoint, "/")
	if len(req.Params) > 0 {
		url += "?" + req.Params.Encode()
	}
	if c.cfg.Proxy != nil {
		url = c.cfg.Proxy.RewriteURL(url)
	}
	return url
}

// constructHeaders merges the common headers with caller-supplied ones;
// caller headers win on key collision.
func (c *Client) constructHeaders(headers map[string]string) map[string]string {
	result := map[string]string{
		"Accept":     "application/json",
		"Connection": "keep-alive",
		"Keep-Alive": "timeout=60",
	}
	if c.cfg.OAuthToken != "" {
		result["Authorization"] = "OAuth " + c.cfg.OAuthToken
	}
	if c.cfg.Proxy != nil {
		for key, value := range c.cfg.Proxy.Headers() {
			result[key] = value
		}
	}
	for key, value := range headers {
		result[key] = value
	}
	return result
}
