// Package browserbase is a client for the Browserbase session API: it
// provisions remote browsers, reports their status and debug endpoints, and
// releases them.
package browserbase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.browserbase.com/v1"

const (
	retryWaitMin = 500 * time.Millisecond
	retryWaitMax = 10 * time.Second
)

// ErrMissingAPIKey is returned by NewClient when no key is given.
var ErrMissingAPIKey = errors.New("browserbase API key is required")

// Client talks to the Browserbase REST API.
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.resty.SetBaseURL(url)
	}
}

// WithRateLimit caps requests per second; rps <= 0 removes the limit.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetries sets how many times a retryable failure is retried.
func WithRetries(n int) Option {
	return func(c *Client) {
		c.resty.SetRetryCount(n)
	}
}

// WithHTTPClient replaces the underlying transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.resty.SetTransport(hc.Transport)
	}
}

// NewClient creates a client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	// The pooled transport and retry policy come from retryablehttp; resty
	// drives the request loop.
	retryClient := retryablehttp.NewClient()

	r := resty.New().
		SetBaseURL(DefaultBaseURL).
		SetTimeout(60*time.Second).
		SetTransport(retryClient.HTTPClient.Transport).
		SetHeader("X-BB-API-Key", apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "browserbase-mcp").
		SetRetryCount(2).
		SetRetryWaitTime(retryWaitMin).
		SetRetryMaxWaitTime(retryWaitMax).
		AddRetryCondition(shouldRetry).
		SetRetryAfter(retryAfter)

	c := &Client{
		resty:   r,
		limiter: rate.NewLimiter(rate.Limit(5), 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func shouldRetry(r *resty.Response, err error) bool {
	var raw *http.Response
	ctx := context.Background()
	if r != nil {
		raw = r.RawResponse
		if r.Request != nil {
			ctx = r.Request.Context()
		}
	}
	if raw == nil && err == nil {
		return false
	}
	retry, _ := retryablehttp.DefaultRetryPolicy(ctx, raw, err)
	return retry
}

func retryAfter(_ *resty.Client, r *resty.Response) (time.Duration, error) {
	attempt := 1
	var raw *http.Response
	if r != nil {
		raw = r.RawResponse
		if r.Request != nil {
			attempt = r.Request.Attempt
		}
	}
	return retryablehttp.DefaultBackoff(retryWaitMin, retryWaitMax, attempt, raw), nil
}

func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}
	return c.resty.R().SetContext(ctx).SetError(&APIError{}), nil
}

func checkResponse(resp *resty.Response, err error, op string) error {
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if !resp.IsError() {
		return nil
	}
	apiErr, ok := resp.Error().(*APIError)
	if !ok || apiErr == nil {
		apiErr = &APIError{}
	}
	apiErr.StatusCode = resp.StatusCode()
	if apiErr.Message == "" {
		apiErr.Message = string(resp.Body())
	}
	return fmt.Errorf("failed to %s: %w", op, apiErr)
}

// CreateSession provisions a new remote browser.
func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (*Session, error) {
	r, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	var out Session
	resp, err := r.SetBody(req).SetResult(&out).Post("/sessions")
	if err := checkResponse(resp, err, "create session"); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSession fetches a session's current state.
func (c *Client) GetSession(ctx context.Context, id string) (*Session, error) {
	r, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	var out Session
	resp, err := r.SetResult(&out).SetPathParam("id", id).Get("/sessions/{id}")
	if err := checkResponse(resp, err, "get session "+id); err != nil {
		return nil, err
	}
	return &out, nil
}

// Debug returns the live-view and CDP URLs of a running session.
func (c *Client) Debug(ctx context.Context, id string) (*DebugURLs, error) {
	r, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	var out DebugURLs
	resp, err := r.SetResult(&out).SetPathParam("id", id).Get("/sessions/{id}/debug")
	if err := checkResponse(resp, err, "get debug URLs for session "+id); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReleaseSession asks Browserbase to end a session before its timeout.
func (c *Client) ReleaseSession(ctx context.Context, projectID, id string) error {
	r, err := c.request(ctx)
	if err != nil {
		return err
	}
	resp, err := r.
		SetBody(releaseRequest{ProjectID: projectID, Status: "REQUEST_RELEASE"}).
		SetPathParam("id", id).
		Post("/sessions/{id}")
	return checkResponse(resp, err, "release session "+id)
}
