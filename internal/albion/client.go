package albion

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public Americas-server data project endpoint.
const DefaultBaseURL = "https://west.albion-online-data.com/api/v2"

const userAgent = "albion-trader/1.0"

// Client is a rate-limited client for the price data service.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
}

// NewClient creates a client against baseURL. Every request is bounded by timeout
// and paced to requestsPerSecond (burst 5); requestsPerSecond <= 0 disables pacing.
func NewClient(baseURL string, timeout time.Duration, requestsPerSecond float64) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	r := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")
	return &Client{
		http:    r,
		limiter: rate.NewLimiter(limit, 5),
	}
}

// HealthCheck pings the gold endpoint with a single sample to verify connectivity.
func (c *Client) HealthCheck(ctx context.Context) bool {
	var points []GoldPoint
	return c.GetJSON(ctx, "health", GoldURL(1), &points) == nil
}

// GetJSON fetches path (relative to the base URL) and decodes JSON into dst.
// Every failure is returned as a *FetchError.
func (c *Client) GetJSON(ctx context.Context, op, path string, dst interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &FetchError{Op: op, URL: path, Err: err}
	}

	resp, err := c.http.R().SetContext(ctx).Get(path)
	if err != nil {
		return &FetchError{Op: op, URL: path, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return &FetchError{Op: op, URL: path, Status: resp.StatusCode()}
	}
	if err := json.Unmarshal(resp.Body(), dst); err != nil {
		return &FetchError{Op: op, URL: path, Err: err}
	}
	return nil
}
