// Package overpass provides a minimal OSM Overpass API client for counting
// point features around a coordinate.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/nightwatch/internal/geo"
	"github.com/sells-group/nightwatch/internal/resilience"
)

const defaultBaseURL = "https://overpass-api.de/api/interpreter"

// Client counts OSM features near a point.
type Client interface {
	CountNodes(ctx context.Context, center geo.Coordinate, radiusMeters int, tagKey, tagValue string) (int, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default interpreter URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetry overrides the default retry policy. MaxAttempts of 1 disables
// retries.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

// WithRateLimit overrides the default outbound request rate. Public Overpass
// instances shed load aggressively, so the default is conservative.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates an Overpass interpreter client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(2), 2),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type interpreterResponse struct {
	Elements []json.RawMessage `json:"elements"`
}

// CountNodes returns the number of nodes tagged tagKey=tagValue within
// radiusMeters of center. Transient interpreter failures are retried before
// the error is surfaced.
func (c *httpClient) CountNodes(ctx context.Context, center geo.Coordinate, radiusMeters int, tagKey, tagValue string) (int, error) {
	query := fmt.Sprintf(
		`[out:json];node(around:%d,%f,%f)[%q=%q];out;`,
		radiusMeters, center.Lat, center.Lng, tagKey, tagValue,
	)

	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) (int, error) {
		return c.countOnce(ctx, query)
	})
}

func (c *httpClient) countOnce(ctx context.Context, query string) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, eris.Wrap(err, "overpass: rate limit")
	}

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, eris.Wrap(err, "overpass: create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, eris.Wrap(err, "overpass: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("overpass: unexpected status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return 0, resilience.NewTransientError(err, resp.StatusCode)
		}
		return 0, err
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, eris.Wrap(err, "overpass: read body")
	}

	var parsed interpreterResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return 0, eris.Wrap(err, "overpass: parse response")
	}
	return len(parsed.Elements), nil
}
