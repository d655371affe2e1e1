// Package places provides a Google Places API (New) client scoped to the
// nearby-search operation the police-proximity signal needs.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/nightwatch/internal/geo"
)

const defaultBaseURL = "https://places.googleapis.com/v1"

// ErrNoAPIKey indicates the client was built without credentials. Callers
// treat this the same as any other lookup failure.
var ErrNoAPIKey = eris.New("places: api key not configured")

// Client performs Google Places API operations.
type Client interface {
	NearbySearch(ctx context.Context, center geo.Coordinate, radiusMeters int, category string) ([]geo.Coordinate, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default outbound request rate.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Google Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(10), 10),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type nearbySearchRequest struct {
	IncludedTypes       []string `json:"includedTypes"`
	MaxResultCount      int      `json:"maxResultCount"`
	LocationRestriction struct {
		Circle struct {
			Center struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"center"`
			Radius float64 `json:"radius"`
		} `json:"circle"`
	} `json:"locationRestriction"`
}

type nearbySearchResponse struct {
	Places []struct {
		Location struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"location"`
	} `json:"places"`
}

// NearbySearch returns the coordinates of places of the given category
// within radiusMeters of center. An empty slice means no results.
func (c *httpClient) NearbySearch(ctx context.Context, center geo.Coordinate, radiusMeters int, category string) ([]geo.Coordinate, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "places: rate limit")
	}

	var searchReq nearbySearchRequest
	searchReq.IncludedTypes = []string{category}
	searchReq.MaxResultCount = 10
	searchReq.LocationRestriction.Circle.Center.Latitude = center.Lat
	searchReq.LocationRestriction.Circle.Center.Longitude = center.Lng
	searchReq.LocationRestriction.Circle.Radius = float64(radiusMeters)

	body, err := json.Marshal(searchReq)
	if err != nil {
		return nil, eris.Wrap(err, "places: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/places:searchNearby", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "places: create request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", "places.location")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "places: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("places: unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "places: read body")
	}

	var searchResp nearbySearchResponse
	if err := json.Unmarshal(raw, &searchResp); err != nil {
		return nil, eris.Wrap(err, "places: parse response")
	}

	coords := make([]geo.Coordinate, 0, len(searchResp.Places))
	for _, p := range searchResp.Places {
		coords = append(coords, geo.Coordinate{Lat: p.Location.Latitude, Lng: p.Location.Longitude})
	}
	return coords, nil
}
