package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/nightwatch/internal/geo"
)

const defaultGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// googleGeocodeResponse is the JSON response from the Google Geocoding API.
type googleGeocodeResponse struct {
	Results []googleResult `json:"results"`
	Status  string         `json:"status"`
}

type googleResult struct {
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

// GoogleProvider geocodes via the Google Geocoding API, with every query
// suffixed to pin results to the service's country context.
type GoogleProvider struct {
	apiKey       string
	baseURL      string
	regionSuffix string
	http         *http.Client
	limiter      *rate.Limiter
}

// GoogleOption configures the provider.
type GoogleOption func(*GoogleProvider)

// WithGoogleBaseURL overrides the default API base URL.
func WithGoogleBaseURL(u string) GoogleOption {
	return func(p *GoogleProvider) {
		p.baseURL = u
	}
}

// WithGoogleHTTPClient overrides the default http.Client.
func WithGoogleHTTPClient(hc *http.Client) GoogleOption {
	return func(p *GoogleProvider) {
		p.http = hc
	}
}

// WithRegionSuffix overrides the country-context suffix appended to queries.
func WithRegionSuffix(suffix string) GoogleOption {
	return func(p *GoogleProvider) {
		p.regionSuffix = suffix
	}
}

// NewGoogleProvider creates a GoogleProvider. An empty apiKey yields a
// provider that reports itself unavailable.
func NewGoogleProvider(apiKey string, opts ...GoogleOption) *GoogleProvider {
	p := &GoogleProvider{
		apiKey:       apiKey,
		baseURL:      defaultGeocodeURL,
		regionSuffix: ", India",
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(10), 10),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Name implements Provider.
func (p *GoogleProvider) Name() string { return "google" }

// Available implements Provider.
func (p *GoogleProvider) Available() bool { return p.apiKey != "" }

// Geocode implements Provider.
func (p *GoogleProvider) Geocode(ctx context.Context, place string) (*Result, error) {
	if p.apiKey == "" {
		return nil, eris.New("geocode: google api key not configured")
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: google rate limit")
	}

	params := url.Values{
		"address": {place + p.regionSuffix},
		"key":     {p.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: google build request")
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: google request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: google returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: google read body")
	}

	var googleResp googleGeocodeResponse
	if err := json.Unmarshal(body, &googleResp); err != nil {
		return nil, eris.Wrap(err, "geocode: google parse response")
	}

	if googleResp.Status != "OK" || len(googleResp.Results) == 0 {
		return &Result{Matched: false, Source: "google"}, nil
	}

	loc := googleResp.Results[0].Geometry.Location
	return &Result{
		Coordinate: geo.Coordinate{Lat: loc.Lat, Lng: loc.Lng},
		Source:     "google",
		Matched:    true,
	}, nil
}
