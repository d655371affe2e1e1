package places

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/nightwatch/internal/geo"
)

func TestNearbySearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/places:searchNearby", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
		assert.Equal(t, "places.location", r.Header.Get("X-Goog-FieldMask"))

		var req nearbySearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"police"}, req.IncludedTypes)
		assert.InDelta(t, 2000, req.LocationRestriction.Circle.Radius, 0.001)
		assert.InDelta(t, 19.0760, req.LocationRestriction.Circle.Center.Latitude, 1e-6)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"places": [
			{"location": {"latitude": 19.08, "longitude": 72.88}},
			{"location": {"latitude": 19.07, "longitude": 72.87}}
		]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	coords, err := c.NearbySearch(context.Background(), geo.Coordinate{Lat: 19.0760, Lng: 72.8777}, 2000, "police")

	require.NoError(t, err)
	require.Len(t, coords, 2)
	assert.Equal(t, geo.Coordinate{Lat: 19.08, Lng: 72.88}, coords[0])
	assert.Equal(t, geo.Coordinate{Lat: 19.07, Lng: 72.87}, coords[1])
}

func TestNearbySearch_EmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	coords, err := c.NearbySearch(context.Background(), geo.Coordinate{}, 2000, "police")

	require.NoError(t, err)
	assert.Empty(t, coords)
}

func TestNearbySearch_MissingKey(t *testing.T) {
	c := NewClient("")
	_, err := c.NearbySearch(context.Background(), geo.Coordinate{}, 2000, "police")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestNearbySearch_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "denied"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.NearbySearch(context.Background(), geo.Coordinate{}, 2000, "police")

	assert.Error(t, err)
}

func TestNearbySearch_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.NearbySearch(context.Background(), geo.Coordinate{}, 2000, "police")

	assert.Error(t, err)
}

func TestNearbySearch_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // immediately, so the dial fails

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.NearbySearch(context.Background(), geo.Coordinate{}, 2000, "police")

	assert.Error(t, err)
}
