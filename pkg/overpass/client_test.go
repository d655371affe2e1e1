package overpass

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/nightwatch/internal/geo"
	"github.com/sells-group/nightwatch/internal/resilience"
)

func noRetry() Option {
	return WithRetry(resilience.RetryConfig{MaxAttempts: 1})
}

func fastRetry(attempts int) Option {
	return WithRetry(resilience.RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	})
}

func TestCountNodes_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		query := r.PostForm.Get("data")
		assert.Contains(t, query, "around:500")
		assert.Contains(t, query, `"highway"="street_lamp"`)
		assert.Contains(t, query, "[out:json]")

		w.Write([]byte(`{"elements": [
			{"type": "node", "id": 1},
			{"type": "node", "id": 2},
			{"type": "node", "id": 3}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), noRetry())
	count, err := c.CountNodes(context.Background(), geo.Coordinate{Lat: 19.0760, Lng: 72.8777}, 500, "highway", "street_lamp")

	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestCountNodes_ZeroElements(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"elements": []}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), noRetry())
	count, err := c.CountNodes(context.Background(), geo.Coordinate{}, 500, "highway", "street_lamp")

	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCountNodes_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"elements": [{"type": "node", "id": 1}]}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), fastRetry(3), WithRateLimit(1000, 1000))
	count, err := c.CountNodes(context.Background(), geo.Coordinate{}, 500, "highway", "street_lamp")

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCountNodes_PermanentStatusDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), fastRetry(3), WithRateLimit(1000, 1000))
	_, err := c.CountNodes(context.Background(), geo.Coordinate{}, 500, "highway", "street_lamp")

	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCountNodes_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?><osm/>`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), noRetry())
	_, err := c.CountNodes(context.Background(), geo.Coordinate{}, 500, "highway", "street_lamp")

	assert.Error(t, err)
}

func TestCountNodes_QueryEscapesTag(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		got = r.PostForm.Get("data")
		w.Write([]byte(`{"elements": []}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), noRetry())
	_, err := c.CountNodes(context.Background(), geo.Coordinate{Lat: 1, Lng: 2}, 250, "amenity", "police")

	require.NoError(t, err)
	assert.True(t, strings.Contains(got, `node(around:250,`), got)
	assert.Contains(t, got, `"amenity"="police"`)
}
