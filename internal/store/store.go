// Package store persists geocode lookups so repeated requests for the same
// place skip the online geocoding collaborator. Computed scores are never
// stored.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// ErrCacheMiss indicates no fresh cache entry exists for a key.
var ErrCacheMiss = eris.New("store: cache miss")

// CachedLocation is one cached geocode result. Matched=false entries record
// a negative lookup so unresolvable places do not hammer the collaborator.
type CachedLocation struct {
	Lat      float64   `json:"lat"`
	Lng      float64   `json:"lng"`
	Matched  bool      `json:"matched"`
	Source   string    `json:"source"`
	CachedAt time.Time `json:"cached_at"`
}

// Cache defines the geocode cache interface.
type Cache interface {
	// Get returns the cached location for a key, or ErrCacheMiss when no
	// entry exists or the entry has aged past the configured TTL.
	Get(ctx context.Context, key string) (*CachedLocation, error)

	// Put inserts or refreshes the entry for a key.
	Put(ctx context.Context, key string, loc CachedLocation) error

	// Migrate creates the cache schema if needed.
	Migrate(ctx context.Context) error

	Close() error
}
