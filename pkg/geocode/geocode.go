// Package geocode resolves free-text place names to coordinates. Resolution
// is gazetteer-first: the fixed offline table is consulted before any online
// provider, and a resolver never surfaces a transport fault — every outcome
// is either a coordinate or ErrNotFound.
package geocode

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/nightwatch/internal/gazetteer"
	"github.com/sells-group/nightwatch/internal/geo"
	"github.com/sells-group/nightwatch/internal/store"
)

// ErrNotFound indicates no provider could resolve the place name.
var ErrNotFound = eris.New("geocode: place not found")

// Result is a single provider outcome.
type Result struct {
	Coordinate geo.Coordinate
	Source     string
	Matched    bool
}

// Provider represents a single online geocoding backend.
type Provider interface {
	Name() string
	Available() bool
	Geocode(ctx context.Context, place string) (*Result, error)
}

// Resolver tries the gazetteer, then the cache, then each online provider in
// order. Provider errors are absorbed; the caller sees only a coordinate or
// ErrNotFound.
type Resolver struct {
	table     *gazetteer.Gazetteer
	providers []Provider
	cache     store.Cache
}

// ResolverOption configures the Resolver.
type ResolverOption func(*Resolver)

// WithCache attaches a geocode cache consulted for online lookups only;
// gazetteer hits never touch it.
func WithCache(c store.Cache) ResolverOption {
	return func(r *Resolver) {
		r.cache = c
	}
}

// NewResolver builds a Resolver over the gazetteer and online providers.
func NewResolver(table *gazetteer.Gazetteer, providers []Provider, opts ...ResolverOption) *Resolver {
	r := &Resolver{table: table, providers: providers}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve maps a place name to a coordinate or ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, place string) (geo.Coordinate, error) {
	normalized := gazetteer.Normalize(place)
	if normalized == "" {
		return geo.Coordinate{}, ErrNotFound
	}

	if c, ok := r.table.Lookup(normalized); ok {
		return c, nil
	}

	key := cacheKey(normalized)
	if r.cache != nil {
		if cached, err := r.cache.Get(ctx, key); err == nil {
			if !cached.Matched {
				return geo.Coordinate{}, ErrNotFound
			}
			zap.L().Debug("geocode cache hit", zap.String("key", key[:12]))
			return geo.Coordinate{Lat: cached.Lat, Lng: cached.Lng}, nil
		}
	}

	for _, p := range r.providers {
		if !p.Available() {
			continue
		}
		result, err := p.Geocode(ctx, normalized)
		if err != nil {
			zap.L().Debug("geocode provider error, trying next",
				zap.String("provider", p.Name()),
				zap.Error(err),
			)
			continue
		}
		if result != nil && result.Matched {
			r.storeCache(ctx, key, store.CachedLocation{
				Lat:     result.Coordinate.Lat,
				Lng:     result.Coordinate.Lng,
				Matched: true,
				Source:  result.Source,
			})
			return result.Coordinate, nil
		}
	}

	// All providers missed; cache the negative result so the next lookup
	// for the same unknown place stays offline.
	r.storeCache(ctx, key, store.CachedLocation{Matched: false, Source: "cascade"})
	return geo.Coordinate{}, ErrNotFound
}

func (r *Resolver) storeCache(ctx context.Context, key string, loc store.CachedLocation) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Put(ctx, key, loc); err != nil {
		zap.L().Debug("geocode cache write failed", zap.Error(err))
	}
}

// cacheKey returns SHA-256 hex of the normalized place name.
func cacheKey(normalized string) string {
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", h)
}
