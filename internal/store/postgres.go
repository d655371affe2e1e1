package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the cache needs; pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresCache implements Cache using pgx.
type PostgresCache struct {
	pool    Pool
	ttlDays int
}

// NewPostgres wraps an existing pool. A ttlDays of 0 or less disables expiry.
func NewPostgres(pool Pool, ttlDays int) *PostgresCache {
	return &PostgresCache{pool: pool, ttlDays: ttlDays}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	place_hash TEXT PRIMARY KEY,
	lat        DOUBLE PRECISION NOT NULL,
	lng        DOUBLE PRECISION NOT NULL,
	matched    BOOLEAN NOT NULL,
	source     TEXT NOT NULL,
	cached_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_geocode_cache_cached_at ON geocode_cache(cached_at);
`

func (p *PostgresCache) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (p *PostgresCache) Close() error {
	p.pool.Close()
	return nil
}

func (p *PostgresCache) Get(ctx context.Context, key string) (*CachedLocation, error) {
	query := `SELECT lat, lng, matched, source, cached_at FROM geocode_cache WHERE place_hash = $1`
	if p.ttlDays > 0 {
		query += fmt.Sprintf(` AND cached_at > now() - interval '%d days'`, p.ttlDays)
	}

	var loc CachedLocation
	err := p.pool.QueryRow(ctx, query, key).Scan(&loc.Lat, &loc.Lng, &loc.Matched, &loc.Source, &loc.CachedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get cache entry")
	}
	return &loc, nil
}

func (p *PostgresCache) Put(ctx context.Context, key string, loc CachedLocation) error {
	cachedAt := loc.CachedAt
	if cachedAt.IsZero() {
		cachedAt = time.Now().UTC()
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO geocode_cache (place_hash, lat, lng, matched, source, cached_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (place_hash) DO UPDATE SET
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng,
			matched = EXCLUDED.matched,
			source = EXCLUDED.source,
			cached_at = EXCLUDED.cached_at`,
		key, loc.Lat, loc.Lng, loc.Matched, loc.Source, cachedAt,
	)
	return eris.Wrap(err, "postgres: put cache entry")
}
