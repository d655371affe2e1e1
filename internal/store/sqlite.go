package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteCache implements Cache using modernc.org/sqlite.
type SQLiteCache struct {
	db      *sql.DB
	ttlDays int
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode. A ttlDays of 0 or less disables expiry.
func NewSQLite(dsn string, ttlDays int) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteCache{db: db, ttlDays: ttlDays}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	place_hash TEXT PRIMARY KEY,
	lat        REAL NOT NULL,
	lng        REAL NOT NULL,
	matched    INTEGER NOT NULL,
	source     TEXT NOT NULL,
	cached_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_geocode_cache_cached_at ON geocode_cache(cached_at);
`

func (s *SQLiteCache) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteCache) Close() error {
	return s.db.Close()
}

func (s *SQLiteCache) Get(ctx context.Context, key string) (*CachedLocation, error) {
	query := `SELECT lat, lng, matched, source, cached_at FROM geocode_cache WHERE place_hash = ?`
	if s.ttlDays > 0 {
		query += fmt.Sprintf(` AND cached_at > datetime('now', '-%d days')`, s.ttlDays)
	}

	var loc CachedLocation
	var matched int
	err := s.db.QueryRowContext(ctx, query, key).Scan(&loc.Lat, &loc.Lng, &matched, &loc.Source, &loc.CachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cache entry")
	}
	loc.Matched = matched != 0
	return &loc, nil
}

func (s *SQLiteCache) Put(ctx context.Context, key string, loc CachedLocation) error {
	cachedAt := loc.CachedAt
	if cachedAt.IsZero() {
		cachedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO geocode_cache (place_hash, lat, lng, matched, source, cached_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (place_hash) DO UPDATE SET
			lat = excluded.lat,
			lng = excluded.lng,
			matched = excluded.matched,
			source = excluded.source,
			cached_at = excluded.cached_at`,
		key, loc.Lat, loc.Lng, boolToInt(loc.Matched), loc.Source, cachedAt,
	)
	return eris.Wrap(err, "sqlite: put cache entry")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
