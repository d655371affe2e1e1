package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgres_Get_Hit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cachedAt := time.Now().UTC().Add(-time.Hour)
	mock.ExpectQuery(`SELECT lat, lng, matched, source, cached_at FROM geocode_cache`).
		WithArgs("hash-mumbai").
		WillReturnRows(
			pgxmock.NewRows([]string{"lat", "lng", "matched", "source", "cached_at"}).
				AddRow(19.0760, 72.8777, true, "google", cachedAt),
		)

	c := NewPostgres(mock, 30)
	got, err := c.Get(context.Background(), "hash-mumbai")

	require.NoError(t, err)
	assert.InDelta(t, 19.0760, got.Lat, 1e-6)
	assert.InDelta(t, 72.8777, got.Lng, 1e-6)
	assert.True(t, got.Matched)
	assert.Equal(t, "google", got.Source)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Get_Miss(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT lat, lng, matched, source, cached_at FROM geocode_cache`).
		WithArgs("absent").
		WillReturnRows(pgxmock.NewRows([]string{"lat", "lng", "matched", "source", "cached_at"}))

	c := NewPostgres(mock, 30)
	_, err = c.Get(context.Background(), "absent")

	assert.ErrorIs(t, err, ErrCacheMiss)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Put(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO geocode_cache`).
		WithArgs("k", 1.0, 2.0, true, "google", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	c := NewPostgres(mock, 30)
	err = c.Put(context.Background(), "k", CachedLocation{Lat: 1, Lng: 2, Matched: true, Source: "google"})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Migrate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS geocode_cache`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	c := NewPostgres(mock, 30)
	require.NoError(t, c.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
