package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance_SamePointIsZero(t *testing.T) {
	for _, c := range []Coordinate{
		{Lat: 0, Lng: 0},
		{Lat: 19.0760, Lng: 72.8777},
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: 89.9, Lng: -179.9},
	} {
		assert.Zero(t, Distance(c, c))
	}
}

func TestDistance_Symmetric(t *testing.T) {
	mumbai := Coordinate{Lat: 19.0760, Lng: 72.8777}
	delhi := Coordinate{Lat: 28.6139, Lng: 77.2090}

	assert.InDelta(t, Distance(mumbai, delhi), Distance(delhi, mumbai), 0.01)
}

func TestDistance_KnownValue(t *testing.T) {
	mumbai := Coordinate{Lat: 19.0760, Lng: 72.8777}
	delhi := Coordinate{Lat: 28.6139, Lng: 77.2090}

	// Mumbai to Delhi is roughly 1150 km.
	d := Distance(mumbai, delhi)
	assert.Greater(t, d, 1_100_000.0)
	assert.Less(t, d, 1_200_000.0)
}

func TestDistance_RoundedToTwoDecimals(t *testing.T) {
	a := Coordinate{Lat: 19.0760, Lng: 72.8777}
	b := Coordinate{Lat: 19.0761, Lng: 72.8778}

	d := Distance(a, b)
	assert.InDelta(t, d, float64(int(d*100))/100, 1e-9)
}

func TestGrid_TwentyFivePointsRowMajor(t *testing.T) {
	center := Coordinate{Lat: 19.0760, Lng: 72.8777}
	points := Grid(center, 0.005, 2)

	require.Len(t, points, 25)

	// First point is the north-west-most offset (-2, -2), last is (+2, +2).
	assert.InDelta(t, center.Lat-0.010, points[0].Lat, 1e-9)
	assert.InDelta(t, center.Lng-0.010, points[0].Lng, 1e-9)
	assert.InDelta(t, center.Lat+0.010, points[24].Lat, 1e-9)
	assert.InDelta(t, center.Lng+0.010, points[24].Lng, 1e-9)

	// Center of the grid is the center coordinate itself.
	assert.Equal(t, center, points[12])

	// Row-major: longitude advances fastest.
	assert.InDelta(t, points[0].Lat, points[1].Lat, 1e-9)
	assert.InDelta(t, points[0].Lng+0.005, points[1].Lng, 1e-9)
	assert.InDelta(t, points[0].Lat+0.005, points[5].Lat, 1e-9)
}

func TestGrid_DegenerateHalfWidth(t *testing.T) {
	center := Coordinate{Lat: 1, Lng: 2}
	points := Grid(center, 0.005, 0)

	require.Len(t, points, 1)
	assert.Equal(t, center, points[0])
}
