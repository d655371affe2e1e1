package signal

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/nightwatch/internal/geo"
	"github.com/sells-group/nightwatch/pkg/overpass"
)

const (
	streetlightTagKey   = "highway"
	streetlightTagValue = "street_lamp"
)

// StreetlightProvider measures street lighting coverage via OSM point
// features.
type StreetlightProvider struct {
	client          overpass.Client
	radiusMeters    int
	fallbackCount   int
	fallbackDensity float64
	timeout         time.Duration
}

// NewStreetlightProvider builds the provider. A non-positive timeout
// defaults to 15s.
func NewStreetlightProvider(client overpass.Client, radiusMeters, fallbackCount int, fallbackDensity float64, timeout time.Duration) *StreetlightProvider {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &StreetlightProvider{
		client:          client,
		radiusMeters:    radiusMeters,
		fallbackCount:   fallbackCount,
		fallbackDensity: fallbackDensity,
		timeout:         timeout,
	}
}

// Density returns the street-lamp count within the radius and the density in
// lamps per square kilometer, rounded to 2 decimal places. Any failure
// (network, parse, timeout) degrades to the configured fallback pair.
func (p *StreetlightProvider) Density(ctx context.Context, center geo.Coordinate) (int, float64) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	count, err := p.client.CountNodes(ctx, center, p.radiusMeters, streetlightTagKey, streetlightTagValue)
	if err != nil {
		zap.L().Debug("streetlight signal degraded",
			zap.Float64("lat", center.Lat),
			zap.Float64("lng", center.Lng),
			zap.Error(err),
		)
		return p.fallbackCount, p.fallbackDensity
	}

	radiusKM := float64(p.radiusMeters) / 1000
	area := math.Pi * radiusKM * radiusKM
	if area <= 0 {
		return count, 0
	}
	return count, round2(float64(count) / area)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
