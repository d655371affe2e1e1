package signal

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/nightwatch/internal/geo"
	"github.com/sells-group/nightwatch/pkg/places"
)

const policeCategory = "police"

// PoliceProvider resolves the distance to the nearest police station via the
// places collaborator.
type PoliceProvider struct {
	client       places.Client
	radiusMeters int
	timeout      time.Duration
}

// NewPoliceProvider builds the provider. A non-positive timeout defaults to 10s.
func NewPoliceProvider(client places.Client, radiusMeters int, timeout time.Duration) *PoliceProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PoliceProvider{client: client, radiusMeters: radiusMeters, timeout: timeout}
}

// Nearest returns the great-circle distance in meters to the closest police
// station within the search radius. Missing credentials, an empty result set,
// a timeout, or any transport failure all yield an absent Distance.
func (p *PoliceProvider) Nearest(ctx context.Context, center geo.Coordinate) Distance {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	results, err := p.client.NearbySearch(ctx, center, p.radiusMeters, policeCategory)
	if err != nil {
		zap.L().Debug("police signal degraded",
			zap.Float64("lat", center.Lat),
			zap.Float64("lng", center.Lng),
			zap.Error(err),
		)
		return Distance{}
	}
	if len(results) == 0 {
		return Distance{}
	}

	nearest := geo.Distance(center, results[0])
	for _, c := range results[1:] {
		if d := geo.Distance(center, c); d < nearest {
			nearest = d
		}
	}
	return PresentDistance(nearest)
}
