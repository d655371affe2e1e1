package signal

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/sells-group/nightwatch/internal/geo"
)

// Collector joins the three providers for a point. The providers have no
// data dependency on each other, so they run concurrently; since each one
// absorbs its own failures, the join never returns an error.
type Collector struct {
	police       *PoliceProvider
	accidents    *AccidentProvider
	streetlights *StreetlightProvider
}

// NewCollector wires the three providers.
func NewCollector(police *PoliceProvider, accidents *AccidentProvider, streetlights *StreetlightProvider) *Collector {
	return &Collector{police: police, accidents: accidents, streetlights: streetlights}
}

// Collect gathers all signals for a coordinate.
func (c *Collector) Collect(ctx context.Context, center geo.Coordinate) SafetySignals {
	var sig SafetySignals

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sig.PoliceDistance = c.police.Nearest(gCtx, center)
		return nil
	})
	g.Go(func() error {
		sig.AccidentCount = c.accidents.Count(gCtx, center)
		return nil
	})
	g.Go(func() error {
		sig.StreetlightCount, sig.StreetlightDensity = c.streetlights.Density(gCtx, center)
		return nil
	})
	_ = g.Wait()

	return sig
}
