package signal

import (
	"context"

	"github.com/sells-group/nightwatch/internal/geo"
)

// AccidentProvider estimates historical accident risk for a point.
//
// No usable realtime accident API exists for this region, so the provider
// returns its configured fallback constant unconditionally. This is a
// documented degraded mode kept behind the same provider shape as the live
// signals, ready to be swapped for a real source.
type AccidentProvider struct {
	fallback int
}

// NewAccidentProvider builds the provider with its fallback constant.
func NewAccidentProvider(fallback int) *AccidentProvider {
	return &AccidentProvider{fallback: fallback}
}

// Count returns the accident-risk count for a coordinate.
func (p *AccidentProvider) Count(ctx context.Context, center geo.Coordinate) int {
	return p.fallback
}
