// Package scorer fuses the safety signals into the composite 0–10 score.
package scorer

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/nightwatch/internal/config"
	"github.com/sells-group/nightwatch/internal/signal"
)

// DefaultConfig returns a config.ScorerConfig with the production weights.
// Weights sum to 1.
func DefaultConfig() config.ScorerConfig {
	return config.ScorerConfig{
		DensityWeight:    0.30,
		AccidentWeight:   0.25,
		PoliceWeight:     0.20,
		CrowdWeight:      0.25,
		DensityCeiling:   30,
		AccidentCeiling:  10,
		PoliceNearMeters: 1000,
		PoliceFarCredit:  0.4,
		CrowdRating:      4.2,
	}
}

// WeightSum returns the sum of all component weights.
func WeightSum(c config.ScorerConfig) float64 {
	return c.DensityWeight + c.AccidentWeight + c.PoliceWeight + c.CrowdWeight
}

// ValidateConfig checks that a ScorerConfig is internally consistent.
func ValidateConfig(c config.ScorerConfig) error {
	var errs []string

	weights := map[string]float64{
		"density_weight":  c.DensityWeight,
		"accident_weight": c.AccidentWeight,
		"police_weight":   c.PoliceWeight,
		"crowd_weight":    c.CrowdWeight,
	}
	for name, w := range weights {
		if w < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	// Weights should sum to 1 (allow tolerance for floating-point).
	if sum := WeightSum(c); math.Abs(sum-1) > 0.01 {
		errs = append(errs, fmt.Sprintf("weights should sum to 1, got %.3f", sum))
	}

	if c.DensityCeiling <= 0 {
		errs = append(errs, "density_ceiling must be > 0")
	}
	if c.AccidentCeiling <= 0 {
		errs = append(errs, "accident_ceiling must be > 0")
	}
	if c.PoliceNearMeters <= 0 {
		errs = append(errs, "police_near_meters must be > 0")
	}
	if c.PoliceFarCredit < 0 || c.PoliceFarCredit > 1 {
		errs = append(errs, "police_far_credit must be in [0, 1]")
	}
	if c.CrowdRating < 0 || c.CrowdRating > 5 {
		errs = append(errs, "crowd_rating must be in [0, 5]")
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Fuse computes the composite score for a set of signals, on a 0–10 scale
// rounded to 2 decimal places. Every sub-term is clamped to [0, 1] before
// weighting, so no single signal can push the result out of range.
//
// The police term is a step function rather than a continuous decay: any
// station inside the near threshold earns full credit, everything else
// (including an absent distance) earns the far credit.
func Fuse(c config.ScorerConfig, sig signal.SafetySignals) float64 {
	density := clamp01(sig.StreetlightDensity / c.DensityCeiling)
	accidents := 1 - clamp01(float64(sig.AccidentCount)/c.AccidentCeiling)

	police := c.PoliceFarCredit
	if sig.PoliceDistance.Valid && sig.PoliceDistance.Meters < c.PoliceNearMeters {
		police = 1
	}

	crowd := clamp01(c.CrowdRating / 5)

	score := 10 * (c.DensityWeight*density +
		c.AccidentWeight*accidents +
		c.PoliceWeight*police +
		c.CrowdWeight*crowd)

	return round2(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
