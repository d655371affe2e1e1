// Package safety runs the night-safety scoring pipeline: resolve a place,
// gather signals, then fuse a numeric score and classify a label. The
// heatmap variant repeats the per-point pipeline over a grid around the
// resolved center.
package safety

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/nightwatch/internal/config"
	"github.com/sells-group/nightwatch/internal/geo"
	"github.com/sells-group/nightwatch/internal/scorer"
	"github.com/sells-group/nightwatch/internal/signal"
	"github.com/sells-group/nightwatch/pkg/geocode"
)

// Resolver maps a place name to a coordinate.
type Resolver interface {
	Resolve(ctx context.Context, place string) (geo.Coordinate, error)
}

// SignalSource gathers the safety signals for a point.
type SignalSource interface {
	Collect(ctx context.Context, center geo.Coordinate) signal.SafetySignals
}

// Labeler is the read-only classifier artifact plus its label encoder.
type Labeler interface {
	Predict(features []float64) (int, error)
	Decode(code int) (string, error)
}

// Label values produced by the classifier artifact.
const (
	LabelSafe     = "Safe"
	LabelModerate = "Moderate"
	LabelUnsafe   = "Unsafe"
)

// Heatmap point colors.
const (
	ColorGreen  = "green"
	ColorOrange = "orange"
	ColorRed    = "red"
)

// ScoreResult is the outcome of a single-point scoring request.
type ScoreResult struct {
	Place      string               `json:"place"`
	Coordinate geo.Coordinate       `json:"coordinate"`
	Score      float64              `json:"score"`
	Label      string               `json:"label"`
	Signals    signal.SafetySignals `json:"signals"`
}

// HeatmapPoint is one classified grid cell.
type HeatmapPoint struct {
	Coordinate geo.Coordinate `json:"coordinate"`
	Label      string         `json:"label"`
	Color      string         `json:"color"`
}

// Heatmap is the classified grid around a resolved place.
type Heatmap struct {
	Place  string         `json:"place"`
	Center geo.Coordinate `json:"center"`
	Points []HeatmapPoint `json:"points"`
}

// Service orchestrates the scoring pipeline. All shared state (classifier,
// gazetteer behind the resolver) is read-only, so one Service serves
// unlimited concurrent requests.
type Service struct {
	resolver   Resolver
	signals    SignalSource
	model      Labeler
	scorerCfg  config.ScorerConfig
	missingDst float64
	heatmapCfg config.HeatmapConfig
}

// NewService builds the pipeline.
func NewService(
	resolver Resolver,
	signals SignalSource,
	model Labeler,
	scorerCfg config.ScorerConfig,
	classifierCfg config.ClassifierConfig,
	heatmapCfg config.HeatmapConfig,
) *Service {
	if heatmapCfg.Concurrency <= 0 {
		heatmapCfg.Concurrency = 5
	}
	return &Service{
		resolver:   resolver,
		signals:    signals,
		model:      model,
		scorerCfg:  scorerCfg,
		missingDst: classifierCfg.MissingDistanceMeters,
		heatmapCfg: heatmapCfg,
	}
}

// Score resolves a place and produces its composite score and label.
func (s *Service) Score(ctx context.Context, place string) (*ScoreResult, error) {
	center, err := s.resolve(ctx, place)
	if err != nil {
		return nil, err
	}

	sig := s.signals.Collect(ctx, center)
	score := scorer.Fuse(s.scorerCfg, sig)

	label, err := s.classify(sig)
	if err != nil {
		return nil, err
	}

	zap.L().Info("scored place",
		zap.String("place", place),
		zap.Float64("score", score),
		zap.String("label", label),
		zap.Bool("police_present", sig.PoliceDistance.Valid),
	)

	return &ScoreResult{
		Place:      place,
		Coordinate: center,
		Score:      score,
		Label:      label,
		Signals:    sig,
	}, nil
}

// HeatmapFor resolves a place and classifies the surrounding grid. Per-point
// pipelines run with bounded fan-out; the returned points preserve the
// grid's row-major order regardless of completion order.
func (s *Service) HeatmapFor(ctx context.Context, place string) (*Heatmap, error) {
	center, err := s.resolve(ctx, place)
	if err != nil {
		return nil, err
	}

	grid := geo.Grid(center, s.heatmapCfg.StepDegrees, s.heatmapCfg.HalfWidth)
	points := make([]HeatmapPoint, len(grid))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.heatmapCfg.Concurrency)

	for i, cell := range grid {
		i, cell := i, cell
		g.Go(func() error {
			sig := s.signals.Collect(gCtx, cell)
			label, err := s.classify(sig)
			if err != nil {
				return err
			}
			points[i] = HeatmapPoint{Coordinate: cell, Label: label, Color: colorFor(label)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	zap.L().Info("built heatmap",
		zap.String("place", place),
		zap.Int("points", len(points)),
	)

	return &Heatmap{Place: place, Center: center, Points: points}, nil
}

func (s *Service) resolve(ctx context.Context, place string) (geo.Coordinate, error) {
	if strings.TrimSpace(place) == "" {
		return geo.Coordinate{}, ErrPlaceRequired
	}

	center, err := s.resolver.Resolve(ctx, place)
	if err != nil {
		if errors.Is(err, geocode.ErrNotFound) {
			return geo.Coordinate{}, &NotFoundError{Place: place}
		}
		return geo.Coordinate{}, err
	}
	return center, nil
}

// classify builds the fixed-order feature vector and decodes the model's
// prediction. An absent police distance substitutes the classifier's own
// missing-distance default, which is intentionally independent of the score
// fusion's step threshold.
func (s *Service) classify(sig signal.SafetySignals) (string, error) {
	distance := s.missingDst
	if sig.PoliceDistance.Valid {
		distance = sig.PoliceDistance.Meters
	}

	features := []float64{
		float64(sig.StreetlightCount),
		float64(sig.AccidentCount),
		distance,
	}

	code, err := s.model.Predict(features)
	if err != nil {
		return "", &ClassifierError{Err: err}
	}
	label, err := s.model.Decode(code)
	if err != nil {
		return "", &ClassifierError{Err: err}
	}
	return label, nil
}

func colorFor(label string) string {
	switch label {
	case LabelUnsafe:
		return ColorRed
	case LabelModerate:
		return ColorOrange
	default:
		return ColorGreen
	}
}
