package safety

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// GeoJSON renders the heatmap as a FeatureCollection of points, one feature
// per grid cell with its label and color as properties. Coordinates follow
// the GeoJSON axis order (lng, lat).
func (h *Heatmap) GeoJSON() ([]byte, error) {
	fc := &geojson.FeatureCollection{
		Features: make([]*geojson.Feature, 0, len(h.Points)),
	}
	for _, p := range h.Points {
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: geom.NewPointFlat(geom.XY, []float64{p.Coordinate.Lng, p.Coordinate.Lat}),
			Properties: map[string]interface{}{
				"label": p.Label,
				"color": p.Color,
			},
		})
	}

	out, err := fc.MarshalJSON()
	if err != nil {
		return nil, eris.Wrap(err, "safety: marshal heatmap geojson")
	}
	return out, nil
}
