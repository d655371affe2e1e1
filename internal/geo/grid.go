package geo

// Grid builds a square grid of coordinates centered on a point. Offsets run
// row-major over i, j in [-halfWidth, halfWidth] at the given angular step
// in degrees, so a halfWidth of 2 yields 25 points. At mid-latitudes a step
// of 0.005 degrees is roughly 550 m.
//
// The row-major order is part of the contract: callers rely on it to place
// concurrent per-point results deterministically.
func Grid(center Coordinate, stepDegrees float64, halfWidth int) []Coordinate {
	side := 2*halfWidth + 1
	points := make([]Coordinate, 0, side*side)
	for i := -halfWidth; i <= halfWidth; i++ {
		for j := -halfWidth; j <= halfWidth; j++ {
			points = append(points, Coordinate{
				Lat: center.Lat + float64(i)*stepDegrees,
				Lng: center.Lng + float64(j)*stepDegrees,
			})
		}
	}
	return points
}
