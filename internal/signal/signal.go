// Package signal gathers the independent safety signals for a coordinate.
// Every provider is fault-isolated: a dead collaborator degrades the signal
// to its documented fallback, and no error ever crosses a provider boundary.
package signal

// Distance is a police-station distance that may be absent. Absence is not
// zero: downstream consumers apply their own (and deliberately different)
// substitution policies.
type Distance struct {
	Meters float64
	Valid  bool
}

// PresentDistance returns a present Distance value.
func PresentDistance(meters float64) Distance {
	return Distance{Meters: meters, Valid: true}
}

// SafetySignals is the joined output of all three providers for one point.
type SafetySignals struct {
	StreetlightCount   int      `json:"streetlight_count"`
	StreetlightDensity float64  `json:"streetlight_density"`
	AccidentCount      int      `json:"accident_count"`
	PoliceDistance     Distance `json:"-"`
}
