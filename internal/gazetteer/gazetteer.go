// Package gazetteer holds the fixed table of known localities used as the
// primary, offline geocoding source.
package gazetteer

import (
	_ "embed"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/nightwatch/internal/geo"
)

//go:embed gazetteer.yaml
var gazetteerYAML []byte

// Gazetteer maps normalized place names to coordinates. Loaded once at
// startup and never mutated, so concurrent lookups need no locking.
type Gazetteer struct {
	entries map[string]geo.Coordinate
}

type entry struct {
	Lat float64 `yaml:"lat"`
	Lng float64 `yaml:"lng"`
}

// Load parses the embedded locality table.
func Load() (*Gazetteer, error) {
	var raw map[string]entry
	if err := yaml.Unmarshal(gazetteerYAML, &raw); err != nil {
		return nil, eris.Wrap(err, "gazetteer: parse table")
	}

	entries := make(map[string]geo.Coordinate, len(raw))
	for name, e := range raw {
		entries[Normalize(name)] = geo.Coordinate{Lat: e.Lat, Lng: e.Lng}
	}
	return &Gazetteer{entries: entries}, nil
}

// Lookup returns the tabulated coordinate for a place name, matching
// case- and whitespace-insensitively.
func (g *Gazetteer) Lookup(place string) (geo.Coordinate, bool) {
	c, ok := g.entries[Normalize(place)]
	return c, ok
}

// Len reports the number of tabulated localities.
func (g *Gazetteer) Len() int {
	return len(g.entries)
}

// stripMarks removes combining diacritical marks so spellings like
// "Bengalūru" hit the same entry as "bengaluru".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var lower = cases.Lower(language.Und)

// Normalize canonicalizes a place name for table lookup and cache keying.
func Normalize(place string) string {
	s := strings.TrimSpace(place)
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}
	return lower.String(s)
}
