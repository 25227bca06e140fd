package geo

import (
	"bytes"
	_ "embed"
	"fmt"
	"math"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/FACorreiaa/go-directory-search/internal/types"
)

//go:embed city_distances.yml
var embeddedCityDistances []byte

const (
	earthRadiusKm = 6371

	// FallbackDistanceKm is returned when two points cannot be compared.
	FallbackDistanceKm = 30.0
)

type pairKey struct{ a, b string }

func newPairKey(from, to string) pairKey {
	a, b := normalizeCity(from), normalizeCity(to)
	if a > b {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

func normalizeCity(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// DistanceTable is a symmetric lookup of known city-to-city distances.
// It is immutable once built; Merge returns a new table.
type DistanceTable struct {
	pairs    map[pairKey]float64
	fallback float64
}

// NewDistanceTable builds a table from entries. A fallback <= 0 means FallbackDistanceKm.
func NewDistanceTable(entries []types.CityDistance, fallback float64) *DistanceTable {
	if fallback <= 0 {
		fallback = FallbackDistanceKm
	}
	t := &DistanceTable{
		pairs:    make(map[pairKey]float64, len(entries)),
		fallback: fallback,
	}
	for _, e := range entries {
		if e.DistanceKm < 0 || normalizeCity(e.From) == "" || normalizeCity(e.To) == "" {
			continue
		}
		t.pairs[newPairKey(e.From, e.To)] = e.DistanceKm
	}
	return t
}

// ParseDistanceTable reads the YAML table format used by the embedded file.
func ParseDistanceTable(data []byte, fallback float64) (*DistanceTable, error) {
	var doc struct {
		Distances []types.CityDistance `yaml:"distances"`
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode city distance table: %w", err)
	}
	return NewDistanceTable(doc.Distances, fallback), nil
}

// Merge returns a copy of t with entries added on top; later entries win.
func (t *DistanceTable) Merge(entries []types.CityDistance) *DistanceTable {
	merged := &DistanceTable{
		pairs:    make(map[pairKey]float64, len(t.pairs)+len(entries)),
		fallback: t.fallback,
	}
	for k, v := range t.pairs {
		merged.pairs[k] = v
	}
	for k, v := range NewDistanceTable(entries, t.fallback).pairs {
		merged.pairs[k] = v
	}
	return merged
}

// WithFallback returns a copy of t using a different fallback distance.
func (t *DistanceTable) WithFallback(fallback float64) *DistanceTable {
	if fallback <= 0 {
		fallback = FallbackDistanceKm
	}
	c := t.Merge(nil)
	c.fallback = fallback
	return c
}

// Len returns the number of known city pairs.
func (t *DistanceTable) Len() int {
	return len(t.pairs)
}

// Fallback returns the distance used for unresolvable pairs.
func (t *DistanceTable) Fallback() float64 {
	return t.fallback
}

// Lookup returns the tabulated distance between two cities.
func (t *DistanceTable) Lookup(from, to string) (float64, bool) {
	if SameCity(from, to) {
		return 0, true
	}
	d, ok := t.pairs[newPairKey(from, to)]
	return d, ok
}

// DistanceKm returns the distance in kilometres between a and b.
// Coordinates win over city names; a missing lookup yields the fallback
// distance instead of an error.
func (t *DistanceTable) DistanceKm(a, b types.GeoPoint) float64 {
	if a.Coordinates != nil && b.Coordinates != nil {
		return Haversine(a.Coordinates.Latitude, a.Coordinates.Longitude, b.Coordinates.Latitude, b.Coordinates.Longitude)
	}
	if a.City == "" || b.City == "" {
		return t.fallback
	}
	if d, ok := t.Lookup(a.City, b.City); ok {
		return d
	}
	return t.fallback
}

// SameCity compares two city names ignoring case and surrounding spaces.
// Empty names never match.
func SameCity(a, b string) bool {
	na := normalizeCity(a)
	return na != "" && na == normalizeCity(b)
}

// Haversine calculates the great-circle distance between two coordinates in kilometres.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lon1Rad := lon1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lon2Rad := lon2 * math.Pi / 180

	dlat := lat2Rad - lat1Rad
	dlon := lon2Rad - lon1Rad

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

var (
	defaultTable     *DistanceTable
	defaultTableOnce sync.Once
)

// DefaultTable returns the table built from the embedded home-region file.
func DefaultTable() *DistanceTable {
	defaultTableOnce.Do(func() {
		t, err := ParseDistanceTable(embeddedCityDistances, FallbackDistanceKm)
		if err != nil {
			panic(fmt.Sprintf("geo: embedded city distance table is invalid: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// DistanceKm measures a and b against the default table.
func DistanceKm(a, b types.GeoPoint) float64 {
	return DefaultTable().DistanceKm(a, b)
}
