package search

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/FACorreiaa/go-directory-search/internal/geo"
	"github.com/FACorreiaa/go-directory-search/internal/types"
)

const (
	MinRadiusKm          = 1.0
	MaxRadiusKm          = 60.0
	DefaultMaxResultsCap = 200
	MaxQueryLength       = 500
	DefaultSuggestions   = 3
)

var (
	ErrNegativeRadius = errors.New("radius must not be negative")
	ErrQueryTooLong   = errors.New("search text is too long")
	ErrInvalidRadius  = errors.New("radius must be a number")
	ErrInvalidOrigin  = errors.New("origin coordinates must be finite")
)

// QueryError reports a caller bug in a search query.
type QueryError struct {
	Field string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("invalid query field %q: %v", e.Field, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// AmenityRule says which listings satisfy a named amenity. There is no
// structured opening-hours or facilities data, so satisfaction is a static
// allow-list by category or by listing id.
type AmenityRule struct {
	Categories []string
	ListingIDs []uuid.UUID
}

func (r AmenityRule) satisfiedBy(l types.Listing) bool {
	for _, c := range r.Categories {
		if c == l.Category {
			return true
		}
	}
	for _, id := range r.ListingIDs {
		if id == l.ID {
			return true
		}
	}
	return false
}

// DefaultAmenityRules returns the built-in amenity heuristics.
func DefaultAmenityRules() map[string]AmenityRule {
	return map[string]AmenityRule{
		"open_24_7":  {},
		"parking":    {Categories: []string{"Hotels", "Supermarkets", "Garages", "Leisure"}},
		"wifi":       {Categories: []string{"Hotels", "Cafes", "Restaurants"}},
		"terrace":    {Categories: []string{"Restaurants", "Cafes", "Bars"}},
		"accessible": {Categories: []string{"Health", "Hotels", "Supermarkets", "Public Services"}},
	}
}

// HomeOrigin is the directory's home city, used when a caller asks for
// nearby results without a resolved location.
var HomeOrigin = types.GeoPoint{
	City:        "Bergerac",
	Coordinates: &types.Coordinates{Latitude: 44.8530, Longitude: 0.4823},
}

// Options configures an Engine. Zero values fall back to defaults.
type Options struct {
	Distances       *geo.DistanceTable
	Amenities       map[string]AmenityRule
	SuggestionCount int
	MaxResultsCap   int
	Home            *types.GeoPoint
}

func (o Options) withDefaults() Options {
	if o.Distances == nil {
		o.Distances = geo.DefaultTable()
	}
	if o.Amenities == nil {
		o.Amenities = DefaultAmenityRules()
	}
	if o.SuggestionCount < 0 {
		o.SuggestionCount = 0
	} else if o.SuggestionCount == 0 {
		o.SuggestionCount = DefaultSuggestions
	}
	if o.MaxResultsCap <= 0 {
		o.MaxResultsCap = DefaultMaxResultsCap
	}
	if o.Home == nil || o.Home.IsZero() {
		home := HomeOrigin
		o.Home = &home
	}
	return o
}
