package types

import "math"

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GeoPoint is either a coordinate pair, a city name, or both.
type GeoPoint struct {
	City        string       `json:"city,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// IsZero reports whether the point carries neither a city nor coordinates.
func (p GeoPoint) IsZero() bool {
	return p.City == "" && p.Coordinates == nil
}

// Finite reports whether the point's coordinates, if any, are real numbers.
func (p GeoPoint) Finite() bool {
	if p.Coordinates == nil {
		return true
	}
	return isFinite(p.Coordinates.Latitude) && isFinite(p.Coordinates.Longitude)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

const (
	DefaultRadiusKm   = 10.0
	DefaultMaxResults = 50
	CategoryAll       = "all"
)

// SearchQuery describes one search intent. It is never mutated by the engine.
type SearchQuery struct {
	Text            string    `json:"q,omitempty"`
	Category        string    `json:"category,omitempty"`
	Origin          *GeoPoint `json:"origin,omitempty"`
	NearMe          bool      `json:"near_me,omitempty"`
	RadiusKm        float64   `json:"radius_km"`
	VerifiedOnly    bool      `json:"verified_only,omitempty"`
	SubscribersOnly bool      `json:"subscribers_only,omitempty"`
	Amenities       []string  `json:"amenities,omitempty"`
	MaxResults      int       `json:"max_results"`
}

// NewSearchQuery returns a query carrying the default radius and result cap.
func NewSearchQuery() SearchQuery {
	return SearchQuery{
		RadiusKm:   DefaultRadiusKm,
		MaxResults: DefaultMaxResults,
	}
}

type SearchResult struct {
	Results     []RankedListing `json:"results"`
	Suggestions []Listing       `json:"suggestions"`
}

type FeedSlotKind string

const (
	FeedSlotListing FeedSlotKind = "listing"
	FeedSlotAd      FeedSlotKind = "ad"
)

// FeedSlot is one entry of an ad-interleaved result stream.
type FeedSlot struct {
	Kind    FeedSlotKind   `json:"kind"`
	Listing *RankedListing `json:"listing,omitempty"`
	AdSlot  int            `json:"ad_slot,omitempty"`
}

// SearchResponse is what the HTTP surface returns for a search.
type SearchResponse struct {
	SearchResult
	Feed []FeedSlot `json:"feed,omitempty"`
}

// ListingDetail is a single listing with an optional distance from the caller.
type ListingDetail struct {
	Listing
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// CityDistance is one symmetric entry of the city-pair distance table.
type CityDistance struct {
	From       string  `json:"from" yaml:"from"`
	To         string  `json:"to" yaml:"to"`
	DistanceKm float64 `json:"distance_km" yaml:"distance_km"`
}
