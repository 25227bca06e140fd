// Package search ranks and filters directory listings for a query.
//
// The engine is a pure computation: it reads a caller-supplied catalogue,
// never mutates it, and keeps no state between calls. An Engine is
// immutable after construction and safe for concurrent use.
package search

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/FACorreiaa/go-directory-search/internal/types"
)

type Engine struct {
	opts Options
}

func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts.withDefaults()}
}

// Distances exposes the engine's distance table for ad hoc lookups.
func (e *Engine) Distances() DistanceFunc {
	return e.opts.Distances.DistanceKm
}

// DistanceFunc measures two points in kilometres.
type DistanceFunc func(a, b types.GeoPoint) float64

// Normalize validates q and returns a clamped copy. A negative or NaN radius,
// non-finite origin coordinates and an oversized text are caller bugs and
// fail; everything else is clamped.
func (e *Engine) Normalize(q types.SearchQuery) (types.SearchQuery, error) {
	if math.IsNaN(q.RadiusKm) {
		return types.SearchQuery{}, &QueryError{Field: "radius_km", Err: ErrInvalidRadius}
	}
	if q.RadiusKm < 0 {
		return types.SearchQuery{}, &QueryError{Field: "radius_km", Err: ErrNegativeRadius}
	}
	if utf8.RuneCountInString(q.Text) > MaxQueryLength {
		return types.SearchQuery{}, &QueryError{Field: "q", Err: ErrQueryTooLong}
	}
	if q.Origin != nil && !q.Origin.Finite() {
		return types.SearchQuery{}, &QueryError{Field: "origin", Err: ErrInvalidOrigin}
	}

	n := q
	n.Text = strings.ToLower(strings.TrimSpace(q.Text))
	n.Category = strings.TrimSpace(q.Category)

	switch {
	case n.RadiusKm < MinRadiusKm:
		n.RadiusKm = MinRadiusKm
	case n.RadiusKm > MaxRadiusKm:
		n.RadiusKm = MaxRadiusKm
	}

	switch {
	case n.MaxResults < 1:
		n.MaxResults = 1
	case n.MaxResults > e.opts.MaxResultsCap:
		n.MaxResults = e.opts.MaxResultsCap
	}

	if n.Origin != nil {
		origin := *n.Origin
		if origin.IsZero() {
			n.Origin = nil
		} else {
			n.Origin = &origin
		}
	}
	if n.Origin == nil && n.NearMe {
		home := *e.opts.Home
		n.Origin = &home
	}

	if len(q.Amenities) > 0 {
		n.Amenities = append([]string(nil), q.Amenities...)
	}
	return n, nil
}

// Search filters, ranks and truncates catalogue for q and attaches sponsored
// suggestions that are not already among the results.
func (e *Engine) Search(catalogue []types.Listing, q types.SearchQuery) (types.SearchResult, error) {
	nq, err := e.Normalize(q)
	if err != nil {
		return types.SearchResult{}, err
	}

	ranked := e.Rank(e.Filter(catalogue, nq), nq)
	if len(ranked) > nq.MaxResults {
		ranked = ranked[:nq.MaxResults]
	}

	shown := make(map[uuid.UUID]struct{}, len(ranked))
	for _, r := range ranked {
		shown[r.ID] = struct{}{}
	}

	return types.SearchResult{
		Results:     ranked,
		Suggestions: SponsoredSuggestions(catalogue, shown, e.opts.SuggestionCount),
	}, nil
}
