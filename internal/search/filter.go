package search

import (
	"strings"

	"github.com/FACorreiaa/go-directory-search/internal/geo"
	"github.com/FACorreiaa/go-directory-search/internal/types"
)

// Filter returns the listings of catalogue that satisfy q. The query must
// already be normalized: free text lower-cased and radius clamped.
// Output order follows the catalogue but carries no meaning.
func (e *Engine) Filter(catalogue []types.Listing, q types.SearchQuery) []types.Listing {
	filtered := make([]types.Listing, 0, len(catalogue))
	for _, l := range catalogue {
		if e.matches(l, q) {
			filtered = append(filtered, l)
		}
	}
	return filtered
}

func (e *Engine) matches(l types.Listing, q types.SearchQuery) bool {
	if !l.IsApproved {
		return false
	}

	if q.Text != "" && !containsFold(l.Title, q.Text) && !containsFold(l.Description, q.Text) &&
		!containsFold(l.Location.FullAddress(), q.Text) {
		return false
	}

	if q.Category != "" && q.Category != types.CategoryAll && q.Category != l.Category {
		return false
	}

	if q.Origin != nil && !q.Origin.IsZero() {
		sameCity := geo.SameCity(q.Origin.City, l.Location.City)
		// Negated so a NaN distance from bad stored coordinates fails too.
		if !sameCity && !(e.opts.Distances.DistanceKm(*q.Origin, l.Location.Point()) <= q.RadiusKm) {
			return false
		}
	}

	if q.VerifiedOnly && !l.IsVerified {
		return false
	}

	if q.SubscribersOnly && !l.HasActiveSubscription {
		return false
	}

	for _, amenity := range q.Amenities {
		rule, ok := e.opts.Amenities[amenity]
		if !ok || !rule.satisfiedBy(l) {
			return false
		}
	}

	return true
}

// containsFold expects needle to be lower-cased already.
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}
