package search

import (
	"math"
	"sort"

	"github.com/FACorreiaa/go-directory-search/internal/types"
)

const (
	titleMatchBonus       = 0.5
	descriptionMatchBonus = 0.25
	ratingBonus           = 0.5
	galleryBonus          = 0.25
	minAverageRating      = 4.0
	minGalleryImages      = 3
)

func subscriptionBoost(plan types.SubscriptionPlan) float64 {
	switch plan {
	case types.PlanStarter:
		return 0.5
	case types.PlanProfessional:
		return 1.0
	case types.PlanPremium:
		return 1.5
	default:
		return 0
	}
}

// Rank scores every candidate against q and sorts by score descending.
// Ties go to the newer listing, then to the smaller id. No candidate is dropped.
func (e *Engine) Rank(candidates []types.Listing, q types.SearchQuery) []types.RankedListing {
	ranked := make([]types.RankedListing, 0, len(candidates))
	for _, l := range candidates {
		ranked = append(ranked, e.score(l, q))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.RankingScore != b.RankingScore {
			return a.RankingScore > b.RankingScore
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
	return ranked
}

func (e *Engine) score(l types.Listing, q types.SearchQuery) types.RankedListing {
	factors := types.RankingFactors{
		SubscriptionBoost: subscriptionBoost(l.SubscriptionPlan),
		RelevanceScore:    1.0,
		LocationBoost:     1.0,
		QualityScore:      1.0,
	}
	if l.IsSponsored {
		factors.SponsoredBoost = 1.0
	}

	if q.Text != "" {
		if containsFold(l.Title, q.Text) {
			factors.RelevanceScore += titleMatchBonus
		}
		if containsFold(l.Description, q.Text) {
			factors.RelevanceScore += descriptionMatchBonus
		}
	}

	var distance *float64
	if q.Origin != nil && !q.Origin.IsZero() {
		d := e.opts.Distances.DistanceKm(*q.Origin, l.Location.Point())
		distance = &d
		factors.LocationBoost = locationBoost(d, q.RadiusKm)
	}

	if avg, ok := l.AverageRating(); ok && avg >= minAverageRating {
		factors.QualityScore += ratingBonus
	}
	if len(l.Images) >= minGalleryImages {
		factors.QualityScore += galleryBonus
	}

	return types.RankedListing{
		Listing:        l,
		RankingScore:   factors.Total(),
		RankingFactors: factors,
		IsPromoted:     factors.SponsoredBoost > 0,
		DistanceKm:     distance,
	}
}

// locationBoost decays linearly from 1 at the origin to 0 at the radius.
func locationBoost(distanceKm, radiusKm float64) float64 {
	if radiusKm <= 0 {
		if distanceKm <= 0 {
			return 1.0
		}
		return 0
	}
	boost := 1.0 - distanceKm/radiusKm
	if math.IsNaN(boost) || boost < 0 {
		return 0
	}
	if boost > 1 {
		return 1
	}
	return boost
}
