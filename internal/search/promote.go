package search

import (
	"sort"

	"github.com/google/uuid"

	"github.com/FACorreiaa/go-directory-search/internal/types"
)

func promotable(l types.Listing) bool {
	return l.IsSponsored || l.SubscriptionPlan == types.PlanProfessional || l.SubscriptionPlan == types.PlanPremium
}

// SponsoredSuggestions picks up to count approved, promoted listings that are
// not in exclude, ordered by tier, then views, then id. It ignores query relevance.
func SponsoredSuggestions(catalogue []types.Listing, exclude map[uuid.UUID]struct{}, count int) []types.Listing {
	if count <= 0 {
		return []types.Listing{}
	}

	candidates := make([]types.Listing, 0)
	for _, l := range catalogue {
		if !l.IsApproved || !promotable(l) {
			continue
		}
		if _, skip := exclude[l.ID]; skip {
			continue
		}
		candidates = append(candidates, l)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if ta, tb := a.SubscriptionPlan.Tier(), b.SubscriptionPlan.Tier(); ta != tb {
			return ta > tb
		}
		if a.ViewCount != b.ViewCount {
			return a.ViewCount > b.ViewCount
		}
		return a.ID.String() < b.ID.String()
	})

	if len(candidates) > count {
		candidates = candidates[:count]
	}
	return candidates
}
