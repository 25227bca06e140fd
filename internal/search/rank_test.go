package search

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-directory-search/internal/types"
)

func TestSubscriptionBoost(t *testing.T) {
	assert.Equal(t, 0.0, subscriptionBoost(types.PlanNone))
	assert.Equal(t, 0.0, subscriptionBoost(types.PlanFree))
	assert.Equal(t, 0.5, subscriptionBoost(types.PlanStarter))
	assert.Equal(t, 1.0, subscriptionBoost(types.PlanProfessional))
	assert.Equal(t, 1.5, subscriptionBoost(types.PlanPremium))
	assert.Equal(t, 0.0, subscriptionBoost("platinum"))
}

func TestLocationBoost(t *testing.T) {
	assert.Equal(t, 1.0, locationBoost(0, 10))
	assert.InDelta(t, 0.5, locationBoost(5, 10), 1e-9)
	assert.Equal(t, 0.0, locationBoost(10, 10))
	assert.Equal(t, 0.0, locationBoost(25, 10))
	assert.Equal(t, 0.0, locationBoost(math.NaN(), 10))
}

func TestEngine_Rank_Factors(t *testing.T) {
	engine := NewEngine(Options{})

	l := newListing(1)
	l.Title = "Boulangerie Dupont"
	l.Description = "Pain au levain, boulangerie artisanale"
	l.SubscriptionPlan = types.PlanStarter
	l.IsSponsored = true
	l.Images = []string{"1.jpg", "2.jpg"}
	l.Reviews = []types.Review{{Rating: 5}, {Rating: 3}}

	t.Run("no text and no origin", func(t *testing.T) {
		ranked := engine.Rank([]types.Listing{l}, normalized(t, engine, types.NewSearchQuery()))
		require.Len(t, ranked, 1)
		assert.Equal(t, types.RankingFactors{
			SubscriptionBoost: 0.5,
			SponsoredBoost:    1.0,
			RelevanceScore:    1.0,
			LocationBoost:     1.0,
			QualityScore:      1.5,
		}, ranked[0].RankingFactors)
		assert.Equal(t, 5.0, ranked[0].RankingScore)
		assert.True(t, ranked[0].IsPromoted)
		assert.Nil(t, ranked[0].DistanceKm)
	})

	t.Run("title and description match", func(t *testing.T) {
		q := types.NewSearchQuery()
		q.Text = "Boulangerie"
		ranked := engine.Rank([]types.Listing{l}, normalized(t, engine, q))
		assert.Equal(t, 1.75, ranked[0].RankingFactors.RelevanceScore)
	})

	t.Run("description only match", func(t *testing.T) {
		q := types.NewSearchQuery()
		q.Text = "levain"
		ranked := engine.Rank([]types.Listing{l}, normalized(t, engine, q))
		assert.Equal(t, 1.25, ranked[0].RankingFactors.RelevanceScore)
	})

	t.Run("origin sets distance and decays boost", func(t *testing.T) {
		away := l
		away.Location.City = "Creysse"
		away.Location.Latitude, away.Location.Longitude = 0, 0

		q := types.NewSearchQuery()
		q.Origin = &types.GeoPoint{City: "Bergerac"}
		ranked := engine.Rank([]types.Listing{away}, normalized(t, engine, q))
		require.NotNil(t, ranked[0].DistanceKm)
		assert.Equal(t, 5.0, *ranked[0].DistanceKm)
		assert.InDelta(t, 0.5, ranked[0].RankingFactors.LocationBoost, 1e-9)
	})

	t.Run("gallery and rating bonus", func(t *testing.T) {
		rich := l
		rich.Images = []string{"1.jpg", "2.jpg", "3.jpg"}
		rich.Reviews = []types.Review{{Rating: 4}}
		ranked := engine.Rank([]types.Listing{rich}, normalized(t, engine, types.NewSearchQuery()))
		assert.Equal(t, 1.75, ranked[0].RankingFactors.QualityScore)
	})

	t.Run("low rating earns nothing", func(t *testing.T) {
		poor := l
		poor.Reviews = []types.Review{{Rating: 2}, {Rating: 3}}
		ranked := engine.Rank([]types.Listing{poor}, normalized(t, engine, types.NewSearchQuery()))
		assert.Equal(t, 1.0, ranked[0].RankingFactors.QualityScore)
	})
}

func TestEngine_Rank_TieBreak(t *testing.T) {
	engine := NewEngine(Options{})

	older := newListing(1)
	older.CreatedAt = baseTime

	newer := newListing(2)
	newer.CreatedAt = baseTime.Add(time.Hour)

	sameTimeHigh := newListing(9)
	sameTimeHigh.CreatedAt = baseTime

	premium := newListing(3)
	premium.SubscriptionPlan = types.PlanPremium
	premium.CreatedAt = baseTime.Add(-time.Hour)

	ranked := engine.Rank([]types.Listing{sameTimeHigh, older, premium, newer}, normalized(t, engine, types.NewSearchQuery()))
	got := make([]uuid.UUID, 0, len(ranked))
	for _, r := range ranked {
		got = append(got, r.ID)
	}
	assert.Equal(t, []uuid.UUID{listingID(3), listingID(2), listingID(1), listingID(9)}, got)
}

func TestEngine_Rank_KeepsEveryCandidate(t *testing.T) {
	engine := NewEngine(Options{})
	candidates := []types.Listing{newListing(1), newListing(2), newListing(3)}
	candidates[2].IsApproved = false

	ranked := engine.Rank(candidates, normalized(t, engine, types.NewSearchQuery()))
	assert.Len(t, ranked, 3)
}
