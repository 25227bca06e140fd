package search

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-directory-search/internal/types"
)

func filterIDs(listings []types.Listing) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.ID)
	}
	return out
}

func normalized(t *testing.T, e *Engine, q types.SearchQuery) types.SearchQuery {
	t.Helper()
	n, err := e.Normalize(q)
	require.NoError(t, err)
	return n
}

func TestEngine_Filter(t *testing.T) {
	open24 := listingID(5)
	engine := NewEngine(Options{
		Amenities: map[string]AmenityRule{
			"open_24_7": {ListingIDs: []uuid.UUID{open24}},
			"parking":   {Categories: []string{"Hotels"}},
		},
	})

	restaurant := newListing(1)
	restaurant.Title = "Chez Marcel"
	restaurant.Description = "Cuisine périgourdine"
	restaurant.Location.Address = "12 rue Neuve d'Argenson"
	restaurant.Location.PostalCode = "24100"
	restaurant.IsVerified = true

	hotel := newListing(2)
	hotel.Title = "Hôtel de France"
	hotel.Category = "Hotels"
	hotel.HasActiveSubscription = true
	hotel.SubscriptionPlan = types.PlanStarter

	unapproved := newListing(3)
	unapproved.IsApproved = false
	unapproved.IsVerified = true

	pharmacy := newListing(5)
	pharmacy.Title = "Pharmacie du Centre"
	pharmacy.Category = "Health"
	pharmacy.IsVerified = true

	catalogue := []types.Listing{restaurant, hotel, unapproved, pharmacy}

	tests := []struct {
		name  string
		query func(q *types.SearchQuery)
		want  []uuid.UUID
	}{
		{
			name:  "no facets keeps every approved listing",
			query: func(q *types.SearchQuery) {},
			want:  []uuid.UUID{listingID(1), listingID(2), listingID(5)},
		},
		{
			name:  "text matches description case-insensitively",
			query: func(q *types.SearchQuery) { q.Text = "PÉRIGOURDINE" },
			want:  []uuid.UUID{listingID(1)},
		},
		{
			name:  "text matches postal code",
			query: func(q *types.SearchQuery) { q.Text = "24100" },
			want:  []uuid.UUID{listingID(1)},
		},
		{
			name:  "text matches street",
			query: func(q *types.SearchQuery) { q.Text = "argenson" },
			want:  []uuid.UUID{listingID(1)},
		},
		{
			name:  "verified only",
			query: func(q *types.SearchQuery) { q.VerifiedOnly = true },
			want:  []uuid.UUID{listingID(1), listingID(5)},
		},
		{
			name:  "subscribers only",
			query: func(q *types.SearchQuery) { q.SubscribersOnly = true },
			want:  []uuid.UUID{listingID(2)},
		},
		{
			name:  "amenity by category",
			query: func(q *types.SearchQuery) { q.Amenities = []string{"parking"} },
			want:  []uuid.UUID{listingID(2)},
		},
		{
			name:  "amenity by listing id",
			query: func(q *types.SearchQuery) { q.Amenities = []string{"open_24_7"} },
			want:  []uuid.UUID{listingID(5)},
		},
		{
			name:  "every requested amenity must hold",
			query: func(q *types.SearchQuery) { q.Amenities = []string{"open_24_7", "parking"} },
			want:  []uuid.UUID{},
		},
		{
			name:  "unknown amenity matches nothing",
			query: func(q *types.SearchQuery) { q.Amenities = []string{"helipad"} },
			want:  []uuid.UUID{},
		},
		{
			name: "origin outside radius by table distance",
			query: func(q *types.SearchQuery) {
				q.Origin = &types.GeoPoint{City: "Périgueux"}
				q.RadiusKm = 20
			},
			want: []uuid.UUID{},
		},
		{
			name: "origin within radius by table distance",
			query: func(q *types.SearchQuery) {
				q.Origin = &types.GeoPoint{City: "Périgueux"}
				q.RadiusKm = 50
			},
			want: []uuid.UUID{listingID(1), listingID(2), listingID(5)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := types.NewSearchQuery()
			tt.query(&q)
			got := engine.Filter(catalogue, normalized(t, engine, q))
			assert.ElementsMatch(t, tt.want, filterIDs(got))
		})
	}
}

func TestEngine_Filter_UnresolvableDistanceUsesFallback(t *testing.T) {
	engine := NewEngine(Options{})

	l := newListing(1)
	l.Location.City = "Nowhere"
	l.Location.Latitude, l.Location.Longitude = 0, 0

	q := types.NewSearchQuery()
	q.Origin = &types.GeoPoint{City: "Bergerac"}

	q.RadiusKm = 29
	assert.Empty(t, engine.Filter([]types.Listing{l}, normalized(t, engine, q)))

	q.RadiusKm = 30
	assert.Len(t, engine.Filter([]types.Listing{l}, normalized(t, engine, q)), 1)
}

func TestEngine_Filter_DoesNotMutateCatalogue(t *testing.T) {
	engine := NewEngine(Options{})
	catalogue := []types.Listing{newListing(1), newListing(2)}
	catalogue[1].IsApproved = false
	snapshot := append([]types.Listing(nil), catalogue...)

	_ = engine.Filter(catalogue, normalized(t, engine, types.NewSearchQuery()))
	assert.Equal(t, snapshot, catalogue)
}
