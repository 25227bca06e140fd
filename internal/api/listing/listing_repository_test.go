package listing

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-directory-search/internal/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var listingCols = []string{
	"id", "title", "description", "category", "sub_category",
	"latitude", "longitude", "city", "postal_code", "address",
	"phone", "email", "website",
	"images", "is_verified", "is_approved", "has_active_subscription",
	"subscription_plan", "is_sponsored", "view_count",
	"created_at", "updated_at",
}

var created = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func addListingRow(rows *pgxmock.Rows, id uuid.UUID, title, city, plan string, approved bool) *pgxmock.Rows {
	return rows.AddRow(
		id, title, "Cuisine du Périgord", "Restaurants", "",
		44.853, 0.4823, city, "24100", "1 rue des Fontaines",
		"05 53 00 00 00", "", "",
		[]string{"front.jpg"}, true, approved, plan != "",
		plan, false, int64(12),
		created, created,
	)
}

func TestRepositoryImpl_LoadCatalogue(t *testing.T) {
	ctx := context.Background()
	first := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	second := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	t.Run("attaches reviews to their listing", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()

		rows := pgxmock.NewRows(listingCols)
		addListingRow(rows, first, "Le Cyrano", "Bergerac", "premium", true)
		addListingRow(rows, second, "La Flambée", "Bergerac", "", true)
		pool.ExpectQuery(`SELECT\s+l\.id.*FROM listings l\s+WHERE l\.is_approved = TRUE`).
			WillReturnRows(rows)

		pool.ExpectQuery(`SELECT r\.listing_id, r\.rating, r\.created_at\s+FROM listing_reviews r`).
			WillReturnRows(pgxmock.NewRows([]string{"listing_id", "rating", "created_at"}).
				AddRow(first, 5, created).
				AddRow(first, 4, created).
				AddRow(uuid.New(), 1, created))

		repo := NewRepository(pool, discardLogger())
		got, err := repo.LoadCatalogue(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)

		assert.Equal(t, "Le Cyrano", got[0].Title)
		assert.Equal(t, types.PlanPremium, got[0].SubscriptionPlan)
		assert.True(t, got[0].HasActiveSubscription)
		assert.Equal(t, "Bergerac", got[0].Location.City)
		assert.Equal(t, []string{"front.jpg"}, got[0].Images)
		require.Len(t, got[0].Reviews, 2)
		avg, ok := got[0].AverageRating()
		assert.True(t, ok)
		assert.Equal(t, 4.5, avg)

		assert.Equal(t, types.PlanNone, got[1].SubscriptionPlan)
		assert.Empty(t, got[1].Reviews)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("warns about listings without contact", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()

		rows := pgxmock.NewRows(listingCols)
		addListingRow(rows, first, "Le Cyrano", "Bergerac", "", true)
		rows.AddRow(
			second, "Sans Contact", "", "Restaurants", "",
			44.853, 0.4823, "Bergerac", "24100", "",
			"", "", "",
			[]string{}, false, true, false,
			"", false, int64(0),
			created, created,
		)
		pool.ExpectQuery(`FROM listings l`).WillReturnRows(rows)
		pool.ExpectQuery(`FROM listing_reviews r`).
			WillReturnRows(pgxmock.NewRows([]string{"listing_id", "rating", "created_at"}))

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		got, err := NewRepository(pool, logger).LoadCatalogue(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.True(t, got[0].Reachable())
		assert.False(t, got[1].Reachable())
		assert.Contains(t, buf.String(), "Approved listings without any contact channel")
		assert.Contains(t, buf.String(), "count=1")
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("listing query error", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()

		dbErr := errors.New("connection reset")
		pool.ExpectQuery(`FROM listings l`).WillReturnError(dbErr)

		_, err = NewRepository(pool, discardLogger()).LoadCatalogue(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to query listings")
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("review query error", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()

		rows := pgxmock.NewRows(listingCols)
		addListingRow(rows, first, "Le Cyrano", "Bergerac", "", true)
		pool.ExpectQuery(`FROM listings l`).WillReturnRows(rows)
		pool.ExpectQuery(`FROM listing_reviews r`).WillReturnError(errors.New("timeout"))

		_, err = NewRepository(pool, discardLogger()).LoadCatalogue(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to query reviews")
	})
}

func TestRepositoryImpl_GetListing(t *testing.T) {
	ctx := context.Background()
	id := uuid.MustParse("00000000-0000-0000-0000-000000000007")

	t.Run("found", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()

		rows := pgxmock.NewRows(listingCols)
		addListingRow(rows, id, "Boulangerie Cyrano", "Bergerac", "starter", false)
		pool.ExpectQuery(`FROM listings l\s+WHERE l\.id = \$1`).WithArgs(id).WillReturnRows(rows)
		pool.ExpectQuery(`SELECT rating, created_at\s+FROM listing_reviews`).WithArgs(id).
			WillReturnRows(pgxmock.NewRows([]string{"rating", "created_at"}).AddRow(3, created))

		got, err := NewRepository(pool, discardLogger()).GetListing(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.False(t, got.IsApproved)
		assert.Equal(t, types.PlanStarter, got.SubscriptionPlan)
		assert.Len(t, got.Reviews, 1)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer pool.Close()

		pool.ExpectQuery(`FROM listings l\s+WHERE l\.id = \$1`).WithArgs(id).WillReturnError(pgx.ErrNoRows)

		_, err = NewRepository(pool, discardLogger()).GetListing(ctx, id)
		assert.ErrorIs(t, err, ErrListingNotFound)
		assert.NoError(t, pool.ExpectationsWereMet())
	})
}
