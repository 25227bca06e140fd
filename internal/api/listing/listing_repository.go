package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	database "github.com/FACorreiaa/go-directory-search/app/db"
	"github.com/FACorreiaa/go-directory-search/app/observability/metrics"
	"github.com/FACorreiaa/go-directory-search/internal/types"
)

var ErrListingNotFound = errors.New("listing not found")

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	// LoadCatalogue returns every approved listing with its reviews.
	LoadCatalogue(ctx context.Context) ([]types.Listing, error)
	GetListing(ctx context.Context, id uuid.UUID) (*types.Listing, error)
}

type RepositoryImpl struct {
	logger  *slog.Logger
	db      database.Querier
	metrics *metrics.AppMetrics
}

func NewRepository(db database.Querier, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger:  logger,
		db:      db,
		metrics: metrics.Get(),
	}
}

const listingColumns = `
            l.id, l.title, l.description, l.category, COALESCE(l.sub_category, ''),
            COALESCE(l.latitude, 0), COALESCE(l.longitude, 0), l.city,
            COALESCE(l.postal_code, ''), COALESCE(l.address, ''),
            COALESCE(l.phone, ''), COALESCE(l.email, ''), COALESCE(l.website, ''),
            l.images, l.is_verified, l.is_approved, l.has_active_subscription,
            COALESCE(l.subscription_plan::text, ''), l.is_sponsored, l.view_count,
            l.created_at, l.updated_at`

func scanListing(row pgx.Row) (types.Listing, error) {
	var (
		l    types.Listing
		plan string
	)
	err := row.Scan(
		&l.ID, &l.Title, &l.Description, &l.Category, &l.SubCategory,
		&l.Location.Latitude, &l.Location.Longitude, &l.Location.City,
		&l.Location.PostalCode, &l.Location.Address,
		&l.Contact.Phone, &l.Contact.Email, &l.Contact.Website,
		&l.Images, &l.IsVerified, &l.IsApproved, &l.HasActiveSubscription,
		&plan, &l.IsSponsored, &l.ViewCount,
		&l.CreatedAt, &l.UpdatedAt,
	)
	l.SubscriptionPlan = types.SubscriptionPlan(plan)
	return l, err
}

func (r *RepositoryImpl) observe(ctx context.Context, query string, start time.Time) {
	r.metrics.DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("query", query)))
}

func (r *RepositoryImpl) LoadCatalogue(ctx context.Context) ([]types.Listing, error) {
	ctx, span := otel.Tracer("ListingRepository").Start(ctx, "LoadCatalogue")
	defer span.End()
	defer r.observe(ctx, "load_catalogue", time.Now())

	query := `
        SELECT` + listingColumns + `
        FROM listings l
        WHERE l.is_approved = TRUE
        ORDER BY l.id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalogue query failed")
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	catalogue := make([]types.Listing, 0)
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		index[l.ID] = len(catalogue)
		catalogue = append(catalogue, l)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating listings: %w", err)
	}

	reviewQuery := `
        SELECT r.listing_id, r.rating, r.created_at
        FROM listing_reviews r
        JOIN listings l ON l.id = r.listing_id
        WHERE l.is_approved = TRUE
        ORDER BY r.listing_id, r.created_at`

	reviewRows, err := r.db.Query(ctx, reviewQuery)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer reviewRows.Close()

	for reviewRows.Next() {
		var (
			listingID uuid.UUID
			review    types.Review
		)
		if err := reviewRows.Scan(&listingID, &review.Rating, &review.CreatedAt); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		// Reviews of a listing approved between the two queries are skipped.
		if i, ok := index[listingID]; ok {
			catalogue[i].Reviews = append(catalogue[i].Reviews, review)
		}
	}
	if err := reviewRows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	unreachable := 0
	for _, l := range catalogue {
		if !l.Reachable() {
			unreachable++
		}
	}
	if unreachable > 0 {
		r.logger.WarnContext(ctx, "Approved listings without any contact channel",
			slog.Int("count", unreachable))
	}

	span.SetAttributes(
		attribute.Int("listings.count", len(catalogue)),
		attribute.Int("listings.unreachable", unreachable),
	)
	span.SetStatus(codes.Ok, "catalogue loaded")
	r.logger.DebugContext(ctx, "Loaded catalogue", slog.Int("listings", len(catalogue)))
	return catalogue, nil
}

func (r *RepositoryImpl) GetListing(ctx context.Context, id uuid.UUID) (*types.Listing, error) {
	ctx, span := otel.Tracer("ListingRepository").Start(ctx, "GetListing")
	defer span.End()
	defer r.observe(ctx, "get_listing", time.Now())
	span.SetAttributes(attribute.String("listing.id", id.String()))

	query := `
        SELECT` + listingColumns + `
        FROM listings l
        WHERE l.id = $1`

	l, err := scanListing(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}

	rows, err := r.db.Query(ctx, `
        SELECT rating, created_at
        FROM listing_reviews
        WHERE listing_id = $1
        ORDER BY created_at`, id)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var review types.Review
		if err := rows.Scan(&review.Rating, &review.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		l.Reviews = append(l.Reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return &l, nil
}
