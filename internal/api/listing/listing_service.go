package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/FACorreiaa/go-directory-search/app/observability/metrics"
	"github.com/FACorreiaa/go-directory-search/internal/search"
	"github.com/FACorreiaa/go-directory-search/internal/types"
)

const (
	catalogueKey      = "catalogue"
	staleCatalogueKey = "catalogue:stale"
)

var ErrCatalogueUnavailable = errors.New("listing catalogue unavailable")

type Service interface {
	Search(ctx context.Context, req SearchRequest) (*types.SearchResponse, error)
	GetListing(ctx context.Context, id uuid.UUID, from *types.GeoPoint) (*types.ListingDetail, error)
}

// SearchRequest is a query plus the request-scoped bits the engine never sees.
type SearchRequest struct {
	Query types.SearchQuery
	// Locate is consulted only for near-me queries without an explicit origin.
	Locate Locator
	// AdEvery overrides the configured ad cadence when set.
	AdEvery *int
}

type ServiceConfig struct {
	CatalogueTTL       time.Duration
	LocateTimeout      time.Duration
	AdEvery            int
	Home               types.GeoPoint
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
}

var _ Service = (*ServiceImpl)(nil)

type ServiceImpl struct {
	logger  *slog.Logger
	repo    Repository
	views   ViewCounter
	engine  *search.Engine
	cfg     ServiceConfig
	cache   *cache.Cache
	group   singleflight.Group
	breaker *gobreaker.CircuitBreaker[[]types.Listing]
	metrics *metrics.AppMetrics
}

// NewListingService builds the service. views may be nil, in which case the
// stored view counts are used as they are.
func NewListingService(repo Repository, views ViewCounter, engine *search.Engine, cfg ServiceConfig, logger *slog.Logger) *ServiceImpl {
	if cfg.CatalogueTTL <= 0 {
		cfg.CatalogueTTL = 5 * time.Minute
	}
	if cfg.BreakerMaxFailures == 0 {
		cfg.BreakerMaxFailures = 3
	}
	if cfg.Home.IsZero() {
		cfg.Home = search.HomeOrigin
	}

	breaker := gobreaker.NewCircuitBreaker[[]types.Listing](gobreaker.Settings{
		Name:    "catalogue",
		Timeout: cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerMaxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})

	return &ServiceImpl{
		logger:  logger,
		repo:    repo,
		views:   views,
		engine:  engine,
		cfg:     cfg,
		cache:   cache.New(cfg.CatalogueTTL, 2*cfg.CatalogueTTL),
		breaker: breaker,
		metrics: metrics.Get(),
	}
}

func (s *ServiceImpl) Search(ctx context.Context, req SearchRequest) (*types.SearchResponse, error) {
	ctx, span := otel.Tracer("ListingService").Start(ctx, "Search", trace.WithAttributes(
		attribute.String("query.text", req.Query.Text),
		attribute.String("query.category", req.Query.Category),
		attribute.Bool("query.near_me", req.Query.NearMe),
		attribute.Float64("query.radius_km", req.Query.RadiusKm),
	))
	defer span.End()

	start := time.Now()
	l := s.logger.With(slog.String("method", "Search"))

	resp, err := s.search(ctx, req)
	s.metrics.SearchDurationSeconds.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		s.metrics.SearchErrorsTotal.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		l.WarnContext(ctx, "Search failed", slog.Any("error", err))
		return nil, err
	}

	s.metrics.SearchRequestsTotal.Add(ctx, 1)
	s.metrics.SearchResultsCount.Record(ctx, int64(len(resp.Results)))
	span.SetAttributes(
		attribute.Int("results.count", len(resp.Results)),
		attribute.Int("suggestions.count", len(resp.Suggestions)),
		attribute.Int("feed.ads", len(resp.Feed)-search.CountListings(resp.Feed)),
	)
	span.SetStatus(codes.Ok, "search completed")
	l.DebugContext(ctx, "Search completed",
		slog.Int("results", len(resp.Results)),
		slog.Duration("took", time.Since(start)))
	return resp, nil
}

func (s *ServiceImpl) search(ctx context.Context, req SearchRequest) (*types.SearchResponse, error) {
	q := req.Query
	// Reject caller bugs before touching the catalogue.
	if _, err := s.engine.Normalize(q); err != nil {
		return nil, err
	}

	if q.NearMe && (q.Origin == nil || q.Origin.IsZero()) && req.Locate != nil {
		origin, located := ResolveOrigin(ctx, req.Locate, s.cfg.LocateTimeout, s.cfg.Home, s.logger)
		if !located {
			s.metrics.OriginFallbacksTotal.Add(ctx, 1)
		}
		q.Origin = &origin
	}

	catalogue, err := s.catalogue(ctx)
	if err != nil {
		return nil, err
	}
	catalogue = s.withViewCounts(ctx, catalogue)

	result, err := s.engine.Search(catalogue, q)
	if err != nil {
		return nil, err
	}

	adEvery := s.cfg.AdEvery
	if req.AdEvery != nil {
		adEvery = *req.AdEvery
	}
	return &types.SearchResponse{
		SearchResult: result,
		Feed:         search.Interleave(result.Results, adEvery),
	}, nil
}

// catalogue returns the cached catalogue, loading it through the breaker on a
// miss. A failed load serves the last good catalogue when there is one.
func (s *ServiceImpl) catalogue(ctx context.Context) ([]types.Listing, error) {
	if v, ok := s.cache.Get(catalogueKey); ok {
		return v.([]types.Listing), nil
	}

	v, err, shared := s.group.Do(catalogueKey, func() (interface{}, error) {
		// A flight that finished between the lookup above and Do already filled the cache.
		if v, ok := s.cache.Get(catalogueKey); ok {
			return v, nil
		}
		// Shared by every waiter, so one caller's cancellation must not fail the rest.
		loadCtx := context.WithoutCancel(ctx)
		listings, err := s.breaker.Execute(func() ([]types.Listing, error) {
			return s.repo.LoadCatalogue(loadCtx)
		})
		if err != nil {
			s.metrics.CatalogueLoadErrorTotal.Add(loadCtx, 1)
			return nil, err
		}
		s.metrics.CatalogueLoadsTotal.Add(loadCtx, 1,
			metric.WithAttributes(attribute.Int("listings", len(listings))))
		s.cache.Set(catalogueKey, listings, cache.DefaultExpiration)
		s.cache.Set(staleCatalogueKey, listings, cache.NoExpiration)
		return listings, nil
	})
	if err != nil {
		if stale, ok := s.cache.Get(staleCatalogueKey); ok {
			s.logger.WarnContext(ctx, "Serving stale catalogue",
				slog.Any("error", err),
				slog.Bool("breaker_open", errors.Is(err, gobreaker.ErrOpenState)))
			return stale.([]types.Listing), nil
		}
		return nil, fmt.Errorf("%w: %w", ErrCatalogueUnavailable, err)
	}
	if shared {
		s.logger.DebugContext(ctx, "Catalogue load shared between concurrent searches")
	}
	return v.([]types.Listing), nil
}

// withViewCounts returns a copy of catalogue with the pending Redis view
// counts added. The cached slice is never written to.
func (s *ServiceImpl) withViewCounts(ctx context.Context, catalogue []types.Listing) []types.Listing {
	if s.views == nil || len(catalogue) == 0 {
		return catalogue
	}

	ids := make([]uuid.UUID, len(catalogue))
	for i := range catalogue {
		ids[i] = catalogue[i].ID
	}
	counts, err := s.views.Counts(ctx, ids)
	if err != nil {
		s.logger.WarnContext(ctx, "Using stored view counts", slog.Any("error", err))
		return catalogue
	}
	if len(counts) == 0 {
		return catalogue
	}

	out := make([]types.Listing, len(catalogue))
	copy(out, catalogue)
	for i := range out {
		out[i].ViewCount += counts[out[i].ID]
	}
	return out
}

func (s *ServiceImpl) GetListing(ctx context.Context, id uuid.UUID, from *types.GeoPoint) (*types.ListingDetail, error) {
	ctx, span := otel.Tracer("ListingService").Start(ctx, "GetListing", trace.WithAttributes(
		attribute.String("listing.id", id.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "GetListing"), slog.String("listing_id", id.String()))

	listing, err := s.repo.GetListing(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrListingNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to get listing")
			l.ErrorContext(ctx, "Failed to get listing", slog.Any("error", err))
		}
		return nil, err
	}
	if !listing.IsApproved {
		return nil, ErrListingNotFound
	}

	if s.views != nil {
		pending, err := s.views.Increment(ctx, id)
		if err != nil {
			l.WarnContext(ctx, "Failed to record view", slog.Any("error", err))
		} else {
			listing.ViewCount += pending
		}
	}

	detail := &types.ListingDetail{Listing: *listing}
	if from != nil && !from.IsZero() {
		d := s.engine.Distances()(*from, listing.Location.Point())
		detail.DistanceKm = &d
	}
	span.SetStatus(codes.Ok, "listing found")
	return detail, nil
}
