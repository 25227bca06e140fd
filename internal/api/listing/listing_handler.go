package listing

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-directory-search/internal/api"
	"github.com/FACorreiaa/go-directory-search/internal/search"
	"github.com/FACorreiaa/go-directory-search/internal/types"
)

// GeoPositionHeader carries the caller's "lat,lon" when they share it.
const GeoPositionHeader = "X-Geo-Position"

type Handler struct {
	logger            *slog.Logger
	service           Service
	defaultRadiusKm   float64
	defaultMaxResults int
}

func NewListingHandler(service Service, defaultRadiusKm float64, defaultMaxResults int, logger *slog.Logger) *Handler {
	if defaultRadiusKm <= 0 {
		defaultRadiusKm = types.DefaultRadiusKm
	}
	if defaultMaxResults <= 0 {
		defaultMaxResults = types.DefaultMaxResults
	}
	return &Handler{
		logger:            logger,
		service:           service,
		defaultRadiusKm:   defaultRadiusKm,
		defaultMaxResults: defaultMaxResults,
	}
}

// parseSearchRequest turns query parameters into a SearchRequest. Range checks
// on radius and text length are left to the engine.
func (h *Handler) parseSearchRequest(r *http.Request) (SearchRequest, error) {
	values := r.URL.Query()

	q := types.NewSearchQuery()
	q.Text = values.Get("q")
	q.Category = values.Get("category")
	q.RadiusKm = h.defaultRadiusKm

	origin, err := api.GeoPointParams(values, "")
	if err != nil {
		return SearchRequest{}, err
	}
	q.Origin = origin

	if q.NearMe, err = api.BoolParam(values, "near_me"); err != nil {
		return SearchRequest{}, err
	}
	if q.VerifiedOnly, err = api.BoolParam(values, "verified_only"); err != nil {
		return SearchRequest{}, err
	}
	if q.SubscribersOnly, err = api.BoolParam(values, "subscribers_only"); err != nil {
		return SearchRequest{}, err
	}

	radius, err := api.FloatParam(values, "radius_km")
	if err != nil {
		return SearchRequest{}, err
	}
	if radius != nil {
		q.RadiusKm = *radius
	}

	if q.MaxResults, err = api.IntParam(values, "max_results", h.defaultMaxResults); err != nil {
		return SearchRequest{}, err
	}

	for _, a := range values["amenity"] {
		if a = strings.TrimSpace(a); a != "" {
			q.Amenities = append(q.Amenities, a)
		}
	}

	req := SearchRequest{Query: q}
	if values.Has("ads") {
		every, err := api.IntParam(values, "ads", 0)
		if err != nil {
			return SearchRequest{}, err
		}
		req.AdEvery = &every
	}
	if q.NearMe {
		req.Locate = HeaderLocator(r.Header.Get(GeoPositionHeader))
	}
	return req, nil
}

// SearchListings handles GET /listings/search.
func (h *Handler) SearchListings(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ListingHandler").Start(r.Context(), "SearchListings", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/listings/search"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "SearchListings"))

	req, err := h.parseSearchRequest(r)
	if err != nil {
		l.WarnContext(ctx, "Invalid search parameters", slog.Any("error", err))
		span.SetStatus(codes.Error, "invalid parameters")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.Search(ctx, req)
	if err != nil {
		var qErr *search.QueryError
		if errors.As(err, &qErr) {
			span.SetStatus(codes.Error, "invalid query")
			api.ErrorResponse(w, r, http.StatusBadRequest, qErr.Error())
			return
		}
		l.ErrorContext(ctx, "Search failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		status := http.StatusInternalServerError
		if errors.Is(err, ErrCatalogueUnavailable) {
			status = http.StatusServiceUnavailable
		}
		api.ErrorResponse(w, r, status, "search is temporarily unavailable")
		return
	}

	span.SetAttributes(attribute.Int("results.count", len(resp.Results)))
	span.SetStatus(codes.Ok, "search completed")
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// GetListing handles GET /listings/{listingID}.
func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ListingHandler").Start(r.Context(), "GetListing", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/listings/{listingID}"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetListing"))

	idStr := chi.URLParam(r, "listingID")
	id, err := uuid.Parse(idStr)
	if err != nil {
		l.WarnContext(ctx, "Invalid listing ID", slog.String("listing_id", idStr))
		api.ErrorResponse(w, r, http.StatusBadRequest, "invalid listing ID")
		return
	}

	from, err := api.GeoPointParams(r.URL.Query(), "")
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	detail, err := h.service.GetListing(ctx, id, from)
	if err != nil {
		if errors.Is(err, ErrListingNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "listing not found")
			return
		}
		l.ErrorContext(ctx, "Failed to get listing", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get listing")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "failed to get listing")
		return
	}

	span.SetStatus(codes.Ok, "listing found")
	api.WriteJSONResponse(w, r, http.StatusOK, detail)
}
