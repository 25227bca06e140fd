package city

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-directory-search/internal/api"
)

type Handler struct {
	logger  *slog.Logger
	service Service
}

func NewCityHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

type DistanceResponse struct {
	From       string  `json:"from,omitempty"`
	To         string  `json:"to,omitempty"`
	DistanceKm float64 `json:"distance_km"`
}

// GetDistance handles GET /distance. Both ends take city, lat and lon
// parameters prefixed with from_ and to_.
func (h *Handler) GetDistance(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CityHandler").Start(r.Context(), "GetDistance", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/distance"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetDistance"))

	values := r.URL.Query()
	from, err := api.GeoPointParams(values, "from_")
	if err != nil {
		l.WarnContext(ctx, "Invalid origin", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	to, err := api.GeoPointParams(values, "to_")
	if err != nil {
		l.WarnContext(ctx, "Invalid destination", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if from == nil || to == nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "both from_ and to_ locations are required")
		return
	}

	d := h.service.Distance(ctx, *from, *to)
	span.SetAttributes(attribute.Float64("distance_km", d))

	api.WriteJSONResponse(w, r, http.StatusOK, DistanceResponse{
		From:       from.City,
		To:         to.City,
		DistanceKm: d,
	})
}
