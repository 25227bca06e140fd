package city

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/FACorreiaa/go-directory-search/internal/geo"
	"github.com/FACorreiaa/go-directory-search/internal/types"
)

type Service interface {
	Table() *geo.DistanceTable
	Distance(ctx context.Context, from, to types.GeoPoint) float64
}

var _ Service = (*ServiceImpl)(nil)

type ServiceImpl struct {
	logger *slog.Logger
	table  *geo.DistanceTable
}

// NewCityService merges the stored city pairs over the embedded table. A
// failing repository only costs the stored pairs: the embedded table is kept.
func NewCityService(ctx context.Context, repo Repository, fallbackKm float64, logger *slog.Logger) *ServiceImpl {
	ctx, span := otel.Tracer("CityService").Start(ctx, "LoadDistanceTable")
	defer span.End()

	table := geo.DefaultTable().WithFallback(fallbackKm)

	stored, err := repo.LoadDistances(ctx)
	if err != nil {
		span.RecordError(err)
		logger.WarnContext(ctx, "Using embedded city distances only", slog.Any("error", err))
	} else {
		table = table.Merge(stored)
	}

	span.SetAttributes(attribute.Int("city_pairs", table.Len()))
	logger.InfoContext(ctx, "City distance table ready",
		slog.Int("pairs", table.Len()),
		slog.Float64("fallback_km", table.Fallback()))

	return &ServiceImpl{logger: logger, table: table}
}

func (s *ServiceImpl) Table() *geo.DistanceTable {
	return s.table
}

func (s *ServiceImpl) Distance(ctx context.Context, from, to types.GeoPoint) float64 {
	d := s.table.DistanceKm(from, to)
	s.logger.DebugContext(ctx, "Computed distance",
		slog.String("from", from.City),
		slog.String("to", to.City),
		slog.Float64("distance_km", d))
	return d
}
