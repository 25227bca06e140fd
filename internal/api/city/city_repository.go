package city

import (
	"context"
	"fmt"
	"log/slog"

	database "github.com/FACorreiaa/go-directory-search/app/db"
	"github.com/FACorreiaa/go-directory-search/internal/types"
)

var _ Repository = (*PostgresCityRepository)(nil)

type Repository interface {
	LoadDistances(ctx context.Context) ([]types.CityDistance, error)
}

type PostgresCityRepository struct {
	logger *slog.Logger
	db     database.Querier
}

func NewCityRepository(db database.Querier, logger *slog.Logger) *PostgresCityRepository {
	return &PostgresCityRepository{
		logger: logger,
		db:     db,
	}
}

// LoadDistances returns every city pair stored in city_distances.
func (r *PostgresCityRepository) LoadDistances(ctx context.Context) ([]types.CityDistance, error) {
	query := `
        SELECT from_city, to_city, distance_km
        FROM city_distances
        ORDER BY from_city, to_city
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query city distances: %w", err)
	}
	defer rows.Close()

	var distances []types.CityDistance
	for rows.Next() {
		var d types.CityDistance
		if err := rows.Scan(&d.From, &d.To, &d.DistanceKm); err != nil {
			return nil, fmt.Errorf("failed to scan city distance: %w", err)
		}
		distances = append(distances, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating city distances: %w", err)
	}

	r.logger.DebugContext(ctx, "Loaded city distances", slog.Int("count", len(distances)))
	return distances, nil
}
