package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	database "github.com/FACorreiaa/go-directory-search/app/db"
	"github.com/FACorreiaa/go-directory-search/config"
	"github.com/FACorreiaa/go-directory-search/internal/api/city"
	"github.com/FACorreiaa/go-directory-search/internal/api/listing"
	"github.com/FACorreiaa/go-directory-search/internal/geo"
	"github.com/FACorreiaa/go-directory-search/internal/search"
	"github.com/FACorreiaa/go-directory-search/internal/types"
)

// Container holds all application dependencies
type Container struct {
	Config         *config.Config
	Logger         *slog.Logger
	Pool           *pgxpool.Pool
	Redis          *redis.Client
	Engine         *search.Engine
	ListingHandler *listing.Handler
	CityHandler    *city.Handler
}

// NewContainer initializes and returns a new dependency container. The
// database must be migrated and reachable; Redis is optional.
func NewContainer(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) (*Container, error) {
	cityRepo := city.NewCityRepository(pool, logger)
	cityService := city.NewCityService(ctx, cityRepo, cfg.Search.FallbackDistanceKm, logger)
	cityHandler := city.NewCityHandler(cityService, logger)

	opts, err := SearchOptions(cfg.Search, cityService.Table())
	if err != nil {
		return nil, err
	}
	engine := search.NewEngine(opts)

	redisCfg := cfg.Repositories.Redis
	var views listing.ViewCounter
	rdb, err := listing.NewRedisClient(ctx, redisCfg.Address, redisCfg.Password, redisCfg.DB)
	if err != nil {
		logger.WarnContext(ctx, "Redis unavailable, view counts come from Postgres only",
			slog.String("address", redisCfg.Address),
			slog.Any("error", err))
	} else {
		views = listing.NewRedisViewCounter(rdb)
	}

	listingRepo := listing.NewRepository(pool, logger)
	listingService := listing.NewListingService(listingRepo, views, engine, listing.ServiceConfig{
		CatalogueTTL:       cfg.Search.CatalogueTTL,
		LocateTimeout:      cfg.Search.LocateTimeout,
		AdEvery:            cfg.Search.AdEvery,
		Home:               *opts.Home,
		BreakerMaxFailures: cfg.Search.Breaker.MaxFailures,
		BreakerOpenTimeout: cfg.Search.Breaker.OpenTimeout,
	}, logger)
	listingHandler := listing.NewListingHandler(listingService,
		cfg.Search.DefaultRadiusKm, cfg.Search.DefaultMaxResults, logger)

	return &Container{
		Config:         cfg,
		Logger:         logger,
		Pool:           pool,
		Redis:          rdb,
		Engine:         engine,
		ListingHandler: listingHandler,
		CityHandler:    cityHandler,
	}, nil
}

// SearchOptions converts the search configuration into engine options.
func SearchOptions(cfg config.SearchConfig, distances *geo.DistanceTable) (search.Options, error) {
	opts := search.Options{
		Distances:       distances,
		SuggestionCount: cfg.SuggestionCount,
		MaxResultsCap:   cfg.MaxResultsCap,
	}

	if cfg.HomeCity.Name != "" {
		home := types.GeoPoint{City: cfg.HomeCity.Name}
		if cfg.HomeCity.Latitude != 0 || cfg.HomeCity.Longitude != 0 {
			home.Coordinates = &types.Coordinates{
				Latitude:  cfg.HomeCity.Latitude,
				Longitude: cfg.HomeCity.Longitude,
			}
		}
		opts.Home = &home
	} else {
		home := search.HomeOrigin
		opts.Home = &home
	}

	if len(cfg.Amenities) > 0 {
		opts.Amenities = make(map[string]search.AmenityRule, len(cfg.Amenities))
		for name, a := range cfg.Amenities {
			rule := search.AmenityRule{Categories: a.Categories}
			for _, raw := range a.ListingIDs {
				id, err := uuid.Parse(raw)
				if err != nil {
					return search.Options{}, fmt.Errorf("invalid listing id %q for amenity %q: %w", raw, name, err)
				}
				rule.ListingIDs = append(rule.ListingIDs, id)
			}
			opts.Amenities[name] = rule
		}
	}
	return opts, nil
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("Failed to close redis client", slog.Any("error", err))
		}
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}
