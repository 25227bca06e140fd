package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/FACorreiaa/go-directory-search/internal/api/city"
	"github.com/FACorreiaa/go-directory-search/internal/api/listing"
)

// Config contains dependencies needed for the router setup
type Config struct {
	ListingHandler *listing.Handler
	CityHandler    *city.Handler
	// RateLimit is the number of API requests allowed per client IP and window.
	// Zero disables limiting.
	RateLimit       int
	RateLimitWindow time.Duration
	AllowedOrigins  []string
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, request ID, recoverer) is applied in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", listing.GeoPositionHeader},
		ExposedHeaders: []string{"Link", "X-RateLimit-Remaining"},
		MaxAge:         300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimit > 0 {
			window := cfg.RateLimitWindow
			if window <= 0 {
				window = time.Minute
			}
			r.Use(httprate.LimitByIP(cfg.RateLimit, window))
		}

		r.Route("/listings", func(r chi.Router) {
			r.Get("/search", cfg.ListingHandler.SearchListings)
			r.Get("/{listingID}", cfg.ListingHandler.GetListing)
		})
		r.Get("/distance", cfg.CityHandler.GetDistance)
	})

	return r
}
