package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	SearchRequestsTotal     metric.Int64Counter
	SearchErrorsTotal       metric.Int64Counter
	SearchDurationSeconds   metric.Float64Histogram
	SearchResultsCount      metric.Int64Histogram
	CatalogueLoadsTotal     metric.Int64Counter
	CatalogueLoadErrorTotal metric.Int64Counter
	OriginFallbacksTotal    metric.Int64Counter
	DbQueryDurationSeconds  metric.Float64Histogram
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics creates the instruments once from the global MeterProvider.
// Without a configured provider the instruments are no-ops, which is what tests get.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("DirectorySearch")
		var err error
		m := &AppMetrics{}

		m.SearchRequestsTotal, err = meter.Int64Counter(
			"search_requests_total",
			metric.WithDescription("Total number of listing searches completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create search_requests_total: %v", err)
		}

		m.SearchErrorsTotal, err = meter.Int64Counter(
			"search_errors_total",
			metric.WithDescription("Total number of listing searches that failed"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create search_errors_total: %v", err)
		}

		m.SearchDurationSeconds, err = meter.Float64Histogram(
			"search_duration_seconds",
			metric.WithDescription("Duration of listing searches in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create search_duration_seconds: %v", err)
		}

		m.SearchResultsCount, err = meter.Int64Histogram(
			"search_results_count",
			metric.WithDescription("Number of ranked listings returned per search"),
			metric.WithUnit("{listing}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create search_results_count: %v", err)
		}

		m.CatalogueLoadsTotal, err = meter.Int64Counter(
			"catalogue_loads_total",
			metric.WithDescription("Total number of catalogue loads from the database"),
			metric.WithUnit("{load}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create catalogue_loads_total: %v", err)
		}

		m.CatalogueLoadErrorTotal, err = meter.Int64Counter(
			"catalogue_load_errors_total",
			metric.WithDescription("Total number of failed catalogue loads"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create catalogue_load_errors_total: %v", err)
		}

		m.OriginFallbacksTotal, err = meter.Int64Counter(
			"origin_fallbacks_total",
			metric.WithDescription("Searches that fell back to the home city origin"),
			metric.WithUnit("{search}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create origin_fallbacks_total: %v", err)
		}

		m.DbQueryDurationSeconds, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_duration_seconds: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the instruments, initialising them on first use.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}
