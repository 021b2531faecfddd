// Package metrics provides Prometheus metrics for the pokefolio backend.
// Scrape these at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokefolio_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pokefolio_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Remote card API metrics
	CardAPIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokefolio_card_api_requests_total",
			Help: "Requests made to the Pokemon TCG API",
		},
		[]string{"endpoint", "result"}, // result: "ok", "not_found", "denied", "error", "aborted"
	)

	CardAPILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pokefolio_card_api_latency_seconds",
			Help:    "Pokemon TCG API call latency",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"endpoint"},
	)

	// Search cache metrics
	SearchCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokefolio_search_cache_lookups_total",
			Help: "Search cache lookups by outcome",
		},
		[]string{"outcome"}, // "fresh", "stale", "miss"
	)

	SearchCacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pokefolio_search_cache_evictions_total",
			Help: "Search cache entries evicted for capacity",
		},
	)

	SearchesAborted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pokefolio_searches_aborted_total",
			Help: "Text searches superseded by a newer submission",
		},
	)

	CardCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokefolio_card_cache_lookups_total",
			Help: "Card-detail cache lookups by tier",
		},
		[]string{"tier"}, // "memory", "database", "miss"
	)

	// OCR Metrics
	OCRScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokefolio_ocr_scans_total",
			Help: "OCR match requests by result",
		},
		[]string{"result"}, // "phrase", "number_fallback", "empty", "aborted"
	)

	OCRPhrasesTried = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pokefolio_ocr_phrases_tried",
			Help:    "Candidate phrases queried per OCR scan",
			Buckets: []float64{1, 2, 3, 5, 8, 10, 15},
		},
	)

	// Price metrics
	PriceRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokefolio_price_refresh_total",
			Help: "Entry price refreshes by result",
		},
		[]string{"result"}, // "updated", "missing", "failed"
	)

	PriceRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pokefolio_price_refresh_duration_seconds",
			Help:    "Time taken to refresh every collection and wishlist price",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	// Collection Metrics
	CollectionCardsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pokefolio_collection_cards_total",
			Help: "Total number of cards in collection",
		},
	)

	CollectionValue = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pokefolio_collection_value",
			Help: "Estimated collection value in the configured currency",
		},
		[]string{"currency"},
	)
)
