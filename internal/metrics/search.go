// Package metrics defines the Prometheus collectors for the search core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchcore",
			Name:      "search_requests_total",
			Help:      "Total number of search requests",
		},
		[]string{"search_type"},
	)

	searchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "searchcore",
			Name:      "search_duration_seconds",
			Help:      "Search duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"search_type"},
	)

	searchResultsCount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "searchcore",
			Name:      "search_results_count",
			Help:      "Number of search results returned",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100, 200, 500},
		},
		[]string{"search_type"},
	)

	searchErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchcore",
			Name:      "search_errors_total",
			Help:      "Total number of search errors",
		},
		[]string{"search_type", "error_kind"},
	)

	cacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchcore",
			Name:      "cache_requests_total",
			Help:      "Cache lookups by layer and result",
		},
		[]string{"layer", "result"},
	)
)

// Search aggregates the per-search collectors.
type Search struct{}

// NewSearch creates the search metrics façade.
func NewSearch() *Search { return &Search{} }

// RecordRequest counts a search request.
func (m *Search) RecordRequest(searchType string) {
	searchRequestsTotal.WithLabelValues(searchType).Inc()
}

// RecordDuration observes a search duration in seconds.
func (m *Search) RecordDuration(searchType string, seconds float64) {
	searchDuration.WithLabelValues(searchType).Observe(seconds)
}

// RecordResults observes the result count of a completed search.
func (m *Search) RecordResults(searchType string, count float64) {
	searchResultsCount.WithLabelValues(searchType).Observe(count)
}

// RecordError counts a search error by kind.
func (m *Search) RecordError(searchType, errorKind string) {
	searchErrorsTotal.WithLabelValues(searchType, errorKind).Inc()
}

// CacheCounter returns a hit/miss counter curried to one cache layer,
// suitable for injection into a cache instance.
func CacheCounter(layer string) *prometheus.CounterVec {
	return cacheTotal.MustCurryWith(prometheus.Labels{"layer": layer})
}
