package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Search outcomes
const (
	OutcomeCategory = "category" // suppliers found on the first category pass
	OutcomeFallback = "fallback" // suppliers found through the product fallback
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// Store query names
const (
	QueryCategory = "category"
	QueryProduct  = "product"
)

var (
	registerOnce sync.Once

	searches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "supplier_search",
		Name:      "searches_total",
		Help:      "Total number of supplier searches by outcome",
	}, []string{"outcome"})
	searchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "supplier_search",
		Name:      "search_duration_seconds",
		Help:      "Histogram of end-to-end supplier search durations in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms up to ~40s
	})
	storeQueries = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "supplier_search",
		Name:      "store_query_duration_seconds",
		Help:      "Histogram of catalog store query durations in seconds by query",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"query"})
	storeFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "supplier_search",
		Name:      "store_failures_total",
		Help:      "Total number of failed catalog store queries by query",
	}, []string{"query"})
)

// Register initializes metrics with the global Prometheus registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(searches, searchDuration, storeQueries, storeFailures)
	})
}

// IncSearch counts one finished search under its outcome label
func IncSearch(outcome string) {
	searches.WithLabelValues(outcome).Inc()
}

// ObserveSearchDuration records the end-to-end latency of one search
func ObserveSearchDuration(d time.Duration) {
	searchDuration.Observe(d.Seconds())
}

// ObserveStoreQuery records the latency of one store round-trip and counts it as failed when err != nil
func ObserveStoreQuery(query string, d time.Duration, err error) {
	storeQueries.WithLabelValues(query).Observe(d.Seconds())
	if err != nil {
		storeFailures.WithLabelValues(query).Inc()
	}
}
