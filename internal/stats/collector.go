// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the library.
const (
	// Fetch orchestrator metrics.
	MetricFetches        = "pantry_fetches_total"
	MetricOriginRequests = "pantry_origin_requests_total"
	MetricOriginFailures = "pantry_origin_failures_total"
	MetricFetchSeconds   = "pantry_fetch_seconds"

	// Cache metrics.
	MetricCacheHits     = "pantry_cache_hits_total"
	MetricCacheMisses   = "pantry_cache_misses_total"
	MetricCacheSize     = "pantry_cache_size"
	MetricEvictions     = "pantry_cache_evictions_total"
	MetricExpired       = "pantry_cache_expired_total"
	MetricWriteFailures = "pantry_tier_write_failures_total"
)

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
