package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/davkit/propstore/pkg/props"
)

// cacheMetrics is the Prometheus implementation of the
// props.CacheMetrics interface.
//
// It counts session cache activity: lookups served from the cache,
// lookups that had to touch storage, and entries dropped by writes.
type cacheMetrics struct {
	hits          prometheus.Counter
	misses        prometheus.Counter
	invalidations prometheus.Counter
}

// NewCacheMetrics creates a new Prometheus-backed CacheMetrics
// instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called),
// which causes the session to use its built-in no-op implementation.
func NewCacheMetrics() props.CacheMetrics {
	if !IsEnabled() {
		return nil // Session falls back to its no-op counters
	}

	reg := GetRegistry()

	return &cacheMetrics{
		hits: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "propstore_cache_hits_total",
				Help: "Total number of property lookups served from the session cache",
			},
		),
		misses: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "propstore_cache_misses_total",
				Help: "Total number of property lookups that had to touch storage",
			},
		),
		invalidations: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "propstore_cache_invalidations_total",
				Help: "Total number of session cache entries dropped by writes",
			},
		),
	}
}

// CacheHit implements props.CacheMetrics.CacheHit
func (m *cacheMetrics) CacheHit() {
	m.hits.Inc()
}

// CacheMiss implements props.CacheMetrics.CacheMiss
func (m *cacheMetrics) CacheMiss() {
	m.misses.Inc()
}

// CacheInvalidate implements props.CacheMetrics.CacheInvalidate
func (m *cacheMetrics) CacheInvalidate() {
	m.invalidations.Inc()
}
