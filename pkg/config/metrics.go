package config

import (
	"github.com/davkit/propstore/pkg/metrics"
	"github.com/davkit/propstore/pkg/props"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server is the HTTP server exposing Prometheus metrics (nil if disabled)
	Server *metrics.Server

	// Store records per-operation store metrics (nil if disabled;
	// metrics.InstrumentStore leaves stores unwrapped for a nil collector)
	Store metrics.StoreMetrics

	// Cache counts session lookup-cache activity (nil if disabled;
	// sessions fall back to their built-in no-op counters)
	Cache props.CacheMetrics
}

// InitializeMetrics creates and initializes all metrics components based on configuration.
//
// If metrics are enabled in the configuration:
//   - Initializes the global Prometheus registry
//   - Creates the metrics HTTP server
//   - Creates Prometheus-backed collectors for stores and session caches
//
// If metrics are disabled, every field of the result is nil and
// consumers run uninstrumented with zero overhead.
//
// Parameters:
//   - cfg: The complete PropStore configuration
//
// Returns:
//   - MetricsResult containing all metrics components
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Metrics.Enabled {
		return &MetricsResult{}
	}

	// Initialize global Prometheus registry
	metrics.InitRegistry()

	// Create metrics HTTP server
	server := metrics.NewServer(metrics.ServerConfig{
		Port: cfg.Metrics.Port,
	})

	return &MetricsResult{
		Server: server,
		Store:  metrics.NewStoreMetrics(),
		Cache:  metrics.NewCacheMetrics(),
	}
}
