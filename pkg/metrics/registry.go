// Package metrics provides Prometheus metrics collection for property
// store components.
//
// All metrics are optional - if the registry is never initialized,
// components fall back to no-op implementations with zero overhead, so
// the store library runs the same with or without metrics enabled.
//
// Usage:
//
//	// Initialize global registry (typically in main.go)
//	metrics.InitRegistry()
//
//	// Create metrics instances for components
//	cacheMetrics := metrics.NewCacheMetrics()
//	storeMetrics := metrics.NewStoreMetrics()
//
//	// Or pass nil for no-op behavior
//	session, _ := props.NewSession(store, owner, nil)
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// registry is the global Prometheus registry for all propstore
	// metrics. Protected by registryOnce for write-once, read-many.
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry initializes the global Prometheus registry.
//
// This must be called before creating any metrics instances. It's safe
// to call multiple times - subsequent calls are ignored.
//
// If not called, GetRegistry() returns nil and all metrics constructors
// return no-op implementations.
//
// Thread safety:
// sync.Once provides the necessary memory barriers to ensure the
// registry write is visible to all subsequent reads.
func InitRegistry() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
	})
}

// GetRegistry returns the global Prometheus registry.
//
// Returns nil if InitRegistry() has not been called, indicating metrics
// are disabled.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled returns true if metrics collection is enabled.
//
// Metrics are enabled if InitRegistry() has been called.
func IsEnabled() bool {
	return GetRegistry() != nil
}
