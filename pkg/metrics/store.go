package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/davkit/propstore/pkg/store/properties"
)

// StoreMetrics provides observability for property store operations.
//
// Implementations collect per-operation counts and latencies, labeled
// by store name so multi-store deployments can tell their backends
// apart. This interface is optional - wrap stores with InstrumentStore
// only when metrics are wanted.
//
// Example usage:
//
//	storeMetrics := metrics.NewStoreMetrics()
//	store = metrics.InstrumentStore(store, "main", storeMetrics)
type StoreMetrics interface {
	// RecordOperation records a completed store operation.
	//
	// Parameters:
	//   - store: Name of the store the operation ran against
	//   - operation: Operation name (e.g., "fetch_path", "apply")
	//   - duration: Time taken to complete the operation
	//   - err: Error if the operation failed, nil if successful
	RecordOperation(store, operation string, duration time.Duration, err error)
}

// storeMetrics is the Prometheus implementation of StoreMetrics.
type storeMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
}

// NewStoreMetrics creates a new Prometheus-backed StoreMetrics
// instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called);
// InstrumentStore treats nil as "leave the store unwrapped".
func NewStoreMetrics() StoreMetrics {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()

	return &storeMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "propstore_store_operations_total",
				Help: "Total number of property store operations by store, operation, and status",
			},
			[]string{"store", "operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "propstore_store_operation_duration_seconds",
				Help: "Duration of property store operations in seconds",
				Buckets: []float64{
					0.0001, // 100µs
					0.0005, // 500µs
					0.001,  // 1ms
					0.005,  // 5ms
					0.01,   // 10ms
					0.05,   // 50ms
					0.1,    // 100ms
					0.5,    // 500ms
					1.0,    // 1s
					5.0,    // 5s
				},
			},
			[]string{"store", "operation"},
		),
	}
}

// RecordOperation implements StoreMetrics.RecordOperation
func (m *storeMetrics) RecordOperation(store, operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	m.operationsTotal.WithLabelValues(store, operation, status).Inc()
	m.operationDuration.WithLabelValues(store, operation).Observe(duration.Seconds())
}

// ============================================================================
// Store Instrumentation
// ============================================================================

// InstrumentStore wraps a property store so every operation is recorded
// against the given metrics. A nil metrics value returns the store
// unwrapped, so callers never pay for instrumentation they did not ask
// for.
func InstrumentStore(store properties.Store, name string, metrics StoreMetrics) properties.Store {
	if metrics == nil {
		return store
	}

	return &instrumentedStore{
		inner:   store,
		name:    name,
		metrics: metrics,
	}
}

// instrumentedStore delegates to an inner store and records one
// observation per operation.
type instrumentedStore struct {
	inner   properties.Store
	name    string
	metrics StoreMetrics
}

func (s *instrumentedStore) FetchPath(ctx context.Context, owner, path string, names []string) ([]properties.Record, error) {
	start := time.Now()
	records, err := s.inner.FetchPath(ctx, owner, path, names)
	s.metrics.RecordOperation(s.name, "fetch_path", time.Since(start), err)
	return records, err
}

func (s *instrumentedStore) FetchOwner(ctx context.Context, owner string) ([]properties.Record, error) {
	start := time.Now()
	records, err := s.inner.FetchOwner(ctx, owner)
	s.metrics.RecordOperation(s.name, "fetch_owner", time.Since(start), err)
	return records, err
}

func (s *instrumentedStore) Apply(ctx context.Context, owner, path string, batch properties.Batch) error {
	start := time.Now()
	err := s.inner.Apply(ctx, owner, path, batch)
	s.metrics.RecordOperation(s.name, "apply", time.Since(start), err)
	return err
}

func (s *instrumentedStore) DeletePath(ctx context.Context, owner, path string) error {
	start := time.Now()
	err := s.inner.DeletePath(ctx, owner, path)
	s.metrics.RecordOperation(s.name, "delete_path", time.Since(start), err)
	return err
}

func (s *instrumentedStore) MovePath(ctx context.Context, owner, from, to string) error {
	start := time.Now()
	err := s.inner.MovePath(ctx, owner, from, to)
	s.metrics.RecordOperation(s.name, "move_path", time.Since(start), err)
	return err
}

func (s *instrumentedStore) Walk(ctx context.Context, fn func(properties.Record) error) error {
	start := time.Now()
	err := s.inner.Walk(ctx, fn)
	s.metrics.RecordOperation(s.name, "walk", time.Since(start), err)
	return err
}

func (s *instrumentedStore) HealthCheck(ctx context.Context) error {
	start := time.Now()
	err := s.inner.HealthCheck(ctx)
	s.metrics.RecordOperation(s.name, "health_check", time.Since(start), err)
	return err
}

func (s *instrumentedStore) Close() error {
	start := time.Now()
	err := s.inner.Close()
	s.metrics.RecordOperation(s.name, "close", time.Since(start), err)
	return err
}
