// Package registry tracks the named property stores a process has open.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/davkit/propstore/pkg/store/properties"
)

// Registry manages all named property stores. It provides thread-safe
// registration and lookup, and remembers registration order: the first
// registered store is the default one commands fall back to when no
// store name is given.
//
// Example usage:
//
//	reg := registry.NewRegistry()
//	reg.RegisterStore("main", sqliteStore)
//	reg.RegisterStore("scratch", memoryStore)
//
//	store, _ := reg.GetStore("main")
//	name, store, _ := reg.DefaultStore()
type Registry struct {
	mu     sync.RWMutex
	stores map[string]properties.Store
	order  []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		stores: make(map[string]properties.Store),
	}
}

// RegisterStore adds a named store to the registry.
// Returns an error if a store with the same name already exists.
func (r *Registry) RegisterStore(name string, store properties.Store) error {
	if store == nil {
		return fmt.Errorf("cannot register nil store")
	}
	if name == "" {
		return fmt.Errorf("cannot register store with empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.stores[name]; exists {
		return fmt.Errorf("store %q already registered", name)
	}

	r.stores[name] = store
	r.order = append(r.order, name)
	return nil
}

// GetStore retrieves a store by name.
// Returns nil, error if not found.
func (r *Registry) GetStore(name string) (properties.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	store, exists := r.stores[name]
	if !exists {
		return nil, fmt.Errorf("store %q not found", name)
	}
	return store, nil
}

// DefaultStore returns the first registered store and its name.
// Returns an error if the registry is empty.
func (r *Registry) DefaultStore() (string, properties.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.order) == 0 {
		return "", nil, fmt.Errorf("no stores registered")
	}

	name := r.order[0]
	return name, r.stores[name], nil
}

// ListStores returns all registered store names in registration order.
// The returned slice is a copy and safe to modify.
func (r *Registry) ListStores() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// StoreExists checks if a store with the given name is registered.
func (r *Registry) StoreExists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.stores[name]
	return exists
}

// CountStores returns the number of registered stores.
func (r *Registry) CountStores() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stores)
}

// CheckAll runs a health check on every registered store and returns
// the results keyed by store name. A nil value means healthy.
func (r *Registry) CheckAll(ctx context.Context) map[string]error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make(map[string]error, len(r.stores))
	for name, store := range r.stores {
		results[name] = store.HealthCheck(ctx)
	}
	return results
}

// CloseAll closes every registered store and empties the registry.
// Every store is closed even if earlier ones fail; the returned error
// joins all failures.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, name := range r.order {
		if err := r.stores[name].Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store %q: %w", name, err))
		}
	}

	r.stores = make(map[string]properties.Store)
	r.order = nil

	return errors.Join(errs...)
}
