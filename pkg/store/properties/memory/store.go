// Package memory implements the property store contract with plain maps.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/davkit/propstore/pkg/props"
	"github.com/davkit/propstore/pkg/store/properties"
)

// storedValue is one encoded payload at rest.
type storedValue struct {
	kind  uint32
	value []byte
}

// MemoryPropertyStore implements properties.Store using in-memory maps.
//
// This implementation is suitable for:
//   - Testing and development environments
//   - Ephemeral deployments where persistence is not required
//
// Thread Safety:
// All operations are protected by a single read-write mutex, making the
// store safe for concurrent access from multiple goroutines.
//
// Storage Model:
// Records live in nested maps keyed owner → path → name. Apply stages
// its whole batch against the current state before mutating anything,
// so a failed batch leaves the maps untouched and atomicity holds
// without any undo machinery.
type MemoryPropertyStore struct {
	// mu protects records and closed for concurrent access.
	mu sync.RWMutex

	// records maps owner → path → name to the encoded payload.
	records map[string]map[string]map[string]storedValue

	// closed flips once on Close; every operation afterwards fails
	// with ErrClosed.
	closed bool
}

// NewMemoryPropertyStore creates a new in-memory property store.
//
// The returned store is immediately ready for use and safe for
// concurrent access from multiple goroutines.
func NewMemoryPropertyStore() *MemoryPropertyStore {
	return &MemoryPropertyStore{
		records: make(map[string]map[string]map[string]storedValue),
	}
}

// FetchPath implements properties.Store.FetchPath. An empty owner
// matches any owner; results are ordered by (owner, name).
func (store *MemoryPropertyStore) FetchPath(ctx context.Context, owner, path string, names []string) ([]properties.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store.mu.RLock()
	defer store.mu.RUnlock()
	if store.closed {
		return nil, errClosed()
	}

	var wanted map[string]struct{}
	if len(names) > 0 {
		wanted = make(map[string]struct{}, len(names))
		for _, name := range names {
			wanted[name] = struct{}{}
		}
	}

	owners := []string{owner}
	if owner == "" {
		owners = store.sortedOwners()
	}

	var result []properties.Record
	for _, recordOwner := range owners {
		byPath, ok := store.records[recordOwner]
		if !ok {
			continue
		}
		byName, ok := byPath[path]
		if !ok {
			continue
		}
		for _, name := range sortedKeys(byName) {
			if wanted != nil {
				if _, ok := wanted[name]; !ok {
					continue
				}
			}
			result = append(result, makeRecord(recordOwner, path, name, byName[name]))
		}
	}
	return result, nil
}

// FetchOwner implements properties.Store.FetchOwner. Results are
// ordered by (path, name).
func (store *MemoryPropertyStore) FetchOwner(ctx context.Context, owner string) ([]properties.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store.mu.RLock()
	defer store.mu.RUnlock()
	if store.closed {
		return nil, errClosed()
	}

	byPath, ok := store.records[owner]
	if !ok {
		return nil, nil
	}

	var result []properties.Record
	for _, path := range sortedKeys(byPath) {
		byName := byPath[path]
		for _, name := range sortedKeys(byName) {
			result = append(result, makeRecord(owner, path, name, byName[name]))
		}
	}
	return result, nil
}

// Apply implements properties.Store.Apply. The batch is validated in
// full against current state before any mutation, which makes the
// commit all-or-nothing.
func (store *MemoryPropertyStore) Apply(ctx context.Context, owner, path string, batch properties.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if owner == "" {
		return &props.StoreError{
			Code:    props.ErrInvalidArgument,
			Message: "apply requires an owner",
			Path:    path,
		}
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if store.closed {
		return errClosed()
	}

	byName := store.records[owner][path]

	// Stage: every insert must be new, every update must exist.
	for _, entry := range batch.Inserts {
		if _, exists := byName[entry.Name]; exists {
			return &props.StoreError{
				Code:    props.ErrAlreadyExists,
				Message: "property already exists: " + entry.Name,
				Path:    path,
			}
		}
	}
	for _, entry := range batch.Updates {
		if _, exists := byName[entry.Name]; !exists {
			return &props.StoreError{
				Code:    props.ErrNotFound,
				Message: "property not found: " + entry.Name,
				Path:    path,
			}
		}
	}

	// Commit.
	for _, entry := range batch.Inserts {
		store.setLocked(owner, path, entry)
	}
	for _, entry := range batch.Updates {
		store.setLocked(owner, path, entry)
	}
	for _, name := range batch.Deletes {
		store.deleteLocked(owner, path, name)
	}
	return nil
}

// DeletePath implements properties.Store.DeletePath.
func (store *MemoryPropertyStore) DeletePath(ctx context.Context, owner, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if store.closed {
		return errClosed()
	}

	byPath, ok := store.records[owner]
	if !ok {
		return nil
	}
	delete(byPath, path)
	if len(byPath) == 0 {
		delete(store.records, owner)
	}
	return nil
}

// MovePath implements properties.Store.MovePath. Destination conflicts
// fail the whole move before anything is touched.
func (store *MemoryPropertyStore) MovePath(ctx context.Context, owner, from, to string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if store.closed {
		return errClosed()
	}

	byPath, ok := store.records[owner]
	if !ok {
		return nil
	}
	source, ok := byPath[from]
	if !ok {
		return nil
	}

	destination := byPath[to]
	for name := range source {
		if _, exists := destination[name]; exists {
			return &props.StoreError{
				Code:    props.ErrAlreadyExists,
				Message: "destination already holds property: " + name,
				Path:    to,
			}
		}
	}

	if destination == nil {
		destination = make(map[string]storedValue, len(source))
		byPath[to] = destination
	}
	for name, value := range source {
		destination[name] = value
	}
	delete(byPath, from)
	return nil
}

// Walk implements properties.Store.Walk. Iteration runs over a sorted
// snapshot of the keys taken under the read lock.
func (store *MemoryPropertyStore) Walk(ctx context.Context, fn func(properties.Record) error) error {
	store.mu.RLock()
	if store.closed {
		store.mu.RUnlock()
		return errClosed()
	}

	var snapshot []properties.Record
	for _, owner := range store.sortedOwners() {
		byPath := store.records[owner]
		for _, path := range sortedKeys(byPath) {
			byName := byPath[path]
			for _, name := range sortedKeys(byName) {
				snapshot = append(snapshot, makeRecord(owner, path, name, byName[name]))
			}
		}
	}
	store.mu.RUnlock()

	for _, record := range snapshot {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(record); err != nil {
			return err
		}
	}
	return nil
}

// HealthCheck implements properties.Store.HealthCheck. An in-memory
// store is healthy until closed.
func (store *MemoryPropertyStore) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	store.mu.RLock()
	defer store.mu.RUnlock()
	if store.closed {
		return errClosed()
	}
	return nil
}

// Close implements properties.Store.Close. Closing twice is a no-op.
func (store *MemoryPropertyStore) Close() error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.closed = true
	return nil
}

// setLocked stores a copy of the entry payload. Must be called with mu
// held for writing.
func (store *MemoryPropertyStore) setLocked(owner, path string, entry properties.Entry) {
	byPath, ok := store.records[owner]
	if !ok {
		byPath = make(map[string]map[string]storedValue)
		store.records[owner] = byPath
	}
	byName, ok := byPath[path]
	if !ok {
		byName = make(map[string]storedValue)
		byPath[path] = byName
	}

	value := make([]byte, len(entry.Value))
	copy(value, entry.Value)
	byName[entry.Name] = storedValue{kind: entry.Kind, value: value}
}

// deleteLocked removes one record and prunes empty map levels. Must be
// called with mu held for writing.
func (store *MemoryPropertyStore) deleteLocked(owner, path, name string) {
	byPath, ok := store.records[owner]
	if !ok {
		return
	}
	byName, ok := byPath[path]
	if !ok {
		return
	}
	delete(byName, name)
	if len(byName) == 0 {
		delete(byPath, path)
	}
	if len(byPath) == 0 {
		delete(store.records, owner)
	}
}

func (store *MemoryPropertyStore) sortedOwners() []string {
	owners := make([]string, 0, len(store.records))
	for owner := range store.records {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	return owners
}

func makeRecord(owner, path, name string, stored storedValue) properties.Record {
	value := make([]byte, len(stored.value))
	copy(value, stored.value)
	return properties.Record{
		Owner: owner,
		Path:  path,
		Name:  name,
		Kind:  stored.kind,
		Value: value,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func errClosed() error {
	return &props.StoreError{
		Code:    props.ErrClosed,
		Message: "property store is closed",
	}
}
