package props

import (
	"context"
	"sort"

	"github.com/davkit/propstore/internal/logger"
	"github.com/davkit/propstore/pkg/store/properties"
)

// Session executes property operations on behalf of one acting owner.
//
// The owner is bound at construction, not passed per call, so call sites
// cannot mix up whose records they touch. Each session owns a private
// request-scoped cache; construct one session per logical request and
// discard it afterwards. Sharing a session across concurrent requests is
// safe but defeats the cache's request-scoped semantics.
//
// Lookups that hit records whose stored bytes no longer decode skip the
// offending property with a warning instead of failing the whole batch;
// the write path still reports such records as existing, so updates and
// deletes against them keep working.
type Session struct {
	store properties.Store
	owner string
	cache *lookupCache
}

// NewSession binds a session to a store and an acting owner.
//
// metrics may be nil, in which case cache counters are tracked
// internally but not exported.
//
// Returns ErrInvalidArgument when the store is nil or the owner is
// empty; the empty owner is reserved for any-owner reads inside the
// storage layer and never acts.
func NewSession(store properties.Store, owner string, metrics CacheMetrics) (*Session, error) {
	if store == nil {
		return nil, &StoreError{
			Code:    ErrInvalidArgument,
			Message: "session requires a store",
		}
	}
	if owner == "" {
		return nil, &StoreError{
			Code:    ErrInvalidArgument,
			Message: "session requires a non-empty owner",
		}
	}

	return &Session{
		store: store,
		owner: owner,
		cache: newLookupCache(metrics),
	}, nil
}

// Owner returns the acting owner the session was bound to.
func (s *Session) Owner() string {
	return s.owner
}

// CacheStats returns a snapshot of the session cache counters.
func (s *Session) CacheStats() CacheStats {
	return s.cache.stats()
}

// LookupPublished returns the published values visible at path.
//
// The requested names are intersected with the published allow-list
// first; an empty intersection returns nothing without touching
// storage. An empty names slice means the whole allow-list. Records of
// any owner qualify; when several owners hold the same published name
// at a path, the lexicographically first owner's record is served, a
// stable choice. Results are sorted by name.
func (s *Session) LookupPublished(ctx context.Context, path string, names []string) ([]Property, error) {
	if err := checkPath(path); err != nil {
		return nil, err
	}

	allowed := publishedSubset(names)
	if len(allowed) == 0 {
		return nil, nil
	}

	records, err := s.store.FetchPath(ctx, "", PathKey(path), allowed)
	if err != nil {
		return nil, err
	}

	// Records arrive ordered by (owner, name); the first decodable
	// record per name wins.
	result := make([]Property, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		if _, ok := seen[record.Name]; ok {
			continue
		}
		value, err := Decode(record.Kind, record.Value)
		if err != nil {
			logger.Warn("Skipping undecodable published property %s at %s: %v", record.Name, path, err)
			continue
		}
		seen[record.Name] = struct{}{}
		result = append(result, Property{Name: record.Name, Value: value})
	}

	sortByName(result)
	return result, nil
}

// LookupOwner returns the acting owner's values at path, optionally
// restricted to names (empty means all). Results are served from the
// session cache when the path has been looked up before and no write
// has touched it since. Results are sorted by name.
func (s *Session) LookupOwner(ctx context.Context, path string, names []string) ([]Property, error) {
	if err := checkPath(path); err != nil {
		return nil, err
	}

	all, err := s.ownerProperties(ctx, path)
	if err != nil {
		return nil, err
	}
	return filterByNames(all, names), nil
}

// ownerProperties returns the owner's complete decoded set at path,
// from the cache when possible. The cache always holds the full set;
// name filters are applied on the way out, so differently filtered
// lookups against the same path share one storage read.
func (s *Session) ownerProperties(ctx context.Context, path string) ([]Property, error) {
	key := PathKey(path)

	if cached, ok := s.cache.get(key); ok {
		return cached, nil
	}

	records, err := s.store.FetchPath(ctx, s.owner, key, nil)
	if err != nil {
		return nil, err
	}

	result := make([]Property, 0, len(records))
	for _, record := range records {
		value, err := Decode(record.Kind, record.Value)
		if err != nil {
			logger.Warn("Skipping undecodable property %s at %s: %v", record.Name, path, err)
			continue
		}
		result = append(result, Property{Name: record.Name, Value: value})
	}
	sortByName(result)

	s.cache.put(key, result)
	return result, nil
}

// Resolve merges the published and owner views of path: published
// values first, then the owner's own values overwriting on name
// conflict. A per-call combination, not a cache. Results are sorted by
// name.
func (s *Session) Resolve(ctx context.Context, path string, names []string) ([]Property, error) {
	published, err := s.LookupPublished(ctx, path, names)
	if err != nil {
		return nil, err
	}

	owned, err := s.LookupOwner(ctx, path, names)
	if err != nil {
		return nil, err
	}

	return MergeVisible(published, owned), nil
}

// ApplyChanges applies a set of property changes at path in one atomic
// batch. A nil value deletes the property; a non-nil value inserts or
// updates it depending on whether the owner already holds a record for
// that name. Deleting an absent name is a no-op. An empty change set
// still commits an empty transaction.
//
// The existing-name set is read once before the transaction; the batch
// then commits entirely or not at all, and the cache entry for path is
// dropped once the commit lands.
func (s *Session) ApplyChanges(ctx context.Context, path string, changes map[string]*Value) error {
	if err := checkPath(path); err != nil {
		return err
	}
	key := PathKey(path)

	// Existence is decided on raw records, not decoded ones, so a
	// record the read path skips as undecodable still counts as
	// existing and gets an update, not a colliding insert.
	records, err := s.store.FetchPath(ctx, s.owner, key, nil)
	if err != nil {
		return err
	}
	existing := make(map[string]struct{}, len(records))
	for _, record := range records {
		existing[record.Name] = struct{}{}
	}

	names := make([]string, 0, len(changes))
	for name := range changes {
		names = append(names, name)
	}
	sort.Strings(names)

	var batch properties.Batch
	for _, name := range names {
		if name == "" {
			return &StoreError{
				Code:    ErrInvalidArgument,
				Message: "property name must not be empty",
				Path:    path,
			}
		}

		value := changes[name]
		_, exists := existing[name]

		if value == nil {
			if exists {
				batch.Deletes = append(batch.Deletes, name)
			}
			continue
		}

		kind, data, err := Encode(*value)
		if err != nil {
			return err
		}
		entry := properties.Entry{Name: name, Kind: kind, Value: data}
		if exists {
			batch.Updates = append(batch.Updates, entry)
		} else {
			batch.Inserts = append(batch.Inserts, entry)
		}
	}

	if err := s.store.Apply(ctx, s.owner, key, batch); err != nil {
		return err
	}

	s.cache.invalidate(key)
	return nil
}

// DeletePath removes every record the owner holds at path and drops the
// cache entry. A path with no records is a no-op.
func (s *Session) DeletePath(ctx context.Context, path string) error {
	if err := checkPath(path); err != nil {
		return err
	}
	key := PathKey(path)

	if err := s.store.DeletePath(ctx, s.owner, key); err != nil {
		return err
	}

	s.cache.invalidate(key)
	return nil
}

// MovePath rewrites the owner's records at source to live under
// destination, in place, preserving record identity. Cache entries for
// both ends are dropped; a write touched both paths.
func (s *Session) MovePath(ctx context.Context, source, destination string) error {
	if err := checkPath(source); err != nil {
		return err
	}
	if err := checkPath(destination); err != nil {
		return err
	}

	from := PathKey(source)
	to := PathKey(destination)

	if err := s.store.MovePath(ctx, s.owner, from, to); err != nil {
		return err
	}

	s.cache.invalidate(from)
	s.cache.invalidate(to)
	return nil
}

func checkPath(path string) error {
	if path == "" {
		return &StoreError{
			Code:    ErrInvalidArgument,
			Message: "path must not be empty",
		}
	}
	return nil
}

// publishedSubset intersects names with the published allow-list. An
// empty names slice means the whole allow-list.
func publishedSubset(names []string) []string {
	if len(names) == 0 {
		all := make([]string, 0, len(publishedNames))
		for name := range publishedNames {
			all = append(all, name)
		}
		sort.Strings(all)
		return all
	}

	var allowed []string
	for _, name := range names {
		if IsPublished(name) {
			allowed = append(allowed, name)
		}
	}
	return allowed
}

// filterByNames restricts props to the given names, preserving order.
// Empty names means no restriction.
func filterByNames(props []Property, names []string) []Property {
	if len(names) == 0 {
		return props
	}

	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		wanted[name] = struct{}{}
	}

	filtered := make([]Property, 0, len(props))
	for _, prop := range props {
		if _, ok := wanted[prop.Name]; ok {
			filtered = append(filtered, prop)
		}
	}
	return filtered
}

func sortByName(props []Property) {
	sort.Slice(props, func(i, j int) bool {
		return props[i].Name < props[j].Name
	})
}
