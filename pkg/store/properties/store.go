// Package properties defines the storage contract for per-owner resource
// properties.
//
// A property is one named value attached to a resource path on behalf of
// one owner. The storage layer deals in encoded records only: it never
// interprets the value payload or the kind discriminator, and it never
// normalizes paths. Callers hand it bounded path keys (see pkg/props) and
// get the same keys back.
package properties

import (
	"context"
)

// Record is one stored property row.
//
// The triple (Owner, Path, Name) is unique within a store. Kind and Value
// are opaque to the storage layer; pkg/props owns their interpretation.
type Record struct {
	// Owner is the opaque identifier of the user who set the value.
	// Ownership is always recorded at write time; owners are never
	// empty.
	Owner string

	// Path is the normalized resource path key.
	Path string

	// Name is the namespaced property name ("{namespace}localname").
	Name string

	// Kind is the value encoding discriminator.
	Kind uint32

	// Value is the encoded payload.
	Value []byte
}

// Entry is one property payload inside a Batch. Owner and path come from
// the Apply call the batch belongs to.
type Entry struct {
	Name  string
	Kind  uint32
	Value []byte
}

// Batch groups the writes applied to one (owner, path) pair in a single
// transaction.
//
// The caller partitions its change set against the records that exist at
// the time the batch is built: names it saw are updated or deleted, names
// it did not see are inserted. Implementations enforce that split so a
// batch built against a stale view fails instead of silently diverging.
type Batch struct {
	// Inserts are properties that must not exist yet.
	Inserts []Entry

	// Updates are properties that must already exist.
	Updates []Entry

	// Deletes are names of properties to remove. Deleting a name that
	// does not exist is a no-op.
	Deletes []string
}

// Empty reports whether the batch carries no work.
func (b Batch) Empty() bool {
	return len(b.Inserts) == 0 && len(b.Updates) == 0 && len(b.Deletes) == 0
}

// ============================================================================
// Store Interface
// ============================================================================

// Store persists property records keyed by (owner, path, name).
//
// Design principles:
//   - Encoding-agnostic: Kind and Value pass through untouched
//   - Consistent error handling: business-logic failures are *props.StoreError
//   - Context-aware: all operations respect cancellation and timeouts
//   - Atomic writes: Apply commits a whole batch or none of it
//
// Thread safety:
// Implementations must be safe for concurrent use by multiple goroutines.
type Store interface {
	// ========================================================================
	// Reads
	// ========================================================================

	// FetchPath returns the records at a path.
	//
	// A non-empty owner restricts the result to that owner's records;
	// the empty owner means any owner (published lookups scan all
	// owners at a path). An empty names slice means all names; a
	// non-empty slice restricts the result to those names. Missing
	// names are simply absent from the result, not an error.
	//
	// Results are ordered by (owner, name) so callers resolving
	// conflicts across owners see a stable order.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//   - owner: Owner filter ("" for any owner)
	//   - path: Normalized path key
	//   - names: Optional name filter
	//
	// Returns:
	//   - []Record: Matching records (may be empty)
	//   - error: Storage failures or context cancellation
	FetchPath(ctx context.Context, owner, path string, names []string) ([]Record, error)

	// FetchOwner returns every record an owner holds, across all paths.
	//
	// Used by inspection tooling; result ordering is by (path, name).
	//
	// Returns:
	//   - []Record: All records for the owner (may be empty)
	//   - error: Storage failures or context cancellation
	FetchOwner(ctx context.Context, owner string) ([]Record, error)

	// ========================================================================
	// Writes
	// ========================================================================

	// Apply executes one batch of writes for (owner, path) atomically.
	//
	// All inserts, updates and deletes commit together or not at all. An
	// insert whose name already exists fails the whole batch with
	// ErrAlreadyExists; an update whose name is missing fails it with
	// ErrNotFound. On failure no partial state is left behind.
	//
	// An empty batch commits trivially and returns nil.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//   - owner: Owner the batch writes under
	//   - path: Normalized path key
	//   - batch: The staged writes
	//
	// Returns:
	//   - error: ErrAlreadyExists, ErrNotFound, storage failures, or
	//     context cancellation
	Apply(ctx context.Context, owner, path string, batch Batch) error

	// DeletePath removes every record an owner holds at a path.
	//
	// This is the cascade hook for resource deletion: the owner's
	// whole record set at the path goes at once. A path with no
	// records is a no-op, not an error.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//   - owner: Owner whose records to remove (must be non-empty)
	//   - path: Normalized path key
	//
	// Returns:
	//   - error: Storage failures or context cancellation
	DeletePath(ctx context.Context, owner, path string) error

	// MovePath rewrites the path key of the owner's records at from to
	// the key to. Records are updated in place; nothing is deleted and
	// re-created, so record identity survives the move.
	//
	// A source path with no records is a no-op. A move whose
	// destination already holds one of the moving names for the same
	// owner fails with ErrAlreadyExists, leaving the source untouched.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//   - owner: Owner whose records to move (must be non-empty)
	//   - from: Current path key
	//   - to: New path key
	//
	// Returns:
	//   - error: ErrAlreadyExists on destination conflicts, storage
	//     failures, or context cancellation
	MovePath(ctx context.Context, owner, from, to string) error

	// ========================================================================
	// Maintenance
	// ========================================================================

	// Walk streams every record in the store to fn, ordered by
	// (owner, path, name). Iteration stops at the first error fn
	// returns, and that error is passed through unchanged.
	//
	// The records seen form a consistent snapshot where the backend
	// supports one (SQLite, Badger); the memory backend walks a copy.
	//
	// Returns:
	//   - error: The error from fn, storage failures, or context
	//     cancellation
	Walk(ctx context.Context, fn func(Record) error) error

	// HealthCheck verifies the store can serve requests.
	//
	// Implementations with external state (database file, key-value dir)
	// should touch it; the check must be fast and must not modify data.
	//
	// Returns:
	//   - error: nil when healthy
	HealthCheck(ctx context.Context) error

	// Close releases the store's resources. The store must not be used
	// afterwards; operations on a closed store return ErrClosed.
	Close() error
}
