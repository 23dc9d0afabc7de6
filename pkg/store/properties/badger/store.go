// Package badger implements the property store contract on BadgerDB.
package badger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/davkit/propstore/internal/logger"
	"github.com/davkit/propstore/pkg/props"
)

// Config holds the parameters for opening a Badger-backed property
// store.
type Config struct {
	// DBPath is the directory BadgerDB keeps its tables and value log
	// in. Created if missing. Ignored when InMemory is set.
	DBPath string

	// InMemory runs the database entirely in memory. Useful for tests
	// that want Badger semantics without disk churn.
	InMemory bool
}

// BadgerPropertyStore implements properties.Store using BadgerDB for
// persistence.
//
// This implementation provides a persistent property repository backed
// by BadgerDB, a fast embedded key-value store. It is suitable for:
//   - Production environments requiring persistence across restarts
//   - Deployments without a SQLite toolchain for offline inspection
//   - Write-heavy property churn (LSM-friendly workload)
//
// Thread Safety:
// All operations are protected by a single read-write mutex, making
// the store safe for concurrent access from multiple goroutines.
// Serializing writers at the store level also keeps BadgerDB's
// optimistic conflict detection from ever firing, which this workload
// does not need fine-grained concurrency enough to trade for retry
// loops.
//
// Storage Model:
// The store uses a key-value model with namespaced prefixes and a
// secondary index for any-owner path lookups (see keys.go for the
// schema documentation). Values carry the kind discriminator inline
// with the payload (see serialization.go).
type BadgerPropertyStore struct {
	// db is the BadgerDB database handle (thread-safe, uses internal MVCC)
	db *badger.DB

	// mu serializes writers and guards closed.
	mu     sync.RWMutex
	closed bool
}

// NewBadgerPropertyStore opens (creating if necessary) the database
// under config.DBPath.
//
// Logging is reduced to warnings and compression is disabled: property
// payloads are small display names and XML fragments, so compression
// overhead is not worth it.
//
// Parameters:
//   - config: Database location and mode
//
// Returns:
//   - *BadgerPropertyStore: Ready-to-use store
//   - error: If the database cannot be opened
func NewBadgerPropertyStore(config Config) (*BadgerPropertyStore, error) {
	var opts badger.Options
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if config.DBPath == "" {
			return nil, fmt.Errorf("badger property store: db path is required")
		}
		opts = badger.DefaultOptions(config.DBPath)
	}
	opts = opts.WithLoggingLevel(badger.WARNING)
	opts = opts.WithCompression(options.None)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger property store: opening %s: %w", config.DBPath, err)
	}

	logger.Debug("Badger property store opened at %s (in-memory: %t)", config.DBPath, config.InMemory)

	return &BadgerPropertyStore{db: db}, nil
}

// HealthCheck implements properties.Store.HealthCheck with an empty
// read transaction, which verifies the database handle is live.
func (store *BadgerPropertyStore) HealthCheck(ctx context.Context) error {
	err := store.view(ctx, func(txn *badger.Txn) error { return nil })
	return translate("health check", "", err)
}

// Close implements properties.Store.Close. Closing twice is a no-op.
func (store *BadgerPropertyStore) Close() error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.closed {
		return nil
	}
	store.closed = true

	if err := store.db.Close(); err != nil {
		logger.Warn("Badger property store close: %v", err)
		return &props.StoreError{
			Code:    props.ErrStorage,
			Message: "closing database: " + err.Error(),
		}
	}
	return nil
}

// view runs fn in a read-only transaction under the shared lock.
func (store *BadgerPropertyStore) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	store.mu.RLock()
	defer store.mu.RUnlock()
	if store.closed {
		return errClosed()
	}
	return store.db.View(fn)
}

// change runs fn in a read-write transaction under the exclusive lock.
func (store *BadgerPropertyStore) change(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if store.closed {
		return errClosed()
	}
	return store.db.Update(fn)
}

// translate wraps database failures into storage errors, passing
// business errors and context cancellation through untouched.
func translate(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	var storeErr *props.StoreError
	if errors.As(err, &storeErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, badger.ErrDBClosed) {
		return errClosed()
	}
	return &props.StoreError{
		Code:    props.ErrStorage,
		Message: operation + ": " + err.Error(),
		Path:    path,
	}
}

func errClosed() error {
	return &props.StoreError{
		Code:    props.ErrClosed,
		Message: "property store is closed",
	}
}
