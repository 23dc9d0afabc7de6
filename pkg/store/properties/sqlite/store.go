// Package sqlite implements the property store contract on a single
// SQLite database file.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/davkit/propstore/internal/logger"
	"github.com/davkit/propstore/pkg/props"
)

// Config holds the parameters for opening a SQLite-backed property
// store.
type Config struct {
	// Path is the filesystem path of the database file. The parent
	// directory must exist; the file is created on first open. Use
	// ":memory:" with PoolSize 1 for an in-memory database (in-memory
	// connections are independent, so a larger pool would see
	// disjoint data).
	Path string

	// PoolSize is the number of pooled connections. Zero or negative
	// defaults to the CPU count, floored at 4. SQLite serializes
	// writes regardless of pool size; extra connections only help
	// concurrent readers.
	PoolSize int

	// BusyTimeout is how long a connection waits on the SQLite write
	// lock before giving up with SQLITE_BUSY. Zero or negative
	// defaults to 5 seconds.
	BusyTimeout time.Duration
}

// SQLitePropertyStore implements properties.Store using a SQLite
// database for persistence.
//
// This implementation is suitable for:
//   - Production single-node deployments requiring durability
//   - Property sets larger than memory
//   - Deployments that want plain-file backup and offline inspection
//
// Thread Safety:
// Connections come from a fixed-size pool; each operation borrows one
// for its whole duration. Multi-statement writes run inside IMMEDIATE
// transactions, so concurrent writers queue on the SQLite write lock
// instead of failing, and readers proceed unblocked under WAL.
//
// Storage Model:
// One table keyed by (owner, path, name) holds every record (see
// schema.go). The composite primary key clusters rows in exactly the
// order Walk and FetchOwner return them, and a secondary index on
// (path, owner, name) serves any-owner path lookups.
type SQLitePropertyStore struct {
	pool *sqlitex.Pool
	path string

	// mu guards closed. The pool itself is safe for concurrent use.
	mu     sync.RWMutex
	closed bool
}

// NewSQLitePropertyStore opens the database at config.Path, creating
// the file and schema as needed.
//
// Every pooled connection gets the standard pragmas (WAL journal,
// NORMAL synchronous, busy timeout) before first use. The schema
// bootstrap runs eagerly on one connection so an unwritable path or a
// corrupt file fails here rather than on the first request.
//
// Parameters:
//   - config: Database path and pool sizing
//
// Returns:
//   - *SQLitePropertyStore: Ready-to-use store
//   - error: If the database cannot be opened or prepared
func NewSQLitePropertyStore(config Config) (*SQLitePropertyStore, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("sqlite property store: path is required")
	}

	poolSize := config.PoolSize
	if poolSize <= 0 {
		poolSize = runtime.NumCPU()
		if poolSize < 4 {
			poolSize = 4
		}
	}

	busyTimeout := config.BusyTimeout
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}

	pool, err := sqlitex.NewPool(config.Path, sqlitex.PoolOptions{
		PoolSize:    poolSize,
		PrepareConn: prepareConnection(busyTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite property store: opening %s: %w", config.Path, err)
	}

	// Connections are prepared lazily; touch one now so pragma and
	// schema errors surface at open time.
	conn, err := pool.Take(context.Background())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("sqlite property store: preparing %s: %w", config.Path, err)
	}
	pool.Put(conn)

	logger.Debug("SQLite property store opened at %s (pool size %d)", config.Path, poolSize)

	return &SQLitePropertyStore{
		pool: pool,
		path: config.Path,
	}, nil
}

// HealthCheck implements properties.Store.HealthCheck by running a
// trivial query on a pooled connection.
func (store *SQLitePropertyStore) HealthCheck(ctx context.Context) error {
	conn, err := store.conn(ctx)
	if err != nil {
		return err
	}
	defer store.pool.Put(conn)

	if err := sqlitex.ExecuteTransient(conn, "SELECT 1", nil); err != nil {
		return storageError("health check", "", err)
	}
	return nil
}

// Close implements properties.Store.Close. It blocks until every
// borrowed connection is returned; closing twice is a no-op.
func (store *SQLitePropertyStore) Close() error {
	store.mu.Lock()
	if store.closed {
		store.mu.Unlock()
		return nil
	}
	store.closed = true
	store.mu.Unlock()

	if err := store.pool.Close(); err != nil {
		logger.Warn("SQLite property store close: %v", err)
		return &props.StoreError{
			Code:    props.ErrStorage,
			Message: "closing database: " + err.Error(),
		}
	}
	logger.Debug("SQLite property store at %s closed", store.path)
	return nil
}

// conn borrows a pooled connection, translating pool failures into
// store errors. The caller must return it with store.pool.Put.
//
// The pool binds the connection's interrupt channel to ctx, so long
// queries abort when the context is cancelled.
func (store *SQLitePropertyStore) conn(ctx context.Context) (*sqlite.Conn, error) {
	store.mu.RLock()
	closed := store.closed
	store.mu.RUnlock()
	if closed {
		return nil, errClosed()
	}

	conn, err := store.pool.Take(ctx)
	if err != nil {
		if isContextErr(err) {
			return nil, err
		}
		// Close may have won the race between the flag check and Take.
		store.mu.RLock()
		closed = store.closed
		store.mu.RUnlock()
		if closed {
			return nil, errClosed()
		}
		return nil, &props.StoreError{
			Code:    props.ErrStorage,
			Message: "acquiring connection: " + err.Error(),
		}
	}
	return conn, nil
}

// storageError wraps a database failure, passing context cancellation
// through untouched.
func storageError(operation, path string, err error) error {
	if isContextErr(err) {
		return err
	}
	return &props.StoreError{
		Code:    props.ErrStorage,
		Message: operation + ": " + err.Error(),
		Path:    path,
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func errClosed() error {
	return &props.StoreError{
		Code:    props.ErrClosed,
		Message: "property store is closed",
	}
}
