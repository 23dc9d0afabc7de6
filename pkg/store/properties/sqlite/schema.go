package sqlite

import (
	"fmt"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// ============================================================================
// Database Layout
// ============================================================================
//
// A single table holds every property record. The composite primary
// key enforces (owner, path, name) uniqueness and, combined with
// WITHOUT ROWID, clusters rows in that order, so Walk and FetchOwner
// scan in their contract order without a sort step. The secondary
// index covers the any-owner path lookup used by published reads.
//
// Kind and value are opaque to this layer: kind is stored as the raw
// discriminator integer, value as the encoded payload blob.

const schemaSQL = `
CREATE TABLE IF NOT EXISTS properties (
	owner TEXT    NOT NULL,
	path  TEXT    NOT NULL,
	name  TEXT    NOT NULL,
	kind  INTEGER NOT NULL,
	value BLOB    NOT NULL,
	PRIMARY KEY (owner, path, name)
) WITHOUT ROWID;

CREATE INDEX IF NOT EXISTS properties_by_path
	ON properties (path, owner, name);
`

// connectionPragmas run on every pooled connection before first use.
// WAL keeps readers unblocked during writes, and NORMAL synchronous
// pairs with WAL for checkpoint-granularity durability.
var connectionPragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA cache_size=-8192",
	"PRAGMA mmap_size=268435456",
	"PRAGMA temp_store=MEMORY",
}

// prepareConnection returns the pool hook that applies the standard
// pragmas and bootstraps the schema. The hook runs once per pooled
// connection; the schema statements are idempotent. Pragmas run
// individually because journal_mode cannot be changed inside the
// transaction ExecuteScript wraps around its statements.
//
// The busy timeout makes concurrent writers queue on the write lock
// instead of failing with SQLITE_BUSY.
func prepareConnection(busyTimeout time.Duration) func(*sqlite.Conn) error {
	return func(conn *sqlite.Conn) error {
		pragmas := append([]string{
			fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout.Milliseconds()),
		}, connectionPragmas...)

		for _, pragma := range pragmas {
			if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
				return fmt.Errorf("%s: %w", pragma, err)
			}
		}
		if err := sqlitex.ExecuteScript(conn, schemaSQL, nil); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
		return nil
	}
}
