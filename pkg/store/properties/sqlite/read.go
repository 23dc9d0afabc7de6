package sqlite

import (
	"context"
	"errors"
	"strings"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/davkit/propstore/pkg/store/properties"
)

// errWalkAbort stops the row loop when the walk callback fails; the
// real error travels alongside it so it can surface unchanged.
var errWalkAbort = errors.New("walk aborted")

// FetchPath implements properties.Store.FetchPath. An empty owner
// matches any owner; results are ordered by (owner, name).
func (store *SQLitePropertyStore) FetchPath(ctx context.Context, owner, path string, names []string) ([]properties.Record, error) {
	conn, err := store.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer store.pool.Put(conn)

	var query strings.Builder
	query.WriteString("SELECT owner, path, name, kind, value FROM properties WHERE path = ?")
	args := []any{path}

	if owner != "" {
		query.WriteString(" AND owner = ?")
		args = append(args, owner)
	}
	if len(names) > 0 {
		query.WriteString(" AND name IN (")
		query.WriteString(placeholders(len(names)))
		query.WriteString(")")
		for _, name := range names {
			args = append(args, name)
		}
	}
	query.WriteString(" ORDER BY owner, name")

	var records []properties.Record
	// Transient because the placeholder count varies with the name
	// filter; caching every variant would bloat the statement cache.
	err = sqlitex.ExecuteTransient(conn, query.String(), &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			records = append(records, rowRecord(stmt))
			return nil
		},
	})
	if err != nil {
		return nil, storageError("fetching path", path, err)
	}
	return records, nil
}

// FetchOwner implements properties.Store.FetchOwner. Results are
// ordered by (path, name).
func (store *SQLitePropertyStore) FetchOwner(ctx context.Context, owner string) ([]properties.Record, error) {
	conn, err := store.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer store.pool.Put(conn)

	var records []properties.Record
	err = sqlitex.Execute(conn,
		"SELECT owner, path, name, kind, value FROM properties WHERE owner = ? ORDER BY path, name",
		&sqlitex.ExecOptions{
			Args: []any{owner},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				records = append(records, rowRecord(stmt))
				return nil
			},
		})
	if err != nil {
		return nil, storageError("fetching owner records", "", err)
	}
	return records, nil
}

// Walk implements properties.Store.Walk. The scan is a single SELECT,
// so the callback sees a consistent snapshot of the table.
func (store *SQLitePropertyStore) Walk(ctx context.Context, fn func(properties.Record) error) error {
	conn, err := store.conn(ctx)
	if err != nil {
		return err
	}
	defer store.pool.Put(conn)

	// Callback errors must surface unchanged, so they are carried
	// around Execute instead of through it.
	var callbackErr error
	err = sqlitex.Execute(conn,
		"SELECT owner, path, name, kind, value FROM properties ORDER BY owner, path, name",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				if err := ctx.Err(); err != nil {
					callbackErr = err
					return errWalkAbort
				}
				if err := fn(rowRecord(stmt)); err != nil {
					callbackErr = err
					return errWalkAbort
				}
				return nil
			},
		})
	if callbackErr != nil {
		return callbackErr
	}
	if err != nil {
		return storageError("walking records", "", err)
	}
	return nil
}

// rowRecord builds a Record from the canonical five-column projection
// (owner, path, name, kind, value).
func rowRecord(stmt *sqlite.Stmt) properties.Record {
	value := make([]byte, stmt.ColumnLen(4))
	stmt.ColumnBytes(4, value)
	return properties.Record{
		Owner: stmt.ColumnText(0),
		Path:  stmt.ColumnText(1),
		Name:  stmt.ColumnText(2),
		Kind:  uint32(stmt.ColumnInt64(3)),
		Value: value,
	}
}

// placeholders returns n comma-separated SQL parameter markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
