package sqlite

import (
	"context"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/davkit/propstore/pkg/props"
	"github.com/davkit/propstore/pkg/store/properties"
)

// Apply implements properties.Store.Apply. The whole batch runs in one
// IMMEDIATE transaction: the current name set is read under the write
// lock, the batch split is validated against it, and only then do rows
// change. A validation failure rolls back with nothing written.
func (store *SQLitePropertyStore) Apply(ctx context.Context, owner, path string, batch properties.Batch) (err error) {
	if owner == "" {
		return &props.StoreError{
			Code:    props.ErrInvalidArgument,
			Message: "apply requires an owner",
			Path:    path,
		}
	}

	conn, err := store.conn(ctx)
	if err != nil {
		return err
	}
	defer store.pool.Put(conn)

	if batch.Empty() {
		return nil
	}

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return storageError("beginning transaction", path, err)
	}
	defer endTransaction(&err)

	existing := make(map[string]bool)
	err = sqlitex.Execute(conn,
		"SELECT name FROM properties WHERE owner = ? AND path = ?",
		&sqlitex.ExecOptions{
			Args: []any{owner, path},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				existing[stmt.ColumnText(0)] = true
				return nil
			},
		})
	if err != nil {
		return storageError("reading current names", path, err)
	}

	for _, entry := range batch.Inserts {
		if existing[entry.Name] {
			return &props.StoreError{
				Code:    props.ErrAlreadyExists,
				Message: "property already exists: " + entry.Name,
				Path:    path,
			}
		}
	}
	for _, entry := range batch.Updates {
		if !existing[entry.Name] {
			return &props.StoreError{
				Code:    props.ErrNotFound,
				Message: "property not found: " + entry.Name,
				Path:    path,
			}
		}
	}

	for _, entry := range batch.Inserts {
		err = sqlitex.Execute(conn,
			"INSERT INTO properties (owner, path, name, kind, value) VALUES (?, ?, ?, ?, ?)",
			&sqlitex.ExecOptions{
				Args: []any{owner, path, entry.Name, int64(entry.Kind), entry.Value},
			})
		if err != nil {
			return storageError("inserting "+entry.Name, path, err)
		}
	}
	for _, entry := range batch.Updates {
		err = sqlitex.Execute(conn,
			"UPDATE properties SET kind = ?, value = ? WHERE owner = ? AND path = ? AND name = ?",
			&sqlitex.ExecOptions{
				Args: []any{int64(entry.Kind), entry.Value, owner, path, entry.Name},
			})
		if err != nil {
			return storageError("updating "+entry.Name, path, err)
		}
	}
	for _, name := range batch.Deletes {
		err = sqlitex.Execute(conn,
			"DELETE FROM properties WHERE owner = ? AND path = ? AND name = ?",
			&sqlitex.ExecOptions{
				Args: []any{owner, path, name},
			})
		if err != nil {
			return storageError("deleting "+name, path, err)
		}
	}
	return nil
}

// DeletePath implements properties.Store.DeletePath. A single DELETE
// is atomic on its own, so no explicit transaction is needed.
func (store *SQLitePropertyStore) DeletePath(ctx context.Context, owner, path string) error {
	conn, err := store.conn(ctx)
	if err != nil {
		return err
	}
	defer store.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"DELETE FROM properties WHERE owner = ? AND path = ?",
		&sqlitex.ExecOptions{Args: []any{owner, path}})
	if err != nil {
		return storageError("deleting path records", path, err)
	}
	return nil
}

// MovePath implements properties.Store.MovePath. The conflict check
// and the path rewrite share one IMMEDIATE transaction so a concurrent
// writer cannot slip a collision in between the two.
func (store *SQLitePropertyStore) MovePath(ctx context.Context, owner, from, to string) (err error) {
	conn, err := store.conn(ctx)
	if err != nil {
		return err
	}
	defer store.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return storageError("beginning transaction", from, err)
	}
	defer endTransaction(&err)

	conflict := ""
	err = sqlitex.Execute(conn,
		`SELECT source.name
		   FROM properties AS source
		   JOIN properties AS destination
		     ON destination.owner = source.owner AND destination.name = source.name
		  WHERE source.owner = ? AND source.path = ? AND destination.path = ?
		  LIMIT 1`,
		&sqlitex.ExecOptions{
			Args: []any{owner, from, to},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				conflict = stmt.ColumnText(0)
				return nil
			},
		})
	if err != nil {
		return storageError("checking destination", to, err)
	}
	if conflict != "" {
		return &props.StoreError{
			Code:    props.ErrAlreadyExists,
			Message: "destination already holds property: " + conflict,
			Path:    to,
		}
	}

	err = sqlitex.Execute(conn,
		"UPDATE properties SET path = ? WHERE owner = ? AND path = ?",
		&sqlitex.ExecOptions{Args: []any{to, owner, from}})
	if err != nil {
		return storageError("moving path records", from, err)
	}
	return nil
}
