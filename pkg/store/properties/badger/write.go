package badger

import (
	"context"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/davkit/propstore/pkg/props"
	"github.com/davkit/propstore/pkg/store/properties"
)

// Apply implements properties.Store.Apply. The existing name set is
// read inside the same transaction that mutates, so the batch split is
// validated against the state it commits over and a validation failure
// discards the transaction with nothing written.
func (store *BadgerPropertyStore) Apply(ctx context.Context, owner, path string, batch properties.Batch) error {
	if owner == "" {
		return &props.StoreError{
			Code:    props.ErrInvalidArgument,
			Message: "apply requires an owner",
			Path:    path,
		}
	}
	if err := validateKeyFields(path, owner, path); err != nil {
		return err
	}
	for _, entry := range batch.Inserts {
		if err := validateKeyFields(path, entry.Name); err != nil {
			return err
		}
	}

	err := store.change(ctx, func(txn *badger.Txn) error {
		existing, err := namesAt(txn, owner, path)
		if err != nil {
			return err
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
			if err := setRecord(txn, owner, path, entry); err != nil {
				return err
			}
		}
		for _, entry := range batch.Updates {
			if err := setRecord(txn, owner, path, entry); err != nil {
				return err
			}
		}
		for _, name := range batch.Deletes {
			if err := deleteRecord(txn, owner, path, name); err != nil {
				return err
			}
		}
		return nil
	})
	return translate("applying batch", path, err)
}

// DeletePath implements properties.Store.DeletePath.
func (store *BadgerPropertyStore) DeletePath(ctx context.Context, owner, path string) error {
	err := store.change(ctx, func(txn *badger.Txn) error {
		// Collect first; the iterator must close before keys change.
		names, err := namesAt(txn, owner, path)
		if err != nil {
			return err
		}
		for name := range names {
			if err := deleteRecord(txn, owner, path, name); err != nil {
				return err
			}
		}
		return nil
	})
	return translate("deleting path records", path, err)
}

// MovePath implements properties.Store.MovePath. Conflicts are checked
// against every moving name before any key changes, so a failed move
// leaves the source untouched.
func (store *BadgerPropertyStore) MovePath(ctx context.Context, owner, from, to string) error {
	if err := validateKeyFields(to, owner, from, to); err != nil {
		return err
	}

	type moving struct {
		name string
		blob []byte
	}

	err := store.change(ctx, func(txn *badger.Txn) error {
		// Collect the moving set first; the iterator must close before
		// the keys change.
		var records []moving
		collect := func() error {
			opts := badger.DefaultIteratorOptions
			opts.PrefetchValues = true
			opts.Prefix = keyRecordPrefix(owner, from)

			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Rewind(); it.Valid(); it.Next() {
				_, _, name, err := parseRecordKey(it.Item().Key())
				if err != nil {
					return err
				}
				blob, err := it.Item().ValueCopy(nil)
				if err != nil {
					return err
				}
				records = append(records, moving{name: name, blob: blob})
			}
			return nil
		}
		if err := collect(); err != nil {
			return err
		}

		for _, record := range records {
			_, err := txn.Get(keyRecord(owner, to, record.name))
			if err == nil {
				return &props.StoreError{
					Code:    props.ErrAlreadyExists,
					Message: "destination already holds property: " + record.name,
					Path:    to,
				}
			}
			if err != badger.ErrKeyNotFound {
				return err
			}
		}

		for _, record := range records {
			if err := txn.Set(keyRecord(owner, to, record.name), record.blob); err != nil {
				return err
			}
			if err := txn.Set(keyPathIndex(owner, to, record.name), nil); err != nil {
				return err
			}
			if err := txn.Delete(keyRecord(owner, from, record.name)); err != nil {
				return err
			}
			if err := txn.Delete(keyPathIndex(owner, from, record.name)); err != nil {
				return err
			}
		}
		return nil
	})
	return translate("moving path records", from, err)
}

// namesAt returns the set of property names the owner holds at path.
func namesAt(txn *badger.Txn, owner, path string) (map[string]bool, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false // Only need keys
	opts.Prefix = keyRecordPrefix(owner, path)

	it := txn.NewIterator(opts)
	defer it.Close()

	names := make(map[string]bool)
	for it.Rewind(); it.Valid(); it.Next() {
		_, _, name, err := parseRecordKey(it.Item().Key())
		if err != nil {
			return nil, err
		}
		names[name] = true
	}
	return names, nil
}

// setRecord writes a record and its index entry.
func setRecord(txn *badger.Txn, owner, path string, entry properties.Entry) error {
	if err := txn.Set(keyRecord(owner, path, entry.Name), encodeValue(entry.Kind, entry.Value)); err != nil {
		return err
	}
	return txn.Set(keyPathIndex(owner, path, entry.Name), nil)
}

// deleteRecord removes a record and its index entry.
func deleteRecord(txn *badger.Txn, owner, path, name string) error {
	if err := txn.Delete(keyRecord(owner, path, name)); err != nil {
		return err
	}
	return txn.Delete(keyPathIndex(owner, path, name))
}
