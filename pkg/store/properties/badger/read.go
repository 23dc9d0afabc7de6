package badger

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/davkit/propstore/pkg/store/properties"
)

// errWalkAbort stops the iteration when the walk callback fails; the
// real error travels alongside it so it can surface unchanged.
var errWalkAbort = errors.New("walk aborted")

// walkContextCheckInterval is how many records Walk visits between
// context checks.
const walkContextCheckInterval = 100

// FetchPath implements properties.Store.FetchPath. An empty owner
// matches any owner; results are ordered by (owner, name).
func (store *BadgerPropertyStore) FetchPath(ctx context.Context, owner, path string, names []string) ([]properties.Record, error) {
	var wanted map[string]struct{}
	if len(names) > 0 {
		wanted = make(map[string]struct{}, len(names))
		for _, name := range names {
			wanted[name] = struct{}{}
		}
	}

	var records []properties.Record
	err := store.view(ctx, func(txn *badger.Txn) error {
		if owner != "" {
			return scanRecords(txn, keyRecordPrefix(owner, path), wanted, &records)
		}
		return scanPathIndex(txn, path, wanted, &records)
	})
	if err != nil {
		return nil, translate("fetching path", path, err)
	}
	return records, nil
}

// FetchOwner implements properties.Store.FetchOwner. Results are
// ordered by (path, name), which is the iteration order under the
// owner's key prefix.
func (store *BadgerPropertyStore) FetchOwner(ctx context.Context, owner string) ([]properties.Record, error) {
	var records []properties.Record
	err := store.view(ctx, func(txn *badger.Txn) error {
		return scanRecords(txn, keyOwnerPrefix(owner), nil, &records)
	})
	if err != nil {
		return nil, translate("fetching owner records", "", err)
	}
	return records, nil
}

// Walk implements properties.Store.Walk. The whole scan runs inside
// one read transaction, so the callback sees a consistent snapshot.
func (store *BadgerPropertyStore) Walk(ctx context.Context, fn func(properties.Record) error) error {
	// Callback errors must surface unchanged, so they are carried
	// around the transaction instead of through it.
	var callbackErr error
	err := store.view(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Prefix = []byte(prefixRecord)

		it := txn.NewIterator(opts)
		defer it.Close()

		visited := 0
		for it.Rewind(); it.Valid(); it.Next() {
			// Check context periodically
			if visited%walkContextCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			visited++

			record, err := itemRecord(it.Item())
			if err != nil {
				return err
			}
			if err := fn(record); err != nil {
				callbackErr = err
				return errWalkAbort
			}
		}
		return nil
	})
	if callbackErr != nil {
		return callbackErr
	}
	if err != nil {
		return translate("walking records", "", err)
	}
	return nil
}

// scanRecords appends every record under prefix whose name passes the
// filter. Record keys under one prefix iterate in contract order
// already (see keys.go).
func scanRecords(txn *badger.Txn, prefix []byte, wanted map[string]struct{}, out *[]properties.Record) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = true
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		if wanted != nil {
			_, _, name, err := parseRecordKey(item.Key())
			if err != nil {
				return err
			}
			if _, ok := wanted[name]; !ok {
				continue
			}
		}
		record, err := itemRecord(item)
		if err != nil {
			return err
		}
		*out = append(*out, record)
	}
	return nil
}

// scanPathIndex walks the path-first index and resolves each entry to
// its record. Index keys under one path iterate in (owner, name)
// order, which is the contract order for any-owner lookups.
func scanPathIndex(txn *badger.Txn, path string, wanted map[string]struct{}, out *[]properties.Record) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false // Index entries carry no value
	opts.Prefix = keyPathIndexPrefix(path)

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		owner, indexPath, name, err := parsePathIndexKey(it.Item().Key())
		if err != nil {
			return err
		}
		if wanted != nil {
			if _, ok := wanted[name]; !ok {
				continue
			}
		}

		item, err := txn.Get(keyRecord(owner, indexPath, name))
		if err != nil {
			return fmt.Errorf("index entry without record %s at %s: %w", name, indexPath, err)
		}
		blob, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		kind, payload, err := decodeValue(blob)
		if err != nil {
			return err
		}
		*out = append(*out, properties.Record{
			Owner: owner,
			Path:  indexPath,
			Name:  name,
			Kind:  kind,
			Value: payload,
		})
	}
	return nil
}

// itemRecord decodes one iterator item into a Record. Key and value
// bytes are copied out, so the record outlives the transaction.
func itemRecord(item *badger.Item) (properties.Record, error) {
	owner, path, name, err := parseRecordKey(item.Key())
	if err != nil {
		return properties.Record{}, err
	}
	blob, err := item.ValueCopy(nil)
	if err != nil {
		return properties.Record{}, err
	}
	kind, payload, err := decodeValue(blob)
	if err != nil {
		return properties.Record{}, err
	}
	return properties.Record{
		Owner: owner,
		Path:  path,
		Name:  name,
		Kind:  kind,
		Value: payload,
	}, nil
}
