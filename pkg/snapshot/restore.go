package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/davkit/propstore/pkg/store/properties"
)

// RestoreOptions controls how archived records land in the destination
// store.
type RestoreOptions struct {
	// Replace overwrites records that already exist at the
	// destination. When false, existing records are left untouched and
	// counted as skipped.
	Replace bool
}

// RestoreResult describes a finished restore.
type RestoreResult struct {
	// Info is the header of the restored archive.
	Info Info

	// Inserted counts records that did not exist at the destination.
	Inserted uint64

	// Replaced counts records that existed and were overwritten.
	Replaced uint64

	// Skipped counts records that existed and were left untouched.
	Skipped uint64
}

// Restore loads the named archive from the sink and applies its records
// to the store.
//
// Records are applied in batches, one atomic Apply per (owner, path)
// group; archives written by Dump arrive already grouped. A failure
// leaves earlier groups applied, so rerunning a failed restore is safe:
// records that landed on the first pass count as skipped (or replaced)
// on the next.
func Restore(ctx context.Context, store properties.Store, sink Sink, name string, options RestoreOptions) (RestoreResult, error) {
	data, err := sink.Get(ctx, name)
	if err != nil {
		return RestoreResult{}, fmt.Errorf("load archive %q: %w", name, err)
	}

	reader, err := NewReader(bytes.NewReader(data))
	if err != nil {
		return RestoreResult{}, err
	}

	result := RestoreResult{Info: reader.Info()}

	var (
		owner string
		path  string
		group []properties.Record
	)

	flush := func() error {
		if len(group) == 0 {
			return nil
		}
		if err := restoreGroup(ctx, store, owner, path, group, options, &result); err != nil {
			return err
		}
		group = group[:0]
		return nil
	}

	for {
		record, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return result, err
		}

		if record.Owner != owner || record.Path != path {
			if err := flush(); err != nil {
				return result, err
			}
			owner = record.Owner
			path = record.Path
		}
		group = append(group, record)
	}

	if err := flush(); err != nil {
		return result, err
	}

	return result, nil
}

// restoreGroup applies one (owner, path) group, split into inserts and
// updates against the records already present there.
func restoreGroup(ctx context.Context, store properties.Store, owner, path string, records []properties.Record, options RestoreOptions, result *RestoreResult) error {
	existing, err := store.FetchPath(ctx, owner, path, nil)
	if err != nil {
		return fmt.Errorf("restore %q at %q: %w", owner, path, err)
	}

	present := make(map[string]bool, len(existing))
	for _, record := range existing {
		present[record.Name] = true
	}

	var batch properties.Batch
	for _, record := range records {
		entry := properties.Entry{
			Name:  record.Name,
			Kind:  record.Kind,
			Value: record.Value,
		}

		switch {
		case !present[record.Name]:
			batch.Inserts = append(batch.Inserts, entry)
			result.Inserted++
		case options.Replace:
			batch.Updates = append(batch.Updates, entry)
			result.Replaced++
		default:
			result.Skipped++
		}
	}

	if batch.Empty() {
		return nil
	}

	if err := store.Apply(ctx, owner, path, batch); err != nil {
		return fmt.Errorf("restore %q at %q: %w", owner, path, err)
	}

	return nil
}
