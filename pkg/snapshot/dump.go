package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/davkit/propstore/pkg/store/properties"
)

// DumpResult describes a finished dump.
type DumpResult struct {
	// Name is the archive name the snapshot was stored under.
	Name string

	// Info is the archive header.
	Info Info

	// Records is the number of records written.
	Records uint64
}

// Dump writes every record in the store to a new archive on the sink
// and returns the archive name.
//
// Records stream through the store's Walk, so the archive inherits its
// ordering guarantee: records arrive grouped by (owner, path), which is
// what Restore's batching relies on. The archive is assembled in memory
// and handed to the sink in one Put, so a failed dump never publishes a
// partial archive.
func Dump(ctx context.Context, store properties.Store, storeName string, sink Sink) (DumpResult, error) {
	info := Info{
		ID:      uuid.New().String(),
		Created: time.Now().UTC().Truncate(time.Second),
		Store:   storeName,
	}

	var buf bytes.Buffer
	writer, err := NewWriter(&buf, info)
	if err != nil {
		return DumpResult{}, err
	}

	err = store.Walk(ctx, func(record properties.Record) error {
		return writer.WriteRecord(record)
	})
	if err != nil {
		return DumpResult{}, fmt.Errorf("walk store %q: %w", storeName, err)
	}

	if err := writer.Close(); err != nil {
		return DumpResult{}, err
	}

	name := ArchiveName(info)
	if err := sink.Put(ctx, name, buf.Bytes()); err != nil {
		return DumpResult{}, fmt.Errorf("store archive %q: %w", name, err)
	}

	return DumpResult{
		Name:    name,
		Info:    info,
		Records: writer.Count(),
	}, nil
}
