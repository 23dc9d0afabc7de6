// Package snapshot reads and writes portable archives of property store
// contents.
//
// Archive layout (every field XDR-encoded, RFC 4506):
//
//	header    magic, format version, snapshot ID, creation time, store name
//	records   a marker word (1) followed by one record frame, repeated
//	trailer   a marker word (0) followed by the total record count
//
// The marker word before each frame makes the record stream
// self-terminating without needing a record count up front, and the
// trailing count lets a reader prove the archive is complete: a stream
// cut off mid-frame breaks XDR decoding, and a stream cut between frames
// either loses the trailer or fails the count check.
//
// Archives move through a Sink, which abstracts where the bytes live
// (local directory, S3 bucket). Archive names embed the store name,
// creation time and snapshot ID, so a plain lexicographic sort of List
// output is chronological per store.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrSnapshotNotFound is returned by Sink.Get when the named archive
// does not exist.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ErrMalformedArchive is returned when an archive fails structural
// validation: bad magic, a broken frame, a truncated stream, or a
// trailer count that does not match the records read.
var ErrMalformedArchive = errors.New("malformed snapshot archive")

// ErrUnsupportedVersion is returned when an archive declares a format
// version this build does not understand.
var ErrUnsupportedVersion = errors.New("unsupported snapshot archive version")

// Info identifies one snapshot. It is written into the archive header
// and read back verbatim.
type Info struct {
	// ID is the snapshot UUID.
	ID string

	// Created is the creation time. The archive stores it as a Unix
	// timestamp, so sub-second precision does not survive a round trip.
	Created time.Time

	// Store is the name of the store the snapshot was taken from.
	Store string
}

// Sink stores finished archives by name.
//
// Archives are small relative to the resources they describe (property
// values are metadata-sized), so sinks deal in whole byte slices rather
// than streams. Put must publish atomically: a name returned by List
// always refers to a fully written archive.
type Sink interface {
	// Put stores an archive under the given name, replacing any
	// existing archive with that name.
	Put(ctx context.Context, name string, data []byte) error

	// Get returns the archive stored under the given name, or
	// ErrSnapshotNotFound if no such archive exists.
	Get(ctx context.Context, name string) ([]byte, error)

	// List returns the names of all archives in the sink, sorted
	// ascending.
	List(ctx context.Context) ([]string, error)
}

const archiveExtension = ".snap"

// archiveTimeFormat is fixed-width UTC so names sort chronologically.
const archiveTimeFormat = "20060102T150405Z"

// ArchiveName builds the canonical archive name for a snapshot:
// <store>-<UTC time>-<short id>.snap. Names from the same store sort
// lexicographically in creation order, down to the second.
func ArchiveName(info Info) string {
	id := info.ID
	if len(id) > 8 {
		id = id[:8]
	}

	return fmt.Sprintf("%s-%s-%s%s",
		info.Store,
		info.Created.UTC().Format(archiveTimeFormat),
		id,
		archiveExtension,
	)
}

// IsArchiveName reports whether name looks like a snapshot archive name.
// Sinks use it to skip unrelated files sharing the same directory or
// key prefix.
func IsArchiveName(name string) bool {
	return strings.HasSuffix(name, archiveExtension)
}
