package snapshot

import (
	"fmt"
	"io"
	"time"

	xdr "github.com/rasky/go-xdr/xdr2"

	"github.com/davkit/propstore/pkg/store/properties"
)

// Wire format constants. The magic word reads "PSAR" (property store
// archive) as big-endian ASCII.
const (
	archiveMagic   uint32 = 0x50534152
	archiveVersion uint32 = 1
)

// Marker words between frames. Each record frame is preceded by
// markerRecord; markerEnd terminates the record stream and is followed
// by the trailer.
const (
	markerRecord uint32 = 1
	markerEnd    uint32 = 0
)

// archiveHeader opens every archive.
type archiveHeader struct {
	Magic   uint32
	Version uint32
	ID      string
	Created int64
	Store   string
}

// recordFrame carries one property record.
type recordFrame struct {
	Owner string
	Path  string
	Name  string
	Kind  uint32
	Value []byte
}

// archiveTrailer closes the archive. Count must match the number of
// record frames that preceded it.
type archiveTrailer struct {
	Count uint64
}

// ============================================================================
// Writer
// ============================================================================

// Writer emits one archive to an underlying stream.
//
// Call WriteRecord for every record, then Close to append the trailer.
// A Writer is not safe for concurrent use.
type Writer struct {
	dest   io.Writer
	count  uint64
	closed bool
}

// NewWriter writes the archive header and returns a Writer for the
// record stream.
func NewWriter(dest io.Writer, info Info) (*Writer, error) {
	header := archiveHeader{
		Magic:   archiveMagic,
		Version: archiveVersion,
		ID:      info.ID,
		Created: info.Created.UTC().Unix(),
		Store:   info.Store,
	}

	if _, err := xdr.Marshal(dest, &header); err != nil {
		return nil, fmt.Errorf("write archive header: %w", err)
	}

	return &Writer{dest: dest}, nil
}

// WriteRecord appends one record frame.
func (w *Writer) WriteRecord(record properties.Record) error {
	if w.closed {
		return fmt.Errorf("archive writer is closed")
	}

	if _, err := xdr.Marshal(w.dest, markerRecord); err != nil {
		return fmt.Errorf("write frame marker: %w", err)
	}

	frame := recordFrame{
		Owner: record.Owner,
		Path:  record.Path,
		Name:  record.Name,
		Kind:  record.Kind,
		Value: record.Value,
	}
	if _, err := xdr.Marshal(w.dest, &frame); err != nil {
		return fmt.Errorf("write record frame: %w", err)
	}

	w.count++
	return nil
}

// Close terminates the record stream and writes the trailer. Closing an
// already-closed Writer is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if _, err := xdr.Marshal(w.dest, markerEnd); err != nil {
		return fmt.Errorf("write end marker: %w", err)
	}

	trailer := archiveTrailer{Count: w.count}
	if _, err := xdr.Marshal(w.dest, &trailer); err != nil {
		return fmt.Errorf("write archive trailer: %w", err)
	}

	return nil
}

// Count returns the number of records written so far.
func (w *Writer) Count() uint64 {
	return w.count
}

// ============================================================================
// Reader
// ============================================================================

// Reader consumes one archive from an underlying stream.
//
// Next returns records until the trailer is reached, then io.EOF. The
// trailer count is checked before io.EOF is reported, so a caller that
// reaches io.EOF has read a structurally complete archive.
type Reader struct {
	src   io.Reader
	info  Info
	count uint64
	done  bool
}

// NewReader reads and validates the archive header.
func NewReader(src io.Reader) (*Reader, error) {
	var header archiveHeader
	if _, err := xdr.Unmarshal(src, &header); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrMalformedArchive, err)
	}

	if header.Magic != archiveMagic {
		return nil, fmt.Errorf("%w: bad magic 0x%08x", ErrMalformedArchive, header.Magic)
	}
	if header.Version != archiveVersion {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedVersion, header.Version)
	}

	return &Reader{
		src: src,
		info: Info{
			ID:      header.ID,
			Created: time.Unix(header.Created, 0).UTC(),
			Store:   header.Store,
		},
	}, nil
}

// Info returns the archive header fields.
func (r *Reader) Info() Info {
	return r.info
}

// Next returns the next record, or io.EOF once the trailer has been
// read and validated.
func (r *Reader) Next() (properties.Record, error) {
	if r.done {
		return properties.Record{}, io.EOF
	}

	var marker uint32
	if _, err := xdr.Unmarshal(r.src, &marker); err != nil {
		return properties.Record{}, fmt.Errorf("%w: reading frame marker: %v", ErrMalformedArchive, err)
	}

	switch marker {
	case markerRecord:
		var frame recordFrame
		if _, err := xdr.Unmarshal(r.src, &frame); err != nil {
			return properties.Record{}, fmt.Errorf("%w: reading record frame: %v", ErrMalformedArchive, err)
		}

		r.count++
		return properties.Record{
			Owner: frame.Owner,
			Path:  frame.Path,
			Name:  frame.Name,
			Kind:  frame.Kind,
			Value: frame.Value,
		}, nil

	case markerEnd:
		var trailer archiveTrailer
		if _, err := xdr.Unmarshal(r.src, &trailer); err != nil {
			return properties.Record{}, fmt.Errorf("%w: reading trailer: %v", ErrMalformedArchive, err)
		}
		if trailer.Count != r.count {
			return properties.Record{}, fmt.Errorf("%w: trailer counts %d records, read %d",
				ErrMalformedArchive, trailer.Count, r.count)
		}

		r.done = true
		return properties.Record{}, io.EOF

	default:
		return properties.Record{}, fmt.Errorf("%w: unknown frame marker %d", ErrMalformedArchive, marker)
	}
}

// Count returns the number of records read so far.
func (r *Reader) Count() uint64 {
	return r.count
}
