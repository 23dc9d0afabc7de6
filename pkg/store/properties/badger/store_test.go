package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davkit/propstore/pkg/props"
	"github.com/davkit/propstore/pkg/store/properties"
	propertiestesting "github.com/davkit/propstore/pkg/store/properties/testing"
)

// TestBadgerPropertyStore runs the complete property store test suite
// against an in-memory Badger store.
func TestBadgerPropertyStore(t *testing.T) {
	suite := &propertiestesting.StoreTestSuite{
		NewStore: func() properties.Store {
			store, err := NewBadgerPropertyStore(Config{InMemory: true})
			require.NoError(t, err)
			return store
		},
	}

	suite.Run(t)
}

// TestBadgerPropertyStore_PathRequired verifies that a disk-backed
// store without a path is rejected at open time.
func TestBadgerPropertyStore_PathRequired(t *testing.T) {
	_, err := NewBadgerPropertyStore(Config{})
	require.Error(t, err)
}

// TestBadgerPropertyStore_Persistence verifies that records survive a
// close and reopen of the same database directory.
func TestBadgerPropertyStore_Persistence(t *testing.T) {
	ctx := context.Background()
	dbPath := t.TempDir()

	// Setup - Write through a first store instance
	first, err := NewBadgerPropertyStore(Config{DBPath: dbPath})
	require.NoError(t, err)

	err = first.Apply(ctx, "alice", "calendars/alice/default", properties.Batch{
		Inserts: []properties.Entry{
			propertiestesting.TextEntry("{DAV:}displayname", "Survives restarts"),
		},
	})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	// Act - Reopen the same directory
	second, err := NewBadgerPropertyStore(Config{DBPath: dbPath})
	require.NoError(t, err)
	defer second.Close()

	// Assert
	records, err := second.FetchPath(ctx, "alice", "calendars/alice/default", nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []byte("Survives restarts"), records[0].Value)
}

// TestBadgerPropertyStore_RejectsNULFields verifies that fields the
// key encoding cannot carry fail with ErrInvalidArgument instead of
// corrupting the key space.
func TestBadgerPropertyStore_RejectsNULFields(t *testing.T) {
	ctx := context.Background()

	store, err := NewBadgerPropertyStore(Config{InMemory: true})
	require.NoError(t, err)
	defer store.Close()

	err = store.Apply(ctx, "alice", "calendars/alice/default", properties.Batch{
		Inserts: []properties.Entry{
			propertiestesting.TextEntry("{DAV:}display\x00name", "bad"),
		},
	})
	propertiestesting.AssertErrorCode(t, props.ErrInvalidArgument, err)

	err = store.Apply(ctx, "ali\x00ce", "calendars/alice/default", properties.Batch{
		Inserts: []properties.Entry{propertiestesting.TextEntry("{DAV:}displayname", "bad")},
	})
	propertiestesting.AssertErrorCode(t, props.ErrInvalidArgument, err)
}

// TestRecordKeyRoundTrip verifies key building and parsing agree.
func TestRecordKeyRoundTrip(t *testing.T) {
	key := keyRecord("alice", "calendars/alice/default", "{DAV:}displayname")

	owner, path, name, err := parseRecordKey(key)
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)
	assert.Equal(t, "calendars/alice/default", path)
	assert.Equal(t, "{DAV:}displayname", name)
}

// TestPathIndexKeyRoundTrip verifies the index key mirrors the record
// coordinates with the path leading.
func TestPathIndexKeyRoundTrip(t *testing.T) {
	key := keyPathIndex("alice", "calendars/alice/default", "{DAV:}displayname")

	owner, path, name, err := parsePathIndexKey(key)
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)
	assert.Equal(t, "calendars/alice/default", path)
	assert.Equal(t, "{DAV:}displayname", name)
}

// TestKeyPrefixIsolation verifies that a path which extends another
// path does not fall under the shorter path's scan prefix.
func TestKeyPrefixIsolation(t *testing.T) {
	short := keyRecordPrefix("alice", "calendars/alice/work")
	long := keyRecord("alice", "calendars/alice/work-archive", "{DAV:}displayname")

	assert.False(t, string(long[:len(short)]) == string(short),
		"Extended path should not match the shorter path's prefix")
}

// TestValueRoundTrip verifies the kind header survives encoding.
func TestValueRoundTrip(t *testing.T) {
	blob := encodeValue(2, []byte("<x:tag xmlns:x=\"urn:example\"/>"))

	kind, payload, err := decodeValue(blob)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), kind)
	assert.Equal(t, []byte("<x:tag xmlns:x=\"urn:example\"/>"), payload)
}

// TestValueRoundTrip_EmptyPayload verifies a zero-length payload is
// legal and distinguishable from a corrupt blob.
func TestValueRoundTrip_EmptyPayload(t *testing.T) {
	kind, payload, err := decodeValue(encodeValue(1, nil))
	require.NoError(t, err)
	assert.Equal(t, uint32(1), kind)
	assert.Empty(t, payload)

	_, _, err = decodeValue([]byte{0, 0})
	require.Error(t, err)
}
