package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davkit/propstore/pkg/store/properties"
	propertiestesting "github.com/davkit/propstore/pkg/store/properties/testing"
)

// TestSQLitePropertyStore runs the complete property store test suite
// against a file-backed SQLite store.
func TestSQLitePropertyStore(t *testing.T) {
	suite := &propertiestesting.StoreTestSuite{
		NewStore: func() properties.Store {
			store, err := NewSQLitePropertyStore(Config{
				Path: filepath.Join(t.TempDir(), "properties.db"),
			})
			require.NoError(t, err)
			return store
		},
	}

	suite.Run(t)
}

// TestSQLitePropertyStore_PathRequired verifies that an empty path is
// rejected at open time.
func TestSQLitePropertyStore_PathRequired(t *testing.T) {
	_, err := NewSQLitePropertyStore(Config{})
	require.Error(t, err)
}

// TestSQLitePropertyStore_Persistence verifies that records survive a
// close and reopen of the same database file.
func TestSQLitePropertyStore_Persistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "properties.db")

	// Setup - Write through a first store instance
	first, err := NewSQLitePropertyStore(Config{Path: path})
	require.NoError(t, err)

	err = first.Apply(ctx, "alice", "calendars/alice/default", properties.Batch{
		Inserts: []properties.Entry{
			propertiestesting.TextEntry("{DAV:}displayname", "Survives restarts"),
		},
	})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	// Act - Reopen the same file
	second, err := NewSQLitePropertyStore(Config{Path: path})
	require.NoError(t, err)
	defer second.Close()

	// Assert
	records, err := second.FetchPath(ctx, "alice", "calendars/alice/default", nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []byte("Survives restarts"), records[0].Value)
}

// TestSQLitePropertyStore_InMemory verifies the documented in-memory
// mode with a single-connection pool.
func TestSQLitePropertyStore_InMemory(t *testing.T) {
	ctx := context.Background()

	store, err := NewSQLitePropertyStore(Config{Path: ":memory:", PoolSize: 1})
	require.NoError(t, err)
	defer store.Close()

	err = store.Apply(ctx, "alice", "calendars/alice/default", properties.Batch{
		Inserts: []properties.Entry{
			propertiestesting.TextEntry("{DAV:}displayname", "Ephemeral"),
		},
	})
	require.NoError(t, err)

	records, err := store.FetchPath(ctx, "alice", "calendars/alice/default", nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
}

// TestSQLitePropertyStore_LargeNameFilter exercises the dynamically
// built IN clause with more names than a typical request carries.
func TestSQLitePropertyStore_LargeNameFilter(t *testing.T) {
	ctx := context.Background()

	store, err := NewSQLitePropertyStore(Config{
		Path: filepath.Join(t.TempDir(), "properties.db"),
	})
	require.NoError(t, err)
	defer store.Close()

	path := "calendars/alice/default"
	entries := make([]properties.Entry, 0, 40)
	names := make([]string, 0, 40)
	for _, suffix := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		for _, digit := range []string{"0", "1", "2", "3", "4"} {
			name := "{urn:example}prop-" + suffix + digit
			entries = append(entries, propertiestesting.TextEntry(name, suffix+digit))
			names = append(names, name)
		}
	}
	propertiestesting.SeedPath(t, store, "alice", path, entries...)

	records, err := store.FetchPath(ctx, "alice", path, names)
	require.NoError(t, err)
	assert.Len(t, records, len(names))
}
