package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *StoreTestSuite) RunFetchTests(test *testing.T) {
	test.Run("FetchPath_Empty", suite.TestFetchPath_Empty)
	test.Run("FetchPath_OwnerScoped", suite.TestFetchPath_OwnerScoped)
	test.Run("FetchPath_AnyOwner", suite.TestFetchPath_AnyOwner)
	test.Run("FetchPath_NameFilter", suite.TestFetchPath_NameFilter)
	test.Run("FetchPath_OrderedByName", suite.TestFetchPath_OrderedByName)
	test.Run("FetchPath_PreservesPayload", suite.TestFetchPath_PreservesPayload)

	test.Run("FetchOwner_Empty", suite.TestFetchOwner_Empty)
	test.Run("FetchOwner_AllPaths", suite.TestFetchOwner_AllPaths)
	test.Run("FetchOwner_ExcludesOthers", suite.TestFetchOwner_ExcludesOthers)
}

// TestFetchPath_Empty verifies that a path with no records yields an
// empty result without error.
func (suite *StoreTestSuite) TestFetchPath_Empty(test *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	ctx := context.Background()

	// Act
	records, err := store.FetchPath(ctx, "alice", "calendars/alice/default", nil)

	// Assert
	require.NoError(test, err)
	assert.Empty(test, records, "Unknown path should yield no records")
}

// TestFetchPath_OwnerScoped verifies that a named owner only sees its
// own records even when other owners wrote to the same path.
func (suite *StoreTestSuite) TestFetchPath_OwnerScoped(test *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	ctx := context.Background()

	// Setup - Two owners write to the same path
	path := "calendars/shared/team"
	SeedPath(test, store, "alice", path, TextEntry("{DAV:}displayname", "Alice view"))
	SeedPath(test, store, "bob", path, TextEntry("{DAV:}displayname", "Bob view"))

	// Act
	records, err := store.FetchPath(ctx, "bob", path, nil)

	// Assert
	require.NoError(test, err)
	require.Len(test, records, 1)
	assert.Equal(test, "bob", records[0].Owner)
	assert.Equal(test, []byte("Bob view"), records[0].Value)
}

// TestFetchPath_AnyOwner verifies that the empty owner matches every
// owner and that results come back ordered by owner, then name.
func (suite *StoreTestSuite) TestFetchPath_AnyOwner(test *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	ctx := context.Background()

	// Setup
	path := "calendars/shared/team"
	SeedPath(test, store, "bob", path, TextEntry("{DAV:}displayname", "Bob view"))
	SeedPath(test, store, "alice", path,
		TextEntry("{DAV:}displayname", "Alice view"),
		TextEntry("{http://apple.com/ns/ical/}calendar-color", "#FF0000"),
	)

	// Act
	records, err := store.FetchPath(ctx, "", path, nil)

	// Assert
	require.NoError(test, err)
	require.Len(test, records, 3)
	assert.Equal(test, "alice", records[0].Owner)
	assert.Equal(test, "alice", records[1].Owner)
	assert.Equal(test, "bob", records[2].Owner)
	assert.Equal(test, "{DAV:}displayname", records[0].Name)
	assert.Equal(test, "{http://apple.com/ns/ical/}calendar-color", records[1].Name)
}

// TestFetchPath_NameFilter verifies that a name filter restricts the
// result set and silently skips names with no record.
func (suite *StoreTestSuite) TestFetchPath_NameFilter(test *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	ctx := context.Background()

	// Setup
	path := "addressbooks/alice/contacts"
	SeedPath(test, store, "alice", path,
		TextEntry("{DAV:}displayname", "Contacts"),
		TextEntry("{urn:ietf:params:xml:ns:carddav}addressbook-description", "Personal"),
		TextEntry("{http://apple.com/ns/ical/}calendar-order", "3"),
	)

	// Act - Request two known names and one that was never written
	records, err := store.FetchPath(ctx, "alice", path, []string{
		"{DAV:}displayname",
		"{http://apple.com/ns/ical/}calendar-order",
		"{DAV:}never-written",
	})

	// Assert
	require.NoError(test, err)
	assert.Equal(test, []string{
		"{DAV:}displayname",
		"{http://apple.com/ns/ical/}calendar-order",
	}, RecordNames(records))
}

// TestFetchPath_OrderedByName verifies deterministic name ordering for
// a single owner.
func (suite *StoreTestSuite) TestFetchPath_OrderedByName(test *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	ctx := context.Background()

	// Setup - Insert in non-sorted order
	path := "calendars/alice/default"
	SeedPath(test, store, "alice", path,
		TextEntry("{DAV:}z-last", "z"),
		TextEntry("{DAV:}a-first", "a"),
		TextEntry("{DAV:}m-middle", "m"),
	)

	// Act
	records, err := store.FetchPath(ctx, "alice", path, nil)

	// Assert
	require.NoError(test, err)
	assert.Equal(test, []string{
		"{DAV:}a-first",
		"{DAV:}m-middle",
		"{DAV:}z-last",
	}, RecordNames(records))
}

// TestFetchPath_PreservesPayload verifies that kind and value bytes
// come back exactly as stored.
func (suite *StoreTestSuite) TestFetchPath_PreservesPayload(test *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	ctx := context.Background()

	// Setup
	path := "calendars/alice/default"
	fragment := `<x:note xmlns:x="urn:example">free text</x:note>`
	SeedPath(test, store, "alice", path, XMLEntry("{urn:example}note", fragment))

	// Act
	records, err := store.FetchPath(ctx, "alice", path, nil)

	// Assert
	require.NoError(test, err)
	require.Len(test, records, 1)
	assert.Equal(test, uint32(2), records[0].Kind)
	assert.Equal(test, []byte(fragment), records[0].Value)
	assert.Equal(test, path, records[0].Path)
}

// TestFetchOwner_Empty verifies that an owner with no records yields an
// empty result without error.
func (suite *StoreTestSuite) TestFetchOwner_Empty(test *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	ctx := context.Background()

	// Act
	records, err := store.FetchOwner(ctx, "nobody")

	// Assert
	require.NoError(test, err)
	assert.Empty(test, records)
}

// TestFetchOwner_AllPaths verifies that every path the owner wrote to
// is returned, ordered by path then name.
func (suite *StoreTestSuite) TestFetchOwner_AllPaths(test *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	ctx := context.Background()

	// Setup
	SeedPath(test, store, "alice", "calendars/alice/work",
		TextEntry("{DAV:}displayname", "Work"),
	)
	SeedPath(test, store, "alice", "calendars/alice/home",
		TextEntry("{http://apple.com/ns/ical/}calendar-color", "#00FF00"),
		TextEntry("{DAV:}displayname", "Home"),
	)

	// Act
	records, err := store.FetchOwner(ctx, "alice")

	// Assert
	require.NoError(test, err)
	require.Len(test, records, 3)
	assert.Equal(test, "calendars/alice/home", records[0].Path)
	assert.Equal(test, "{DAV:}displayname", records[0].Name)
	assert.Equal(test, "calendars/alice/home", records[1].Path)
	assert.Equal(test, "{http://apple.com/ns/ical/}calendar-color", records[1].Name)
	assert.Equal(test, "calendars/alice/work", records[2].Path)
}

// TestFetchOwner_ExcludesOthers verifies owner isolation.
func (suite *StoreTestSuite) TestFetchOwner_ExcludesOthers(test *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	ctx := context.Background()

	// Setup
	SeedPath(test, store, "alice", "calendars/alice/default", TextEntry("{DAV:}displayname", "Mine"))
	SeedPath(test, store, "bob", "calendars/bob/default", TextEntry("{DAV:}displayname", "His"))

	// Act
	records, err := store.FetchOwner(ctx, "alice")

	// Assert
	require.NoError(test, err)
	require.Len(test, records, 1)
	assert.Equal(test, "alice", records[0].Owner)
}
