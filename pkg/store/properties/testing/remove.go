package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *StoreTestSuite) RunRemoveTests(test *testing.T) {
	test.Run("DeletePath_RemovesAll", suite.TestDeletePath_RemovesAll)
	test.Run("DeletePath_Missing", suite.TestDeletePath_Missing)
	test.Run("DeletePath_OwnerScoped", suite.TestDeletePath_OwnerScoped)
	test.Run("DeletePath_OtherPathsUntouched", suite.TestDeletePath_OtherPathsUntouched)
}

// TestDeletePath_RemovesAll verifies that every property the owner
// holds at the path is dropped at once.
func (suite *StoreTestSuite) TestDeletePath_RemovesAll(test *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	ctx := context.Background()

	// Setup
	path := "calendars/alice/default"
	SeedPath(test, store, "alice", path,
		TextEntry("{DAV:}displayname", "Default"),
		TextEntry("{http://apple.com/ns/ical/}calendar-color", "#0000FF"),
		TextEntry("{http://apple.com/ns/ical/}calendar-order", "1"),
	)

	// Act
	err := store.DeletePath(ctx, "alice", path)

	// Assert
	require.NoError(test, err)

	records, err := store.FetchPath(ctx, "alice", path, nil)
	require.NoError(test, err)
	assert.Empty(test, records, "Deleted path should hold no records")
}

// TestDeletePath_Missing verifies that deleting a path with no records
// is a no-op.
func (suite *StoreTestSuite) TestDeletePath_Missing(test *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	ctx := context.Background()

	// Act
	err := store.DeletePath(ctx, "alice", "calendars/alice/never-created")

	// Assert
	require.NoError(test, err)
}

// TestDeletePath_OwnerScoped verifies that deleting a path for one
// owner leaves other owners' records at the same path intact.
func (suite *StoreTestSuite) TestDeletePath_OwnerScoped(test *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	ctx := context.Background()

	// Setup
	path := "calendars/shared/team"
	SeedPath(test, store, "alice", path, TextEntry("{DAV:}displayname", "Alice view"))
	SeedPath(test, store, "bob", path, TextEntry("{DAV:}displayname", "Bob view"))

	// Act
	err := store.DeletePath(ctx, "alice", path)

	// Assert
	require.NoError(test, err)

	records, err := store.FetchPath(ctx, "", path, nil)
	require.NoError(test, err)
	require.Len(test, records, 1)
	assert.Equal(test, "bob", records[0].Owner, "Other owner's record should survive")
}

// TestDeletePath_OtherPathsUntouched verifies path isolation.
func (suite *StoreTestSuite) TestDeletePath_OtherPathsUntouched(test *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	ctx := context.Background()

	// Setup
	SeedPath(test, store, "alice", "calendars/alice/work", TextEntry("{DAV:}displayname", "Work"))
	SeedPath(test, store, "alice", "calendars/alice/home", TextEntry("{DAV:}displayname", "Home"))

	// Act
	err := store.DeletePath(ctx, "alice", "calendars/alice/work")

	// Assert
	require.NoError(test, err)

	records, err := store.FetchOwner(ctx, "alice")
	require.NoError(test, err)
	require.Len(test, records, 1)
	assert.Equal(test, "calendars/alice/home", records[0].Path)
}
