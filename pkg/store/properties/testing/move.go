package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davkit/propstore/pkg/props"
)

func (suite *StoreTestSuite) RunMoveTests(test *testing.T) {
	test.Run("MovePath_MovesRecords", suite.TestMovePath_MovesRecords)
	test.Run("MovePath_MissingSource", suite.TestMovePath_MissingSource)
	test.Run("MovePath_DestinationConflict", suite.TestMovePath_DestinationConflict)
	test.Run("MovePath_MergesDisjoint", suite.TestMovePath_MergesDisjoint)
	test.Run("MovePath_OwnerScoped", suite.TestMovePath_OwnerScoped)
}

// TestMovePath_MovesRecords verifies that records land at the
// destination with kind and value untouched, and the source empties.
func (suite *StoreTestSuite) TestMovePath_MovesRecords(test *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	ctx := context.Background()

	// Setup
	from := "calendars/alice/old"
	to := "calendars/alice/new"
	fragment := `<x:tz xmlns:x="urn:ietf:params:xml:ns:caldav">UTC</x:tz>`
	SeedPath(test, store, "alice", from,
		TextEntry("{DAV:}displayname", "My calendar"),
		XMLEntry("{urn:ietf:params:xml:ns:caldav}calendar-timezone", fragment),
	)

	// Act
	err := store.MovePath(ctx, "alice", from, to)

	// Assert
	require.NoError(test, err)

	moved, err := store.FetchPath(ctx, "alice", to, nil)
	require.NoError(test, err)
	require.Len(test, moved, 2)
	assert.Equal(test, []byte("My calendar"), moved[0].Value)
	assert.Equal(test, uint32(2), moved[1].Kind)
	assert.Equal(test, []byte(fragment), moved[1].Value)

	left, err := store.FetchPath(ctx, "alice", from, nil)
	require.NoError(test, err)
	assert.Empty(test, left, "Source path should be empty after the move")
}

// TestMovePath_MissingSource verifies that moving a path with no
// records is a no-op.
func (suite *StoreTestSuite) TestMovePath_MissingSource(test *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	ctx := context.Background()

	// Act
	err := store.MovePath(ctx, "alice", "calendars/alice/nothing", "calendars/alice/new")

	// Assert
	require.NoError(test, err)

	records, err := store.FetchPath(ctx, "alice", "calendars/alice/new", nil)
	require.NoError(test, err)
	assert.Empty(test, records)
}

// TestMovePath_DestinationConflict verifies that a name collision at
// the destination fails the move and leaves the source untouched.
func (suite *StoreTestSuite) TestMovePath_DestinationConflict(test *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	ctx := context.Background()

	// Setup - Same name on both sides
	from := "calendars/alice/old"
	to := "calendars/alice/new"
	SeedPath(test, store, "alice", from, TextEntry("{DAV:}displayname", "Source"))
	SeedPath(test, store, "alice", to, TextEntry("{DAV:}displayname", "Destination"))

	// Act
	err := store.MovePath(ctx, "alice", from, to)

	// Assert
	require.Error(test, err)
	AssertErrorCode(test, props.ErrAlreadyExists, err, "Should return ErrAlreadyExists")

	// Verify both sides kept their original records
	source, err := store.FetchPath(ctx, "alice", from, nil)
	require.NoError(test, err)
	require.Len(test, source, 1)
	assert.Equal(test, []byte("Source"), source[0].Value)

	destination, err := store.FetchPath(ctx, "alice", to, nil)
	require.NoError(test, err)
	require.Len(test, destination, 1)
	assert.Equal(test, []byte("Destination"), destination[0].Value)
}

// TestMovePath_MergesDisjoint verifies that moving into a destination
// with different names keeps both sets.
func (suite *StoreTestSuite) TestMovePath_MergesDisjoint(test *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	ctx := context.Background()

	// Setup
	from := "calendars/alice/old"
	to := "calendars/alice/new"
	SeedPath(test, store, "alice", from, TextEntry("{DAV:}displayname", "Moved in"))
	SeedPath(test, store, "alice", to, TextEntry("{http://apple.com/ns/ical/}calendar-color", "#123456"))

	// Act
	err := store.MovePath(ctx, "alice", from, to)

	// Assert
	require.NoError(test, err)

	records, err := store.FetchPath(ctx, "alice", to, nil)
	require.NoError(test, err)
	assert.Equal(test, []string{
		"{DAV:}displayname",
		"{http://apple.com/ns/ical/}calendar-color",
	}, RecordNames(records))
}

// TestMovePath_OwnerScoped verifies that other owners' records at the
// source path do not move.
func (suite *StoreTestSuite) TestMovePath_OwnerScoped(test *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	ctx := context.Background()

	// Setup
	from := "calendars/shared/team"
	to := "calendars/shared/renamed"
	SeedPath(test, store, "alice", from, TextEntry("{DAV:}displayname", "Alice view"))
	SeedPath(test, store, "bob", from, TextEntry("{DAV:}displayname", "Bob view"))

	// Act
	err := store.MovePath(ctx, "alice", from, to)

	// Assert
	require.NoError(test, err)

	stayed, err := store.FetchPath(ctx, "bob", from, nil)
	require.NoError(test, err)
	require.Len(test, stayed, 1, "Bob's record should stay at the source")

	moved, err := store.FetchPath(ctx, "alice", to, nil)
	require.NoError(test, err)
	require.Len(test, moved, 1)
}
