package testing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davkit/propstore/pkg/store/properties"
)

func (suite *StoreTestSuite) RunWalkTests(test *testing.T) {
	test.Run("Walk_VisitsAll", suite.TestWalk_VisitsAll)
	test.Run("Walk_Empty", suite.TestWalk_Empty)
	test.Run("Walk_StopsOnError", suite.TestWalk_StopsOnError)
}

// TestWalk_VisitsAll verifies that every record is visited exactly once
// in (owner, path, name) order.
func (suite *StoreTestSuite) TestWalk_VisitsAll(test *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	ctx := context.Background()

	// Setup
	SeedPath(test, store, "bob", "calendars/bob/default", TextEntry("{DAV:}displayname", "Bob"))
	SeedPath(test, store, "alice", "calendars/alice/work",
		TextEntry("{DAV:}displayname", "Work"),
		TextEntry("{http://apple.com/ns/ical/}calendar-color", "#FF0000"),
	)
	SeedPath(test, store, "alice", "calendars/alice/home", TextEntry("{DAV:}displayname", "Home"))

	// Act
	var visited []properties.Record
	err := store.Walk(ctx, func(record properties.Record) error {
		visited = append(visited, record)
		return nil
	})

	// Assert
	require.NoError(test, err)
	require.Len(test, visited, 4)
	assert.Equal(test, "alice", visited[0].Owner)
	assert.Equal(test, "calendars/alice/home", visited[0].Path)
	assert.Equal(test, "calendars/alice/work", visited[1].Path)
	assert.Equal(test, "{DAV:}displayname", visited[1].Name)
	assert.Equal(test, "{http://apple.com/ns/ical/}calendar-color", visited[2].Name)
	assert.Equal(test, "bob", visited[3].Owner)
}

// TestWalk_Empty verifies walking an empty store calls nothing.
func (suite *StoreTestSuite) TestWalk_Empty(test *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	ctx := context.Background()

	// Act
	calls := 0
	err := store.Walk(ctx, func(properties.Record) error {
		calls++
		return nil
	})

	// Assert
	require.NoError(test, err)
	assert.Zero(test, calls)
}

// TestWalk_StopsOnError verifies that a callback error aborts the walk
// and surfaces unchanged.
func (suite *StoreTestSuite) TestWalk_StopsOnError(test *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	ctx := context.Background()

	// Setup
	SeedPath(test, store, "alice", "calendars/alice/default",
		TextEntry("{DAV:}displayname", "One"),
		TextEntry("{http://apple.com/ns/ical/}calendar-color", "Two"),
	)

	// Act
	boom := errors.New("walk aborted")
	calls := 0
	err := store.Walk(ctx, func(properties.Record) error {
		calls++
		return boom
	})

	// Assert
	require.ErrorIs(test, err, boom)
	assert.Equal(test, 1, calls, "Walk should stop after the failing callback")
}
