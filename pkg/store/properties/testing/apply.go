package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davkit/propstore/pkg/props"
	"github.com/davkit/propstore/pkg/store/properties"
)

func (suite *StoreTestSuite) RunApplyTests(test *testing.T) {
	test.Run("Apply_InsertNew", suite.TestApply_InsertNew)
	test.Run("Apply_InsertExisting", suite.TestApply_InsertExisting)
	test.Run("Apply_UpdateExisting", suite.TestApply_UpdateExisting)
	test.Run("Apply_UpdateMissing", suite.TestApply_UpdateMissing)
	test.Run("Apply_DeleteExisting", suite.TestApply_DeleteExisting)
	test.Run("Apply_DeleteMissing", suite.TestApply_DeleteMissing)
	test.Run("Apply_EmptyBatch", suite.TestApply_EmptyBatch)
	test.Run("Apply_Atomic", suite.TestApply_Atomic)
	test.Run("Apply_MixedBatch", suite.TestApply_MixedBatch)
}

// TestApply_InsertNew verifies inserting properties at a fresh path.
func (suite *StoreTestSuite) TestApply_InsertNew(test *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	ctx := context.Background()

	// Act
	err := store.Apply(ctx, "alice", "calendars/alice/default", properties.Batch{
		Inserts: []properties.Entry{
			TextEntry("{DAV:}displayname", "Default"),
			TextEntry("{http://apple.com/ns/ical/}calendar-color", "#0000FF"),
		},
	})

	// Assert
	require.NoError(test, err)

	records, err := store.FetchPath(ctx, "alice", "calendars/alice/default", nil)
	require.NoError(test, err)
	assert.Len(test, records, 2)
}

// TestApply_InsertExisting verifies that inserting an existing property
// fails the whole batch with ErrAlreadyExists.
func (suite *StoreTestSuite) TestApply_InsertExisting(test *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	ctx := context.Background()

	// Setup
	path := "calendars/alice/default"
	SeedPath(test, store, "alice", path, TextEntry("{DAV:}displayname", "Original"))

	// Act - Insert the same name again
	err := store.Apply(ctx, "alice", path, properties.Batch{
		Inserts: []properties.Entry{TextEntry("{DAV:}displayname", "Duplicate")},
	})

	// Assert
	require.Error(test, err)
	AssertErrorCode(test, props.ErrAlreadyExists, err, "Should return ErrAlreadyExists")

	// Verify the original value survived
	records, err := store.FetchPath(ctx, "alice", path, nil)
	require.NoError(test, err)
	require.Len(test, records, 1)
	assert.Equal(test, []byte("Original"), records[0].Value)
}

// TestApply_UpdateExisting verifies overwriting an existing property.
func (suite *StoreTestSuite) TestApply_UpdateExisting(test *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	ctx := context.Background()

	// Setup
	path := "calendars/alice/default"
	SeedPath(test, store, "alice", path, TextEntry("{DAV:}displayname", "Before"))

	// Act
	err := store.Apply(ctx, "alice", path, properties.Batch{
		Updates: []properties.Entry{TextEntry("{DAV:}displayname", "After")},
	})

	// Assert
	require.NoError(test, err)

	records, err := store.FetchPath(ctx, "alice", path, nil)
	require.NoError(test, err)
	require.Len(test, records, 1)
	assert.Equal(test, []byte("After"), records[0].Value)
}

// TestApply_UpdateMissing verifies that updating an absent property
// fails the whole batch with ErrNotFound.
func (suite *StoreTestSuite) TestApply_UpdateMissing(test *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	ctx := context.Background()

	// Act
	err := store.Apply(ctx, "alice", "calendars/alice/default", properties.Batch{
		Updates: []properties.Entry{TextEntry("{DAV:}displayname", "Ghost")},
	})

	// Assert
	require.Error(test, err)
	AssertErrorCode(test, props.ErrNotFound, err, "Should return ErrNotFound")
}

// TestApply_DeleteExisting verifies deleting a property.
func (suite *StoreTestSuite) TestApply_DeleteExisting(test *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	ctx := context.Background()

	// Setup
	path := "calendars/alice/default"
	SeedPath(test, store, "alice", path,
		TextEntry("{DAV:}displayname", "Default"),
		TextEntry("{http://apple.com/ns/ical/}calendar-color", "#0000FF"),
	)

	// Act
	err := store.Apply(ctx, "alice", path, properties.Batch{
		Deletes: []string{"{DAV:}displayname"},
	})

	// Assert
	require.NoError(test, err)

	records, err := store.FetchPath(ctx, "alice", path, nil)
	require.NoError(test, err)
	require.Len(test, records, 1)
	assert.Equal(test, "{http://apple.com/ns/ical/}calendar-color", records[0].Name)
}

// TestApply_DeleteMissing verifies that deleting an absent name is a
// no-op rather than an error.
func (suite *StoreTestSuite) TestApply_DeleteMissing(test *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	ctx := context.Background()

	// Act
	err := store.Apply(ctx, "alice", "calendars/alice/default", properties.Batch{
		Deletes: []string{"{DAV:}never-written"},
	})

	// Assert
	require.NoError(test, err)
}

// TestApply_EmptyBatch verifies that an empty batch commits cleanly.
func (suite *StoreTestSuite) TestApply_EmptyBatch(test *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	ctx := context.Background()

	// Act
	err := store.Apply(ctx, "alice", "calendars/alice/default", properties.Batch{})

	// Assert
	require.NoError(test, err)

	records, err := store.FetchPath(ctx, "alice", "calendars/alice/default", nil)
	require.NoError(test, err)
	assert.Empty(test, records)
}

// TestApply_Atomic verifies that a batch failing validation leaves no
// partial state behind.
func (suite *StoreTestSuite) TestApply_Atomic(test *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	ctx := context.Background()

	// Setup - One existing property that will collide
	path := "calendars/alice/default"
	SeedPath(test, store, "alice", path, TextEntry("{DAV:}displayname", "Original"))

	// Act - Batch with one valid insert and one colliding insert
	err := store.Apply(ctx, "alice", path, properties.Batch{
		Inserts: []properties.Entry{
			TextEntry("{http://apple.com/ns/ical/}calendar-color", "#FF00FF"),
			TextEntry("{DAV:}displayname", "Collision"),
		},
	})

	// Assert
	require.Error(test, err)
	AssertErrorCode(test, props.ErrAlreadyExists, err)

	// Verify neither entry of the failed batch landed
	records, err := store.FetchPath(ctx, "alice", path, nil)
	require.NoError(test, err)
	require.Len(test, records, 1)
	assert.Equal(test, "{DAV:}displayname", records[0].Name)
	assert.Equal(test, []byte("Original"), records[0].Value)
}

// TestApply_MixedBatch verifies inserts, updates and deletes applied
// together.
func (suite *StoreTestSuite) TestApply_MixedBatch(test *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	ctx := context.Background()

	// Setup
	path := "calendars/alice/default"
	SeedPath(test, store, "alice", path,
		TextEntry("{DAV:}displayname", "Before"),
		TextEntry("{urn:ietf:params:xml:ns:caldav}calendar-description", "Drop me"),
	)

	// Act
	err := store.Apply(ctx, "alice", path, properties.Batch{
		Inserts: []properties.Entry{TextEntry("{http://apple.com/ns/ical/}calendar-order", "1")},
		Updates: []properties.Entry{TextEntry("{DAV:}displayname", "After")},
		Deletes: []string{"{urn:ietf:params:xml:ns:caldav}calendar-description"},
	})

	// Assert
	require.NoError(test, err)

	records, err := store.FetchPath(ctx, "alice", path, nil)
	require.NoError(test, err)
	assert.Equal(test, []string{
		"{DAV:}displayname",
		"{http://apple.com/ns/ical/}calendar-order",
	}, RecordNames(records))
	assert.Equal(test, []byte("After"), records[0].Value)
}
