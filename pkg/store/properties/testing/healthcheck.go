package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davkit/propstore/pkg/props"
	"github.com/davkit/propstore/pkg/store/properties"
)

func (suite *StoreTestSuite) RunHealthcheckTests(test *testing.T) {
	test.Run("HealthCheck_Open", suite.TestHealthCheck_Open)
	test.Run("HealthCheck_Closed", suite.TestHealthCheck_Closed)
	test.Run("Close_Idempotent", suite.TestClose_Idempotent)
	test.Run("Operations_AfterClose", suite.TestOperations_AfterClose)
}

// TestHealthCheck_Open verifies a fresh store reports healthy.
func (suite *StoreTestSuite) TestHealthCheck_Open(test *testing.T) {
	store := suite.NewStore()
	defer store.Close()

	// Act & Assert
	require.NoError(test, store.HealthCheck(context.Background()))
}

// TestHealthCheck_Closed verifies a closed store reports ErrClosed.
func (suite *StoreTestSuite) TestHealthCheck_Closed(test *testing.T) {
	store := suite.NewStore()

	// Setup
	require.NoError(test, store.Close())

	// Act
	err := store.HealthCheck(context.Background())

	// Assert
	require.Error(test, err)
	AssertErrorCode(test, props.ErrClosed, err, "Should return ErrClosed")
}

// TestClose_Idempotent verifies closing twice does not fail.
func (suite *StoreTestSuite) TestClose_Idempotent(test *testing.T) {
	store := suite.NewStore()

	// Act & Assert
	require.NoError(test, store.Close())
	require.NoError(test, store.Close())
}

// TestOperations_AfterClose verifies reads and writes fail with
// ErrClosed once the store is closed.
func (suite *StoreTestSuite) TestOperations_AfterClose(test *testing.T) {
	store := suite.NewStore()
	ctx := context.Background()

	// Setup
	SeedPath(test, store, "alice", "calendars/alice/default", TextEntry("{DAV:}displayname", "Default"))
	require.NoError(test, store.Close())

	// Act & Assert
	_, err := store.FetchPath(ctx, "alice", "calendars/alice/default", nil)
	AssertErrorCode(test, props.ErrClosed, err, "FetchPath should fail after close")

	_, err = store.FetchOwner(ctx, "alice")
	AssertErrorCode(test, props.ErrClosed, err, "FetchOwner should fail after close")

	err = store.Apply(ctx, "alice", "calendars/alice/default", properties.Batch{
		Inserts: []properties.Entry{TextEntry("{DAV:}other", "x")},
	})
	AssertErrorCode(test, props.ErrClosed, err, "Apply should fail after close")

	err = store.DeletePath(ctx, "alice", "calendars/alice/default")
	AssertErrorCode(test, props.ErrClosed, err, "DeletePath should fail after close")
}
