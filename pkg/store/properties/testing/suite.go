package testing

import (
	"testing"

	"github.com/davkit/propstore/pkg/store/properties"
)

// StoreTestSuite is a comprehensive test suite for properties.Store
// implementations. It tests the interface contract, not implementation
// details, making it reusable across different backends (memory,
// sqlite, badger, etc.).
type StoreTestSuite struct {
	// NewStore is a factory function that creates a fresh Store instance
	// for each test. This ensures test isolation.
	NewStore func() properties.Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(test *testing.T) {
	test.Run("Fetch", suite.RunFetchTests)
	test.Run("Apply", suite.RunApplyTests)
	test.Run("Remove", suite.RunRemoveTests)
	test.Run("Move", suite.RunMoveTests)
	test.Run("Walk", suite.RunWalkTests)
	test.Run("Healthcheck", suite.RunHealthcheckTests)
}
