package memory

import (
	"testing"

	"github.com/davkit/propstore/pkg/store/properties"
	propertiestesting "github.com/davkit/propstore/pkg/store/properties/testing"
)

// TestMemoryPropertyStore runs the complete property store test suite
// against the MemoryPropertyStore implementation.
func TestMemoryPropertyStore(t *testing.T) {
	suite := &propertiestesting.StoreTestSuite{
		NewStore: func() properties.Store {
			return NewMemoryPropertyStore()
		},
	}

	suite.Run(t)
}
