package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davkit/propstore/pkg/props"
	"github.com/davkit/propstore/pkg/store/properties"
)

// TextEntry builds a plain-text entry for seeding stores in tests.
func TextEntry(name, value string) properties.Entry {
	return properties.Entry{
		Name:  name,
		Kind:  uint32(props.KindString),
		Value: []byte(value),
	}
}

// XMLEntry builds an XML fragment entry for seeding stores in tests.
func XMLEntry(name, value string) properties.Entry {
	return properties.Entry{
		Name:  name,
		Kind:  uint32(props.KindXMLFragment),
		Value: []byte(value),
	}
}

// SeedPath inserts the given entries for one owner and path, failing
// the test if the write does not succeed.
func SeedPath(test *testing.T, store properties.Store, owner, path string, entries ...properties.Entry) {
	test.Helper()

	err := store.Apply(context.Background(), owner, path, properties.Batch{
		Inserts: entries,
	})
	require.NoError(test, err, "Seeding %s at %s should succeed", owner, path)
}

// RecordNames extracts the property names from a slice of records,
// preserving order.
func RecordNames(records []properties.Record) []string {
	names := make([]string, 0, len(records))
	for _, record := range records {
		names = append(names, record.Name)
	}
	return names
}

// AssertErrorCode checks if an error has the expected error code.
// This handles both unwrapped ErrorCode and wrapped StoreError.
func AssertErrorCode(t *testing.T, expected props.ErrorCode, err error, msgAndArgs ...any) bool {
	if err == nil {
		return assert.Fail(t, "Expected an error but got nil", msgAndArgs...)
	}

	// Try to unwrap as StoreError
	if storeErr, ok := err.(*props.StoreError); ok {
		return assert.Equal(t, expected, storeErr.Code, msgAndArgs...)
	}

	// Fall back to direct comparison (in case implementation returns bare ErrorCode)
	return assert.Equal(t, expected, err, msgAndArgs...)
}
