package badger

import (
	"fmt"
	"strings"

	"github.com/davkit/propstore/pkg/props"
)

// Database Key Namespace Design
// ==============================
//
// BadgerDB is a flat ordered key space, so composite record coordinates
// are packed into keys with a separator that sorts below every other
// byte. This design:
//   - Keeps one owner's records at one path adjacent for range scans
//   - Makes iteration order equal the contract order with no sort step
//   - Serves the any-owner path lookup through a second namespace
//
// Key Namespace Prefixes:
//
// Data Type             Prefix   Key Format                    Value Type
// ==========================================================================
// Property Record       "r:"     r:<owner>␀<path>␀<name>       kind+payload (binary)
// Path Index            "x:"     x:<path>␀<owner>␀<name>       (empty)
//
// Separator Choice:
//
// Key fields are joined with a NUL byte (0x00). NUL sorts below every
// other byte, so concatenated keys order exactly like the field tuples
// they encode: scanning "r:" yields (owner, path, name) order for Walk,
// scanning "r:<owner>␀" yields (path, name) order for owner dumps, and
// scanning "x:<path>␀" yields (owner, name) order for any-owner reads.
// The write path rejects fields containing NUL; XML property names and
// normalized resource paths never carry one.
//
// Path Index Rationale:
//
// Published-property reads ask for every owner's records at one path.
// Record keys group by owner first, so that lookup has no usable
// prefix; the index namespace inverts the field order. Index entries
// carry no value, and the record key is rebuilt from the index key.

const (
	// prefixRecord is the key prefix for property records
	prefixRecord = "r:"

	// prefixPathIndex is the key prefix for the path-first index
	prefixPathIndex = "x:"

	// keySeparator joins key fields; it sorts below every field byte
	keySeparator = "\x00"
)

// keyRecord builds the record key for one property.
func keyRecord(owner, path, name string) []byte {
	return []byte(prefixRecord + owner + keySeparator + path + keySeparator + name)
}

// keyRecordPrefix covers every record one owner holds at one path.
func keyRecordPrefix(owner, path string) []byte {
	return []byte(prefixRecord + owner + keySeparator + path + keySeparator)
}

// keyOwnerPrefix covers every record one owner holds.
func keyOwnerPrefix(owner string) []byte {
	return []byte(prefixRecord + owner + keySeparator)
}

// keyPathIndex builds the index key mirroring one record.
func keyPathIndex(owner, path, name string) []byte {
	return []byte(prefixPathIndex + path + keySeparator + owner + keySeparator + name)
}

// keyPathIndexPrefix covers the index entries for one path.
func keyPathIndexPrefix(path string) []byte {
	return []byte(prefixPathIndex + path + keySeparator)
}

// parseRecordKey splits a record key back into its fields.
func parseRecordKey(key []byte) (owner, path, name string, err error) {
	rest, found := strings.CutPrefix(string(key), prefixRecord)
	if !found {
		return "", "", "", fmt.Errorf("not a record key: %q", key)
	}
	parts := strings.Split(rest, keySeparator)
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("malformed record key: %q", key)
	}
	return parts[0], parts[1], parts[2], nil
}

// parsePathIndexKey splits an index key back into record fields.
func parsePathIndexKey(key []byte) (owner, path, name string, err error) {
	rest, found := strings.CutPrefix(string(key), prefixPathIndex)
	if !found {
		return "", "", "", fmt.Errorf("not a path index key: %q", key)
	}
	parts := strings.Split(rest, keySeparator)
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("malformed path index key: %q", key)
	}
	return parts[1], parts[0], parts[2], nil
}

// validateKeyFields rejects fields the key encoding cannot carry.
func validateKeyFields(path string, fields ...string) error {
	for _, field := range fields {
		if strings.Contains(field, keySeparator) {
			return &props.StoreError{
				Code:    props.ErrInvalidArgument,
				Message: "key field contains a NUL byte",
				Path:    path,
			}
		}
	}
	return nil
}
