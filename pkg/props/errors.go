package props

import "errors"

// StoreError represents a domain error from property operations.
//
// These are business logic errors (property not found, undecodable value)
// as opposed to infrastructure errors (disk failure, closed database).
// Callers translate StoreError codes to their own error surface (HTTP
// status codes, CLI exit codes).
type StoreError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Path is the resource path related to the error (if applicable)
	Path string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Path != "" {
		return e.Message + ": " + e.Path
	}
	return e.Message
}

// ErrorCode represents the category of a property store error.
type ErrorCode int

const (
	// ErrNotFound indicates the record an update or read targeted doesn't exist
	ErrNotFound ErrorCode = iota

	// ErrAlreadyExists indicates an insert collided with an existing record
	ErrAlreadyExists

	// ErrDecode indicates stored bytes could not be decoded for their kind
	// Lookups skip the offending property rather than failing the batch
	ErrDecode

	// ErrStorage indicates the backing engine failed
	// Examples: I/O error, constraint violation outside the batch contract
	ErrStorage

	// ErrInvalidArgument indicates invalid parameters were provided
	// Examples: empty owner, empty path, unknown value kind
	ErrInvalidArgument

	// ErrClosed indicates the store has been closed
	ErrClosed
)

// IsCode reports whether err is a *StoreError carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Code == code
	}
	return false
}
