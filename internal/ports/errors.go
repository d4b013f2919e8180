package ports

import (
	"errors"
	"fmt"
)

// StorageError reports a failed read or write of a record file. Services
// treat it differently from not-found and validation errors.
type StorageError struct {
	Store string
	Op    string
	Path  string
	Err   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s %s: %v", e.Store, e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError reports whether err wraps a StorageError
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// ParseError reports a malformed record
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
