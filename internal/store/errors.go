// ABOUTME: Typed error taxonomy for the content store.
// ABOUTME: ValidationError never reaches storage; StorageError wraps driver failures.

package store

import "fmt"

// ValidationError reports input rejected before reaching the storage
// layer: oversized content, malformed tags, invalid ids.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StorageError wraps an I/O or query failure from the storage layer.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// storageErr wraps err as a StorageError, passing nil through.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
