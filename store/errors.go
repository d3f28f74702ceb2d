package store

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNotFound signals that a lookup (string, value, triple) found nothing.
// It is not a fault: callers treat it as the sentinel id/miss spec.md §7
// describes, not an error to propagate.
var ErrNotFound = errors.New("castor/store: not found")

// CorruptionError wraps any failure that means the on-disk image cannot be
// trusted: a bad magic/version, a read past the mapping, a malformed leaf
// header. It is always fatal to the operation in progress.
type CorruptionError struct {
	cause error
}

func (e *CorruptionError) Error() string { return "castor/store: corrupt store: " + e.cause.Error() }

func (e *CorruptionError) Unwrap() error { return e.cause }

func corruptf(format string, args ...interface{}) error {
	return &CorruptionError{cause: errors.WithStack(fmt.Errorf(format, args...))}
}

func corrupt(err error) error {
	return &CorruptionError{cause: errors.WithStack(err)}
}
