package kvstore

import (
	"errors"
	"fmt"
)

// Error kinds shared by every backend. Backends wrap them with context using %w.
var (
	ErrNotFound       = errors.New("entry not found")
	ErrForbidden      = errors.New("access forbidden")
	ErrInvalidName    = errors.New("invalid name")
	ErrInvalidValue   = errors.New("invalid value")
	ErrSchemaMismatch = errors.New("array type does not match schema")
	ErrLengthMismatch = errors.New("array lengths disagree")
)

// Conversion pipeline stages reported by ConversionError.
const (
	StageKeys     = "keys"
	StagePairs    = "pairs"
	StageSchema   = "schema"
	StageAssemble = "assemble"
)

// ConversionError is the single error kind returned by BucketToRecord.
// It keeps the backend error as its cause.
type ConversionError struct {
	Backend string
	Bucket  string
	Stage   string
	Err     error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s: unable to convert bucket %q (%s): %v", e.Backend, e.Bucket, e.Stage, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
