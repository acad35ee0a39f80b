// Package wikierrors defines the error taxonomy used across wikidice's
// build and query paths: InvalidArgument, MalformedRow, MissingReference,
// StoreFailure and IoFailure. NotFound is represented by a bool/ok return
// at call sites, never by a typed error.
package wikierrors

import (
	"errors"
	"fmt"
)

// ErrNotFound names the NotFound condition. The reader's lookups do not
// return it: they report an absent key as ok=false with a nil error.
var ErrNotFound = errors.New("wikidice: not found")

// ErrorType classifies the fatal-error kinds a build or query run can hit.
type ErrorType string

const (
	ErrorTypeInvalidArgument  ErrorType = "invalid_argument"
	ErrorTypeMalformedRow     ErrorType = "malformed_row"
	ErrorTypeMissingReference ErrorType = "missing_reference"
	ErrorTypeStoreFailure     ErrorType = "store_failure"
	ErrorTypeIoFailure        ErrorType = "io_failure"
)

// InvalidArgumentError reports a caller-supplied value that cannot be
// acted on: a zero-size ring, an unparsed flag, an unknown language code.
type InvalidArgumentError struct {
	Operation  string
	Value      string
	Underlying error
}

func (e *InvalidArgumentError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid argument for %s: %q", e.Operation, e.Value)
	}
	return fmt.Sprintf("invalid argument for %s: %v", e.Operation, e.Underlying)
}

func (e *InvalidArgumentError) Unwrap() error { return e.Underlying }

func NewInvalidArgument(op, value string) *InvalidArgumentError {
	return &InvalidArgumentError{Operation: op, Value: value}
}

// MalformedRowError reports a dump row that failed to decompose into a
// typed row: wrong column count, an unparseable numeric column, or an
// unrecognized link-type literal. Builds treat this as fatal — an offline
// batch job must not silently skew the index it produces.
type MalformedRowError struct {
	Table      string
	Offset     int64
	Columns    []string
	Reason     string
	Underlying error
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("malformed %s row at offset %d: %s (columns=%v)", e.Table, e.Offset, e.Reason, e.Columns)
}

func (e *MalformedRowError) Unwrap() error { return e.Underlying }

func NewMalformedRow(table string, offset int64, columns []string, reason string) *MalformedRowError {
	return &MalformedRowError{Table: table, Offset: offset, Columns: columns, Reason: reason}
}

// MissingReferenceError reports a categorylinks row referencing a page or
// category absent from the companion dumps. The writer does not build or
// log this error: it drops such rows and counts them (Writer.Stats).
type MissingReferenceError struct {
	CategoryName string
	PageId       uint64
	Reason       string
}

func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("missing reference for category %q (page_id=%d): %s", e.CategoryName, e.PageId, e.Reason)
}

// StoreFailureError wraps any error surfaced by the embedded KV layer.
// Always fatal; there is no partial-recovery path for a corrupt store.
type StoreFailureError struct {
	Operation  string
	Underlying error
}

func (e *StoreFailureError) Error() string {
	return fmt.Sprintf("store failure during %s: %v", e.Operation, e.Underlying)
}

func (e *StoreFailureError) Unwrap() error { return e.Underlying }

func NewStoreFailure(op string, err error) *StoreFailureError {
	return &StoreFailureError{Operation: op, Underlying: err}
}

// IoFailureError wraps a file open/read/write error. Always fatal.
type IoFailureError struct {
	Path       string
	Operation  string
	Underlying error
}

func (e *IoFailureError) Error() string {
	return fmt.Sprintf("io failure during %s on %s: %v", e.Operation, e.Path, e.Underlying)
}

func (e *IoFailureError) Unwrap() error { return e.Underlying }

func NewIoFailure(op, path string, err error) *IoFailureError {
	return &IoFailureError{Operation: op, Path: path, Underlying: err}
}
