// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Validation errors surfaced by the reporting core.
	ErrSchemaMismatch         = errors.New("schema mismatch")
	ErrInvalidFilterDimension = errors.New("invalid filter dimension")
	ErrIndexOutOfRange        = errors.New("index out of range")

	// ErrInvalidRemark reports a remark field outside its allowed values.
	ErrInvalidRemark = errors.New("invalid remark")

	// Database errors.
	ErrNotFound = errors.New("not found")

	// Configuration errors.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// SchemaMismatchError reports a record field that is absent or carries a
// value of the wrong semantic type. Row is 1-based when the error comes from
// a file and 0 when it comes from an in-memory record set.
type SchemaMismatchError struct {
	Field  string
	Value  string
	Reason string
	Row    int
}

func (e *SchemaMismatchError) Error() string {
	msg := fmt.Sprintf("%v: field %q", ErrSchemaMismatch, e.Field)
	if e.Row > 0 {
		msg = fmt.Sprintf("%s at row %d", msg, e.Row)
	}
	if e.Value != "" {
		msg = fmt.Sprintf("%s (value %q)", msg, e.Value)
	}
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	return msg
}

func (e *SchemaMismatchError) Unwrap() error {
	return ErrSchemaMismatch
}

// NewSchemaMismatch creates a schema mismatch for the given field.
func NewSchemaMismatch(field, value, reason string) error {
	return &SchemaMismatchError{Field: field, Value: value, Reason: reason}
}

// InvalidDimensionError reports a dimension name the reporting core does not recognize.
type InvalidDimensionError struct {
	Dimension string
	Value     string
}

func (e *InvalidDimensionError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%v: %q does not accept value %q", ErrInvalidFilterDimension, e.Dimension, e.Value)
	}
	return fmt.Sprintf("%v: %q", ErrInvalidFilterDimension, e.Dimension)
}

func (e *InvalidDimensionError) Unwrap() error {
	return ErrInvalidFilterDimension
}

// IndexOutOfRangeError reports a position outside a sequence.
type IndexOutOfRangeError struct {
	Index  int
	Length int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("%v: index %d, length %d", ErrIndexOutOfRange, e.Index, e.Length)
}

func (e *IndexOutOfRangeError) Unwrap() error {
	return ErrIndexOutOfRange
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// Kind returns the taxonomy name of a reporting error, or "" when err is not
// one of the core validation failures.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrSchemaMismatch):
		return "SchemaMismatch"
	case errors.Is(err, ErrInvalidFilterDimension):
		return "InvalidFilterDimension"
	case errors.Is(err, ErrIndexOutOfRange):
		return "IndexOutOfRange"
	default:
		return ""
	}
}
