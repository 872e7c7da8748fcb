/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when a document is not found
	ErrNotFound = errors.New("document not found")

	// ErrAlreadyExists is returned when attempting to create a document whose id is taken
	ErrAlreadyExists = errors.New("document already exists")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConditionFailed is returned when a conditional write fails
	ErrConditionFailed = errors.New("condition check failed")

	// ErrThrottled is returned when the store rejects a request because of its rate limit
	ErrThrottled = errors.New("request throttled")

	// ErrRetryExhausted is returned when a write keeps failing after the retry budget is spent
	ErrRetryExhausted = errors.New("retry budget exhausted")

	// ErrBulkImport is returned when a bulk import round fails
	ErrBulkImport = errors.New("bulk import failed")

	// ErrLookup is returned when a single-result read does not match exactly one document
	ErrLookup = errors.New("lookup did not match exactly one document")

	// ErrClosed is returned by a repository after Close
	ErrClosed = errors.New("repository closed")
)

// Kind tags how a failed store call should be handled by the caller.
type Kind int

const (
	// KindFatal errors are returned without retry.
	KindFatal Kind = iota
	// KindTransient errors are retried against a bounded budget.
	KindTransient
	// KindThrottled errors are retried after the server-suggested delay without consuming budget.
	KindThrottled
)

func (k Kind) String() string {
	switch k {
	case KindFatal:
		return "fatal"
	case KindTransient:
		return "transient"
	case KindThrottled:
		return "throttled"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// NotFoundError represents an error when a document is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError represents an error when a document already exists
type AlreadyExistsError struct {
	Type string
	Key  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with key %q already exists", e.Type, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ConditionFailedError represents a failed conditional operation
type ConditionFailedError struct {
	Operation string
	Condition string
}

func (e *ConditionFailedError) Error() string {
	return fmt.Sprintf("condition check failed for %s operation: %s", e.Operation, e.Condition)
}

func (e *ConditionFailedError) Is(target error) bool {
	return target == ErrConditionFailed
}

// ThrottledError is returned by stores when the server signals "rate exceeded"
// (429) or "temporarily unavailable" (503). RetryAfter is the server's hint,
// zero when none was given.
type ThrottledError struct {
	StatusCode int
	RetryAfter time.Duration
	Err        error
}

func (e *ThrottledError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("throttled (status %d, retry after %s): %v", e.StatusCode, e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("throttled (status %d, retry after %s)", e.StatusCode, e.RetryAfter)
}

func (e *ThrottledError) Is(target error) bool {
	return target == ErrThrottled
}

func (e *ThrottledError) Unwrap() error {
	return e.Err
}

// RetryExhaustedError carries the last failure of a write that ran out of attempts.
type RetryExhaustedError struct {
	Operation string
	Key       string
	Attempts  int
	Err       error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("%s %q failed after %d attempts: %v", e.Operation, e.Key, e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Is(target error) bool {
	return target == ErrRetryExhausted
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}

// BulkImportError aborts a bulk save. Imported is the count confirmed by the
// last successful round, which may leave any subset of the batch in the store.
type BulkImportError struct {
	Collection string
	Submitted  int
	Imported   int
	Err        error
}

func (e *BulkImportError) Error() string {
	return fmt.Sprintf("bulk import into %s aborted (%d/%d imported): %v", e.Collection, e.Imported, e.Submitted, e.Err)
}

func (e *BulkImportError) Is(target error) bool {
	return target == ErrBulkImport
}

func (e *BulkImportError) Unwrap() error {
	return e.Err
}

// LookupError is returned when a single-result read matches zero or several documents.
type LookupError struct {
	Collection string
	Criteria   string
	Matches    int
}

func (e *LookupError) Error() string {
	if e.Matches == 0 {
		return fmt.Sprintf("no document in %s matches %s", e.Collection, e.Criteria)
	}
	return fmt.Sprintf("%d documents in %s match %s, expected exactly one", e.Matches, e.Collection, e.Criteria)
}

// Is matches ErrLookup, and also ErrNotFound when nothing matched.
func (e *LookupError) Is(target error) bool {
	if target == ErrLookup {
		return true
	}
	return target == ErrNotFound && e.Matches == 0
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entityType, key string) error {
	return &NotFoundError{Type: entityType, Key: key}
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(entityType, key string) error {
	return &AlreadyExistsError{Type: entityType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewConditionFailedError creates a new ConditionFailedError
func NewConditionFailedError(operation, condition string) error {
	return &ConditionFailedError{Operation: operation, Condition: condition}
}

// NewThrottledError creates a new ThrottledError
func NewThrottledError(statusCode int, retryAfter time.Duration, cause error) error {
	return &ThrottledError{StatusCode: statusCode, RetryAfter: retryAfter, Err: cause}
}

// NewLookupError creates a new LookupError
func NewLookupError(collection, criteria string, matches int) error {
	return &LookupError{Collection: collection, Criteria: criteria, Matches: matches}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConditionFailed checks if an error is a condition failed error
func IsConditionFailed(err error) bool {
	return errors.Is(err, ErrConditionFailed)
}

// IsThrottled checks if an error is a throttling error
func IsThrottled(err error) bool {
	return errors.Is(err, ErrThrottled)
}

// IsLookupError checks if an error is a single-result lookup error
func IsLookupError(err error) bool {
	return errors.Is(err, ErrLookup)
}

// Classify decides how a failed write is retried. Throttling yields the
// server's retry-after; cancellation is fatal; anything else is transient.
func Classify(err error) (Kind, time.Duration) {
	if err == nil {
		return KindFatal, 0
	}

	var te *ThrottledError
	if errors.As(err, &te) {
		return KindThrottled, te.RetryAfter
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrClosed) {
		return KindFatal, 0
	}

	return KindTransient, 0
}
