// Package shared contains common domain types, errors, and events that are
// used across all domain packages.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation    = errors.New("validation error")
	ErrInvalidID     = errors.New("invalid ID")
	ErrInvalidInput  = errors.New("invalid input")
	ErrEmptyValue    = errors.New("value cannot be empty")
	ErrNegativeValue = errors.New("value cannot be negative")

	// State errors
	ErrInvalidState = errors.New("invalid state")

	// Infrastructure errors
	ErrLoadFailure = errors.New("load failure")
	ErrSaveFailure = errors.New("save failure")
	ErrUnavailable = errors.New("service unavailable")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "staff", "store", "presence"
	Op      string // Operation that failed, e.g., "Load", "Grant"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Staff domain errors
var (
	ErrInvalidUserID   = NewDomainError("staff", "Validate", ErrInvalidID, "invalid user ID")
	ErrInvalidRoomID   = NewDomainError("staff", "Validate", ErrInvalidID, "invalid room ID")
	ErrNegativeAward   = NewDomainError("staff", "Validate", ErrNegativeValue, "award amount cannot be negative")
	ErrRecordCorrupted = NewDomainError("staff", "Validate", ErrInvalidState, "record contains negative counters")
)

// Store errors
var (
	ErrStoreLoad = NewDomainError("store", "Load", ErrLoadFailure, "failed to load records document")
	ErrStoreSave = NewDomainError("store", "Save", ErrSaveFailure, "failed to save records document")
)

// Archive / mirror errors
var (
	ErrArchiveUnavailable = NewDomainError("archive", "Save", ErrUnavailable, "snapshot archive is unavailable")
	ErrMirrorUnavailable  = NewDomainError("mirror", "Update", ErrUnavailable, "leaderboard mirror is unavailable")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsLoadFailure checks if the error is a recoverable load failure.
func IsLoadFailure(err error) bool {
	return errors.Is(err, ErrLoadFailure)
}

// IsSaveFailure checks if the error is a swallowed save failure.
func IsSaveFailure(err error) bool {
	return errors.Is(err, ErrSaveFailure)
}
