/*
errors.go - Centralized error types for the remittance engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The remittance, users and store packages return (or wrap) these; the
  API maps them to HTTP status codes with the classification helpers at
  the bottom of this file.

ERROR CATEGORIES:
  1. Validation errors - a submission is missing or has bad fields
  2. Conflict errors   - a record for the same period already exists
  3. Lookup errors     - record or user not found
  4. Access errors     - bad credentials, missing permission
  5. Store errors      - persistence failures (never swallowed)

USAGE:
    if errors.Is(err, generic.ErrRecordExists) {
        var existing *generic.ExistingRecordError
        errors.As(err, &existing)
        // offer update-or-delete to the caller
    }

SEE ALSO:
  - remittance/repository.go: returns validation and conflict errors
  - api/handlers.go: maps errors to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRecord is returned when a submission fails validation.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrRecordExists is returned when a record for the same ministry,
	// department and period is already stored and overwrite was not requested.
	ErrRecordExists = errors.New("record already exists")

	// ErrRecordNotFound is returned when a record id does not exist.
	ErrRecordNotFound = errors.New("record not found")

	// ErrInvalidPeriod is returned for months outside 1-12 or non-positive years.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrUnknownDepartment is returned when a submission names a department
	// the reference directory does not contain.
	ErrUnknownDepartment = errors.New("unknown department")

	// ErrPersistence wraps any failure of the storage backend.
	ErrPersistence = errors.New("persistence failure")

	// ErrUserNotFound is returned when a user id or username does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateUsername is returned when a username is already taken.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrInvalidCredentials is returned when login fails or a token is invalid.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrForbidden is returned when the caller lacks a permission.
	ErrForbidden = errors.New("forbidden")

	// ErrNoRecipients is returned when a reminder has no email addresses.
	ErrNoRecipients = errors.New("no recipient email addresses")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRecord
}

// ExistingRecordError carries the stored record's id so the caller can
// decide between updating and deleting it.
type ExistingRecordError struct {
	ID string
}

func (e *ExistingRecordError) Error() string {
	return fmt.Sprintf("record already exists: %s", e.ID)
}

func (e *ExistingRecordError) Unwrap() error {
	return ErrRecordExists
}

// StoreError wraps a backend failure with the operation that failed.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// WrapStore returns nil for a nil err, otherwise a *StoreError.
func WrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRecord) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrUnknownDepartment) ||
		errors.Is(err, ErrDuplicateUsername) ||
		errors.Is(err, ErrNoRecipients)
}

// IsConflict returns true if the error reports an existing record.
func IsConflict(err error) bool {
	return errors.Is(err, ErrRecordExists) || errors.Is(err, ErrDuplicateUsername)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound) ||
		errors.Is(err, ErrUserNotFound)
}
