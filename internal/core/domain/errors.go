// Package domain defines the core domain models for the FinTrackr session subsystem.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
type DomainError struct {
	Code    string // Error code (e.g., "FT-SESS-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
// Two domain errors match when their codes match.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Session errors.
var (
	// ErrSessionNotFound indicates the referenced session does not exist.
	ErrSessionNotFound = NewDomainError("FT-SESS-4040", "session not found")

	// ErrSessionRevoked indicates an attempt to reactivate a revoked session.
	ErrSessionRevoked = NewDomainError("FT-SESS-4041", "session revoked")

	// ErrSessionConflict indicates the session ID already exists.
	ErrSessionConflict = NewDomainError("FT-SESS-4090", "session id conflict")
)

// Argument errors.
var (
	// ErrInvalidArgument indicates an invalid or missing argument.
	ErrInvalidArgument = NewDomainError("FT-ARG-1001", "invalid argument")
)

// System errors.
var (
	// ErrInternal indicates an internal failure such as entropy exhaustion.
	ErrInternal = NewDomainError("FT-SYS-5000", "internal error")

	// ErrStorage indicates the storage collaborator failed.
	ErrStorage = NewDomainError("FT-SYS-5001", "storage error")

	// ErrRateLimited indicates the caller exceeded the request rate.
	ErrRateLimited = NewDomainError("FT-SYS-4290", "too many requests")
)
