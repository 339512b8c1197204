// Package errors provides standardized error handling for the deal answer engine.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Resolution errors: per-question, user-facing
	ErrCodeNoMatch         ErrorCode = "NO_MATCH"
	ErrCodeAmbiguousEntity ErrorCode = "AMBIGUOUS_ENTITY"
	ErrCodeAmbiguousField  ErrorCode = "AMBIGUOUS_FIELD"
	ErrCodeRecordNotFound  ErrorCode = "RECORD_NOT_FOUND"
	ErrCodeValueNotFound   ErrorCode = "VALUE_NOT_FOUND"

	// Load-time errors: fatal at startup
	ErrCodeBrainLoadFailed          ErrorCode = "BRAIN_LOAD_FAILED"
	ErrCodeBrainVersionIncompatible ErrorCode = "BRAIN_VERSION_INCOMPATIBLE"
	ErrCodeRecordLoadFailed         ErrorCode = "RECORD_LOAD_FAILED"

	// Harness / comparator errors
	ErrCodeTransportError     ErrorCode = "TRANSPORT_ERROR"
	ErrCodeBackendStartFailed ErrorCode = "BACKEND_START_FAILED"
	ErrCodeBackendTimeout     ErrorCode = "BACKEND_TIMEOUT"
	ErrCodeBaselineLoadFailed ErrorCode = "BASELINE_LOAD_FAILED"

	// Validator findings
	ErrCodeValidationViolation ErrorCode = "VALIDATION_VIOLATION"

	// Side-channel errors, never on the answer path
	ErrCodeAuditIndexFailed ErrorCode = "AUDIT_INDEX_FAILED"
	ErrCodeAlertSendFailed  ErrorCode = "ALERT_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// CodeOf extracts the ErrorCode from an error chain, or "" when the error is
// not a StandardError.
func CodeOf(err error) ErrorCode {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// ==========================
// 2. Error Constructors
// ==========================

// NewNoMatchError creates a non-retryable field resolution failure.
func NewNoMatchError(question string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoMatch,
		Message:   "Question did not resolve to any field",
		Details:   fmt.Sprintf("question: %s", question),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAmbiguousEntityError creates a non-retryable ambiguous entity error.
func NewAmbiguousEntityError(reference string, matches int) *StandardError {
	return &StandardError{
		Code:      ErrCodeAmbiguousEntity,
		Message:   "Entity reference matches multiple records",
		Details:   fmt.Sprintf("reference: %s, matches: %d", reference, matches),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecordNotFoundError creates a non-retryable record lookup failure.
func NewRecordNotFoundError(reference string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecordNotFound,
		Message:   "No record matches the entity reference",
		Details:   fmt.Sprintf("reference: %s", reference),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValueNotFoundError marks a resolved field whose stored value is unknown.
func NewValueNotFoundError(fieldID, recordID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValueNotFound,
		Message:   "Field value is unknown for this record",
		Details:   fmt.Sprintf("field: %s, record: %s", fieldID, recordID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBrainLoadError creates a fatal brain load error.
func NewBrainLoadError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBrainLoadFailed,
		Message:   "Synonym brain failed to load",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBrainVersionError creates a fatal catalog-version mismatch error.
func NewBrainVersionError(artifactVersion, catalogVersion string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBrainVersionIncompatible,
		Message:   "Brain artifact targets an incompatible catalog version",
		Details:   fmt.Sprintf("artifact: %s, catalog: %s", artifactVersion, catalogVersion),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecordLoadError creates a fatal record store load error.
func NewRecordLoadError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecordLoadFailed,
		Message:   "Deal record snapshot failed to load",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTransportError creates a retryable harness transport error.
func NewTransportError(target string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransportError,
		Message:   "Answer backend call failed",
		Details:   fmt.Sprintf("target: %s, error: %s", target, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBackendStartError creates a backend process startup error.
func NewBackendStartError(name string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBackendStartFailed,
		Message:   "Managed backend process failed to start",
		Details:   fmt.Sprintf("backend: %s, error: %s", name, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBackendTimeoutError creates a retryable backend timeout error.
func NewBackendTimeoutError(name string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBackendTimeout,
		Message:   "Answer backend timed out",
		Details:   fmt.Sprintf("backend: %s", name),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBaselineLoadError creates a fatal baseline file error.
func NewBaselineLoadError(path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBaselineLoadFailed,
		Message:   "Baseline summary failed to load",
		Details:   fmt.Sprintf("path: %s, error: %s", path, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationViolationError wraps a validator finding as an error.
func NewValidationViolationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationViolation,
		Message:   "Brain validation violation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuditIndexError creates a retryable audit sink error.
func NewAuditIndexError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuditIndexFailed,
		Message:   "Interaction audit indexing failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAlertSendError creates a retryable alert delivery error.
func NewAlertSendError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAlertSendFailed,
		Message:   "Regression alert delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Retry Policy
// ==========================

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeTransportError,
		ErrCodeRecordLoadFailed,
		ErrCodeAuditIndexFailed,
		ErrCodeAlertSendFailed:
		return 3 // Retryable technical errors

	case ErrCodeBackendTimeout:
		return 1

	default:
		return 0 // Resolution and load-time errors: no retry
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "BRAIN"):
		return "BRAIN"
	case strings.Contains(codeStr, "RECORD") || strings.Contains(codeStr, "VALUE"):
		return "RECORDS"
	case strings.Contains(codeStr, "MATCH") || strings.Contains(codeStr, "AMBIGUOUS"):
		return "RESOLUTION"
	case strings.Contains(codeStr, "TRANSPORT") || strings.Contains(codeStr, "BACKEND"):
		return "TRANSPORT"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "AUDIT") || strings.Contains(codeStr, "ALERT"):
		return "SIDE_CHANNEL"
	default:
		return "OTHER"
	}
}
