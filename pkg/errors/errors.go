package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown  ErrorCode = "UNKNOWN"
	ErrInternal ErrorCode = "INTERNAL"

	// Sync engine errors (per-entry recoverable unless noted)
	ErrSourceUnreachable    ErrorCode = "SOURCE_UNREACHABLE"
	ErrRefNotResolved       ErrorCode = "REF_NOT_RESOLVED"
	ErrConflictNotConfirmed ErrorCode = "CONFLICT_NOT_CONFIRMED"
	ErrBackupFailed         ErrorCode = "BACKUP_FAILED"
	ErrChecksumMismatch     ErrorCode = "CHECKSUM_MISMATCH_INTERNAL"
	ErrCancelled            ErrorCode = "CANCELLED"

	// Hard stops: trust or state-integrity violations abort the whole run
	ErrPathTraversal   ErrorCode = "PATH_TRAVERSAL_REJECTED"
	ErrLockfileCorrupt ErrorCode = "LOCKFILE_CORRUPT"

	// Manifest errors
	ErrManifestNotFound ErrorCode = "MANIFEST_NOT_FOUND"
	ErrManifestExists   ErrorCode = "MANIFEST_EXISTS"
	ErrManifestParse    ErrorCode = "MANIFEST_PARSE"
	ErrInvalidKind      ErrorCode = "INVALID_KIND"
	ErrInvalidSource    ErrorCode = "INVALID_SOURCE"
	ErrDuplicateID      ErrorCode = "DUPLICATE_ID"
	ErrEntryNotFound    ErrorCode = "ENTRY_NOT_FOUND"

	// Installer errors
	ErrSkillMarkerMissing ErrorCode = "SKILL_MARKER_MISSING"

	// Lockfile errors
	ErrLockfileNotFound ErrorCode = "LOCKFILE_NOT_FOUND"

	// Catalog errors
	ErrCatalogNotFound ErrorCode = "CATALOG_NOT_FOUND"
	ErrCatalogParse    ErrorCode = "CATALOG_PARSE"

	// FileSystem errors
	ErrFileAccess ErrorCode = "FILE_ACCESS"
	ErrDirCreate  ErrorCode = "DIR_CREATE"
)

// ApsError represents a structured error with code, details, and a
// user-actionable hint
type ApsError struct {
	Code    ErrorCode
	Message string
	Hint    string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *ApsError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *ApsError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface, matching on error code
func (e *ApsError) Is(target error) bool {
	var targetErr *ApsError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// WithDetail adds a detail key-value pair to the error
func (e *ApsError) WithDetail(key string, value interface{}) *ApsError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithHint attaches an actionable hint shown to the user
func (e *ApsError) WithHint(hint string) *ApsError {
	e.Hint = hint
	return e
}

// New creates a new ApsError with the given code and message
func New(code ErrorCode, message string) *ApsError {
	return &ApsError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new ApsError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *ApsError {
	return &ApsError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with an ApsError
func Wrap(err error, code ErrorCode, message string) *ApsError {
	if err == nil {
		return nil
	}
	return &ApsError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *ApsError {
	if err == nil {
		return nil
	}
	return &ApsError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// CodeOf extracts the error code from an error chain, or ErrUnknown
func CodeOf(err error) ErrorCode {
	var apsErr *ApsError
	if errors.As(err, &apsErr) {
		return apsErr.Code
	}
	return ErrUnknown
}

// HintOf extracts the first hint found in an error chain
func HintOf(err error) string {
	var apsErr *ApsError
	if errors.As(err, &apsErr) {
		return apsErr.Hint
	}
	return ""
}

// IsCode reports whether the error chain carries the given code
func IsCode(err error, code ErrorCode) bool {
	var apsErr *ApsError
	if errors.As(err, &apsErr) {
		return apsErr.Code == code
	}
	return false
}

// IsHardStop reports whether the error must abort the whole run rather
// than just the current entry
func IsHardStop(err error) bool {
	code := CodeOf(err)
	return code == ErrPathTraversal || code == ErrLockfileCorrupt
}
