package errors

import (
	stderrors "errors"
	"fmt"
)

// SiftError is the structured error type for docsift.
// It carries enough context for logging, CLI output and MCP error mapping.
type SiftError struct {
	// Code is the unique error code (e.g., "ERR_210_STORAGE_FAILURE").
	Code string

	// Message is the human-readable error message.
	Message string

	Category Category
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	Retryable bool

	// Suggestion is an actionable hint for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *SiftError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *SiftError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a SiftError with the same code.
func (e *SiftError) Is(target error) bool {
	if t, ok := target.(*SiftError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *SiftError) WithDetail(key, value string) *SiftError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *SiftError) WithSuggestion(suggestion string) *SiftError {
	e.Suggestion = suggestion
	return e
}

// New creates a SiftError. Category, severity and the retryable flag are
// derived from the code.
func New(code string, message string, cause error) *SiftError {
	return &SiftError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a SiftError from an existing error, reusing its message.
// Returns nil for a nil error.
func Wrap(code string, err error) *SiftError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// StorageError reports a ContentStore that cannot clear, write or read.
func StorageError(op string, cause error) *SiftError {
	return New(ErrCodeStorageFailure, fmt.Sprintf("content store %s failed", op), cause).
		WithDetail("op", op)
}

// ExtractionError reports a per-file extraction fault.
func ExtractionError(path string, cause error) *SiftError {
	return New(ErrCodeExtractionFailed, fmt.Sprintf("extract %s", path), cause).
		WithDetail("path", path)
}

// UnsupportedFormatError reports a file whose extension has no extractor.
func UnsupportedFormatError(path, ext string) *SiftError {
	return New(ErrCodeUnsupportedFormat, fmt.Sprintf("unsupported format %q", ext), nil).
		WithDetail("path", path)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *SiftError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *SiftError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *SiftError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if any SiftError in the chain is retryable.
func IsRetryable(err error) bool {
	var se *SiftError
	if stderrors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// IsFatal checks if any SiftError in the chain has fatal severity.
func IsFatal(err error) bool {
	var se *SiftError
	if stderrors.As(err, &se) {
		return se.Severity == SeverityFatal
	}
	return false
}

// IsStorageFailure reports whether err is, or wraps, a storage failure.
func IsStorageFailure(err error) bool {
	return GetCode(err) == ErrCodeStorageFailure
}

// GetCode extracts the first SiftError code from the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var se *SiftError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}

// GetCategory extracts the category of the first SiftError in the chain.
func GetCategory(err error) Category {
	var se *SiftError
	if stderrors.As(err, &se) {
		return se.Category
	}
	return ""
}
