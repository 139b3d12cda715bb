// Package errors provides structured error handling for docsift.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO and storage errors
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file, extraction and storage errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal aborts the enclosing operation.
	SeverityFatal Severity = "FATAL"
	// SeverityError means the operation failed but the process can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning means degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeFileNotFound      = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFilePermission    = "ERR_202_FILE_PERMISSION"
	ErrCodeFileTooLarge      = "ERR_204_FILE_TOO_LARGE"
	ErrCodeFileCorrupt       = "ERR_206_FILE_CORRUPT"
	ErrCodeUnsupportedFormat = "ERR_207_UNSUPPORTED_FORMAT"
	ErrCodeExtractionFailed  = "ERR_208_EXTRACTION_FAILED"
	ErrCodeStorageFailure    = "ERR_210_STORAGE_FAILURE"
	ErrCodeIndexLocked       = "ERR_211_INDEX_LOCKED"

	// Validation errors (400-499)
	ErrCodeInvalidInput = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidPath  = "ERR_406_INVALID_PATH"

	// Internal errors (500-599)
	ErrCodeInternal     = "ERR_501_INTERNAL"
	ErrCodeSearchFailed = "ERR_503_SEARCH_FAILED"
	ErrCodeIndexFailed  = "ERR_505_INDEX_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeStorageFailure:
		return SeverityFatal
	case ErrCodeUnsupportedFormat, ErrCodeExtractionFailed, ErrCodeFileTooLarge, ErrCodeFileCorrupt:
		// Per-file problems never abort a reindex.
		return SeverityWarning
	}

	if isRetryableCode(code) {
		return SeverityWarning
	}
	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	return code == ErrCodeIndexLocked
}
