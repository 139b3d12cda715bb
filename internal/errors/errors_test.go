package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSiftError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("disk I/O error")

	// When: wrapping it as a storage failure
	err := StorageError("upsert", originalErr)

	// Then: the chain still reaches the original
	require.NotNil(t, err)
	assert.Equal(t, originalErr, errors.Unwrap(err))
	assert.True(t, errors.Is(err, originalErr))
}

func TestSiftError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "config error",
			code:     ErrCodeConfigInvalid,
			message:  "bad root",
			expected: "[ERR_102_CONFIG_INVALID] bad root",
		},
		{
			name:     "storage error",
			code:     ErrCodeStorageFailure,
			message:  "content store clear failed",
			expected: "[ERR_210_STORAGE_FAILURE] content store clear failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, New(tt.code, tt.message, nil).Error())
		})
	}
}

func TestSiftError_Is_MatchesByCode(t *testing.T) {
	err := fmt.Errorf("reindex: %w", StorageError("clear", nil))

	assert.True(t, errors.Is(err, &SiftError{Code: ErrCodeStorageFailure}))
	assert.False(t, errors.Is(err, &SiftError{Code: ErrCodeIndexLocked}))
}

func TestNew_DerivesCategoryAndSeverity(t *testing.T) {
	tests := []struct {
		code      string
		category  Category
		severity  Severity
		retryable bool
	}{
		{ErrCodeConfigInvalid, CategoryConfig, SeverityError, false},
		{ErrCodeStorageFailure, CategoryIO, SeverityFatal, false},
		{ErrCodeExtractionFailed, CategoryIO, SeverityWarning, false},
		{ErrCodeUnsupportedFormat, CategoryIO, SeverityWarning, false},
		{ErrCodeIndexLocked, CategoryIO, SeverityWarning, true},
		{ErrCodeInvalidInput, CategoryValidation, SeverityError, false},
		{ErrCodeSearchFailed, CategoryInternal, SeverityError, false},
		{"short", CategoryInternal, SeverityError, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "msg", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.severity, err.Severity)
			assert.Equal(t, tt.retryable, err.Retryable)
		})
	}
}

func TestHelpers_InspectWrappedChain(t *testing.T) {
	err := fmt.Errorf("search: %w", StorageError("find", errors.New("boom")))

	assert.True(t, IsStorageFailure(err))
	assert.True(t, IsFatal(err))
	assert.False(t, IsRetryable(err))
	assert.Equal(t, CategoryIO, GetCategory(err))
	assert.Equal(t, "", GetCode(errors.New("plain")))
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestFormatForCLI(t *testing.T) {
	err := StorageError("clear", errors.New("database is locked")).
		WithSuggestion("close other docsift processes")

	out := FormatForCLI(err)

	assert.Contains(t, out, "Error: content store clear failed")
	assert.Contains(t, out, "Cause: database is locked")
	assert.Contains(t, out, "Hint: close other docsift processes")
	assert.Contains(t, out, "Code: ERR_210_STORAGE_FAILURE")
	assert.Equal(t, "", FormatForCLI(nil))
}

func TestFormatJSON_PlainErrorBecomesInternal(t *testing.T) {
	data, err := FormatJSON(errors.New("boom"))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ErrCodeInternal, decoded["code"])
	assert.Equal(t, "boom", decoded["message"])
}

func TestLogAttrs(t *testing.T) {
	attrs := LogAttrs(ExtractionError("a.pdf", errors.New("bad xref")))
	assert.Equal(t, []any{"error_code", ErrCodeExtractionFailed, "error", "extract a.pdf", "cause", "bad xref"}, attrs)
	assert.Nil(t, LogAttrs(nil))
}

func TestRetry_StopsOnNonRetryableError(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 2}, func() error {
		calls++
		return StorageError("clear", nil)
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, IsStorageFailure(err))
}

func TestRetry_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 2}, func() error {
		calls++
		if calls < 3 {
			return New(ErrCodeIndexLocked, "locked", nil)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_ExhaustedKeepsCode(t *testing.T) {
	err := Retry(context.Background(), RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}, func() error {
		return New(ErrCodeIndexLocked, "locked", nil)
	})

	require.Error(t, err)
	assert.Equal(t, ErrCodeIndexLocked, GetCode(err))
	assert.Contains(t, err.Error(), "failed after 2 retries")
}

func TestRetry_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, DefaultRetryConfig(), func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryConfigFor(t *testing.T) {
	assert.Equal(t, 0, RetryConfigFor(0).MaxRetries)
	// 100+200+400+800+1600 = 3100ms fits, the next 2000ms step does not.
	assert.Equal(t, 5, RetryConfigFor(4*time.Second).MaxRetries)
}
