package mcp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	siftErrors "github.com/Aman-CERP/docsift/internal/errors"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{name: "storage failure", err: siftErrors.StorageError("find", errors.New("disk")), wantCode: ErrCodeStoreUnavailable},
		{name: "wrapped storage failure", err: fmt.Errorf("search: %w", siftErrors.StorageError("find", nil)), wantCode: ErrCodeStoreUnavailable},
		{name: "index locked", err: siftErrors.New(siftErrors.ErrCodeIndexLocked, "index is locked", nil), wantCode: ErrCodeIndexBusy},
		{name: "validation", err: siftErrors.ValidationError("bad limit", nil), wantCode: ErrCodeInvalidParams},
		{name: "walk failure", err: siftErrors.New(siftErrors.ErrCodeSearchFailed, "walk failed", nil), wantCode: ErrCodeInternalError},
		{name: "deadline", err: context.DeadlineExceeded, wantCode: ErrCodeTimeout},
		{name: "canceled", err: context.Canceled, wantCode: ErrCodeTimeout},
		{name: "plain", err: errors.New("boom"), wantCode: ErrCodeInternalError},
		{name: "already mapped", err: NewInvalidParamsError("limit"), wantCode: ErrCodeInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.NotEmpty(t, got.Message)
		})
	}
}

func TestMapError_Nil(t *testing.T) {
	assert.Nil(t, MapError(nil))
}

func TestMapError_IncludesSuggestion(t *testing.T) {
	err := siftErrors.New(siftErrors.ErrCodeIndexLocked, "index is locked", nil).
		WithSuggestion("wait for the other reindex to finish")

	got := MapError(err)

	assert.Equal(t, "index is locked. wait for the other reindex to finish", got.Message)
}

func TestMCPError_Error(t *testing.T) {
	err := NewMethodNotFoundError("grep")
	assert.Equal(t, "MCP error -32601: Tool 'grep' not found.", err.Error())
}
