// Package mcp exposes docsift over the Model Context Protocol.
package mcp

import (
	"context"
	"errors"
	"fmt"

	siftErrors "github.com/Aman-CERP/docsift/internal/errors"
)

// MCP error codes returned by docsift tools.
const (
	// ErrCodeStoreUnavailable means the content store failed (ERR_210).
	ErrCodeStoreUnavailable = -32001

	// ErrCodeIndexBusy means another process holds the index lock.
	ErrCodeIndexBusy = -32002

	// ErrCodeTimeout means the request was cancelled or timed out.
	ErrCodeTimeout = -32003

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError is a protocol error with a JSON-RPC code.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var me *MCPError
	if errors.As(err, &me) {
		return me
	}

	var se *siftErrors.SiftError
	if errors.As(err, &se) {
		return mapSiftError(se)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}
}

// NewInvalidParamsError creates an error for invalid parameters.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// NewMethodNotFoundError creates an error for unknown tools.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Tool '%s' not found.", name),
	}
}

func mapSiftError(se *siftErrors.SiftError) *MCPError {
	message := se.Message
	if se.Suggestion != "" {
		message = fmt.Sprintf("%s. %s", se.Message, se.Suggestion)
	}

	switch {
	case se.Code == siftErrors.ErrCodeStorageFailure:
		return &MCPError{Code: ErrCodeStoreUnavailable, Message: message}
	case se.Code == siftErrors.ErrCodeIndexLocked:
		return &MCPError{Code: ErrCodeIndexBusy, Message: message}
	case se.Category == siftErrors.CategoryValidation:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}
