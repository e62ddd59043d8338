package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeLLM represents embedding/answer collaborator errors
	ErrorTypeLLM ErrorType = "llm"
	// ErrorTypeGraph represents graph database errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeStore represents relational content store errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeIndex represents indexing pipeline errors
	ErrorTypeIndex ErrorType = "index"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeContext represents context cancellation/timeout errors
	ErrorTypeContext ErrorType = "context"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// LLM Errors

// ErrLLMUnavailable is returned when an LLM collaborator cannot be reached.
// Every provider-specific failure is normalized to this type so callers can
// treat "embedding unavailable" uniformly.
type ErrLLMUnavailable struct {
	*BaseError
	Operation string
	Model     string
}

func NewLLMUnavailable(operation, model string, err error) *ErrLLMUnavailable {
	return &ErrLLMUnavailable{
		BaseError: NewBaseError(ErrorTypeLLM, fmt.Sprintf("LLM %s failed", operation), err),
		Operation: operation,
		Model:     model,
	}
}

// ErrLLMEmptyResponse is returned when the LLM returns no usable output
var ErrLLMEmptyResponse = NewBaseError(ErrorTypeLLM, "empty response from LLM", nil)

// Graph Errors

// ErrGraphConnectionFailed is returned when Neo4j connection fails
type ErrGraphConnectionFailed struct {
	*BaseError
	URI string
}

func NewGraphConnectionFailed(uri string, err error) *ErrGraphConnectionFailed {
	return &ErrGraphConnectionFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("failed to connect to Neo4j: %s", uri), err),
		URI:       uri,
	}
}

// ErrGraphWriteFailed is returned when a per-item mutation batch fails.
// The batch runs in one transaction, so nothing from the item was persisted.
type ErrGraphWriteFailed struct {
	*BaseError
	ItemID string
}

func NewGraphWriteFailed(itemID string, err error) *ErrGraphWriteFailed {
	return &ErrGraphWriteFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("graph write failed for item %s", itemID), err),
		ItemID:    itemID,
	}
}

// ErrGraphQueryFailed is returned when a graph read query fails
type ErrGraphQueryFailed struct {
	*BaseError
	Label string
}

func NewGraphQueryFailed(label string, err error) *ErrGraphQueryFailed {
	return &ErrGraphQueryFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("graph query failed: %s", label), err),
		Label:     label,
	}
}

// Store Errors

// ErrItemNotFound is returned when a content item does not exist for the user
type ErrItemNotFound struct {
	*BaseError
	ItemType string
	ItemID   string
}

func NewItemNotFound(itemType, itemID string) *ErrItemNotFound {
	return &ErrItemNotFound{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("%s not found: %s", itemType, itemID), nil),
		ItemType:  itemType,
		ItemID:    itemID,
	}
}

// ErrStoreQueryFailed is returned when a content store query fails
type ErrStoreQueryFailed struct {
	*BaseError
	Operation string
}

func NewStoreQueryFailed(operation string, err error) *ErrStoreQueryFailed {
	return &ErrStoreQueryFailed{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("store query failed: %s", operation), err),
		Operation: operation,
	}
}

// Index Errors

// ErrMalformedItem is returned when an item has no indexable text.
// Indexing is skipped and not retried automatically.
type ErrMalformedItem struct {
	*BaseError
	ItemType string
	ItemID   string
}

func NewMalformedItem(itemType, itemID string) *ErrMalformedItem {
	return &ErrMalformedItem{
		BaseError: NewBaseError(ErrorTypeIndex, fmt.Sprintf("%s %s has no indexable text", itemType, itemID), nil),
		ItemType:  itemType,
		ItemID:    itemID,
	}
}

// Context Errors

// ErrContextTimeout is returned when a collaborator call times out
type ErrContextTimeout struct {
	*BaseError
	Operation string
	Timeout   time.Duration
}

func NewContextTimeout(operation string, timeout time.Duration) *ErrContextTimeout {
	return &ErrContextTimeout{
		BaseError: NewBaseError(ErrorTypeContext, fmt.Sprintf("context timeout: %s (timeout: %v)", operation, timeout), nil),
		Operation: operation,
		Timeout:   timeout,
	}
}

// Config Errors

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	if err == nil {
		return false
	}
	if baseErr, ok := err.(*BaseError); ok {
		return baseErr.Type == errType
	}
	if typed, ok := err.(interface{ base() *BaseError }); ok {
		return typed.base().Type == errType
	}
	// Check wrapped errors
	if wrapper, ok := err.(interface{ Unwrap() error }); ok {
		return IsErrorType(wrapper.Unwrap(), errType)
	}
	return false
}

func (e *BaseError) base() *BaseError { return e }

// IsCollaboratorUnavailable reports whether the error means an LLM backend
// could not serve the request. The query path falls back to lexical search
// on these; the index path leaves the item unindexed for a later retry.
func IsCollaboratorUnavailable(err error) bool {
	return IsErrorType(err, ErrorTypeLLM) || IsErrorType(err, ErrorTypeContext)
}

// IsRetryable checks if an index failure is worth retrying by the caller
func IsRetryable(err error) bool {
	// Malformed items never become indexable on retry
	if IsErrorType(err, ErrorTypeIndex) {
		return false
	}
	if IsErrorType(err, ErrorTypeLLM) || IsErrorType(err, ErrorTypeGraph) || IsErrorType(err, ErrorTypeStore) {
		return true
	}
	return false
}
