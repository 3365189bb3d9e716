// ABOUTME: Structured error type carrying layer, component and operation context
// ABOUTME: Maps error codes to HTTP statuses and client-safe detail messages
package errors

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeNotFound    = "NOT_FOUND_ERROR"
	CodeRateLimit   = "RATE_LIMIT_ERROR"
	CodeStorage     = "STORAGE_ERROR"
	CodeFetch       = "FETCH_ERROR"
	CodeUnavailable = "UNAVAILABLE_ERROR"
	CodeInternal    = "INTERNAL_ERROR"
)

// AppContextError is an error annotated with where it happened.
type AppContextError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Layer     string         `json:"layer,omitempty"`
	Component string         `json:"component,omitempty"`
	Operation string         `json:"operation,omitempty"`
	Cause     error          `json:"-"`
	Context   map[string]any `json:"context,omitempty"`
	ErrorID   string         `json:"-"`
}

func (e *AppContextError) Error() string {
	var prefix string
	if e.Layer != "" && e.Component != "" && e.Operation != "" {
		prefix = fmt.Sprintf("[%s:%s:%s] ", e.Layer, e.Component, e.Operation)
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s%s: %s (caused by: %v)", prefix, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s%s: %s", prefix, e.Code, e.Message)
}

func (e *AppContextError) Unwrap() error {
	return e.Cause
}

// HTTPStatusCode maps error codes to HTTP status codes
func (e *AppContextError) HTTPStatusCode() int {
	switch e.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRateLimit:
		return http.StatusTooManyRequests
	case CodeFetch:
		return http.StatusBadGateway
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// IsRetryable reports whether the same request may succeed later.
func (e *AppContextError) IsRetryable() bool {
	switch e.Code {
	case CodeRateLimit, CodeFetch, CodeUnavailable, CodeStorage:
		return true
	default:
		return false
	}
}

var safeMessages = map[string]string{
	CodeStorage:     "Database error",
	CodeFetch:       "Unable to fetch the upstream page. Please try again.",
	CodeRateLimit:   "Rate limit exceeded",
	CodeUnavailable: "Service temporarily unavailable",
	CodeInternal:    "An unexpected error occurred. Please try again later.",
}

// SafeMessage returns a message that does not leak internal details.
// Validation and not-found messages are written for clients and pass through.
func (e *AppContextError) SafeMessage() string {
	if e.Code == CodeValidation || e.Code == CodeNotFound {
		return e.Message
	}
	if msg, ok := safeMessages[e.Code]; ok {
		return msg
	}
	return "An error occurred."
}

// HTTPResponse is the JSON body returned for failed requests.
type HTTPResponse struct {
	Detail    string `json:"detail"`
	Code      string `json:"code,omitempty"`
	ErrorID   string `json:"error_id,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// ToHTTPResponse converts the error to a client-safe body.
func (e *AppContextError) ToHTTPResponse() HTTPResponse {
	return HTTPResponse{
		Detail:    e.SafeMessage(),
		Code:      e.Code,
		ErrorID:   e.ErrorID,
		Retryable: e.IsRetryable(),
	}
}

func generateErrorID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(b)
}

// NewAppContextError creates a new AppContextError with full context
func NewAppContextError(code, message, layer, component, operation string, cause error, ctx map[string]any) *AppContextError {
	if ctx == nil {
		ctx = make(map[string]any)
	}
	return &AppContextError{
		Code:      code,
		Message:   message,
		Layer:     layer,
		Component: component,
		Operation: operation,
		Cause:     cause,
		Context:   ctx,
		ErrorID:   generateErrorID(),
	}
}

func NewValidationContextError(message, layer, component, operation string, cause error) *AppContextError {
	return NewAppContextError(CodeValidation, message, layer, component, operation, cause, nil)
}

func NewStorageContextError(message, layer, component, operation string, cause error) *AppContextError {
	return NewAppContextError(CodeStorage, message, layer, component, operation, cause, nil)
}

func NewInternalContextError(message, layer, component, operation string, cause error) *AppContextError {
	return NewAppContextError(CodeInternal, message, layer, component, operation, cause, nil)
}

func NewRateLimitContextError(message, layer, component, operation string) *AppContextError {
	return NewAppContextError(CodeRateLimit, message, layer, component, operation, nil, nil)
}

// AsAppContextError extracts an AppContextError from err's chain.
func AsAppContextError(err error) (*AppContextError, bool) {
	var appErr *AppContextError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
