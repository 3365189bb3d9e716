// ABOUTME: Tests for AppContextError
// ABOUTME: Verifies error interface, HTTP mapping, retryability, and safe messages
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppContextError_Error(t *testing.T) {
	tests := map[string]struct {
		err      *AppContextError
		contains []string
	}{
		"full context": {
			err:      NewValidationContextError("port must be positive", "handler", "ConfigHandler", "UpdateConfig", nil),
			contains: []string{"[handler:ConfigHandler:UpdateConfig]", "VALIDATION_ERROR", "port must be positive"},
		},
		"with cause": {
			err:      NewStorageContextError("query failed", "repository", "ListingRepository", "QueryRecent", errors.New("disk I/O error")),
			contains: []string{"STORAGE_ERROR", "query failed", "disk I/O error"},
		},
		"without layer info": {
			err:      &AppContextError{Code: CodeInternal, Message: "boom"},
			contains: []string{"INTERNAL_ERROR: boom"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			msg := tc.err.Error()
			for _, want := range tc.contains {
				assert.Contains(t, msg, want)
			}
		})
	}
}

func TestAppContextError_HTTPStatusCode(t *testing.T) {
	tests := map[string]int{
		CodeValidation:  http.StatusBadRequest,
		CodeNotFound:    http.StatusNotFound,
		CodeRateLimit:   http.StatusTooManyRequests,
		CodeFetch:       http.StatusBadGateway,
		CodeUnavailable: http.StatusServiceUnavailable,
		CodeStorage:     http.StatusInternalServerError,
		CodeInternal:    http.StatusInternalServerError,
		"SOMETHING":     http.StatusInternalServerError,
	}
	for code, want := range tests {
		t.Run(code, func(t *testing.T) {
			assert.Equal(t, want, (&AppContextError{Code: code}).HTTPStatusCode())
		})
	}
}

func TestAppContextError_ToHTTPResponse(t *testing.T) {
	t.Run("validation message passes through", func(t *testing.T) {
		resp := NewValidationContextError("Invalid URL format: x", "handler", "ConfigHandler", "UpdateConfig", nil).ToHTTPResponse()
		assert.Equal(t, "Invalid URL format: x", resp.Detail)
		assert.Equal(t, CodeValidation, resp.Code)
		assert.Len(t, resp.ErrorID, 8)
		assert.False(t, resp.Retryable)
	})

	t.Run("storage cause is hidden", func(t *testing.T) {
		resp := NewStorageContextError("select failed", "repository", "ListingRepository", "QueryRecent", errors.New("secret path /var/db")).ToHTTPResponse()
		assert.Equal(t, "Database error", resp.Detail)
		assert.NotContains(t, resp.Detail, "secret")
		assert.True(t, resp.Retryable)
	})
}

func TestAsAppContextError(t *testing.T) {
	cause := errors.New("root")
	appErr := NewInternalContextError("wrapped", "service", "FeedPublisher", "Render", cause)
	wrapped := fmt.Errorf("outer: %w", appErr)

	got, ok := AsAppContextError(wrapped)
	require.True(t, ok)
	assert.Equal(t, appErr, got)
	assert.ErrorIs(t, wrapped, cause)

	_, ok = AsAppContextError(errors.New("plain"))
	assert.False(t, ok)
}
