// ABOUTME: Centralized error handling middleware for Echo framework
// ABOUTME: Converts AppContextError and validation errors to {"detail": ...} responses
package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"ad-monitor/config"
	apperrors "ad-monitor/utils/errors"
	"ad-monitor/utils/logger"
)

const internalErrorDetail = "An unexpected error occurred. Please try again later."

// CustomHTTPErrorHandler creates the centralized HTTP error handler for Echo.
//
// Error handling priority:
// 1. AppContextError - status from its code, client-safe detail
// 2. config.ValidationError - 400 with the validation message
// 3. echo.HTTPError - its status; 5xx messages are hidden
// 4. Unknown errors - generic 500
func CustomHTTPErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		ctx := c.Request().Context()
		requestID := logger.RequestIDFrom(ctx)

		var status int
		var response apperrors.HTTPResponse

		var appErr *apperrors.AppContextError
		var validationErr *config.ValidationError
		var httpErr *echo.HTTPError

		switch {
		case errors.As(err, &appErr):
			status = appErr.HTTPStatusCode()
			response = appErr.ToHTTPResponse()
			level := slog.LevelError
			if status < http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			log.Log(ctx, level, "application error",
				"request_id", requestID,
				"error_id", appErr.ErrorID,
				"code", appErr.Code,
				"message", appErr.Message,
				"layer", appErr.Layer,
				"component", appErr.Component,
				"operation", appErr.Operation,
				"cause", appErr.Cause,
			)

		case errors.As(err, &validationErr):
			status = http.StatusBadRequest
			response = apperrors.HTTPResponse{Detail: validationErr.Error(), Code: apperrors.CodeValidation}
			log.WarnContext(ctx, "validation error", "request_id", requestID, "error", validationErr)

		case errors.As(err, &httpErr):
			status = httpErr.Code
			detail := http.StatusText(status)
			if m, ok := httpErr.Message.(string); ok {
				detail = m
			} else if httpErr.Message != nil {
				detail = fmt.Sprint(httpErr.Message)
			}
			if status >= http.StatusInternalServerError {
				detail = internalErrorDetail
			}
			response = apperrors.HTTPResponse{Detail: detail}
			log.WarnContext(ctx, "HTTP error", "request_id", requestID, "status", status, "message", httpErr.Message)

		default:
			status = http.StatusInternalServerError
			response = apperrors.HTTPResponse{Detail: internalErrorDetail, Code: apperrors.CodeInternal}
			log.ErrorContext(ctx, "unhandled error", "request_id", requestID, "error", err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, response)
		}
		if err != nil {
			log.ErrorContext(ctx, "failed to send error response", "request_id", requestID, "error", err)
		}
	}
}
