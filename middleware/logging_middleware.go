// ABOUTME: This file provides HTTP access logging middleware
// ABOUTME: Logs method, path, status and duration once per request
package middleware

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"ad-monitor/utils/logger"
)

func LoggingMiddleware(log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			ctx := logger.WithOperation(req.Context(), req.Method+" "+req.URL.Path)
			c.SetRequest(req.WithContext(ctx))

			err := next(c)
			if err != nil {
				// Let the error handler write the response so the status is final.
				c.Error(err)
			}

			res := c.Response()
			log.InfoContext(ctx, "request completed",
				"log_type", "access",
				"method", req.Method,
				"path", req.URL.Path,
				"status_code", res.Status,
				"response_size", res.Size,
				"ip_address", c.RealIP(),
				"user_agent", req.UserAgent(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return nil
		}
	}
}
