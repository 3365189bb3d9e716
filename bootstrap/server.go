package bootstrap

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	appmiddleware "ad-monitor/middleware"
	"ad-monitor/web"
)

const maxRequestBody = "1M"

// NewHTTPServer creates and configures the Echo HTTP server.
func NewHTTPServer(deps *Dependencies, otelEnabled bool, otelServiceName string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = deps.Settings.Server.ReadTimeout
	e.Server.WriteTimeout = deps.Settings.Server.WriteTimeout

	// Custom error handler for consistent error responses
	e.HTTPErrorHandler = appmiddleware.CustomHTTPErrorHandler(deps.Logger)

	e.Use(middleware.Recover())

	// Add OpenTelemetry tracing middleware
	if otelEnabled {
		e.Use(otelecho.Middleware(otelServiceName))
		e.Use(appmiddleware.OTelStatusMiddleware())
	}

	e.Use(appmiddleware.RequestIDMiddleware())
	e.Use(appmiddleware.LoggingMiddleware(deps.Logger))
	if deps.RateLimiter != nil {
		e.Use(deps.RateLimiter.Middleware())
	}
	e.Use(middleware.BodyLimit(maxRequestBody))

	e.GET("/health", deps.HealthHandler.HandleHealth)
	e.GET("/rss", deps.FeedHandler.HandleRSS)
	e.GET("/edit", deps.PageHandler.HandleEditConfig)
	e.StaticFS("/static", web.Static())

	api := e.Group("/api")
	api.GET("/config", deps.ConfigHandler.HandleGetConfig)
	api.POST("/config", deps.ConfigHandler.HandleUpdateConfig)

	if deps.Settings.Metrics.Enabled {
		e.GET(deps.Settings.Metrics.Path, echo.WrapHandler(promhttp.Handler()))
	}

	return e
}

// ListenAddress joins the server_ip and server_port of the document.
func ListenAddress(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// StartHTTPServer starts the HTTP server in a goroutine.
func StartHTTPServer(e *echo.Echo, addr string, log *slog.Logger) {
	go func() {
		log.Info("Starting HTTP server", "address", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()
}
