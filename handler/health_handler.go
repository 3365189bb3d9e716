package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"ad-monitor/config"
)

const healthPingTimeout = 2 * time.Second

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status         string `json:"status"`
	Timestamp      string `json:"timestamp"`
	Database       string `json:"database"`
	DatabaseStatus string `json:"database_status"`
	UptimeSecs     int64  `json:"uptime_secs"`
}

// HealthHandler reports process uptime and the identity of the dedup store.
type HealthHandler struct {
	config    ConfigStore
	store     StorePinger
	driver    string
	startedAt time.Time
	now       func() time.Time
	logger    *slog.Logger
}

// NewHealthHandler creates a new health handler. driver is the configured
// store driver; for sqlite the database file name is reported instead.
func NewHealthHandler(cfg ConfigStore, store StorePinger, driver string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		config:    cfg,
		store:     store,
		driver:    driver,
		startedAt: time.Now(),
		now:       time.Now,
		logger:    logger,
	}
}

// HandleHealth handles GET /health. The process is "up" whenever it can
// answer; store reachability is reported separately.
func (h *HealthHandler) HandleHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthPingTimeout)
	defer cancel()

	dbStatus := "ok"
	if h.store != nil {
		if err := h.store.Ping(ctx); err != nil {
			h.logger.WarnContext(ctx, "store ping failed", "error", err)
			dbStatus = "unavailable"
		}
	}

	now := h.now()
	return c.JSON(http.StatusOK, HealthResponse{
		Status:         "up",
		Timestamp:      now.UTC().Format(time.RFC3339),
		Database:       h.databaseName(),
		DatabaseStatus: dbStatus,
		UptimeSecs:     int64(now.Sub(h.startedAt).Seconds()),
	})
}

func (h *HealthHandler) databaseName() string {
	if h.driver == config.StoreDriverPostgres {
		return config.StoreDriverPostgres
	}
	return h.config.Get().DatabaseName
}
