package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"ad-monitor/config"
)

const configSavedMessage = "Configuration saved successfully!"

// ConfigHandler exposes the configuration document over /api/config.
type ConfigHandler struct {
	store  ConfigStore
	logger *slog.Logger
}

func NewConfigHandler(store ConfigStore, logger *slog.Logger) *ConfigHandler {
	return &ConfigHandler{store: store, logger: logger}
}

// HandleGetConfig handles GET /api/config.
func (h *ConfigHandler) HandleGetConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.Get())
}

// HandleUpdateConfig handles POST /api/config. Fields missing from the body
// take their defaults before validation; an invalid document changes nothing.
func (h *ConfigHandler) HandleUpdateConfig(c echo.Context) error {
	ctx := c.Request().Context()

	cfg := config.Default()
	if err := (&echo.DefaultBinder{}).BindBody(c, cfg); err != nil {
		h.logger.WarnContext(ctx, "failed to bind config", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := h.store.Update(cfg); err != nil {
		var validationErr *config.ValidationError
		if errors.As(err, &validationErr) {
			h.logger.WarnContext(ctx, "rejected invalid config", "error", err)
			return err
		}
		h.logger.ErrorContext(ctx, "failed to save config", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"detail": err.Error()})
	}

	h.logger.InfoContext(ctx, "config updated", "url_count", len(cfg.URLFilters))
	return c.JSON(http.StatusOK, map[string]string{"message": configSavedMessage})
}
