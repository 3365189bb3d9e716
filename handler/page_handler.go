package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"ad-monitor/web"
)

// PageHandler serves the embedded configuration editor.
type PageHandler struct {
	logger *slog.Logger
}

func NewPageHandler(logger *slog.Logger) *PageHandler {
	return &PageHandler{logger: logger}
}

// HandleEditConfig handles GET /edit.
func (h *PageHandler) HandleEditConfig(c echo.Context) error {
	page, err := web.EditConfigPage()
	if err != nil {
		h.logger.ErrorContext(c.Request().Context(), "editor template missing", "error", err)
		return echo.NewHTTPError(http.StatusNotFound, "Template not found")
	}
	return c.HTMLBlob(http.StatusOK, page)
}
