package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"ad-monitor/service"
	apperrors "ad-monitor/utils/errors"
)

// FeedHandler serves the RSS feed of recently checked listings.
type FeedHandler struct {
	feed   FeedRenderer
	logger *slog.Logger
}

func NewFeedHandler(feed FeedRenderer, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{feed: feed, logger: logger}
}

// HandleRSS handles GET /rss.
func (h *FeedHandler) HandleRSS(c echo.Context) error {
	body, err := h.feed.Render(c.Request().Context())
	if err != nil {
		return apperrors.NewStorageContextError("failed to render feed", "handler", "FeedHandler", "HandleRSS", err)
	}
	return c.Blob(http.StatusOK, service.FeedContentType, body)
}
