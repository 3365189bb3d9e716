package logger

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log/global"
)

// bridgeHandler writes every record locally and exports those at or above
// level through the OpenTelemetry log bridge.
type bridgeHandler struct {
	local  slog.Handler
	remote slog.Handler
	level  slog.Leveler
}

func newBridgeHandler(local slog.Handler, serviceName string, level slog.Leveler) *bridgeHandler {
	remote := otelslog.NewHandler(serviceName,
		otelslog.WithLoggerProvider(global.GetLoggerProvider()))
	return &bridgeHandler{local: local, remote: remote, level: level}
}

func (h *bridgeHandler) exports(ctx context.Context, level slog.Level) bool {
	return level >= h.level.Level() && h.remote.Enabled(ctx, level)
}

func (h *bridgeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.local.Enabled(ctx, level) || h.exports(ctx, level)
}

// Handle reports only local write errors; export is best effort.
func (h *bridgeHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.exports(ctx, r.Level) {
		_ = h.remote.Handle(ctx, r.Clone())
	}
	if !h.local.Enabled(ctx, r.Level) {
		return nil
	}
	return h.local.Handle(ctx, r)
}

func (h *bridgeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &bridgeHandler{local: h.local.WithAttrs(attrs), remote: h.remote.WithAttrs(attrs), level: h.level}
}

func (h *bridgeHandler) WithGroup(name string) slog.Handler {
	return &bridgeHandler{local: h.local.WithGroup(name), remote: h.remote.WithGroup(name), level: h.level}
}
