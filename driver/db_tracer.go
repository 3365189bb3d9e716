package driver

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

const (
	queryDurationThreshold = 100 * time.Millisecond
)

type queryStartKey struct{}

// QueryTracer logs statements slower than queryDurationThreshold.
type QueryTracer struct {
	logger    *slog.Logger
	threshold time.Duration
}

func NewQueryTracer(logger *slog.Logger) *QueryTracer {
	return &QueryTracer{logger: logger, threshold: queryDurationThreshold}
}

func (t *QueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, time.Now())
}

func (t *QueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	queryStart, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}

	duration := time.Since(queryStart)
	if data.Err != nil {
		t.logger.WarnContext(ctx, "query failed", "duration", duration, "error", data.Err)
		return
	}
	if duration > t.threshold {
		t.logger.InfoContext(ctx, "slow query executed", "duration", duration, "command", data.CommandTag.String())
	}
}
