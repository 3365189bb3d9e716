package driver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"ad-monitor/config"
)

// InitPostgres opens a pgx pool for the shared dedup store.
func InitPostgres(ctx context.Context, settings config.StoreSettings, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(settings.PostgresDSN)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to parse postgres config", "error", err)
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}

	if settings.MaxConns > 0 {
		poolConfig.MaxConns = int32(settings.MaxConns)
	}
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.ConnConfig.Tracer = NewQueryTracer(logger)

	connectCtx := ctx
	if settings.ConnTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, settings.ConnTimeout)
		defer cancel()
	}

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to connect to postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		logger.ErrorContext(ctx, "Failed to ping postgres", "error", err)
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	logger.InfoContext(ctx, "Connected to postgres",
		"host", poolConfig.ConnConfig.Host,
		"database", poolConfig.ConnConfig.Database,
		"max_conns", poolConfig.MaxConns,
	)
	return pool, nil
}
