package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ad-monitor/config"
	"ad-monitor/driver"
	"ad-monitor/filter"
	"ad-monitor/handler"
	appmiddleware "ad-monitor/middleware"
	"ad-monitor/repository"
	"ad-monitor/retry"
	"ad-monitor/service"
	"ad-monitor/utils/html_parser"
)

// Dependencies holds all application dependencies.
type Dependencies struct {
	Settings     *config.Settings
	Config       *config.Manager
	Repo         repository.ListingRepository
	Fetcher      *driver.BrowserFetcher
	Notifier     *driver.RedisStreamNotifier
	Feed         *service.FeedPublisher
	Orchestrator *service.CycleOrchestrator
	RateLimiter  *appmiddleware.RateLimiter
	Logger       *slog.Logger

	HealthHandler *handler.HealthHandler
	FeedHandler   *handler.FeedHandler
	ConfigHandler *handler.ConfigHandler
	PageHandler   *handler.PageHandler
}

// OpenStore opens the dedup store selected by settings. The sqlite store
// lives in the database_name file of the configuration document.
func OpenStore(ctx context.Context, settings config.StoreSettings, cfg *config.Config, log *slog.Logger) (repository.ListingRepository, error) {
	switch settings.Driver {
	case config.StoreDriverPostgres:
		pool, err := driver.InitPostgres(ctx, settings, log)
		if err != nil {
			return nil, err
		}
		repo := repository.NewPostgresListingRepository(pool, log, nil)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return repo, nil
	case config.StoreDriverSQLite, "":
		db, err := driver.OpenSQLite(cfg.DatabaseName, log)
		if err != nil {
			return nil, err
		}
		repo, err := repository.NewSQLiteListingRepository(db, log, nil)
		if err != nil {
			if sqlDB, dbErr := db.DB(); dbErr == nil {
				_ = sqlDB.Close()
			}
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown store driver: %q", settings.Driver)
	}
}

// BuildDependencies constructs all application dependencies.
// Returns a cleanup function that should be deferred.
func BuildDependencies(ctx context.Context, settings *config.Settings, manager *config.Manager, log *slog.Logger) (*Dependencies, func(), error) {
	repo, err := OpenStore(ctx, settings.Store, manager.Get(), log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open listing store: %w", err)
	}

	notifier := buildNotifier(ctx, settings.Notifier, log)
	fetcher := driver.NewBrowserFetcher(settings.Browser, log)
	feed := service.NewFeedPublisher(repo, manager, settings.Feed, log)

	workerDeps := service.WorkerDeps{
		Fetcher:   fetcher,
		Extractor: html_parser.NewListingExtractor(),
		Repo:      repo,
		Evaluator: filter.NewEvaluator(log),
		Config:    manager,
		Retry:     retry.NewPolicy(settings.Backoff.BackoffConfig(), log),
		Jitter:    service.JitterRange{Min: settings.Worker.JitterMin, Max: settings.Worker.JitterMax},
		Logger:    log,
	}
	if notifier != nil {
		workerDeps.Notifier = notifier
	}
	orchestrator := service.NewCycleOrchestrator(workerDeps, settings.Worker.PoolSize, feed, log)

	var limiter *appmiddleware.RateLimiter
	if settings.RateLimit.Enabled {
		limiter = appmiddleware.NewRateLimiter(settings.RateLimit)
	}

	cleanup := func() {
		var errs []error
		if err := fetcher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("browser: %w", err))
		}
		if notifier != nil {
			if err := notifier.Close(); err != nil {
				errs = append(errs, fmt.Errorf("notifier: %w", err))
			}
		}
		if err := repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
		if err := errors.Join(errs...); err != nil {
			log.Warn("cleanup finished with errors", "error", err)
		}
	}

	return &Dependencies{
		Settings:      settings,
		Config:        manager,
		Repo:          repo,
		Fetcher:       fetcher,
		Notifier:      notifier,
		Feed:          feed,
		Orchestrator:  orchestrator,
		RateLimiter:   limiter,
		Logger:        log,
		HealthHandler: handler.NewHealthHandler(manager, repo, settings.Store.Driver, log),
		FeedHandler:   handler.NewFeedHandler(feed, log),
		ConfigHandler: handler.NewConfigHandler(manager, log),
		PageHandler:   handler.NewPageHandler(log),
	}, cleanup, nil
}

// buildNotifier returns nil when notifications are disabled or misconfigured.
// An unreachable Redis is only a warning; XADD failures are logged per listing.
func buildNotifier(ctx context.Context, cfg config.NotifierConfig, log *slog.Logger) *driver.RedisStreamNotifier {
	if !cfg.Enabled {
		return nil
	}
	notifier, err := driver.NewRedisStreamNotifier(cfg, log)
	if err != nil {
		log.Error("Failed to create Redis stream notifier", "error", err)
		return nil
	}
	if err := notifier.Ping(ctx); err != nil {
		log.Warn("Redis stream notifier is not reachable yet", "stream", cfg.Stream, "error", err)
	} else {
		log.Info("Redis stream notifier ready", "stream", cfg.Stream, "max_len", cfg.MaxLen)
	}
	return notifier
}
