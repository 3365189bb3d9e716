package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ad-monitor/config"
	"ad-monitor/orchestrator"
	"ad-monitor/service"
	logger "ad-monitor/utils/logger"
	"ad-monitor/utils/otel"
)

const cycleJobName = "discovery-cycle"

// Options carries command line overrides of the runtime settings.
type Options struct {
	ConfigPath string
	LogLevel   string
}

// Runtime is the logger, settings and configuration document shared by every command.
type Runtime struct {
	Settings    *config.Settings
	Config      *config.Manager
	Logger      *slog.Logger
	OTelEnabled bool
	OTelService string
	close       []func(context.Context) error
}

// Close flushes telemetry and closes the log file.
func (r *Runtime) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(r.close) - 1; i >= 0; i-- {
		if err := r.close[i](ctx); err != nil {
			fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
		}
	}
}

// LoadDocument reads and validates the configuration document. A missing
// file is created with defaults when create is set.
func LoadDocument(path string, create bool) (*config.Config, bool, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) && create {
		cfg = config.Default()
		if err := config.Save(path, cfg); err != nil {
			return nil, false, err
		}
		return cfg, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, false, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, false, nil
}

// NewRuntime loads settings and the document, then builds the logger and
// the OpenTelemetry providers.
func NewRuntime(ctx context.Context, opts Options, createConfig bool) (*Runtime, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if opts.ConfigPath != "" {
		settings.ConfigPath = opts.ConfigPath
	}
	if opts.LogLevel != "" {
		settings.LogLevel = opts.LogLevel
	}

	cfg, created, err := LoadDocument(settings.ConfigPath, createConfig)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{Settings: settings}

	// Initialize OpenTelemetry
	otelCfg := otel.ConfigFromEnv()
	otelShutdown, err := otel.InitProvider(ctx, otelCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize OpenTelemetry: %v\n", err)
		otelCfg.Enabled = false
	} else {
		rt.close = append(rt.close, otelShutdown)
	}
	rt.OTelEnabled = otelCfg.Enabled
	rt.OTelService = otelCfg.ServiceName

	log, closeLog, err := logger.New(logger.Options{
		ServiceName: otelCfg.ServiceName,
		Version:     otelCfg.ServiceVersion,
		Level:       settings.LogLevel,
		LogFile:     cfg.LogFilename,
		EnableOTel:  otelCfg.Enabled,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.close = append(rt.close, func(context.Context) error { return closeLog() })
	logger.Logger = log
	rt.Logger = log

	if created {
		log.Info("wrote default configuration", "path", settings.ConfigPath)
	}
	rt.Config = config.NewManager(settings.ConfigPath, cfg, log)
	return rt, nil
}

// Run is the main application entry point. It initializes all dependencies,
// starts the server and the discovery cycle, then waits for a shutdown signal.
func Run(ctx context.Context, opts Options) error {
	rt, err := NewRuntime(ctx, opts, true)
	if err != nil {
		return err
	}
	defer rt.Close()
	log := rt.Logger

	cfg := rt.Config.Get()
	log.Info("Starting ad-monitor service",
		"config", rt.Settings.ConfigPath,
		"store", rt.Settings.Store.Driver,
		"workers", rt.Settings.Worker.PoolSize,
		"urls", len(cfg.URLFilters),
		"refresh_interval_minutes", cfg.RefreshIntervalMinutes,
		"otel_enabled", rt.OTelEnabled)

	// Build all dependencies
	deps, cleanup, err := BuildDependencies(ctx, rt.Settings, rt.Config, log)
	if err != nil {
		return fmt.Errorf("failed to build dependencies: %w", err)
	}
	defer cleanup()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if deps.RateLimiter != nil {
		go deps.RateLimiter.Run(runCtx)
	}
	startConfigWatcher(runCtx, deps, log)

	httpServer := NewHTTPServer(deps, rt.OTelEnabled, rt.OTelService)
	StartHTTPServer(httpServer, ListenAddress(cfg.ServerIP, cfg.ServerPort), log)

	jobs := orchestrator.NewJobGroup(runCtx, log)
	jobs.Add(orchestrator.NewJobRunner(orchestrator.JobConfig{
		Name:           cycleJobName,
		Interval:       deps.Orchestrator.RefreshInterval,
		RunImmediately: true,
	}, func(ctx context.Context) error {
		_, err := deps.Orchestrator.RunCycle(ctx)
		return err
	}, log))

	log.Info("ad-monitor service started successfully")
	waitForShutdown(ctx, httpServer, jobs, cancel, rt.Settings.Server.ShutdownTimeout, log)

	return nil
}

func startConfigWatcher(ctx context.Context, deps *Dependencies, log *slog.Logger) {
	if !deps.Settings.Server.WatchConfig {
		return
	}
	watcher, err := config.NewWatcher(deps.Config, log, func(cfg *config.Config) {
		deps.Feed.Invalidate()
	})
	if err != nil {
		log.Warn("config file watching disabled", "error", err)
		return
	}
	go watcher.Run(ctx)
}

func waitForShutdown(ctx context.Context, httpServer interface{ Shutdown(context.Context) error }, jobs *orchestrator.JobGroup, cancel context.CancelFunc, timeout time.Duration, log *slog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		log.Info("Shutting down ad-monitor service", "signal", sig.String())
	case <-ctx.Done():
		log.Info("Shutting down ad-monitor service", "reason", ctx.Err())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down HTTP server", "error", err)
	}

	// Cancelling interrupts backoff and jitter sleeps; the running cycle
	// then skips its prune.
	cancel()
	jobs.StopAll()

	log.Info("ad-monitor service stopped")
}

// RunOnce performs a single discovery cycle without the HTTP server.
func RunOnce(ctx context.Context, opts Options) (service.CycleReport, error) {
	rt, err := NewRuntime(ctx, opts, false)
	if err != nil {
		return service.CycleReport{}, err
	}
	defer rt.Close()

	deps, cleanup, err := BuildDependencies(ctx, rt.Settings, rt.Config, rt.Logger)
	if err != nil {
		return service.CycleReport{}, fmt.Errorf("failed to build dependencies: %w", err)
	}
	defer cleanup()

	return deps.Orchestrator.RunCycle(ctx)
}
