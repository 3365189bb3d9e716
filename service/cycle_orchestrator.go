// ABOUTME: Runs one discovery cycle: partition URLs, fan out fetch workers, prune once
// ABOUTME: Configuration is re-read at the start of every cycle
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ad-monitor/metrics"
	"ad-monitor/utils/logger"
)

// CacheInvalidator drops rendered output that depends on the store.
type CacheInvalidator interface {
	Invalidate()
}

// CycleReport summarizes one discovery cycle.
type CycleReport struct {
	CycleID  string
	URLs     int
	Workers  []WorkerReport
	Pruned   int64
	Duration time.Duration
	Skipped  bool
}

// New returns the number of listings discovered during the cycle.
func (r CycleReport) New() int {
	n := 0
	for _, w := range r.Workers {
		n += w.New
	}
	return n
}

// Partition distributes urls round-robin across min(poolSize, len(urls)) partitions.
func Partition(urls []string, poolSize int) [][]string {
	if len(urls) == 0 || poolSize <= 0 {
		return nil
	}
	n := min(poolSize, len(urls))
	parts := make([][]string, n)
	for i, u := range urls {
		parts[i%n] = append(parts[i%n], u)
	}
	return parts
}

type CycleOrchestrator struct {
	deps     WorkerDeps
	poolSize int
	cache    CacheInvalidator
	logger   *slog.Logger
}

func NewCycleOrchestrator(deps WorkerDeps, poolSize int, cache CacheInvalidator, logger *slog.Logger) *CycleOrchestrator {
	return &CycleOrchestrator{
		deps:     deps,
		poolSize: poolSize,
		cache:    cache,
		logger:   logger,
	}
}

// RefreshInterval is read from the current configuration so edits apply to the next sleep.
func (o *CycleOrchestrator) RefreshInterval() time.Duration {
	return o.deps.Config.Get().RefreshInterval()
}

// RunCycle fetches every configured URL once and prunes the store.
// Workers that fail to open a session skip their partition for this cycle.
func (o *CycleOrchestrator) RunCycle(ctx context.Context) (CycleReport, error) {
	cycleID := uuid.NewString()
	ctx = logger.WithCycleID(ctx, cycleID)
	start := time.Now()

	cfg := o.deps.Config.Get()
	urls := cfg.URLs()
	report := CycleReport{CycleID: cycleID, URLs: len(urls)}

	if len(urls) == 0 {
		report.Skipped = true
		o.logger.InfoContext(ctx, "no urls configured, skipping cycle")
		metrics.RecordCycle("skipped", time.Since(start).Seconds())
		return report, nil
	}

	parts := Partition(urls, o.poolSize)
	o.logger.InfoContext(ctx, "starting discovery cycle", "urls", len(urls), "workers", len(parts))

	report.Workers = make([]WorkerReport, len(parts))
	var g errgroup.Group
	for i, part := range parts {
		worker := NewFetchWorker(i, o.deps)
		g.Go(func() error {
			metrics.ActiveWorkers.Inc()
			defer metrics.ActiveWorkers.Dec()
			report.Workers[i] = worker.Run(ctx, part)
			return nil
		})
	}
	_ = g.Wait()

	status := "completed"
	if ctx.Err() != nil {
		status = "cancelled"
		o.logger.WarnContext(ctx, "cycle interrupted, skipping prune")
	} else {
		retention := cfg.Retention()
		pruned, err := o.deps.Repo.Prune(ctx, retention)
		if err != nil {
			status = "prune_failed"
			metrics.RecordError("prune")
			o.logger.ErrorContext(ctx, "failed to prune listings", "retention", retention, "error", err)
		} else {
			report.Pruned = pruned
			metrics.PrunedTotal.Add(float64(pruned))
		}
	}

	if o.cache != nil {
		o.cache.Invalidate()
	}

	report.Duration = time.Since(start)
	metrics.RecordCycle(status, report.Duration.Seconds())
	o.logger.InfoContext(ctx, "discovery cycle finished",
		"status", status,
		"new", report.New(),
		"pruned", report.Pruned,
		"duration_ms", report.Duration.Milliseconds())
	return report, ctx.Err()
}
