package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// JobConfig configures a job runner.
type JobConfig struct {
	Name string
	// Interval is consulted after every run, so a changed value applies to the next sleep.
	Interval       func() time.Duration
	RunImmediately bool // Run once before the first sleep
}

// JobRunner runs a job sequentially: run, sleep Interval, run again.
// A run never overlaps the previous one.
type JobRunner struct {
	config JobConfig
	fn     func(ctx context.Context) error
	logger *slog.Logger
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewJobRunner creates a new job runner.
func NewJobRunner(config JobConfig, fn func(ctx context.Context) error, logger *slog.Logger) *JobRunner {
	return &JobRunner{
		config: config,
		fn:     fn,
		logger: logger,
	}
}

// Start starts the job runner in a goroutine.
func (r *JobRunner) Start(ctx context.Context) {
	jobCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(jobCtx)
	}()
}

// Stop stops the job runner and waits for the current run to finish.
func (r *JobRunner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

func (r *JobRunner) run(ctx context.Context) {
	if r.config.RunImmediately {
		r.runOnce(ctx)
	}

	for {
		interval := r.interval()
		r.logger.DebugContext(ctx, "job sleeping", "job", r.config.Name, "interval", interval)

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			r.logger.InfoContext(ctx, "job stopped", "job", r.config.Name)
			return
		case <-timer.C:
			r.runOnce(ctx)
		}
	}
}

// runOnce executes the job; errors and panics are logged and the loop continues.
func (r *JobRunner) runOnce(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.ErrorContext(ctx, "panic in job runner", "job", r.config.Name, "panic", rec)
		}
	}()

	if err := r.fn(ctx); err != nil && ctx.Err() == nil {
		r.logger.ErrorContext(ctx, "job failed", "job", r.config.Name, "error", err)
	}
}

func (r *JobRunner) interval() time.Duration {
	if r.config.Interval == nil {
		return time.Minute
	}
	if d := r.config.Interval(); d > 0 {
		return d
	}
	return time.Minute
}

// JobGroup manages a collection of job runners.
type JobGroup struct {
	runners []*JobRunner
	ctx     context.Context
	logger  *slog.Logger
}

// NewJobGroup creates a new job group. The provided context is used for all
// runners added via Add.
func NewJobGroup(ctx context.Context, logger *slog.Logger) *JobGroup {
	return &JobGroup{ctx: ctx, logger: logger}
}

// Add adds a job runner to the group and starts it immediately.
func (g *JobGroup) Add(runner *JobRunner) {
	g.runners = append(g.runners, runner)
	g.logger.InfoContext(g.ctx, "starting job", "job", runner.config.Name)
	runner.Start(g.ctx)
}

// StopAll stops all jobs in the group and waits for them to finish.
func (g *JobGroup) StopAll() {
	for _, r := range g.runners {
		r.Stop()
	}
}
