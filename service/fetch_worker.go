// ABOUTME: Fetch worker owning one browser session and one URL partition per cycle
// ABOUTME: Uninitialized -> Initializing -> Ready -> Fetching -> (Ready | Failed) -> Quitting -> Done
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"ad-monitor/domain"
	"ad-monitor/filter"
	"ad-monitor/metrics"
	"ad-monitor/repository"
	"ad-monitor/retry"
	"ad-monitor/utils/logger"
)

// WorkerState is the lifecycle position of a FetchWorker within one cycle.
type WorkerState int

const (
	WorkerUninitialized WorkerState = iota
	WorkerInitializing
	WorkerReady
	WorkerFetching
	WorkerFailed
	WorkerQuitting
	WorkerDone
)

func (s WorkerState) String() string {
	switch s {
	case WorkerUninitialized:
		return "uninitialized"
	case WorkerInitializing:
		return "initializing"
	case WorkerReady:
		return "ready"
	case WorkerFetching:
		return "fetching"
	case WorkerFailed:
		return "failed"
	case WorkerQuitting:
		return "quitting"
	case WorkerDone:
		return "done"
	default:
		return fmt.Sprintf("worker_state(%d)", int(s))
	}
}

// JitterRange bounds the random pause between successful fetches.
type JitterRange struct {
	Min time.Duration
	Max time.Duration
}

// Pick returns a uniformly random duration in [Min, Max].
func (j JitterRange) Pick() time.Duration {
	if j.Max <= j.Min {
		return j.Min
	}
	return j.Min + time.Duration(rand.Int64N(int64(j.Max-j.Min)+1))
}

// WorkerDeps are the collaborators shared by every worker of a cycle.
type WorkerDeps struct {
	Fetcher   PageFetcher
	Extractor ContentExtractor
	Repo      repository.ListingRepository
	Evaluator *filter.Evaluator
	Config    ConfigSource
	Notifier  ListingNotifier // optional
	Retry     *retry.Policy
	Jitter    JitterRange
	Sleep     retry.Sleeper
	Now       func() time.Time
	Logger    *slog.Logger
}

// WorkerReport summarizes what a worker did with its partition.
type WorkerReport struct {
	Worker        int
	URLs          int
	Fetched       int
	FetchFailed   int
	Candidates    int
	Filtered      int
	New           int
	Updated       int
	StorageErrors int
	InitFailed    bool
}

type FetchWorker struct {
	id      int
	deps    WorkerDeps
	logger  *slog.Logger
	mu      sync.Mutex
	state   WorkerState
	observe func(id int, from, to WorkerState)
}

func NewFetchWorker(id int, deps WorkerDeps) *FetchWorker {
	if deps.Sleep == nil {
		deps.Sleep = retry.ContextSleeper
	}
	if deps.Evaluator == nil {
		deps.Evaluator = filter.NewEvaluator(deps.Logger)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &FetchWorker{
		id:     id,
		deps:   deps,
		logger: deps.Logger,
		state:  WorkerUninitialized,
	}
}

// Observe registers a callback for every state transition.
func (w *FetchWorker) Observe(fn func(id int, from, to WorkerState)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.observe = fn
}

// State returns the current lifecycle state.
func (w *FetchWorker) State() WorkerState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *FetchWorker) transition(to WorkerState) {
	w.mu.Lock()
	from := w.state
	w.state = to
	observe := w.observe
	w.mu.Unlock()
	if observe != nil {
		observe(w.id, from, to)
	}
}

// Run processes the partition with a single session and always ends in WorkerDone.
func (w *FetchWorker) Run(ctx context.Context, urls []string) WorkerReport {
	ctx = logger.WithWorker(ctx, w.id)
	report := WorkerReport{Worker: w.id, URLs: len(urls)}
	defer w.transition(WorkerDone)

	cfg := w.deps.Config.Get()

	w.transition(WorkerInitializing)
	session, err := w.openSession(ctx)
	if err != nil {
		report.InitFailed = true
		metrics.RecordError("session_init")
		w.logger.ErrorContext(ctx, "worker could not open a fetch session, skipping partition",
			"urls", len(urls), "error", err)
		return report
	}
	defer w.release(ctx, session)
	w.transition(WorkerReady)

	for i, url := range urls {
		if ctx.Err() != nil {
			w.logger.InfoContext(ctx, "worker stopping, context cancelled", "remaining", len(urls)-i)
			break
		}

		w.transition(WorkerFetching)
		html, err := w.fetch(ctx, session, url)
		if err != nil {
			w.transition(WorkerFailed)
			report.FetchFailed++
			w.logger.ErrorContext(ctx, "giving up on url for this cycle", "url", url, "error", err)
			w.transition(WorkerReady)
			continue
		}
		report.Fetched++
		w.transition(WorkerReady)

		w.process(ctx, url, html, cfg.Currency, cfg.FiltersFor(url), &report)

		if i < len(urls)-1 {
			if err := w.deps.Sleep(ctx, w.deps.Jitter.Pick()); err != nil {
				break
			}
		}
	}

	w.logger.InfoContext(ctx, "worker finished partition",
		"urls", report.URLs,
		"fetched", report.Fetched,
		"failed", report.FetchFailed,
		"new", report.New,
		"updated", report.Updated)
	return report
}

func (w *FetchWorker) openSession(ctx context.Context) (FetchSession, error) {
	var session FetchSession
	err := w.deps.Retry.Do(ctx, fmt.Sprintf("open session (worker %d)", w.id), func(ctx context.Context) error {
		s, err := w.deps.Fetcher.Open(ctx)
		if err != nil {
			return err
		}
		session = s
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSession, err)
	}
	return session, nil
}

// release closes the session. Failures are logged, never propagated.
func (w *FetchWorker) release(ctx context.Context, session FetchSession) {
	w.transition(WorkerQuitting)
	if err := session.Close(); err != nil {
		w.logger.WarnContext(ctx, "failed to close fetch session", "error", err)
	}
}

func (w *FetchWorker) fetch(ctx context.Context, session FetchSession, url string) (string, error) {
	var html string
	err := w.deps.Retry.Do(ctx, "fetch "+url, func(ctx context.Context) error {
		content, err := session.Fetch(ctx, url)
		switch {
		case err == nil:
			metrics.RecordFetch(metrics.OutcomeSuccess)
			html = content
			return nil
		case errors.Is(err, domain.ErrSoftBlocked):
			metrics.RecordFetch(metrics.OutcomeSoftBlocked)
			w.logger.WarnContext(ctx, "soft blocked while fetching", "url", url, "error", err)
		default:
			metrics.RecordFetch(metrics.OutcomeFailed)
		}
		return err
	})
	return html, err
}

func (w *FetchWorker) process(ctx context.Context, url, html, currency string, filters domain.URLFilters, report *WorkerReport) {
	candidates, err := w.deps.Extractor.Extract(html, currency)
	if err != nil {
		metrics.RecordError("extract")
		w.logger.ErrorContext(ctx, "failed to extract listings", "url", url, "error", err)
		return
	}
	report.Candidates += len(candidates)

	for _, c := range candidates {
		if !w.deps.Evaluator.Passes(filters, c.Title) {
			report.Filtered++
			metrics.ListingsFilteredTotal.Inc()
			continue
		}

		listing := c.ToListing()
		listing.LastChecked = w.deps.Now().UTC()
		isNew, err := w.deps.Repo.Upsert(ctx, listing)
		if err != nil {
			report.StorageErrors++
			metrics.RecordError("upsert")
			w.logger.ErrorContext(ctx, "failed to store listing", "ad_id", listing.AdID, "error", err)
			continue
		}
		metrics.RecordListing(isNew)
		if !isNew {
			report.Updated++
			continue
		}

		report.New++
		w.logger.InfoContext(ctx, "new listing detected", "ad_id", listing.AdID, "title", listing.Title, "price", listing.Price)
		if w.deps.Notifier != nil {
			listing.FirstSeen = listing.LastChecked
			if err := w.deps.Notifier.Notify(ctx, listing); err != nil {
				metrics.RecordError("notify")
				w.logger.WarnContext(ctx, "failed to publish new listing", "ad_id", listing.AdID, "error", err)
			}
		}
	}
}
