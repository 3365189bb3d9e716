package service_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"ad-monitor/config"
	"ad-monitor/domain"
	"ad-monitor/retry"
	"ad-monitor/service"
	"ad-monitor/test/mocks"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	return nil
}

type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return ctx.Err()
}

const (
	urlBikes  = "https://www.facebook.com/marketplace/toronto/search?query=bike"
	urlPhones = "https://www.facebook.com/marketplace/toronto/search?query=iphone"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.URLFilters = domain.FilterConfig{
		urlBikes:  {"level1": {"road", "gravel"}},
		urlPhones: {},
	}
	return cfg
}

type workerFixture struct {
	fetcher   *mocks.MockPageFetcher
	session   *mocks.MockFetchSession
	extractor *mocks.MockContentExtractor
	repo      *mocks.MockListingRepository
	notifier  *mocks.MockListingNotifier
	sleeper   *recordingSleeper
	deps      service.WorkerDeps
}

func newWorkerFixture(t *testing.T) *workerFixture {
	ctrl := gomock.NewController(t)
	clock := newFakeClock()
	f := &workerFixture{
		fetcher:   mocks.NewMockPageFetcher(ctrl),
		session:   mocks.NewMockFetchSession(ctrl),
		extractor: mocks.NewMockContentExtractor(ctrl),
		repo:      mocks.NewMockListingRepository(ctrl),
		notifier:  mocks.NewMockListingNotifier(ctrl),
		sleeper:   &recordingSleeper{},
	}
	f.deps = service.WorkerDeps{
		Fetcher:   f.fetcher,
		Extractor: f.extractor,
		Repo:      f.repo,
		Config:    config.NewManager("", testConfig(), testLogger()),
		Notifier:  f.notifier,
		Retry: retry.NewPolicy(retry.DefaultBackoffConfig(), testLogger(),
			retry.WithClock(clock), retry.WithSleeper(clock.Sleep)),
		Jitter: service.JitterRange{Min: 2 * time.Second, Max: 10 * time.Second},
		Sleep:  f.sleeper.Sleep,
		Now:    clock.Now,
		Logger: testLogger(),
	}
	return f
}

func candidate(id, title string) domain.Candidate {
	return domain.Candidate{
		IdentityHint: id,
		Title:        title,
		Price:        "$100",
		URL:          "https://facebook.com/marketplace/item/" + id + "/",
	}
}

func TestFetchWorker_Run(t *testing.T) {
	t.Run("stores filtered survivors and notifies new listings", func(t *testing.T) {
		f := newWorkerFixture(t)
		ctx := context.Background()

		f.fetcher.EXPECT().Open(gomock.Any()).Return(f.session, nil)
		f.session.EXPECT().Fetch(gomock.Any(), urlBikes).Return("<html>bikes</html>", nil)
		f.session.EXPECT().Fetch(gomock.Any(), urlPhones).Return("<html>phones</html>", nil)
		f.session.EXPECT().Close().Return(nil)

		f.extractor.EXPECT().Extract("<html>bikes</html>", "$").Return([]domain.Candidate{
			candidate("1", "Road bike"),
			candidate("2", "Mountain bike"),
		}, nil)
		f.extractor.EXPECT().Extract("<html>phones</html>", "$").Return([]domain.Candidate{
			candidate("3", "iPhone 13"),
		}, nil)

		var stored, notified domain.Listing
		f.repo.EXPECT().Upsert(gomock.Any(), gomock.Cond(func(l domain.Listing) bool { return l.AdID == "1" })).
			DoAndReturn(func(_ context.Context, l domain.Listing) (bool, error) {
				stored = l
				return true, nil
			})
		f.repo.EXPECT().Upsert(gomock.Any(), gomock.Cond(func(l domain.Listing) bool { return l.AdID == "3" })).Return(false, nil)
		f.notifier.EXPECT().Notify(gomock.Any(), gomock.Cond(func(l domain.Listing) bool { return l.AdID == "1" })).
			DoAndReturn(func(_ context.Context, l domain.Listing) error {
				notified = l
				return nil
			})

		w := service.NewFetchWorker(0, f.deps)
		report := w.Run(ctx, []string{urlBikes, urlPhones})

		assert.Equal(t, 2, report.Fetched)
		assert.Equal(t, 3, report.Candidates)
		assert.Equal(t, 1, report.Filtered)
		assert.Equal(t, 1, report.New)
		assert.Equal(t, 1, report.Updated)
		assert.Equal(t, service.WorkerDone, w.State())

		require.False(t, stored.LastChecked.IsZero(), "check time is passed to the store")
		assert.Equal(t, stored.LastChecked, notified.FirstSeen)
		assert.Equal(t, stored.LastChecked, notified.LastChecked)

		require.Len(t, f.sleeper.delays, 1, "jitter sleep happens between fetches only")
		assert.GreaterOrEqual(t, f.sleeper.delays[0], 2*time.Second)
		assert.LessOrEqual(t, f.sleeper.delays[0], 10*time.Second)
	})

	t.Run("soft block is retried instead of recording nothing", func(t *testing.T) {
		f := newWorkerFixture(t)

		f.fetcher.EXPECT().Open(gomock.Any()).Return(f.session, nil)
		gomock.InOrder(
			f.session.EXPECT().Fetch(gomock.Any(), urlPhones).Return("", domain.ErrSoftBlocked),
			f.session.EXPECT().Fetch(gomock.Any(), urlPhones).Return("<html/>", nil),
		)
		f.session.EXPECT().Close().Return(nil)
		f.extractor.EXPECT().Extract("<html/>", "$").Return([]domain.Candidate{candidate("9", "iPhone")}, nil)
		f.repo.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(false, nil)

		report := service.NewFetchWorker(1, f.deps).Run(context.Background(), []string{urlPhones})
		assert.Equal(t, 1, report.Fetched)
		assert.Equal(t, 0, report.FetchFailed)
		assert.Equal(t, 1, report.Updated)
	})

	t.Run("exhausted url is skipped and the next one processed", func(t *testing.T) {
		f := newWorkerFixture(t)

		f.fetcher.EXPECT().Open(gomock.Any()).Return(f.session, nil)
		f.session.EXPECT().Fetch(gomock.Any(), urlBikes).Return("", domain.ErrTransientFetch).MinTimes(2)
		f.session.EXPECT().Fetch(gomock.Any(), urlPhones).Return("<html/>", nil)
		f.session.EXPECT().Close().Return(nil)
		f.extractor.EXPECT().Extract("<html/>", "$").Return(nil, nil)

		report := service.NewFetchWorker(2, f.deps).Run(context.Background(), []string{urlBikes, urlPhones})
		assert.Equal(t, 1, report.FetchFailed)
		assert.Equal(t, 1, report.Fetched)
		assert.Empty(t, f.sleeper.delays, "no jitter after a failed fetch or the last url")
	})

	t.Run("session init failure skips the partition", func(t *testing.T) {
		f := newWorkerFixture(t)

		f.fetcher.EXPECT().Open(gomock.Any()).Return(nil, errors.New("browser unreachable")).MinTimes(2)

		w := service.NewFetchWorker(3, f.deps)
		report := w.Run(context.Background(), []string{urlBikes, urlPhones})
		assert.True(t, report.InitFailed)
		assert.Equal(t, 0, report.Fetched)
		assert.Equal(t, service.WorkerDone, w.State())
	})

	t.Run("storage and notifier errors do not stop the worker", func(t *testing.T) {
		f := newWorkerFixture(t)

		f.fetcher.EXPECT().Open(gomock.Any()).Return(f.session, nil)
		f.session.EXPECT().Fetch(gomock.Any(), urlPhones).Return("<html/>", nil)
		f.session.EXPECT().Close().Return(errors.New("already gone"))
		f.extractor.EXPECT().Extract("<html/>", "$").Return([]domain.Candidate{
			candidate("a", "iPhone 12"),
			candidate("b", "iPhone 14"),
		}, nil)
		f.repo.EXPECT().Upsert(gomock.Any(), gomock.Cond(func(l domain.Listing) bool { return l.AdID == "a" })).
			Return(false, domain.ErrStorage)
		f.repo.EXPECT().Upsert(gomock.Any(), gomock.Cond(func(l domain.Listing) bool { return l.AdID == "b" })).
			Return(true, nil)
		f.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

		report := service.NewFetchWorker(4, f.deps).Run(context.Background(), []string{urlPhones})
		assert.Equal(t, 1, report.StorageErrors)
		assert.Equal(t, 1, report.New)
	})
}

func TestFetchWorker_Transitions(t *testing.T) {
	f := newWorkerFixture(t)

	f.fetcher.EXPECT().Open(gomock.Any()).Return(f.session, nil)
	f.session.EXPECT().Fetch(gomock.Any(), urlPhones).Return("", errors.New("timeout"))
	f.session.EXPECT().Fetch(gomock.Any(), urlPhones).Return("<html/>", nil)
	f.session.EXPECT().Close().Return(nil)
	f.extractor.EXPECT().Extract(gomock.Any(), gomock.Any()).Return(nil, nil)

	var seen []service.WorkerState
	w := service.NewFetchWorker(0, f.deps)
	w.Observe(func(_ int, _, to service.WorkerState) { seen = append(seen, to) })
	w.Run(context.Background(), []string{urlPhones})

	assert.Equal(t, []service.WorkerState{
		service.WorkerInitializing,
		service.WorkerReady,
		service.WorkerFetching,
		service.WorkerReady,
		service.WorkerQuitting,
		service.WorkerDone,
	}, seen)
}

func TestFetchWorker_Cancelled(t *testing.T) {
	f := newWorkerFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	f.fetcher.EXPECT().Open(gomock.Any()).Return(f.session, nil)
	f.session.EXPECT().Fetch(gomock.Any(), urlBikes).DoAndReturn(func(context.Context, string) (string, error) {
		cancel()
		return "<html/>", nil
	})
	f.session.EXPECT().Close().Return(nil)
	f.extractor.EXPECT().Extract(gomock.Any(), gomock.Any()).Return(nil, nil)

	report := service.NewFetchWorker(0, f.deps).Run(ctx, []string{urlBikes, urlPhones})
	assert.Equal(t, 1, report.Fetched)
}

func TestJitterRange_Pick(t *testing.T) {
	tests := map[string]struct {
		jitter service.JitterRange
		min    time.Duration
		max    time.Duration
	}{
		"default range": {
			jitter: service.JitterRange{Min: 2 * time.Second, Max: 10 * time.Second},
			min:    2 * time.Second,
			max:    10 * time.Second,
		},
		"fixed delay": {
			jitter: service.JitterRange{Min: time.Second, Max: time.Second},
			min:    time.Second,
			max:    time.Second,
		},
		"zero": {},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 100; i++ {
				d := tc.jitter.Pick()
				assert.GreaterOrEqual(t, d, tc.min)
				assert.LessOrEqual(t, d, tc.max)
			}
		})
	}
}

func TestWorkerState_String(t *testing.T) {
	assert.Equal(t, "fetching", service.WorkerFetching.String())
	assert.Equal(t, "done", service.WorkerDone.String())
}
