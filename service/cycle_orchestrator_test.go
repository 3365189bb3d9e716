package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"ad-monitor/config"
	"ad-monitor/domain"
	"ad-monitor/service"
	"ad-monitor/test/mocks"
)

type countingCache struct {
	calls atomic.Int32
}

func (c *countingCache) Invalidate() { c.calls.Add(1) }

func TestPartition(t *testing.T) {
	tests := map[string]struct {
		urls     []string
		poolSize int
		want     [][]string
	}{
		"round robin over pool": {
			urls:     []string{"u0", "u1", "u2", "u3", "u4"},
			poolSize: 3,
			want:     [][]string{{"u0", "u3"}, {"u1", "u4"}, {"u2"}},
		},
		"fewer urls than pool": {
			urls:     []string{"u0", "u1"},
			poolSize: 3,
			want:     [][]string{{"u0"}, {"u1"}},
		},
		"single worker": {
			urls:     []string{"u0", "u1"},
			poolSize: 1,
			want:     [][]string{{"u0", "u1"}},
		},
		"no urls": {
			poolSize: 3,
			want:     nil,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, service.Partition(tc.urls, tc.poolSize))
		})
	}
}

func TestPartition_DisjointAndComplete(t *testing.T) {
	urls := []string{"a", "b", "c", "d", "e", "f", "g"}
	seen := map[string]int{}
	for _, part := range service.Partition(urls, 3) {
		for _, u := range part {
			seen[u]++
		}
	}
	assert.Len(t, seen, len(urls))
	for u, n := range seen {
		assert.Equal(t, 1, n, u)
	}
}

func TestCycleOrchestrator_RunCycle(t *testing.T) {
	t.Run("empty url set is a no-op", func(t *testing.T) {
		f := newWorkerFixture(t)
		cfg := config.Default()
		f.deps.Config = config.NewManager("", cfg, testLogger())
		cache := &countingCache{}

		o := service.NewCycleOrchestrator(f.deps, 3, cache, testLogger())
		report, err := o.RunCycle(context.Background())
		require.NoError(t, err)
		assert.True(t, report.Skipped)
		assert.Empty(t, report.Workers)
		assert.Equal(t, int32(0), cache.calls.Load())
	})

	t.Run("runs a worker per partition and prunes once", func(t *testing.T) {
		f := newWorkerFixture(t)
		ctrl := gomock.NewController(t)
		cache := &countingCache{}

		f.fetcher.EXPECT().Open(gomock.Any()).DoAndReturn(func(context.Context) (service.FetchSession, error) {
			s := mocks.NewMockFetchSession(ctrl)
			s.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return("<html/>", nil).AnyTimes()
			s.EXPECT().Close().Return(nil)
			return s, nil
		}).Times(2)
		f.extractor.EXPECT().Extract("<html/>", "$").Return([]domain.Candidate{candidate("r1", "Road bike")}, nil).Times(2)
		f.repo.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(false, nil).Times(2)
		f.repo.EXPECT().Prune(gomock.Any(), 14*24*time.Hour).Return(int64(4), nil).Times(1)

		o := service.NewCycleOrchestrator(f.deps, 3, cache, testLogger())
		report, err := o.RunCycle(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, report.URLs)
		assert.Len(t, report.Workers, 2)
		assert.Equal(t, int64(4), report.Pruned)
		assert.Equal(t, int32(1), cache.calls.Load())
		assert.NotEmpty(t, report.CycleID)
	})

	t.Run("failed workers still reach prune", func(t *testing.T) {
		f := newWorkerFixture(t)

		f.fetcher.EXPECT().Open(gomock.Any()).Return(nil, errors.New("no browser")).MinTimes(2)
		f.repo.EXPECT().Prune(gomock.Any(), gomock.Any()).Return(int64(0), nil).Times(1)

		o := service.NewCycleOrchestrator(f.deps, 3, nil, testLogger())
		report, err := o.RunCycle(context.Background())
		require.NoError(t, err)
		require.Len(t, report.Workers, 2)
		for _, w := range report.Workers {
			assert.True(t, w.InitFailed)
		}
		assert.Equal(t, 0, report.New())
	})

	t.Run("prune failure is logged not returned", func(t *testing.T) {
		f := newWorkerFixture(t)
		f.deps.Config = config.NewManager("", func() *config.Config {
			cfg := testConfig()
			cfg.RetentionDays = 3
			delete(cfg.URLFilters, urlBikes)
			return cfg
		}(), testLogger())

		f.fetcher.EXPECT().Open(gomock.Any()).Return(f.session, nil)
		f.session.EXPECT().Fetch(gomock.Any(), urlPhones).Return("<html/>", nil)
		f.session.EXPECT().Close().Return(nil)
		f.extractor.EXPECT().Extract(gomock.Any(), gomock.Any()).Return(nil, nil)
		f.repo.EXPECT().Prune(gomock.Any(), 3*24*time.Hour).Return(int64(0), domain.ErrStorage)

		o := service.NewCycleOrchestrator(f.deps, 3, nil, testLogger())
		_, err := o.RunCycle(context.Background())
		assert.NoError(t, err)
	})

	t.Run("cancelled cycle skips prune", func(t *testing.T) {
		f := newWorkerFixture(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		f.fetcher.EXPECT().Open(gomock.Any()).Return(nil, context.Canceled).AnyTimes()

		o := service.NewCycleOrchestrator(f.deps, 3, nil, testLogger())
		_, err := o.RunCycle(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCycleOrchestrator_RunCycle_RereadsURLs(t *testing.T) {
	f := newWorkerFixture(t)
	first := testConfig()
	delete(first.URLFilters, urlPhones)
	manager := config.NewManager(filepath.Join(t.TempDir(), "config.json"), first, testLogger())
	f.deps.Config = manager

	gomock.InOrder(
		f.session.EXPECT().Fetch(gomock.Any(), urlBikes).Return("<html/>", nil),
		f.session.EXPECT().Fetch(gomock.Any(), urlPhones).Return("<html/>", nil),
	)
	f.fetcher.EXPECT().Open(gomock.Any()).Return(f.session, nil).Times(2)
	f.session.EXPECT().Close().Return(nil).Times(2)
	f.extractor.EXPECT().Extract(gomock.Any(), gomock.Any()).Return(nil, nil).Times(2)
	f.repo.EXPECT().Prune(gomock.Any(), gomock.Any()).Return(int64(0), nil).Times(2)

	o := service.NewCycleOrchestrator(f.deps, 3, nil, testLogger())
	report, err := o.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.URLs)

	second := testConfig()
	delete(second.URLFilters, urlBikes)
	require.NoError(t, manager.Update(second))

	report, err = o.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.URLs)
	require.Len(t, report.Workers, 1)
	assert.Equal(t, 1, report.Workers[0].Fetched)
}

func TestCycleOrchestrator_RefreshInterval(t *testing.T) {
	f := newWorkerFixture(t)
	manager := config.NewManager("", testConfig(), testLogger())
	f.deps.Config = manager

	o := service.NewCycleOrchestrator(f.deps, 3, nil, testLogger())
	assert.Equal(t, 15*time.Minute, o.RefreshInterval())
}
