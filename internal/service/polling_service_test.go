package service

import (
	"Crosspost/internal/api/config"
	"Crosspost/internal/model"
	"Crosspost/internal/pkg/consts"
	"Crosspost/internal/pkg/platform"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func publishedPublication(id uint64, p platform.Platform, publishedAt time.Time) *model.PostPublication {
	platformPostID := "ext-" + string(p)
	return &model.PostPublication{
		ID:             id,
		PostID:         id,
		UserID:         10,
		Platform:       string(p),
		Status:         model.PublicationStatusPublished,
		PlatformPostID: &platformPostID,
		PublishedAt:    &publishedAt,
	}
}

func newPollingFixture(pubs ...*model.PostPublication) (*pollingServiceImpl, *fakePublicationRepo, *fakeMetricEventRepo, *fakeFetchLogRepo) {
	pubRepo := newFakePublicationRepo(pubs...)
	eventRepo := &fakeMetricEventRepo{}
	fetchLogRepo := &fakeFetchLogRepo{}
	snapshotRepo := &fakeSnapshotRepo{}
	metricSvc := NewMetricService(snapshotRepo, eventRepo, pubRepo, newFakePostRepo())

	registry := platform.Registry{}
	for _, p := range platform.All() {
		p := p
		registry[p] = &fakeAdapter{
			name: p,
			metricsFn: func(string) (*platform.PostMetrics, error) {
				return &platform.PostMetrics{Impressions: 100, Reactions: 5, Comments: 2, Shares: 1}, nil
			},
		}
	}

	svc := NewPollingService(
		pubRepo, eventRepo, fetchLogRepo,
		&fakeConnService{conn: activeConnection(), token: "tok"},
		metricSvc, registry,
		config.PollingConfig{Workers: 2, DailyAPIBudget: 100},
	).(*pollingServiceImpl)
	return svc, pubRepo, eventRepo, fetchLogRepo
}

func TestCollectDueNeverObservedIsDue(t *testing.T) {
	now := time.Now()
	svc, _, _, _ := newPollingFixture(
		publishedPublication(1, platform.Twitter, now.Add(-time.Hour)),
	)

	tasks, err := svc.CollectDue(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, uint64(1), tasks[0].Publication.ID)
}

func TestCollectDueRespectsDecayInterval(t *testing.T) {
	now := time.Now()
	svc, _, eventRepo, _ := newPollingFixture(
		publishedPublication(1, platform.Twitter, now.Add(-time.Hour)),
	)

	// 1 小时帖龄对应 15 分钟间隔：10 分钟前观测过则未到期
	eventRepo.events = append(eventRepo.events, &model.MetricEvent{
		PostPublicationID: 1,
		ObservedAt:        now.Add(-10 * time.Minute),
	})
	tasks, err := svc.CollectDue(context.Background(), now)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	// 20 分钟前观测过则到期
	eventRepo.events[0].ObservedAt = now.Add(-20 * time.Minute)
	tasks, err = svc.CollectDue(context.Background(), now)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestCollectDueStopsPastPlatformWindow(t *testing.T) {
	now := time.Now()
	svc, _, _, _ := newPollingFixture(
		// LinkedIn 超过 90 天后停止采集
		publishedPublication(1, platform.LinkedIn, now.Add(-100*24*time.Hour)),
		// Twitter 同帖龄仍按每周兜底
		publishedPublication(2, platform.Twitter, now.Add(-100*24*time.Hour)),
	)

	tasks, err := svc.CollectDue(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, platform.Twitter, tasks[0].Platform)
}

func TestPollDueStoresSnapshotEventAndLog(t *testing.T) {
	now := time.Now()
	svc, _, eventRepo, fetchLogRepo := newPollingFixture(
		publishedPublication(1, platform.Twitter, now.Add(-time.Hour)),
	)

	require.NoError(t, svc.PollDue(context.Background()))

	require.Len(t, eventRepo.events, 1)
	event := eventRepo.events[0]
	assert.Equal(t, int64(100), event.Impressions)
	assert.Equal(t, int64(5), event.Likes)
	require.NotNil(t, event.EngagementRate)
	assert.InDelta(t, 0.08, *event.EngagementRate, 1e-9)

	require.Len(t, fetchLogRepo.logs, 1)
	assert.Equal(t, "success", fetchLogRepo.logs[0].Status)
}

func TestPollDueIdempotentAfterFreshObservation(t *testing.T) {
	now := time.Now()
	svc, _, eventRepo, _ := newPollingFixture(
		publishedPublication(1, platform.Twitter, now.Add(-time.Hour)),
	)

	require.NoError(t, svc.PollDue(context.Background()))
	require.Len(t, eventRepo.events, 1)

	// 刚刚观测过，立刻重跑不应产生新事件
	require.NoError(t, svc.PollDue(context.Background()))
	assert.Len(t, eventRepo.events, 1)
}

func TestPollDueSkipsWhenBudgetExhausted(t *testing.T) {
	now := time.Now()
	svc, _, eventRepo, fetchLogRepo := newPollingFixture(
		publishedPublication(1, platform.Twitter, now.Add(-time.Hour)),
	)
	svc.cfg.DailyAPIBudget = 3
	for i := 0; i < 3; i++ {
		fetchLogRepo.logs = append(fetchLogRepo.logs, &model.FetchLog{
			UserID: 10, Platform: string(platform.Twitter), APICallsUsed: 1, FetchedAt: now,
		})
	}

	require.NoError(t, svc.PollDue(context.Background()))

	assert.Empty(t, eventRepo.events)
	assert.Len(t, fetchLogRepo.logs, 3, "配额耗尽时不应再产生抓取")

	tasks, err := svc.CollectDue(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.ErrorIs(t, svc.pollOne(context.Background(), tasks[0], now), ErrAPIBudgetExceeded)
}

func TestPollOneNoAdapterCallCostsNoBudget(t *testing.T) {
	now := time.Now()
	svc, _, eventRepo, fetchLogRepo := newPollingFixture(
		publishedPublication(1, platform.Twitter, now.Add(-time.Hour)),
	)
	// 没有活跃连接：凭证环节就失败，未触达平台接口
	svc.connSvc = &fakeConnService{}

	tasks, err := svc.CollectDue(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	require.NoError(t, svc.pollOne(context.Background(), tasks[0], now))

	assert.Empty(t, eventRepo.events)
	require.Len(t, fetchLogRepo.logs, 1)
	fetchLog := fetchLogRepo.logs[0]
	assert.Equal(t, consts.FetchStatusFailed, fetchLog.Status)
	assert.Zero(t, fetchLog.APICallsUsed, "未调用平台接口的失败不应计入配额")
	require.NotNil(t, fetchLog.ErrorMessage)
	assert.Equal(t, ErrConnectionNotFound.Error(), *fetchLog.ErrorMessage)
}
