package service

import (
	"Crosspost/internal/api/dto"
	"Crosspost/internal/model"
	"Crosspost/internal/pkg/platform"
	"Crosspost/internal/repository"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMetricFixture() (*metricServiceImpl, *fakeSnapshotRepo, *fakeMetricEventRepo, *fakePostRepo, *fakePublicationRepo) {
	snapshotRepo := &fakeSnapshotRepo{}
	eventRepo := &fakeMetricEventRepo{}
	postRepo := newFakePostRepo()
	pubRepo := newFakePublicationRepo()
	svc := NewMetricService(snapshotRepo, eventRepo, pubRepo, postRepo).(*metricServiceImpl)
	return svc, snapshotRepo, eventRepo, postRepo, pubRepo
}

func TestRecordObservationDerivesFieldsAtWriteTime(t *testing.T) {
	svc, snapshotRepo, eventRepo, _, _ := newMetricFixture()

	publishedAt := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	observedAt := publishedAt.Add(5*time.Hour + 45*time.Minute)
	platformPostID := "tw-1"
	pub := &model.PostPublication{
		ID: 1, PostID: 7, UserID: 10,
		Platform:       string(platform.Twitter),
		Status:         model.PublicationStatusPublished,
		PlatformPostID: &platformPostID,
		PublishedAt:    &publishedAt,
	}
	metrics := &platform.PostMetrics{Impressions: 1000, Reactions: 40, Comments: 8, Shares: 2}

	require.NoError(t, svc.RecordObservation(context.Background(), pub, metrics, observedAt))

	require.Len(t, snapshotRepo.snapshots, 1)
	snap := snapshotRepo.snapshots[0]
	assert.Equal(t, "tw-1", snap.PlatformPostID)
	require.NotNil(t, snap.Impressions)
	assert.Equal(t, int64(1000), *snap.Impressions)

	require.Len(t, eventRepo.events, 1)
	event := eventRepo.events[0]
	require.NotNil(t, event.EngagementRate)
	assert.InDelta(t, 0.05, *event.EngagementRate, 1e-9)
	// 5h45m 向下取整为 5 小时
	assert.Equal(t, int64(5), event.HoursSincePublish)
}

func TestRecordObservationZeroImpressionsNilRate(t *testing.T) {
	svc, _, eventRepo, _, _ := newMetricFixture()

	publishedAt := time.Now().Add(-time.Hour)
	platformPostID := "tw-2"
	pub := &model.PostPublication{
		ID: 1, PostID: 7, UserID: 10,
		Platform:       string(platform.Twitter),
		PlatformPostID: &platformPostID,
		PublishedAt:    &publishedAt,
	}

	require.NoError(t, svc.RecordObservation(context.Background(), pub, &platform.PostMetrics{}, time.Now()))

	require.Len(t, eventRepo.events, 1)
	assert.Nil(t, eventRepo.events[0].EngagementRate, "零曝光时互动率应为空而不是 0")
}

func TestLatestSnapshotsDedupIgnoresInsertionOrder(t *testing.T) {
	svc, snapshotRepo, _, _, _ := newMetricFixture()

	older := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	newer := older.Add(6 * time.Hour)
	impOld, impNew := int64(100), int64(250)
	// 新的观测先插入，旧的后插入
	snapshotRepo.snapshots = []*model.MetricSnapshot{
		{UserID: 10, Platform: "twitter", PlatformPostID: "tw-1", Impressions: &impNew, FetchedAt: newer},
		{UserID: 10, Platform: "twitter", PlatformPostID: "tw-1", Impressions: &impOld, FetchedAt: older},
	}

	out, err := svc.LatestSnapshots(context.Background(), 10, []string{"tw-1"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].Impressions)
	assert.Equal(t, int64(250), *out[0].Impressions)
}

func TestDashboardMetricsEmptyWindowIsZeroValued(t *testing.T) {
	svc, _, _, _, _ := newMetricFixture()

	out, err := svc.DashboardMetrics(context.Background(), 10, 7, nil)
	require.NoError(t, err)

	assert.Equal(t, "7d", out.Window)
	assert.Zero(t, out.TotalImpressions)
	assert.Zero(t, out.PostCount)
	assert.Nil(t, out.AvgEngagementRate)
}

func TestDashboardMetricsAggregatesLatestEvents(t *testing.T) {
	svc, _, eventRepo, _, _ := newMetricFixture()

	rate1, rate2 := 0.05, 0.15
	eventRepo.window = []*repository.LatestPublicationEvent{
		{PostPublicationID: 1, PostID: 1, Platform: "twitter", Impressions: 1000, Likes: 40, Replies: 8, Reposts: 2, EngagementRate: &rate1, ObservedAt: time.Now()},
		{PostPublicationID: 2, PostID: 1, Platform: "linkedin", Impressions: 500, Likes: 60, Replies: 10, Reposts: 5, EngagementRate: &rate2, ObservedAt: time.Now()},
		{PostPublicationID: 3, PostID: 2, Platform: "twitter", Impressions: 200, Likes: 1, Replies: 0, Reposts: 0, ObservedAt: time.Now()},
	}

	out, err := svc.DashboardMetrics(context.Background(), 10, 30, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(1700), out.TotalImpressions)
	assert.Equal(t, int64(101), out.TotalLikes)
	assert.Equal(t, 2, out.PostCount, "同帖多平台只计一次")
	require.NotNil(t, out.AvgEngagementRate)
	// 无互动率的观测不参与平均
	assert.InDelta(t, 0.10, *out.AvgEngagementRate, 1e-9)
}

func TestDashboardMetricsPlatformFilter(t *testing.T) {
	svc, _, eventRepo, _, _ := newMetricFixture()

	eventRepo.window = []*repository.LatestPublicationEvent{
		{PostPublicationID: 1, PostID: 1, Platform: "twitter", Impressions: 1000, ObservedAt: time.Now()},
		{PostPublicationID: 2, PostID: 1, Platform: "linkedin", Impressions: 500, ObservedAt: time.Now()},
	}

	twitter := "twitter"
	out, err := svc.DashboardMetrics(context.Background(), 10, 7, &twitter)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), out.TotalImpressions)

	bad := "myspace"
	_, err = svc.DashboardMetrics(context.Background(), 10, 7, &bad)
	assert.ErrorIs(t, err, ErrPlatformInvalid)
}

func TestDashboardMetricsRejectsUnknownWindow(t *testing.T) {
	svc, _, _, _, _ := newMetricFixture()

	_, err := svc.DashboardMetrics(context.Background(), 10, 13, nil)
	assert.ErrorIs(t, err, ErrParamInvalid)
}

func TestTimeSeriesBucketsByObservationDate(t *testing.T) {
	svc, _, eventRepo, _, _ := newMetricFixture()

	// 帖子五天前发布，但最新观测发生在今天：计数要落在观测日那个点上
	now := time.Now().UTC()
	publishedAt := now.AddDate(0, 0, -5)
	eventRepo.window = []*repository.LatestPublicationEvent{
		{PostPublicationID: 1, PostID: 1, Platform: "twitter", Impressions: 300, Likes: 12, PostPublishedAt: &publishedAt, ObservedAt: now},
	}

	out, err := svc.TimeSeries(context.Background(), 10, 7, nil)
	require.NoError(t, err)

	require.NotEmpty(t, out.Points)
	assert.GreaterOrEqual(t, len(out.Points), 7)

	byDate := make(map[string]*dto.TimeSeriesPointDTO, len(out.Points))
	var nonZero int
	for _, point := range out.Points {
		byDate[point.Date] = point
		if point.Impressions > 0 {
			nonZero++
		}
	}

	today := byDate[now.Format(time.DateOnly)]
	require.NotNil(t, today)
	assert.Equal(t, int64(300), today.Impressions)
	assert.Equal(t, int64(12), today.Likes)

	publishDay := byDate[publishedAt.Format(time.DateOnly)]
	require.NotNil(t, publishDay)
	assert.Zero(t, publishDay.Impressions)
	assert.Equal(t, 1, nonZero)
}

func TestTopPostsTruncatesToLimit(t *testing.T) {
	svc, _, eventRepo, _, _ := newMetricFixture()

	for i := 0; i < 5; i++ {
		eventRepo.window = append(eventRepo.window, &repository.LatestPublicationEvent{
			PostPublicationID: uint64(i + 1),
			PostID:            uint64(i + 1),
			Platform:          "twitter",
			Title:             "post",
			ObservedAt:        time.Now(),
		})
	}

	out, err := svc.TopPosts(context.Background(), 10, 7, 3, nil)
	require.NoError(t, err)
	assert.Len(t, out, 3)
}

func TestSeriesForPublicationChecksOwnership(t *testing.T) {
	svc, _, _, _, pubRepo := newMetricFixture()
	pubRepo.pubs[1] = &model.PostPublication{ID: 1, PostID: 1, UserID: 99, Platform: "twitter"}

	_, err := svc.SeriesForPublication(context.Background(), 10, 1, 0)
	assert.ErrorIs(t, err, UnauthorizedError)

	_, err = svc.SeriesForPublication(context.Background(), 10, 404, 0)
	assert.ErrorIs(t, err, ErrPublicationNotFound)
}

func TestLatestSnapshotReturnsMaxFetchedAt(t *testing.T) {
	svc, snapshotRepo, _, _, _ := newMetricFixture()

	older := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	newer := older.Add(3 * time.Hour)
	impOld, impNew := int64(100), int64(180)
	snapshotRepo.snapshots = []*model.MetricSnapshot{
		{UserID: 10, Platform: string(platform.Twitter), PlatformPostID: "tw-1", Impressions: &impNew, FetchedAt: newer},
		{UserID: 10, Platform: string(platform.Twitter), PlatformPostID: "tw-1", Impressions: &impOld, FetchedAt: older},
	}

	snap, err := svc.LatestSnapshot(context.Background(), 10, "tw-1", string(platform.Twitter))
	require.NoError(t, err)
	require.NotNil(t, snap.Impressions)
	assert.Equal(t, int64(180), *snap.Impressions)
}

func TestLatestSnapshotNotFound(t *testing.T) {
	svc, _, _, _, _ := newMetricFixture()

	_, err := svc.LatestSnapshot(context.Background(), 10, "tw-missing", string(platform.Twitter))
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	_, err = svc.LatestSnapshot(context.Background(), 10, "tw-1", "myspace")
	assert.ErrorIs(t, err, ErrPlatformInvalid)
}

func TestSnapshotSeriesAscendingWithSince(t *testing.T) {
	svc, snapshotRepo, _, _, _ := newMetricFixture()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		imp := int64(100 * (i + 1))
		snapshotRepo.snapshots = append(snapshotRepo.snapshots, &model.MetricSnapshot{
			UserID: 10, Platform: string(platform.Twitter), PlatformPostID: "tw-1",
			Impressions: &imp, FetchedAt: base.Add(time.Duration(i) * 24 * time.Hour),
		})
	}

	points, err := svc.SnapshotSeries(context.Background(), 10, "tw-1", string(platform.Twitter), 0, base.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, int64(200), *points[0].Impressions)
	assert.Equal(t, int64(400), *points[2].Impressions)

	limited, err := svc.SnapshotSeries(context.Background(), 10, "tw-1", string(platform.Twitter), 2, time.Time{})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
