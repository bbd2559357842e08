package service

import (
	"Crosspost/internal/api/dto"
	"Crosspost/internal/model"
	"Crosspost/internal/pkg/consts"
	"Crosspost/internal/pkg/platform"
	"Crosspost/internal/pkg/redis"
	"Crosspost/internal/pkg/util"
	"Crosspost/internal/repository"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

const metricCacheTTL = 10 * time.Minute

type MetricService interface {
	// RecordObservation 落一次抓取结果：原始快照只追加，派生事件写入时计算
	RecordObservation(ctx context.Context, pub *model.PostPublication, metrics *platform.PostMetrics, observedAt time.Time) error
	// LatestForPost 帖子各平台发布记录的最新观测
	LatestForPost(ctx context.Context, userID uint64, postID uint64) ([]*dto.PublicationMetricDTO, error)
	// SeriesForPublication 单条发布记录的观测历史，按时间降序
	SeriesForPublication(ctx context.Context, userID uint64, publicationID uint64, limit int) ([]*dto.MetricPointDTO, error)
	// LatestSnapshot 单个平台帖子的最新原始快照
	LatestSnapshot(ctx context.Context, userID uint64, platformPostID string, platformName string) (*dto.SnapshotDTO, error)
	// SnapshotSeries 单个平台帖子的原始快照时间序列，按抓取时间升序
	SnapshotSeries(ctx context.Context, userID uint64, platformPostID string, platformName string, limit int, since time.Time) ([]*dto.SnapshotDTO, error)
	// LatestSnapshots 批量取多个平台帖子的最新快照，单次查询后在内存去重
	LatestSnapshots(ctx context.Context, userID uint64, platformPostIDs []string) ([]*dto.SnapshotDTO, error)
	// DashboardMetrics 窗口内指标总览，没有数据时返回全零而非错误。
	// days 只接受 0（默认 7）、7、30：缓存按窗口×平台枚举失效，任意窗口会让失效集不可枚举
	DashboardMetrics(ctx context.Context, userID uint64, days int, platformName *string) (*dto.DashboardDTO, error)
	// TimeSeries 按观测日（UTC）聚合的每日总量，窗口内每天都有点位。
	// days 的取值约束同 DashboardMetrics
	TimeSeries(ctx context.Context, userID uint64, days int, platformName *string) (*dto.TimeSeriesDTO, error)
	// TopPosts 窗口内表现条目，按观测新鲜度排序
	TopPosts(ctx context.Context, userID uint64, days int, limit int, platformName *string) ([]*dto.TopPostDTO, error)
}

type metricServiceImpl struct {
	snapshotRepo repository.MetricSnapshotRepo
	eventRepo    repository.MetricEventRepo
	pubRepo      repository.PublicationRepo
	postRepo     repository.PostRepo
}

func NewMetricService(
	snapshotRepo repository.MetricSnapshotRepo,
	eventRepo repository.MetricEventRepo,
	pubRepo repository.PublicationRepo,
	postRepo repository.PostRepo,
) MetricService {
	return &metricServiceImpl{
		snapshotRepo: snapshotRepo,
		eventRepo:    eventRepo,
		pubRepo:      pubRepo,
		postRepo:     postRepo,
	}
}

func (s *metricServiceImpl) RecordObservation(ctx context.Context, pub *model.PostPublication, metrics *platform.PostMetrics, observedAt time.Time) error {
	if pub.PlatformPostID == nil || pub.PublishedAt == nil {
		return ErrPublicationNotFound
	}

	postID := pub.PostID
	snapshot := &model.MetricSnapshot{
		UserID:             pub.UserID,
		Platform:           pub.Platform,
		PlatformPostID:     *pub.PlatformPostID,
		PostID:             &postID,
		Impressions:        &metrics.Impressions,
		UniqueReach:        metrics.UniqueReach,
		Reactions:          &metrics.Reactions,
		Comments:           &metrics.Comments,
		Shares:             &metrics.Shares,
		Quotes:             metrics.Quotes,
		Bookmarks:          metrics.Bookmarks,
		VideoPlays:         metrics.VideoPlays,
		VideoWatchTimeMs:   metrics.VideoWatchTimeMs,
		VideoUniqueViewers: metrics.VideoUniqueViewers,
		FetchedAt:          observedAt,
	}
	if err := s.snapshotRepo.InsertSnapshot(ctx, snapshot); err != nil {
		return err
	}

	event := &model.MetricEvent{
		PostPublicationID: pub.ID,
		Impressions:       metrics.Impressions,
		Likes:             metrics.Reactions,
		Replies:           metrics.Comments,
		Reposts:           metrics.Shares,
		EngagementRate:    model.ComputeEngagementRate(metrics.Reactions, metrics.Comments, metrics.Shares, metrics.Impressions),
		HoursSincePublish: model.ComputeHoursSincePublish(*pub.PublishedAt, observedAt),
		ObservedAt:        observedAt,
	}
	if err := s.eventRepo.InsertEvent(ctx, event); err != nil {
		return err
	}

	s.invalidateCaches(ctx, pub.UserID, pub.Platform)
	return nil
}

func (s *metricServiceImpl) LatestForPost(ctx context.Context, userID uint64, postID uint64) ([]*dto.PublicationMetricDTO, error) {
	post, err := s.postRepo.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	if post.UserID != userID {
		return nil, UnauthorizedError
	}

	out := make([]*dto.PublicationMetricDTO, 0, len(post.Publications))
	for i := range post.Publications {
		pub := &post.Publications[i]
		if pub.Status != model.PublicationStatusPublished {
			continue
		}
		events, err := s.eventRepo.ListEventsForPublication(ctx, pub.ID, 1)
		if err != nil {
			return nil, err
		}
		if len(events) == 0 {
			continue
		}
		e := events[0]
		out = append(out, &dto.PublicationMetricDTO{
			PublicationID:     pub.ID,
			Platform:          pub.Platform,
			Impressions:       e.Impressions,
			Likes:             e.Likes,
			Replies:           e.Replies,
			Reposts:           e.Reposts,
			EngagementRate:    e.EngagementRate,
			HoursSincePublish: e.HoursSincePublish,
			ObservedAt:        e.ObservedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return out, nil
}

func (s *metricServiceImpl) SeriesForPublication(ctx context.Context, userID uint64, publicationID uint64, limit int) ([]*dto.MetricPointDTO, error) {
	pub, err := s.pubRepo.GetByID(ctx, publicationID)
	if err != nil {
		return nil, err
	}
	if pub == nil {
		return nil, ErrPublicationNotFound
	}
	if pub.UserID != userID {
		return nil, UnauthorizedError
	}

	events, err := s.eventRepo.ListEventsForPublication(ctx, publicationID, limit)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.MetricPointDTO, 0, len(events))
	for _, e := range events {
		out = append(out, &dto.MetricPointDTO{
			Impressions:    e.Impressions,
			Likes:          e.Likes,
			Replies:        e.Replies,
			Reposts:        e.Reposts,
			EngagementRate: e.EngagementRate,
			ObservedAt:     e.ObservedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return out, nil
}

func (s *metricServiceImpl) LatestSnapshot(ctx context.Context, userID uint64, platformPostID string, platformName string) (*dto.SnapshotDTO, error) {
	if platformPostID == "" {
		return nil, ErrParamInvalid
	}
	if _, ok := platform.Parse(platformName); !ok {
		return nil, ErrPlatformInvalid
	}

	snap, err := s.snapshotRepo.GetLatest(ctx, userID, platformPostID, platformName)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrSnapshotNotFound
	}
	return convertSnapshotDTO(snap), nil
}

func (s *metricServiceImpl) SnapshotSeries(ctx context.Context, userID uint64, platformPostID string, platformName string, limit int, since time.Time) ([]*dto.SnapshotDTO, error) {
	if platformPostID == "" {
		return nil, ErrParamInvalid
	}
	if _, ok := platform.Parse(platformName); !ok {
		return nil, ErrPlatformInvalid
	}

	snapshots, err := s.snapshotRepo.GetSeries(ctx, userID, platformPostID, platformName, limit, since)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.SnapshotDTO, 0, len(snapshots))
	for _, snap := range snapshots {
		out = append(out, convertSnapshotDTO(snap))
	}
	return out, nil
}

// LatestSnapshots 的去重规则：同一 platform_post_id 取 fetched_at 最大的一条，
// 与插入顺序无关。
func (s *metricServiceImpl) LatestSnapshots(ctx context.Context, userID uint64, platformPostIDs []string) ([]*dto.SnapshotDTO, error) {
	snapshots, err := s.snapshotRepo.ListByPlatformPostIDs(ctx, userID, platformPostIDs)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]*model.MetricSnapshot, len(platformPostIDs))
	for _, snap := range snapshots {
		cur, ok := latest[snap.PlatformPostID]
		if !ok || snap.FetchedAt.After(cur.FetchedAt) {
			latest[snap.PlatformPostID] = snap
		}
	}

	out := make([]*dto.SnapshotDTO, 0, len(latest))
	for _, id := range platformPostIDs {
		snap, ok := latest[id]
		if !ok {
			continue
		}
		out = append(out, convertSnapshotDTO(snap))
	}
	return out, nil
}

func convertSnapshotDTO(snap *model.MetricSnapshot) *dto.SnapshotDTO {
	return &dto.SnapshotDTO{
		Platform:           snap.Platform,
		PlatformPostID:     snap.PlatformPostID,
		Impressions:        snap.Impressions,
		UniqueReach:        snap.UniqueReach,
		Reactions:          snap.Reactions,
		Comments:           snap.Comments,
		Shares:             snap.Shares,
		Quotes:             snap.Quotes,
		Bookmarks:          snap.Bookmarks,
		VideoPlays:         snap.VideoPlays,
		VideoWatchTimeMs:   snap.VideoWatchTimeMs,
		VideoUniqueViewers: snap.VideoUniqueViewers,
		FetchedAt:          snap.FetchedAt.Format("2006-01-02 15:04:05"),
	}
}

func (s *metricServiceImpl) DashboardMetrics(ctx context.Context, userID uint64, days int, platformName *string) (*dto.DashboardDTO, error) {
	days, err := normalizeWindow(days)
	if err != nil {
		return nil, err
	}
	if err = validatePlatformFilter(platformName); err != nil {
		return nil, err
	}

	key := cacheKey(consts.DashboardMetricsKey, userID, days, platformName)
	if val, err := redis.GetValue(ctx, key); err == nil && val != "" {
		var res dto.DashboardDTO
		_ = json.Unmarshal([]byte(val), &res)
		return &res, nil
	}

	since := time.Now().AddDate(0, 0, -days)
	events, err := s.eventRepo.LatestEventsForUserWindow(ctx, userID, since, platformName)
	if err != nil {
		return nil, err
	}

	out := &dto.DashboardDTO{Window: fmt.Sprintf("%dd", days)}
	postSeen := make(map[uint64]bool)
	var rateSum float64
	var rateCount int
	for _, e := range events {
		out.TotalImpressions += e.Impressions
		out.TotalLikes += e.Likes
		out.TotalReplies += e.Replies
		out.TotalReposts += e.Reposts
		postSeen[e.PostID] = true
		if e.EngagementRate != nil {
			rateSum += *e.EngagementRate
			rateCount++
		}
	}
	out.PostCount = len(postSeen)
	if rateCount > 0 {
		avg := rateSum / float64(rateCount)
		out.AvgEngagementRate = &avg
	}

	s.cacheResult(ctx, key, out)
	return out, nil
}

func (s *metricServiceImpl) TimeSeries(ctx context.Context, userID uint64, days int, platformName *string) (*dto.TimeSeriesDTO, error) {
	days, err := normalizeWindow(days)
	if err != nil {
		return nil, err
	}
	if err = validatePlatformFilter(platformName); err != nil {
		return nil, err
	}

	key := cacheKey(consts.MetricsTimeSeriesKey, userID, days, platformName)
	if val, err := redis.GetValue(ctx, key); err == nil && val != "" {
		var res dto.TimeSeriesDTO
		_ = json.Unmarshal([]byte(val), &res)
		return &res, nil
	}

	now := time.Now()
	since := now.AddDate(0, 0, -days)
	events, err := s.eventRepo.LatestEventsForUserWindow(ctx, userID, since, platformName)
	if err != nil {
		return nil, err
	}

	// 每条发布记录的最新观测计入其观测日（UTC 日期），而不是帖子的发布日
	byDate := make(map[string]*dto.TimeSeriesPointDTO)
	for _, e := range events {
		dateStr := util.UTCDateString(e.ObservedAt)
		point, ok := byDate[dateStr]
		if !ok {
			point = &dto.TimeSeriesPointDTO{Date: dateStr}
			byDate[dateStr] = point
		}
		point.Impressions += e.Impressions
		point.Likes += e.Likes
		point.Replies += e.Replies
		point.Reposts += e.Reposts
	}

	out := &dto.TimeSeriesDTO{
		Window: fmt.Sprintf("%dd", days),
		Points: make([]*dto.TimeSeriesPointDTO, 0, days+1),
	}
	for d := util.GetMidnight(since); !d.After(now); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format(time.DateOnly)
		if point, ok := byDate[dateStr]; ok {
			out.Points = append(out.Points, point)
		} else {
			out.Points = append(out.Points, &dto.TimeSeriesPointDTO{Date: dateStr})
		}
	}

	s.cacheResult(ctx, key, out)
	return out, nil
}

func (s *metricServiceImpl) TopPosts(ctx context.Context, userID uint64, days int, limit int, platformName *string) ([]*dto.TopPostDTO, error) {
	days, err := normalizeWindow(days)
	if err != nil {
		return nil, err
	}
	if err = validatePlatformFilter(platformName); err != nil {
		return nil, err
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}

	key := cacheKey(consts.TopPostsKey, userID, days, platformName) + ":" + strconv.Itoa(limit)
	if val, err := redis.GetValue(ctx, key); err == nil && val != "" {
		res := make([]*dto.TopPostDTO, 0)
		_ = json.Unmarshal([]byte(val), &res)
		return res, nil
	}

	since := time.Now().AddDate(0, 0, -days)
	events, err := s.eventRepo.LatestEventsForUserWindow(ctx, userID, since, platformName)
	if err != nil {
		return nil, err
	}

	if len(events) > limit {
		events = events[:limit]
	}
	out := make([]*dto.TopPostDTO, 0, len(events))
	for _, e := range events {
		out = append(out, &dto.TopPostDTO{
			PostID:         e.PostID,
			Title:          e.Title,
			Platform:       e.Platform,
			PlatformURL:    e.PlatformURL,
			Impressions:    e.Impressions,
			Likes:          e.Likes,
			Replies:        e.Replies,
			Reposts:        e.Reposts,
			EngagementRate: e.EngagementRate,
			ObservedAt:     e.ObservedAt.Format("2006-01-02 15:04:05"),
		})
	}

	s.cacheResult(ctx, key, out)
	return out, nil
}

func (s *metricServiceImpl) cacheResult(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = redis.SetWithExpiration(ctx, key, string(data), metricCacheTTL)
}

func (s *metricServiceImpl) invalidateCaches(ctx context.Context, userID uint64, platformName string) {
	for _, window := range []int{7, 30} {
		for _, p := range []string{"all", platformName} {
			base := strconv.FormatUint(userID, 10) + ":" + strconv.Itoa(window) + ":" + p
			_ = redis.DeleteKey(ctx, consts.DashboardMetricsKey+base)
			_ = redis.DeleteKey(ctx, consts.MetricsTimeSeriesKey+base)
		}
	}
}

// normalizeWindow 窗口取值刻意收敛到 7/30 两档，见 MetricService 接口注释
func normalizeWindow(days int) (int, error) {
	switch days {
	case 0:
		return 7, nil
	case 7, 30:
		return days, nil
	}
	return 0, ErrParamInvalid
}

func validatePlatformFilter(platformName *string) error {
	if platformName == nil {
		return nil
	}
	if _, ok := platform.Parse(*platformName); !ok {
		return ErrPlatformInvalid
	}
	return nil
}

func cacheKey(prefix string, userID uint64, days int, platformName *string) string {
	p := "all"
	if platformName != nil {
		p = *platformName
	}
	return prefix + strconv.FormatUint(userID, 10) + ":" + strconv.Itoa(days) + ":" + p
}
