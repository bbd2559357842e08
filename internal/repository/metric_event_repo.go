package repository

import (
	"Crosspost/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

// LatestPublicationEvent 窗口内每个发布记录去重后的最新观测，连带帖子上下文
type LatestPublicationEvent struct {
	PostPublicationID uint64     `json:"post_publication_id"`
	PostID            uint64     `json:"post_id"`
	Title             string     `json:"title"`
	Platform          string     `json:"platform"`
	PlatformPostID    *string    `json:"platform_post_id"`
	PlatformURL       *string    `json:"platform_url"`
	PostPublishedAt   *time.Time `json:"post_published_at"`
	Impressions       int64      `json:"impressions"`
	Likes             int64      `json:"likes"`
	Replies           int64      `json:"replies"`
	Reposts           int64      `json:"reposts"`
	EngagementRate    *float64   `json:"engagement_rate"`
	ObservedAt        time.Time  `json:"observed_at"`
}

type MetricEventRepo interface {
	// InsertEvent 只追加
	InsertEvent(ctx context.Context, event *model.MetricEvent) error
	// LatestObservedAtByPublicationIDs 一次分组查询取回各发布记录的最近观测时间
	LatestObservedAtByPublicationIDs(ctx context.Context, publicationIDs []uint64) (map[uint64]time.Time, error)
	// ListEventsForPublication 按观测时间降序列出单个发布记录的事件
	ListEventsForPublication(ctx context.Context, publicationID uint64, limit int) ([]*model.MetricEvent, error)
	// LatestEventsForUserWindow 窗口内每发布记录一行的最新事件。
	// 平台过滤写在 JOIN 条件里而不是查询后过滤。
	LatestEventsForUserWindow(ctx context.Context, userID uint64, since time.Time, platform *string) ([]*LatestPublicationEvent, error)
}

type metricEventRepoImpl struct {
	db *gorm.DB
}

func NewMetricEventRepository(db *gorm.DB) MetricEventRepo {
	return &metricEventRepoImpl{db: db}
}

func (s *metricEventRepoImpl) InsertEvent(ctx context.Context, event *model.MetricEvent) error {
	return s.db.WithContext(ctx).Create(event).Error
}

func (s *metricEventRepoImpl) LatestObservedAtByPublicationIDs(ctx context.Context, publicationIDs []uint64) (map[uint64]time.Time, error) {
	result := make(map[uint64]time.Time)
	if len(publicationIDs) == 0 {
		return result, nil
	}

	type row struct {
		PostPublicationID uint64
		LastObserved      time.Time
	}
	rows := make([]row, 0)
	err := s.db.WithContext(ctx).
		Model(&model.MetricEvent{}).
		Select("post_publication_id, MAX(observed_at) AS last_observed").
		Where("post_publication_id IN ?", publicationIDs).
		Group("post_publication_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		result[r.PostPublicationID] = r.LastObserved
	}
	return result, nil
}

func (s *metricEventRepoImpl) ListEventsForPublication(ctx context.Context, publicationID uint64, limit int) ([]*model.MetricEvent, error) {
	events := make([]*model.MetricEvent, 0)
	query := s.db.WithContext(ctx).
		Where("post_publication_id = ?", publicationID).
		Order("observed_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (s *metricEventRepoImpl) LatestEventsForUserWindow(ctx context.Context, userID uint64, since time.Time, platform *string) ([]*LatestPublicationEvent, error) {
	rows := make([]*LatestPublicationEvent, 0)

	joinCond := "pub.id = e.post_publication_id"
	args := []interface{}{}
	if platform != nil {
		joinCond += " AND pub.platform = ?"
		args = append(args, *platform)
	}

	err := s.db.WithContext(ctx).
		Table("metric_events AS e").
		Select(`e.post_publication_id, pub.post_id, p.title, pub.platform, pub.platform_post_id, pub.platform_url,
			p.published_at AS post_published_at,
			e.impressions, e.likes, e.replies, e.reposts, e.engagement_rate, e.observed_at`).
		Joins("JOIN (SELECT post_publication_id, MAX(observed_at) AS max_observed FROM metric_events GROUP BY post_publication_id) latest "+
			"ON latest.post_publication_id = e.post_publication_id AND latest.max_observed = e.observed_at").
		Joins("JOIN post_publications AS pub ON "+joinCond, args...).
		Joins("JOIN posts AS p ON p.id = pub.post_id AND p.deleted_at IS NULL").
		Where("p.user_id = ? AND p.published_at >= ?", userID, since).
		Order("e.observed_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
