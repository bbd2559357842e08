package repository

import (
	"Crosspost/internal/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type MetricSnapshotRepo interface {
	// InsertSnapshot 只追加，绝不覆盖既有观测
	InsertSnapshot(ctx context.Context, snapshot *model.MetricSnapshot) error
	// GetLatest 按 fetched_at 取单帖最新快照，无记录返回 (nil, nil)
	GetLatest(ctx context.Context, userID uint64, platformPostID, platform string) (*model.MetricSnapshot, error)
	// GetSeries 升序时间序列，since 可为零值，limit <= 0 表示不限
	GetSeries(ctx context.Context, userID uint64, platformPostID, platform string, limit int, since time.Time) ([]*model.MetricSnapshot, error)
	// ListByPlatformPostIDs 一次查询取回多帖的全部快照，去重到最新由调用方完成
	ListByPlatformPostIDs(ctx context.Context, userID uint64, platformPostIDs []string) ([]*model.MetricSnapshot, error)
}

type metricSnapshotRepoImpl struct {
	db *gorm.DB
}

func NewMetricSnapshotRepository(db *gorm.DB) MetricSnapshotRepo {
	return &metricSnapshotRepoImpl{db: db}
}

func (s *metricSnapshotRepoImpl) InsertSnapshot(ctx context.Context, snapshot *model.MetricSnapshot) error {
	return s.db.WithContext(ctx).Create(snapshot).Error
}

func (s *metricSnapshotRepoImpl) GetLatest(ctx context.Context, userID uint64, platformPostID, platform string) (*model.MetricSnapshot, error) {
	var snapshot model.MetricSnapshot
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND platform_post_id = ? AND platform = ?", userID, platformPostID, platform).
		Order("fetched_at DESC").
		First(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}

func (s *metricSnapshotRepoImpl) GetSeries(ctx context.Context, userID uint64, platformPostID, platform string, limit int, since time.Time) ([]*model.MetricSnapshot, error) {
	snapshots := make([]*model.MetricSnapshot, 0)
	query := s.db.WithContext(ctx).
		Where("user_id = ? AND platform_post_id = ? AND platform = ?", userID, platformPostID, platform)
	if !since.IsZero() {
		query = query.Where("fetched_at >= ?", since)
	}
	query = query.Order("fetched_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}

func (s *metricSnapshotRepoImpl) ListByPlatformPostIDs(ctx context.Context, userID uint64, platformPostIDs []string) ([]*model.MetricSnapshot, error) {
	snapshots := make([]*model.MetricSnapshot, 0)
	if len(platformPostIDs) == 0 {
		return snapshots, nil
	}
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND platform_post_id IN ?", userID, platformPostIDs).
		Find(&snapshots).Error
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}
