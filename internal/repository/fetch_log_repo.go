package repository

import (
	"Crosspost/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type FetchLogRepo interface {
	InsertLog(ctx context.Context, fetchLog *model.FetchLog) error
	// SumCallsSince 统计自某时刻起的 API 调用量，用于当日配额判断
	SumCallsSince(ctx context.Context, userID uint64, platform string, since time.Time) (int64, error)
}

type fetchLogRepoImpl struct {
	db *gorm.DB
}

func NewFetchLogRepository(db *gorm.DB) FetchLogRepo {
	return &fetchLogRepoImpl{db: db}
}

func (s *fetchLogRepoImpl) InsertLog(ctx context.Context, fetchLog *model.FetchLog) error {
	return s.db.WithContext(ctx).Create(fetchLog).Error
}

func (s *fetchLogRepoImpl) SumCallsSince(ctx context.Context, userID uint64, platform string, since time.Time) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).
		Model(&model.FetchLog{}).
		Select("COALESCE(SUM(api_calls_used), 0)").
		Where("user_id = ? AND platform = ? AND fetched_at >= ?", userID, platform, since).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
