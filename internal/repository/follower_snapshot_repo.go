package repository

import (
	"Crosspost/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FollowerSnapshotRepo interface {
	// SaveOrUpdateSnapshot 按 (user_id, platform, snapshot_date) Upsert，同日重跑覆盖
	SaveOrUpdateSnapshot(ctx context.Context, snapshot *model.FollowerSnapshot) error
	// GetRange 升序返回窗口内的快照
	GetRange(ctx context.Context, userID uint64, platform string, from, to time.Time) ([]*model.FollowerSnapshot, error)
}

type followerSnapshotRepoImpl struct {
	db *gorm.DB
}

func NewFollowerSnapshotRepository(db *gorm.DB) FollowerSnapshotRepo {
	return &followerSnapshotRepoImpl{db: db}
}

func (s *followerSnapshotRepoImpl) SaveOrUpdateSnapshot(ctx context.Context, snapshot *model.FollowerSnapshot) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "platform"}, {Name: "snapshot_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"follower_count",
			"new_followers",
		}),
	}).Create(snapshot).Error
}

func (s *followerSnapshotRepoImpl) GetRange(ctx context.Context, userID uint64, platform string, from, to time.Time) ([]*model.FollowerSnapshot, error) {
	snapshots := make([]*model.FollowerSnapshot, 0)
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND platform = ? AND snapshot_date >= ? AND snapshot_date <= ?", userID, platform, from, to).
		Order("snapshot_date ASC").
		Find(&snapshots).Error
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}
