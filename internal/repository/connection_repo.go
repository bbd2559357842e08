package repository

import (
	"Crosspost/internal/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConnectionRepo interface {
	// Upsert 按 (user_id, platform) 落库，重复连接覆盖令牌并重新激活
	Upsert(ctx context.Context, conn *model.SocialConnection) error
	// GetActive 查询用户在某平台的活跃连接，不存在返回 (nil, nil)
	GetActive(ctx context.Context, userID uint64, platform string) (*model.SocialConnection, error)
	GetByID(ctx context.Context, id uint64) (*model.SocialConnection, error)
	ListByUser(ctx context.Context, userID uint64) ([]*model.SocialConnection, error)
	ListAllActive(ctx context.Context) ([]*model.SocialConnection, error)
	// UpdateTokensCAS 条件更新令牌：仅当 token_version 未被并发修改时生效，
	// 返回 false 表示另一次刷新已先落库
	UpdateTokensCAS(ctx context.Context, id uint64, expectedVersion int64, encAccess, encRefresh string, expiresAt time.Time) (bool, error)
	UpdateStatus(ctx context.Context, id uint64, status string) error
}

type connectionRepoImpl struct {
	db *gorm.DB
}

func NewConnectionRepository(db *gorm.DB) ConnectionRepo {
	return &connectionRepoImpl{db: db}
}

func (s *connectionRepoImpl) Upsert(ctx context.Context, conn *model.SocialConnection) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "platform"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"platform_account_id",
			"encrypted_access_token",
			"encrypted_refresh_token",
			"expires_at",
			"status",
		}),
	}).Create(conn).Error
}

func (s *connectionRepoImpl) GetActive(ctx context.Context, userID uint64, platform string) (*model.SocialConnection, error) {
	var conn model.SocialConnection
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND platform = ? AND status = ?", userID, platform, model.ConnectionStatusActive).
		First(&conn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conn, nil
}

func (s *connectionRepoImpl) GetByID(ctx context.Context, id uint64) (*model.SocialConnection, error) {
	var conn model.SocialConnection
	err := s.db.WithContext(ctx).First(&conn, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conn, nil
}

func (s *connectionRepoImpl) ListByUser(ctx context.Context, userID uint64) ([]*model.SocialConnection, error) {
	conns := make([]*model.SocialConnection, 0)
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&conns).Error
	if err != nil {
		return nil, err
	}
	return conns, nil
}

func (s *connectionRepoImpl) ListAllActive(ctx context.Context) ([]*model.SocialConnection, error) {
	conns := make([]*model.SocialConnection, 0)
	err := s.db.WithContext(ctx).
		Where("status = ?", model.ConnectionStatusActive).
		Find(&conns).Error
	if err != nil {
		return nil, err
	}
	return conns, nil
}

func (s *connectionRepoImpl) UpdateTokensCAS(ctx context.Context, id uint64, expectedVersion int64, encAccess, encRefresh string, expiresAt time.Time) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&model.SocialConnection{}).
		Where("id = ? AND token_version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"encrypted_access_token":  encAccess,
			"encrypted_refresh_token": encRefresh,
			"expires_at":              expiresAt,
			"token_version":           expectedVersion + 1,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *connectionRepoImpl) UpdateStatus(ctx context.Context, id uint64, status string) error {
	return s.db.WithContext(ctx).
		Model(&model.SocialConnection{}).
		Where("id = ?", id).
		Update("status", status).Error
}
