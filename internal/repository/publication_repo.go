package repository

import (
	"Crosspost/internal/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type PublicationRepo interface {
	// GetByID 不存在返回 (nil, nil)
	GetByID(ctx context.Context, id uint64) (*model.PostPublication, error)
	GetByPost(ctx context.Context, postID uint64) ([]*model.PostPublication, error)
	MarkPublished(ctx context.Context, id uint64, platformPostID, platformURL string, publishedAt time.Time) error
	MarkFailed(ctx context.Context, id uint64, errorMessage string) error
	// ListPublishedSince 查询某平台在时间窗内已发布且有外部帖子 ID 的发布记录
	ListPublishedSince(ctx context.Context, platform string, since time.Time) ([]*model.PostPublication, error)
}

type publicationRepoImpl struct {
	db *gorm.DB
}

func NewPublicationRepository(db *gorm.DB) PublicationRepo {
	return &publicationRepoImpl{db: db}
}

func (s *publicationRepoImpl) GetByID(ctx context.Context, id uint64) (*model.PostPublication, error) {
	var pub model.PostPublication
	err := s.db.WithContext(ctx).First(&pub, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pub, nil
}

func (s *publicationRepoImpl) GetByPost(ctx context.Context, postID uint64) ([]*model.PostPublication, error) {
	pubs := make([]*model.PostPublication, 0)
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("id ASC").
		Find(&pubs).Error
	if err != nil {
		return nil, err
	}
	return pubs, nil
}

func (s *publicationRepoImpl) MarkPublished(ctx context.Context, id uint64, platformPostID, platformURL string, publishedAt time.Time) error {
	return s.db.WithContext(ctx).Model(&model.PostPublication{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":           model.PublicationStatusPublished,
			"platform_post_id": platformPostID,
			"platform_url":     platformURL,
			"published_at":     publishedAt,
			"error_message":    nil,
		}).Error
}

func (s *publicationRepoImpl) MarkFailed(ctx context.Context, id uint64, errorMessage string) error {
	return s.db.WithContext(ctx).Model(&model.PostPublication{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        model.PublicationStatusFailed,
			"error_message": errorMessage,
		}).Error
}

func (s *publicationRepoImpl) ListPublishedSince(ctx context.Context, platform string, since time.Time) ([]*model.PostPublication, error) {
	pubs := make([]*model.PostPublication, 0)
	err := s.db.WithContext(ctx).
		Where("platform = ? AND status = ? AND platform_post_id IS NOT NULL AND published_at >= ?",
			platform, model.PublicationStatusPublished, since).
		Find(&pubs).Error
	if err != nil {
		return nil, err
	}
	return pubs, nil
}
