package repository

import (
	"Crosspost/internal/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type PostRepo interface {
	CreatePost(ctx context.Context, post *model.Post, media []*model.PostMedia, publications []*model.PostPublication) error
	GetPost(ctx context.Context, id uint64) (*model.Post, error)
	GetPostsByUser(ctx context.Context, userID uint64, page, pageSize int) ([]*model.Post, error)
	UpdatePost(ctx context.Context, post *model.Post, media []*model.PostMedia) error
	UpdatePostStatus(ctx context.Context, id uint64, status string, publishedAt *time.Time) error
	DeletePost(ctx context.Context, id uint64) error
	ListScheduledDue(ctx context.Context, now time.Time) ([]*model.Post, error)
	ListDeletedBefore(ctx context.Context, cutoff time.Time) ([]*model.Post, error)
}

type postRepoImpl struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepo {
	return &postRepoImpl{db: db}
}

// CreatePost 帖子与媒体、各平台发布记录在同一事务中落库
func (s *postRepoImpl) CreatePost(ctx context.Context, post *model.Post, media []*model.PostMedia, publications []*model.PostPublication) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		for _, m := range media {
			m.PostID = post.ID
		}
		if len(media) > 0 {
			if err := tx.Create(media).Error; err != nil {
				return err
			}
		}
		for _, p := range publications {
			p.PostID = post.ID
		}
		if len(publications) > 0 {
			if err := tx.Create(publications).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *postRepoImpl) GetPost(ctx context.Context, id uint64) (*model.Post, error) {
	var post model.Post
	err := s.db.WithContext(ctx).
		Preload("Media").
		Preload("Publications").
		First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

func (s *postRepoImpl) GetPostsByUser(ctx context.Context, userID uint64, page, pageSize int) ([]*model.Post, error) {
	posts := make([]*model.Post, 0)
	err := s.db.WithContext(ctx).
		Preload("Media").
		Preload("Publications").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// UpdatePost 覆盖帖子内容并重建媒体挂接
func (s *postRepoImpl) UpdatePost(ctx context.Context, post *model.Post, media []*model.PostMedia) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.PostMedia{}, "post_id = ?", post.ID).Error; err != nil {
			return err
		}
		if err := tx.Model(post).Select("title", "body", "tags", "status", "scheduled_at").Updates(post).Error; err != nil {
			return err
		}
		for _, m := range media {
			m.PostID = post.ID
		}
		if len(media) > 0 {
			if err := tx.Create(media).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *postRepoImpl) UpdatePostStatus(ctx context.Context, id uint64, status string, publishedAt *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if publishedAt != nil {
		updates["published_at"] = *publishedAt
	}
	return s.db.WithContext(ctx).Model(&model.Post{}).Where("id = ?", id).Updates(updates).Error
}

func (s *postRepoImpl) DeletePost(ctx context.Context, id uint64) error {
	return s.db.WithContext(ctx).Delete(&model.Post{}, id).Error
}

// ListScheduledDue 查询已到发布时刻的 scheduled 帖子
func (s *postRepoImpl) ListScheduledDue(ctx context.Context, now time.Time) ([]*model.Post, error) {
	posts := make([]*model.Post, 0)
	err := s.db.WithContext(ctx).
		Preload("Media").
		Preload("Publications").
		Where("status = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ?", model.PostStatusScheduled, now).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// ListDeletedBefore 查询软删超过保留期的帖子，供媒体清理任务使用
func (s *postRepoImpl) ListDeletedBefore(ctx context.Context, cutoff time.Time) ([]*model.Post, error) {
	posts := make([]*model.Post, 0)
	err := s.db.WithContext(ctx).
		Unscoped().
		Preload("Media").
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}
