package model

import (
	"time"
)

const (
	PublicationStatusPending   = "pending"
	PublicationStatusPublished = "published"
	PublicationStatusFailed    = "failed"
)

// PostPublication 一条帖子在单个平台上的投递记录，每个目标平台一行
type PostPublication struct {
	ID             uint64     `gorm:"primaryKey" json:"id"`
	PostID         uint64     `gorm:"not null;index:idx_post_platform,unique" json:"post_id"`
	UserID         uint64     `gorm:"not null;index:idx_user_id" json:"user_id"`
	Platform       string     `gorm:"type:varchar(32);not null;index:idx_post_platform,unique" json:"platform"`
	Status         string     `gorm:"type:varchar(16);not null;default:pending;index:idx_status_published" json:"status"`
	PlatformPostID *string    `gorm:"type:varchar(128);index" json:"platform_post_id"`
	PlatformURL    *string    `gorm:"type:varchar(512)" json:"platform_url"`
	PublishedAt    *time.Time `gorm:"index:idx_status_published" json:"published_at"`
	ErrorMessage   *string    `gorm:"type:varchar(1024)" json:"error_message"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (PostPublication) TableName() string {
	return "post_publications"
}
