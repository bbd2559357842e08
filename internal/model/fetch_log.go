package model

import (
	"time"
)

// FetchLog 单次抓取的审计记录，按自然日累计 api_calls_used 实施平台配额
type FetchLog struct {
	ID             uint64    `gorm:"primaryKey" json:"id"`
	UserID         uint64    `gorm:"not null;index:idx_user_platform_fetched" json:"user_id"`
	Platform       string    `gorm:"type:varchar(32);not null;index:idx_user_platform_fetched" json:"platform"`
	PlatformPostID *string   `gorm:"type:varchar(128)" json:"platform_post_id"`
	FetchType      string    `gorm:"type:varchar(32);not null" json:"fetch_type"`
	Status         string    `gorm:"type:varchar(16);not null" json:"status"`
	ErrorMessage   *string   `gorm:"type:varchar(1024)" json:"error_message"`
	APICallsUsed   int       `gorm:"not null;default:1" json:"api_calls_used"`
	FetchedAt      time.Time `gorm:"not null;index:idx_user_platform_fetched" json:"fetched_at"`
}

func (FetchLog) TableName() string {
	return "fetch_logs"
}
