package model

import (
	"time"
)

// MetricSnapshot 以平台帖子 ID 为主键维度的一次指标观测，只追加不修改。
// 同一帖子的多条快照按 fetched_at 构成时间序列。
type MetricSnapshot struct {
	ID                 uint64    `gorm:"primaryKey" json:"id"`
	UserID             uint64    `gorm:"not null;index:idx_user_platform" json:"user_id"`
	Platform           string    `gorm:"type:varchar(32);not null;index:idx_user_platform" json:"platform"`
	PlatformPostID     string    `gorm:"type:varchar(128);not null;index:idx_ppid_fetched" json:"platform_post_id"`
	PostID             *uint64   `gorm:"index" json:"post_id"`
	Impressions        *int64    `json:"impressions"`
	UniqueReach        *int64    `json:"unique_reach"`
	Reactions          *int64    `json:"reactions"`
	Comments           *int64    `json:"comments"`
	Shares             *int64    `json:"shares"`
	Quotes             *int64    `json:"quotes"`
	Bookmarks          *int64    `json:"bookmarks"`
	VideoPlays         *int64    `json:"video_plays"`
	VideoWatchTimeMs   *int64    `json:"video_watch_time_ms"`
	VideoUniqueViewers *int64    `json:"video_unique_viewers"`
	FetchedAt          time.Time `gorm:"not null;index:idx_ppid_fetched" json:"fetched_at"`
	CreatedAt          time.Time `json:"created_at"`
}

func (MetricSnapshot) TableName() string {
	return "metric_snapshots"
}
