package model

import (
	"time"
)

// FollowerSnapshot 每用户每平台每日一行，重跑同一天覆盖而非追加
type FollowerSnapshot struct {
	ID            uint64    `gorm:"primaryKey" json:"id"`
	UserID        uint64    `gorm:"not null;index:idx_user_platform_date,unique" json:"user_id"`
	Platform      string    `gorm:"type:varchar(32);not null;index:idx_user_platform_date,unique" json:"platform"`
	SnapshotDate  time.Time `gorm:"type:date;not null;index:idx_user_platform_date,unique;column:snapshot_date" json:"snapshot_date"`
	FollowerCount int64     `gorm:"not null;default:0" json:"follower_count"`
	NewFollowers  *int64    `json:"new_followers"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (FollowerSnapshot) TableName() string {
	return "follower_snapshots"
}
