package model

import (
	"time"
)

// MetricEvent 以内部发布记录为维度的指标观测，派生字段写入时计算一次，读取不重算。
// EngagementRate 在曝光为 0 时为 NULL 而非 0，避免"0% 互动率"的假信号。
type MetricEvent struct {
	ID                uint64    `gorm:"primaryKey" json:"id"`
	PostPublicationID uint64    `gorm:"not null;index:idx_pub_observed" json:"post_publication_id"`
	Impressions       int64     `gorm:"not null;default:0" json:"impressions"`
	Likes             int64     `gorm:"not null;default:0" json:"likes"`
	Replies           int64     `gorm:"not null;default:0" json:"replies"`
	Reposts           int64     `gorm:"not null;default:0" json:"reposts"`
	EngagementRate    *float64  `json:"engagement_rate"`
	HoursSincePublish int64     `gorm:"not null;default:0" json:"hours_since_publish"`
	ObservedAt        time.Time `gorm:"not null;index:idx_pub_observed" json:"observed_at"`
	CreatedAt         time.Time `json:"created_at"`
}

func (MetricEvent) TableName() string {
	return "metric_events"
}

// ComputeEngagementRate 写入时的派生计算，impressions 为 0 返回 nil
func ComputeEngagementRate(likes, replies, reposts, impressions int64) *float64 {
	if impressions == 0 {
		return nil
	}
	rate := float64(likes+replies+reposts) / float64(impressions)
	return &rate
}

// ComputeHoursSincePublish 发帖至观测时刻的整小时数，向下取整
func ComputeHoursSincePublish(publishedAt, observedAt time.Time) int64 {
	diff := observedAt.Sub(publishedAt)
	if diff < 0 {
		return 0
	}
	return int64(diff / time.Hour)
}
