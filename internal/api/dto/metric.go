package dto

// DashboardDTO 指标总览
type DashboardDTO struct {
	Window            string   `json:"window"` // 7d 或 30d
	TotalImpressions  int64    `json:"total_impressions"`
	TotalLikes        int64    `json:"total_likes"`
	TotalReplies      int64    `json:"total_replies"`
	TotalReposts      int64    `json:"total_reposts"`
	PostCount         int      `json:"post_count"`
	AvgEngagementRate *float64 `json:"avg_engagement_rate"`
}

// TimeSeriesPointDTO 按日汇总点
type TimeSeriesPointDTO struct {
	Date        string `json:"date"`
	Impressions int64  `json:"impressions"`
	Likes       int64  `json:"likes"`
	Replies     int64  `json:"replies"`
	Reposts     int64  `json:"reposts"`
}

// TimeSeriesDTO 趋势返回包装
type TimeSeriesDTO struct {
	Window string                `json:"window"`
	Points []*TimeSeriesPointDTO `json:"points"`
}

// TopPostDTO 表现榜单条目
type TopPostDTO struct {
	PostID         uint64   `json:"post_id"`
	Title          string   `json:"title"`
	Platform       string   `json:"platform"`
	PlatformURL    *string  `json:"platform_url,omitempty"`
	Impressions    int64    `json:"impressions"`
	Likes          int64    `json:"likes"`
	Replies        int64    `json:"replies"`
	Reposts        int64    `json:"reposts"`
	EngagementRate *float64 `json:"engagement_rate"`
	ObservedAt     string   `json:"observed_at"`
}

// PublicationMetricDTO 单条发布的最新指标
type PublicationMetricDTO struct {
	PublicationID     uint64   `json:"publication_id"`
	Platform          string   `json:"platform"`
	Impressions       int64    `json:"impressions"`
	Likes             int64    `json:"likes"`
	Replies           int64    `json:"replies"`
	Reposts           int64    `json:"reposts"`
	EngagementRate    *float64 `json:"engagement_rate"`
	HoursSincePublish int64    `json:"hours_since_publish"`
	ObservedAt        string   `json:"observed_at"`
}

// SnapshotDTO 以平台帖子 ID 为维度的原始指标快照
type SnapshotDTO struct {
	Platform           string `json:"platform"`
	PlatformPostID     string `json:"platform_post_id"`
	Impressions        *int64 `json:"impressions"`
	UniqueReach        *int64 `json:"unique_reach"`
	Reactions          *int64 `json:"reactions"`
	Comments           *int64 `json:"comments"`
	Shares             *int64 `json:"shares"`
	Quotes             *int64 `json:"quotes"`
	Bookmarks          *int64 `json:"bookmarks"`
	VideoPlays         *int64 `json:"video_plays"`
	VideoWatchTimeMs   *int64 `json:"video_watch_time_ms"`
	VideoUniqueViewers *int64 `json:"video_unique_viewers"`
	FetchedAt          string `json:"fetched_at"`
}

// MetricPointDTO 单条发布的历史观测点
type MetricPointDTO struct {
	Impressions    int64    `json:"impressions"`
	Likes          int64    `json:"likes"`
	Replies        int64    `json:"replies"`
	Reposts        int64    `json:"reposts"`
	EngagementRate *float64 `json:"engagement_rate"`
	ObservedAt     string   `json:"observed_at"`
}
