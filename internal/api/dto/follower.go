package dto

// FollowerPointDTO 粉丝数每日采样点
type FollowerPointDTO struct {
	Date          string `json:"date"`
	FollowerCount int64  `json:"follower_count"`
	NewFollowers  *int64 `json:"new_followers,omitempty"`
}

// FollowerGrowthDTO 粉丝增长统计
type FollowerGrowthDTO struct {
	Platform     string              `json:"platform"`
	Window       string              `json:"window"`
	NetGrowth    int64               `json:"net_growth"`
	GrowthRate   float64             `json:"growth_rate"`
	CurrentCount int64               `json:"current_count"`
	StartCount   int64               `json:"start_count"`
	Points       []*FollowerPointDTO `json:"points"`
}
