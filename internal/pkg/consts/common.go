package consts

const (
	MimePrefixImage = "image"
	MimePrefixVideo = "video"
)

const (
	// FetchTypePostMetrics 单帖指标抓取
	FetchTypePostMetrics = "post_metrics"
	// FetchTypeFollowers 粉丝数抓取
	FetchTypeFollowers = "followers"
)

const (
	FetchStatusSuccess = "success"
	FetchStatusFailed  = "failed"
)

const (
	// MediaCleanupAfterDays 软删帖子的媒体保留天数
	MediaCleanupAfterDays = 7
)
