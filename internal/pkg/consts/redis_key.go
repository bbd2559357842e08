package consts

const (
	DashboardMetricsKey  = "metrics:dashboard:"
	MetricsTimeSeriesKey = "metrics:timeseries:"
	TopPostsKey          = "metrics:top:"
	FollowerGrowthKey    = "follower:growth:"
)

const (
	// ConnRefreshLock 按连接串行化令牌刷新
	ConnRefreshLock = "lock:conn:refresh:"
)
