package platform

import "time"

// decayBand 单个衰减区间：帖龄不超过 MaxAge 时按 Interval 轮询
type decayBand struct {
	MaxAge   time.Duration
	Interval time.Duration
}

// decaySchedule 平台的完整衰减表。
// Terminal 为 nil 表示超出最后一档后停止轮询；
// 非 nil 表示以该兜底间隔无限期低频保鲜。
type decaySchedule struct {
	Bands    []decayBand
	Terminal *time.Duration
}

var weekly = 7 * 24 * time.Hour

// decaySchedules 区间上限递增、间隔单调不减。
// Twitter 信息流衰减快，新帖需要亚小时粒度，老帖仍按周兜底；
// LinkedIn 和 Threads 超出外层区间后彻底停采，这是按平台显式选择的行为。
var decaySchedules = map[Platform]decaySchedule{
	Twitter: {
		Bands: []decayBand{
			{MaxAge: 6 * time.Hour, Interval: 15 * time.Minute},
			{MaxAge: 24 * time.Hour, Interval: time.Hour},
			{MaxAge: 72 * time.Hour, Interval: 4 * time.Hour},
			{MaxAge: 7 * 24 * time.Hour, Interval: 12 * time.Hour},
			{MaxAge: 30 * 24 * time.Hour, Interval: 24 * time.Hour},
		},
		Terminal: &weekly,
	},
	LinkedIn: {
		Bands: []decayBand{
			{MaxAge: 6 * time.Hour, Interval: time.Hour},
			{MaxAge: 24 * time.Hour, Interval: 3 * time.Hour},
			{MaxAge: 72 * time.Hour, Interval: 6 * time.Hour},
			{MaxAge: 7 * 24 * time.Hour, Interval: 12 * time.Hour},
			{MaxAge: 30 * 24 * time.Hour, Interval: 24 * time.Hour},
			{MaxAge: 90 * 24 * time.Hour, Interval: 72 * time.Hour},
		},
		Terminal: nil,
	},
	Threads: {
		Bands: []decayBand{
			{MaxAge: 6 * time.Hour, Interval: 30 * time.Minute},
			{MaxAge: 24 * time.Hour, Interval: 2 * time.Hour},
			{MaxAge: 72 * time.Hour, Interval: 6 * time.Hour},
			{MaxAge: 7 * 24 * time.Hour, Interval: 12 * time.Hour},
			{MaxAge: 30 * 24 * time.Hour, Interval: 48 * time.Hour},
		},
		Terminal: nil,
	},
}

// pollingHorizons 选取待轮询发布记录时的外层时间窗。
// 停采平台的窗口即最后一档上限；Twitter 永不停采，取一年作为查询上界。
var pollingHorizons = map[Platform]time.Duration{
	Twitter:  365 * 24 * time.Hour,
	LinkedIn: 90 * 24 * time.Hour,
	Threads:  30 * 24 * time.Hour,
}

// DecayInterval 纯函数：根据帖龄返回当前轮询间隔。
// 第二个返回值为 false 表示该帖已超出平台的轮询范围，应停止采集。
func DecayInterval(p Platform, publishedAt, now time.Time) (time.Duration, bool) {
	schedule, ok := decaySchedules[p]
	if !ok {
		return 0, false
	}

	age := now.Sub(publishedAt)
	if age < 0 {
		age = 0
	}

	for _, band := range schedule.Bands {
		if age < band.MaxAge {
			return band.Interval, true
		}
	}

	if schedule.Terminal != nil {
		return *schedule.Terminal, true
	}
	return 0, false
}

// PollingHorizon 返回平台的外层轮询时间窗
func PollingHorizon(p Platform) time.Duration {
	return pollingHorizons[p]
}
