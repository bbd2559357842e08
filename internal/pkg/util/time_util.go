package util

import "time"

// GetMidnight 取所在日期的零点（UTC）
func GetMidnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// UTCDateString 取 UTC 日期部分，用于按天聚合
func UTCDateString(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
