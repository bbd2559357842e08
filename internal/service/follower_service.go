package service

import (
	"Crosspost/internal/api/dto"
	"Crosspost/internal/model"
	"Crosspost/internal/pkg/consts"
	"Crosspost/internal/pkg/platform"
	"Crosspost/internal/pkg/redis"
	"Crosspost/internal/pkg/util"
	"Crosspost/internal/repository"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

type FollowerService interface {
	// RecordSnapshot 落一条每日粉丝数采样，同日重跑覆盖；
	// NewFollowers 相对前一日快照计算，前一日缺失时为 nil
	RecordSnapshot(ctx context.Context, userID uint64, p platform.Platform, count int64, date time.Time) error
	// Growth 窗口内的粉丝增长统计，数据不足时返回零值而非错误
	Growth(ctx context.Context, userID uint64, p platform.Platform, days int) (*dto.FollowerGrowthDTO, error)
}

type followerServiceImpl struct {
	followerRepo repository.FollowerSnapshotRepo
}

func NewFollowerService(followerRepo repository.FollowerSnapshotRepo) FollowerService {
	return &followerServiceImpl{
		followerRepo: followerRepo,
	}
}

func (s *followerServiceImpl) RecordSnapshot(ctx context.Context, userID uint64, p platform.Platform, count int64, date time.Time) error {
	day := util.GetMidnight(date)

	var newFollowers *int64
	prevDay := day.AddDate(0, 0, -1)
	prev, err := s.followerRepo.GetRange(ctx, userID, string(p), prevDay, prevDay)
	if err != nil {
		return err
	}
	if len(prev) > 0 {
		diff := count - prev[len(prev)-1].FollowerCount
		newFollowers = &diff
	}

	snapshot := &model.FollowerSnapshot{
		UserID:        userID,
		Platform:      string(p),
		SnapshotDate:  day,
		FollowerCount: count,
		NewFollowers:  newFollowers,
	}
	if err = s.followerRepo.SaveOrUpdateSnapshot(ctx, snapshot); err != nil {
		return err
	}

	_ = redis.DeleteKey(ctx, followerGrowthKey(userID, p, 7))
	_ = redis.DeleteKey(ctx, followerGrowthKey(userID, p, 30))
	return nil
}

func (s *followerServiceImpl) Growth(ctx context.Context, userID uint64, p platform.Platform, days int) (*dto.FollowerGrowthDTO, error) {
	days, err := normalizeWindow(days)
	if err != nil {
		return nil, err
	}

	key := followerGrowthKey(userID, p, days)
	if val, err := redis.GetValue(ctx, key); err == nil && val != "" {
		var res dto.FollowerGrowthDTO
		_ = json.Unmarshal([]byte(val), &res)
		return &res, nil
	}

	now := time.Now()
	from := util.GetMidnight(now).AddDate(0, 0, -days)
	snapshots, err := s.followerRepo.GetRange(ctx, userID, string(p), from, util.GetMidnight(now))
	if err != nil {
		return nil, err
	}

	out := &dto.FollowerGrowthDTO{
		Platform: string(p),
		Window:   fmt.Sprintf("%dd", days),
		Points:   make([]*dto.FollowerPointDTO, 0, len(snapshots)),
	}
	for _, snap := range snapshots {
		out.Points = append(out.Points, &dto.FollowerPointDTO{
			Date:          snap.SnapshotDate.Format(time.DateOnly),
			FollowerCount: snap.FollowerCount,
			NewFollowers:  snap.NewFollowers,
		})
	}

	// 不足两条采样时无法计算增量，保持零值
	if len(snapshots) > 0 {
		first := snapshots[0]
		last := snapshots[len(snapshots)-1]
		out.StartCount = first.FollowerCount
		out.CurrentCount = last.FollowerCount
		out.NetGrowth = last.FollowerCount - first.FollowerCount
		if first.FollowerCount > 0 {
			out.GrowthRate = float64(out.NetGrowth) / float64(first.FollowerCount) * 100
		}
	}

	if data, err := json.Marshal(out); err == nil {
		_ = redis.SetWithExpiration(ctx, key, string(data), metricCacheTTL)
	}
	return out, nil
}

func followerGrowthKey(userID uint64, p platform.Platform, days int) string {
	return consts.FollowerGrowthKey + strconv.FormatUint(userID, 10) + ":" + string(p) + ":" + strconv.Itoa(days)
}
