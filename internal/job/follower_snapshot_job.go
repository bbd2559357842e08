package job

import (
	"Crosspost/internal/model"
	"Crosspost/internal/pkg/consts"
	"Crosspost/internal/pkg/logger"
	"Crosspost/internal/pkg/platform"
	"Crosspost/internal/repository"
	"Crosspost/internal/service"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

// FollowerSnapshotJob 每日为所有活跃连接采样一次粉丝数
type FollowerSnapshotJob struct {
	connRepo     repository.ConnectionRepo
	fetchLogRepo repository.FetchLogRepo
	connSvc      service.ConnectionService
	followerSvc  service.FollowerService
	registry     platform.Registry
}

func NewFollowerSnapshotJob(
	connRepo repository.ConnectionRepo,
	fetchLogRepo repository.FetchLogRepo,
	connSvc service.ConnectionService,
	followerSvc service.FollowerService,
	registry platform.Registry,
) *FollowerSnapshotJob {
	return &FollowerSnapshotJob{
		connRepo:     connRepo,
		fetchLogRepo: fetchLogRepo,
		connSvc:      connSvc,
		followerSvc:  followerSvc,
		registry:     registry,
	}
}

func (s *FollowerSnapshotJob) Run() {
	traceID := "job-follower-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)

	conns, err := s.connRepo.ListAllActive(ctx)
	if err != nil {
		log.ErrorContext(ctx, "list active connections failed", "err", err)
		return
	}

	now := time.Now()
	for _, conn := range conns {
		s.snapshotOne(ctx, conn, now)
	}

	log.InfoContext(ctx, "follower snapshot round finished", "connections", len(conns))
}

func (s *FollowerSnapshotJob) snapshotOne(ctx context.Context, conn *model.SocialConnection, now time.Time) {
	p, ok := platform.Parse(conn.Platform)
	if !ok {
		return
	}
	adapter, ok := s.registry.Get(p)
	if !ok {
		return
	}

	count, fetchErr := s.fetchCount(ctx, conn, adapter)

	status := consts.FetchStatusSuccess
	var errMsg *string
	if fetchErr != nil {
		status = consts.FetchStatusFailed
		msg := fetchErr.Error()
		errMsg = &msg
		log.WarnContext(ctx, "follower count fetch failed",
			"connection_id", conn.ID, "platform", conn.Platform, "err", fetchErr)
	}

	if err := s.fetchLogRepo.InsertLog(ctx, &model.FetchLog{
		UserID:       conn.UserID,
		Platform:     conn.Platform,
		FetchType:    consts.FetchTypeFollowers,
		Status:       status,
		ErrorMessage: errMsg,
		APICallsUsed: 1,
		FetchedAt:    now,
	}); err != nil {
		log.ErrorContext(ctx, "fetch log insert failed", "connection_id", conn.ID, "err", err)
	}

	if fetchErr != nil {
		return
	}

	if err := s.followerSvc.RecordSnapshot(ctx, conn.UserID, p, count, now); err != nil {
		log.ErrorContext(ctx, "follower snapshot store failed",
			"connection_id", conn.ID, "platform", conn.Platform, "err", err)
	}
}

func (s *FollowerSnapshotJob) fetchCount(ctx context.Context, conn *model.SocialConnection, adapter platform.Adapter) (int64, error) {
	accessToken, err := s.connSvc.ResolveAccessToken(ctx, conn, adapter)
	if err != nil {
		return 0, err
	}
	return adapter.FetchFollowerCount(ctx, accessToken)
}
