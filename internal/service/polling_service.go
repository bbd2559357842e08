package service

import (
	"Crosspost/internal/api/config"
	"Crosspost/internal/model"
	"Crosspost/internal/pkg/consts"
	"Crosspost/internal/pkg/platform"
	"Crosspost/internal/pkg/util"
	"Crosspost/internal/repository"
	"context"
	"errors"
	log "log/slog"
	"time"

	"github.com/alitto/pond/v2"
)

// PollTask 一次到期的指标抓取
type PollTask struct {
	Publication *model.PostPublication
	Platform    platform.Platform
}

type PollingService interface {
	// CollectDue 按各平台衰减表筛选到期的发布记录。
	// 从未观测过的记录视为立即到期；超出平台轮询范围的记录被剔除。
	CollectDue(ctx context.Context, now time.Time) ([]*PollTask, error)
	// PollDue 并发抓取全部到期记录的指标并落库，受每日 API 配额约束
	PollDue(ctx context.Context) error
}

type pollingServiceImpl struct {
	pubRepo      repository.PublicationRepo
	eventRepo    repository.MetricEventRepo
	fetchLogRepo repository.FetchLogRepo
	connSvc      ConnectionService
	metricSvc    MetricService
	registry     platform.Registry
	cfg          config.PollingConfig
}

func NewPollingService(
	pubRepo repository.PublicationRepo,
	eventRepo repository.MetricEventRepo,
	fetchLogRepo repository.FetchLogRepo,
	connSvc ConnectionService,
	metricSvc MetricService,
	registry platform.Registry,
	cfg config.PollingConfig,
) PollingService {
	return &pollingServiceImpl{
		pubRepo:      pubRepo,
		eventRepo:    eventRepo,
		fetchLogRepo: fetchLogRepo,
		connSvc:      connSvc,
		metricSvc:    metricSvc,
		registry:     registry,
		cfg:          cfg,
	}
}

func (s *pollingServiceImpl) CollectDue(ctx context.Context, now time.Time) ([]*PollTask, error) {
	tasks := make([]*PollTask, 0)

	for _, p := range platform.All() {
		since := now.Add(-platform.PollingHorizon(p))
		pubs, err := s.pubRepo.ListPublishedSince(ctx, string(p), since)
		if err != nil {
			return nil, err
		}
		if len(pubs) == 0 {
			continue
		}

		ids := make([]uint64, 0, len(pubs))
		for _, pub := range pubs {
			ids = append(ids, pub.ID)
		}
		lastObserved, err := s.eventRepo.LatestObservedAtByPublicationIDs(ctx, ids)
		if err != nil {
			return nil, err
		}

		for _, pub := range pubs {
			if pub.PublishedAt == nil || pub.PlatformPostID == nil {
				continue
			}
			interval, active := platform.DecayInterval(p, *pub.PublishedAt, now)
			if !active {
				continue
			}
			if last, ok := lastObserved[pub.ID]; ok && now.Sub(last) < interval {
				continue
			}
			tasks = append(tasks, &PollTask{Publication: pub, Platform: p})
		}
	}

	return tasks, nil
}

func (s *pollingServiceImpl) PollDue(ctx context.Context) error {
	now := time.Now()
	tasks, err := s.CollectDue(ctx, now)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return nil
	}

	workers := s.cfg.Workers
	if workers < 1 {
		workers = 4
	}

	pool := pond.NewPool(workers)
	defer pool.StopAndWait()
	group := pool.NewGroupContext(ctx)

	for _, task := range tasks {
		t := task
		group.Submit(func() {
			if err := s.pollOne(ctx, t, now); err != nil {
				if errors.Is(err, ErrAPIBudgetExceeded) {
					log.WarnContext(ctx, "daily api budget exhausted, skipping fetch",
						"user_id", t.Publication.UserID, "platform", t.Publication.Platform)
					return
				}
				log.ErrorContext(ctx, "metric poll task failed",
					"publication_id", t.Publication.ID, "platform", t.Publication.Platform, "err", err)
			}
		})
	}

	if err := group.Wait(); err != nil {
		log.ErrorContext(ctx, "metric poll group error", "err", err)
	}

	log.InfoContext(ctx, "metric poll round finished", "due", len(tasks))
	return nil
}

func (s *pollingServiceImpl) pollOne(ctx context.Context, task *PollTask, now time.Time) error {
	pub := task.Publication

	if s.cfg.DailyAPIBudget > 0 {
		used, err := s.fetchLogRepo.SumCallsSince(ctx, pub.UserID, pub.Platform, util.GetMidnight(now))
		if err != nil {
			return err
		}
		if used >= int64(s.cfg.DailyAPIBudget) {
			return ErrAPIBudgetExceeded
		}
	}

	adapter, ok := s.registry.Get(task.Platform)
	if !ok {
		return nil
	}

	metrics, callsUsed, fetchErr := s.fetch(ctx, pub, adapter)
	status := consts.FetchStatusSuccess
	var errMsg *string
	if fetchErr != nil {
		status = consts.FetchStatusFailed
		msg := fetchErr.Error()
		errMsg = &msg
		log.WarnContext(ctx, "metric fetch failed",
			"publication_id", pub.ID, "platform", pub.Platform, "err", fetchErr)
	}

	if err := s.fetchLogRepo.InsertLog(ctx, &model.FetchLog{
		UserID:         pub.UserID,
		Platform:       pub.Platform,
		PlatformPostID: pub.PlatformPostID,
		FetchType:      consts.FetchTypePostMetrics,
		Status:         status,
		ErrorMessage:   errMsg,
		APICallsUsed:   callsUsed,
		FetchedAt:      now,
	}); err != nil {
		log.ErrorContext(ctx, "fetch log insert failed", "publication_id", pub.ID, "err", err)
	}

	if fetchErr != nil {
		return nil
	}

	if err := s.metricSvc.RecordObservation(ctx, pub, metrics, now); err != nil {
		log.ErrorContext(ctx, "metric observation store failed",
			"publication_id", pub.ID, "platform", pub.Platform, "err", err)
	}
	return nil
}

// fetch 返回实际消耗的平台调用次数：
// 凭证环节就失败的抓取没有调用过平台接口，不计入当日配额。
func (s *pollingServiceImpl) fetch(ctx context.Context, pub *model.PostPublication, adapter platform.Adapter) (*platform.PostMetrics, int, error) {
	conn, err := s.connSvc.GetActiveConnection(ctx, pub.UserID, adapter.Name())
	if err != nil {
		return nil, 0, err
	}
	if conn == nil {
		return nil, 0, ErrConnectionNotFound
	}

	accessToken, err := s.connSvc.ResolveAccessToken(ctx, conn, adapter)
	if err != nil {
		return nil, 0, err
	}

	metrics, err := adapter.FetchMetrics(ctx, accessToken, *pub.PlatformPostID)
	return metrics, 1, err
}
