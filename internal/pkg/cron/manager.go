package cron

import (
	"Crosspost/internal/api/config"
	"Crosspost/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine              *cron.Cron
	pollCfg             config.PollingConfig
	metricPollJob       *job.MetricPollJob
	scheduledPublishJob *job.ScheduledPublishJob
	followerSnapshotJob *job.FollowerSnapshotJob
	mediaCleanupJob     *job.MediaCleanupJob
}

func NewCronManager(
	pollCfg config.PollingConfig,
	metricPollJob *job.MetricPollJob,
	scheduledPublishJob *job.ScheduledPublishJob,
	followerSnapshotJob *job.FollowerSnapshotJob,
	mediaCleanupJob *job.MediaCleanupJob,
) *Manager {
	return &Manager{
		engine:              cron.New(cron.WithSeconds()),
		pollCfg:             pollCfg,
		metricPollJob:       metricPollJob,
		scheduledPublishJob: scheduledPublishJob,
		followerSnapshotJob: followerSnapshotJob,
		mediaCleanupJob:     mediaCleanupJob,
	}
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	pollSpec := s.pollCfg.PollSpec
	if pollSpec == "" {
		pollSpec = "0 */15 * * * *"
	}
	followerSpec := s.pollCfg.FollowerSpec
	if followerSpec == "" {
		followerSpec = "@daily"
	}
	cleanupSpec := s.pollCfg.CleanupSpec
	if cleanupSpec == "" {
		cleanupSpec = "@daily"
	}

	if _, err := s.engine.AddJob(pollSpec, s.metricPollJob); err != nil {
		return err
	}
	// 调度发布每分钟检查一次到点的 scheduled 帖子
	if _, err := s.engine.AddJob("0 * * * * *", s.scheduledPublishJob); err != nil {
		return err
	}
	if _, err := s.engine.AddJob(followerSpec, s.followerSnapshotJob); err != nil {
		return err
	}
	if _, err := s.engine.AddJob(cleanupSpec, s.mediaCleanupJob); err != nil {
		return err
	}
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动")
	s.engine.Start()
}

func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	s.engine.Stop()
}
