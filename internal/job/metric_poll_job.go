package job

import (
	"Crosspost/internal/pkg/logger"
	"Crosspost/internal/service"
	"context"
	log "log/slog"

	"github.com/google/uuid"
)

type MetricPollJob struct {
	pollingSvc service.PollingService
}

func NewMetricPollJob(pollingSvc service.PollingService) *MetricPollJob {
	return &MetricPollJob{
		pollingSvc: pollingSvc,
	}
}

func (s *MetricPollJob) Run() {
	traceID := "job-poll-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)

	if err := s.pollingSvc.PollDue(ctx); err != nil {
		log.ErrorContext(ctx, "metric poll round failed", "err", err)
	}
}
