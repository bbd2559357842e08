package job

import (
	"Crosspost/internal/pkg/logger"
	"Crosspost/internal/service"
	"context"
	log "log/slog"

	"github.com/google/uuid"
)

type ScheduledPublishJob struct {
	publishSvc service.PublishService
}

func NewScheduledPublishJob(publishSvc service.PublishService) *ScheduledPublishJob {
	return &ScheduledPublishJob{
		publishSvc: publishSvc,
	}
}

func (s *ScheduledPublishJob) Run() {
	traceID := "job-publish-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)

	if err := s.publishSvc.PublishDueScheduled(ctx); err != nil {
		log.ErrorContext(ctx, "scheduled publish scan failed", "err", err)
	}
}
