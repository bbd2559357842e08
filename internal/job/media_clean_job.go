package job

import (
	"Crosspost/internal/pkg/consts"
	"Crosspost/internal/pkg/logger"
	"Crosspost/internal/pkg/minio"
	"Crosspost/internal/repository"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

// MediaCleanupJob 清理软删超过保留期的帖子挂接的媒体对象
type MediaCleanupJob struct {
	postRepo repository.PostRepo
}

func NewMediaCleanupJob(postRepo repository.PostRepo) *MediaCleanupJob {
	return &MediaCleanupJob{
		postRepo: postRepo,
	}
}

func (s *MediaCleanupJob) Run() {
	traceID := "job-cleanup-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)

	cutoff := time.Now().AddDate(0, 0, -consts.MediaCleanupAfterDays)
	posts, err := s.postRepo.ListDeletedBefore(ctx, cutoff)
	if err != nil {
		log.ErrorContext(ctx, "list deleted posts failed", "err", err)
		return
	}

	count := 0
	for _, post := range posts {
		for _, media := range post.Media {
			if err = minio.DeleteFile(ctx, media.ObjectKey); err != nil {
				log.ErrorContext(ctx, "delete media object failed",
					"post_id", post.ID, "object_key", media.ObjectKey, "err", err)
				continue
			}
			count++
		}
	}

	if count > 0 {
		log.InfoContext(ctx, "media cleanup finished", "cleaned_count", count)
	}
}
