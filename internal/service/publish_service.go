package service

import (
	"Crosspost/internal/api/dto"
	"Crosspost/internal/model"
	"Crosspost/internal/pkg/platform"
	"Crosspost/internal/pkg/util"
	"Crosspost/internal/repository"
	"context"
	log "log/slog"
	"time"
)

// MediaStorage 发布时读取帖子媒体字节的对象存储能力
type MediaStorage interface {
	Download(ctx context.Context, objectKey string) ([]byte, error)
	Delete(ctx context.Context, objectKey string) error
}

type PublishService interface {
	// PublishPost 将帖子投递到所有未成功的目标平台。
	// 单平台失败不中断其余平台，结果落在各自的发布记录上。
	PublishPost(ctx context.Context, userID uint64, postID uint64) (*dto.PublishResultDTO, error)
	// RetryPublication 重试失败的平台投递，已成功的平台不会重发
	RetryPublication(ctx context.Context, userID uint64, postID uint64) (*dto.PublishResultDTO, error)
	// PublishDueScheduled 扫描到期的定时帖子并逐一发布，供定时任务调用
	PublishDueScheduled(ctx context.Context) error
}

type publishServiceImpl struct {
	postRepo repository.PostRepo
	pubRepo  repository.PublicationRepo
	connSvc  ConnectionService
	registry platform.Registry
	storage  MediaStorage
}

func NewPublishService(
	postRepo repository.PostRepo,
	pubRepo repository.PublicationRepo,
	connSvc ConnectionService,
	registry platform.Registry,
	storage MediaStorage,
) PublishService {
	return &publishServiceImpl{
		postRepo: postRepo,
		pubRepo:  pubRepo,
		connSvc:  connSvc,
		registry: registry,
		storage:  storage,
	}
}

func (s *publishServiceImpl) PublishPost(ctx context.Context, userID uint64, postID uint64) (*dto.PublishResultDTO, error) {
	post, err := s.postRepo.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	if post.UserID != userID {
		return nil, UnauthorizedError
	}
	if post.Status == model.PostStatusPublished {
		return nil, ErrPostStateInvalid
	}

	return s.publish(ctx, post)
}

func (s *publishServiceImpl) RetryPublication(ctx context.Context, userID uint64, postID uint64) (*dto.PublishResultDTO, error) {
	post, err := s.postRepo.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	if post.UserID != userID {
		return nil, UnauthorizedError
	}

	pubs, err := s.pubRepo.GetByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	hasFailed := false
	for _, pub := range pubs {
		if pub.Status == model.PublicationStatusFailed {
			hasFailed = true
			break
		}
	}
	if !hasFailed {
		return nil, ErrPostStateInvalid
	}

	return s.publish(ctx, post)
}

func (s *publishServiceImpl) PublishDueScheduled(ctx context.Context) error {
	due, err := s.postRepo.ListScheduledDue(ctx, time.Now())
	if err != nil {
		return err
	}

	for _, post := range due {
		if _, err := s.publish(ctx, post); err != nil {
			log.ErrorContext(ctx, "scheduled publish failed",
				"post_id", post.ID, "user_id", post.UserID, "err", err)
		}
	}
	return nil
}

// publish 对每个未成功的目标平台顺序投递，避免同一用户令牌并发刷新。
// 存储层写失败是致命错误并立即返回，平台侧失败只标记对应发布记录。
func (s *publishServiceImpl) publish(ctx context.Context, post *model.Post) (*dto.PublishResultDTO, error) {
	pubs, err := s.pubRepo.GetByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	if len(pubs) == 0 {
		return nil, ErrPublicationNotFound
	}

	now := time.Now()
	for _, pub := range pubs {
		if pub.Status == model.PublicationStatusPublished {
			continue
		}

		result, pubErr := s.publishOne(ctx, post, pub)
		if pubErr != nil {
			log.WarnContext(ctx, "platform publish failed",
				"post_id", post.ID, "platform", pub.Platform, "err", pubErr)
			if err = s.pubRepo.MarkFailed(ctx, pub.ID, pubErr.Error()); err != nil {
				return nil, err
			}
			pub.Status = model.PublicationStatusFailed
			msg := pubErr.Error()
			pub.ErrorMessage = &msg
			continue
		}

		if err = s.pubRepo.MarkPublished(ctx, pub.ID, result.PlatformPostID, result.PlatformURL, result.PublishedAt); err != nil {
			return nil, err
		}
		pub.Status = model.PublicationStatusPublished
		pub.PlatformPostID = &result.PlatformPostID
		pub.PlatformURL = &result.PlatformURL
		publishedAt := result.PublishedAt
		pub.PublishedAt = &publishedAt
		pub.ErrorMessage = nil
	}

	// 任一平台成功即视为已发布，全部失败才标记失败
	succeeded := 0
	for _, pub := range pubs {
		if pub.Status == model.PublicationStatusPublished {
			succeeded++
		}
	}

	status := model.PostStatusFailed
	var publishedAt *time.Time
	if succeeded > 0 {
		status = model.PostStatusPublished
		if post.PublishedAt != nil {
			publishedAt = post.PublishedAt
		} else {
			publishedAt = &now
		}
	}
	if err = s.postRepo.UpdatePostStatus(ctx, post.ID, status, publishedAt); err != nil {
		return nil, err
	}

	// 源媒体在所有目标平台都成功后才清理，失败的目标重试时还要用到原件
	if succeeded == len(pubs) {
		s.cleanupSourceMedia(ctx, post)
	}

	out := &dto.PublishResultDTO{
		PostID:     post.ID,
		PostStatus: status,
		Targets:    make([]*dto.PublicationDTO, 0, len(pubs)),
	}
	for _, pub := range pubs {
		out.Targets = append(out.Targets, convertPublicationDTO(pub))
	}
	return out, nil
}

// cleanupSourceMedia 删除已不再需要的源媒体对象。
// 删除失败只记日志，不影响发布结果。
func (s *publishServiceImpl) cleanupSourceMedia(ctx context.Context, post *model.Post) {
	for _, m := range post.Media {
		if err := s.storage.Delete(ctx, m.ObjectKey); err != nil {
			log.WarnContext(ctx, "source media cleanup failed",
				"post_id", post.ID, "object_key", m.ObjectKey, "err", err)
		}
	}
}

func (s *publishServiceImpl) publishOne(ctx context.Context, post *model.Post, pub *model.PostPublication) (*platform.PublishResult, error) {
	p, ok := platform.Parse(pub.Platform)
	if !ok {
		return nil, ErrPlatformInvalid
	}
	adapter, ok := s.registry.Get(p)
	if !ok {
		return nil, ErrPlatformInvalid
	}

	conn, err := s.connSvc.GetActiveConnection(ctx, post.UserID, p)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, ErrConnectionNotFound
	}

	accessToken, err := s.connSvc.ResolveAccessToken(ctx, conn, adapter)
	if err != nil {
		return nil, err
	}

	mediaIDs := make([]string, 0, len(post.Media))
	for _, m := range post.Media {
		data, err := s.storage.Download(ctx, m.ObjectKey)
		if err != nil {
			log.WarnContext(ctx, "media object not readable",
				"post_id", post.ID, "object_key", m.ObjectKey, "err", err)
			return nil, ErrFileNotExist
		}
		// 发布链路按对象扩展名映射 MIME，不重新嗅探已落库的字节
		mediaID, err := adapter.UploadMedia(ctx, accessToken, data, util.MimeByExt(m.ObjectKey))
		if err != nil {
			return nil, err
		}
		mediaIDs = append(mediaIDs, mediaID)
	}

	text := platform.BuildPublishText(post.Body, post.Tags, platform.CharLimit(p))
	return adapter.Publish(ctx, accessToken, platform.PublishInput{
		Text:     text,
		MediaIDs: mediaIDs,
	})
}
