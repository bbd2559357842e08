package service

import (
	"Crosspost/internal/api/dto"
	"Crosspost/internal/model"
	"Crosspost/internal/pkg/platform"
	"Crosspost/internal/repository"
	"context"
	"time"

	"github.com/jinzhu/copier"
)

type PostService interface {
	// CreatePost 创建草稿或定时帖子，并为每个目标平台预建发布记录
	CreatePost(ctx context.Context, userID uint64, req *dto.PostBaseDTO) (*dto.PostDTO, error)
	GetPost(ctx context.Context, userID uint64, postID uint64) (*dto.PostDTO, error)
	ListPosts(ctx context.Context, userID uint64, page, pageSize int) ([]*dto.PostDTO, error)
	// UpdatePost 仅允许修改未发布的帖子
	UpdatePost(ctx context.Context, userID uint64, postID uint64, req *dto.PostBaseDTO) (*dto.PostDTO, error)
	DeletePost(ctx context.Context, userID uint64, postID uint64) error
}

type postServiceImpl struct {
	postRepo repository.PostRepo
}

func NewPostService(postRepo repository.PostRepo) PostService {
	return &postServiceImpl{
		postRepo: postRepo,
	}
}

func (s *postServiceImpl) CreatePost(ctx context.Context, userID uint64, req *dto.PostBaseDTO) (*dto.PostDTO, error) {
	platforms, err := parsePlatforms(req.Platforms)
	if err != nil {
		return nil, err
	}

	scheduledAt, err := parseScheduledAt(req.ScheduledAt)
	if err != nil {
		return nil, err
	}

	status := model.PostStatusDraft
	if scheduledAt != nil {
		status = model.PostStatusScheduled
	}

	post := &model.Post{
		UserID:      userID,
		Title:       req.Title,
		Body:        req.Body,
		Tags:        model.TagList(req.Tags),
		Status:      status,
		ScheduledAt: scheduledAt,
	}

	media := buildMedia(req.Medias)
	publications := make([]*model.PostPublication, 0, len(platforms))
	for _, p := range platforms {
		publications = append(publications, &model.PostPublication{
			UserID:   userID,
			Platform: string(p),
			Status:   model.PublicationStatusPending,
		})
	}

	if err = s.postRepo.CreatePost(ctx, post, media, publications); err != nil {
		return nil, err
	}

	return s.GetPost(ctx, userID, post.ID)
}

func (s *postServiceImpl) GetPost(ctx context.Context, userID uint64, postID uint64) (*dto.PostDTO, error) {
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
	return convertPostDTO(post), nil
}

func (s *postServiceImpl) ListPosts(ctx context.Context, userID uint64, page, pageSize int) ([]*dto.PostDTO, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	posts, err := s.postRepo.GetPostsByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.PostDTO, 0, len(posts))
	for _, post := range posts {
		out = append(out, convertPostDTO(post))
	}
	return out, nil
}

func (s *postServiceImpl) UpdatePost(ctx context.Context, userID uint64, postID uint64, req *dto.PostBaseDTO) (*dto.PostDTO, error) {
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
		return nil, ErrPostPublishedImmutable
	}

	scheduledAt, err := parseScheduledAt(req.ScheduledAt)
	if err != nil {
		return nil, err
	}

	post.Title = req.Title
	post.Body = req.Body
	post.Tags = model.TagList(req.Tags)
	post.ScheduledAt = scheduledAt
	if scheduledAt != nil {
		post.Status = model.PostStatusScheduled
	} else if post.Status == model.PostStatusScheduled {
		post.Status = model.PostStatusDraft
	}

	if err = s.postRepo.UpdatePost(ctx, post, buildMedia(req.Medias)); err != nil {
		return nil, err
	}

	return s.GetPost(ctx, userID, postID)
}

func (s *postServiceImpl) DeletePost(ctx context.Context, userID uint64, postID uint64) error {
	post, err := s.postRepo.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrPostNotFound
	}
	if post.UserID != userID {
		return UnauthorizedError
	}
	return s.postRepo.DeletePost(ctx, postID)
}

func parsePlatforms(names []string) ([]platform.Platform, error) {
	if len(names) == 0 {
		return nil, ErrParamInvalid
	}
	seen := make(map[platform.Platform]bool, len(names))
	out := make([]platform.Platform, 0, len(names))
	for _, name := range names {
		p, ok := platform.Parse(name)
		if !ok {
			return nil, ErrPlatformInvalid
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out, nil
}

func parseScheduledAt(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, ErrParamInvalid
	}
	return &t, nil
}

func buildMedia(items []*dto.MediaBaseDTO) []*model.PostMedia {
	media := make([]*model.PostMedia, 0, len(items))
	for i, item := range items {
		media = append(media, &model.PostMedia{
			FileType:  item.FileType,
			ObjectKey: item.ObjectKey,
			SortOrder: int8(i),
		})
	}
	return media
}

func convertPostDTO(post *model.Post) *dto.PostDTO {
	out := &dto.PostDTO{}
	_ = copier.Copy(out, post)
	out.Tags = post.Tags
	if out.Tags == nil {
		out.Tags = []string{}
	}
	out.CreatedAt = post.CreatedAt.Format("2006-01-02 15:04:05")
	out.UpdatedAt = post.UpdatedAt.Format("2006-01-02 15:04:05")
	out.ScheduledAt = formatTimePtr(post.ScheduledAt)
	out.PublishedAt = formatTimePtr(post.PublishedAt)

	out.Medias = make([]*dto.MediaBaseDTO, 0, len(post.Media))
	for _, m := range post.Media {
		out.Medias = append(out.Medias, &dto.MediaBaseDTO{
			FileType:  m.FileType,
			ObjectKey: m.ObjectKey,
		})
	}

	out.Targets = make([]*dto.PublicationDTO, 0, len(post.Publications))
	for i := range post.Publications {
		out.Targets = append(out.Targets, convertPublicationDTO(&post.Publications[i]))
	}
	return out
}

func convertPublicationDTO(pub *model.PostPublication) *dto.PublicationDTO {
	return &dto.PublicationDTO{
		ID:             pub.ID,
		Platform:       pub.Platform,
		Status:         pub.Status,
		PlatformPostID: pub.PlatformPostID,
		PlatformURL:    pub.PlatformURL,
		PublishedAt:    formatTimePtr(pub.PublishedAt),
		ErrorMessage:   pub.ErrorMessage,
	}
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02 15:04:05")
	return &s
}
