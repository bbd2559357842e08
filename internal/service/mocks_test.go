package service

import (
	"Crosspost/internal/api/dto"
	"Crosspost/internal/model"
	"Crosspost/internal/pkg/platform"
	"Crosspost/internal/repository"
	"context"
	"errors"
	"sort"
	"time"
)

// 内存版仓储实现，只覆盖被测路径需要的行为

type fakePostRepo struct {
	posts         map[uint64]*model.Post
	statusUpdates map[uint64]string
}

func newFakePostRepo(posts ...*model.Post) *fakePostRepo {
	repo := &fakePostRepo{
		posts:         make(map[uint64]*model.Post),
		statusUpdates: make(map[uint64]string),
	}
	for _, p := range posts {
		repo.posts[p.ID] = p
	}
	return repo
}

func (s *fakePostRepo) CreatePost(_ context.Context, post *model.Post, media []*model.PostMedia, publications []*model.PostPublication) error {
	if post.ID == 0 {
		post.ID = uint64(len(s.posts) + 1)
	}
	for _, m := range media {
		m.PostID = post.ID
		post.Media = append(post.Media, *m)
	}
	for _, pub := range publications {
		pub.PostID = post.ID
		post.Publications = append(post.Publications, *pub)
	}
	s.posts[post.ID] = post
	return nil
}

func (s *fakePostRepo) GetPost(_ context.Context, id uint64) (*model.Post, error) {
	return s.posts[id], nil
}

func (s *fakePostRepo) GetPostsByUser(_ context.Context, userID uint64, _, _ int) ([]*model.Post, error) {
	out := make([]*model.Post, 0)
	for _, p := range s.posts {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakePostRepo) UpdatePost(_ context.Context, post *model.Post, media []*model.PostMedia) error {
	stored, ok := s.posts[post.ID]
	if !ok {
		return errors.New("post not found")
	}
	stored.Title = post.Title
	stored.Body = post.Body
	stored.Tags = post.Tags
	stored.Status = post.Status
	stored.ScheduledAt = post.ScheduledAt
	stored.Media = nil
	for _, m := range media {
		stored.Media = append(stored.Media, *m)
	}
	return nil
}

func (s *fakePostRepo) UpdatePostStatus(_ context.Context, id uint64, status string, publishedAt *time.Time) error {
	post, ok := s.posts[id]
	if !ok {
		return errors.New("post not found")
	}
	post.Status = status
	if publishedAt != nil {
		post.PublishedAt = publishedAt
	}
	s.statusUpdates[id] = status
	return nil
}

func (s *fakePostRepo) DeletePost(_ context.Context, id uint64) error {
	delete(s.posts, id)
	return nil
}

func (s *fakePostRepo) ListScheduledDue(_ context.Context, now time.Time) ([]*model.Post, error) {
	out := make([]*model.Post, 0)
	for _, p := range s.posts {
		if p.Status == model.PostStatusScheduled && p.ScheduledAt != nil && !p.ScheduledAt.After(now) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakePostRepo) ListDeletedBefore(_ context.Context, _ time.Time) ([]*model.Post, error) {
	return nil, nil
}

type fakePublicationRepo struct {
	pubs map[uint64]*model.PostPublication
}

func newFakePublicationRepo(pubs ...*model.PostPublication) *fakePublicationRepo {
	repo := &fakePublicationRepo{pubs: make(map[uint64]*model.PostPublication)}
	for _, pub := range pubs {
		repo.pubs[pub.ID] = pub
	}
	return repo
}

func (s *fakePublicationRepo) GetByID(_ context.Context, id uint64) (*model.PostPublication, error) {
	return s.pubs[id], nil
}

func (s *fakePublicationRepo) GetByPost(_ context.Context, postID uint64) ([]*model.PostPublication, error) {
	out := make([]*model.PostPublication, 0)
	for _, pub := range s.pubs {
		if pub.PostID == postID {
			out = append(out, pub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakePublicationRepo) MarkPublished(_ context.Context, id uint64, platformPostID, platformURL string, publishedAt time.Time) error {
	pub, ok := s.pubs[id]
	if !ok {
		return errors.New("publication not found")
	}
	pub.Status = model.PublicationStatusPublished
	pub.PlatformPostID = &platformPostID
	pub.PlatformURL = &platformURL
	pub.PublishedAt = &publishedAt
	pub.ErrorMessage = nil
	return nil
}

func (s *fakePublicationRepo) MarkFailed(_ context.Context, id uint64, errorMessage string) error {
	pub, ok := s.pubs[id]
	if !ok {
		return errors.New("publication not found")
	}
	pub.Status = model.PublicationStatusFailed
	pub.ErrorMessage = &errorMessage
	return nil
}

func (s *fakePublicationRepo) ListPublishedSince(_ context.Context, platformName string, since time.Time) ([]*model.PostPublication, error) {
	out := make([]*model.PostPublication, 0)
	for _, pub := range s.pubs {
		if pub.Platform != platformName || pub.Status != model.PublicationStatusPublished {
			continue
		}
		if pub.PlatformPostID == nil || pub.PublishedAt == nil || pub.PublishedAt.Before(since) {
			continue
		}
		out = append(out, pub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeMetricEventRepo struct {
	events []*model.MetricEvent
	window []*repository.LatestPublicationEvent
}

func (s *fakeMetricEventRepo) InsertEvent(_ context.Context, event *model.MetricEvent) error {
	s.events = append(s.events, event)
	return nil
}

func (s *fakeMetricEventRepo) LatestObservedAtByPublicationIDs(_ context.Context, publicationIDs []uint64) (map[uint64]time.Time, error) {
	out := make(map[uint64]time.Time)
	wanted := make(map[uint64]bool, len(publicationIDs))
	for _, id := range publicationIDs {
		wanted[id] = true
	}
	for _, e := range s.events {
		if !wanted[e.PostPublicationID] {
			continue
		}
		if cur, ok := out[e.PostPublicationID]; !ok || e.ObservedAt.After(cur) {
			out[e.PostPublicationID] = e.ObservedAt
		}
	}
	return out, nil
}

func (s *fakeMetricEventRepo) ListEventsForPublication(_ context.Context, publicationID uint64, limit int) ([]*model.MetricEvent, error) {
	out := make([]*model.MetricEvent, 0)
	for _, e := range s.events {
		if e.PostPublicationID == publicationID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ObservedAt.After(out[j].ObservedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeMetricEventRepo) LatestEventsForUserWindow(_ context.Context, _ uint64, _ time.Time, platformName *string) ([]*repository.LatestPublicationEvent, error) {
	if platformName == nil {
		return s.window, nil
	}
	out := make([]*repository.LatestPublicationEvent, 0)
	for _, e := range s.window {
		if e.Platform == *platformName {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeSnapshotRepo struct {
	snapshots []*model.MetricSnapshot
}

func (s *fakeSnapshotRepo) InsertSnapshot(_ context.Context, snapshot *model.MetricSnapshot) error {
	s.snapshots = append(s.snapshots, snapshot)
	return nil
}

func (s *fakeSnapshotRepo) GetLatest(_ context.Context, userID uint64, platformPostID, platformName string) (*model.MetricSnapshot, error) {
	var latest *model.MetricSnapshot
	for _, snap := range s.snapshots {
		if snap.UserID != userID || snap.PlatformPostID != platformPostID || snap.Platform != platformName {
			continue
		}
		if latest == nil || snap.FetchedAt.After(latest.FetchedAt) {
			latest = snap
		}
	}
	return latest, nil
}

func (s *fakeSnapshotRepo) GetSeries(_ context.Context, userID uint64, platformPostID, platformName string, limit int, since time.Time) ([]*model.MetricSnapshot, error) {
	out := make([]*model.MetricSnapshot, 0)
	for _, snap := range s.snapshots {
		if snap.UserID != userID || snap.PlatformPostID != platformPostID || snap.Platform != platformName {
			continue
		}
		if !since.IsZero() && snap.FetchedAt.Before(since) {
			continue
		}
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FetchedAt.Before(out[j].FetchedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeSnapshotRepo) ListByPlatformPostIDs(_ context.Context, userID uint64, platformPostIDs []string) ([]*model.MetricSnapshot, error) {
	wanted := make(map[string]bool, len(platformPostIDs))
	for _, id := range platformPostIDs {
		wanted[id] = true
	}
	out := make([]*model.MetricSnapshot, 0)
	for _, snap := range s.snapshots {
		if snap.UserID == userID && wanted[snap.PlatformPostID] {
			out = append(out, snap)
		}
	}
	return out, nil
}

type fakeFetchLogRepo struct {
	logs []*model.FetchLog
}

func (s *fakeFetchLogRepo) InsertLog(_ context.Context, fetchLog *model.FetchLog) error {
	s.logs = append(s.logs, fetchLog)
	return nil
}

func (s *fakeFetchLogRepo) SumCallsSince(_ context.Context, userID uint64, platformName string, since time.Time) (int64, error) {
	var total int64
	for _, l := range s.logs {
		if l.UserID == userID && l.Platform == platformName && !l.FetchedAt.Before(since) {
			total += int64(l.APICallsUsed)
		}
	}
	return total, nil
}

type fakeFollowerRepo struct {
	snapshots []*model.FollowerSnapshot
}

func (s *fakeFollowerRepo) SaveOrUpdateSnapshot(_ context.Context, snapshot *model.FollowerSnapshot) error {
	for _, existing := range s.snapshots {
		if existing.UserID == snapshot.UserID && existing.Platform == snapshot.Platform && existing.SnapshotDate.Equal(snapshot.SnapshotDate) {
			existing.FollowerCount = snapshot.FollowerCount
			existing.NewFollowers = snapshot.NewFollowers
			return nil
		}
	}
	s.snapshots = append(s.snapshots, snapshot)
	return nil
}

func (s *fakeFollowerRepo) GetRange(_ context.Context, userID uint64, platformName string, from, to time.Time) ([]*model.FollowerSnapshot, error) {
	out := make([]*model.FollowerSnapshot, 0)
	for _, snap := range s.snapshots {
		if snap.UserID != userID || snap.Platform != platformName {
			continue
		}
		if snap.SnapshotDate.Before(from) || snap.SnapshotDate.After(to) {
			continue
		}
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SnapshotDate.Before(out[j].SnapshotDate) })
	return out, nil
}

// fakeConnService 始终返回同一个连接与明文令牌
type fakeConnService struct {
	conn  *model.SocialConnection
	token string
	err   error
}

func (s *fakeConnService) Connect(_ context.Context, _ uint64, _ *dto.ConnectDTO) error {
	return nil
}

func (s *fakeConnService) ListConnections(_ context.Context, _ uint64) ([]*dto.ConnectionDTO, error) {
	return nil, nil
}

func (s *fakeConnService) Disconnect(_ context.Context, _ uint64, _ platform.Platform) error {
	return nil
}

func (s *fakeConnService) GetActiveConnection(_ context.Context, _ uint64, _ platform.Platform) (*model.SocialConnection, error) {
	return s.conn, s.err
}

func (s *fakeConnService) ResolveAccessToken(_ context.Context, _ *model.SocialConnection, _ platform.Adapter) (string, error) {
	return s.token, s.err
}

// fakeAdapter 行为由函数字段注入
type fakeAdapter struct {
	name       platform.Platform
	publishFn  func(input platform.PublishInput) (*platform.PublishResult, error)
	uploadFn   func(data []byte, mimeType string) (string, error)
	metricsFn  func(platformPostID string) (*platform.PostMetrics, error)
	followerFn func() (int64, error)
}

func (s *fakeAdapter) Name() platform.Platform {
	return s.name
}

func (s *fakeAdapter) Publish(_ context.Context, _ string, input platform.PublishInput) (*platform.PublishResult, error) {
	if s.publishFn == nil {
		return nil, errors.New("publish not supported")
	}
	return s.publishFn(input)
}

func (s *fakeAdapter) UploadMedia(_ context.Context, _ string, data []byte, mimeType string) (string, error) {
	if s.uploadFn == nil {
		return "media-1", nil
	}
	return s.uploadFn(data, mimeType)
}

func (s *fakeAdapter) RefreshTokens(_ context.Context, _ string) (*platform.TokenPair, error) {
	return nil, errors.New("refresh not supported")
}

func (s *fakeAdapter) FetchMetrics(_ context.Context, _ string, platformPostID string) (*platform.PostMetrics, error) {
	if s.metricsFn == nil {
		return nil, errors.New("metrics not supported")
	}
	return s.metricsFn(platformPostID)
}

func (s *fakeAdapter) FetchFollowerCount(_ context.Context, _ string) (int64, error) {
	if s.followerFn == nil {
		return 0, errors.New("followers not supported")
	}
	return s.followerFn()
}

type fakeStorage struct {
	objects map[string][]byte
}

func (s *fakeStorage) Download(_ context.Context, objectKey string) ([]byte, error) {
	data, ok := s.objects[objectKey]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func (s *fakeStorage) Delete(_ context.Context, objectKey string) error {
	delete(s.objects, objectKey)
	return nil
}
