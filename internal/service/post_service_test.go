package service

import (
	"Crosspost/internal/api/dto"
	"Crosspost/internal/model"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func basePostReq() *dto.PostBaseDTO {
	return &dto.PostBaseDTO{
		Title:     "release notes",
		Body:      "what we shipped this week",
		Tags:      []string{"golang", "devlog"},
		Platforms: []string{"twitter", "linkedin"},
	}
}

func TestCreatePostDraftWithTargets(t *testing.T) {
	repo := newFakePostRepo()
	svc := NewPostService(repo)

	out, err := svc.CreatePost(context.Background(), 10, basePostReq())
	require.NoError(t, err)

	assert.Equal(t, model.PostStatusDraft, out.Status)
	assert.Nil(t, out.ScheduledAt)
	require.Len(t, out.Targets, 2)
	for _, target := range out.Targets {
		assert.Equal(t, model.PublicationStatusPending, target.Status)
	}
}

func TestCreatePostScheduled(t *testing.T) {
	repo := newFakePostRepo()
	svc := NewPostService(repo)

	when := time.Now().Add(2 * time.Hour).UTC().Format(time.RFC3339)
	req := basePostReq()
	req.ScheduledAt = &when

	out, err := svc.CreatePost(context.Background(), 10, req)
	require.NoError(t, err)
	assert.Equal(t, model.PostStatusScheduled, out.Status)
	require.NotNil(t, out.ScheduledAt)
}

func TestCreatePostDedupsPlatforms(t *testing.T) {
	repo := newFakePostRepo()
	svc := NewPostService(repo)

	req := basePostReq()
	req.Platforms = []string{"twitter", "twitter"}

	out, err := svc.CreatePost(context.Background(), 10, req)
	require.NoError(t, err)
	assert.Len(t, out.Targets, 1)
}

func TestCreatePostRejectsUnknownPlatform(t *testing.T) {
	svc := NewPostService(newFakePostRepo())

	req := basePostReq()
	req.Platforms = []string{"twitter", "myspace"}
	_, err := svc.CreatePost(context.Background(), 10, req)
	assert.ErrorIs(t, err, ErrPlatformInvalid)

	req.Platforms = nil
	_, err = svc.CreatePost(context.Background(), 10, req)
	assert.ErrorIs(t, err, ErrParamInvalid)
}

func TestCreatePostRejectsBadScheduleTime(t *testing.T) {
	svc := NewPostService(newFakePostRepo())

	bad := "tomorrow at noon"
	req := basePostReq()
	req.ScheduledAt = &bad
	_, err := svc.CreatePost(context.Background(), 10, req)
	assert.ErrorIs(t, err, ErrParamInvalid)
}

func TestUpdatePostRejectsPublished(t *testing.T) {
	repo := newFakePostRepo(&model.Post{
		ID: 1, UserID: 10, Status: model.PostStatusPublished,
	})
	svc := NewPostService(repo)

	_, err := svc.UpdatePost(context.Background(), 10, 1, basePostReq())
	assert.ErrorIs(t, err, ErrPostPublishedImmutable)
}

func TestUpdatePostRewritesDraft(t *testing.T) {
	repo := newFakePostRepo(&model.Post{
		ID: 1, UserID: 10, Title: "old", Body: "old body", Status: model.PostStatusDraft,
	})
	svc := NewPostService(repo)

	out, err := svc.UpdatePost(context.Background(), 10, 1, basePostReq())
	require.NoError(t, err)
	assert.Equal(t, "release notes", out.Title)
	assert.Equal(t, model.PostStatusDraft, out.Status)
}

func TestUpdatePostClearingScheduleRevertsToDraft(t *testing.T) {
	when := time.Now().Add(time.Hour)
	repo := newFakePostRepo(&model.Post{
		ID: 1, UserID: 10, Status: model.PostStatusScheduled, ScheduledAt: &when,
	})
	svc := NewPostService(repo)

	out, err := svc.UpdatePost(context.Background(), 10, 1, basePostReq())
	require.NoError(t, err)
	assert.Equal(t, model.PostStatusDraft, out.Status)
	assert.Nil(t, out.ScheduledAt)
}

func TestGetPostOwnership(t *testing.T) {
	repo := newFakePostRepo(&model.Post{ID: 1, UserID: 10, Status: model.PostStatusDraft})
	svc := NewPostService(repo)

	_, err := svc.GetPost(context.Background(), 99, 1)
	assert.ErrorIs(t, err, UnauthorizedError)

	_, err = svc.GetPost(context.Background(), 10, 404)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestDeletePost(t *testing.T) {
	repo := newFakePostRepo(&model.Post{ID: 1, UserID: 10, Status: model.PostStatusDraft})
	svc := NewPostService(repo)

	require.NoError(t, svc.DeletePost(context.Background(), 10, 1))
	err := svc.DeletePost(context.Background(), 10, 1)
	assert.ErrorIs(t, err, ErrPostNotFound)
}
