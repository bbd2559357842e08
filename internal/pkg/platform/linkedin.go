package platform

import (
	"Crosspost/internal/api/config"
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// LinkedInAdapter 对接 LinkedIn REST 接口
type LinkedInAdapter struct {
	cfg        config.PlatformAPIConfig
	httpClient *resty.Client
}

func NewLinkedInAdapter(cfg config.PlatformAPIConfig) *LinkedInAdapter {
	timeout := cfg.TimeoutSec
	if timeout <= 0 {
		timeout = 30
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(timeout) * time.Second).
		SetHeader("X-Restli-Protocol-Version", "2.0.0")

	return &LinkedInAdapter{cfg: cfg, httpClient: client}
}

func (s *LinkedInAdapter) Name() Platform {
	return LinkedIn
}

type linkedInPublishBody struct {
	Commentary string   `json:"commentary"`
	Visibility string   `json:"visibility"`
	MediaIDs   []string `json:"mediaIds,omitempty"`
}

func (s *LinkedInAdapter) Publish(ctx context.Context, accessToken string, input PublishInput) (*PublishResult, error) {
	body := linkedInPublishBody{
		Commentary: input.Text,
		Visibility: "PUBLIC",
		MediaIDs:   input.MediaIDs,
	}

	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetBody(body).
		Post("/rest/posts")
	if err != nil {
		return nil, errors.Wrap(err, "linkedin publish request failed")
	}
	if resp.IsError() {
		return nil, errors.Errorf("linkedin publish rejected: %d %s", resp.StatusCode(), resp.String())
	}

	// LinkedIn 通过响应头返回新帖 URN
	postURN := resp.Header().Get("X-Restli-Id")
	if postURN == "" {
		return nil, errors.New("linkedin publish response missing post id header")
	}

	return &PublishResult{
		PlatformPostID: postURN,
		PlatformURL:    fmt.Sprintf("https://www.linkedin.com/feed/update/%s", postURN),
		PublishedAt:    time.Now().UTC(),
	}, nil
}

type linkedInUploadResp struct {
	Value struct {
		Image string `json:"image"`
	} `json:"value"`
}

func (s *LinkedInAdapter) UploadMedia(ctx context.Context, accessToken string, data []byte, mimeType string) (string, error) {
	var result linkedInUploadResp
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetHeader("Content-Type", mimeType).
		SetBody(bytes.NewReader(data)).
		SetResult(&result).
		Post("/rest/images?action=upload")
	if err != nil {
		return "", errors.Wrap(err, "linkedin media upload failed")
	}
	if resp.IsError() {
		return "", errors.Errorf("linkedin media upload rejected: %d %s", resp.StatusCode(), resp.String())
	}
	return result.Value.Image, nil
}

type linkedInTokenResp struct {
	AccessToken           string `json:"access_token"`
	RefreshToken          string `json:"refresh_token"`
	ExpiresIn             int64  `json:"expires_in"`
	RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in"`
}

func (s *LinkedInAdapter) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var result linkedInTokenResp
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":    "refresh_token",
			"refresh_token": refreshToken,
			"client_id":     s.cfg.ClientID,
			"client_secret": s.cfg.ClientSecret,
		}).
		SetResult(&result).
		Post("/oauth/v2/accessToken")
	if err != nil {
		return nil, errors.Wrap(err, "linkedin token refresh failed")
	}
	if resp.IsError() {
		return nil, errors.Errorf("linkedin token refresh rejected: %d %s", resp.StatusCode(), resp.String())
	}

	return &TokenPair{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresAt:    time.Now().UTC().Add(time.Duration(result.ExpiresIn) * time.Second),
	}, nil
}

type linkedInMetricsResp struct {
	ImpressionCount        int64 `json:"impressionCount"`
	UniqueImpressionsCount int64 `json:"uniqueImpressionsCount"`
	LikeCount              int64 `json:"likeCount"`
	CommentCount           int64 `json:"commentCount"`
	ShareCount             int64 `json:"shareCount"`
}

func (s *LinkedInAdapter) FetchMetrics(ctx context.Context, accessToken string, platformPostID string) (*PostMetrics, error) {
	var result linkedInMetricsResp
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetPathParam("postUrn", platformPostID).
		SetResult(&result).
		Get("/rest/socialMetadata/{postUrn}")
	if err != nil {
		return nil, errors.Wrap(err, "linkedin metrics fetch failed")
	}
	if resp.IsError() {
		return nil, errors.Errorf("linkedin metrics fetch rejected: %d %s", resp.StatusCode(), resp.String())
	}

	unique := result.UniqueImpressionsCount
	return &PostMetrics{
		Impressions: result.ImpressionCount,
		UniqueReach: &unique,
		Reactions:   result.LikeCount,
		Comments:    result.CommentCount,
		Shares:      result.ShareCount,
	}, nil
}

type linkedInProfileResp struct {
	FollowerCount int64 `json:"followerCount"`
}

func (s *LinkedInAdapter) FetchFollowerCount(ctx context.Context, accessToken string) (int64, error) {
	var result linkedInProfileResp
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&result).
		Get("/rest/networkSizes/me?edgeType=FOLLOWED_BY")
	if err != nil {
		return 0, errors.Wrap(err, "linkedin follower fetch failed")
	}
	if resp.IsError() {
		return 0, errors.Errorf("linkedin follower fetch rejected: %d %s", resp.StatusCode(), resp.String())
	}
	return result.FollowerCount, nil
}
