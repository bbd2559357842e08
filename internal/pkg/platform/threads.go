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

// ThreadsAdapter 对接 Threads Graph API。
// 发布是两段式：先创建媒体容器，再发布容器。
type ThreadsAdapter struct {
	cfg        config.PlatformAPIConfig
	httpClient *resty.Client
}

func NewThreadsAdapter(cfg config.PlatformAPIConfig) *ThreadsAdapter {
	timeout := cfg.TimeoutSec
	if timeout <= 0 {
		timeout = 30
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(timeout) * time.Second)

	return &ThreadsAdapter{cfg: cfg, httpClient: client}
}

func (s *ThreadsAdapter) Name() Platform {
	return Threads
}

type threadsIDResp struct {
	ID string `json:"id"`
}

func (s *ThreadsAdapter) Publish(ctx context.Context, accessToken string, input PublishInput) (*PublishResult, error) {
	form := map[string]string{
		"media_type": "TEXT",
		"text":       input.Text,
	}
	if len(input.MediaIDs) > 0 {
		form["media_type"] = "IMAGE"
		form["attached_media"] = input.MediaIDs[0]
	}

	var container threadsIDResp
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetFormData(form).
		SetResult(&container).
		Post("/v1.0/me/threads")
	if err != nil {
		return nil, errors.Wrap(err, "threads container creation failed")
	}
	if resp.IsError() {
		return nil, errors.Errorf("threads container creation rejected: %d %s", resp.StatusCode(), resp.String())
	}

	var published threadsIDResp
	resp, err = s.httpClient.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetFormData(map[string]string{"creation_id": container.ID}).
		SetResult(&published).
		Post("/v1.0/me/threads_publish")
	if err != nil {
		return nil, errors.Wrap(err, "threads publish request failed")
	}
	if resp.IsError() {
		return nil, errors.Errorf("threads publish rejected: %d %s", resp.StatusCode(), resp.String())
	}

	return &PublishResult{
		PlatformPostID: published.ID,
		PlatformURL:    fmt.Sprintf("https://www.threads.net/post/%s", published.ID),
		PublishedAt:    time.Now().UTC(),
	}, nil
}

func (s *ThreadsAdapter) UploadMedia(ctx context.Context, accessToken string, data []byte, mimeType string) (string, error) {
	var result threadsIDResp
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetFileReader("source", "media", bytes.NewReader(data)).
		SetFormData(map[string]string{"media_type": mimeType}).
		SetResult(&result).
		Post(s.cfg.UploadURL)
	if err != nil {
		return "", errors.Wrap(err, "threads media upload failed")
	}
	if resp.IsError() {
		return "", errors.Errorf("threads media upload rejected: %d %s", resp.StatusCode(), resp.String())
	}
	return result.ID, nil
}

type threadsTokenResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (s *ThreadsAdapter) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var result threadsTokenResp
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"grant_type":   "th_refresh_token",
			"access_token": refreshToken,
		}).
		SetResult(&result).
		Get("/refresh_access_token")
	if err != nil {
		return nil, errors.Wrap(err, "threads token refresh failed")
	}
	if resp.IsError() {
		return nil, errors.Errorf("threads token refresh rejected: %d %s", resp.StatusCode(), resp.String())
	}

	// Threads 长效令牌自续期，刷新令牌与访问令牌同体
	return &TokenPair{
		AccessToken:  result.AccessToken,
		RefreshToken: result.AccessToken,
		ExpiresAt:    time.Now().UTC().Add(time.Duration(result.ExpiresIn) * time.Second),
	}, nil
}

type threadsInsightsResp struct {
	Data []struct {
		Name   string `json:"name"`
		Values []struct {
			Value int64 `json:"value"`
		} `json:"values"`
	} `json:"data"`
}

func (s *ThreadsAdapter) FetchMetrics(ctx context.Context, accessToken string, platformPostID string) (*PostMetrics, error) {
	var result threadsInsightsResp
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetQueryParam("metric", "views,likes,replies,reposts,quotes").
		SetPathParam("mediaID", platformPostID).
		SetResult(&result).
		Get("/v1.0/{mediaID}/insights")
	if err != nil {
		return nil, errors.Wrap(err, "threads metrics fetch failed")
	}
	if resp.IsError() {
		return nil, errors.Errorf("threads metrics fetch rejected: %d %s", resp.StatusCode(), resp.String())
	}

	metrics := &PostMetrics{}
	for _, entry := range result.Data {
		if len(entry.Values) == 0 {
			continue
		}
		v := entry.Values[0].Value
		switch entry.Name {
		case "views":
			metrics.Impressions = v
		case "likes":
			metrics.Reactions = v
		case "replies":
			metrics.Comments = v
		case "reposts":
			metrics.Shares = v
		case "quotes":
			quotes := v
			metrics.Quotes = &quotes
		}
	}
	return metrics, nil
}

func (s *ThreadsAdapter) FetchFollowerCount(ctx context.Context, accessToken string) (int64, error) {
	var result threadsInsightsResp
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetQueryParam("metric", "followers_count").
		SetResult(&result).
		Get("/v1.0/me/threads_insights")
	if err != nil {
		return 0, errors.Wrap(err, "threads follower fetch failed")
	}
	if resp.IsError() {
		return 0, errors.Errorf("threads follower fetch rejected: %d %s", resp.StatusCode(), resp.String())
	}

	for _, entry := range result.Data {
		if entry.Name == "followers_count" && len(entry.Values) > 0 {
			return entry.Values[0].Value, nil
		}
	}
	return 0, errors.New("threads insights response missing followers_count")
}
