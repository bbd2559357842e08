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

// TwitterAdapter 对接 X/Twitter v2 接口
type TwitterAdapter struct {
	cfg        config.PlatformAPIConfig
	httpClient *resty.Client
}

func NewTwitterAdapter(cfg config.PlatformAPIConfig) *TwitterAdapter {
	timeout := cfg.TimeoutSec
	if timeout <= 0 {
		timeout = 20
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(timeout) * time.Second)

	return &TwitterAdapter{cfg: cfg, httpClient: client}
}

func (s *TwitterAdapter) Name() Platform {
	return Twitter
}

type twitterPublishBody struct {
	Text  string        `json:"text"`
	Media *twitterMedia `json:"media,omitempty"`
}

type twitterMedia struct {
	MediaIDs []string `json:"media_ids"`
}

type twitterPublishResp struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

func (s *TwitterAdapter) Publish(ctx context.Context, accessToken string, input PublishInput) (*PublishResult, error) {
	body := twitterPublishBody{Text: input.Text}
	if len(input.MediaIDs) > 0 {
		body.Media = &twitterMedia{MediaIDs: input.MediaIDs}
	}

	var result twitterPublishResp
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetBody(body).
		SetResult(&result).
		Post("/2/tweets")
	if err != nil {
		return nil, errors.Wrap(err, "twitter publish request failed")
	}
	if resp.IsError() {
		return nil, errors.Errorf("twitter publish rejected: %d %s", resp.StatusCode(), resp.String())
	}

	return &PublishResult{
		PlatformPostID: result.Data.ID,
		PlatformURL:    fmt.Sprintf("https://x.com/i/status/%s", result.Data.ID),
		PublishedAt:    time.Now().UTC(),
	}, nil
}

type twitterUploadResp struct {
	MediaIDString string `json:"media_id_string"`
}

func (s *TwitterAdapter) UploadMedia(ctx context.Context, accessToken string, data []byte, mimeType string) (string, error) {
	var result twitterUploadResp
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetFileReader("media", "media", bytes.NewReader(data)).
		SetFormData(map[string]string{"media_category": "tweet_image", "media_type": mimeType}).
		SetResult(&result).
		Post(s.cfg.UploadURL)
	if err != nil {
		return "", errors.Wrap(err, "twitter media upload failed")
	}
	if resp.IsError() {
		return "", errors.Errorf("twitter media upload rejected: %d %s", resp.StatusCode(), resp.String())
	}
	return result.MediaIDString, nil
}

type twitterTokenResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (s *TwitterAdapter) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var result twitterTokenResp
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":    "refresh_token",
			"refresh_token": refreshToken,
			"client_id":     s.cfg.ClientID,
		}).
		SetBasicAuth(s.cfg.ClientID, s.cfg.ClientSecret).
		SetResult(&result).
		Post("/2/oauth2/token")
	if err != nil {
		return nil, errors.Wrap(err, "twitter token refresh failed")
	}
	if resp.IsError() {
		return nil, errors.Errorf("twitter token refresh rejected: %d %s", resp.StatusCode(), resp.String())
	}

	return &TokenPair{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresAt:    time.Now().UTC().Add(time.Duration(result.ExpiresIn) * time.Second),
	}, nil
}

type twitterMetricsResp struct {
	Data struct {
		PublicMetrics struct {
			ImpressionCount int64 `json:"impression_count"`
			LikeCount       int64 `json:"like_count"`
			ReplyCount      int64 `json:"reply_count"`
			RetweetCount    int64 `json:"retweet_count"`
			QuoteCount      int64 `json:"quote_count"`
			BookmarkCount   int64 `json:"bookmark_count"`
		} `json:"public_metrics"`
	} `json:"data"`
}

func (s *TwitterAdapter) FetchMetrics(ctx context.Context, accessToken string, platformPostID string) (*PostMetrics, error) {
	var result twitterMetricsResp
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetQueryParam("tweet.fields", "public_metrics").
		SetResult(&result).
		Get("/2/tweets/" + platformPostID)
	if err != nil {
		return nil, errors.Wrap(err, "twitter metrics fetch failed")
	}
	if resp.IsError() {
		return nil, errors.Errorf("twitter metrics fetch rejected: %d %s", resp.StatusCode(), resp.String())
	}

	pm := result.Data.PublicMetrics
	return &PostMetrics{
		Impressions: pm.ImpressionCount,
		Reactions:   pm.LikeCount,
		Comments:    pm.ReplyCount,
		Shares:      pm.RetweetCount,
		Quotes:      &pm.QuoteCount,
		Bookmarks:   &pm.BookmarkCount,
	}, nil
}

type twitterUserResp struct {
	Data struct {
		PublicMetrics struct {
			FollowersCount int64 `json:"followers_count"`
		} `json:"public_metrics"`
	} `json:"data"`
}

func (s *TwitterAdapter) FetchFollowerCount(ctx context.Context, accessToken string) (int64, error) {
	var result twitterUserResp
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetQueryParam("user.fields", "public_metrics").
		SetResult(&result).
		Get("/2/users/me")
	if err != nil {
		return 0, errors.Wrap(err, "twitter follower fetch failed")
	}
	if resp.IsError() {
		return 0, errors.Errorf("twitter follower fetch rejected: %d %s", resp.StatusCode(), resp.String())
	}
	return result.Data.PublicMetrics.FollowersCount, nil
}
