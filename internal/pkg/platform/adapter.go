package platform

import (
	"context"
	"time"
)

// PublishInput 发布一条帖子所需的平台侧输入
type PublishInput struct {
	Text     string
	MediaIDs []string
}

// PublishResult 平台返回的发布结果
type PublishResult struct {
	PlatformPostID string
	PlatformURL    string
	PublishedAt    time.Time
}

// TokenPair 令牌刷新产物
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// PostMetrics 单帖指标的原始计数。
// 指针字段表示平台未提供该维度，与 0 值区分。
type PostMetrics struct {
	Impressions        int64
	UniqueReach        *int64
	Reactions          int64
	Comments           int64
	Shares             int64
	Quotes             *int64
	Bookmarks          *int64
	VideoPlays         *int64
	VideoWatchTimeMs   *int64
	VideoUniqueViewers *int64
}

// Adapter 屏蔽各平台 API 线协议差异的统一接口。
// 所有方法单次尝试、不做内部重试，重试策略由调用方在边界处包裹。
type Adapter interface {
	// Name 返回适配器所属平台
	Name() Platform
	// Publish 发布文本与已上传媒体，平台拒绝或限流时返回错误
	Publish(ctx context.Context, accessToken string, input PublishInput) (*PublishResult, error)
	// UploadMedia 上传媒体字节，返回平台侧媒体句柄
	UploadMedia(ctx context.Context, accessToken string, data []byte, mimeType string) (string, error)
	// RefreshTokens 用 refresh token 换取新令牌，被吊销时返回错误
	RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error)
	// FetchMetrics 拉取单帖当前指标
	FetchMetrics(ctx context.Context, accessToken string, platformPostID string) (*PostMetrics, error)
	// FetchFollowerCount 拉取当前账号粉丝数
	FetchFollowerCount(ctx context.Context, accessToken string) (int64, error)
}
