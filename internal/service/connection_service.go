package service

import (
	"Crosspost/internal/api/dto"
	"Crosspost/internal/model"
	"Crosspost/internal/pkg/consts"
	"Crosspost/internal/pkg/platform"
	"Crosspost/internal/pkg/redis"
	"Crosspost/internal/pkg/security"
	"Crosspost/internal/repository"
	"context"
	log "log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// tokenRefreshLeeway 令牌距过期不足该时长时提前刷新，避免发到一半令牌失效
const tokenRefreshLeeway = 5 * time.Minute

type ConnectionService interface {
	// Connect 保存平台授权令牌，重复连接覆盖旧令牌
	Connect(ctx context.Context, userID uint64, req *dto.ConnectDTO) error
	ListConnections(ctx context.Context, userID uint64) ([]*dto.ConnectionDTO, error)
	// Disconnect 将连接置为 revoked，帖子与历史指标保留
	Disconnect(ctx context.Context, userID uint64, p platform.Platform) error
	// GetActiveConnection 不存在返回 (nil, nil)
	GetActiveConnection(ctx context.Context, userID uint64, p platform.Platform) (*model.SocialConnection, error)
	// ResolveAccessToken 返回可用的明文 access token，临近过期时持锁刷新
	ResolveAccessToken(ctx context.Context, conn *model.SocialConnection, adapter platform.Adapter) (string, error)
}

type connectionServiceImpl struct {
	connRepo repository.ConnectionRepo
	cipher   *security.TokenCipher
}

func NewConnectionService(connRepo repository.ConnectionRepo, cipher *security.TokenCipher) ConnectionService {
	return &connectionServiceImpl{
		connRepo: connRepo,
		cipher:   cipher,
	}
}

func (s *connectionServiceImpl) Connect(ctx context.Context, userID uint64, req *dto.ConnectDTO) error {
	p, ok := platform.Parse(req.Platform)
	if !ok {
		return ErrPlatformInvalid
	}

	expiresAt, err := time.Parse(time.RFC3339, req.ExpiresAt)
	if err != nil {
		return ErrParamInvalid
	}

	encAccess, err := s.cipher.Encrypt(req.AccessToken)
	if err != nil {
		return err
	}
	encRefresh, err := s.cipher.Encrypt(req.RefreshToken)
	if err != nil {
		return err
	}

	conn := &model.SocialConnection{
		UserID:                userID,
		Platform:              string(p),
		EncryptedAccessToken:  encAccess,
		EncryptedRefreshToken: encRefresh,
		ExpiresAt:             expiresAt,
		Status:                model.ConnectionStatusActive,
	}
	return s.connRepo.Upsert(ctx, conn)
}

func (s *connectionServiceImpl) ListConnections(ctx context.Context, userID uint64) ([]*dto.ConnectionDTO, error) {
	conns, err := s.connRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.ConnectionDTO, 0, len(conns))
	for _, conn := range conns {
		out = append(out, &dto.ConnectionDTO{
			ID:        conn.ID,
			Platform:  conn.Platform,
			Status:    conn.Status,
			ExpiresAt: conn.ExpiresAt.Format("2006-01-02 15:04:05"),
			CreatedAt: conn.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return out, nil
}

func (s *connectionServiceImpl) Disconnect(ctx context.Context, userID uint64, p platform.Platform) error {
	conn, err := s.connRepo.GetActive(ctx, userID, string(p))
	if err != nil {
		return err
	}
	if conn == nil {
		return ErrConnectionNotFound
	}
	return s.connRepo.UpdateStatus(ctx, conn.ID, model.ConnectionStatusRevoked)
}

func (s *connectionServiceImpl) GetActiveConnection(ctx context.Context, userID uint64, p platform.Platform) (*model.SocialConnection, error) {
	return s.connRepo.GetActive(ctx, userID, string(p))
}

// ResolveAccessToken 的并发约定：同一连接同时只有一个调用方真正发起刷新，
// 其余调用方等锁后重读落库结果。CAS 丢失说明别处已刷新成功，重读即可。
func (s *connectionServiceImpl) ResolveAccessToken(ctx context.Context, conn *model.SocialConnection, adapter platform.Adapter) (string, error) {
	if time.Until(conn.ExpiresAt) > tokenRefreshLeeway {
		return s.cipher.Decrypt(conn.EncryptedAccessToken)
	}

	lockKey := consts.ConnRefreshLock + strconv.FormatUint(conn.ID, 10)
	lockValue := uuid.NewString()
	locked, err := redis.TryLock(ctx, lockKey, lockValue, 30*time.Second, 25)
	if err != nil {
		return "", err
	}
	if !locked {
		return "", UnExpectedError
	}
	defer redis.UnLock(ctx, lockKey, lockValue)

	// 拿到锁后重读：等待锁期间可能已有别的实例完成刷新
	fresh, err := s.connRepo.GetByID(ctx, conn.ID)
	if err != nil {
		return "", err
	}
	if fresh == nil || fresh.Status != model.ConnectionStatusActive {
		return "", ErrConnectionRevoked
	}
	if time.Until(fresh.ExpiresAt) > tokenRefreshLeeway {
		return s.cipher.Decrypt(fresh.EncryptedAccessToken)
	}

	refreshToken, err := s.cipher.Decrypt(fresh.EncryptedRefreshToken)
	if err != nil {
		return "", err
	}

	pair, err := adapter.RefreshTokens(ctx, refreshToken)
	if err != nil {
		// 刷新被平台拒绝视为授权吊销，连接下线待用户重连
		log.WarnContext(ctx, "token refresh rejected, revoking connection",
			"connection_id", fresh.ID, "platform", fresh.Platform, "err", err)
		_ = s.connRepo.UpdateStatus(ctx, fresh.ID, model.ConnectionStatusRevoked)
		return "", ErrConnectionRevoked
	}

	encAccess, err := s.cipher.Encrypt(pair.AccessToken)
	if err != nil {
		return "", err
	}
	encRefresh, err := s.cipher.Encrypt(pair.RefreshToken)
	if err != nil {
		return "", err
	}

	updated, err := s.connRepo.UpdateTokensCAS(ctx, fresh.ID, fresh.TokenVersion, encAccess, encRefresh, pair.ExpiresAt)
	if err != nil {
		return "", err
	}
	if !updated {
		// 并发刷新竞争失败，以落库者为准
		stored, err := s.connRepo.GetByID(ctx, fresh.ID)
		if err != nil {
			return "", err
		}
		if stored == nil || stored.Status != model.ConnectionStatusActive {
			return "", ErrConnectionRevoked
		}
		return s.cipher.Decrypt(stored.EncryptedAccessToken)
	}

	return pair.AccessToken, nil
}
