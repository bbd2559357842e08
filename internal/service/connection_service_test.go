package service

import (
	"Crosspost/internal/api/dto"
	"Crosspost/internal/model"
	"Crosspost/internal/pkg/platform"
	"Crosspost/internal/pkg/security"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCipherKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

type fakeConnRepo struct {
	conns       map[uint64]*model.SocialConnection
	casFailures int
}

func newFakeConnRepo(conns ...*model.SocialConnection) *fakeConnRepo {
	repo := &fakeConnRepo{conns: make(map[uint64]*model.SocialConnection)}
	for _, conn := range conns {
		repo.conns[conn.ID] = conn
	}
	return repo
}

func (s *fakeConnRepo) Upsert(_ context.Context, conn *model.SocialConnection) error {
	for _, existing := range s.conns {
		if existing.UserID == conn.UserID && existing.Platform == conn.Platform {
			existing.EncryptedAccessToken = conn.EncryptedAccessToken
			existing.EncryptedRefreshToken = conn.EncryptedRefreshToken
			existing.ExpiresAt = conn.ExpiresAt
			existing.Status = conn.Status
			return nil
		}
	}
	if conn.ID == 0 {
		conn.ID = uint64(len(s.conns) + 1)
	}
	s.conns[conn.ID] = conn
	return nil
}

func (s *fakeConnRepo) GetActive(_ context.Context, userID uint64, platformName string) (*model.SocialConnection, error) {
	for _, conn := range s.conns {
		if conn.UserID == userID && conn.Platform == platformName && conn.Status == model.ConnectionStatusActive {
			return conn, nil
		}
	}
	return nil, nil
}

func (s *fakeConnRepo) GetByID(_ context.Context, id uint64) (*model.SocialConnection, error) {
	return s.conns[id], nil
}

func (s *fakeConnRepo) ListByUser(_ context.Context, userID uint64) ([]*model.SocialConnection, error) {
	out := make([]*model.SocialConnection, 0)
	for _, conn := range s.conns {
		if conn.UserID == userID {
			out = append(out, conn)
		}
	}
	return out, nil
}

func (s *fakeConnRepo) ListAllActive(_ context.Context) ([]*model.SocialConnection, error) {
	out := make([]*model.SocialConnection, 0)
	for _, conn := range s.conns {
		if conn.Status == model.ConnectionStatusActive {
			out = append(out, conn)
		}
	}
	return out, nil
}

func (s *fakeConnRepo) UpdateTokensCAS(_ context.Context, id uint64, expectedVersion int64, encAccess, encRefresh string, expiresAt time.Time) (bool, error) {
	conn, ok := s.conns[id]
	if !ok || conn.TokenVersion != expectedVersion {
		return false, nil
	}
	if s.casFailures > 0 {
		s.casFailures--
		conn.TokenVersion++
		return false, nil
	}
	conn.EncryptedAccessToken = encAccess
	conn.EncryptedRefreshToken = encRefresh
	conn.ExpiresAt = expiresAt
	conn.TokenVersion = expectedVersion + 1
	return true, nil
}

func (s *fakeConnRepo) UpdateStatus(_ context.Context, id uint64, status string) error {
	conn, ok := s.conns[id]
	if !ok {
		return errors.New("connection not found")
	}
	conn.Status = status
	return nil
}

func newConnFixture(t *testing.T, expiresAt time.Time) (*connectionServiceImpl, *fakeConnRepo, *security.TokenCipher) {
	t.Helper()
	cipher, err := security.NewTokenCipher(testCipherKey)
	require.NoError(t, err)

	encAccess, err := cipher.Encrypt("access-old")
	require.NoError(t, err)
	encRefresh, err := cipher.Encrypt("refresh-old")
	require.NoError(t, err)

	repo := newFakeConnRepo(&model.SocialConnection{
		ID:                    1,
		UserID:                10,
		Platform:              string(platform.Twitter),
		EncryptedAccessToken:  encAccess,
		EncryptedRefreshToken: encRefresh,
		ExpiresAt:             expiresAt,
		Status:                model.ConnectionStatusActive,
	})
	svc := NewConnectionService(repo, cipher).(*connectionServiceImpl)
	return svc, repo, cipher
}

func TestResolveAccessTokenValidTokenNoRefresh(t *testing.T) {
	svc, repo, _ := newConnFixture(t, time.Now().Add(time.Hour))

	token, err := svc.ResolveAccessToken(context.Background(), repo.conns[1], &fakeAdapter{name: platform.Twitter})
	require.NoError(t, err)
	assert.Equal(t, "access-old", token)
	assert.Equal(t, int64(0), repo.conns[1].TokenVersion)
}

func TestResolveAccessTokenRefreshesExpiring(t *testing.T) {
	svc, repo, cipher := newConnFixture(t, time.Now().Add(time.Minute))

	adapter := &refreshingAdapter{pair: &platform.TokenPair{
		AccessToken:  "access-new",
		RefreshToken: "refresh-new",
		ExpiresAt:    time.Now().Add(2 * time.Hour),
	}}

	token, err := svc.ResolveAccessToken(context.Background(), repo.conns[1], adapter)
	require.NoError(t, err)
	assert.Equal(t, "access-new", token)
	assert.Equal(t, int64(1), repo.conns[1].TokenVersion)

	stored, err := cipher.Decrypt(repo.conns[1].EncryptedAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "access-new", stored)
}

func TestResolveAccessTokenRevokesOnRefreshRejection(t *testing.T) {
	svc, repo, _ := newConnFixture(t, time.Now().Add(-time.Minute))

	adapter := &refreshingAdapter{err: errors.New("invalid_grant")}
	_, err := svc.ResolveAccessToken(context.Background(), repo.conns[1], adapter)
	assert.ErrorIs(t, err, ErrConnectionRevoked)
	assert.Equal(t, model.ConnectionStatusRevoked, repo.conns[1].Status)
}

func TestResolveAccessTokenLosingCASReadsStoredToken(t *testing.T) {
	svc, repo, cipher := newConnFixture(t, time.Now().Add(-time.Minute))
	repo.casFailures = 1

	adapter := &refreshingAdapter{pair: &platform.TokenPair{
		AccessToken:  "access-mine",
		RefreshToken: "refresh-mine",
		ExpiresAt:    time.Now().Add(2 * time.Hour),
	}}

	// CAS 落败后应回读对方落库的令牌而不是用自己的刷新结果
	encWinner, err := cipher.Encrypt("access-winner")
	require.NoError(t, err)
	repo.conns[1].EncryptedAccessToken = encWinner

	token, err := svc.ResolveAccessToken(context.Background(), repo.conns[1], adapter)
	require.NoError(t, err)
	assert.Equal(t, "access-winner", token)
}

func TestConnectUpsertsAndReactivates(t *testing.T) {
	svc, repo, _ := newConnFixture(t, time.Now().Add(time.Hour))
	repo.conns[1].Status = model.ConnectionStatusRevoked

	err := svc.Connect(context.Background(), 10, connectReq("twitter", time.Now().Add(24*time.Hour)))
	require.NoError(t, err)

	assert.Len(t, repo.conns, 1)
	assert.Equal(t, model.ConnectionStatusActive, repo.conns[1].Status)
}

func TestConnectRejectsUnknownPlatform(t *testing.T) {
	svc, _, _ := newConnFixture(t, time.Now().Add(time.Hour))

	err := svc.Connect(context.Background(), 10, connectReq("myspace", time.Now()))
	assert.ErrorIs(t, err, ErrPlatformInvalid)
}

func TestDisconnectMarksRevoked(t *testing.T) {
	svc, repo, _ := newConnFixture(t, time.Now().Add(time.Hour))

	require.NoError(t, svc.Disconnect(context.Background(), 10, platform.Twitter))
	assert.Equal(t, model.ConnectionStatusRevoked, repo.conns[1].Status)

	err := svc.Disconnect(context.Background(), 10, platform.Twitter)
	assert.ErrorIs(t, err, ErrConnectionNotFound)
}

func connectReq(platformName string, expiresAt time.Time) *dto.ConnectDTO {
	return &dto.ConnectDTO{
		Platform:     platformName,
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    expiresAt.Format(time.RFC3339),
	}
}

// refreshingAdapter 只实现刷新路径
type refreshingAdapter struct {
	pair *platform.TokenPair
	err  error
}

func (s *refreshingAdapter) Name() platform.Platform {
	return platform.Twitter
}

func (s *refreshingAdapter) Publish(context.Context, string, platform.PublishInput) (*platform.PublishResult, error) {
	return nil, errors.New("not supported")
}

func (s *refreshingAdapter) UploadMedia(context.Context, string, []byte, string) (string, error) {
	return "", errors.New("not supported")
}

func (s *refreshingAdapter) RefreshTokens(context.Context, string) (*platform.TokenPair, error) {
	return s.pair, s.err
}

func (s *refreshingAdapter) FetchMetrics(context.Context, string, string) (*platform.PostMetrics, error) {
	return nil, errors.New("not supported")
}

func (s *refreshingAdapter) FetchFollowerCount(context.Context, string) (int64, error) {
	return 0, errors.New("not supported")
}
