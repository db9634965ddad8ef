package service_test

import (
	"auth-web-server/config"
	"auth-web-server/internal/model"
	"auth-web-server/internal/security"
	"auth-web-server/internal/service"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ===== MOCKS =====

// MockSessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) SaveSession(ctx context.Context, session *model.RefreshSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) FindByHash(ctx context.Context, tokenHash string) (*model.RefreshSession, error) {
	args := m.Called(ctx, tokenHash)
	if s, ok := args.Get(0).(*model.RefreshSession); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionRepository) DeleteByUUID(ctx context.Context, sessionUUID string) error {
	args := m.Called(ctx, sessionUUID)
	return args.Error(0)
}

func (m *MockSessionRepository) DeleteByHash(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *MockSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// ===== HELPERS =====

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		SecretKey:       "unit-test-secret-key-0123456789abcdef",
		AccessTokenTTL:  "30m",
		RefreshTokenTTL: "168h",
	}
}

func newTestRefreshService() (*service.RefreshTokenService, *MockSessionRepository, *security.JWTService) {
	mockRepo := new(MockSessionRepository)
	cfg := testJWTConfig()
	jwtService := security.NewJWTService(cfg)

	svc := service.NewRefreshTokenService(mockRepo, jwtService, cfg, "")
	return svc, mockRepo, jwtService
}

// ===== TESTS =====

// 1. Выпуск пары: в хранилище попадает хэш, клиенту — сырой секрет
func TestIssuePair_StoresHashNotSecret(t *testing.T) {
	svc, mockRepo, jwtService := newTestRefreshService()
	ctx := context.Background()

	var saved *model.RefreshSession
	mockRepo.On("SaveSession", ctx, mock.AnythingOfType("*model.RefreshSession")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*model.RefreshSession)
		}).
		Return(nil)

	pair, err := svc.IssuePair(ctx, "user-1", "agent", "127.0.0.1")
	require.NoError(t, err)
	require.NotNil(t, saved)

	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.RefreshToken, saved.TokenHash)
	assert.Equal(t, service.HashRefreshToken(pair.RefreshToken), saved.TokenHash)
	assert.Equal(t, "user-1", saved.UserUUID)
	assert.Equal(t, "agent", saved.UserAgent)
	assert.Equal(t, "127.0.0.1", saved.IpAddress)
	assert.True(t, saved.ExpireAt.After(time.Now().UTC().Add(167*time.Hour)))

	claims, err := jwtService.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	mockRepo.AssertExpectations(t)
}

// 2. Каждый выпуск даёт уникальный секрет
func TestIssuePair_SecretsAreUnique(t *testing.T) {
	svc, mockRepo, _ := newTestRefreshService()
	ctx := context.Background()

	mockRepo.On("SaveSession", ctx, mock.Anything).Return(nil)

	first, err := svc.IssuePair(ctx, "user-1", "agent", "127.0.0.1")
	require.NoError(t, err)
	second, err := svc.IssuePair(ctx, "user-1", "agent", "127.0.0.1")
	require.NoError(t, err)

	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
}

// 3. Refresh по выпущенному токену возвращает новый access токен того же
// пользователя, сам refresh-токен остаётся прежним
func TestRefresh_RoundTrip(t *testing.T) {
	svc, mockRepo, jwtService := newTestRefreshService()
	ctx := context.Background()

	var saved *model.RefreshSession
	mockRepo.On("SaveSession", ctx, mock.Anything).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*model.RefreshSession)
		}).
		Return(nil)

	pair, err := svc.IssuePair(ctx, "user-1", "agent", "127.0.0.1")
	require.NoError(t, err)

	mockRepo.On("FindByHash", ctx, saved.TokenHash).Return(saved, nil)

	accessToken, err := svc.Refresh(ctx, pair.RefreshToken, "127.0.0.1")
	require.NoError(t, err)

	claims, err := jwtService.ValidateAccessToken(accessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	mockRepo.AssertExpectations(t)
}

// 4. Неизвестный токен — ErrRefreshInvalid
func TestRefresh_UnknownToken(t *testing.T) {
	svc, mockRepo, _ := newTestRefreshService()
	ctx := context.Background()

	mockRepo.On("FindByHash", ctx, mock.Anything).Return(nil, nil)

	_, err := svc.Refresh(ctx, "never-issued-token", "127.0.0.1")
	assert.ErrorIs(t, err, service.ErrRefreshInvalid)
}

// 5. Просроченная сессия — ErrRefreshExpired и удаление записи
func TestRefresh_ExpiredSession(t *testing.T) {
	svc, mockRepo, _ := newTestRefreshService()
	ctx := context.Background()

	rawToken := "expired-raw-token"
	session := &model.RefreshSession{
		UUID:      "session-1",
		UserUUID:  "user-1",
		TokenHash: service.HashRefreshToken(rawToken),
		ExpireAt:  time.Now().UTC().Add(-time.Hour),
	}

	mockRepo.On("FindByHash", ctx, session.TokenHash).Return(session, nil)
	mockRepo.On("DeleteByUUID", ctx, "session-1").Return(nil)

	_, err := svc.Refresh(ctx, rawToken, "127.0.0.1")
	assert.ErrorIs(t, err, service.ErrRefreshExpired)
	mockRepo.AssertExpectations(t)
}

// 6. Ошибка хранилища не маскируется под отказ в доступе
func TestRefresh_RepositoryError(t *testing.T) {
	svc, mockRepo, _ := newTestRefreshService()
	ctx := context.Background()

	mockRepo.On("FindByHash", ctx, mock.Anything).
		Return(nil, errors.New("соединение с БД потеряно"))

	_, err := svc.Refresh(ctx, "some-token", "127.0.0.1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrRefreshInvalid)
	assert.NotErrorIs(t, err, service.ErrRefreshExpired)
}

// 7. Revoke удаляет сессию по хэшу и идемпотентен
func TestRevoke_Idempotent(t *testing.T) {
	svc, mockRepo, _ := newTestRefreshService()
	ctx := context.Background()

	rawToken := "revocable-token"
	mockRepo.On("DeleteByHash", ctx, service.HashRefreshToken(rawToken)).Return(nil).Twice()

	require.NoError(t, svc.Revoke(ctx, rawToken))
	require.NoError(t, svc.Revoke(ctx, rawToken))
	mockRepo.AssertExpectations(t)
}

// 8. После отзыва refresh по тому же токену невалиден
func TestRevoke_ThenRefreshFails(t *testing.T) {
	svc, mockRepo, _ := newTestRefreshService()
	ctx := context.Background()

	rawToken := "revoked-token"
	hash := service.HashRefreshToken(rawToken)

	mockRepo.On("DeleteByHash", ctx, hash).Return(nil)
	mockRepo.On("FindByHash", ctx, hash).Return(nil, nil)

	require.NoError(t, svc.Revoke(ctx, rawToken))

	_, err := svc.Refresh(ctx, rawToken, "127.0.0.1")
	assert.ErrorIs(t, err, service.ErrRefreshInvalid)
}
