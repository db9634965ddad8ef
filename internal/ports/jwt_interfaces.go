package ports

import (
	"auth-web-server/internal/model"
	"auth-web-server/internal/security"
	"context"
)

// TokenCodec подписывает и проверяет access токены.
// Проверка — чистая функция от токена, секрета и текущего времени.
type TokenCodec interface {
	GenerateAccessToken(userUUID string) (string, error)
	ValidateAccessToken(tokenStr string) (*security.Claims, error)
}

// RefreshSessionRepository : слой хранения refresh-сессий.
// Хэширование и сравнение секретов здесь не выполняются.
type RefreshSessionRepository interface {
	SaveSession(ctx context.Context, session *model.RefreshSession) error
	FindByHash(ctx context.Context, tokenHash string) (*model.RefreshSession, error)
	DeleteByUUID(ctx context.Context, sessionUUID string) error
	DeleteByHash(ctx context.Context, tokenHash string) error
	DeleteExpired(ctx context.Context) (int64, error)
}
