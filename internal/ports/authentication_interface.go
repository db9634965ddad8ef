package ports

import (
	"auth-web-server/internal/model"
	"context"
)

type AuthenticationService interface {
	Login(ctx context.Context, login, password, userAgent, ipAddress string) (*model.TokensPair, error)
}

type RefreshTokenService interface {
	IssuePair(ctx context.Context, userUUID, userAgent, ipAddress string) (*model.TokensPair, error)
	Refresh(ctx context.Context, rawRefreshToken, ipAddress string) (string, error)
	Revoke(ctx context.Context, rawRefreshToken string) error
}
