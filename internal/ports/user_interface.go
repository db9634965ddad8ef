package ports

import (
	"auth-web-server/internal/model"
	"context"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	FindByLogin(ctx context.Context, login string) (*model.User, error)
}

type UserService interface {
	Register(ctx context.Context, login string, password string) (*model.User, error)
}
