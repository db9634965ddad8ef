package service

import (
	"auth-web-server/internal/model"
	"auth-web-server/internal/ports"
	"auth-web-server/internal/security"
	"context"
	"errors"
	"fmt"
)

var (
	ErrUserNotFound     = errors.New("пользователь не найден")
	ErrWrongCredentials = errors.New("неверный логин или пароль")
)

type AuthenticationService struct {
	userRepository      ports.UserRepository
	refreshTokenService ports.RefreshTokenService
}

func NewAuthenticationService(
	userRepository ports.UserRepository,
	refreshTokenService ports.RefreshTokenService,
) *AuthenticationService {
	return &AuthenticationService{
		userRepository:      userRepository,
		refreshTokenService: refreshTokenService,
	}
}

// Login проверяет учётные данные пользователя и выпускает пару токенов
func (s *AuthenticationService) Login(ctx context.Context, login, password, userAgent, ipAddress string) (*model.TokensPair, error) {
	user, err := s.userRepository.FindByLogin(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserNotFound, err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if !security.CheckPassword(password, user.PasswordHash) {
		return nil, ErrWrongCredentials
	}

	tokens, err := s.refreshTokenService.IssuePair(ctx, user.UUID, userAgent, ipAddress)
	if err != nil {
		return nil, fmt.Errorf("ошибка выпуска токенов: %w", err)
	}

	return tokens, nil
}
