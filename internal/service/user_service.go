package service

import (
	"auth-web-server/internal/model"
	"auth-web-server/internal/ports"
	"auth-web-server/internal/security"
	"context"
	"errors"
	"fmt"
	"unicode"

	"github.com/google/uuid"
)

// ErrInvalidRegistration : логин или пароль не проходят валидацию
var ErrInvalidRegistration = errors.New("некорректные данные регистрации")

type UserService struct {
	userRepository ports.UserRepository
}

func NewUserService(userRepository ports.UserRepository) *UserService {
	return &UserService{
		userRepository: userRepository,
	}
}

// Register создаёт нового пользователя с bcrypt-хэшем пароля
func (s *UserService) Register(ctx context.Context, login string, password string) (*model.User, error) {
	if len(login) < 4 {
		return nil, fmt.Errorf("%w: логин должен быть не меньше 4 символов", ErrInvalidRegistration)
	}
	for _, c := range login {
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) {
			return nil, fmt.Errorf("%w: логин должен содержать только латинские буквы и цифры", ErrInvalidRegistration)
		}
	}

	if err := validatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRegistration, err)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("[UserService] не удалось создать хэш пароля: %w", err)
	}

	user := &model.User{
		UUID:         uuid.New().String(),
		Login:        login,
		PasswordHash: hash,
	}

	created, err := s.userRepository.CreateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("[UserService] ошибка создания пользователя: %w", err)
	}

	return created, nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("пароль должен быть не меньше 8 символов")
	}

	var hasLetter, hasDigit bool
	for _, c := range password {
		switch {
		case unicode.IsLetter(c):
			hasLetter = true
		case unicode.IsDigit(c):
			hasDigit = true
		}
	}

	if !hasLetter || !hasDigit {
		return fmt.Errorf("пароль должен содержать буквы и цифры")
	}

	return nil
}
