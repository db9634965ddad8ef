package service

import (
	"auth-web-server/config"
	"auth-web-server/internal/model"
	"auth-web-server/internal/notifier"
	"auth-web-server/internal/ports"
	"auth-web-server/internal/util"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrRefreshInvalid : хэш токена не найден или не совпал.
	// Клиент должен пройти аутентификацию заново
	ErrRefreshInvalid = errors.New("невалидный refresh токен")
	// ErrRefreshExpired : сессия найдена, но срок её действия истёк
	ErrRefreshExpired = errors.New("срок действия refresh токена истёк")
)

// количество случайных байт в сыром refresh-секрете
const refreshSecretLength = 32

type RefreshTokenService struct {
	sessionRepository ports.RefreshSessionRepository
	tokenCodec        ports.TokenCodec
	jwtConfig         *config.JWTConfig
	webhookURL        string
}

func NewRefreshTokenService(
	sessionRepository ports.RefreshSessionRepository,
	tokenCodec ports.TokenCodec,
	jwtConfig *config.JWTConfig,
	webhookURL string,
) *RefreshTokenService {
	return &RefreshTokenService{
		sessionRepository: sessionRepository,
		tokenCodec:        tokenCodec,
		jwtConfig:         jwtConfig,
		webhookURL:        webhookURL,
	}
}

// IssuePair выпускает новую пару access + refresh токенов.
// Сырой refresh-секрет возвращается клиенту ровно один раз,
// в базу попадает только его SHA-256 хэш вместе с метаданными клиента.
func (s *RefreshTokenService) IssuePair(ctx context.Context, userUUID, userAgent, ipAddress string) (*model.TokensPair, error) {
	rawToken, tokenHash, err := generateRefreshSecret()
	if err != nil {
		return nil, util.LogError("ошибка генерации refresh секрета", err)
	}

	timeDuration, err := time.ParseDuration(s.jwtConfig.RefreshTokenTTL)
	if err != nil {
		return nil, util.LogError("ошибка парсинга refresh_token_ttl", err)
	}

	now := time.Now().UTC()
	session := &model.RefreshSession{
		UUID:      uuid.New().String(),
		UserUUID:  userUUID,
		TokenHash: tokenHash,
		ExpireAt:  now.Add(timeDuration),
		CreatedAt: now,
		UserAgent: userAgent,
		IpAddress: ipAddress,
	}

	if err := s.sessionRepository.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("ошибка сохранения refresh сессии: %w", err)
	}

	accessToken, err := s.tokenCodec.GenerateAccessToken(userUUID)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации токенов: %w", err)
	}

	return &model.TokensPair{
		AccessToken:  accessToken,
		RefreshToken: rawToken,
	}, nil
}

// Refresh обменивает действующий refresh-токен на новый access токен.
// Порядок проверок:
//  1. Хэш входящего токена ищется в хранилище; отсутствие — ErrRefreshInvalid.
//  2. Просроченная сессия удаляется, возвращается ErrRefreshExpired.
//  3. Хэши сравниваются за константное время до того, как совпадению
//     можно доверять.
//  4. При обращении с нового IP отправляется webhook-уведомление,
//     операция при этом не запрещается.
//
// Сам refresh-токен при обновлении не меняется.
func (s *RefreshTokenService) Refresh(ctx context.Context, rawRefreshToken, ipAddress string) (string, error) {
	computedHash := HashRefreshToken(rawRefreshToken)

	session, err := s.sessionRepository.FindByHash(ctx, computedHash)
	if err != nil {
		return "", fmt.Errorf("не удалось найти refresh сессию: %w", err)
	}
	if session == nil {
		return "", ErrRefreshInvalid
	}

	if time.Now().UTC().After(session.ExpireAt) {
		if err := s.sessionRepository.DeleteByUUID(ctx, session.UUID); err != nil {
			log.Printf("не удалось удалить просроченную сессию %s: %v", session.UUID, err)
		}
		return "", ErrRefreshExpired
	}

	if subtle.ConstantTimeCompare([]byte(session.TokenHash), []byte(computedHash)) != 1 {
		return "", ErrRefreshInvalid
	}

	if ipAddress != "" && session.IpAddress != ipAddress && s.webhookURL != "" {
		log.Printf("обнаружено обновление токена с нового ip адреса, отправка webhook")
		go func() {
			if err := notifier.NotifyWebhook(s.webhookURL, session.UserUUID, ipAddress, session.IpAddress); err != nil {
				log.Printf("ошибка отправки webhook: %v", err)
			}
		}()
	}

	accessToken, err := s.tokenCodec.GenerateAccessToken(session.UserUUID)
	if err != nil {
		return "", fmt.Errorf("ошибка генерации токенов: %w", err)
	}

	return accessToken, nil
}

// Revoke удаляет refresh-сессию по сырому токену (logout).
// Идемпотентна: отзыв уже отозванного токена не является ошибкой
func (s *RefreshTokenService) Revoke(ctx context.Context, rawRefreshToken string) error {
	if err := s.sessionRepository.DeleteByHash(ctx, HashRefreshToken(rawRefreshToken)); err != nil {
		return fmt.Errorf("не удалось отозвать refresh токен: %w", err)
	}
	return nil
}

// RunSweeper периодически удаляет просроченные refresh-сессии
// до отмены контекста
func (s *RefreshTokenService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.sessionRepository.DeleteExpired(ctx)
			if err != nil {
				log.Printf("ошибка удаления просроченных сессий: %v", err)
				continue
			}
			if deleted > 0 {
				log.Printf("удалено просроченных refresh-сессий: %d", deleted)
			}
		}
	}
}

// HashRefreshToken возвращает hex-представление SHA-256 хэша сырого токена.
// Детерминированный хэш нужен, чтобы хранилище могло искать сессию по нему
func HashRefreshToken(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}

func generateRefreshSecret() (rawToken string, tokenHash string, err error) {
	secretBytes := make([]byte, refreshSecretLength)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", "", err
	}

	rawToken = base64.RawURLEncoding.EncodeToString(secretBytes)
	return rawToken, HashRefreshToken(rawToken), nil
}
