package security

import (
	"auth-web-server/config"
	"auth-web-server/internal/model/requestresponse"
	"auth-web-server/internal/util"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	UserContextKey contextKey = "user"

	// TokenTypeAccess : значение утверждения typ для access токенов
	TokenTypeAccess = "access"

	tokenIssuer = "auth-web-server"
)

var (
	// ErrTokenExpired : подпись верна, но срок действия токена истёк.
	// Клиент должен попытаться выполнить refresh.
	ErrTokenExpired = errors.New("срок действия access токена истёк")
	// ErrTokenInvalid : подпись неверна или токен повреждён.
	// Refresh выполнять нельзя.
	ErrTokenInvalid = errors.New("невалидный access токен")
)

type Claims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

type JWTService struct {
	*config.JWTConfig
}

func NewJWTService(cfg *config.JWTConfig) *JWTService {
	return &JWTService{cfg}
}

// GenerateAccessToken выпускает подписанный access токен для пользователя.
// Утверждения: sub, iat, exp = iat + access_token_ttl, typ = "access".
func (service *JWTService) GenerateAccessToken(userUUID string) (string, error) {
	timeDuration, err := time.ParseDuration(service.AccessTokenTTL)
	if err != nil {
		return "", util.LogError("ошибка парсинга access_token_ttl", err)
	}

	now := time.Now()
	claims := Claims{
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userUUID,
			ExpiresAt: jwt.NewNumericDate(now.Add(timeDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	jwtToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := jwtToken.SignedString([]byte(service.SecretKey))
	if err != nil {
		return "", util.LogError("ошибка подписи токена", err)
	}

	return accessToken, nil
}

// ValidateAccessToken проверяет подпись, тип и срок действия access токена.
// Порядок проверок: сначала подпись, потом typ, потом expiry — утверждениям
// токена с неверной подписью доверять нельзя.
//
// Возвращает:
//   - ErrTokenExpired, если токен подлинный, но просрочен (сигнал на refresh)
//   - ErrTokenInvalid во всех остальных случаях отказа
func (service *JWTService) ValidateAccessToken(jwtTokenStr string) (*Claims, error) {
	claims, err := service.parseWithSecret(jwtTokenStr, []byte(service.SecretKey))
	// запасной секрет пробуем только при неверной подписи:
	// просроченный токен уже прошёл проверку текущим секретом
	if errors.Is(err, ErrTokenInvalid) && service.PreviousSecretKey != "" {
		claims, err = service.parseWithSecret(jwtTokenStr, []byte(service.PreviousSecretKey))
	}
	return claims, err
}

func (service *JWTService) parseWithSecret(jwtTokenStr string, secretKey []byte) (*Claims, error) {
	var claims = &Claims{}

	jwtToken, err := jwt.ParseWithClaims(jwtTokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Header["alg"] != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("неверный способ подписи токена: %v", token.Header["alg"])
		}
		return secretKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			// подпись уже проверена; тип проверяем раньше срока действия
			if claims.TokenType != TokenTypeAccess {
				return nil, ErrTokenInvalid
			}
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if jwtToken.Valid == false || claims.TokenType != TokenTypeAccess {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// JWTMiddleware авторизует запрос только по подписи и сроку действия access
// токена, без обращения к базе данных. Просроченный и невалидный токен
// отклоняются разными кодами, чтобы клиент знал, когда уместен refresh.
func JWTMiddleware(jwtService *JWTService) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(handleAuthentication(jwtService, next))
	}
}

func handleAuthentication(jwtService *JWTService, next http.Handler) func(writer http.ResponseWriter, request *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		authorizationHeader := request.Header.Get("Authorization")
		if !strings.HasPrefix(authorizationHeader, "Bearer ") {
			writeAuthError(writer, "invalid_token")
			return
		}

		token := strings.TrimPrefix(authorizationHeader, "Bearer ")

		claims, err := jwtService.ValidateAccessToken(token)
		if err != nil {
			if errors.Is(err, ErrTokenExpired) {
				writeAuthError(writer, "token_expired")
				return
			}
			writeAuthError(writer, "invalid_token")
			return
		}

		req := request.WithContext(context.WithValue(request.Context(), UserContextKey, claims))
		next.ServeHTTP(writer, req)
	}
}

func writeAuthError(w http.ResponseWriter, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(requestresponse.ErrorResponse{Error: code})
}

func GetClaimsFromContext(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(UserContextKey).(*Claims)
	if !ok || claims == nil {
		return nil, fmt.Errorf("пользователь не авторизован")
	}
	return claims, nil
}
