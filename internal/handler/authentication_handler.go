package handler

import (
	"auth-web-server/config"
	"auth-web-server/internal/model/requestresponse"
	"auth-web-server/internal/ports"
	"auth-web-server/internal/security"
	"auth-web-server/internal/service"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"
)

// имя cookie с refresh-токеном
const refreshCookieName = "refreshToken"

type AuthenticationHandler struct {
	authenticationService ports.AuthenticationService
	refreshTokenService   ports.RefreshTokenService
	jwtConfig             *config.JWTConfig
}

func NewAuthenticationHandler(
	authenticationService ports.AuthenticationService,
	refreshTokenService ports.RefreshTokenService,
	jwtConfig *config.JWTConfig,
) *AuthenticationHandler {
	return &AuthenticationHandler{
		authenticationService: authenticationService,
		refreshTokenService:   refreshTokenService,
		jwtConfig:             jwtConfig,
	}
}

// Login godoc
// @Summary Аутентификация пользователя
// @Description Получение access токена по логину и паролю. Refresh токен устанавливается в HttpOnly cookie
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.LoginRequest true "Тело запроса"
// @Success 200 {object} requestresponse.TokenResponse "Успешная аутентификация"
// @Failure 400 {object} requestresponse.ErrorResponse "Некорректный JSON или пустые поля"
// @Failure 401 {object} requestresponse.ErrorResponse "Неверный логин или пароль"
// @Failure 500 {object} requestresponse.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/auth/login [post]
func (h *AuthenticationHandler) Login(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	var req requestresponse.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, 400, "invalid_request")
		return
	}

	if req.Login == "" || req.Password == "" {
		sendErrorResponse(w, 400, "invalid_request")
		return
	}

	tokens, err := h.authenticationService.Login(ctx, req.Login, req.Password, r.UserAgent(), r.RemoteAddr)
	if err != nil {
		log.Println(err)
		switch {
		case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrWrongCredentials):
			sendErrorResponse(w, 401, "invalid_credentials")
		default:
			sendErrorResponse(w, 500, "internal_error")
		}
		return
	}

	h.setRefreshCookie(w, tokens.RefreshToken)

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(requestresponse.TokenResponse{
		AccessToken: tokens.AccessToken,
		ExpiresIn:   h.accessTokenTTLSeconds(),
	})
}

// RefreshToken godoc
// @Summary Обновление access токена
// @Description Выпускает новый access токен по refresh-токену из HttpOnly cookie
// @Tags Authentication
// @Produce json
// @Success 200 {object} requestresponse.TokenResponse "Новый access токен"
// @Failure 401 {object} requestresponse.ErrorResponse "Refresh токен невалиден (invalid_token) или просрочен (token_expired)"
// @Failure 500 {object} requestresponse.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/auth/refresh [post]
func (h *AuthenticationHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		sendErrorResponse(w, 401, "invalid_token")
		return
	}

	accessToken, err := h.refreshTokenService.Refresh(ctx, cookie.Value, r.RemoteAddr)
	if err != nil {
		log.Println(err)
		switch {
		case errors.Is(err, service.ErrRefreshExpired):
			h.clearRefreshCookie(w)
			sendErrorResponse(w, 401, "token_expired")
		case errors.Is(err, service.ErrRefreshInvalid):
			h.clearRefreshCookie(w)
			sendErrorResponse(w, 401, "invalid_token")
		default:
			sendErrorResponse(w, 500, "internal_error")
		}
		return
	}

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(requestresponse.TokenResponse{
		AccessToken: accessToken,
		ExpiresIn:   h.accessTokenTTLSeconds(),
	})
}

// Logout godoc
// @Summary Завершение авторизованной сессии
// @Description Отзывает refresh-токен из cookie и очищает её. Повторный logout не является ошибкой
// @Tags Authentication
// @Produce json
// @Success 200 {object} requestresponse.LogoutResponse
// @Failure 500 {object} requestresponse.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/auth/logout [post]
func (h *AuthenticationHandler) Logout(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	if cookie, err := r.Cookie(refreshCookieName); err == nil && cookie.Value != "" {
		if err := h.refreshTokenService.Revoke(ctx, cookie.Value); err != nil {
			log.Println(err)
			sendErrorResponse(w, 500, "internal_error")
			return
		}
	}

	h.clearRefreshCookie(w)

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(requestresponse.LogoutResponse{LoggedOut: true})
}

// GetCurrentUsersUUID godoc
// @Summary Получение UUID текущего пользователя
// @Description Возвращает UUID пользователя, который авторизован в системе
// @Tags Authentication
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.CurrentUserResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Router /api/auth/me [get]
func (h *AuthenticationHandler) GetCurrentUsersUUID(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		sendErrorResponse(w, 401, "invalid_token")
		return
	}

	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(requestresponse.CurrentUserResponse{UserUUID: claims.Subject})
}

// GetCurrentUsersUUIDHead godoc
// @Summary Получение UUID текущего пользователя
// @Tags Authentication
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.CurrentUserResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Router /api/auth/me [head]
func (h *AuthenticationHandler) GetCurrentUsersUUIDHead(w http.ResponseWriter, r *http.Request) {
	h.GetCurrentUsersUUID(w, r)
}

// setRefreshCookie устанавливает refresh-токен в защищённую cookie:
// HttpOnly, Secure, SameSite=Strict, срок жизни равен сроку жизни сессии
func (h *AuthenticationHandler) setRefreshCookie(w http.ResponseWriter, rawRefreshToken string) {
	maxAge := 7 * 24 * 60 * 60
	if ttl, err := time.ParseDuration(h.jwtConfig.RefreshTokenTTL); err == nil {
		maxAge = int(ttl.Seconds())
	}

	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    rawRefreshToken,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthenticationHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthenticationHandler) accessTokenTTLSeconds() int {
	ttl, err := time.ParseDuration(h.jwtConfig.AccessTokenTTL)
	if err != nil {
		return 1800
	}
	return int(ttl.Seconds())
}
