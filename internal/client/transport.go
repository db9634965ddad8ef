package client

import (
	"auth-web-server/internal/model/requestresponse"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrReauthRequired : сервер отклонил refresh-токен (401/403).
	// Повторять запрос бессмысленно, нужна повторная аутентификация
	ErrReauthRequired = errors.New("требуется повторная аутентификация")
	// ErrRetriesExhausted : временные сбои не прекратились после всех попыток
	ErrRetriesExhausted = errors.New("попытки обновления токена исчерпаны")
)

// имя cookie, в которой сервер ожидает refresh-токен
const refreshCookieName = "refreshToken"

// RefreshCaller выполняет один сетевой вызов обновления токена
type RefreshCaller interface {
	RefreshAccessToken(ctx context.Context) (string, error)
}

// HTTPRefreshCaller обращается к endpoint обновления по HTTP,
// передавая refresh-токен в cookie
type HTTPRefreshCaller struct {
	httpClient      *http.Client
	endpointURL     string
	rawRefreshToken string
}

func NewHTTPRefreshCaller(endpointURL, rawRefreshToken string, timeout time.Duration) *HTTPRefreshCaller {
	return &HTTPRefreshCaller{
		httpClient:      &http.Client{Timeout: timeout},
		endpointURL:     endpointURL,
		rawRefreshToken: rawRefreshToken,
	}
}

// RefreshAccessToken выполняет POST на endpoint обновления.
// Ответы 401 и 403 терминальны (ErrReauthRequired), остальные сбои
// считаются временными и подлежат повтору
func (c *HTTPRefreshCaller) RefreshAccessToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL, nil)
	if err != nil {
		return "", fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: c.rawRefreshToken})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ошибка сетевого вызова обновления: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var tokenResp requestresponse.TokenResponse
		if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
			return "", fmt.Errorf("ошибка разбора ответа обновления: %w", err)
		}
		if tokenResp.AccessToken == "" {
			return "", fmt.Errorf("сервер вернул пустой access токен")
		}
		return tokenResp.AccessToken, nil

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		var errResp requestresponse.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return "", fmt.Errorf("%w: %s", ErrReauthRequired, errResp.Error)

	default:
		return "", fmt.Errorf("сервер вернул статус %d", resp.StatusCode)
	}
}
