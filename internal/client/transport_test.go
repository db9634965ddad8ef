package client_test

import (
	"auth-web-server/internal/client"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRefreshServer(t *testing.T, status int, body any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("refreshToken")
		require.NoError(t, err)
		assert.Equal(t, "raw-refresh", cookie.Value)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
}

// 1. Успешный ответ: токен извлекается из тела
func TestRefreshAccessToken_OK(t *testing.T) {
	server := newRefreshServer(t, 200, map[string]any{"accessToken": "new-token", "expiresIn": 1800})
	defer server.Close()

	caller := client.NewHTTPRefreshCaller(server.URL, "raw-refresh", 5*time.Second)
	token, err := caller.RefreshAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new-token", token)
}

// 2. 401 и 403 терминальны
func TestRefreshAccessToken_Unauthorized(t *testing.T) {
	for _, status := range []int{401, 403} {
		server := newRefreshServer(t, status, map[string]string{"error": "invalid_token"})

		caller := client.NewHTTPRefreshCaller(server.URL, "raw-refresh", 5*time.Second)
		_, err := caller.RefreshAccessToken(context.Background())
		assert.ErrorIs(t, err, client.ErrReauthRequired)

		server.Close()
	}
}

// 3. 5xx считается временным сбоем, не терминальным отказом
func TestRefreshAccessToken_ServerError(t *testing.T) {
	server := newRefreshServer(t, 500, map[string]string{"error": "internal_error"})
	defer server.Close()

	caller := client.NewHTTPRefreshCaller(server.URL, "raw-refresh", 5*time.Second)
	_, err := caller.RefreshAccessToken(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, client.ErrReauthRequired)
}
