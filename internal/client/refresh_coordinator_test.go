package client_test

import (
	"auth-web-server/config"
	"auth-web-server/internal/client"
	"auth-web-server/internal/model"
	"auth-web-server/internal/repository"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCredentialKey = "cred-hash-1"

// ===== MOCKS =====

// fakeCaller считает сетевые вызовы и возвращает заранее заданный результат
type fakeCaller struct {
	calls int32
	token string
	err   error
	delay time.Duration
}

func (f *fakeCaller) RefreshAccessToken(ctx context.Context) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

func (f *fakeCaller) callCount() int32 {
	return atomic.LoadInt32(&f.calls)
}

// ===== HELPERS =====

func newTestLockRepository(t *testing.T) (*repository.RefreshLockRepository, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := &config.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	t.Cleanup(func() { _ = rdb.Close() })

	return repository.NewRefreshLockRepository(rdb, testCredentialKey, 5*time.Second), mr
}

func lockKey() string {
	return fmt.Sprintf("refresh-lock:%s", testCredentialKey)
}

// ===== TESTS =====

// 1. Несколько клиентов с одним refresh-токеном: ровно один сетевой вызов,
// все получают один и тот же access токен
func TestRefresh_SingleNetworkCallAcrossClients(t *testing.T) {
	lockRepo, _ := newTestLockRepository(t)

	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		// даём остальным клиентам время подписаться и начать ожидание
		time.Sleep(100 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"accessToken": "shared-token", "expiresIn": 1800})
	}))
	defer server.Close()

	const clients = 4
	var wg sync.WaitGroup
	tokens := make([]string, clients)
	errs := make([]error, clients)

	for i := 0; i < clients; i++ {
		coordinator := client.NewRefreshCoordinator(lockRepo, lockRepo, client.NewHTTPRefreshCaller(server.URL, "raw-refresh", 5*time.Second), client.CoordinatorConfig{})
		wg.Add(1)
		go func(i int, c *client.RefreshCoordinator) {
			defer wg.Done()
			tokens[i], errs[i] = c.Refresh(context.Background())
		}(i, coordinator)
	}
	wg.Wait()

	for i := 0; i < clients; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "shared-token", tokens[i])
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
}

// 2. Временные сбои повторяются до исчерпания попыток
func TestRefresh_RetriesExhausted(t *testing.T) {
	lockRepo, mr := newTestLockRepository(t)

	caller := &fakeCaller{err: errors.New("сеть недоступна")}
	coordinator := client.NewRefreshCoordinator(lockRepo, lockRepo, caller, client.CoordinatorConfig{
		MaxAttempts: 3,
		BaseDelay:   5 * time.Millisecond,
	})

	_, err := coordinator.Refresh(context.Background())
	assert.ErrorIs(t, err, client.ErrRetriesExhausted)
	assert.Equal(t, int32(3), caller.callCount())
	// блокировка снята несмотря на неудачу
	assert.False(t, mr.Exists(lockKey()))
}

// 3. Отказ сервера терминален: одна попытка, без повторов
func TestRefresh_ReauthRequiredIsTerminal(t *testing.T) {
	lockRepo, _ := newTestLockRepository(t)

	caller := &fakeCaller{err: fmt.Errorf("%w: invalid_token", client.ErrReauthRequired)}
	coordinator := client.NewRefreshCoordinator(lockRepo, lockRepo, caller, client.CoordinatorConfig{
		MaxAttempts: 3,
		BaseDelay:   5 * time.Millisecond,
	})

	_, err := coordinator.Refresh(context.Background())
	assert.ErrorIs(t, err, client.ErrReauthRequired)
	assert.Equal(t, int32(1), caller.callCount())
}

// 4. После успешного обновления блокировка снята
func TestRefresh_LockReleasedAfterSuccess(t *testing.T) {
	lockRepo, mr := newTestLockRepository(t)

	caller := &fakeCaller{token: "fresh-token"}
	coordinator := client.NewRefreshCoordinator(lockRepo, lockRepo, caller, client.CoordinatorConfig{})

	token, err := coordinator.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)
	assert.False(t, mr.Exists(lockKey()))
}

// 5. Ожидающий клиент получает отказ держателя и не выполняет свой вызов
func TestRefresh_WaiterReceivesDenied(t *testing.T) {
	lockRepo, _ := newTestLockRepository(t)
	ctx := context.Background()

	// блокировку держит другой клиент
	acquired, err := lockRepo.AcquireLock(ctx, "other-holder")
	require.NoError(t, err)
	require.True(t, acquired)

	caller := &fakeCaller{token: "should-not-be-used"}
	coordinator := client.NewRefreshCoordinator(lockRepo, lockRepo, caller, client.CoordinatorConfig{})

	done := make(chan struct{})
	var refreshErr error
	go func() {
		defer close(done)
		_, refreshErr = coordinator.Refresh(ctx)
	}()

	// даём ожидающему время подписаться, затем публикуем отказ
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, lockRepo.PublishResult(ctx, &model.RefreshResult{Status: model.RefreshStatusDenied}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ожидающий клиент не завершился")
	}

	assert.ErrorIs(t, refreshErr, client.ErrReauthRequired)
	assert.Equal(t, int32(0), caller.callCount())
}

// 6. Протухшая блокировка упавшего держателя перехватывается после
// истечения аренды
func TestRefresh_StaleLockReclaimed(t *testing.T) {
	lockRepo, mr := newTestLockRepository(t)

	// упавший держатель оставил блокировку с остатком аренды
	require.NoError(t, mr.Set(lockKey(), "dead-holder"))
	mr.SetTTL(lockKey(), 100*time.Millisecond)

	caller := &fakeCaller{token: "reclaimed-token"}
	coordinator := client.NewRefreshCoordinator(lockRepo, lockRepo, caller, client.CoordinatorConfig{
		LockTTL: 100 * time.Millisecond,
	})

	// продвигаем часы Redis, пока клиент ждёт результата: аренда истекает
	go func() {
		time.Sleep(150 * time.Millisecond)
		mr.FastForward(200 * time.Millisecond)
	}()

	token, err := coordinator.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "reclaimed-token", token)
	assert.Equal(t, int32(1), caller.callCount())
}
