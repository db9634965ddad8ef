package client

import (
	"auth-web-server/internal/model"
	"auth-web-server/internal/ports"
	"auth-web-server/internal/util"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

const (
	defaultLockTTL     = 5 * time.Second
	defaultMaxAttempts = 3
	defaultBaseDelay   = 1 * time.Second

	// запас сверх аренды, в течение которого ожидающий ещё слушает канал,
	// прежде чем счесть держателя упавшим
	waitSlack = 500 * time.Millisecond
)

// CoordinatorConfig : параметры координатора. Нулевые значения
// заменяются значениями по умолчанию (аренда 5s, 3 попытки, задержки 1s/2s/4s)
type CoordinatorConfig struct {
	LockTTL     time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
}

// RefreshCoordinator гарантирует, что среди всех клиентов, разделяющих один
// refresh-токен, в каждый момент выполняется не больше одного сетевого
// обновления. Победивший захват блокировки клиент выполняет вызов и
// рассылает результат, остальные принимают его из канала.
type RefreshCoordinator struct {
	locker    ports.RefreshLocker
	broadcast ports.RefreshBroadcast
	caller    RefreshCaller
	holderID  string

	lockTTL     time.Duration
	maxAttempts int
	baseDelay   time.Duration
}

func NewRefreshCoordinator(
	locker ports.RefreshLocker,
	broadcast ports.RefreshBroadcast,
	caller RefreshCaller,
	cfg CoordinatorConfig,
) *RefreshCoordinator {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaultLockTTL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaultBaseDelay
	}

	return &RefreshCoordinator{
		locker:      locker,
		broadcast:   broadcast,
		caller:      caller,
		holderID:    uuid.New().String(),
		lockTTL:     cfg.LockTTL,
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
	}
}

// Refresh возвращает новый access токен, выполнив сетевое обновление либо
// дождавшись результата от клиента, который уже его выполняет.
// Все одновременные вызовы получают один и тот же токен или одну и ту же
// ошибку
func (c *RefreshCoordinator) Refresh(ctx context.Context) (string, error) {
	for {
		// подписка до проверки блокировки, иначе можно пропустить публикацию
		results, closeSub, err := c.broadcast.SubscribeResults(ctx)
		if err != nil {
			return "", err
		}

		acquired, err := c.locker.AcquireLock(ctx, c.holderID)
		if err != nil {
			closeSub()
			return "", err
		}

		if acquired {
			closeSub()
			return c.refreshAsHolder(ctx)
		}

		token, retryAcquire, err := c.awaitResult(ctx, results)
		closeSub()
		if !retryAcquire {
			return token, err
		}
		// держатель не опубликовал результат за время аренды — считаем его
		// упавшим и пробуем захватить блокировку сами
	}
}

// refreshAsHolder выполняет сетевое обновление от имени держателя блокировки
// и рассылает результат всем ожидающим
func (c *RefreshCoordinator) refreshAsHolder(ctx context.Context) (string, error) {
	// результат публикуем и блокировку снимаем даже при отменённом ctx
	finishCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	defer func() {
		if err := c.locker.ReleaseLock(finishCtx, c.holderID); err != nil {
			_ = util.LogError("не удалось снять блокировку обновления", err)
		}
	}()

	token, err := c.callWithRetry(ctx)
	if err != nil {
		status := model.RefreshStatusFailed
		if errors.Is(err, ErrReauthRequired) {
			status = model.RefreshStatusDenied
		}
		if pubErr := c.broadcast.PublishResult(finishCtx, &model.RefreshResult{Status: status}); pubErr != nil {
			_ = util.LogError("не удалось опубликовать результат обновления", pubErr)
		}
		return "", err
	}

	if pubErr := c.broadcast.PublishResult(finishCtx, &model.RefreshResult{Status: model.RefreshStatusOK, AccessToken: token}); pubErr != nil {
		_ = util.LogError("не удалось опубликовать результат обновления", pubErr)
	}

	return token, nil
}

// callWithRetry выполняет вызов обновления с экспоненциальным backoff.
// Временные сбои (сеть, 5xx) повторяются до maxAttempts раз,
// отказ сервера (401/403) терминален и не повторяется
func (c *RefreshCoordinator) callWithRetry(ctx context.Context) (string, error) {
	var token string

	backoff := retry.WithMaxRetries(uint64(c.maxAttempts-1), retry.NewExponential(c.baseDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		result, err := c.caller.RefreshAccessToken(ctx)
		if err != nil {
			if errors.Is(err, ErrReauthRequired) {
				return err
			}
			return retry.RetryableError(err)
		}
		token = result
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrReauthRequired) || ctx.Err() != nil {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrRetriesExhausted, err)
	}

	return token, nil
}

// awaitResult ждёт публикации результата от текущего держателя блокировки.
// retryAcquire=true означает, что результата не было дольше времени аренды
// и вызывающему следует попытаться захватить блокировку самому
func (c *RefreshCoordinator) awaitResult(ctx context.Context, results <-chan *model.RefreshResult) (token string, retryAcquire bool, err error) {
	timer := time.NewTimer(c.lockTTL + waitSlack)
	defer timer.Stop()

	select {
	case result, ok := <-results:
		if !ok {
			return "", true, nil
		}
		switch result.Status {
		case model.RefreshStatusOK:
			return result.AccessToken, false, nil
		case model.RefreshStatusDenied:
			return "", false, ErrReauthRequired
		default:
			return "", false, ErrRetriesExhausted
		}
	case <-timer.C:
		return "", true, nil
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}
