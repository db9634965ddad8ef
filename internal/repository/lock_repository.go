package repository

import (
	"auth-web-server/config"
	"auth-web-server/internal/model"
	"auth-web-server/internal/util"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// снимаем блокировку только если её всё ещё держим мы:
// чужую (перехваченную после истечения аренды) трогать нельзя
var releaseLockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RefreshLockRepository : разделяемое Redis-хранилище для координации
// обновления токена между несколькими клиентами с одним refresh-токеном.
// Блокировка — ключ с арендой (SET NX PX): упавший держатель не мешает
// остальным дольше, чем живёт аренда. Результат обновления рассылается
// через pub/sub канал того же credential.
type RefreshLockRepository struct {
	client        *config.RedisClient
	credentialKey string
	ttl           time.Duration
}

func NewRefreshLockRepository(rdb *config.RedisClient, credentialKey string, ttl time.Duration) *RefreshLockRepository {
	return &RefreshLockRepository{rdb, credentialKey, ttl}
}

// AcquireLock пытается атомарно захватить блокировку обновления.
// Возвращает false без ошибки, если блокировку держит другой клиент
func (r *RefreshLockRepository) AcquireLock(ctx context.Context, holderID string) (bool, error) {
	acquired, err := r.client.Client.SetNX(ctx, r.lockKey(), holderID, r.ttl).Result()
	if err != nil {
		return false, util.LogError("ошибка захвата блокировки в Redis", err)
	}
	return acquired, nil
}

// ReleaseLock снимает блокировку, если holderID всё ещё её держит
func (r *RefreshLockRepository) ReleaseLock(ctx context.Context, holderID string) error {
	if err := releaseLockScript.Run(ctx, r.client.Client, []string{r.lockKey()}, holderID).Err(); err != nil {
		return util.LogError("ошибка снятия блокировки в Redis", err)
	}
	return nil
}

// PublishResult рассылает результат обновления всем подписчикам канала
func (r *RefreshLockRepository) PublishResult(ctx context.Context, result *model.RefreshResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return util.LogError("ошибка сериализации результата обновления", err)
	}

	if err := r.client.Client.Publish(ctx, r.channel(), data).Err(); err != nil {
		return util.LogError("ошибка публикации результата в Redis", err)
	}

	return nil
}

// SubscribeResults подписывается на результаты обновления.
// Возвращённая функция закрывает подписку, канал при этом закрывается
func (r *RefreshLockRepository) SubscribeResults(ctx context.Context) (<-chan *model.RefreshResult, func(), error) {
	sub := r.client.Client.Subscribe(ctx, r.channel())

	// дожидаемся подтверждения подписки, чтобы не пропустить публикацию
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, util.LogError("ошибка подписки на канал Redis", err)
	}

	out := make(chan *model.RefreshResult, 1)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var result model.RefreshResult
			if err := json.Unmarshal([]byte(msg.Payload), &result); err != nil {
				continue
			}
			select {
			case out <- &result:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() { _ = sub.Close() }
	return out, cancel, nil
}

func (r *RefreshLockRepository) lockKey() string {
	return fmt.Sprintf("refresh-lock:%s", r.credentialKey)
}

func (r *RefreshLockRepository) channel() string {
	return fmt.Sprintf("refresh-result:%s", r.credentialKey)
}
