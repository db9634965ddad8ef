package ports

import (
	"auth-web-server/internal/model"
	"context"
)

// RefreshLocker : распределённая блокировка обновления с ограниченным
// временем аренды. Захват выполняется атомарно и только при отсутствии ключа,
// протухшая блокировка исчезает сама по истечении аренды.
type RefreshLocker interface {
	AcquireLock(ctx context.Context, holderID string) (bool, error)
	ReleaseLock(ctx context.Context, holderID string) error
}

// RefreshBroadcast : канал рассылки результата обновления всем ожидающим,
// разделяющим один refresh-токен
type RefreshBroadcast interface {
	PublishResult(ctx context.Context, result *model.RefreshResult) error
	SubscribeResults(ctx context.Context) (<-chan *model.RefreshResult, func(), error)
}
