package model

import "time"

// RefreshSession : серверная запись о refresh-токене.
// Сырой секрет никогда не сохраняется, хранится только его хэш.
type RefreshSession struct {
	UUID      string    `db:"uuid"`
	UserUUID  string    `db:"user_uuid"`
	TokenHash string    `db:"token_hash"`
	ExpireAt  time.Time `db:"expire_at"`
	CreatedAt time.Time `db:"created_at"`
	UserAgent string    `db:"user_agent"`
	IpAddress string    `db:"ip_address"`
}

// TokensPair содержит пару access и refresh токенов
// swagger:model
type TokensPair struct {
	// Access токен (JWT)
	// example: eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9...
	AccessToken string `json:"accessToken"`

	// Refresh токен (для получения новых access токенов)
	// example: vcSi0369y1I62wOpxZFpgZ...
	RefreshToken string `json:"refreshToken"`
}

// Статусы результата обновления, рассылаемого ожидающим клиентам
const (
	RefreshStatusOK     = "ok"
	RefreshStatusDenied = "denied"
	RefreshStatusFailed = "failed"
)

// RefreshResult : сообщение о завершении обновления токена,
// публикуется держателем блокировки для всех ожидающих
type RefreshResult struct {
	Status      string `json:"status"`
	AccessToken string `json:"access_token,omitempty"`
}
