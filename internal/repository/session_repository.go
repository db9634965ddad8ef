package repository

import (
	"auth-web-server/config"
	"auth-web-server/internal/model"
	"auth-web-server/internal/util"
	"context"
	"database/sql"
	"errors"
)

type RefreshSessionRepository struct {
	*config.Database
}

func NewRefreshSessionRepository(database *config.Database) *RefreshSessionRepository {
	return &RefreshSessionRepository{database}
}

// SaveSession сохраняет refresh-сессию в базе данных.
// В поле token_hash уже должен лежать хэш, сырой секрет сюда не попадает.
func (r *RefreshSessionRepository) SaveSession(ctx context.Context, session *model.RefreshSession) error {
	query := `INSERT INTO refresh_sessions (uuid, user_uuid, token_hash, expire_at, created_at, user_agent, ip_address)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.DB.ExecContext(ctx, query,
		session.UUID,
		session.UserUUID,
		session.TokenHash,
		session.ExpireAt,
		session.CreatedAt,
		session.UserAgent,
		session.IpAddress,
	)

	if err != nil {
		return util.LogError("ошибка вставки данных в БД", err)
	}

	return nil
}

// FindByHash ищет refresh-сессию по хэшу секрета.
// Возвращает nil без ошибки, если сессия не найдена
func (r *RefreshSessionRepository) FindByHash(ctx context.Context, tokenHash string) (*model.RefreshSession, error) {
	query := `SELECT uuid, user_uuid, token_hash, expire_at, created_at, user_agent, ip_address
				FROM refresh_sessions WHERE token_hash = $1`

	session := &model.RefreshSession{}

	err := r.DB.QueryRowContext(ctx, query, tokenHash).Scan(
		&session.UUID,
		&session.UserUUID,
		&session.TokenHash,
		&session.ExpireAt,
		&session.CreatedAt,
		&session.UserAgent,
		&session.IpAddress,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, util.LogError("ошибка при выполнении запроса", err)
	}

	return session, nil
}

// DeleteByUUID удаляет refresh-сессию по UUID.
// Удаление отсутствующей сессии не является ошибкой
func (r *RefreshSessionRepository) DeleteByUUID(ctx context.Context, sessionUUID string) error {
	query := `DELETE FROM refresh_sessions WHERE uuid = $1`

	if _, err := r.DB.ExecContext(ctx, query, sessionUUID); err != nil {
		return util.LogError("не удалось удалить refresh-сессию", err)
	}

	return nil
}

// DeleteByHash удаляет refresh-сессию по хэшу секрета (logout).
// Идемпотентна: повторный вызов для того же токена проходит без ошибки
func (r *RefreshSessionRepository) DeleteByHash(ctx context.Context, tokenHash string) error {
	query := `DELETE FROM refresh_sessions WHERE token_hash = $1`

	if _, err := r.DB.ExecContext(ctx, query, tokenHash); err != nil {
		return util.LogError("не удалось удалить refresh-сессию", err)
	}

	return nil
}

// DeleteExpired удаляет все просроченные refresh-сессии.
// Возвращает количество удалённых записей
func (r *RefreshSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM refresh_sessions WHERE expire_at < NOW()`

	result, err := r.DB.ExecContext(ctx, query)
	if err != nil {
		return 0, util.LogError("не удалось удалить просроченные refresh-сессии", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, util.LogError("не удалось получить количество удалённых сессий", err)
	}

	return rowsAffected, nil
}
