package telegram

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/gotd/td/session"
	"go.uber.org/zap"
)

// DBSessionStorage хранит сессию MTProto бота в таблице bot_session.
type DBSessionStorage struct {
	DB    *sql.DB
	BotID int64
	Log   *zap.Logger
}

func (s *DBSessionStorage) LoadSession(ctx context.Context) ([]byte, error) {
	if s == nil || s.DB == nil {
		return nil, session.ErrNotFound
	}
	var data string
	err := s.DB.QueryRowContext(ctx, "SELECT data_json FROM bot_session WHERE bot_id = $1", s.BotID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		s.logger().Error("[BOT SESSION] ошибка чтения сессии", zap.Error(err))
		return nil, err
	}
	return []byte(data), nil
}

func (s *DBSessionStorage) StoreSession(ctx context.Context, data []byte) error {
	if s == nil || s.DB == nil {
		return session.ErrNotFound
	}
	_, err := s.DB.ExecContext(ctx,
		"INSERT INTO bot_session (bot_id, data_json) VALUES ($1, $2) "+
			"ON CONFLICT (bot_id) DO UPDATE SET data_json = EXCLUDED.data_json, date_time = NOW()",
		s.BotID, string(data),
	)
	if err != nil {
		s.logger().Error("[BOT SESSION] ошибка сохранения сессии", zap.Error(err))
		return err
	}
	return nil
}

func (s *DBSessionStorage) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// BotIDFromToken возвращает числовой идентификатор бота из токена вида "123:abc".
func BotIDFromToken(token string) (int64, error) {
	prefix, _, ok := strings.Cut(token, ":")
	if !ok {
		return 0, errors.New("malformed bot token")
	}
	id, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "parse bot id")
	}
	return id, nil
}
