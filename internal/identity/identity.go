// Package identity выпускает и проверяет сессионный токен, который
// связывает запрос с пользователем.
package identity

import (
	"roommate_go/internal/apperr"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Identity — содержимое сессионного токена. Профиль в токен не попадает.
type Identity struct {
	UserID     uuid.UUID
	TelegramID int64
}

// Claims — полезная нагрузка токена.
type Claims struct {
	ID         string `json:"id"`
	TelegramID int64  `json:"telegram_id"`
	jwt.RegisteredClaims
}

// Signer подписывает и проверяет конверт токена.
type Signer interface {
	Sign(claims jwt.Claims) (string, error)
	Verify(token string, claims jwt.Claims) error
}

// Issue выпускает токен для пользователя.
func Issue(id Identity, signer Signer) (string, error) {
	claims := &Claims{ID: id.UserID.String(), TelegramID: id.TelegramID}
	token, err := signer.Sign(claims)
	if err != nil {
		return "", apperr.Wrap(apperr.OperationFailed, "issue_token", err)
	}
	return token, nil
}

// Decode проверяет подпись и извлекает Identity. Любая ошибка — InvalidCredentials.
func Decode(token string, signer Signer) (Identity, error) {
	const op = "decode_token"
	var claims Claims
	if err := signer.Verify(token, &claims); err != nil {
		return Identity{}, apperr.Wrap(apperr.InvalidCredentials, op, err)
	}
	userID, err := uuid.Parse(claims.ID)
	if err != nil {
		return Identity{}, apperr.Wrap(apperr.InvalidCredentials, op, errors.Wrap(err, "parse id"))
	}
	return Identity{UserID: userID, TelegramID: claims.TelegramID}, nil
}
