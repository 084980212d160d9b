// Package telegram связывает сервис с Telegram: проверяет данные виджета входа,
// хранит сессию бота и доставляет уведомления через MTProto.
package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrInvalidHash — подпись данных входа не совпала.
	ErrInvalidHash = errors.New("telegram login hash mismatch")
	// ErrExpired — данные входа старше допустимого возраста.
	ErrExpired = errors.New("telegram login data expired")
)

// LoginPayload — данные пользователя, подписанные виджетом входа Telegram.
type LoginPayload struct {
	ID        int64
	FirstName string
	LastName  *string
	Username  *string
	PhotoURL  *string
	AuthDate  time.Time
}

// CheckString собирает строку для подписи: пары key=value без hash,
// отсортированные по ключу и разделённые переводом строки.
func CheckString(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k != "hash" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = k + "=" + params[k]
	}
	return strings.Join(lines, "\n")
}

// Sign вычисляет HMAC-SHA256 строки проверки ключом SHA256(secret).
func Sign(params map[string]string, secret string) string {
	key := sha256.Sum256([]byte(secret))
	mac := hmac.New(sha256.New, key[:])
	mac.Write([]byte(CheckString(params)))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyLogin сверяет подпись и разбирает данные входа.
func VerifyLogin(params map[string]string, secret string) (LoginPayload, error) {
	got, err := hex.DecodeString(params["hash"])
	if err != nil || len(got) == 0 {
		return LoginPayload{}, ErrInvalidHash
	}
	want, _ := hex.DecodeString(Sign(params, secret))
	if !hmac.Equal(got, want) {
		return LoginPayload{}, ErrInvalidHash
	}
	return parseLogin(params)
}

func parseLogin(params map[string]string) (LoginPayload, error) {
	id, err := strconv.ParseInt(params["id"], 10, 64)
	if err != nil {
		return LoginPayload{}, errors.Wrap(err, "parse id")
	}
	authDate, err := strconv.ParseInt(params["auth_date"], 10, 64)
	if err != nil {
		return LoginPayload{}, errors.Wrap(err, "parse auth_date")
	}
	p := LoginPayload{ID: id, FirstName: params["first_name"], AuthDate: time.Unix(authDate, 0).UTC()}
	if v, ok := params["last_name"]; ok {
		p.LastName = &v
	}
	if v, ok := params["username"]; ok {
		p.Username = &v
	}
	if v, ok := params["photo_url"]; ok {
		p.PhotoURL = &v
	}
	return p, nil
}

// CheckFresh возвращает ErrExpired, если данные старше maxAge. Нулевой maxAge отключает проверку.
func (p LoginPayload) CheckFresh(now time.Time, maxAge time.Duration) error {
	if maxAge > 0 && now.Sub(p.AuthDate) > maxAge {
		return ErrExpired
	}
	return nil
}
