// Package auth регистрирует и впускает пользователей по данным виджета входа Telegram.
package auth

import (
	"context"
	"time"

	"roommate_go/internal/apperr"
	"roommate_go/internal/identity"
	"roommate_go/internal/user"
	"roommate_go/models"
	"roommate_go/pkg/telegram"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// Session — ответ на успешный вход.
type Session struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Service проверяет данные входа Telegram и выпускает токены.
type Service struct {
	users  *user.Service
	signer identity.Signer
	secret string
	maxAge time.Duration
	now    func() time.Time
	log    *zap.Logger
}

// NewService создаёт сервис; secret — токен бота, которым подписаны данные входа.
// Нулевой maxAge отключает проверку давности auth_date.
func NewService(users *user.Service, signer identity.Signer, secret string, maxAge time.Duration, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{users: users, signer: signer, secret: secret, maxAge: maxAge, now: time.Now, log: log}
}

func (s *Service) verify(op string, params map[string]string) (telegram.LoginPayload, error) {
	p, err := telegram.VerifyLogin(params, s.secret)
	if err != nil {
		if !errors.Is(err, telegram.ErrInvalidHash) {
			return telegram.LoginPayload{}, apperr.Wrap(apperr.ValidationFailed, op, err)
		}
		s.log.Warn("[AUTH] неверная подпись данных входа", zap.String("op", op))
		return telegram.LoginPayload{}, apperr.Wrap(apperr.InvalidCredentials, op, err)
	}
	if err := p.CheckFresh(s.now(), s.maxAge); err != nil {
		return telegram.LoginPayload{}, apperr.Wrap(apperr.InvalidCredentials, op, err)
	}
	return p, nil
}

func (s *Service) issue(u models.User) (Session, error) {
	token, err := identity.Issue(identity.Identity{UserID: u.ID, TelegramID: u.TelegramID}, s.signer)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: u}, nil
}

// Register создаёт пользователя по подписанным данным и выдаёт токен.
func (s *Service) Register(ctx context.Context, params map[string]string) (Session, error) {
	const op = "register"
	p, err := s.verify(op, params)
	if err != nil {
		return Session{}, err
	}
	u, err := s.users.Create(ctx, models.CreateUser{
		TelegramID: p.ID,
		Profile: models.Profile{
			FirstName: p.FirstName,
			LastName:  p.LastName,
			Username:  p.Username,
		},
	})
	if err != nil {
		return Session{}, err
	}
	s.log.Info("[AUTH] пользователь зарегистрирован", zap.Int64("telegram_id", u.TelegramID))
	return s.issue(u)
}

// Login выдаёт токен уже зарегистрированному пользователю.
func (s *Service) Login(ctx context.Context, params map[string]string) (Session, error) {
	const op = "login"
	p, err := s.verify(op, params)
	if err != nil {
		return Session{}, err
	}
	u, err := s.users.FindByTelegramID(ctx, p.ID)
	if err != nil {
		return Session{}, err
	}
	return s.issue(u)
}
