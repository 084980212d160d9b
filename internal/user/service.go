// Package user управляет пользователями: регистрация по Telegram ID,
// поиск и частичное обновление профиля.
package user

import (
	"context"

	"roommate_go/internal/apperr"
	"roommate_go/models"
	"roommate_go/pkg/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service хранит и читает профили пользователей.
type Service struct {
	repo *storage.Repository
	log  *zap.Logger
}

// NewService создаёт сервис пользователей.
func NewService(repo *storage.Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, log: log}
}

// Create регистрирует пользователя. Telegram ID должен быть уникален среди живых пользователей.
func (s *Service) Create(ctx context.Context, in models.CreateUser) (models.User, error) {
	const op = "create_user"
	if in.Profile.LanguageCode == "" {
		in.Profile.LanguageCode = models.DefaultLanguage
	}
	if err := models.Validate(op, in); err != nil {
		return models.User{}, err
	}
	if err := models.CheckProfile(op, in.Profile); err != nil {
		return models.User{}, err
	}

	existing, err := s.repo.FindUsersByTelegramID(ctx, in.TelegramID)
	if err != nil {
		return models.User{}, storage.Translate(op, err)
	}
	if len(existing) > 0 {
		return models.User{}, apperr.Newf(apperr.UserAlreadyExists, op, "telegram id %d is already registered", in.TelegramID)
	}

	created, err := s.repo.Users.Create(ctx, models.User{TelegramID: in.TelegramID, Profile: in.Profile})
	if err != nil {
		return models.User{}, storage.Translate(op, err)
	}
	s.log.Info("[USER] пользователь зарегистрирован",
		zap.String("id", created.ID.String()), zap.Int64("telegram_id", created.TelegramID))
	return created, nil
}

// FindByTelegramID возвращает первого живого пользователя с этим Telegram ID.
func (s *Service) FindByTelegramID(ctx context.Context, telegramID int64) (models.User, error) {
	const op = "find_user_by_telegram_id"
	users, err := s.repo.FindUsersByTelegramID(ctx, telegramID)
	if err != nil {
		return models.User{}, storage.Translate(op, err)
	}
	if len(users) == 0 {
		return models.User{}, apperr.Newf(apperr.UserNotFound, op, "no user with telegram id %d", telegramID)
	}
	return users[0], nil
}

// FindByUsername ищет пользователей по имени в Telegram.
func (s *Service) FindByUsername(ctx context.Context, username string) ([]models.User, error) {
	users, err := s.repo.FindUsersByProfileUsername(ctx, username)
	if err != nil {
		return nil, storage.Translate("find_users_by_username", err)
	}
	return users, nil
}

// Read возвращает пользователя по id.
func (s *Service) Read(ctx context.Context, id uuid.UUID) (models.User, error) {
	u, err := s.repo.Users.Read(ctx, id)
	if err != nil {
		return models.User{}, storage.Translate("read_user", err)
	}
	return u, nil
}

// ReadMany читает пользователей пачкой в порядке ids.
func (s *Service) ReadMany(ctx context.Context, ids []uuid.UUID) ([]*models.User, error) {
	users, err := s.repo.Users.ReadMany(ctx, ids)
	if err != nil {
		return nil, storage.Translate("read_users", err)
	}
	return users, nil
}

// Update применяет патч профиля по полям. Telegram ID изменить нельзя.
func (s *Service) Update(ctx context.Context, in models.UpdateUser) (models.User, error) {
	const op = "update_user"
	cur, err := s.repo.Users.Read(ctx, in.ID)
	if err != nil {
		return models.User{}, storage.Translate(op, err)
	}
	if in.TelegramID != nil && *in.TelegramID != cur.TelegramID {
		return models.User{}, apperr.New(apperr.ImmutableFieldChanged, op, "telegram_id cannot be changed")
	}
	if in.Profile != nil {
		cur.Profile = in.Profile.Apply(cur.Profile)
		if err := models.CheckProfile(op, cur.Profile); err != nil {
			return models.User{}, err
		}
	}
	if in.Views != nil {
		if *in.Views < 0 {
			return models.User{}, apperr.New(apperr.ValidationFailed, op, "views must not be negative")
		}
		cur.Views = *in.Views
	}
	updated, err := s.repo.Users.Update(ctx, cur)
	if err != nil {
		return models.User{}, storage.Translate(op, err)
	}
	return updated, nil
}

// Delete мягко удаляет пользователя.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (models.User, error) {
	u, err := s.repo.Users.Delete(ctx, id)
	if err != nil {
		return models.User{}, storage.Translate("delete_user", err)
	}
	s.log.Info("[USER] пользователь удалён", zap.String("id", id.String()))
	return u, nil
}
