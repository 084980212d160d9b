// Package preference хранит направленные намерения пользователей друг к другу.
package preference

import (
	"context"

	"roommate_go/internal/apperr"
	"roommate_go/internal/integrity"
	"roommate_go/internal/metrics"
	"roommate_go/models"
	"roommate_go/pkg/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service хранит предпочтения участников.
type Service struct {
	repo  *storage.Repository
	check *integrity.Checker
	log   *zap.Logger
}

// NewService создаёт сервис предпочтений.
func NewService(repo *storage.Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, check: integrity.New(repo, log), log: log}
}

// Create сохраняет предпочтение. Живая тройка (user_id, target_id, kind) уникальна.
func (s *Service) Create(ctx context.Context, in models.CreatePreference) (models.Preference, error) {
	const op = "create_preference"
	if err := models.Validate(op, in); err != nil {
		return models.Preference{}, err
	}
	if in.UserID == in.TargetID {
		return models.Preference{}, apperr.New(apperr.ValidationFailed, op, "user_id and target_id must differ")
	}
	if in.Status == "" {
		in.Status = models.PreferencePending
	}
	err := s.check.Require(ctx, op, s.check.UserExists(in.UserID), s.check.TargetExists(in.TargetID))
	if err != nil {
		return models.Preference{}, err
	}
	existing, err := s.repo.FindPreferences(ctx, in.UserID, in.TargetID)
	if err != nil {
		return models.Preference{}, storage.Translate(op, err)
	}
	for _, p := range existing {
		if p.Kind == in.Kind {
			return models.Preference{}, apperr.Newf(apperr.AlreadyExists, op, "%s preference already exists", in.Kind)
		}
	}

	created, err := s.repo.Preferences.Create(ctx, models.Preference{
		Kind:     in.Kind,
		Status:   in.Status,
		UserID:   in.UserID,
		TargetID: in.TargetID,
	})
	if err != nil {
		return models.Preference{}, storage.Translate(op, err)
	}
	s.log.Info("[PREFERENCE] предпочтение создано", zap.String("id", created.ID.String()), zap.String("kind", string(created.Kind)))
	return created, nil
}

// Read возвращает предпочтение по id.
func (s *Service) Read(ctx context.Context, id uuid.UUID) (models.Preference, error) {
	p, err := s.repo.Preferences.Read(ctx, id)
	if err != nil {
		return models.Preference{}, storage.Translate("read_preference", err)
	}
	return p, nil
}

func (s *Service) ReadMany(ctx context.Context, ids []uuid.UUID) ([]*models.Preference, error) {
	out, err := s.repo.Preferences.ReadMany(ctx, ids)
	if err != nil {
		return nil, storage.Translate("read_preferences", err)
	}
	return out, nil
}

// Find возвращает живые предпочтения пользователя userID к targetID.
func (s *Service) Find(ctx context.Context, userID, targetID uuid.UUID) ([]models.Preference, error) {
	out, err := s.repo.FindPreferences(ctx, userID, targetID)
	if err != nil {
		return nil, storage.Translate("find_preferences", err)
	}
	return out, nil
}

// Update меняет только статус: PENDING переходит в APPROVED или REJECTED.
func (s *Service) Update(ctx context.Context, in models.UpdatePreference) (models.Preference, error) {
	const op = "update_preference"
	if err := models.Validate(op, in); err != nil {
		return models.Preference{}, err
	}
	cur, err := s.repo.Preferences.Read(ctx, in.ID)
	if err != nil {
		return models.Preference{}, storage.Translate(op, err)
	}
	switch {
	case in.Kind != nil && *in.Kind != cur.Kind:
		return models.Preference{}, apperr.New(apperr.ImmutableFieldChanged, op, "kind cannot be changed")
	case in.UserID != nil && *in.UserID != cur.UserID:
		return models.Preference{}, apperr.New(apperr.ImmutableFieldChanged, op, "user_id cannot be changed")
	case in.TargetID != nil && *in.TargetID != cur.TargetID:
		return models.Preference{}, apperr.New(apperr.ImmutableFieldChanged, op, "target_id cannot be changed")
	}
	if in.Status == nil || *in.Status == cur.Status {
		return cur, nil
	}
	next, err := cur.WithStatus(*in.Status)
	if err != nil {
		return models.Preference{}, err
	}
	updated, err := s.repo.Preferences.Update(ctx, next)
	if err != nil {
		return models.Preference{}, storage.Translate(op, err)
	}
	metrics.RecordTransition("preference", string(cur.Status), string(updated.Status))
	return updated, nil
}

// Delete мягко удаляет предпочтение.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (models.Preference, error) {
	p, err := s.repo.Preferences.Delete(ctx, id)
	if err != nil {
		return models.Preference{}, storage.Translate("delete_preference", err)
	}
	return p, nil
}
