// Package allocation управляет кампаниями расселения и их жизненным циклом.
package allocation

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

// Service управляет жизненным циклом кампаний распределения.
type Service struct {
	repo  *storage.Repository
	check *integrity.Checker
	log   *zap.Logger
}

// NewService создаёт сервис; log может быть nil.
func NewService(repo *storage.Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, check: integrity.New(repo, log), log: log}
}

// Create заводит кампанию. Без явного состояния она создаётся в CREATING.
func (s *Service) Create(ctx context.Context, in models.CreateAllocation) (models.Allocation, error) {
	const op = "create_allocation"
	if err := models.Validate(op, in); err != nil {
		return models.Allocation{}, err
	}
	if in.State == "" {
		in.State = models.AllocationCreating
	}
	if !in.State.Valid() {
		return models.Allocation{}, apperr.Newf(apperr.ValidationFailed, op, "unknown state %q", in.State)
	}
	if !in.State.HasParticipants() && in.ParticipantsIDs.Len() > 0 {
		return models.Allocation{}, apperr.Newf(apperr.ValidationFailed, op, "%s allocation cannot have participants", in.State)
	}

	checks := []integrity.Check{
		s.check.CreatorExists(in.CreatorID),
		s.check.EditorsExist(in.EditorsIDs),
		s.check.FormFieldsExist(in.FormFieldsIDs),
	}
	if in.ParticipantsIDs != nil {
		checks = append(checks, s.check.ParticipantsExist(in.ParticipantsIDs))
	}
	if err := s.check.Require(ctx, op, checks...); err != nil {
		return models.Allocation{}, err
	}

	a := models.Allocation{
		Name:            in.Name,
		Due:             in.Due,
		State:           in.State,
		FormFieldsIDs:   in.FormFieldsIDs.Clone(),
		CreatorID:       in.CreatorID,
		EditorsIDs:      in.EditorsIDs.Clone(),
		ParticipantsIDs: in.ParticipantsIDs.Clone(),
	}
	a.Normalize()
	created, err := s.repo.Allocations.Create(ctx, a)
	if err != nil {
		return models.Allocation{}, storage.Translate(op, err)
	}
	s.log.Info("[ALLOCATION] кампания создана",
		zap.String("id", created.ID.String()), zap.String("state", string(created.State)))
	return created, nil
}

// Read возвращает живую кампанию по id.
func (s *Service) Read(ctx context.Context, id uuid.UUID) (models.Allocation, error) {
	a, err := s.repo.Allocations.Read(ctx, id)
	if err != nil {
		return models.Allocation{}, storage.Translate("read_allocation", err)
	}
	return a, nil
}

func (s *Service) ReadMany(ctx context.Context, ids []uuid.UUID) ([]*models.Allocation, error) {
	out, err := s.repo.Allocations.ReadMany(ctx, ids)
	if err != nil {
		return nil, storage.Translate("read_allocations", err)
	}
	return out, nil
}

// Update применяет частичное обновление. Смена состояния проверяется по таблице
// переходов; участники, которых не заменили явно, сохраняются.
func (s *Service) Update(ctx context.Context, in models.UpdateAllocation) (models.Allocation, error) {
	const op = "update_allocation"
	cur, err := s.repo.Allocations.Read(ctx, in.ID)
	if err != nil {
		return models.Allocation{}, storage.Translate(op, err)
	}
	if in.CreatorID != nil && *in.CreatorID != cur.CreatorID {
		return models.Allocation{}, apperr.New(apperr.ImmutableFieldChanged, op, "creator_id cannot be changed")
	}

	next := cur
	if in.State != nil {
		next, err = cur.Transition(*in.State)
		if err != nil {
			return models.Allocation{}, err
		}
	}
	if in.Name != nil {
		if *in.Name == "" {
			return models.Allocation{}, apperr.New(apperr.ValidationFailed, op, "name must not be empty")
		}
		next.Name = *in.Name
	}
	if in.Due != nil {
		next.Due = in.Due
	}

	var checks []integrity.Check
	if in.FormFieldsIDs != nil {
		checks = append(checks, s.check.FormFieldsExist(in.FormFieldsIDs))
		next.FormFieldsIDs = in.FormFieldsIDs.Clone()
	}
	if in.EditorsIDs != nil {
		checks = append(checks, s.check.EditorsExist(in.EditorsIDs))
		next.EditorsIDs = in.EditorsIDs.Clone()
	}
	if in.ParticipantsIDs != nil {
		if !next.State.HasParticipants() {
			return models.Allocation{}, apperr.Newf(apperr.ValidationFailed, op, "%s allocation cannot have participants", next.State)
		}
		checks = append(checks, s.check.ParticipantsExist(in.ParticipantsIDs))
		next.ParticipantsIDs = in.ParticipantsIDs.Clone()
	}
	if err := s.check.Require(ctx, op, checks...); err != nil {
		return models.Allocation{}, err
	}

	updated, err := s.repo.Allocations.Update(ctx, next)
	if err != nil {
		return models.Allocation{}, storage.Translate(op, err)
	}
	if cur.State != updated.State {
		metrics.RecordTransition("allocation", string(cur.State), string(updated.State))
		s.log.Info("[ALLOCATION] смена состояния", zap.String("id", updated.ID.String()),
			zap.String("from", string(cur.State)), zap.String("to", string(updated.State)))
	}
	return updated, nil
}

// Delete мягко удаляет кампанию. Вопросы и участники не удаляются каскадно.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (models.Allocation, error) {
	a, err := s.repo.Allocations.Delete(ctx, id)
	if err != nil {
		return models.Allocation{}, storage.Translate("delete_allocation", err)
	}
	s.log.Info("[ALLOCATION] кампания удалена", zap.String("id", id.String()))
	return a, nil
}
