// Package room хранит комнаты для расселения. Заполненность и ограничение
// по полу не проверяются: за это отвечает процесс расселения.
package room

import (
	"context"

	"roommate_go/internal/apperr"
	"roommate_go/internal/integrity"
	"roommate_go/models"
	"roommate_go/pkg/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service управляет комнатами кампании.
type Service struct {
	repo  *storage.Repository
	check *integrity.Checker
	log   *zap.Logger
}

// NewService создаёт сервис комнат.
func NewService(repo *storage.Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, check: integrity.New(repo, log), log: log}
}

func checkGender(op string, g *models.Gender) error {
	if g != nil && !models.IsValidGender(*g) {
		return apperr.Newf(apperr.ValidationFailed, op, "unknown gender_restriction %q", *g)
	}
	return nil
}

// Create заводит комнату в кампании.
func (s *Service) Create(ctx context.Context, in models.CreateRoom) (models.Room, error) {
	const op = "create_room"
	if err := models.Validate(op, in); err != nil {
		return models.Room{}, err
	}
	if err := checkGender(op, in.GenderRestriction); err != nil {
		return models.Room{}, err
	}
	err := s.check.Require(ctx, op,
		s.check.CreatorExists(in.CreatorID),
		s.check.EditorsExist(in.EditorsIDs),
		s.check.ParticipantsExist(in.Occupied),
	)
	if err != nil {
		return models.Room{}, err
	}
	r := models.Room{
		Name:              in.Name,
		Capacity:          in.Capacity,
		Occupied:          in.Occupied.Clone(),
		GenderRestriction: in.GenderRestriction,
		CreatorID:         in.CreatorID,
		EditorsIDs:        in.EditorsIDs.Clone(),
	}
	r.Normalize()
	created, err := s.repo.Rooms.Create(ctx, r)
	if err != nil {
		return models.Room{}, storage.Translate(op, err)
	}
	s.log.Info("[ROOM] комната создана", zap.String("id", created.ID.String()), zap.String("name", created.Name))
	return created, nil
}

// Read возвращает комнату по id.
func (s *Service) Read(ctx context.Context, id uuid.UUID) (models.Room, error) {
	r, err := s.repo.Rooms.Read(ctx, id)
	if err != nil {
		return models.Room{}, storage.Translate("read_room", err)
	}
	return r, nil
}

// ReadMany читает комнаты пачкой.
func (s *Service) ReadMany(ctx context.Context, ids []uuid.UUID) ([]*models.Room, error) {
	out, err := s.repo.Rooms.ReadMany(ctx, ids)
	if err != nil {
		return nil, storage.Translate("read_rooms", err)
	}
	return out, nil
}

// Update применяет патч комнаты; жильцы и редакторы должны существовать.
func (s *Service) Update(ctx context.Context, in models.UpdateRoom) (models.Room, error) {
	const op = "update_room"
	cur, err := s.repo.Rooms.Read(ctx, in.ID)
	if err != nil {
		return models.Room{}, storage.Translate(op, err)
	}
	if in.CreatorID != nil && *in.CreatorID != cur.CreatorID {
		return models.Room{}, apperr.New(apperr.ImmutableFieldChanged, op, "creator_id cannot be changed")
	}

	next := cur
	if in.Name != nil {
		if *in.Name == "" {
			return models.Room{}, apperr.New(apperr.ValidationFailed, op, "name must not be empty")
		}
		next.Name = *in.Name
	}
	if in.Capacity != nil {
		if *in.Capacity < 0 {
			return models.Room{}, apperr.New(apperr.ValidationFailed, op, "capacity must not be negative")
		}
		next.Capacity = *in.Capacity
	}
	if in.GenderRestriction != nil {
		if err := checkGender(op, in.GenderRestriction); err != nil {
			return models.Room{}, err
		}
		next.GenderRestriction = in.GenderRestriction
	}

	var checks []integrity.Check
	if in.Occupied != nil {
		checks = append(checks, s.check.ParticipantsExist(in.Occupied))
		next.Occupied = in.Occupied.Clone()
	}
	if in.EditorsIDs != nil {
		checks = append(checks, s.check.EditorsExist(in.EditorsIDs))
		next.EditorsIDs = in.EditorsIDs.Clone()
	}
	if err := s.check.Require(ctx, op, checks...); err != nil {
		return models.Room{}, err
	}

	updated, err := s.repo.Rooms.Update(ctx, next)
	if err != nil {
		return models.Room{}, storage.Translate(op, err)
	}
	return updated, nil
}

// Delete мягко удаляет комнату и возвращает её последнее состояние.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (models.Room, error) {
	r, err := s.repo.Rooms.Delete(ctx, id)
	if err != nil {
		return models.Room{}, storage.Translate("delete_room", err)
	}
	return r, nil
}
