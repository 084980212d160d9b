// Package participant управляет участием пользователей в кампаниях:
// жизненным циклом, назначением комнат, лентой и подписками.
package participant

import (
	"context"
	"math/rand"

	"roommate_go/internal/apperr"
	"roommate_go/internal/integrity"
	"roommate_go/internal/metrics"
	"roommate_go/models"
	"roommate_go/pkg/storage"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecommendationsLimit — сколько участников выдаётся в рекомендациях.
const RecommendationsLimit = 10

// Service ведёт участников кампаний и связи между ними.
type Service struct {
	repo  *storage.Repository
	check *integrity.Checker
	retry storage.RetryPolicy
	log   *zap.Logger
}

// NewService создаёт сервис участников.
func NewService(repo *storage.Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, check: integrity.New(repo, log), retry: storage.DefaultRetry, log: log}
}

// Create добавляет участника и вписывает его id в кампанию.
func (s *Service) Create(ctx context.Context, in models.CreateParticipant) (models.Participant, error) {
	const op = "create_participant"
	if in.State == "" {
		in.State = models.ParticipantCreating
	}
	if !in.State.Valid() {
		return models.Participant{}, apperr.Newf(apperr.ValidationFailed, op, "unknown state %q", in.State)
	}
	if in.State == models.ParticipantAllocated && in.RoomID == nil {
		return models.Participant{}, apperr.New(apperr.ValidationFailed, op, "room_id is required in ALLOCATED state")
	}
	if in.State != models.ParticipantAllocated && in.RoomID != nil {
		return models.Participant{}, apperr.Newf(apperr.IllegalStateTransition, op, "room_id cannot be set in %s state", in.State)
	}

	checks := []integrity.Check{s.check.AllocationExists(in.AllocationID), s.check.UserExists(in.UserID)}
	if in.RoomID != nil {
		checks = append(checks, s.check.RoomExists(*in.RoomID))
	}
	if err := s.check.Require(ctx, op, checks...); err != nil {
		return models.Participant{}, err
	}

	alloc, err := s.repo.Allocations.Read(ctx, in.AllocationID)
	if err != nil {
		return models.Participant{}, storage.Translate(op, err)
	}
	if !in.State.AllowedIn(alloc.State) {
		return models.Participant{}, apperr.Newf(apperr.IllegalStateTransition, op,
			"participant cannot be %s while allocation is %s", in.State, alloc.State)
	}
	dups, err := s.repo.Participants.Find(ctx, storage.Filter{
		"allocation_id": in.AllocationID.String(),
		"user_id":       in.UserID.String(),
	})
	if err != nil {
		return models.Participant{}, storage.Translate(op, err)
	}
	if len(dups) > 0 {
		return models.Participant{}, apperr.New(apperr.AlreadyExists, op, "user already participates in this allocation")
	}

	p := models.Participant{AllocationID: in.AllocationID, UserID: in.UserID, State: in.State, RoomID: in.RoomID}
	p.Normalize()
	created, err := s.repo.Participants.Create(ctx, p)
	if err != nil {
		return models.Participant{}, storage.Translate(op, err)
	}

	if alloc.State.HasParticipants() {
		// Привязка к кампании выполняется второй записью; при сбое её восстановит сверка.
		if err := s.linkToAllocation(ctx, alloc.ID, created.ID); err != nil {
			s.log.Warn("[PARTICIPANT] не удалось добавить участника в кампанию",
				zap.String("participant", created.ID.String()), zap.String("allocation", alloc.ID.String()), zap.Error(err))
		}
	}
	s.log.Info("[PARTICIPANT] участник создан", zap.String("id", created.ID.String()),
		zap.String("allocation", created.AllocationID.String()))
	return created, nil
}

func (s *Service) linkToAllocation(ctx context.Context, allocationID, participantID uuid.UUID) error {
	return s.retry.Retry(ctx, func() error {
		a, err := s.repo.Allocations.Read(ctx, allocationID)
		if err != nil {
			return err
		}
		if !a.State.HasParticipants() || a.ParticipantsIDs.Has(participantID) {
			return nil
		}
		a.ParticipantsIDs = a.ParticipantsIDs.With(participantID)
		_, err = s.repo.Allocations.Update(ctx, a)
		return err
	})
}

// Read возвращает участника по id.
func (s *Service) Read(ctx context.Context, id uuid.UUID) (models.Participant, error) {
	p, err := s.repo.Participants.Read(ctx, id)
	if err != nil {
		return models.Participant{}, storage.Translate("read_participant", err)
	}
	return p, nil
}

// ReadMany читает участников в порядке ids, отсутствующие остаются nil.
func (s *Service) ReadMany(ctx context.Context, ids []uuid.UUID) ([]*models.Participant, error) {
	out, err := s.repo.Participants.ReadMany(ctx, ids)
	if err != nil {
		return nil, storage.Translate("read_participants", err)
	}
	return out, nil
}

// Update меняет состояние, комнату и просмотренных. Идентификаторы кампании
// и пользователя неизменны.
func (s *Service) Update(ctx context.Context, in models.UpdateParticipant) (models.Participant, error) {
	const op = "update_participant"
	cur, err := s.repo.Participants.Read(ctx, in.ID)
	if err != nil {
		return models.Participant{}, storage.Translate(op, err)
	}
	if in.AllocationID != nil && *in.AllocationID != cur.AllocationID {
		return models.Participant{}, apperr.New(apperr.ImmutableFieldChanged, op, "allocation_id cannot be changed")
	}
	if in.UserID != nil && *in.UserID != cur.UserID {
		return models.Participant{}, apperr.New(apperr.ImmutableFieldChanged, op, "user_id cannot be changed")
	}

	next := cur
	if in.State != nil || in.RoomID != nil {
		target := cur.State
		if in.State != nil {
			target = *in.State
		}
		next, err = cur.Transition(target, in.RoomID)
		if err != nil {
			return models.Participant{}, err
		}
	}

	var checks []integrity.Check
	if in.RoomID != nil {
		checks = append(checks, s.check.RoomExists(*in.RoomID))
	}
	if in.ViewedIDs != nil {
		checks = append(checks, s.check.ParticipantsExist(in.ViewedIDs))
		next.ViewedIDs = in.ViewedIDs.Clone()
	}
	if err := s.check.Require(ctx, op, checks...); err != nil {
		return models.Participant{}, err
	}

	if next.State != cur.State {
		alloc, err := s.repo.Allocations.Read(ctx, cur.AllocationID)
		if err != nil {
			return models.Participant{}, apperr.Wrap(apperr.MissingReference, op, err)
		}
		if !next.State.AllowedIn(alloc.State) {
			return models.Participant{}, apperr.Newf(apperr.IllegalStateTransition, op,
				"participant cannot be %s while allocation is %s", next.State, alloc.State)
		}
	}

	updated, err := s.repo.Participants.Update(ctx, next)
	if err != nil {
		return models.Participant{}, storage.Translate(op, err)
	}
	if cur.State != updated.State {
		metrics.RecordTransition("participant", string(cur.State), string(updated.State))
		s.log.Info("[PARTICIPANT] смена состояния", zap.String("id", updated.ID.String()),
			zap.String("from", string(cur.State)), zap.String("to", string(updated.State)))
	}
	return updated, nil
}

// Delete мягко удаляет участника.
// Delete мягко удаляет участника и убирает ссылки на него из кампании, комнаты,
// подписок и просмотренных других участников. Сбой этих записей только пишется
// в лог, оставшиеся ссылки убирает сверка.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (models.Participant, error) {
	p, err := s.repo.Participants.Delete(ctx, id)
	if err != nil {
		return models.Participant{}, storage.Translate("delete_participant", err)
	}
	s.detach(ctx, p)
	s.log.Info("[PARTICIPANT] участник удалён", zap.String("id", p.ID.String()))
	return p, nil
}

// detach вычищает идентификатор удалённого участника p из чужих документов.
func (s *Service) detach(ctx context.Context, p models.Participant) {
	logFailure := func(from string, err error) {
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.log.Warn("[PARTICIPANT] ссылка на удалённого участника не убрана",
				zap.String("participant", p.ID.String()), zap.String("from", from), zap.Error(err))
		}
	}

	logFailure("allocation", s.retry.Retry(ctx, func() error {
		a, err := s.repo.Allocations.Read(ctx, p.AllocationID)
		if err != nil || !a.ParticipantsIDs.Has(p.ID) {
			return err
		}
		a.ParticipantsIDs = a.ParticipantsIDs.Without(p.ID)
		_, err = s.repo.Allocations.Update(ctx, a)
		return err
	}))

	if p.RoomID != nil {
		logFailure("room", s.retry.Retry(ctx, func() error {
			r, err := s.repo.Rooms.Read(ctx, *p.RoomID)
			if err != nil || !r.Occupied.Has(p.ID) {
				return err
			}
			r.Occupied = r.Occupied.Without(p.ID)
			_, err = s.repo.Rooms.Update(ctx, r)
			return err
		}))
	}

	others := p.SubscriptionIDs.With(p.SubscribersIDs.Slice()...)
	neighbours, err := s.repo.FindParticipants(ctx, p.AllocationID, "")
	logFailure("feed", err)
	for _, q := range neighbours {
		if q.ViewedIDs.Has(p.ID) {
			others = others.With(q.ID)
		}
	}
	for _, otherID := range others.Slice() {
		logFailure("participant "+otherID.String(), s.retry.Retry(ctx, func() error {
			q, err := s.repo.Participants.Read(ctx, otherID)
			if err != nil {
				return err
			}
			if !q.SubscriptionIDs.Has(p.ID) && !q.SubscribersIDs.Has(p.ID) && !q.ViewedIDs.Has(p.ID) {
				return nil
			}
			q.SubscriptionIDs = q.SubscriptionIDs.Without(p.ID)
			q.SubscribersIDs = q.SubscribersIDs.Without(p.ID)
			q.ViewedIDs = q.ViewedIDs.Without(p.ID)
			_, err = s.repo.Participants.Update(ctx, q)
			return err
		}))
	}
}

// MarkViewed добавляет other в просмотренные участника self. Повторный вызов ничего не меняет.
func (s *Service) MarkViewed(ctx context.Context, selfID, otherID uuid.UUID) (models.Participant, error) {
	const op = "mark_viewed"
	self, err := s.repo.Participants.Read(ctx, selfID)
	if err != nil {
		return models.Participant{}, storage.Translate(op, err)
	}
	if self.ViewedIDs.Has(otherID) {
		return self, nil
	}
	if err := s.check.Require(ctx, op, s.check.ParticipantsExist(models.NewIDSet(otherID))); err != nil {
		return models.Participant{}, err
	}
	self.ViewedIDs = self.ViewedIDs.With(otherID)
	updated, err := s.repo.Participants.Update(ctx, self)
	if err != nil {
		return models.Participant{}, storage.Translate(op, err)
	}
	return updated, nil
}

// Subscribe подписывает self на other: пишет обе стороны ребра по очереди.
// При сбое второй записи операция считается неуспешной, повторный вызов её довершит.
func (s *Service) Subscribe(ctx context.Context, selfID, otherID uuid.UUID) (models.Participant, error) {
	return s.editEdge(ctx, "subscribe", selfID, otherID, true)
}

// Unsubscribe убирает ребро подписки с обеих сторон.
func (s *Service) Unsubscribe(ctx context.Context, selfID, otherID uuid.UUID) (models.Participant, error) {
	return s.editEdge(ctx, "unsubscribe", selfID, otherID, false)
}

func (s *Service) editEdge(ctx context.Context, op string, selfID, otherID uuid.UUID, add bool) (models.Participant, error) {
	if selfID == otherID {
		return models.Participant{}, apperr.New(apperr.ValidationFailed, op, "participant cannot subscribe to itself")
	}
	if _, err := s.repo.Participants.Read(ctx, selfID); err != nil {
		return models.Participant{}, storage.Translate(op, err)
	}
	if add {
		if err := s.check.Require(ctx, op, s.check.ParticipantsExist(models.NewIDSet(otherID))); err != nil {
			return models.Participant{}, err
		}
	}

	var self models.Participant
	err := s.retry.Retry(ctx, func() error {
		p, err := s.repo.Participants.Read(ctx, selfID)
		if err != nil {
			return err
		}
		if add {
			p.SubscriptionIDs = p.SubscriptionIDs.With(otherID)
		} else {
			p.SubscriptionIDs = p.SubscriptionIDs.Without(otherID)
		}
		self, err = s.repo.Participants.Update(ctx, p)
		return err
	})
	if err != nil {
		return models.Participant{}, storage.Translate(op, err)
	}

	err = s.retry.Retry(ctx, func() error {
		p, err := s.repo.Participants.Read(ctx, otherID)
		if err != nil {
			return err
		}
		if add {
			p.SubscribersIDs = p.SubscribersIDs.With(selfID)
		} else {
			p.SubscribersIDs = p.SubscribersIDs.Without(selfID)
		}
		_, err = s.repo.Participants.Update(ctx, p)
		return err
	})
	if err != nil && !(errors.Is(err, storage.ErrNotFound) && !add) {
		s.log.Warn("[PARTICIPANT] вторая сторона подписки не записана",
			zap.String("op", op), zap.String("self", selfID.String()), zap.String("other", otherID.String()), zap.Error(err))
		return models.Participant{}, storage.Translate(op, err)
	}
	return self, nil
}

// Recommendations возвращает до RecommendationsLimit активных участников кампании
// в случайном порядке, исключая самого пользователя.
func (s *Service) Recommendations(ctx context.Context, userID, allocationID uuid.UUID, rng *rand.Rand) ([]models.Participant, error) {
	const op = "recommendations"
	active, err := s.repo.FindParticipants(ctx, allocationID, models.ParticipantActive)
	if err != nil {
		return nil, storage.Translate(op, err)
	}
	out := make([]models.Participant, 0, len(active))
	for _, p := range active {
		if p.UserID != userID {
			out = append(out, p)
		}
	}
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if len(out) > RecommendationsLimit {
		out = out[:RecommendationsLimit]
	}
	return out, nil
}

// Placement возвращает пользователя и комнату размещённого участника для уведомления.
func (s *Service) Placement(ctx context.Context, p models.Participant) (models.User, models.Room, error) {
	const op = "placement"
	if p.RoomID == nil {
		return models.User{}, models.Room{}, apperr.New(apperr.ValidationFailed, op, "participant has no room")
	}
	u, err := s.repo.Users.Read(ctx, p.UserID)
	if err != nil {
		return models.User{}, models.Room{}, storage.Translate(op, err)
	}
	r, err := s.repo.Rooms.Read(ctx, *p.RoomID)
	if err != nil {
		return models.User{}, models.Room{}, storage.Translate(op, err)
	}
	return u, r, nil
}
