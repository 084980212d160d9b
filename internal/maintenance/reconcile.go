// Package maintenance восстанавливает производные данные после частичных сбоев:
// счётчики ответов, рёбра подписок, списки участников кампаний и заселение комнат.
package maintenance

import (
	"context"

	"roommate_go/internal/metrics"
	"roommate_go/models"
	"roommate_go/pkg/storage"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Report — сколько документов исправил каждый проход.
type Report struct {
	Counters      int `json:"counters"`
	Subscriptions int `json:"subscriptions"`
	Participants  int `json:"participants"`
	Rooms         int `json:"rooms"`
}

// Reconciler сверяет производные поля с исходными данными и чинит расхождения.
type Reconciler struct {
	repo *storage.Repository
	log  *zap.Logger
}

// NewReconciler создаёт сверщик; log может быть nil.
func NewReconciler(repo *storage.Repository, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{repo: repo, log: log}
}

// Run выполняет все проходы по очереди.
func (r *Reconciler) Run(ctx context.Context) (Report, error) {
	var rep Report
	var err error
	if rep.Counters, err = r.ReconcileCounters(ctx); err != nil {
		return rep, errors.Wrap(err, "counters")
	}
	if rep.Subscriptions, err = r.ReconcileSubscriptions(ctx); err != nil {
		return rep, errors.Wrap(err, "subscriptions")
	}
	if rep.Participants, err = r.ReconcileParticipants(ctx); err != nil {
		return rep, errors.Wrap(err, "participants")
	}
	if rep.Rooms, err = r.ReconcileRooms(ctx); err != nil {
		return rep, errors.Wrap(err, "rooms")
	}
	r.log.Info("[MAINTENANCE] сверка завершена",
		zap.Int("counters", rep.Counters), zap.Int("subscriptions", rep.Subscriptions), zap.Int("participants", rep.Participants), zap.Int("rooms", rep.Rooms))
	return rep, nil
}

// ReconcileCounters пересчитывает respondent_count вопросов по живым ответам
// живых участников той же кампании.
func (r *Reconciler) ReconcileCounters(ctx context.Context) (int, error) {
	fields, err := r.repo.FormFields.All(ctx)
	if err != nil {
		return 0, err
	}
	answers, err := r.repo.Answers.All(ctx)
	if err != nil {
		return 0, err
	}
	participants, err := r.repo.Participants.All(ctx)
	if err != nil {
		return 0, err
	}
	allocationOf := make(map[uuid.UUID]uuid.UUID, len(participants))
	for _, p := range participants {
		allocationOf[p.ID] = p.AllocationID
	}
	byField := make(map[uuid.UUID][]models.Answer)
	for _, a := range answers {
		byField[a.FieldID] = append(byField[a.FieldID], a)
	}

	fixed := 0
	for _, f := range fields {
		respondents := 0
		options := make([]int, len(f.Options))
		for _, a := range byField[f.ID] {
			if alloc, ok := allocationOf[a.RespondentID]; !ok || alloc != f.AllocationID {
				continue
			}
			respondents++
			for _, i := range a.OptionIndexes.Slice() {
				if i >= 0 && i < len(options) {
					options[i]++
				}
			}
		}
		dirty := f.RespondentCount != respondents
		for i := range f.Options {
			if f.Options[i].RespondentCount != options[i] {
				f.Options[i].RespondentCount = options[i]
				dirty = true
			}
		}
		if !dirty {
			continue
		}
		f.RespondentCount = respondents
		if _, err := r.repo.FormFields.Update(ctx, f); err != nil {
			return fixed, errors.Wrapf(err, "update field %s", f.ID)
		}
		fixed++
	}
	metrics.RecordReconciled("counters", fixed)
	return fixed, nil
}

// ReconcileSubscriptions восстанавливает рёбра подписок по subscription_ids:
// участник a числится подписчиком b тогда и только тогда, когда b есть в подписках a.
// Ссылки на удалённых участников убираются с обеих сторон и из viewed_ids.
func (r *Reconciler) ReconcileSubscriptions(ctx context.Context) (int, error) {
	participants, err := r.repo.Participants.All(ctx)
	if err != nil {
		return 0, err
	}
	live := make(models.IDSet, len(participants))
	for _, p := range participants {
		live[p.ID] = struct{}{}
	}
	subscribers := make(map[uuid.UUID]models.IDSet, len(participants))
	for _, p := range participants {
		subscribers[p.ID] = models.IDSet{}
	}
	for _, p := range participants {
		for _, target := range p.SubscriptionIDs.Slice() {
			if set, ok := subscribers[target]; ok {
				set[p.ID] = struct{}{}
			}
		}
	}
	fixed := 0
	for _, p := range participants {
		subscriptions := liveOnly(p.SubscriptionIDs, live)
		viewed := liveOnly(p.ViewedIDs, live)
		if p.SubscribersIDs.Equal(subscribers[p.ID]) && p.SubscriptionIDs.Equal(subscriptions) && p.ViewedIDs.Equal(viewed) {
			continue
		}
		p.SubscriptionIDs, p.SubscribersIDs, p.ViewedIDs = subscriptions, subscribers[p.ID], viewed
		if _, err := r.repo.Participants.Update(ctx, p); err != nil {
			return fixed, errors.Wrapf(err, "update participant %s", p.ID)
		}
		fixed++
	}
	metrics.RecordReconciled("subscriptions", fixed)
	return fixed, nil
}

// ReconcileParticipants приводит participants_ids кампании к множеству её живых участников:
// добавляет непривязанных и убирает удалённых.
func (r *Reconciler) ReconcileParticipants(ctx context.Context) (int, error) {
	allocations, err := r.repo.Allocations.All(ctx)
	if err != nil {
		return 0, err
	}
	participants, err := r.repo.Participants.All(ctx)
	if err != nil {
		return 0, err
	}
	byAllocation := make(map[uuid.UUID]models.IDSet)
	for _, p := range participants {
		byAllocation[p.AllocationID] = byAllocation[p.AllocationID].With(p.ID)
	}
	fixed := 0
	for _, a := range allocations {
		if !a.State.HasParticipants() {
			continue
		}
		want := byAllocation[a.ID]
		if want == nil {
			want = models.IDSet{}
		}
		if a.ParticipantsIDs.Equal(want) {
			continue
		}
		a.ParticipantsIDs = want
		if _, err := r.repo.Allocations.Update(ctx, a); err != nil {
			return fixed, errors.Wrapf(err, "update allocation %s", a.ID)
		}
		fixed++
	}
	metrics.RecordReconciled("participants", fixed)
	return fixed, nil
}

// ReconcileRooms убирает удалённых участников из occupied комнат.
func (r *Reconciler) ReconcileRooms(ctx context.Context) (int, error) {
	rooms, err := r.repo.Rooms.All(ctx)
	if err != nil {
		return 0, err
	}
	participants, err := r.repo.Participants.All(ctx)
	if err != nil {
		return 0, err
	}
	live := make(models.IDSet, len(participants))
	for _, p := range participants {
		live[p.ID] = struct{}{}
	}
	fixed := 0
	for _, room := range rooms {
		occupied := liveOnly(room.Occupied, live)
		if room.Occupied.Equal(occupied) {
			continue
		}
		room.Occupied = occupied
		if _, err := r.repo.Rooms.Update(ctx, room); err != nil {
			return fixed, errors.Wrapf(err, "update room %s", room.ID)
		}
		fixed++
	}
	metrics.RecordReconciled("rooms", fixed)
	return fixed, nil
}

func liveOnly(ids, live models.IDSet) models.IDSet {
	out := make(models.IDSet, len(ids))
	for id := range ids {
		if live.Has(id) {
			out[id] = struct{}{}
		}
	}
	return out
}
