package participant

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"roommate_go/internal/allocation"
	"roommate_go/internal/apperr"
	"roommate_go/internal/testutil"
	"roommate_go/models"

	"github.com/google/uuid"
)

func pstate(s models.ParticipantState) *models.ParticipantState { return &s }

func TestCreateLinksIntoAllocation(t *testing.T) {
	ctx := context.Background()
	repo := testutil.Repo()
	u := testutil.User(t, repo, 1, "Анна")
	alloc := testutil.Allocation(t, repo, u.ID, models.AllocationOpen)
	svc := NewService(repo, nil)

	p, err := svc.Create(ctx, models.CreateParticipant{AllocationID: alloc.ID, UserID: u.ID, State: models.ParticipantActive})
	if err != nil {
		t.Fatalf("не удалось создать участника: %v", err)
	}
	got, _ := repo.Allocations.Read(ctx, alloc.ID)
	if !got.ParticipantsIDs.Has(p.ID) {
		t.Fatalf("участник не добавлен в participants_ids")
	}
	if _, err := svc.Create(ctx, models.CreateParticipant{AllocationID: alloc.ID, UserID: u.ID, State: models.ParticipantActive}); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Fatalf("повторное участие: ожидалась AlreadyExists, получено %v", err)
	}
}

func TestCreateChecksAllocationState(t *testing.T) {
	ctx := context.Background()
	repo := testutil.Repo()
	u := testutil.User(t, repo, 1, "Анна")
	alloc := testutil.Allocation(t, repo, u.ID, models.AllocationCreating)
	svc := NewService(repo, nil)

	if _, err := svc.Create(ctx, models.CreateParticipant{AllocationID: alloc.ID, UserID: u.ID, State: models.ParticipantActive}); !errors.Is(err, apperr.ErrIllegalStateTransition) {
		t.Fatalf("ACTIVE в CREATING: ожидалась IllegalStateTransition, получено %v", err)
	}
	if _, err := svc.Create(ctx, models.CreateParticipant{AllocationID: uuid.New(), UserID: u.ID}); !errors.Is(err, apperr.ErrMissingReference) {
		t.Fatalf("несуществующая кампания: ожидалась MissingReference, получено %v", err)
	}
	p, err := svc.Create(ctx, models.CreateParticipant{AllocationID: alloc.ID, UserID: u.ID})
	if err != nil {
		t.Fatalf("участник по умолчанию: %v", err)
	}
	if p.State != models.ParticipantCreating {
		t.Fatalf("состояние по умолчанию %s, ожидалось CREATING", p.State)
	}
	got, _ := repo.Allocations.Read(ctx, alloc.ID)
	if got.ParticipantsIDs != nil {
		t.Fatalf("у кампании в CREATING не должно быть participants_ids")
	}
}

func TestRoomAssignment(t *testing.T) {
	ctx := context.Background()
	repo := testutil.Repo()
	u := testutil.User(t, repo, 1, "Анна")
	alloc := testutil.Allocation(t, repo, u.ID, models.AllocationRooming)
	r1 := testutil.Room(t, repo, u.ID, "101")
	r2 := testutil.Room(t, repo, u.ID, "102")
	r3 := testutil.Room(t, repo, u.ID, "103")
	p := testutil.Participant(t, repo, alloc.ID, u.ID, models.ParticipantActive, nil)
	svc := NewService(repo, nil)

	placed, err := svc.Update(ctx, models.UpdateParticipant{ID: p.ID, State: pstate(models.ParticipantAllocated), RoomID: &r1.ID})
	if err != nil {
		t.Fatalf("ACTIVE -> ALLOCATED: %v", err)
	}
	if placed.State != models.ParticipantAllocated || placed.RoomID == nil || *placed.RoomID != r1.ID {
		t.Fatalf("участник не размещён: %+v", placed)
	}
	moved, err := svc.Update(ctx, models.UpdateParticipant{ID: p.ID, RoomID: &r2.ID})
	if err != nil {
		t.Fatalf("смена комнаты: %v", err)
	}
	if *moved.RoomID != r2.ID || moved.State != models.ParticipantAllocated {
		t.Fatalf("комната не сменилась: %+v", moved)
	}

	other := testutil.User(t, repo, 2, "Борис")
	active := testutil.Participant(t, repo, alloc.ID, other.ID, models.ParticipantActive, nil)
	if _, err := svc.Update(ctx, models.UpdateParticipant{ID: active.ID, RoomID: &r3.ID}); !errors.Is(err, apperr.ErrIllegalStateTransition) {
		t.Fatalf("комната у ACTIVE: ожидалась IllegalStateTransition, получено %v", err)
	}
	if _, err := svc.Update(ctx, models.UpdateParticipant{ID: active.ID, State: pstate(models.ParticipantAllocated)}); !errors.Is(err, apperr.ErrValidationFailed) {
		t.Fatalf("ALLOCATED без комнаты: ожидалась ValidationFailed, получено %v", err)
	}
	if _, err := svc.Update(ctx, models.UpdateParticipant{ID: active.ID, State: pstate(models.ParticipantCreating)}); !errors.Is(err, apperr.ErrIllegalStateTransition) {
		t.Fatalf("шаг назад: ожидалась IllegalStateTransition, получено %v", err)
	}
	if _, err := svc.Update(ctx, models.UpdateParticipant{ID: active.ID, UserID: &u.ID}); !errors.Is(err, apperr.ErrImmutableFieldChanged) {
		t.Fatalf("смена пользователя: ожидалась ImmutableFieldChanged, получено %v", err)
	}
}

func TestSubscribeWritesBothSides(t *testing.T) {
	ctx := context.Background()
	repo := testutil.Repo()
	u1 := testutil.User(t, repo, 1, "Анна")
	u2 := testutil.User(t, repo, 2, "Борис")
	alloc := testutil.Allocation(t, repo, u1.ID, models.AllocationOpen)
	a := testutil.Participant(t, repo, alloc.ID, u1.ID, models.ParticipantActive, nil)
	b := testutil.Participant(t, repo, alloc.ID, u2.ID, models.ParticipantActive, nil)
	svc := NewService(repo, nil)

	self, err := svc.Subscribe(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("не удалось подписаться: %v", err)
	}
	if !self.SubscriptionIDs.Has(b.ID) {
		t.Fatalf("b нет в подписках a")
	}
	gotB, _ := svc.Read(ctx, b.ID)
	if !gotB.SubscribersIDs.Has(a.ID) {
		t.Fatalf("a нет в подписчиках b")
	}
	if _, err := svc.Subscribe(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("повторная подписка должна быть идемпотентной: %v", err)
	}

	if _, err := svc.Unsubscribe(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("не удалось отписаться: %v", err)
	}
	gotA, _ := svc.Read(ctx, a.ID)
	gotB, _ = svc.Read(ctx, b.ID)
	if gotA.SubscriptionIDs.Has(b.ID) || gotB.SubscribersIDs.Has(a.ID) {
		t.Fatalf("ребро подписки не удалено: %v %v", gotA.SubscriptionIDs, gotB.SubscribersIDs)
	}

	if _, err := svc.Subscribe(ctx, a.ID, a.ID); !errors.Is(err, apperr.ErrValidationFailed) {
		t.Fatalf("подписка на себя: ожидалась ValidationFailed, получено %v", err)
	}
	if _, err := svc.Subscribe(ctx, a.ID, uuid.New()); !errors.Is(err, apperr.ErrMissingReference) {
		t.Fatalf("подписка на несуществующего: ожидалась MissingReference, получено %v", err)
	}
}

func TestUnsubscribeFromDeletedParticipant(t *testing.T) {
	ctx := context.Background()
	repo := testutil.Repo()
	u1 := testutil.User(t, repo, 1, "Анна")
	u2 := testutil.User(t, repo, 2, "Борис")
	alloc := testutil.Allocation(t, repo, u1.ID, models.AllocationOpen)
	a := testutil.Participant(t, repo, alloc.ID, u1.ID, models.ParticipantActive, nil)
	b := testutil.Participant(t, repo, alloc.ID, u2.ID, models.ParticipantActive, nil)
	svc := NewService(repo, nil)

	if _, err := svc.Subscribe(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("не удалось подписаться: %v", err)
	}
	if _, err := svc.Delete(ctx, b.ID); err != nil {
		t.Fatalf("не удалось удалить участника: %v", err)
	}
	self, err := svc.Unsubscribe(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("отписка от удалённого участника: %v", err)
	}
	if self.SubscriptionIDs.Has(b.ID) {
		t.Fatalf("подписка на удалённого участника осталась")
	}
}

func TestDeleteRemovesReferences(t *testing.T) {
	ctx := context.Background()
	repo := testutil.Repo()
	anna := testutil.User(t, repo, 1, "Анна")
	bob := testutil.User(t, repo, 2, "Борис")
	alloc := testutil.Allocation(t, repo, anna.ID, models.AllocationOpen)
	svc := NewService(repo, nil)

	p, err := svc.Create(ctx, models.CreateParticipant{AllocationID: alloc.ID, UserID: anna.ID, State: models.ParticipantActive})
	if err != nil {
		t.Fatalf("не удалось создать участника: %v", err)
	}
	q, err := svc.Create(ctx, models.CreateParticipant{AllocationID: alloc.ID, UserID: bob.ID, State: models.ParticipantActive})
	if err != nil {
		t.Fatalf("не удалось создать участника: %v", err)
	}
	if _, err := svc.Subscribe(ctx, q.ID, p.ID); err != nil {
		t.Fatalf("подписка q на p: %v", err)
	}
	if _, err := svc.Subscribe(ctx, p.ID, q.ID); err != nil {
		t.Fatalf("подписка p на q: %v", err)
	}
	if _, err := svc.MarkViewed(ctx, q.ID, p.ID); err != nil {
		t.Fatalf("просмотр: %v", err)
	}
	room := testutil.Room(t, repo, anna.ID, "101")
	room.Occupied = models.NewIDSet(p.ID)
	if _, err := repo.Rooms.Update(ctx, room); err != nil {
		t.Fatalf("не удалось заселить комнату: %v", err)
	}
	stored, _ := repo.Participants.Read(ctx, p.ID)
	stored.State, stored.RoomID = models.ParticipantAllocated, &room.ID
	if _, err := repo.Participants.Update(ctx, stored); err != nil {
		t.Fatalf("не удалось назначить комнату: %v", err)
	}

	if _, err := svc.Delete(ctx, p.ID); err != nil {
		t.Fatalf("удаление не удалось: %v", err)
	}

	gotAlloc, _ := repo.Allocations.Read(ctx, alloc.ID)
	if gotAlloc.ParticipantsIDs.Has(p.ID) || !gotAlloc.ParticipantsIDs.Has(q.ID) {
		t.Fatalf("participants_ids после удаления: %v", gotAlloc.ParticipantsIDs.Slice())
	}
	gotQ, _ := repo.Participants.Read(ctx, q.ID)
	if gotQ.SubscriptionIDs.Has(p.ID) || gotQ.SubscribersIDs.Has(p.ID) || gotQ.ViewedIDs.Has(p.ID) {
		t.Fatalf("у q остались ссылки на удалённого участника: %+v", gotQ)
	}
	gotRoom, _ := repo.Rooms.Read(ctx, room.ID)
	if gotRoom.Occupied.Has(p.ID) {
		t.Fatalf("удалённый участник остался в комнате")
	}

	// Прочитанное множество участников можно записать обратно без изменений.
	_, err = allocation.NewService(repo, nil).Update(ctx, models.UpdateAllocation{ID: alloc.ID, ParticipantsIDs: gotAlloc.ParticipantsIDs})
	if err != nil {
		t.Fatalf("обновление participants_ids прочитанным значением: %v", err)
	}
}

func TestMarkViewedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := testutil.Repo()
	u1 := testutil.User(t, repo, 1, "Анна")
	u2 := testutil.User(t, repo, 2, "Борис")
	alloc := testutil.Allocation(t, repo, u1.ID, models.AllocationOpen)
	a := testutil.Participant(t, repo, alloc.ID, u1.ID, models.ParticipantActive, nil)
	b := testutil.Participant(t, repo, alloc.ID, u2.ID, models.ParticipantActive, nil)
	svc := NewService(repo, nil)

	first, err := svc.MarkViewed(ctx, a.ID, b.ID)
	if err != nil || !first.ViewedIDs.Has(b.ID) {
		t.Fatalf("просмотр не отмечен: %v", err)
	}
	second, err := svc.MarkViewed(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("повторная отметка: %v", err)
	}
	if !second.UpdatedAt.Equal(first.UpdatedAt) {
		t.Fatalf("повторная отметка не должна записывать документ")
	}
}

func TestRecommendations(t *testing.T) {
	ctx := context.Background()
	repo := testutil.Repo()
	me := testutil.User(t, repo, 1, "Анна")
	alloc := testutil.Allocation(t, repo, me.ID, models.AllocationOpen)
	testutil.Participant(t, repo, alloc.ID, me.ID, models.ParticipantActive, nil)
	for i := int64(0); i < 15; i++ {
		u := testutil.User(t, repo, 100+i, "Сосед")
		testutil.Participant(t, repo, alloc.ID, u.ID, models.ParticipantActive, nil)
	}
	idle := testutil.User(t, repo, 999, "Новичок")
	testutil.Participant(t, repo, alloc.ID, idle.ID, models.ParticipantCreated, nil)

	svc := NewService(repo, nil)
	out, err := svc.Recommendations(ctx, me.ID, alloc.ID, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("не удалось получить рекомендации: %v", err)
	}
	if len(out) != RecommendationsLimit {
		t.Fatalf("получено %d рекомендаций, ожидалось %d", len(out), RecommendationsLimit)
	}
	for _, p := range out {
		if p.UserID == me.ID || p.State != models.ParticipantActive {
			t.Fatalf("в рекомендации попал лишний участник: %+v", p)
		}
	}
}

func TestPlacementText(t *testing.T) {
	u := models.User{Profile: models.Profile{FirstName: "Анна"}}
	text, spans := placementText(u, models.Room{Name: "101"})
	if text != "Анна, вас расселили в комнату «101»." {
		t.Fatalf("неожиданный текст: %q", text)
	}
	if len(spans) != 1 || spans[0].Offset != models.UTF16Len("Анна, вас расселили в комнату ") || spans[0].Length != 5 {
		t.Fatalf("неверная разметка: %+v", spans)
	}
}
