package room

import (
	"context"
	"errors"
	"testing"

	"roommate_go/internal/apperr"
	"roommate_go/internal/testutil"
	"roommate_go/models"

	"github.com/google/uuid"
)

func TestRoomCRUD(t *testing.T) {
	ctx := context.Background()
	repo := testutil.Repo()
	u := testutil.User(t, repo, 1, "Анна")
	svc := NewService(repo, nil)

	if _, err := svc.Create(ctx, models.CreateRoom{Name: "101", Capacity: -1, CreatorID: u.ID}); !errors.Is(err, apperr.ErrValidationFailed) {
		t.Fatalf("отрицательная вместимость: ожидалась ValidationFailed, получено %v", err)
	}
	if _, err := svc.Create(ctx, models.CreateRoom{Name: "101", CreatorID: u.ID, Occupied: models.NewIDSet(uuid.New())}); !errors.Is(err, apperr.ErrMissingReference) {
		t.Fatalf("несуществующий жилец: ожидалась MissingReference, получено %v", err)
	}

	female := models.GenderFemale
	r, err := svc.Create(ctx, models.CreateRoom{Name: "101", Capacity: 2, CreatorID: u.ID, GenderRestriction: &female})
	if err != nil {
		t.Fatalf("не удалось создать комнату: %v", err)
	}
	if r.Occupied == nil || r.Occupied.Len() != 0 {
		t.Fatalf("occupied должен быть пустым множеством: %v", r.Occupied)
	}

	alloc := testutil.Allocation(t, repo, u.ID, models.AllocationRooming)
	p := testutil.Participant(t, repo, alloc.ID, u.ID, models.ParticipantAllocated, &r.ID)
	// Вместимость не ограничивает occupied.
	capacity := 0
	updated, err := svc.Update(ctx, models.UpdateRoom{ID: r.ID, Capacity: &capacity, Occupied: models.NewIDSet(p.ID)})
	if err != nil {
		t.Fatalf("не удалось обновить комнату: %v", err)
	}
	if !updated.Occupied.Has(p.ID) || updated.Capacity != 0 {
		t.Fatalf("комната обновлена неверно: %+v", updated)
	}

	other := uuid.New()
	if _, err := svc.Update(ctx, models.UpdateRoom{ID: r.ID, CreatorID: &other}); !errors.Is(err, apperr.ErrImmutableFieldChanged) {
		t.Fatalf("смена создателя: ожидалась ImmutableFieldChanged, получено %v", err)
	}
	if _, err := svc.Delete(ctx, r.ID); err != nil {
		t.Fatalf("не удалось удалить комнату: %v", err)
	}
	if _, err := svc.Read(ctx, r.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("удалённая комната: ожидалась NotFound, получено %v", err)
	}
}
