package allocation

import (
	"context"
	"errors"
	"testing"

	"roommate_go/internal/apperr"
	"roommate_go/internal/testutil"
	"roommate_go/models"

	"github.com/google/uuid"
)

func state(s models.AllocationState) *models.AllocationState { return &s }

func TestCreatingCannotJumpToOpen(t *testing.T) {
	ctx := context.Background()
	repo := testutil.Repo()
	creator := testutil.User(t, repo, 1, "Анна")
	svc := NewService(repo, nil)

	a, err := svc.Create(ctx, models.CreateAllocation{Name: "Заезд", CreatorID: creator.ID})
	if err != nil {
		t.Fatalf("не удалось создать кампанию: %v", err)
	}
	if a.State != models.AllocationCreating || a.ParticipantsIDs != nil {
		t.Fatalf("новая кампания: state=%s participants=%v", a.State, a.ParticipantsIDs)
	}

	if _, err := svc.Update(ctx, models.UpdateAllocation{ID: a.ID, State: state(models.AllocationOpen)}); !errors.Is(err, apperr.ErrIllegalStateTransition) {
		t.Fatalf("CREATING -> OPEN: ожидалась IllegalStateTransition, получено %v", err)
	}

	step1, err := svc.Update(ctx, models.UpdateAllocation{ID: a.ID, State: state(models.AllocationCreated)})
	if err != nil {
		t.Fatalf("CREATING -> CREATED: %v", err)
	}
	if step1.ParticipantsIDs == nil || step1.ParticipantsIDs.Len() != 0 {
		t.Fatalf("после CREATED participants_ids должен быть пустым множеством: %v", step1.ParticipantsIDs)
	}

	p := testutil.Participant(t, repo, a.ID, creator.ID, models.ParticipantCreated, nil)
	withP, err := svc.Update(ctx, models.UpdateAllocation{ID: a.ID, ParticipantsIDs: models.NewIDSet(p.ID)})
	if err != nil {
		t.Fatalf("не удалось задать участников: %v", err)
	}

	name := "Осенний заезд"
	step2, err := svc.Update(ctx, models.UpdateAllocation{ID: a.ID, State: state(models.AllocationOpen), Name: &name})
	if err != nil {
		t.Fatalf("CREATED -> OPEN: %v", err)
	}
	if !step2.ParticipantsIDs.Equal(withP.ParticipantsIDs) {
		t.Fatalf("участники потеряны при смене состояния: %v", step2.ParticipantsIDs)
	}
	if step2.Name != name {
		t.Fatalf("имя не обновлено: %q", step2.Name)
	}
}

func TestUpdateAllocationRules(t *testing.T) {
	ctx := context.Background()
	repo := testutil.Repo()
	creator := testutil.User(t, repo, 1, "Анна")
	svc := NewService(repo, nil)
	a, err := svc.Create(ctx, models.CreateAllocation{Name: "Заезд", CreatorID: creator.ID})
	if err != nil {
		t.Fatalf("не удалось создать кампанию: %v", err)
	}

	other := uuid.New()
	if _, err := svc.Update(ctx, models.UpdateAllocation{ID: a.ID, CreatorID: &other}); !errors.Is(err, apperr.ErrImmutableFieldChanged) {
		t.Fatalf("смена создателя: ожидалась ImmutableFieldChanged, получено %v", err)
	}
	if _, err := svc.Update(ctx, models.UpdateAllocation{ID: a.ID, ParticipantsIDs: models.NewIDSet()}); !errors.Is(err, apperr.ErrValidationFailed) {
		t.Fatalf("участники в CREATING: ожидалась ValidationFailed, получено %v", err)
	}
	if _, err := svc.Update(ctx, models.UpdateAllocation{ID: a.ID, EditorsIDs: models.NewIDSet(uuid.New())}); !errors.Is(err, apperr.ErrMissingReference) {
		t.Fatalf("несуществующий редактор: ожидалась MissingReference, получено %v", err)
	}

	failed, err := svc.Update(ctx, models.UpdateAllocation{ID: a.ID, State: state(models.AllocationFailed)})
	if err != nil {
		t.Fatalf("CREATING -> FAILED: %v", err)
	}
	if _, err := svc.Update(ctx, models.UpdateAllocation{ID: failed.ID, State: state(models.AllocationCreated)}); !errors.Is(err, apperr.ErrIllegalStateTransition) {
		t.Fatalf("выход из FAILED: ожидалась IllegalStateTransition, получено %v", err)
	}

	if _, err := svc.Delete(ctx, a.ID); err != nil {
		t.Fatalf("не удалось удалить кампанию: %v", err)
	}
	if _, err := svc.Read(ctx, a.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("удалённая кампания должна быть не найдена, получено %v", err)
	}
}

func TestCreateAllocationRequiresCreator(t *testing.T) {
	svc := NewService(testutil.Repo(), nil)
	_, err := svc.Create(context.Background(), models.CreateAllocation{Name: "Заезд", CreatorID: uuid.New()})
	if !errors.Is(err, apperr.ErrMissingReference) {
		t.Fatalf("ожидалась MissingReference, получено %v", err)
	}
}
