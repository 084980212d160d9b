package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"roommate_go/models"

	"github.com/google/uuid"
)

// tickingClock возвращает время, увеличивающееся на секунду при каждом вызове.
func tickingClock() func() time.Time {
	cur := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		cur = cur.Add(time.Second)
		return cur
	}
}

func newUser(tg int64, username string) models.User {
	u := models.User{TelegramID: tg}
	u.Profile = models.Profile{FirstName: "John", LanguageCode: models.LanguageRU}
	if username != "" {
		u.Profile.Username = &username
	}
	return u
}

func TestMemoryCollectionLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(tickingClock())

	created, err := repo.Users.Create(ctx, newUser(9536, "john"))
	if err != nil {
		t.Fatalf("не удалось создать пользователя: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatalf("идентификатор не назначен")
	}
	if created.CreatedAt.IsZero() || !created.CreatedAt.Equal(created.UpdatedAt) {
		t.Fatalf("неверные отметки времени: %+v", created.Base)
	}

	created.Views = 3
	updated, err := repo.Users.Update(ctx, created)
	if err != nil {
		t.Fatalf("не удалось обновить пользователя: %v", err)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) || !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("update должен сохранять created_at и сдвигать updated_at")
	}

	found, err := repo.FindUsersByTelegramID(ctx, 9536)
	if err != nil || len(found) != 1 || found[0].Views != 3 {
		t.Fatalf("поиск по telegram_id вернул %v, %v", found, err)
	}
	byName, err := repo.FindUsersByProfileUsername(ctx, "john")
	if err != nil || len(byName) != 1 {
		t.Fatalf("поиск по username вернул %v, %v", byName, err)
	}

	if _, err := repo.Users.Delete(ctx, created.ID); err != nil {
		t.Fatalf("не удалось удалить пользователя: %v", err)
	}
	if _, err := repo.Users.Read(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("удалённый пользователь должен быть невидим, получено %v", err)
	}
	if _, err := repo.Users.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("повторное удаление должно вернуть ErrNotFound, получено %v", err)
	}
	found, _ = repo.FindUsersByTelegramID(ctx, 9536)
	if len(found) != 0 {
		t.Fatalf("поиск не должен возвращать удалённых пользователей")
	}

	all, err := repo.Users.All(ctx, WithDeleted())
	if err != nil || len(all) != 1 || all[0].DeletedAt == nil {
		t.Fatalf("выгрузка должна включать удалённых пользователей: %v, %v", all, err)
	}
}

func TestMemoryReadManyPreservesOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(nil)

	a, _ := repo.Users.Create(ctx, newUser(1, ""))
	b, _ := repo.Users.Create(ctx, newUser(2, ""))
	if _, err := repo.Users.Delete(ctx, b.ID); err != nil {
		t.Fatalf("не удалось удалить пользователя: %v", err)
	}
	missing := uuid.New()

	got, err := repo.Users.ReadMany(ctx, []uuid.UUID{b.ID, missing, a.ID})
	if err != nil {
		t.Fatalf("ReadMany завершился ошибкой: %v", err)
	}
	if len(got) != 3 || got[0] != nil || got[1] != nil || got[2] == nil || got[2].ID != a.ID {
		t.Fatalf("неверный результат ReadMany: %v", got)
	}

	got, _ = repo.Users.ReadMany(ctx, []uuid.UUID{b.ID}, WithDeleted())
	if got[0] == nil || got[0].ID != b.ID {
		t.Fatalf("WithDeleted должен возвращать удалённые документы")
	}
}

func TestMemoryCreateConflict(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(nil)
	u, _ := repo.Users.Create(ctx, newUser(1, ""))
	dup := newUser(2, "")
	dup.ID = u.ID
	if _, err := repo.Users.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("ожидался ErrConflict, получено %v", err)
	}
}

func TestMemoryNormalizesDocuments(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(nil)
	a, err := repo.Allocations.Create(ctx, models.Allocation{Name: "Лето", State: models.AllocationOpen})
	if err != nil {
		t.Fatalf("не удалось создать кампанию: %v", err)
	}
	if a.ParticipantsIDs == nil || a.EditorsIDs == nil || a.FormFieldsIDs == nil {
		t.Fatalf("множества должны быть материализованы: %+v", a)
	}
}
