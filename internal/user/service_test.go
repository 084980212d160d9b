package user

import (
	"context"
	"errors"
	"testing"

	"roommate_go/internal/apperr"
	"roommate_go/internal/testutil"
	"roommate_go/models"
)

func TestCreateUserTwice(t *testing.T) {
	ctx := context.Background()
	repo := testutil.Repo()
	svc := NewService(repo, nil)
	in := models.CreateUser{TelegramID: 9536, Profile: models.Profile{FirstName: "John"}}

	u, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("не удалось создать пользователя: %v", err)
	}
	if u.Profile.LanguageCode != models.DefaultLanguage {
		t.Fatalf("язык по умолчанию %q, ожидался %q", u.Profile.LanguageCode, models.DefaultLanguage)
	}
	if _, err := svc.Create(ctx, in); !errors.Is(err, apperr.ErrUserAlreadyExists) {
		t.Fatalf("ожидалась UserAlreadyExists, получено %v", err)
	}
	all, _ := repo.Users.All(ctx)
	if len(all) != 1 {
		t.Fatalf("пользователей %d, ожидался 1", len(all))
	}
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()
	svc := NewService(testutil.Repo(), nil)
	u, err := svc.Create(ctx, models.CreateUser{TelegramID: 1, Profile: models.Profile{FirstName: "John"}})
	if err != nil {
		t.Fatalf("не удалось создать пользователя: %v", err)
	}

	other := int64(2)
	if _, err := svc.Update(ctx, models.UpdateUser{ID: u.ID, TelegramID: &other}); !errors.Is(err, apperr.ErrImmutableFieldChanged) {
		t.Fatalf("смена telegram_id: ожидалась ImmutableFieldChanged, получено %v", err)
	}
	gender := models.Gender("other")
	if _, err := svc.Update(ctx, models.UpdateUser{ID: u.ID, Profile: &models.ProfilePatch{Gender: &gender}}); !errors.Is(err, apperr.ErrValidationFailed) {
		t.Fatalf("неизвестный пол: ожидалась ValidationFailed, получено %v", err)
	}

	username := "john"
	updated, err := svc.Update(ctx, models.UpdateUser{ID: u.ID, Profile: &models.ProfilePatch{Username: &username}})
	if err != nil {
		t.Fatalf("не удалось обновить профиль: %v", err)
	}
	if updated.Profile.FirstName != "John" || updated.Profile.Username == nil || *updated.Profile.Username != username {
		t.Fatalf("профиль обновлён неверно: %+v", updated.Profile)
	}
	found, err := svc.FindByUsername(ctx, username)
	if err != nil || len(found) != 1 {
		t.Fatalf("поиск по username: %v, %v", found, err)
	}

	if _, err := svc.Delete(ctx, u.ID); err != nil {
		t.Fatalf("не удалось удалить пользователя: %v", err)
	}
	if _, err := svc.FindByTelegramID(ctx, 1); !errors.Is(err, apperr.ErrUserNotFound) {
		t.Fatalf("удалённый пользователь: ожидалась UserNotFound, получено %v", err)
	}
}
