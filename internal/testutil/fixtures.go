// Package testutil создаёт хранилище в памяти и типовые документы для тестов сервисов.
package testutil

import (
	"context"
	"testing"
	"time"

	"roommate_go/models"
	"roommate_go/pkg/storage"

	"github.com/google/uuid"
)

// Clock возвращает время, которое сдвигается на секунду при каждом вызове.
func Clock() func() time.Time {
	cur := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		cur = cur.Add(time.Second)
		return cur
	}
}

func Repo() *storage.Repository {
	return storage.NewMemoryRepository(Clock())
}

func User(t *testing.T, repo *storage.Repository, telegramID int64, firstName string) models.User {
	t.Helper()
	u, err := repo.Users.Create(context.Background(), models.User{
		TelegramID: telegramID,
		Profile:    models.Profile{FirstName: firstName, LanguageCode: models.DefaultLanguage},
	})
	if err != nil {
		t.Fatalf("не удалось создать пользователя: %v", err)
	}
	return u
}

func Allocation(t *testing.T, repo *storage.Repository, creator uuid.UUID, state models.AllocationState) models.Allocation {
	t.Helper()
	a, err := repo.Allocations.Create(context.Background(), models.Allocation{
		Name:      "Заезд",
		State:     state,
		CreatorID: creator,
	})
	if err != nil {
		t.Fatalf("не удалось создать кампанию: %v", err)
	}
	return a
}

func Participant(t *testing.T, repo *storage.Repository, allocation, user uuid.UUID, state models.ParticipantState, room *uuid.UUID) models.Participant {
	t.Helper()
	p, err := repo.Participants.Create(context.Background(), models.Participant{
		AllocationID: allocation,
		UserID:       user,
		State:        state,
		RoomID:       room,
	})
	if err != nil {
		t.Fatalf("не удалось создать участника: %v", err)
	}
	return p
}

func Room(t *testing.T, repo *storage.Repository, creator uuid.UUID, name string) models.Room {
	t.Helper()
	r, err := repo.Rooms.Create(context.Background(), models.Room{Name: name, Capacity: 2, CreatorID: creator})
	if err != nil {
		t.Fatalf("не удалось создать комнату: %v", err)
	}
	return r
}
