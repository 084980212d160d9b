package storage

import (
	"context"
	"time"

	"roommate_go/models"

	"github.com/google/uuid"
)

// Имена коллекций.
const (
	UsersCollection        = "users"
	AllocationsCollection  = "allocations"
	FormFieldsCollection   = "form_fields"
	AnswersCollection      = "answers"
	ParticipantsCollection = "participants"
	RoomsCollection        = "rooms"
	PreferencesCollection  = "preferences"
)

// Repository — порт хранилища, через который работают сервисы.
type Repository struct {
	Users        Collection[models.User]
	Allocations  Collection[models.Allocation]
	FormFields   Collection[models.FormField]
	Answers      Collection[models.Answer]
	Participants Collection[models.Participant]
	Rooms        Collection[models.Room]
	Preferences  Collection[models.Preference]
}

// NewMemoryRepository создаёт хранилище в памяти процесса.
func NewMemoryRepository(now func() time.Time) *Repository {
	return &Repository{
		Users:        NewMemoryCollection[models.User](UsersCollection, now),
		Allocations:  NewMemoryCollection[models.Allocation](AllocationsCollection, now),
		FormFields:   NewMemoryCollection[models.FormField](FormFieldsCollection, now),
		Answers:      NewMemoryCollection[models.Answer](AnswersCollection, now),
		Participants: NewMemoryCollection[models.Participant](ParticipantsCollection, now),
		Rooms:        NewMemoryCollection[models.Room](RoomsCollection, now),
		Preferences:  NewMemoryCollection[models.Preference](PreferencesCollection, now),
	}
}

// FindUsersByTelegramID возвращает живых пользователей с данным Telegram ID.
func (r *Repository) FindUsersByTelegramID(ctx context.Context, telegramID int64) ([]models.User, error) {
	return r.Users.Find(ctx, Filter{"telegram_id": telegramID})
}

// FindUsersByProfileUsername ищет пользователей по имени в Telegram.
func (r *Repository) FindUsersByProfileUsername(ctx context.Context, username string) ([]models.User, error) {
	return r.Users.Find(ctx, Filter{"profile.username": username})
}

// FindPreferences возвращает живые предпочтения пользователя userID к targetID.
func (r *Repository) FindPreferences(ctx context.Context, userID, targetID uuid.UUID) ([]models.Preference, error) {
	return r.Preferences.Find(ctx, Filter{"user_id": userID.String(), "target_id": targetID.String()})
}

// FindParticipants ищет живых участников кампании, при непустом state — только в этом состоянии.
func (r *Repository) FindParticipants(ctx context.Context, allocationID uuid.UUID, state models.ParticipantState) ([]models.Participant, error) {
	f := Filter{"allocation_id": allocationID.String()}
	if state != "" {
		f["state"] = string(state)
	}
	return r.Participants.Find(ctx, f)
}

// FindAnswers ищет живые ответы на вопрос, при ненулевом respondentID — только этого участника.
func (r *Repository) FindAnswers(ctx context.Context, fieldID, respondentID uuid.UUID) ([]models.Answer, error) {
	f := Filter{"field_id": fieldID.String()}
	if respondentID != uuid.Nil {
		f["respondent_id"] = respondentID.String()
	}
	return r.Answers.Find(ctx, f)
}

// Walk обходит все документы всех коллекций, включая удалённые при includeDeleted.
func (r *Repository) Walk(ctx context.Context, includeDeleted bool, fn func(collection string, doc any) error) error {
	var opts []ReadOption
	if includeDeleted {
		opts = append(opts, WithDeleted())
	}
	steps := []func() error{
		func() error { return walk(ctx, r.Users, opts, fn) },
		func() error { return walk(ctx, r.Allocations, opts, fn) },
		func() error { return walk(ctx, r.FormFields, opts, fn) },
		func() error { return walk(ctx, r.Answers, opts, fn) },
		func() error { return walk(ctx, r.Participants, opts, fn) },
		func() error { return walk(ctx, r.Rooms, opts, fn) },
		func() error { return walk(ctx, r.Preferences, opts, fn) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func walk[T any](ctx context.Context, c Collection[T], opts []ReadOption, fn func(string, any) error) error {
	docs, err := c.All(ctx, opts...)
	if err != nil {
		return err
	}
	for i := range docs {
		if err := fn(c.Name(), &docs[i]); err != nil {
			return err
		}
	}
	return nil
}
