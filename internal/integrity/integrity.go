// Package integrity проверяет, что ссылки сущностей указывают на живые документы.
//
// Проверки не возвращают ошибок хранилища: любая ошибка чтения считается
// отсутствием ссылки и превращается сервисом в MissingReference.
package integrity

import (
	"context"

	"roommate_go/internal/apperr"
	"roommate_go/models"
	"roommate_go/pkg/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Checker выполняет проверки ссылок через хранилище.
type Checker struct {
	repo *storage.Repository
	log  *zap.Logger
}

func New(repo *storage.Repository, log *zap.Logger) *Checker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Checker{repo: repo, log: log}
}

// Check — именованная проверка, используемая в Require.
type Check struct {
	Name string
	Fn   func(ctx context.Context) bool
}

// Require запускает проверки параллельно и возвращает MissingReference
// с именем первой проваленной проверки.
func (c *Checker) Require(ctx context.Context, op string, checks ...Check) error {
	results := make([]bool, len(checks))
	g, gctx := errgroup.WithContext(ctx)
	for i, ch := range checks {
		i, ch := i, ch
		g.Go(func() error {
			results[i] = ch.Fn(gctx)
			return nil
		})
	}
	_ = g.Wait()
	for i, ok := range results {
		if !ok {
			return apperr.Newf(apperr.MissingReference, op, "%s does not resolve", checks[i].Name)
		}
	}
	return nil
}

func allPresent[T any](ctx context.Context, log *zap.Logger, c storage.Collection[T], ids []uuid.UUID, opts ...storage.ReadOption) bool {
	if len(ids) == 0 {
		return true
	}
	docs, err := c.ReadMany(ctx, ids, opts...)
	if err != nil {
		log.Debug("[INTEGRITY] чтение ссылок не удалось", zap.String("collection", c.Name()), zap.Error(err))
		return false
	}
	for _, d := range docs {
		if d == nil {
			return false
		}
	}
	return true
}

// CreatorExists — создатель является живым пользователем.
func (c *Checker) CreatorExists(id uuid.UUID) Check {
	return Check{Name: "creator_id", Fn: func(ctx context.Context) bool {
		return id != uuid.Nil && allPresent(ctx, c.log, c.repo.Users, []uuid.UUID{id})
	}}
}

// EditorsExist — редакторы существуют; мягко удалённые пользователи тоже подходят.
func (c *Checker) EditorsExist(ids models.IDSet) Check {
	return Check{Name: "editors_ids", Fn: func(ctx context.Context) bool {
		return allPresent(ctx, c.log, c.repo.Users, ids.Slice(), storage.WithDeleted())
	}}
}

func (c *Checker) FormFieldsExist(ids models.IDSet) Check {
	return Check{Name: "form_fields_ids", Fn: func(ctx context.Context) bool {
		return allPresent(ctx, c.log, c.repo.FormFields, ids.Slice())
	}}
}

func (c *Checker) ParticipantsExist(ids models.IDSet) Check {
	return Check{Name: "participants_ids", Fn: func(ctx context.Context) bool {
		return allPresent(ctx, c.log, c.repo.Participants, ids.Slice())
	}}
}

func (c *Checker) AllocationExists(id uuid.UUID) Check {
	return Check{Name: "allocation_id", Fn: func(ctx context.Context) bool {
		return id != uuid.Nil && allPresent(ctx, c.log, c.repo.Allocations, []uuid.UUID{id})
	}}
}

func (c *Checker) UserExists(id uuid.UUID) Check {
	return Check{Name: "user_id", Fn: func(ctx context.Context) bool {
		return id != uuid.Nil && allPresent(ctx, c.log, c.repo.Users, []uuid.UUID{id})
	}}
}

func (c *Checker) RoomExists(id uuid.UUID) Check {
	return Check{Name: "room_id", Fn: func(ctx context.Context) bool {
		return id != uuid.Nil && allPresent(ctx, c.log, c.repo.Rooms, []uuid.UUID{id})
	}}
}

// TargetExists — адресат предпочтения является живым пользователем.
func (c *Checker) TargetExists(id uuid.UUID) Check {
	return Check{Name: "target_id", Fn: func(ctx context.Context) bool {
		return id != uuid.Nil && allPresent(ctx, c.log, c.repo.Users, []uuid.UUID{id})
	}}
}

func (c *Checker) FieldExists(id uuid.UUID) Check {
	return Check{Name: "field_id", Fn: func(ctx context.Context) bool {
		return id != uuid.Nil && allPresent(ctx, c.log, c.repo.FormFields, []uuid.UUID{id})
	}}
}

func (c *Checker) RespondentExists(id uuid.UUID) Check {
	return Check{Name: "respondent_id", Fn: func(ctx context.Context) bool {
		return id != uuid.Nil && allPresent(ctx, c.log, c.repo.Participants, []uuid.UUID{id})
	}}
}
