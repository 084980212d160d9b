// Package storage — порт хранилища сущностей и его реализации:
// в памяти, в Postgres (JSONB-документы) и в MongoDB.
//
// Мягко удалённые документы отфильтровываются здесь, чтобы сервисам
// не приходилось повторять эту проверку.
package storage

import (
	"context"

	"roommate_go/internal/apperr"
	"roommate_go/models"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var (
	// ErrNotFound — документ отсутствует или мягко удалён.
	ErrNotFound = errors.New("document not found")
	// ErrConflict — документ с таким идентификатором уже существует.
	ErrConflict = errors.New("document conflict")
	// ErrUnavailable — хранилище не ответило.
	ErrUnavailable = errors.New("storage unavailable")
	// ErrDataShape — документ не удалось разобрать в ожидаемую сущность.
	ErrDataShape = errors.New("document has unexpected shape")
)

// Doc связывает тип сущности с указателем на неё, чтобы хранилище
// могло выставлять идентификатор и отметки времени.
type Doc[T any] interface {
	*T
	Meta() *models.Base
}

// Filter — условия равенства по путям JSON-документа ("telegram_id", "profile.username").
// Значения сравниваются в текстовом представлении.
type Filter map[string]any

// ReadOption настраивает чтение.
type ReadOption func(*readOptions)

type readOptions struct {
	withDeleted bool
}

// WithDeleted включает мягко удалённые документы в результат.
func WithDeleted() ReadOption {
	return func(o *readOptions) { o.withDeleted = true }
}

func applyReadOptions(opts []ReadOption) readOptions {
	var o readOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Collection — набор документов одного типа.
type Collection[T any] interface {
	// Name возвращает имя коллекции.
	Name() string
	// Create сохраняет новый документ, назначая идентификатор, если он пуст.
	Create(ctx context.Context, doc T) (T, error)
	// Read возвращает живой документ или ErrNotFound.
	Read(ctx context.Context, id uuid.UUID) (T, error)
	// Update заменяет живой документ целиком.
	Update(ctx context.Context, doc T) (T, error)
	// Delete мягко удаляет документ.
	Delete(ctx context.Context, id uuid.UUID) (T, error)
	// ReadMany возвращает документы в порядке ids; отсутствующие заменяются nil.
	ReadMany(ctx context.Context, ids []uuid.UUID, opts ...ReadOption) ([]*T, error)
	// Find возвращает живые документы, удовлетворяющие фильтру, в порядке создания.
	Find(ctx context.Context, filter Filter) ([]T, error)
	// All возвращает все документы в порядке создания.
	All(ctx context.Context, opts ...ReadOption) ([]T, error)
}

// Translate переводит ошибки хранилища в доменные ошибки операции op.
// Доменные ошибки возвращаются без изменений.
func Translate(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return apperr.Wrap(apperr.NotFound, op, err)
	case errors.Is(err, ErrConflict):
		return apperr.Wrap(apperr.Conflict, op, err)
	case errors.Is(err, ErrUnavailable):
		return apperr.Wrap(apperr.RepositoryUnavailable, op, err)
	case errors.Is(err, ErrDataShape):
		return apperr.Wrap(apperr.DataShapeError, op, err)
	default:
		return apperr.Wrap(apperr.OperationFailed, op, err)
	}
}
