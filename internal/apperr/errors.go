// Package apperr описывает доменные ошибки сервиса расселения и их
// отображение в HTTP-статусы.
package apperr

import (
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
)

// Kind — вид доменной ошибки.
type Kind string

const (
	InvalidCredentials       Kind = "INVALID_CREDENTIALS"
	UserAlreadyExists        Kind = "USER_ALREADY_EXISTS"
	UserNotFound             Kind = "USER_NOT_FOUND"
	ValidationFailed         Kind = "VALIDATION_FAILED"
	ImmutableFieldChanged    Kind = "IMMUTABLE_FIELD_CHANGED"
	IllegalStateTransition   Kind = "ILLEGAL_STATE_TRANSITION"
	FrozenFieldEdit          Kind = "FROZEN_FIELD_EDIT"
	AnswerFieldMismatch      Kind = "ANSWER_FIELD_MISMATCH"
	AnswerOutOfRange         Kind = "ANSWER_OUT_OF_RANGE"
	AnswerRequiredEmpty      Kind = "ANSWER_REQUIRED_EMPTY"
	AnswerMultipleNotAllowed Kind = "ANSWER_MULTIPLE_NOT_ALLOWED"
	MissingReference         Kind = "MISSING_REFERENCE"
	AlreadyExists            Kind = "ALREADY_EXISTS"
	NotFound                 Kind = "NOT_FOUND"
	Conflict                 Kind = "CONFLICT"
	RepositoryUnavailable    Kind = "REPOSITORY_UNAVAILABLE"
	DataShapeError           Kind = "DATA_SHAPE_ERROR"
	OperationFailed          Kind = "OPERATION_FAILED"
)

// Error — доменная ошибка. Op содержит имя операции сервиса (например, create_answer).
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	var s string
	switch {
	case e.Kind == OperationFailed && e.Op != "":
		s = e.Op + " failed"
	case e.Op != "":
		s = e.Op + ": " + string(e.Kind)
	default:
		s = string(e.Kind)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is сравнивает ошибки по виду, поэтому errors.Is(err, ErrFrozenFieldEdit)
// срабатывает для любой ошибки этого вида.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Эталонные значения для errors.Is.
var (
	ErrInvalidCredentials       = &Error{Kind: InvalidCredentials}
	ErrUserAlreadyExists        = &Error{Kind: UserAlreadyExists}
	ErrUserNotFound             = &Error{Kind: UserNotFound}
	ErrValidationFailed         = &Error{Kind: ValidationFailed}
	ErrImmutableFieldChanged    = &Error{Kind: ImmutableFieldChanged}
	ErrIllegalStateTransition   = &Error{Kind: IllegalStateTransition}
	ErrFrozenFieldEdit          = &Error{Kind: FrozenFieldEdit}
	ErrAnswerFieldMismatch      = &Error{Kind: AnswerFieldMismatch}
	ErrAnswerOutOfRange         = &Error{Kind: AnswerOutOfRange}
	ErrAnswerRequiredEmpty      = &Error{Kind: AnswerRequiredEmpty}
	ErrAnswerMultipleNotAllowed = &Error{Kind: AnswerMultipleNotAllowed}
	ErrMissingReference         = &Error{Kind: MissingReference}
	ErrAlreadyExists            = &Error{Kind: AlreadyExists}
	ErrNotFound                 = &Error{Kind: NotFound}
	ErrConflict                 = &Error{Kind: Conflict}
	ErrRepositoryUnavailable    = &Error{Kind: RepositoryUnavailable}
	ErrDataShape                = &Error{Kind: DataShapeError}
	ErrOperationFailed          = &Error{Kind: OperationFailed}
)

// New создаёт ошибку указанного вида.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Newf создаёт ошибку с форматированным сообщением.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap создаёт ошибку указанного вида, сохраняя причину.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf возвращает вид доменной ошибки или OperationFailed для прочих ошибок.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return OperationFailed
}

// Message возвращает сообщение, пригодное для показа клиенту.
func Message(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "internal error"
	}
	if e.Kind == OperationFailed || e.Kind == RepositoryUnavailable {
		if e.Op != "" {
			return e.Op + " failed"
		}
		return string(e.Kind)
	}
	if e.Msg != "" {
		return e.Msg
	}
	return string(e.Kind)
}

// HTTPStatus сопоставляет вид ошибки HTTP-статусу.
func HTTPStatus(kind Kind) int {
	switch kind {
	case InvalidCredentials:
		return http.StatusUnauthorized
	case UserNotFound:
		return http.StatusForbidden
	case UserAlreadyExists, AlreadyExists, Conflict:
		return http.StatusConflict
	case ValidationFailed, ImmutableFieldChanged, IllegalStateTransition, FrozenFieldEdit,
		AnswerFieldMismatch, AnswerOutOfRange, AnswerRequiredEmpty, AnswerMultipleNotAllowed,
		MissingReference:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case DataShapeError:
		return http.StatusUnprocessableEntity
	case RepositoryUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
