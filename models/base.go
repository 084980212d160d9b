package models

import (
	"time"

	"github.com/google/uuid"
)

// Base содержит общие атрибуты всех сущностей.
// DeletedAt заполняется при мягком удалении.
type Base struct {
	ID        uuid.UUID  `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Meta даёт хранилищу доступ к общим атрибутам любой сущности, встраивающей Base.
func (b *Base) Meta() *Base { return b }

// IsDeleted сообщает, удалена ли сущность мягко.
func (b Base) IsDeleted() bool { return b.DeletedAt != nil }

// NewID выдаёт упорядоченный по времени идентификатор (UUIDv7).
func NewID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}
