package models

import (
	"time"

	"roommate_go/internal/apperr"

	"github.com/google/uuid"
)

// Profile — анкетные данные пользователя.
// Пол и дата рождения неизвестны при регистрации и заполняются позже.
type Profile struct {
	FirstName    string       `json:"first_name" validate:"required"`
	LastName     *string      `json:"last_name,omitempty"`
	Username     *string      `json:"username,omitempty"`
	LanguageCode LanguageCode `json:"language_code"`
	Gender       *Gender      `json:"gender,omitempty"`
	Birthdate    *time.Time   `json:"birthdate,omitempty"`
}

// User — пользователь, вошедший через Telegram.
type User struct {
	Base
	TelegramID int64   `json:"telegram_id"`
	Profile    Profile `json:"profile"`
	Views      int     `json:"views"`
}

type CreateUser struct {
	TelegramID int64   `json:"telegram_id" validate:"required"`
	Profile    Profile `json:"profile"`
}

// ProfilePatch заменяет только переданные поля профиля.
type ProfilePatch struct {
	FirstName    *string       `json:"first_name,omitempty"`
	LastName     *string       `json:"last_name,omitempty"`
	Username     *string       `json:"username,omitempty"`
	LanguageCode *LanguageCode `json:"language_code,omitempty"`
	Gender       *Gender       `json:"gender,omitempty"`
	Birthdate    *time.Time    `json:"birthdate,omitempty"`
}

type UpdateUser struct {
	ID         uuid.UUID     `json:"-"`
	TelegramID *int64        `json:"telegram_id,omitempty"`
	Profile    *ProfilePatch `json:"profile,omitempty"`
	Views      *int          `json:"views,omitempty"`
}

// CheckProfile проверяет допустимые значения языка и пола.
func CheckProfile(op string, p Profile) error {
	if p.FirstName == "" {
		return apperr.New(apperr.ValidationFailed, op, "first_name must not be empty")
	}
	if !IsValidLanguage(p.LanguageCode) {
		return apperr.Newf(apperr.ValidationFailed, op, "unsupported language_code %q", p.LanguageCode)
	}
	if p.Gender != nil && !IsValidGender(*p.Gender) {
		return apperr.Newf(apperr.ValidationFailed, op, "unsupported gender %q", *p.Gender)
	}
	return nil
}

// Apply возвращает новый профиль с применённым патчем.
func (p ProfilePatch) Apply(cur Profile) Profile {
	if p.FirstName != nil {
		cur.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		cur.LastName = p.LastName
	}
	if p.Username != nil {
		cur.Username = p.Username
	}
	if p.LanguageCode != nil {
		cur.LanguageCode = *p.LanguageCode
	}
	if p.Gender != nil {
		cur.Gender = p.Gender
	}
	if p.Birthdate != nil {
		cur.Birthdate = p.Birthdate
	}
	return cur
}
