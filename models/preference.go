package models

import (
	"roommate_go/internal/apperr"

	"github.com/google/uuid"
)

// PreferenceKind — намерение пользователя по отношению к другому пользователю.
type PreferenceKind string

const (
	PreferenceMatrimony  PreferenceKind = "MATRIMONY"
	PreferenceCourtship  PreferenceKind = "COURTSHIP"
	PreferenceFriendship PreferenceKind = "FRIENDSHIP"
)

type PreferenceStatus string

const (
	PreferencePending  PreferenceStatus = "PENDING"
	PreferenceApproved PreferenceStatus = "APPROVED"
	PreferenceRejected PreferenceStatus = "REJECTED"
)

// CanTransitionTo: из PENDING можно перейти в APPROVED или REJECTED,
// конечные состояния не меняются.
func (s PreferenceStatus) CanTransitionTo(to PreferenceStatus) bool {
	if s == to {
		return true
	}
	return s == PreferencePending && (to == PreferenceApproved || to == PreferenceRejected)
}

// Preference — направленное намерение пользователя UserID по отношению к TargetID.
type Preference struct {
	Base
	Kind     PreferenceKind   `json:"kind"`
	Status   PreferenceStatus `json:"status"`
	UserID   uuid.UUID        `json:"user_id"`
	TargetID uuid.UUID        `json:"target_id"`
}

// WithStatus возвращает копию предпочтения с новым статусом.
func (p Preference) WithStatus(to PreferenceStatus) (Preference, error) {
	if !p.Status.CanTransitionTo(to) {
		return p, apperr.Newf(apperr.IllegalStateTransition, "update_preference",
			"preference cannot move from %s to %s", p.Status, to)
	}
	p.Status = to
	return p, nil
}

type CreatePreference struct {
	Kind     PreferenceKind   `json:"kind" validate:"required,oneof=MATRIMONY COURTSHIP FRIENDSHIP"`
	Status   PreferenceStatus `json:"status" validate:"omitempty,oneof=PENDING APPROVED REJECTED"`
	UserID   uuid.UUID        `json:"user_id"`
	TargetID uuid.UUID        `json:"target_id"`
}

type UpdatePreference struct {
	ID       uuid.UUID         `json:"-"`
	Kind     *PreferenceKind   `json:"kind,omitempty"`
	Status   *PreferenceStatus `json:"status,omitempty" validate:"omitempty,oneof=PENDING APPROVED REJECTED"`
	UserID   *uuid.UUID        `json:"user_id,omitempty"`
	TargetID *uuid.UUID        `json:"target_id,omitempty"`
}
