package models

import (
	"encoding/json"
	"time"

	"roommate_go/internal/apperr"

	"github.com/google/uuid"
)

// AllocationState — этап кампании расселения.
type AllocationState string

const (
	AllocationCreating AllocationState = "CREATING"
	AllocationCreated  AllocationState = "CREATED"
	AllocationOpen     AllocationState = "OPEN"
	AllocationRooming  AllocationState = "ROOMING"
	AllocationRoomed   AllocationState = "ROOMED"
	AllocationClosed   AllocationState = "CLOSED"
	AllocationFailed   AllocationState = "FAILED"
)

// AllocationStates перечисляет состояния в порядке жизненного цикла.
var AllocationStates = []AllocationState{
	AllocationCreating, AllocationCreated, AllocationOpen, AllocationRooming,
	AllocationRoomed, AllocationClosed, AllocationFailed,
}

// allocationNext — допустимые переходы, кроме перехода в то же состояние и в FAILED.
var allocationNext = map[AllocationState]AllocationState{
	AllocationCreating: AllocationCreated,
	AllocationCreated:  AllocationOpen,
	AllocationOpen:     AllocationRooming,
	AllocationRooming:  AllocationRoomed,
	AllocationRoomed:   AllocationClosed,
}

func (s AllocationState) Valid() bool {
	for _, st := range AllocationStates {
		if s == st {
			return true
		}
	}
	return false
}

// CanTransitionTo сообщает, разрешён ли переход s -> to.
// В FAILED можно перейти из любого состояния, кроме CLOSED.
func (s AllocationState) CanTransitionTo(to AllocationState) bool {
	if !s.Valid() || !to.Valid() {
		return false
	}
	if s == to {
		return true
	}
	if to == AllocationFailed {
		return s != AllocationClosed
	}
	next, ok := allocationNext[s]
	return ok && next == to
}

// HasParticipants сообщает, несёт ли состояние множество участников.
func (s AllocationState) HasParticipants() bool {
	return s != AllocationCreating && s != AllocationFailed
}

// Allocation — кампания расселения со своей анкетой и участниками.
// ParticipantsIDs присутствует только в состояниях, где HasParticipants() == true.
type Allocation struct {
	Base
	Name            string          `json:"name"`
	Due             *time.Time      `json:"due,omitempty"`
	State           AllocationState `json:"state"`
	FormFieldsIDs   IDSet           `json:"form_fields_ids"`
	CreatorID       uuid.UUID       `json:"creator_id"`
	EditorsIDs      IDSet           `json:"editors_ids"`
	ParticipantsIDs IDSet           `json:"participants_ids,omitempty"`
}

// Normalize приводит наличие ParticipantsIDs в соответствие с состоянием.
func (a *Allocation) Normalize() {
	if a.FormFieldsIDs == nil {
		a.FormFieldsIDs = IDSet{}
	}
	if a.EditorsIDs == nil {
		a.EditorsIDs = IDSet{}
	}
	switch {
	case !a.State.HasParticipants():
		a.ParticipantsIDs = nil
	case a.ParticipantsIDs == nil:
		a.ParticipantsIDs = IDSet{}
	}
}

// MarshalJSON выводит participants_ids, даже пустое, во всех состояниях с участниками.
func (a Allocation) MarshalJSON() ([]byte, error) {
	type plain Allocation
	out := struct {
		plain
		ParticipantsIDs *IDSet `json:"participants_ids,omitempty"`
	}{plain: plain(a)}
	if a.State.HasParticipants() {
		ids := a.ParticipantsIDs
		out.ParticipantsIDs = &ids
	}
	return json.Marshal(out)
}

// Transition возвращает копию кампании в состоянии to.
// При входе в состояние с участниками создаётся пустое множество,
// при уходе в CREATING или FAILED множество отбрасывается.
func (a Allocation) Transition(to AllocationState) (Allocation, error) {
	if !a.State.CanTransitionTo(to) {
		return a, apperr.Newf(apperr.IllegalStateTransition, "update_allocation",
			"allocation cannot move from %s to %s", a.State, to)
	}
	next := a
	next.State = to
	next.FormFieldsIDs = a.FormFieldsIDs.Clone()
	next.EditorsIDs = a.EditorsIDs.Clone()
	next.ParticipantsIDs = a.ParticipantsIDs.Clone()
	next.Normalize()
	return next, nil
}

type CreateAllocation struct {
	Name            string          `json:"name" validate:"required"`
	Due             *time.Time      `json:"due,omitempty"`
	State           AllocationState `json:"state"`
	FormFieldsIDs   IDSet           `json:"form_fields_ids"`
	CreatorID       uuid.UUID       `json:"creator_id"`
	EditorsIDs      IDSet           `json:"editors_ids"`
	ParticipantsIDs IDSet           `json:"participants_ids,omitempty"`
}

// UpdateAllocation — частичное обновление. nil-поля и nil-множества не меняются.
type UpdateAllocation struct {
	ID              uuid.UUID        `json:"-"`
	Name            *string          `json:"name,omitempty"`
	Due             *time.Time       `json:"due,omitempty"`
	State           *AllocationState `json:"state,omitempty"`
	FormFieldsIDs   IDSet            `json:"form_fields_ids,omitempty"`
	CreatorID       *uuid.UUID       `json:"creator_id,omitempty"`
	EditorsIDs      IDSet            `json:"editors_ids,omitempty"`
	ParticipantsIDs IDSet            `json:"participants_ids,omitempty"`
}
