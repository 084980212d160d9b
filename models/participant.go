package models

import (
	"roommate_go/internal/apperr"

	"github.com/google/uuid"
)

// ParticipantState — этап участия пользователя в кампании.
type ParticipantState string

const (
	// ParticipantCreating — анкета ещё не зафиксирована.
	ParticipantCreating ParticipantState = "CREATING"
	// ParticipantCreated — анкета зафиксирована.
	ParticipantCreated ParticipantState = "CREATED"
	// ParticipantActive — открыта лента участников.
	ParticipantActive ParticipantState = "ACTIVE"
	// ParticipantAllocated — назначена комната.
	ParticipantAllocated ParticipantState = "ALLOCATED"
)

var participantOrder = map[ParticipantState]int{
	ParticipantCreating:  0,
	ParticipantCreated:   1,
	ParticipantActive:    2,
	ParticipantAllocated: 3,
}

// participantAllocationStates — в каких состояниях кампании допустимо состояние участника.
var participantAllocationStates = map[ParticipantState][]AllocationState{
	ParticipantCreating:  {AllocationCreating, AllocationCreated},
	ParticipantCreated:   {AllocationCreated, AllocationOpen, AllocationRooming},
	ParticipantActive:    {AllocationOpen, AllocationRooming},
	ParticipantAllocated: {AllocationRooming, AllocationRoomed, AllocationClosed},
}

func (s ParticipantState) Valid() bool {
	_, ok := participantOrder[s]
	return ok
}

// CanTransitionTo разрешает только шаг вперёд на одно состояние или сохранение текущего.
func (s ParticipantState) CanTransitionTo(to ParticipantState) bool {
	from, ok := participantOrder[s]
	if !ok {
		return false
	}
	dst, ok := participantOrder[to]
	if !ok {
		return false
	}
	return dst == from || dst == from+1
}

// AllowedIn сообщает, может ли участник находиться в этом состоянии при данном состоянии кампании.
func (s ParticipantState) AllowedIn(a AllocationState) bool {
	for _, st := range participantAllocationStates[s] {
		if st == a {
			return true
		}
	}
	return false
}

// Participant — участие пользователя в кампании.
// RoomID присутствует тогда и только тогда, когда State == ALLOCATED.
type Participant struct {
	Base
	AllocationID    uuid.UUID        `json:"allocation_id"`
	UserID          uuid.UUID        `json:"user_id"`
	State           ParticipantState `json:"state"`
	ViewedIDs       IDSet            `json:"viewed_ids"`
	SubscriptionIDs IDSet            `json:"subscription_ids"`
	SubscribersIDs  IDSet            `json:"subscribers_ids"`
	RoomID          *uuid.UUID       `json:"room_id,omitempty"`
}

func (p *Participant) Normalize() {
	if p.ViewedIDs == nil {
		p.ViewedIDs = IDSet{}
	}
	if p.SubscriptionIDs == nil {
		p.SubscriptionIDs = IDSet{}
	}
	if p.SubscribersIDs == nil {
		p.SubscribersIDs = IDSet{}
	}
	if p.State != ParticipantAllocated {
		p.RoomID = nil
	}
}

// Transition возвращает копию участника в состоянии to.
// roomID обязателен для ALLOCATED и запрещён для остальных состояний.
func (p Participant) Transition(to ParticipantState, roomID *uuid.UUID) (Participant, error) {
	const op = "update_participant"
	if !p.State.CanTransitionTo(to) {
		return p, apperr.Newf(apperr.IllegalStateTransition, op,
			"participant cannot move from %s to %s", p.State, to)
	}
	if to != ParticipantAllocated && roomID != nil {
		return p, apperr.Newf(apperr.IllegalStateTransition, op,
			"room_id can be set only in %s state", ParticipantAllocated)
	}
	next := p
	next.State = to
	next.ViewedIDs = p.ViewedIDs.Clone()
	next.SubscriptionIDs = p.SubscriptionIDs.Clone()
	next.SubscribersIDs = p.SubscribersIDs.Clone()
	if roomID != nil {
		id := *roomID
		next.RoomID = &id
	}
	if to == ParticipantAllocated && next.RoomID == nil {
		return p, apperr.New(apperr.ValidationFailed, op, "room_id is required to enter ALLOCATED")
	}
	next.Normalize()
	return next, nil
}

type CreateParticipant struct {
	AllocationID uuid.UUID        `json:"allocation_id"`
	UserID       uuid.UUID        `json:"user_id"`
	State        ParticipantState `json:"state"`
	RoomID       *uuid.UUID       `json:"room_id,omitempty"`
}

// UpdateParticipant — частичное обновление участника.
// Подписки меняются только через Subscribe/Unsubscribe, чтобы сохранять взаимность.
type UpdateParticipant struct {
	ID           uuid.UUID         `json:"-"`
	AllocationID *uuid.UUID        `json:"allocation_id,omitempty"`
	UserID       *uuid.UUID        `json:"user_id,omitempty"`
	State        *ParticipantState `json:"state,omitempty"`
	RoomID       *uuid.UUID        `json:"room_id,omitempty"`
	ViewedIDs    IDSet             `json:"viewed_ids,omitempty"`
}
