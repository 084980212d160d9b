package models

import "github.com/google/uuid"

// Room — комната, куда расселяют участников.
// Ограничение по полу носит рекомендательный характер.
type Room struct {
	Base
	Name              string    `json:"name"`
	Capacity          int       `json:"capacity"`
	Occupied          IDSet     `json:"occupied"`
	GenderRestriction *Gender   `json:"gender_restriction,omitempty"`
	CreatorID         uuid.UUID `json:"creator_id"`
	EditorsIDs        IDSet     `json:"editors_ids"`
}

func (r *Room) Normalize() {
	if r.Occupied == nil {
		r.Occupied = IDSet{}
	}
	if r.EditorsIDs == nil {
		r.EditorsIDs = IDSet{}
	}
}

type CreateRoom struct {
	Name              string    `json:"name" validate:"required"`
	Capacity          int       `json:"capacity" validate:"min=0"`
	Occupied          IDSet     `json:"occupied"`
	GenderRestriction *Gender   `json:"gender_restriction,omitempty"`
	CreatorID         uuid.UUID `json:"creator_id"`
	EditorsIDs        IDSet     `json:"editors_ids"`
}

type UpdateRoom struct {
	ID                uuid.UUID  `json:"-"`
	Name              *string    `json:"name,omitempty"`
	Capacity          *int       `json:"capacity,omitempty"`
	Occupied          IDSet      `json:"occupied,omitempty"`
	GenderRestriction *Gender    `json:"gender_restriction,omitempty"`
	CreatorID         *uuid.UUID `json:"creator_id,omitempty"`
	EditorsIDs        IDSet      `json:"editors_ids,omitempty"`
}
