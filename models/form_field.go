package models

import (
	"github.com/google/uuid"
)

// FieldKind — тип вопроса анкеты и ответа на него.
type FieldKind string

const (
	FieldText   FieldKind = "TEXT"
	FieldChoice FieldKind = "CHOICE"
)

func (k FieldKind) Valid() bool { return k == FieldText || k == FieldChoice }

// Option — вариант ответа на вопрос с выбором.
type Option struct {
	Text            string `json:"text"`
	RespondentCount int    `json:"respondent_count"`
}

// FormField — вопрос анкеты кампании.
// Re и Ex используются только для TEXT, Options и Multiple — только для CHOICE.
type FormField struct {
	Base
	AllocationID     uuid.UUID    `json:"allocation_id"`
	Kind             FieldKind    `json:"kind"`
	Required         bool         `json:"required"`
	Frozen           bool         `json:"frozen"`
	Question         string       `json:"question"`
	QuestionEntities []FormatSpan `json:"question_entities"`
	RespondentCount  int          `json:"respondent_count"`
	CreatorID        uuid.UUID    `json:"creator_id"`
	EditorsIDs       IDSet        `json:"editors_ids"`

	Re *string `json:"re,omitempty"`
	Ex *string `json:"ex,omitempty"`

	Options  []Option `json:"options,omitempty"`
	Multiple bool     `json:"multiple,omitempty"`
}

func (f *FormField) Normalize() {
	if f.EditorsIDs == nil {
		f.EditorsIDs = IDSet{}
	}
	if f.QuestionEntities == nil {
		f.QuestionEntities = []FormatSpan{}
	}
	if f.Kind == FieldChoice {
		f.Re, f.Ex = nil, nil
	} else {
		f.Options, f.Multiple = nil, false
	}
}

type CreateOption struct {
	Text string `json:"text"`
}

type CreateFormField struct {
	AllocationID     uuid.UUID      `json:"allocation_id"`
	Kind             FieldKind      `json:"kind" validate:"required,oneof=TEXT CHOICE"`
	Required         bool           `json:"required"`
	Frozen           bool           `json:"frozen"`
	Question         string         `json:"question" validate:"required"`
	QuestionEntities []FormatSpan   `json:"question_entities"`
	CreatorID        uuid.UUID      `json:"creator_id"`
	EditorsIDs       IDSet          `json:"editors_ids"`
	Re               *string        `json:"re,omitempty"`
	Ex               *string        `json:"ex,omitempty"`
	Options          []CreateOption `json:"options,omitempty"`
	Multiple         bool           `json:"multiple,omitempty"`
}

// OptionPatch заменяет только переданные поля варианта.
type OptionPatch struct {
	Text *string `json:"text,omitempty"`
}

// UpdateFormField — частичное обновление вопроса.
// Options сопоставляется с текущими вариантами по позиции, nil-элемент оставляет вариант без изменений.
type UpdateFormField struct {
	ID               uuid.UUID      `json:"-"`
	AllocationID     *uuid.UUID     `json:"allocation_id,omitempty"`
	Kind             *FieldKind     `json:"kind,omitempty"`
	Required         *bool          `json:"required,omitempty"`
	Frozen           *bool          `json:"frozen,omitempty"`
	Question         *string        `json:"question,omitempty"`
	QuestionEntities []FormatSpan   `json:"question_entities,omitempty"`
	CreatorID        *uuid.UUID     `json:"creator_id,omitempty"`
	EditorsIDs       IDSet          `json:"editors_ids,omitempty"`
	Re               *string        `json:"re,omitempty"`
	Ex               *string        `json:"ex,omitempty"`
	Options          []*OptionPatch `json:"options,omitempty"`
	Multiple         *bool          `json:"multiple,omitempty"`
}

// TouchesFrozen сообщает, затрагивает ли обновление поля, закрытые флагом frozen.
func (u UpdateFormField) TouchesFrozen() bool {
	return u.Question != nil || u.QuestionEntities != nil || u.Re != nil || u.Ex != nil ||
		u.Options != nil || u.Multiple != nil
}
