package models

import "github.com/google/uuid"

// Answer — ответ участника на вопрос анкеты.
// Text и TextEntities используются для TEXT, OptionIndexes — для CHOICE.
type Answer struct {
	Base
	FieldID      uuid.UUID `json:"field_id"`
	Kind         FieldKind `json:"kind"`
	RespondentID uuid.UUID `json:"respondent_id"`

	Text         *string      `json:"text,omitempty"`
	TextEntities []FormatSpan `json:"text_entities,omitempty"`

	OptionIndexes IndexSet `json:"option_indexes,omitempty"`
}

func (a *Answer) Normalize() {
	if a.Kind == FieldChoice {
		a.Text, a.TextEntities = nil, nil
		if a.OptionIndexes == nil {
			a.OptionIndexes = IndexSet{}
		}
	} else {
		a.OptionIndexes = nil
	}
}

type CreateAnswer struct {
	FieldID       uuid.UUID    `json:"field_id"`
	Kind          FieldKind    `json:"kind" validate:"required,oneof=TEXT CHOICE"`
	RespondentID  uuid.UUID    `json:"respondent_id"`
	Text          *string      `json:"text,omitempty"`
	TextEntities  []FormatSpan `json:"text_entities,omitempty"`
	OptionIndexes IndexSet     `json:"option_indexes,omitempty"`
}

type UpdateAnswer struct {
	ID            uuid.UUID    `json:"-"`
	FieldID       *uuid.UUID   `json:"field_id,omitempty"`
	Kind          *FieldKind   `json:"kind,omitempty"`
	RespondentID  *uuid.UUID   `json:"respondent_id,omitempty"`
	Text          *string      `json:"text,omitempty"`
	TextEntities  []FormatSpan `json:"text_entities,omitempty"`
	OptionIndexes IndexSet     `json:"option_indexes,omitempty"`
}
