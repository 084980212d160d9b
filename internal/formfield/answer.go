package formfield

import (
	"context"
	"regexp"

	"roommate_go/internal/apperr"
	"roommate_go/models"
	"roommate_go/pkg/storage"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// checkContent проверяет содержимое ответа относительно вопроса.
// Порядок проверок: диапазон индексов, обязательность, множественный выбор.
func checkContent(op string, f models.FormField, text *string, indexes models.IndexSet) error {
	switch f.Kind {
	case models.FieldText:
		if indexes.Len() > 0 {
			return apperr.New(apperr.ValidationFailed, op, "TEXT answer cannot have option_indexes")
		}
		if text == nil || *text == "" {
			if f.Required {
				return apperr.New(apperr.AnswerRequiredEmpty, op, "answer to a required field is empty")
			}
			return nil
		}
		if f.Re != nil {
			re, err := regexp.Compile(*f.Re)
			if err != nil {
				return apperr.Wrap(apperr.DataShapeError, op, err)
			}
			if !re.MatchString(*text) {
				return apperr.New(apperr.ValidationFailed, op, "answer does not match re")
			}
		}
	case models.FieldChoice:
		if text != nil {
			return apperr.New(apperr.ValidationFailed, op, "CHOICE answer cannot have text")
		}
		for _, i := range indexes.Slice() {
			if i < 0 || i >= len(f.Options) {
				return apperr.Newf(apperr.AnswerOutOfRange, op, "option index %d is out of range [0, %d)", i, len(f.Options))
			}
		}
		if f.Required && indexes.Len() == 0 {
			return apperr.New(apperr.AnswerRequiredEmpty, op, "answer to a required field is empty")
		}
		if !f.Multiple && indexes.Len() > 1 {
			return apperr.New(apperr.AnswerMultipleNotAllowed, op, "field accepts a single option")
		}
	}
	return nil
}

// optionDeltas переводит изменение выбора в приращения счётчиков. Счётчик
// варианта равен числу живых ответов участников распределения, где он выбран,
// поэтому каждое изменение двигает его ровно на разницу в выборе.
func optionDeltas(add, remove []int) map[int]int {
	out := make(map[int]int, len(add)+len(remove))
	for _, i := range add {
		out[i]++
	}
	for _, i := range remove {
		out[i]--
	}
	return out
}

// CreateAnswer сохраняет ответ и увеличивает счётчики вопроса.
func (s *Service) CreateAnswer(ctx context.Context, in models.CreateAnswer) (models.Answer, error) {
	const op = "create_answer"
	if err := models.Validate(op, in); err != nil {
		return models.Answer{}, err
	}
	err := s.check.Require(ctx, op, s.check.FieldExists(in.FieldID), s.check.RespondentExists(in.RespondentID))
	if err != nil {
		return models.Answer{}, err
	}
	field, err := s.repo.FormFields.Read(ctx, in.FieldID)
	if err != nil {
		return models.Answer{}, apperr.Wrap(apperr.MissingReference, op, err)
	}
	if in.Kind != field.Kind {
		return models.Answer{}, apperr.Newf(apperr.AnswerFieldMismatch, op, "answer kind %s does not match field kind %s", in.Kind, field.Kind)
	}
	if err := checkContent(op, field, in.Text, in.OptionIndexes); err != nil {
		return models.Answer{}, err
	}
	spans, err := models.NormalizeSpans(op, in.TextEntities)
	if err != nil {
		return models.Answer{}, err
	}
	respondent, err := s.repo.Participants.Read(ctx, in.RespondentID)
	if err != nil {
		return models.Answer{}, apperr.Wrap(apperr.MissingReference, op, err)
	}
	if respondent.AllocationID != field.AllocationID {
		return models.Answer{}, apperr.New(apperr.ValidationFailed, op, "respondent belongs to another allocation")
	}
	dups, err := s.repo.FindAnswers(ctx, in.FieldID, in.RespondentID)
	if err != nil {
		return models.Answer{}, storage.Translate(op, err)
	}
	if len(dups) > 0 {
		return models.Answer{}, apperr.New(apperr.AlreadyExists, op, "respondent already answered this field")
	}

	a := models.Answer{
		FieldID:       in.FieldID,
		Kind:          in.Kind,
		RespondentID:  in.RespondentID,
		Text:          in.Text,
		TextEntities:  spans,
		OptionIndexes: in.OptionIndexes,
	}
	a.Normalize()
	created, err := s.repo.Answers.Create(ctx, a)
	if err != nil {
		return models.Answer{}, storage.Translate(op, err)
	}
	if err := s.adjustCounters(ctx, field.ID, 1, optionDeltas(created.OptionIndexes.Slice(), nil)); err != nil {
		s.log.Error("[ANSWER] счётчики вопроса не обновлены", zap.String("answer", created.ID.String()), zap.Error(err))
		return models.Answer{}, storage.Translate(op, err)
	}
	return created, nil
}

// ReadAnswer возвращает ответ по id.
func (s *Service) ReadAnswer(ctx context.Context, id uuid.UUID) (models.Answer, error) {
	a, err := s.repo.Answers.Read(ctx, id)
	if err != nil {
		return models.Answer{}, storage.Translate("read_answer", err)
	}
	return a, nil
}

func (s *Service) ReadAnswers(ctx context.Context, ids []uuid.UUID) ([]*models.Answer, error) {
	out, err := s.repo.Answers.ReadMany(ctx, ids)
	if err != nil {
		return nil, storage.Translate("read_answers", err)
	}
	return out, nil
}

// UpdateAnswer меняет содержимое ответа и сдвигает счётчики вариантов на разницу.
func (s *Service) UpdateAnswer(ctx context.Context, in models.UpdateAnswer) (models.Answer, error) {
	const op = "update_answer"
	cur, err := s.repo.Answers.Read(ctx, in.ID)
	if err != nil {
		return models.Answer{}, storage.Translate(op, err)
	}
	switch {
	case in.FieldID != nil && *in.FieldID != cur.FieldID:
		return models.Answer{}, apperr.New(apperr.ImmutableFieldChanged, op, "field_id cannot be changed")
	case in.RespondentID != nil && *in.RespondentID != cur.RespondentID:
		return models.Answer{}, apperr.New(apperr.ImmutableFieldChanged, op, "respondent_id cannot be changed")
	case in.Kind != nil && *in.Kind != cur.Kind:
		return models.Answer{}, apperr.New(apperr.ImmutableFieldChanged, op, "kind cannot be changed")
	}
	field, err := s.repo.FormFields.Read(ctx, cur.FieldID)
	if err != nil {
		return models.Answer{}, apperr.Wrap(apperr.MissingReference, op, err)
	}

	next := cur
	if in.Text != nil {
		next.Text = in.Text
	}
	if in.TextEntities != nil {
		spans, err := models.NormalizeSpans(op, in.TextEntities)
		if err != nil {
			return models.Answer{}, err
		}
		next.TextEntities = spans
	}
	if in.OptionIndexes != nil {
		next.OptionIndexes = in.OptionIndexes
	}
	if err := checkContent(op, field, next.Text, next.OptionIndexes); err != nil {
		return models.Answer{}, err
	}

	updated, err := s.repo.Answers.Update(ctx, next)
	if err != nil {
		return models.Answer{}, storage.Translate(op, err)
	}
	deltas := optionDeltas(updated.OptionIndexes.Diff(cur.OptionIndexes), cur.OptionIndexes.Diff(updated.OptionIndexes))
	if err := s.adjustCounters(ctx, field.ID, 0, deltas); err != nil {
		s.log.Error("[ANSWER] счётчики вопроса не обновлены", zap.String("answer", updated.ID.String()), zap.Error(err))
		return models.Answer{}, storage.Translate(op, err)
	}
	return updated, nil
}

// DeleteAnswer мягко удаляет ответ и уменьшает счётчики вопроса.
func (s *Service) DeleteAnswer(ctx context.Context, id uuid.UUID) (models.Answer, error) {
	const op = "delete_answer"
	a, err := s.repo.Answers.Delete(ctx, id)
	if err != nil {
		return models.Answer{}, storage.Translate(op, err)
	}
	err = s.adjustCounters(ctx, a.FieldID, -1, optionDeltas(nil, a.OptionIndexes.Slice()))
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.log.Error("[ANSWER] счётчики вопроса не обновлены", zap.String("answer", a.ID.String()), zap.Error(err))
		return models.Answer{}, storage.Translate(op, err)
	}
	return a, nil
}
