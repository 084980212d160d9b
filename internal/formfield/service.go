// Package formfield управляет вопросами анкеты кампании и ответами на них,
// включая учёт числа ответивших.
package formfield

import (
	"context"
	"regexp"

	"roommate_go/internal/apperr"
	"roommate_go/internal/integrity"
	"roommate_go/models"
	"roommate_go/pkg/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service ведёт вопросы анкеты и ответы участников.
type Service struct {
	repo  *storage.Repository
	check *integrity.Checker
	retry storage.RetryPolicy
	log   *zap.Logger
}

// NewService создаёт сервис анкеты.
func NewService(repo *storage.Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, check: integrity.New(repo, log), retry: storage.DefaultRetry, log: log}
}

// checkPattern проверяет, что re компилируется и пример ex ему соответствует.
func checkPattern(op string, re, ex *string) error {
	if re == nil {
		return nil
	}
	compiled, err := regexp.Compile(*re)
	if err != nil {
		return apperr.Newf(apperr.ValidationFailed, op, "re does not compile: %v", err)
	}
	if ex != nil && !compiled.MatchString(*ex) {
		return apperr.Newf(apperr.ValidationFailed, op, "example %q does not match re", *ex)
	}
	return nil
}

// Create добавляет вопрос и вписывает его id в кампанию.
func (s *Service) Create(ctx context.Context, in models.CreateFormField) (models.FormField, error) {
	const op = "create_form_field"
	if err := models.Validate(op, in); err != nil {
		return models.FormField{}, err
	}
	spans, err := models.NormalizeSpans(op, in.QuestionEntities)
	if err != nil {
		return models.FormField{}, err
	}

	f := models.FormField{
		AllocationID:     in.AllocationID,
		Kind:             in.Kind,
		Required:         in.Required,
		Frozen:           in.Frozen,
		Question:         in.Question,
		QuestionEntities: spans,
		CreatorID:        in.CreatorID,
		EditorsIDs:       in.EditorsIDs.Clone(),
	}
	switch in.Kind {
	case models.FieldText:
		if len(in.Options) > 0 || in.Multiple {
			return models.FormField{}, apperr.New(apperr.ValidationFailed, op, "TEXT field cannot have options")
		}
		if err := checkPattern(op, in.Re, in.Ex); err != nil {
			return models.FormField{}, err
		}
		f.Re, f.Ex = in.Re, in.Ex
	case models.FieldChoice:
		if in.Re != nil || in.Ex != nil {
			return models.FormField{}, apperr.New(apperr.ValidationFailed, op, "CHOICE field cannot have re or ex")
		}
		if len(in.Options) == 0 {
			return models.FormField{}, apperr.New(apperr.ValidationFailed, op, "CHOICE field needs at least one option")
		}
		for i, o := range in.Options {
			if o.Text == "" {
				return models.FormField{}, apperr.Newf(apperr.ValidationFailed, op, "option %d has empty text", i)
			}
			f.Options = append(f.Options, models.Option{Text: o.Text})
		}
		f.Multiple = in.Multiple
	}

	err = s.check.Require(ctx, op,
		s.check.CreatorExists(in.CreatorID),
		s.check.EditorsExist(in.EditorsIDs),
		s.check.AllocationExists(in.AllocationID),
	)
	if err != nil {
		return models.FormField{}, err
	}

	f.Normalize()
	created, err := s.repo.FormFields.Create(ctx, f)
	if err != nil {
		return models.FormField{}, storage.Translate(op, err)
	}
	if err := s.linkToAllocation(ctx, created.AllocationID, created.ID, true); err != nil {
		s.log.Warn("[FORM FIELD] не удалось добавить вопрос в кампанию",
			zap.String("field", created.ID.String()), zap.Error(err))
	}
	s.log.Info("[FORM FIELD] вопрос создан", zap.String("id", created.ID.String()), zap.String("kind", string(created.Kind)))
	return created, nil
}

// linkToAllocation добавляет вопрос в form_fields_ids кампании или убирает его оттуда.
func (s *Service) linkToAllocation(ctx context.Context, allocationID, fieldID uuid.UUID, add bool) error {
	return s.retry.Retry(ctx, func() error {
		a, err := s.repo.Allocations.Read(ctx, allocationID)
		if err != nil {
			return err
		}
		if a.FormFieldsIDs.Has(fieldID) == add {
			return nil
		}
		if add {
			a.FormFieldsIDs = a.FormFieldsIDs.With(fieldID)
		} else {
			a.FormFieldsIDs = a.FormFieldsIDs.Without(fieldID)
		}
		_, err = s.repo.Allocations.Update(ctx, a)
		return err
	})
}

// Read возвращает вопрос по id.
func (s *Service) Read(ctx context.Context, id uuid.UUID) (models.FormField, error) {
	f, err := s.repo.FormFields.Read(ctx, id)
	if err != nil {
		return models.FormField{}, storage.Translate("read_form_field", err)
	}
	return f, nil
}

func (s *Service) ReadMany(ctx context.Context, ids []uuid.UUID) ([]*models.FormField, error) {
	out, err := s.repo.FormFields.ReadMany(ctx, ids)
	if err != nil {
		return nil, storage.Translate("read_form_fields", err)
	}
	return out, nil
}

// Update меняет вопрос. У замороженного вопроса можно менять только
// required, editors_ids и включать frozen.
func (s *Service) Update(ctx context.Context, in models.UpdateFormField) (models.FormField, error) {
	const op = "update_form_field"
	cur, err := s.repo.FormFields.Read(ctx, in.ID)
	if err != nil {
		return models.FormField{}, storage.Translate(op, err)
	}
	switch {
	case in.Kind != nil && *in.Kind != cur.Kind:
		return models.FormField{}, apperr.New(apperr.ImmutableFieldChanged, op, "kind cannot be changed")
	case in.AllocationID != nil && *in.AllocationID != cur.AllocationID:
		return models.FormField{}, apperr.New(apperr.ImmutableFieldChanged, op, "allocation_id cannot be changed")
	case in.CreatorID != nil && *in.CreatorID != cur.CreatorID:
		return models.FormField{}, apperr.New(apperr.ImmutableFieldChanged, op, "creator_id cannot be changed")
	}
	if cur.Frozen && in.TouchesFrozen() {
		return models.FormField{}, apperr.New(apperr.FrozenFieldEdit, op, "field is frozen")
	}
	if in.Frozen != nil && cur.Frozen && !*in.Frozen {
		return models.FormField{}, apperr.New(apperr.FrozenFieldEdit, op, "field cannot be unfrozen")
	}

	next := cur
	next.EditorsIDs = cur.EditorsIDs.Clone()
	next.Options = append([]models.Option(nil), cur.Options...)
	if in.Frozen != nil {
		next.Frozen = *in.Frozen
	}
	if in.Required != nil {
		next.Required = *in.Required
	}
	if in.Question != nil {
		if *in.Question == "" {
			return models.FormField{}, apperr.New(apperr.ValidationFailed, op, "question must not be empty")
		}
		next.Question = *in.Question
	}
	if in.QuestionEntities != nil {
		spans, err := models.NormalizeSpans(op, in.QuestionEntities)
		if err != nil {
			return models.FormField{}, err
		}
		next.QuestionEntities = spans
	}

	if cur.Kind == models.FieldText {
		if in.Options != nil || in.Multiple != nil {
			return models.FormField{}, apperr.New(apperr.ValidationFailed, op, "TEXT field cannot have options")
		}
		if in.Re != nil {
			next.Re = in.Re
		}
		if in.Ex != nil {
			next.Ex = in.Ex
		}
		if err := checkPattern(op, next.Re, next.Ex); err != nil {
			return models.FormField{}, err
		}
	} else {
		if in.Re != nil || in.Ex != nil {
			return models.FormField{}, apperr.New(apperr.ValidationFailed, op, "CHOICE field cannot have re or ex")
		}
		if len(in.Options) > len(cur.Options) {
			return models.FormField{}, apperr.Newf(apperr.ValidationFailed, op,
				"options patch has %d entries, field has %d options", len(in.Options), len(cur.Options))
		}
		for i, patch := range in.Options {
			if patch == nil || patch.Text == nil {
				continue
			}
			if *patch.Text == "" {
				return models.FormField{}, apperr.Newf(apperr.ValidationFailed, op, "option %d has empty text", i)
			}
			next.Options[i].Text = *patch.Text
		}
		if in.Multiple != nil {
			next.Multiple = *in.Multiple
		}
	}

	if in.EditorsIDs != nil {
		if err := s.check.Require(ctx, op, s.check.EditorsExist(in.EditorsIDs)); err != nil {
			return models.FormField{}, err
		}
		next.EditorsIDs = in.EditorsIDs.Clone()
	}

	updated, err := s.repo.FormFields.Update(ctx, next)
	if err != nil {
		return models.FormField{}, storage.Translate(op, err)
	}
	return updated, nil
}

// Delete мягко удаляет вопрос и убирает его из кампании.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (models.FormField, error) {
	const op = "delete_form_field"
	f, err := s.repo.FormFields.Delete(ctx, id)
	if err != nil {
		return models.FormField{}, storage.Translate(op, err)
	}
	if err := s.linkToAllocation(ctx, f.AllocationID, f.ID, false); err != nil {
		s.log.Warn("[FORM FIELD] не удалось убрать вопрос из кампании", zap.String("field", id.String()), zap.Error(err))
	}
	return f, nil
}

// adjustCounters сдвигает счётчики вопроса. Счётчики не опускаются ниже нуля.
func (s *Service) adjustCounters(ctx context.Context, fieldID uuid.UUID, respondents int, options map[int]int) error {
	if respondents == 0 && len(options) == 0 {
		return nil
	}
	return s.retry.Retry(ctx, func() error {
		f, err := s.repo.FormFields.Read(ctx, fieldID)
		if err != nil {
			return err
		}
		f.RespondentCount = clamp(f.RespondentCount + respondents)
		for i, d := range options {
			if i >= 0 && i < len(f.Options) {
				f.Options[i].RespondentCount = clamp(f.Options[i].RespondentCount + d)
			}
		}
		_, err = s.repo.FormFields.Update(ctx, f)
		return err
	})
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
