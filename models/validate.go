package models

import (
	"strings"

	"roommate_go/internal/apperr"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate проверяет входную структуру по тегам validate и
// возвращает ValidationFailed с перечнем нарушенных полей.
func Validate(op string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperr.Wrap(apperr.ValidationFailed, op, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Namespace()+" ("+fe.Tag()+")")
	}
	return apperr.New(apperr.ValidationFailed, op, "invalid fields: "+strings.Join(fields, ", "))
}
