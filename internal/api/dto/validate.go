package dto

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/tecnochamados/pkg/util"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags on req and reports failing fields.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return util.NewValidationError("invalid payload", nil)
	}
	fields := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		fields[strings.ToLower(fe.Field())] = fe.Tag()
	}
	return util.NewValidationError("Todos os campos são obrigatórios", map[string]any{"fields": fields})
}
