package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "marketpulse/internal/errors"
)

// ReportParams are the user-supplied knobs of a report run.
type ReportParams struct {
	TopN   int    `json:"top_n" validate:"required,min=1,max=100"`
	Format string `json:"format" validate:"required,oneof=csv json both"`
}

// ParamsValidator validates parameter structs with json field names in the
// error messages, so CLI users see the flag-facing name, not the Go one.
type ParamsValidator struct {
	validate *validator.Validate
}

// NewParamsValidator creates a parameter validator.
func NewParamsValidator() *ParamsValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &ParamsValidator{validate: v}
}

// Validate checks a parameter struct, folding violations into one
// ValidationError.
func (p *ParamsValidator) Validate(params interface{}) error {
	err := p.validate.Struct(params)
	if err == nil {
		return nil
	}

	var violations []string
	if errs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range errs {
			violations = append(violations, fmt.Sprintf("%s: failed %q", fe.Field(), fe.Tag()))
		}
		return apperrors.NewValidationError(strings.Join(violations, "; "))
	}
	return apperrors.NewValidationError(err.Error())
}
