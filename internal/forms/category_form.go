package forms

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// CategoryInput is the raw category form as submitted.
type CategoryInput struct {
	Name string `form:"name" json:"name" validate:"required,max=100"`
}

// ValidateCategory returns the trimmed category name.
func ValidateCategory(in CategoryInput) (string, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(in); err != nil {
		ve := &ValidationError{}
		var verrs validator.ValidationErrors
		if !asValidationErrors(err, &verrs) {
			ve.Add("form", err.Error())
			return "", ve
		}
		for _, e := range verrs {
			ve.Add(fieldName(e), message(e))
		}
		return "", ve
	}
	return in.Name, nil
}
