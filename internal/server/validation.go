package server

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var langPattern = regexp.MustCompile(`^[A-Za-z]{2,3}([-_][A-Za-z0-9]+)*$`)

type transcriptRequest struct {
	URL  string `json:"url" validate:"required,max=2048"`
	Lang string `json:"lang" validate:"omitempty,lang"`
}

type summaryRequest struct {
	URL   string `json:"url" validate:"required,max=2048"`
	Model string `json:"model" validate:"omitempty,max=64"`
}

type captionsQuery struct {
	VideoID string `query:"videoId" validate:"required,len=11"`
	Lang    string `query:"lang" validate:"omitempty,lang"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("lang", func(fl validator.FieldLevel) bool {
		return langPattern.MatchString(fl.Field().String())
	})
	return v
}

// FormatValidationErrors renders validator errors as one message.
func FormatValidationErrors(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, err := range errs {
		element := fmt.Sprintf("field '%s' failed on the '%s' tag", err.Field(), err.Tag())
		if err.Param() != "" {
			element = fmt.Sprintf("%s (value: %s)", element, err.Param())
		}
		parts = append(parts, element)
	}
	return strings.Join(parts, "; ")
}
