package serverutils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest runs struct tag validation and returns a ValidationError on failure.
func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			return &ValidationError{Fields: verrs}
		}
		return err
	}
	return nil
}

type ValidationError struct {
	Fields validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		switch f.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", f.Field()))
		case "gt", "gte", "lt", "lte", "min", "max":
			msgs = append(msgs, fmt.Sprintf("%s must be %s %s", f.Field(), f.Tag(), f.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", f.Field()))
		}
	}
	return strings.Join(msgs, "; ")
}
