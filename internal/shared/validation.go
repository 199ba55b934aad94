package shared

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that reports fields by their `form` tag.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// ValidationMessages maps each failing field to a German message. It returns
// nil for a nil error and a "general" entry for non-validation errors.
func ValidationMessages(err error) map[string]string {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return map[string]string{"general": "Eingaben ungültig"}
	}
	out := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[fe.Field()] = validationMessage(fe)
	}
	return out
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Bitte ausfüllen"
	case "min":
		return "Mindestens " + fe.Param() + " Zeichen"
	case "max":
		return "Höchstens " + fe.Param() + " Zeichen"
	case "gt":
		return "Muss größer als " + fe.Param() + " sein"
	case "oneof":
		return "Ungültige Auswahl"
	case "uuid":
		return "Ungültige Auswahl"
	case "datetime":
		return "Ungültiges Datum"
	}
	return "Ungültig"
}
