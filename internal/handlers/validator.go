package handlers

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RequestValidator plugs go-playground/validator into echo's c.Validate
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names so messages match the request body
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{validate: v}
}

func (v *RequestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// validationMessage is the client facing text for one failed rule. Payloads
// can override it by "<field>.<tag>" keys.
func validationMessage(fe validator.FieldError, overrides map[string]string) string {
	key := fe.Field() + "." + fe.Tag()
	if msg, ok := overrides[key]; ok {
		return strings.ReplaceAll(msg, "{VALUE}", fmt.Sprint(fe.Value()))
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Please provide %s", fe.Field())
	case "email":
		return "Please provide a valid email"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must have at least %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must have at most %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gte", "gt":
		return fmt.Sprintf("%s must be above %s", fe.Field(), fe.Param())
	case "lte", "lt":
		return fmt.Sprintf("%s must be below %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s is either: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "mongodb":
		return fmt.Sprintf("Invalid value %v for field %s", fe.Value(), fe.Field())
	case "eqfield":
		return fmt.Sprintf("%s must match %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

// validationText joins every failed rule the way the API reports input errors
func validationText(errs validator.ValidationErrors, overrides map[string]string) string {
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		msgs = append(msgs, validationMessage(fe, overrides))
	}
	return "Invalid input data. " + strings.Join(msgs, ". ")
}
