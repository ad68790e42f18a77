package validator

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator"
)

var phoneRegex = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

const (
	ErrInvalidEmail       = "Invalid email address"
	ErrInvalidPhone       = "Invalid phone number"
	ErrUnknownEvent       = "Unknown event"
	ErrFieldRequired      = "Field is required"
	ErrFieldExceedsMaxLen = "Field exceeds maximum length"
	ErrFieldBelowMinLen   = "Field is below minimum length"
	ErrUnknownValidation  = "Unknown validation error"
)

// FieldError is the first failing rule of a validated struct.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Message + ": " + e.Field
}

// New builds a validator whose "event" tag accepts the values events reports
// as known. A nil events rejects every value.
func New(events func(string) bool) *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonName)
	_ = v.RegisterValidation("phone", validatePhone)
	_ = v.RegisterValidation("event", func(fl validator.FieldLevel) bool {
		return events != nil && events(fl.Field().String())
	})
	return v
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

func validatePhone(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(fl.Field().String())
}

// Validate checks structure against v and reports the first failure.
func Validate(ctx context.Context, v *validator.Validate, structure any) error {
	return parseValidationErrors(v.StructCtx(ctx, structure))
}

func parseValidationErrors(err error) error {
	if err == nil {
		return nil
	}
	vErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(vErrors) == 0 {
		return fmt.Errorf("validate: %w", err)
	}
	ve := vErrors[0]
	var msg string
	switch ve.Tag() {
	case "required":
		msg = ErrFieldRequired
	case "email":
		msg = ErrInvalidEmail
	case "phone":
		msg = ErrInvalidPhone
	case "event":
		msg = ErrUnknownEvent
	case "max":
		msg = ErrFieldExceedsMaxLen
	case "min":
		msg = ErrFieldBelowMinLen
	default:
		msg = ErrUnknownValidation
	}
	return &FieldError{Field: ve.Field(), Message: msg}
}
