// Package validation turns struct-tag validation failures into field-level
// application errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/moaz267/furniture/internal/errors"
)

var (
	personName = regexp.MustCompile(`^[\p{L}\s'-]+$`)
	phone      = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
)

type Validator struct {
	validate *validator.Validate
}

// New registers the shop's custom rules:
//
//	personname  letters (any script), spaces, apostrophes and hyphens
//	phone       10 to 15 digits with an optional leading +
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return personName.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phone.MatchString(fl.Field().String())
	})

	return &Validator{validate: v}
}

// Struct validates s and returns a *apperrors.ValidationError holding the
// first violation of each field, or nil.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return fmt.Errorf("validating request: %w", err)
	}

	seen := make(map[string]bool, len(vErrs))
	details := make([]apperrors.ValidationDetail, 0, len(vErrs))
	for _, fe := range vErrs {
		field := fe.Field()
		if seen[field] {
			continue
		}
		seen[field] = true
		details = append(details, apperrors.ValidationDetail{
			Field:   field,
			Message: message(fe),
		})
	}

	return apperrors.NewValidationError("validation failed", details...)
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		switch fe.Kind() {
		case reflect.Slice:
			return fmt.Sprintf("%s must have at most %s entries", field, fe.Param())
		case reflect.Int, reflect.Int64:
			return fmt.Sprintf("%s must be at most %s", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "email":
		return field + " must be a valid email address"
	case "personname":
		return field + " may only contain letters, spaces, apostrophes and hyphens"
	case "phone":
		return field + " must be 10 to 15 digits, optionally starting with +"
	case "uuid":
		return field + " must be a valid id"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return field + " is invalid"
	}
}
