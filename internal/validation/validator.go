// Package validation validates request structs with go-playground/validator
// and converts failures into field-keyed domain errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/recipebox/recipebox-server/internal/domain"
	domainerrors "github.com/recipebox/recipebox-server/internal/errors"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator that reports JSON field names and understands
// the custom "price" and "notblank" tags.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		switch name {
		case "":
			return fld.Name
		case "-":
			return ""
		}
		return name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		_, err := domain.ParsePrice(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns a domain validation error whose
// Details is an errors.FieldErrors map.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return formatError(err)
	}
	return nil
}

func formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fields := make(domainerrors.FieldErrors, len(validationErrs))
	for _, e := range validationErrs {
		fields[fieldPath(e)] = friendlyMessage(e)
	}
	return domainerrors.ValidationWithDetails("validation failed", fields)
}

// fieldPath drops the root struct name: "RecipeInput.tags[0].name" becomes "tags[0].name".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return e.Field()
}

func friendlyMessage(e validator.FieldError) string {
	isString := e.Kind() == reflect.String

	switch e.Tag() {
	case "required", "required_without":
		return "this field is required"
	case "notblank":
		return "this field may not be blank"
	case "email":
		return "enter a valid email address"
	case "url":
		return "enter a valid URL"
	case "price":
		return domain.ErrInvalidPrice.Error()
	case "min":
		if isString {
			return fmt.Sprintf("ensure this field has at least %s characters", e.Param())
		}
		return "ensure this value is greater than or equal to " + e.Param()
	case "max":
		if isString {
			return fmt.Sprintf("ensure this field has no more than %s characters", e.Param())
		}
		return "ensure this value is less than or equal to " + e.Param()
	case "gte":
		return "ensure this value is greater than or equal to " + e.Param()
	case "lte":
		return "ensure this value is less than or equal to " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "is invalid"
	}
}
