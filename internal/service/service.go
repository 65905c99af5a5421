// Package service holds the business logic behind the HTTP API: account
// and token handling, recipe writes with nested tag and ingredient
// synchronization, and attribute maintenance.
package service

import (
	"errors"
	"fmt"
	"maps"

	domainerrors "github.com/recipebox/recipebox-server/internal/errors"
	"github.com/recipebox/recipebox-server/internal/validation"
)

// validate is the shared request validator.
var validate = validation.New()

const msgRequired = "this field is required"

// validateInput runs struct validation and merges the result with missing,
// the fields a full update or create requires but did not receive.
func validateInput(in any, missing domainerrors.FieldErrors) error {
	fields := domainerrors.FieldErrors{}
	maps.Copy(fields, missing)

	if err := validate.Validate(in); err != nil {
		var de *domainerrors.Error
		if !errors.As(err, &de) {
			return fmt.Errorf("validate: %w", err)
		}
		if fe, ok := de.Details.(domainerrors.FieldErrors); ok {
			maps.Copy(fields, fe)
		} else {
			return de
		}
	}

	if len(fields) > 0 {
		return domainerrors.ValidationWithDetails("validation failed", fields)
	}
	return nil
}

// requireFields records msgRequired for every name whose present flag is false.
func requireFields(present map[string]bool) domainerrors.FieldErrors {
	missing := domainerrors.FieldErrors{}
	for name, ok := range present {
		if !ok {
			missing[name] = msgRequired
		}
	}
	return missing
}
