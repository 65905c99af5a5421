package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/recipebox/recipebox-server/internal/errors"
	"github.com/recipebox/recipebox-server/internal/store"
)

const (
	msgValidationFailed = "validation failed"
	msgFieldRequired    = "this field is required"

	// nonFieldErrors keys detail messages that are not about one field,
	// such as a body that is not JSON.
	nonFieldErrors = "non_field_errors"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
//
// huma's own request validation reports 422; it is remapped to 400 with
// one detail entry per offending field, keyed by the field name.
func RegisterErrorHandler(logger *slog.Logger) {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				if domainErr.HTTPStatus() >= http.StatusInternalServerError && logger != nil {
					logger.Error("Request failed", "error", err)
				}
				return &APIError{
					status:  domainErr.HTTPStatus(),
					Code:    string(domainErr.Code),
					Message: domainErr.Message,
					Details: domainErr.Details,
				}
			}

			var storeErr *store.Error
			if errors.As(err, &storeErr) && storeErr.HTTPCode() < http.StatusInternalServerError {
				return &APIError{
					status:  storeErr.HTTPCode(),
					Code:    statusToCode(storeErr.HTTPCode()),
					Message: storeErr.Message,
				}
			}
		}

		if details := fieldDetails(errs); len(details) > 0 ||
			status == http.StatusUnprocessableEntity {
			return &APIError{
				status:  http.StatusBadRequest,
				Code:    string(domainerrors.CodeValidation),
				Message: msgValidationFailed,
				Details: details,
			}
		}

		if status >= http.StatusInternalServerError && logger != nil {
			logger.Error("Request failed", "status", status, "message", message, "errors", errs)
		}

		return &APIError{
			status:  status,
			Code:    statusToCode(status),
			Message: message,
		}
	}
}

// fieldDetails turns huma validation details into field messages.
func fieldDetails(errs []error) domainerrors.FieldErrors {
	var details domainerrors.FieldErrors
	for _, err := range errs {
		var detailer huma.ErrorDetailer
		if !errors.As(err, &detailer) {
			continue
		}
		detail := detailer.ErrorDetail()
		if details == nil {
			details = domainerrors.FieldErrors{}
		}

		field, msg := fieldName(detail.Location), detail.Message

		if property, ok := requiredProperty(msg); ok {
			field, msg = joinField(field, property), msgFieldRequired
		}

		if field == "" {
			field = nonFieldErrors
		}
		if _, seen := details[field]; !seen {
			details[field] = msg
		}
	}
	return details
}

// fieldName strips the request part ("body", "query", "path") from a huma
// location: "body.tags[0].name" becomes "tags[0].name".
func fieldName(location string) string {
	for _, part := range []string{"body", "query", "path", "header", "cookie"} {
		if location == part {
			return ""
		}
		if rest, ok := strings.CutPrefix(location, part+"."); ok {
			return rest
		}
	}
	return location
}

// requiredProperty extracts the name from huma's missing property message,
// "expected required property title to be present".
func requiredProperty(msg string) (string, bool) {
	rest, ok := strings.CutPrefix(msg, "expected required property ")
	if !ok {
		return "", false
	}
	name, ok := strings.CutSuffix(rest, " to be present")
	return name, ok && name != ""
}

func joinField(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// statusToCode maps HTTP status codes to our domain error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return string(domainerrors.CodeValidation)
	case http.StatusUnauthorized:
		return string(domainerrors.CodeUnauthorized)
	case http.StatusNotFound:
		return string(domainerrors.CodeNotFound)
	case http.StatusConflict:
		return string(domainerrors.CodeAlreadyExists)
	case http.StatusTooManyRequests:
		return string(domainerrors.CodeRateLimited)
	default:
		return string(domainerrors.CodeInternal)
	}
}
