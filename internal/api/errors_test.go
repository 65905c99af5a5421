package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/recipebox/recipebox-server/internal/errors"
	"github.com/recipebox/recipebox-server/internal/store"
)

func newAPIError(t *testing.T, status int, msg string, errs ...error) *APIError {
	t.Helper()
	RegisterErrorHandler(nil)
	var apiErr *APIError
	require.True(t, errors.As(huma.NewError(status, msg, errs...), &apiErr))
	return apiErr
}

func TestNewError_DomainError(t *testing.T) {
	err := fmt.Errorf("update tag: %w", domainerrors.ValidationField("name", "tag with this name already exists"))
	apiErr := newAPIError(t, http.StatusInternalServerError, "unexpected error occurred", err)

	assert.Equal(t, http.StatusBadRequest, apiErr.GetStatus())
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	assert.Equal(t, domainerrors.FieldErrors{"name": "tag with this name already exists"}, apiErr.Details)
}

func TestNewError_StoreNotFound(t *testing.T) {
	apiErr := newAPIError(t, http.StatusInternalServerError, "unexpected", store.ErrNotFound)

	assert.Equal(t, http.StatusNotFound, apiErr.GetStatus())
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
}

func TestNewError_HumaValidationBecomes400(t *testing.T) {
	apiErr := newAPIError(t, http.StatusUnprocessableEntity, "validation failed",
		&huma.ErrorDetail{Location: "body", Message: "expected required property title to be present"},
		&huma.ErrorDetail{Location: "body.tags[0]", Message: "expected required property name to be present"},
		&huma.ErrorDetail{Location: "query.assigned_only", Message: "expected value to be one of \"0, 1\""},
	)

	assert.Equal(t, http.StatusBadRequest, apiErr.GetStatus())
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	assert.Equal(t, domainerrors.FieldErrors{
		"title":         msgFieldRequired,
		"tags[0].name":  msgFieldRequired,
		"assigned_only": "expected value to be one of \"0, 1\"",
	}, apiErr.Details)
}

func TestNewError_BodyParseError(t *testing.T) {
	apiErr := newAPIError(t, http.StatusBadRequest, "bad body",
		&huma.ErrorDetail{Location: "body", Message: "unexpected end of JSON input"})

	assert.Equal(t, http.StatusBadRequest, apiErr.GetStatus())
	assert.Equal(t, domainerrors.FieldErrors{nonFieldErrors: "unexpected end of JSON input"}, apiErr.Details)
}

func TestNewError_PlainStatus(t *testing.T) {
	apiErr := newAPIError(t, http.StatusUnauthorized, "nope")

	assert.Equal(t, http.StatusUnauthorized, apiErr.GetStatus())
	assert.Equal(t, "UNAUTHORIZED", apiErr.Code)
	assert.Equal(t, "nope", apiErr.Message)
	assert.Nil(t, apiErr.Details)
}

func TestFieldName(t *testing.T) {
	tests := map[string]string{
		"body":                "",
		"body.title":          "title",
		"body.tags[1].name":   "tags[1].name",
		"query.assigned_only": "assigned_only",
		"path.id":             "id",
		"title":               "title",
	}
	for in, want := range tests {
		assert.Equal(t, want, fieldName(in), in)
	}
}

func TestStatusToCode(t *testing.T) {
	assert.Equal(t, "VALIDATION_ERROR", statusToCode(http.StatusUnprocessableEntity))
	assert.Equal(t, "RATE_LIMITED", statusToCode(http.StatusTooManyRequests))
	assert.Equal(t, "INTERNAL", statusToCode(http.StatusTeapot))
}
