package errors

import (
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeAlreadyExists, http.StatusConflict},
		{CodeValidation, http.StatusBadRequest},
		{CodeInvalidCredentials, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeTokenExpired, http.StatusUnauthorized},
		{CodeTokenRevoked, http.StatusUnauthorized},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeInternal, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := NotFound("recipe not found")
	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrValidation))

	wrapped := fmt.Errorf("get recipe: %w", err)
	assert.True(t, Is(wrapped, ErrNotFound))
}

func TestWrap_KeepsCause(t *testing.T) {
	err := Wrap(io.ErrUnexpectedEOF, CodeInternal, "read upload")
	assert.True(t, Is(err, io.ErrUnexpectedEOF))
	assert.Equal(t, "read upload: unexpected EOF", err.Error())
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus())
}

func TestValidationField(t *testing.T) {
	err := ValidationField("name", "tag with this name already exists")

	assert.Equal(t, CodeValidation, err.Code)
	assert.Equal(t, FieldErrors{"name": "tag with this name already exists"}, err.Details)
}

func TestWithDetails_DoesNotMutateSentinel(t *testing.T) {
	err := ErrValidation.WithDetails(FieldErrors{"title": "required"})

	assert.Nil(t, ErrValidation.Details)
	assert.NotNil(t, err.Details)
	assert.True(t, Is(err, ErrValidation))
}
