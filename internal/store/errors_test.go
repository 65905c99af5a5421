package store_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/recipebox/recipebox-server/internal/store"
)

func TestError_Message(t *testing.T) {
	assert.Equal(t, "resource not found", store.ErrNotFound.Error())

	wrapped := store.ErrInvalidInput.WithCause(errors.New("bad column"))
	assert.Equal(t, "invalid input: bad column", wrapped.Error())
}

func TestError_IsMatchesVariants(t *testing.T) {
	err := store.ErrNotFound.WithMessage("recipe not found")

	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, fmt.Errorf("get recipe: %w", err), store.ErrNotFound)
	assert.NotErrorIs(t, err, store.ErrAlreadyExists)
	assert.Equal(t, http.StatusNotFound, err.HTTPCode())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := store.ErrAlreadyExists.WithCause(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusConflict, err.HTTPCode())
}
