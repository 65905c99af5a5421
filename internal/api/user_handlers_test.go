package api

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Post("/api/v1/user/create", map[string]any{
		"email":    "Chef@Example.com",
		"password": "testpass123",
		"name":     "Chef",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	envelope := decodeEnvelope[UserResponse](t, resp)
	assert.True(t, envelope.Success)
	assert.True(t, strings.HasPrefix(envelope.Data.ID, "usr-"))
	assert.Equal(t, "chef@example.com", envelope.Data.Email)
	assert.Equal(t, "Chef", envelope.Data.Name)
	assert.NotContains(t, resp.Body.String(), "password")
}

func TestCreateUser_MissingFields(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Post("/api/v1/user/create", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	envelope := decodeEnvelope[any](t, resp)
	assert.False(t, envelope.Success)
	assert.Equal(t, "VALIDATION_ERROR", envelope.Code)
	assert.Contains(t, envelope.Details, "email")
	assert.Contains(t, envelope.Details, "password")
	assert.Contains(t, envelope.Details, "name")
}

func TestCreateUser_InvalidFields(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Post("/api/v1/user/create", map[string]any{
		"email":    "not-an-email",
		"password": "pw",
		"name":     "Chef",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	envelope := decodeEnvelope[any](t, resp)
	assert.Contains(t, envelope.Details, "email")
	assert.Contains(t, envelope.Details, "password")
	assert.NotContains(t, envelope.Details, "name")
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	ts := setupTestServer(t, Options{})
	ts.createUser(t, "chef@example.com")

	resp := ts.api.Post("/api/v1/user/create", map[string]any{
		"email":    "CHEF@example.com",
		"password": "testpass123",
		"name":     "Other",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, decodeEnvelope[any](t, resp).Details, "email")
}

func TestCreateToken(t *testing.T) {
	ts := setupTestServer(t, Options{})
	userID, token := ts.createUser(t, "chef@example.com")

	claims, err := ts.tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, time.Minute)
}

func TestCreateToken_BadCredentials(t *testing.T) {
	ts := setupTestServer(t, Options{})
	ts.createUser(t, "chef@example.com")

	tests := []struct {
		name  string
		email string
	}{
		{"wrong password", "chef@example.com"},
		{"unknown email", "nobody@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/v1/user/token", map[string]any{
				"email":    tt.email,
				"password": "wrong-password",
			})
			assert.Equal(t, http.StatusBadRequest, resp.Code)

			envelope := decodeEnvelope[any](t, resp)
			assert.Equal(t, "INVALID_CREDENTIALS", envelope.Code)
			assert.Equal(t, "unable to authenticate with provided credentials", envelope.Message)
		})
	}
}

func TestCreateToken_RateLimited(t *testing.T) {
	ts := setupTestServer(t, Options{AuthPerMinute: 1, AuthBurst: 2})

	body := map[string]any{"email": "a@example.com", "password": "whatever"}
	for range 2 {
		resp := ts.api.Post("/api/v1/user/token", body)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	}

	resp := ts.api.Post("/api/v1/user/token", body)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "RATE_LIMITED", decodeEnvelope[any](t, resp).Code)
}

func TestGetMe(t *testing.T) {
	ts := setupTestServer(t, Options{})
	userID, token := ts.createUser(t, "chef@example.com")

	resp := ts.api.Get("/api/v1/user/me", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code)

	envelope := decodeEnvelope[UserResponse](t, resp)
	assert.Equal(t, userID, envelope.Data.ID)
	assert.Equal(t, "chef@example.com", envelope.Data.Email)
}

func TestGetMe_TokenScheme(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, token := ts.createUser(t, "chef@example.com")

	resp := ts.api.Get("/api/v1/user/me", "Authorization: Token "+token)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestGetMe_Unauthorized(t *testing.T) {
	ts := setupTestServer(t, Options{})

	tests := []struct {
		name    string
		headers []any
	}{
		{"no header", nil},
		{"garbage token", []any{"Authorization: Bearer not-a-token"}},
		{"unknown scheme", []any{"Authorization: Basic dXNlcjpwYXNz"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Get("/api/v1/user/me", tt.headers...)
			assert.Equal(t, http.StatusUnauthorized, resp.Code)
			assert.False(t, decodeEnvelope[any](t, resp).Success)
		})
	}
}

func TestUpdateMe_Patch(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, token := ts.createUser(t, "chef@example.com")

	resp := ts.api.Patch("/api/v1/user/me", bearer(token), map[string]any{"name": "Renamed"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "Renamed", decodeEnvelope[UserResponse](t, resp).Data.Name)

	// The password was untouched.
	resp = ts.api.Post("/api/v1/user/token", map[string]any{"email": "chef@example.com", "password": "testpass123"})
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestUpdateMe_PutRequiresAllFields(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, token := ts.createUser(t, "chef@example.com")

	resp := ts.api.Put("/api/v1/user/me", bearer(token), map[string]any{"name": "Renamed"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, decodeEnvelope[any](t, resp).Details, "password")
}

func TestUpdateMe_ChangePassword(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, token := ts.createUser(t, "chef@example.com")

	resp := ts.api.Put("/api/v1/user/me", bearer(token), map[string]any{"name": "Chef", "password": "newpass456"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Post("/api/v1/user/token", map[string]any{"email": "chef@example.com", "password": "testpass123"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	resp = ts.api.Post("/api/v1/user/token", map[string]any{"email": "chef@example.com", "password": "newpass456"})
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestLogout_RevokesToken(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, token := ts.createUser(t, "chef@example.com")

	resp := ts.api.Post("/api/v1/user/logout", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/user/me", bearer(token))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "TOKEN_REVOKED", decodeEnvelope[any](t, resp).Code)
}

func TestLogout_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Post("/api/v1/user/logout")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
