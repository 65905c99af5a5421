package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recipebox/recipebox-server/internal/auth"
	"github.com/recipebox/recipebox-server/internal/media/images"
	"github.com/recipebox/recipebox-server/internal/search"
	"github.com/recipebox/recipebox-server/internal/service"
	"github.com/recipebox/recipebox-server/internal/store/sqlite"
)

// testEnvelope mirrors the JSON envelope for decoding in tests.
type testEnvelope[T any] struct {
	Version int               `json:"v"`
	Success bool              `json:"success"`
	Data    T                 `json:"data"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details"`
}

type testServer struct {
	*Server
	api    humatest.TestAPI
	tokens *auth.TokenService
	store  *sqlite.Store
	images *images.Storage
}

// setupTestServer wires a server against temporary storage.
func setupTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	dir := t.TempDir()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	st, err := sqlite.Open(filepath.Join(dir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	key, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)

	revocation, err := auth.OpenRevocationList("", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = revocation.Close() })

	storage, err := images.NewStorage(filepath.Join(dir, "images"), "recipes")
	require.NoError(t, err)

	index, err := search.NewIndex(search.Options{DataPath: filepath.Join(dir, "search"), Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	services := &Services{
		Auth:      service.NewAuthService(st, tokens, revocation, logger),
		Recipe:    service.NewRecipeService(st, images.NewProcessor(storage, logger), index, logger),
		Attribute: service.NewAttributeService(st, index, logger),
		Search:    index,
	}

	if opts.AuthPerMinute == 0 {
		opts.AuthPerMinute = 1000
		opts.AuthBurst = 1000
	}

	s := NewServer(st, services, storage, opts, logger)
	t.Cleanup(func() { _ = s.Shutdown() })

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.API()),
		tokens: tokens,
		store:  st,
		images: storage,
	}
}

func decodeEnvelope[T any](t *testing.T, resp *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()
	var envelope testEnvelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope), resp.Body.String())
	return envelope
}

func bearer(token string) string {
	return "Authorization: Bearer " + token
}

// createUser registers email and returns its user ID and a token.
func (ts *testServer) createUser(t *testing.T, email string) (userID, token string) {
	t.Helper()

	resp := ts.api.Post("/api/v1/user/create", map[string]any{
		"email":    email,
		"password": "testpass123",
		"name":     "Test User",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	user := decodeEnvelope[UserResponse](t, resp)

	resp = ts.api.Post("/api/v1/user/token", map[string]any{
		"email":    email,
		"password": "testpass123",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	return user.Data.ID, decodeEnvelope[TokenResponse](t, resp).Data.Token
}

// createRecipe posts body and returns the created recipe.
func (ts *testServer) createRecipe(t *testing.T, token string, body map[string]any) RecipeDetail {
	t.Helper()
	resp := ts.api.Post("/api/v1/recipes", bearer(token), body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decodeEnvelope[RecipeDetail](t, resp).Data
}

func sampleRecipe(title string, tags ...string) map[string]any {
	tagObjs := make([]map[string]string, len(tags))
	for i, tag := range tags {
		tagObjs[i] = map[string]string{"name": tag}
	}
	return map[string]any{
		"title":        title,
		"time_minutes": 10,
		"price":        "5.00",
		"tags":         tagObjs,
	}
}

func attributeNames(attrs []AttributeResponse) []string {
	out := make([]string, len(attrs))
	for i, a := range attrs {
		out[i] = a.Name
	}
	return out
}

func TestServer_StripsTrailingSlash(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, token := ts.createUser(t, "chef@example.com")

	resp := ts.api.Get("/api/v1/recipes/", bearer(token))
	assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}

func TestServer_CORSPreflight(t *testing.T) {
	ts := setupTestServer(t, Options{CORSOrigins: []string{"https://app.example.com"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/recipes", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	ts.ServeHTTP(w, req)

	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_MetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t, Options{MetricsEnabled: true})
	ts.api.Get("/health")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	ts.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "recipebox_http_requests_total")
}

func TestServer_MetricsDisabled(t *testing.T) {
	ts := setupTestServer(t, Options{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	ts.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
