package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/recipebox/recipebox-server/internal/auth"
	"github.com/recipebox/recipebox-server/internal/domain"
	"github.com/recipebox/recipebox-server/internal/media/images"
	"github.com/recipebox/recipebox-server/internal/search"
	"github.com/recipebox/recipebox-server/internal/store/sqlite"
)

type testServices struct {
	store      *sqlite.Store
	auth       *AuthService
	recipes    *RecipeService
	attributes *AttributeService
	tokens     *auth.TokenService
	images     *images.Storage
	index      *search.Index
}

// setupServices wires every service against temporary storage.
func setupServices(t *testing.T) *testServices {
	t.Helper()
	dir := t.TempDir()

	s, err := sqlite.Open(filepath.Join(dir, "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	key, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)

	revocation, err := auth.OpenRevocationList("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = revocation.Close() })

	storage, err := images.NewStorage(filepath.Join(dir, "images"), "recipes")
	require.NoError(t, err)

	index, err := search.NewIndex(search.Options{DataPath: filepath.Join(dir, "search")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	return &testServices{
		store:      s,
		auth:       NewAuthService(s, tokens, revocation, nil),
		recipes:    NewRecipeService(s, images.NewProcessor(storage, nil), index, nil),
		attributes: NewAttributeService(s, index, nil),
		tokens:     tokens,
		images:     storage,
		index:      index,
	}
}

func (ts *testServices) createUser(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := ts.auth.Register(context.Background(), RegisterRequest{
		Email:    email,
		Password: "testpass123",
		Name:     "Test User",
	})
	require.NoError(t, err)
	return u
}

func ptr[T any](v T) *T { return &v }

func names(in ...string) *[]NameInput {
	out := make([]NameInput, len(in))
	for i, n := range in {
		out[i] = NameInput{Name: n}
	}
	return &out
}

func sampleInput() RecipeInput {
	return RecipeInput{
		Title:       ptr("Sample recipe"),
		TimeMinutes: ptr(10),
		Price:       ptr(PriceInput("5.00")),
	}
}

func attrNames(attrs []domain.Attribute) []string {
	out := make([]string, len(attrs))
	for i, a := range attrs {
		out[i] = a.Name
	}
	return out
}
