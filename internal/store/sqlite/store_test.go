package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/recipebox/recipebox-server/internal/domain"
	"github.com/recipebox/recipebox-server/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestUser inserts a user with a deterministic ID derived from email.
func createTestUser(t *testing.T, s *Store, email string) *domain.User {
	t.Helper()
	now := time.Now()
	u := &domain.User{
		ID:           "usr-" + email,
		Email:        email,
		Name:         "Test " + email,
		PasswordHash: "hash",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	var fk int
	if err := s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}

	for _, table := range []string{"users", "recipes", "tags", "ingredients", "recipe_tags", "recipe_ingredients"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")

	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	createTestUser(t, s, "keep@example.com")
	s.Close()

	s, err = Open(path, nil)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s.Close()

	if _, err := s.GetUserByEmail(context.Background(), "keep@example.com"); err != nil {
		t.Errorf("user lost across reopen: %v", err)
	}
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createTestUser(t, s, "tx@example.com")

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx store.Store) error {
		r := newTestRecipe(u.ID, "Rolled back")
		if err := tx.CreateRecipe(ctx, r); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	recipes, err := s.ListRecipes(ctx, u.ID, store.RecipeFilter{})
	if err != nil {
		t.Fatalf("ListRecipes: %v", err)
	}
	if len(recipes) != 0 {
		t.Errorf("expected rollback, found %d recipes", len(recipes))
	}
}

func TestWithTx_CommitsAndNests(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createTestUser(t, s, "nest@example.com")

	err := s.WithTx(ctx, func(tx store.Store) error {
		return tx.WithTx(ctx, func(inner store.Store) error {
			return inner.CreateRecipe(ctx, newTestRecipe(u.ID, "Committed"))
		})
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}

	recipes, err := s.ListRecipes(ctx, u.ID, store.RecipeFilter{})
	if err != nil {
		t.Fatalf("ListRecipes: %v", err)
	}
	if len(recipes) != 1 {
		t.Errorf("expected 1 recipe, got %d", len(recipes))
	}
}

func TestUsers_CreateGetUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "Chef@Example.com")

	got, err := s.GetUserByEmail(ctx, "chef@EXAMPLE.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != u.ID || got.Email != "chef@example.com" || !got.IsActive {
		t.Errorf("unexpected user: %+v", got)
	}

	got.Name = "Renamed"
	got.UpdatedAt = time.Now()
	if err := s.UpdateUser(ctx, got); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	again, err := s.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if again.Name != "Renamed" {
		t.Errorf("Name: got %q, want %q", again.Name, "Renamed")
	}
}

func TestUsers_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	createTestUser(t, s, "dup@example.com")

	now := time.Now()
	err := s.CreateUser(context.Background(), &domain.User{
		ID: "usr-other", Email: "DUP@example.com", Name: "x", PasswordHash: "h", CreatedAt: now, UpdatedAt: now,
	})
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestUsers_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetUser(ctx, "usr-missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetUser: expected ErrNotFound, got %v", err)
	}
	err := s.UpdateUser(ctx, &domain.User{ID: "usr-missing"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("UpdateUser: expected ErrNotFound, got %v", err)
	}
}

func TestListUsers(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 3; i++ {
		createTestUser(t, s, fmt.Sprintf("u%d@example.com", i))
	}

	users, err := s.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 3 {
		t.Errorf("expected 3 users, got %d", len(users))
	}
}
