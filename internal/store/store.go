// Package store defines the persistence interface for the RecipeBox server.
//
// Every recipe, tag and ingredient method takes the owning user ID and
// filters on it; rows owned by another user are reported as ErrNotFound.
package store

import (
	"context"

	"github.com/recipebox/recipebox-server/internal/domain"
)

// RecipeFilter narrows ListRecipes. Within a field, IDs are ORed; the two
// fields are ANDed when both are set. Empty slices disable the filter.
type RecipeFilter struct {
	TagIDs        []int64
	IngredientIDs []int64
}

// AttributeFilter narrows ListAttributes.
type AttributeFilter struct {
	// AssignedOnly keeps only attributes linked to at least one recipe.
	AssignedOnly bool
}

// Store is implemented by sqlite.Store.
type Store interface {
	Close() error
	Ping(ctx context.Context) error

	// WithTx runs fn against a transaction-bound Store. The transaction
	// commits when fn returns nil and rolls back otherwise. Nested calls
	// reuse the outer transaction.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	ListUsers(ctx context.Context) ([]*domain.User, error)

	// Recipes. Returned recipes have Tags and Ingredients loaded.
	CreateRecipe(ctx context.Context, recipe *domain.Recipe) error
	GetRecipe(ctx context.Context, userID string, id int64) (*domain.Recipe, error)
	GetRecipesByIDs(ctx context.Context, userID string, ids []int64) ([]*domain.Recipe, error)
	ListRecipes(ctx context.Context, userID string, filter RecipeFilter) ([]*domain.Recipe, error)
	UpdateRecipe(ctx context.Context, recipe *domain.Recipe) error
	DeleteRecipe(ctx context.Context, userID string, id int64) error

	// Tags and ingredients, selected by kind.
	GetOrCreateAttribute(ctx context.Context, kind domain.AttributeKind, userID, name string) (*domain.Attribute, bool, error)
	GetAttribute(ctx context.Context, kind domain.AttributeKind, userID string, id int64) (*domain.Attribute, error)
	ListAttributes(ctx context.Context, kind domain.AttributeKind, userID string, filter AttributeFilter) ([]*domain.Attribute, error)
	UpdateAttribute(ctx context.Context, attr *domain.Attribute) error
	DeleteAttribute(ctx context.Context, kind domain.AttributeKind, userID string, id int64) error

	// SetRecipeAttributes replaces the recipe's links of the given kind.
	SetRecipeAttributes(ctx context.Context, kind domain.AttributeKind, recipeID int64, attrIDs []int64) error
	// RecipeIDsWithAttribute lists the user's recipes linked to the attribute.
	RecipeIDsWithAttribute(ctx context.Context, kind domain.AttributeKind, userID string, attrID int64) ([]int64, error)
}
