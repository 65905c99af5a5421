package service

import (
	"context"
	"log/slog"

	"github.com/recipebox/recipebox-server/internal/domain"
	"github.com/recipebox/recipebox-server/internal/search"
	"github.com/recipebox/recipebox-server/internal/store"
)

// indexer keeps the search index in step with recipe writes. The database
// is the source of truth, so failures are logged and never returned; a
// reindex repairs any drift. A nil index disables indexing.
type indexer struct {
	index  *search.Index
	store  store.Store
	logger *slog.Logger
}

func (x indexer) upsert(r *domain.Recipe) {
	if x.index == nil {
		return
	}
	if err := x.index.IndexRecipe(r); err != nil {
		x.logger.Warn("failed to index recipe", "recipe_id", r.ID, "error", err)
	}
}

func (x indexer) remove(recipeID int64) {
	if x.index == nil {
		return
	}
	if err := x.index.DeleteRecipe(recipeID); err != nil {
		x.logger.Warn("failed to remove recipe from index", "recipe_id", recipeID, "error", err)
	}
}

// refresh re-indexes the given recipes, picking up renamed or deleted attributes.
func (x indexer) refresh(ctx context.Context, userID string, recipeIDs []int64) {
	if x.index == nil || len(recipeIDs) == 0 {
		return
	}
	recipes, err := x.store.GetRecipesByIDs(ctx, userID, recipeIDs)
	if err != nil {
		x.logger.Warn("failed to load recipes for reindex", "user_id", userID, "error", err)
		return
	}
	if err := x.index.IndexRecipes(recipes); err != nil {
		x.logger.Warn("failed to reindex recipes", "user_id", userID, "count", len(recipes), "error", err)
	}
}
