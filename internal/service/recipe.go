package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/recipebox/recipebox-server/internal/domain"
	domainerrors "github.com/recipebox/recipebox-server/internal/errors"
	"github.com/recipebox/recipebox-server/internal/media/images"
	"github.com/recipebox/recipebox-server/internal/metrics"
	"github.com/recipebox/recipebox-server/internal/search"
	"github.com/recipebox/recipebox-server/internal/store"
)

// RecipeInput is the writable part of a recipe. Nil fields are absent from
// the payload; for Tags and Ingredients a non-nil empty slice means "clear".
// Read-only keys sent back by clients (id, image) are ignored.
type RecipeInput struct {
	_           struct{}     `json:"-" additionalProperties:"true"`
	Title       *string      `json:"title,omitempty" validate:"omitnil,notblank,max=255"`
	TimeMinutes *int         `json:"time_minutes,omitempty" validate:"omitnil,min=0"`
	Price       *PriceInput  `json:"price,omitempty" validate:"omitnil,price"`
	Link        *string      `json:"link,omitempty" validate:"omitnil,max=255"`
	Description *string      `json:"description,omitempty"`
	Tags        *[]NameInput `json:"tags,omitempty" validate:"omitnil,dive" nullable:"true"`
	Ingredients *[]NameInput `json:"ingredients,omitempty" validate:"omitnil,dive" nullable:"true"`
}

// SearchResults are recipes matching a full-text query, best match first.
type SearchResults struct {
	Total   uint64
	Recipes []*domain.Recipe
	Tags    []search.FacetCount
}

// RecipeService implements recipe CRUD and keeps nested tags and
// ingredients in sync with the payload.
type RecipeService struct {
	store  store.Store
	images *images.Processor
	index  *search.Index
	logger *slog.Logger
	search indexer
}

// NewRecipeService creates a recipe service. index may be nil to disable search.
func NewRecipeService(store store.Store, images *images.Processor, index *search.Index, logger *slog.Logger) *RecipeService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RecipeService{
		store:  store,
		images: images,
		index:  index,
		logger: logger,
		search: indexer{index: index, store: store, logger: logger},
	}
}

// List returns the user's recipes matching filter, newest first.
func (s *RecipeService) List(ctx context.Context, userID string, filter store.RecipeFilter) ([]*domain.Recipe, error) {
	recipes, err := s.store.ListRecipes(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}

// Get returns one of the user's recipes.
func (s *RecipeService) Get(ctx context.Context, userID string, id int64) (*domain.Recipe, error) {
	r, err := s.store.GetRecipe(ctx, userID, id)
	if err != nil {
		return nil, recipeError(err)
	}
	return r, nil
}

// Create validates in, inserts the recipe and attaches its tags and
// ingredients, creating any the user does not have yet. One transaction.
func (s *RecipeService) Create(ctx context.Context, userID string, in RecipeInput) (*domain.Recipe, error) {
	missing := requireFields(map[string]bool{
		"title":        in.Title != nil,
		"time_minutes": in.TimeMinutes != nil,
		"price":        in.Price != nil,
	})
	if err := validateInput(in, missing); err != nil {
		return nil, err
	}

	r := &domain.Recipe{UserID: userID}
	r.Touch()
	r.CreatedAt = r.UpdatedAt
	if err := applyInput(r, in); err != nil {
		return nil, err
	}

	var created []domain.AttributeKind
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.CreateRecipe(ctx, r); err != nil {
			return err
		}
		var err error
		created, err = syncNested(ctx, tx, userID, r.ID, in)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}

	recordCreated(created)
	metrics.RecipeCreated()

	saved, err := s.Get(ctx, userID, r.ID)
	if err != nil {
		return nil, err
	}
	s.search.upsert(saved)

	s.logger.Info("Recipe created", "recipe_id", saved.ID, "user_id", userID,
		"tags", len(saved.Tags), "ingredients", len(saved.Ingredients))
	return saved, nil
}

// Update applies in to one of the user's recipes. A full update requires
// title, time_minutes and price. In both modes tags and ingredients are
// replaced when present and left alone when absent.
func (s *RecipeService) Update(ctx context.Context, userID string, id int64, in RecipeInput, partial bool) (*domain.Recipe, error) {
	var missing domainerrors.FieldErrors
	if !partial {
		missing = requireFields(map[string]bool{
			"title":        in.Title != nil,
			"time_minutes": in.TimeMinutes != nil,
			"price":        in.Price != nil,
		})
	}
	if err := validateInput(in, missing); err != nil {
		return nil, err
	}

	var created []domain.AttributeKind
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		r, err := tx.GetRecipe(ctx, userID, id)
		if err != nil {
			return recipeError(err)
		}
		if err := applyInput(r, in); err != nil {
			return err
		}
		r.Touch()
		if err := tx.UpdateRecipe(ctx, r); err != nil {
			return recipeError(err)
		}
		created, err = syncNested(ctx, tx, userID, r.ID, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	recordCreated(created)

	saved, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	s.search.upsert(saved)

	s.logger.Info("Recipe updated", "recipe_id", id, "user_id", userID, "partial", partial)
	return saved, nil
}

// Delete removes one of the user's recipes and its image file.
// Its tags and ingredients are kept.
func (s *RecipeService) Delete(ctx context.Context, userID string, id int64) error {
	r, err := s.store.GetRecipe(ctx, userID, id)
	if err != nil {
		return recipeError(err)
	}

	if err := s.store.DeleteRecipe(ctx, userID, id); err != nil {
		return recipeError(err)
	}

	s.removeImage(r.Image)
	s.search.remove(id)

	s.logger.Info("Recipe deleted", "recipe_id", id, "user_id", userID)
	return nil
}

// UploadImage stores data as the recipe's image, replacing and deleting
// any previous one.
func (s *RecipeService) UploadImage(ctx context.Context, userID string, id int64, data []byte) (*domain.Recipe, error) {
	r, err := s.store.GetRecipe(ctx, userID, id)
	if err != nil {
		return nil, recipeError(err)
	}

	if len(data) == 0 {
		return nil, domainerrors.ValidationField("image", "no file was submitted")
	}

	stored, err := s.images.Process(ctx, data)
	if err != nil {
		if errors.Is(err, images.ErrUnsupportedFormat) {
			return nil, domainerrors.ValidationField("image",
				"upload a valid image. The file you uploaded was either not an image or a corrupted image")
		}
		return nil, fmt.Errorf("store image: %w", err)
	}

	previous := r.Image
	r.Image = stored.Name
	r.ImageBlurHash = stored.BlurHash
	r.Touch()

	if err := s.store.UpdateRecipe(ctx, r); err != nil {
		s.removeImage(stored.Name)
		return nil, recipeError(err)
	}

	s.removeImage(previous)
	metrics.ImageUploaded()
	s.search.upsert(r)

	s.logger.Info("Recipe image uploaded", "recipe_id", id, "image", stored.Name, "size", len(data))
	return r, nil
}

// Search runs a full-text query over the user's recipes.
func (s *RecipeService) Search(ctx context.Context, params search.Params) (*SearchResults, error) {
	if s.index == nil {
		return nil, domainerrors.Internal("search is not available")
	}

	res, err := s.index.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search recipes: %w", err)
	}

	ids := make([]int64, len(res.Hits))
	for i, h := range res.Hits {
		ids[i] = h.RecipeID
	}

	recipes, err := s.store.GetRecipesByIDs(ctx, params.UserID, ids)
	if err != nil {
		return nil, fmt.Errorf("load search hits: %w", err)
	}
	if len(recipes) != len(ids) {
		s.logger.Debug("search index is ahead of the database",
			"hits", len(ids), "found", len(recipes))
	}

	return &SearchResults{Total: res.Total, Recipes: recipes, Tags: res.Tags}, nil
}

// Reindex rebuilds the search index from the database and returns the
// number of recipes indexed.
func (s *RecipeService) Reindex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, domainerrors.Internal("search is not available")
	}

	if err := s.index.Rebuild(); err != nil {
		return 0, fmt.Errorf("rebuild index: %w", err)
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	total := 0
	for _, u := range users {
		recipes, err := s.store.ListRecipes(ctx, u.ID, store.RecipeFilter{})
		if err != nil {
			return total, fmt.Errorf("list recipes for %s: %w", u.ID, err)
		}
		if err := s.index.IndexRecipes(recipes); err != nil {
			return total, fmt.Errorf("index recipes for %s: %w", u.ID, err)
		}
		total += len(recipes)
	}

	s.logger.Info("Search index rebuilt", "users", len(users), "recipes", total)
	return total, nil
}

// BackfillBlurHashes computes placeholders for stored images that lack one.
func (s *RecipeService) BackfillBlurHashes(ctx context.Context) (int, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	updated := 0
	for _, u := range users {
		recipes, err := s.store.ListRecipes(ctx, u.ID, store.RecipeFilter{})
		if err != nil {
			return updated, fmt.Errorf("list recipes for %s: %w", u.ID, err)
		}
		for _, r := range recipes {
			if !r.HasImage() || r.ImageBlurHash != "" {
				continue
			}
			path, err := s.images.Storage().Path(r.Image)
			if err != nil {
				continue
			}
			hash, err := images.ComputeBlurHash(path)
			if err != nil {
				s.logger.Warn("failed to compute blurhash", "recipe_id", r.ID, "error", err)
				continue
			}
			r.ImageBlurHash = hash
			if err := s.store.UpdateRecipe(ctx, r); err != nil {
				return updated, fmt.Errorf("update recipe %d: %w", r.ID, err)
			}
			updated++
		}
	}
	return updated, nil
}

func (s *RecipeService) removeImage(name string) {
	if name == "" {
		return
	}
	if err := s.images.Storage().Delete(name); err != nil {
		s.logger.Warn("failed to delete recipe image", "image", name, "error", err)
	}
}

// applyInput copies the present scalar fields of in onto r. in must
// already be validated.
func applyInput(r *domain.Recipe, in RecipeInput) error {
	if in.Title != nil {
		r.Title = *in.Title
	}
	if in.TimeMinutes != nil {
		r.TimeMinutes = *in.TimeMinutes
	}
	if in.Price != nil {
		price, err := domain.ParsePrice(string(*in.Price))
		if err != nil {
			return domainerrors.ValidationField("price", err.Error())
		}
		r.Price = price
	}
	if in.Link != nil {
		r.Link = *in.Link
	}
	if in.Description != nil {
		r.Description = *in.Description
	}
	return nil
}

// syncNested replaces the recipe's tags and ingredients for each
// collection present in in. It returns the kind of every attribute row
// it had to create.
func syncNested(ctx context.Context, tx store.Store, userID string, recipeID int64, in RecipeInput) ([]domain.AttributeKind, error) {
	var created []domain.AttributeKind

	for _, nested := range []struct {
		kind   domain.AttributeKind
		inputs *[]NameInput
	}{
		{domain.KindTag, in.Tags},
		{domain.KindIngredient, in.Ingredients},
	} {
		if nested.inputs == nil {
			continue
		}

		names := uniqueNames(*nested.inputs)
		ids := make([]int64, 0, len(names))
		for _, name := range names {
			attr, isNew, err := tx.GetOrCreateAttribute(ctx, nested.kind, userID, name)
			if err != nil {
				return nil, fmt.Errorf("get or create %s %q: %w", nested.kind, name, err)
			}
			if isNew {
				created = append(created, nested.kind)
			}
			ids = append(ids, attr.ID)
		}

		if err := tx.SetRecipeAttributes(ctx, nested.kind, recipeID, ids); err != nil {
			return nil, fmt.Errorf("set recipe %ss: %w", nested.kind, err)
		}
	}

	return created, nil
}

func recordCreated(kinds []domain.AttributeKind) {
	for _, k := range kinds {
		metrics.AttributeCreated(string(k))
	}
}

// recipeError maps store.ErrNotFound to a domain not-found error; other
// errors pass through.
func recipeError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return domainerrors.NotFound("recipe not found")
	}
	return err
}
