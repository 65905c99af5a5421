package sqlite

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/recipebox/recipebox-server/internal/domain"
	"github.com/recipebox/recipebox-server/internal/store"
)

// recipeColumns must match the scan order in scanRecipe.
const recipeColumns = `r.id, r.user_id, r.title, r.time_minutes, r.price_cents, r.link,
	r.description, r.image, r.image_blur_hash, r.created_at, r.updated_at`

func scanRecipe(row scanner) (*domain.Recipe, error) {
	var (
		r         domain.Recipe
		price     int64
		createdAt string
		updatedAt string
	)

	err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.Title,
		&r.TimeMinutes,
		&price,
		&r.Link,
		&r.Description,
		&r.Image,
		&r.ImageBlurHash,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Price = domain.Price(price)
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &r, nil
}

// CreateRecipe inserts the recipe row and sets recipe.ID. Links are
// written separately with SetRecipeAttributes.
func (s *Store) CreateRecipe(ctx context.Context, r *domain.Recipe) error {
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO recipes (user_id, title, time_minutes, price_cents, link,
			description, image, image_blur_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.UserID,
		r.Title,
		r.TimeMinutes,
		r.Price.Cents(),
		r.Link,
		r.Description,
		r.Image,
		r.ImageBlurHash,
		formatTime(r.CreatedAt),
		formatTime(r.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert recipe: %w", err)
	}

	if r.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("read recipe id: %w", err)
	}
	return nil
}

// GetRecipe returns one of the user's recipes with its attributes.
func (s *Store) GetRecipe(ctx context.Context, userID string, id int64) (*domain.Recipe, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes r WHERE r.id = ? AND r.user_id = ?`, id, userID)
	r, err := scanRecipe(row)
	if err != nil {
		return nil, notFound(err, "recipe not found")
	}

	if err := s.loadAttributes(ctx, []*domain.Recipe{r}); err != nil {
		return nil, err
	}
	return r, nil
}

// GetRecipesByIDs returns the user's recipes among ids, in the order given.
// IDs that do not exist or belong to someone else are skipped.
func (s *Store) GetRecipesByIDs(ctx context.Context, userID string, ids []int64) ([]*domain.Recipe, error) {
	if len(ids) == 0 {
		return []*domain.Recipe{}, nil
	}

	found, err := s.collectRecipes(ctx, s.psql.
		Select(recipeColumns).
		From("recipes r").
		Where(sq.Eq{"r.id": ids, "r.user_id": userID}))
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*domain.Recipe, len(found))
	for _, r := range found {
		byID[r.ID] = r
	}
	ordered := make([]*domain.Recipe, 0, len(found))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			ordered = append(ordered, r)
			delete(byID, id)
		}
	}
	return ordered, nil
}

// buildRecipeListQuery selects the user's recipes newest first. Tag and
// ingredient filters inner-join their link tables with IN, and DISTINCT
// keeps a recipe matching several IDs from appearing more than once.
func (s *Store) buildRecipeListQuery(userID string, filter store.RecipeFilter) sq.SelectBuilder {
	b := s.psql.
		Select(recipeColumns).
		Distinct().
		From("recipes r").
		Where(sq.Eq{"r.user_id": userID}).
		OrderBy("r.id DESC")

	if len(filter.TagIDs) > 0 {
		b = b.Join("recipe_tags rt ON rt.recipe_id = r.id").
			Where(sq.Eq{"rt.tag_id": filter.TagIDs})
	}
	if len(filter.IngredientIDs) > 0 {
		b = b.Join("recipe_ingredients ri ON ri.recipe_id = r.id").
			Where(sq.Eq{"ri.ingredient_id": filter.IngredientIDs})
	}
	return b
}

// ListRecipes returns the user's recipes matching filter, by ID descending.
func (s *Store) ListRecipes(ctx context.Context, userID string, filter store.RecipeFilter) ([]*domain.Recipe, error) {
	return s.collectRecipes(ctx, s.buildRecipeListQuery(userID, filter))
}

func (s *Store) collectRecipes(ctx context.Context, b sq.SelectBuilder) ([]*domain.Recipe, error) {
	rows, err := s.query(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("query recipes: %w", err)
	}
	defer rows.Close()

	recipes := []*domain.Recipe{}
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Release the connection before issuing the attribute queries.
	rows.Close()

	if err := s.loadAttributes(ctx, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// UpdateRecipe writes every scalar column of the recipe.
func (s *Store) UpdateRecipe(ctx context.Context, r *domain.Recipe) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE recipes SET title = ?, time_minutes = ?, price_cents = ?, link = ?,
			description = ?, image = ?, image_blur_hash = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		r.Title,
		r.TimeMinutes,
		r.Price.Cents(),
		r.Link,
		r.Description,
		r.Image,
		r.ImageBlurHash,
		formatTime(r.UpdatedAt),
		r.ID,
		r.UserID,
	)
	if err != nil {
		return fmt.Errorf("update recipe: %w", err)
	}
	return requireAffected(res, "recipe not found")
}

// DeleteRecipe deletes the recipe; its tag and ingredient links cascade.
func (s *Store) DeleteRecipe(ctx context.Context, userID string, id int64) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM recipes WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	return requireAffected(res, "recipe not found")
}
