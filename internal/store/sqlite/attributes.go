package sqlite

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/recipebox/recipebox-server/internal/domain"
	"github.com/recipebox/recipebox-server/internal/store"
)

// attributeTable names the storage of one attribute kind.
type attributeTable struct {
	table string // tags | ingredients
	join  string // recipe_tags | recipe_ingredients
	fk    string // join column referencing table.id
}

var attributeTables = map[domain.AttributeKind]attributeTable{
	domain.KindTag:        {table: "tags", join: "recipe_tags", fk: "tag_id"},
	domain.KindIngredient: {table: "ingredients", join: "recipe_ingredients", fk: "ingredient_id"},
}

func tableFor(kind domain.AttributeKind) (attributeTable, error) {
	t, ok := attributeTables[kind]
	if !ok {
		return attributeTable{}, store.ErrInvalidInput.WithMessage(fmt.Sprintf("unknown attribute kind %q", kind))
	}
	return t, nil
}

const attributeColumns = `a.id, a.user_id, a.name, a.created_at`

func scanAttribute(row scanner, kind domain.AttributeKind) (*domain.Attribute, error) {
	var (
		a         = domain.Attribute{Kind: kind}
		createdAt string
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.Name, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &a, nil
}

// GetOrCreateAttribute returns the user's attribute named name, inserting it
// first when missing. created reports whether this call inserted the row.
// The insert and the read are race-free: a concurrent insert of the same
// (user, name) loses on the UNIQUE constraint and both callers read one row.
func (s *Store) GetOrCreateAttribute(ctx context.Context, kind domain.AttributeKind, userID, name string) (*domain.Attribute, bool, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, false, err
	}

	res, err := s.q.ExecContext(ctx, `
		INSERT INTO `+t.table+` (user_id, name, created_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id, name) DO NOTHING`,
		userID, name, formatTime(time.Now()),
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert %s: %w", kind, err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}

	row := s.q.QueryRowContext(ctx,
		`SELECT `+attributeColumns+` FROM `+t.table+` a WHERE a.user_id = ? AND a.name = ?`,
		userID, name)
	attr, err := scanAttribute(row, kind)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", kind, err)
	}

	return attr, inserted == 1, nil
}

// GetAttribute returns the user's attribute with the given ID.
func (s *Store) GetAttribute(ctx context.Context, kind domain.AttributeKind, userID string, id int64) (*domain.Attribute, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	row := s.q.QueryRowContext(ctx,
		`SELECT `+attributeColumns+` FROM `+t.table+` a WHERE a.id = ? AND a.user_id = ?`,
		id, userID)
	attr, err := scanAttribute(row, kind)
	if err != nil {
		return nil, notFound(err, kind.Label()+" not found")
	}
	return attr, nil
}

// buildAttributeListQuery selects the user's attributes by name descending.
// AssignedOnly inner-joins the link table, so DISTINCT collapses attributes
// used by several recipes into one row.
func (s *Store) buildAttributeListQuery(t attributeTable, userID string, filter store.AttributeFilter) sq.SelectBuilder {
	b := s.psql.
		Select(attributeColumns).
		Distinct().
		From(t.table + " a").
		Where(sq.Eq{"a.user_id": userID}).
		OrderBy("a.name DESC", "a.id DESC")

	if filter.AssignedOnly {
		b = b.Join(t.join + " j ON j." + t.fk + " = a.id")
	}
	return b
}

// ListAttributes returns the user's attributes of kind.
func (s *Store) ListAttributes(ctx context.Context, kind domain.AttributeKind, userID string, filter store.AttributeFilter) ([]*domain.Attribute, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	rows, err := s.query(ctx, s.buildAttributeListQuery(t, userID, filter))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.table, err)
	}
	defer rows.Close()

	attrs := []*domain.Attribute{}
	for rows.Next() {
		a, err := scanAttribute(rows, kind)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		attrs = append(attrs, a)
	}
	return attrs, rows.Err()
}

// UpdateAttribute renames an attribute. Returns store.ErrAlreadyExists when
// the user already owns another attribute with the new name.
func (s *Store) UpdateAttribute(ctx context.Context, attr *domain.Attribute) error {
	t, err := tableFor(attr.Kind)
	if err != nil {
		return err
	}

	res, err := s.q.ExecContext(ctx,
		`UPDATE `+t.table+` SET name = ? WHERE id = ? AND user_id = ?`,
		attr.Name, attr.ID, attr.UserID)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithMessage(attr.Kind.Label() + " with this name already exists")
	}
	if err != nil {
		return fmt.Errorf("update %s: %w", attr.Kind, err)
	}
	return requireAffected(res, attr.Kind.Label()+" not found")
}

// DeleteAttribute deletes the attribute; its recipe links cascade.
func (s *Store) DeleteAttribute(ctx context.Context, kind domain.AttributeKind, userID string, id int64) error {
	t, err := tableFor(kind)
	if err != nil {
		return err
	}

	res, err := s.q.ExecContext(ctx, `DELETE FROM `+t.table+` WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	return requireAffected(res, kind.Label()+" not found")
}

// SetRecipeAttributes replaces all links of kind for a recipe. Duplicate IDs
// collapse into a single link.
func (s *Store) SetRecipeAttributes(ctx context.Context, kind domain.AttributeKind, recipeID int64, attrIDs []int64) error {
	t, err := tableFor(kind)
	if err != nil {
		return err
	}

	return s.runInTx(ctx, func(tx *Store) error {
		if _, err := tx.q.ExecContext(ctx, `DELETE FROM `+t.join+` WHERE recipe_id = ?`, recipeID); err != nil {
			return fmt.Errorf("clear %s: %w", t.join, err)
		}

		for _, attrID := range attrIDs {
			_, err := tx.q.ExecContext(ctx,
				`INSERT OR IGNORE INTO `+t.join+` (recipe_id, `+t.fk+`) VALUES (?, ?)`,
				recipeID, attrID)
			if err != nil {
				return fmt.Errorf("link %s: %w", kind, err)
			}
		}
		return nil
	})
}

// RecipeIDsWithAttribute returns IDs of the user's recipes linked to attrID.
func (s *Store) RecipeIDsWithAttribute(ctx context.Context, kind domain.AttributeKind, userID string, attrID int64) ([]int64, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	rows, err := s.query(ctx, s.psql.
		Select("j.recipe_id").
		From(t.join+" j").
		Join("recipes r ON r.id = j.recipe_id").
		Where(sq.Eq{"j." + t.fk: attrID, "r.user_id": userID}).
		OrderBy("j.recipe_id"))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.join, err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// loadAttributes fills Tags and Ingredients for recipes with two batched
// queries, one per kind.
func (s *Store) loadAttributes(ctx context.Context, recipes []*domain.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}

	byID := make(map[int64]*domain.Recipe, len(recipes))
	ids := make([]int64, 0, len(recipes))
	for _, r := range recipes {
		r.Tags = []domain.Attribute{}
		r.Ingredients = []domain.Attribute{}
		byID[r.ID] = r
		ids = append(ids, r.ID)
	}

	for _, kind := range []domain.AttributeKind{domain.KindTag, domain.KindIngredient} {
		t := attributeTables[kind]

		rows, err := s.query(ctx, s.psql.
			Select("j.recipe_id", attributeColumns).
			From(t.join+" j").
			Join(t.table+" a ON a.id = j."+t.fk).
			Where(sq.Eq{"j.recipe_id": ids}).
			OrderBy("a.id"))
		if err != nil {
			return fmt.Errorf("query %s: %w", t.join, err)
		}

		for rows.Next() {
			var recipeID int64
			a := domain.Attribute{Kind: kind}
			var createdAt string
			if err := rows.Scan(&recipeID, &a.ID, &a.UserID, &a.Name, &createdAt); err != nil {
				rows.Close()
				return fmt.Errorf("scan %s: %w", kind, err)
			}
			if a.CreatedAt, err = parseTime(createdAt); err != nil {
				rows.Close()
				return fmt.Errorf("parse created_at: %w", err)
			}

			r := byID[recipeID]
			if kind == domain.KindTag {
				r.Tags = append(r.Tags, a)
			} else {
				r.Ingredients = append(r.Ingredients, a)
			}
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return err
		}
	}

	return nil
}
