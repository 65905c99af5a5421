package domain

import "time"

// AttributeKind distinguishes the two recipe attribute tables.
type AttributeKind string

const (
	// KindTag is a free-form label such as "vegan" or "dessert".
	KindTag AttributeKind = "tag"
	// KindIngredient is something that goes into a recipe.
	KindIngredient AttributeKind = "ingredient"
)

// Label returns the human-readable singular name of the kind.
func (k AttributeKind) Label() string {
	return string(k)
}

// Attribute is a Tag or an Ingredient. Both are user-owned named rows,
// unique per (user, name), reused across recipes and attached many-to-many.
type Attribute struct {
	ID        int64         `json:"id"`
	Kind      AttributeKind `json:"-"`
	UserID    string        `json:"-"`
	Name      string        `json:"name"`
	CreatedAt time.Time     `json:"created_at"`
}
