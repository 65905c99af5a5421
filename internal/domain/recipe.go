package domain

import "time"

// Recipe is a user-owned recipe with its attached tags and ingredients.
type Recipe struct {
	ID            int64
	UserID        string
	Title         string
	TimeMinutes   int
	Price         Price
	Link          string
	Description   string
	Image         string // path relative to the image store, empty when unset
	ImageBlurHash string
	Tags          []Attribute
	Ingredients   []Attribute
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Touch updates the UpdatedAt timestamp.
func (r *Recipe) Touch() {
	r.UpdatedAt = time.Now()
}

// HasImage reports whether an image has been uploaded for the recipe.
func (r *Recipe) HasImage() bool {
	return r.Image != ""
}

// AttributeNames returns the names of the attributes of the given kind.
func (r *Recipe) AttributeNames(kind AttributeKind) []string {
	attrs := r.Tags
	if kind == KindIngredient {
		attrs = r.Ingredients
	}
	names := make([]string, len(attrs))
	for i, a := range attrs {
		names[i] = a.Name
	}
	return names
}
