// Package search provides full-text recipe search using Bleve.
// Every document carries its owner's user ID and every query is
// restricted to one user, so the index never leaks across accounts.
package search

import (
	"strconv"

	"github.com/recipebox/recipebox-server/internal/domain"
)

// RecipeDocument is the indexed form of a recipe.
//
// Tag and ingredient names are denormalized into the document so one
// query can match any of them.
type RecipeDocument struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Ingredients []string `json:"ingredients,omitempty"`
	TimeMinutes int      `json:"time_minutes"`
	UpdatedAt   int64    `json:"updated_at"` // Unix millis
}

// ToMap converts the document to a map keyed by the mapping's field names.
func (d *RecipeDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":           d.ID,
		"user_id":      d.UserID,
		"title":        d.Title,
		"time_minutes": d.TimeMinutes,
		"updated_at":   d.UpdatedAt,
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	if len(d.Ingredients) > 0 {
		m["ingredients"] = d.Ingredients
	}
	return m
}

// DocumentID returns the index key for a recipe ID.
func DocumentID(recipeID int64) string {
	return strconv.FormatInt(recipeID, 10)
}

// FromRecipe builds a search document from a recipe with its attributes loaded.
func FromRecipe(r *domain.Recipe) *RecipeDocument {
	return &RecipeDocument{
		ID:          DocumentID(r.ID),
		UserID:      r.UserID,
		Title:       r.Title,
		Description: r.Description,
		Tags:        r.AttributeNames(domain.KindTag),
		Ingredients: r.AttributeNames(domain.KindIngredient),
		TimeMinutes: r.TimeMinutes,
		UpdatedAt:   r.UpdatedAt.UnixMilli(),
	}
}
