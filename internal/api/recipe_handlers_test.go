package api

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRecipe_WithNestedAttributes(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, token := ts.createUser(t, "chef@example.com")

	resp := ts.api.Post("/api/v1/recipes", bearer(token), map[string]any{
		"title":        "Thai prawn curry",
		"time_minutes": 30,
		"price":        "12.5",
		"link":         "https://example.com/curry",
		"description":  "Spicy",
		"tags":         []map[string]string{{"name": "Thai"}, {"name": "Dinner"}},
		"ingredients":  []map[string]string{{"name": "Prawns"}, {"name": "Coconut milk"}},
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	envelope := decodeEnvelope[RecipeDetail](t, resp)
	assert.True(t, envelope.Success)

	r := envelope.Data
	assert.NotZero(t, r.ID)
	assert.Equal(t, "Thai prawn curry", r.Title)
	assert.Equal(t, 30, r.TimeMinutes)
	assert.Equal(t, "12.50", r.Price)
	assert.Equal(t, "https://example.com/curry", r.Link)
	assert.Equal(t, "Spicy", r.Description)
	assert.Nil(t, r.Image)
	assert.Equal(t, []string{"Thai", "Dinner"}, attributeNames(r.Tags))
	assert.Equal(t, []string{"Prawns", "Coconut milk"}, attributeNames(r.Ingredients))
}

func TestCreateRecipe_ImageIsNullInJSON(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, token := ts.createUser(t, "chef@example.com")

	resp := ts.api.Post("/api/v1/recipes", bearer(token), sampleRecipe("Toast"))
	require.Equal(t, http.StatusCreated, resp.Code)

	envelope := decodeEnvelope[map[string]any](t, resp)
	assert.Contains(t, envelope.Data, "image")
	assert.Nil(t, envelope.Data["image"])
}

func TestCreateRecipe_ReusesExistingTag(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, token := ts.createUser(t, "chef@example.com")

	first := ts.createRecipe(t, token, sampleRecipe("Soup", "Vegan"))
	second := ts.createRecipe(t, token, sampleRecipe("Salad", "Vegan"))

	require.Len(t, first.Tags, 1)
	require.Len(t, second.Tags, 1)
	assert.Equal(t, first.Tags[0].ID, second.Tags[0].ID)

	resp := ts.api.Get("/api/v1/tags", bearer(token))
	assert.Len(t, decodeEnvelope[[]AttributeResponse](t, resp).Data, 1)
}

func TestCreateRecipe_Validation(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, token := ts.createUser(t, "chef@example.com")

	tests := []struct {
		name   string
		body   map[string]any
		fields []string
	}{
		{"missing required", map[string]any{}, []string{"title", "time_minutes", "price"}},
		{"negative time", map[string]any{"title": "x", "time_minutes": -1, "price": "1.00"}, []string{"time_minutes"}},
		{"bad price", map[string]any{"title": "x", "time_minutes": 1, "price": "1.234"}, []string{"price"}},
		{"bad link", map[string]any{"title": "x", "time_minutes": 1, "price": "1.00", "link": strings.Repeat("a", 256)}, []string{"link"}},
		{"blank tag", map[string]any{"title": "x", "time_minutes": 1, "price": "1.00", "tags": []map[string]string{{"name": " "}}}, []string{"tags[0].name"}},
		{"tag without name", map[string]any{"title": "x", "time_minutes": 1, "price": "1.00", "tags": []map[string]string{{}}}, []string{"tags[0].name"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/v1/recipes", bearer(token), tt.body)
			require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())

			envelope := decodeEnvelope[any](t, resp)
			assert.Equal(t, "VALIDATION_ERROR", envelope.Code)
			for _, f := range tt.fields {
				assert.Contains(t, envelope.Details, f)
			}
		})
	}
}

func TestCreateRecipe_PriceAndLinkForms(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, token := ts.createUser(t, "chef@example.com")

	tests := []struct {
		name  string
		price any
		link  string
		want  string
	}{
		{"string price", "5.25", "", "5.25"},
		{"number price", 5.25, "", "5.25"},
		{"integer price", 7, "not a url at all", "7.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/v1/recipes", bearer(token), map[string]any{
				"title":        "Toast",
				"time_minutes": 2,
				"price":        tt.price,
				"link":         tt.link,
			})
			require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

			r := decodeEnvelope[RecipeDetail](t, resp).Data
			assert.Equal(t, tt.want, r.Price)
			assert.Equal(t, tt.link, r.Link)
		})
	}
}

func TestCreateRecipe_PriceWrongType(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, token := ts.createUser(t, "chef@example.com")

	resp := ts.api.Post("/api/v1/recipes", bearer(token), map[string]any{
		"title": "Toast", "time_minutes": 2, "price": true,
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, decodeEnvelope[any](t, resp).Details, "price")
}

func TestRecipes_RequireAuth(t *testing.T) {
	ts := setupTestServer(t, Options{})

	for _, path := range []string{"/api/v1/recipes", "/api/v1/recipes/1", "/api/v1/tags", "/api/v1/ingredients"} {
		resp := ts.api.Get(path)
		assert.Equal(t, http.StatusUnauthorized, resp.Code, path)
	}
}

func TestListRecipes_ScopedAndNewestFirst(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, token := ts.createUser(t, "chef@example.com")
	_, otherToken := ts.createUser(t, "other@example.com")

	older := ts.createRecipe(t, token, sampleRecipe("Older"))
	newer := ts.createRecipe(t, token, sampleRecipe("Newer"))
	ts.createRecipe(t, otherToken, sampleRecipe("Not mine"))

	resp := ts.api.Get("/api/v1/recipes", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code)

	list := decodeEnvelope[[]RecipeSummary](t, resp).Data
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)
}

func TestListRecipes_FilterByTags(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, token := ts.createUser(t, "chef@example.com")

	both := ts.createRecipe(t, token, sampleRecipe("Both", "Vegan", "Quick"))
	vegan := ts.createRecipe(t, token, sampleRecipe("Vegan only", "Vegan"))
	ts.createRecipe(t, token, sampleRecipe("Untagged"))

	veganID, quickID := both.Tags[0].ID, both.Tags[1].ID

	resp := ts.api.Get(fmt.Sprintf("/api/v1/recipes?tags=%d,%d", veganID, quickID), bearer(token))
	require.Equal(t, http.StatusOK, resp.Code)

	list := decodeEnvelope[[]RecipeSummary](t, resp).Data
	require.Len(t, list, 2, "a recipe matching both tags appears once")
	assert.Equal(t, vegan.ID, list[0].ID)
	assert.Equal(t, both.ID, list[1].ID)

	resp = ts.api.Get(fmt.Sprintf("/api/v1/recipes?tags=%d", quickID), bearer(token))
	list = decodeEnvelope[[]RecipeSummary](t, resp).Data
	require.Len(t, list, 1)
	assert.Equal(t, both.ID, list[0].ID)
}

func TestListRecipes_FilterByIngredients(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, token := ts.createUser(t, "chef@example.com")

	body := sampleRecipe("Omelette")
	body["ingredients"] = []map[string]string{{"name": "Eggs"}}
	omelette := ts.createRecipe(t, token, body)
	ts.createRecipe(t, token, sampleRecipe("Toast"))

	resp := ts.api.Get(fmt.Sprintf("/api/v1/recipes?ingredients=%d", omelette.Ingredients[0].ID), bearer(token))
	list := decodeEnvelope[[]RecipeSummary](t, resp).Data
	require.Len(t, list, 1)
	assert.Equal(t, omelette.ID, list[0].ID)
}

func TestListRecipes_InvalidFilter(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, token := ts.createUser(t, "chef@example.com")

	resp := ts.api.Get("/api/v1/recipes?tags=1,abc", bearer(token))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, decodeEnvelope[any](t, resp).Details, "tags")
}

func TestGetRecipe_OtherUsersRecipeIsNotFound(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, token := ts.createUser(t, "chef@example.com")
	_, otherToken := ts.createUser(t, "other@example.com")

	r := ts.createRecipe(t, otherToken, sampleRecipe("Secret"))
	path := fmt.Sprintf("/api/v1/recipes/%d", r.ID)

	assert.Equal(t, http.StatusNotFound, ts.api.Get(path, bearer(token)).Code)
	assert.Equal(t, http.StatusNotFound, ts.api.Patch(path, bearer(token), map[string]any{"title": "Mine"}).Code)
	assert.Equal(t, http.StatusNotFound, ts.api.Delete(path, bearer(token)).Code)

	resp := ts.api.Get(path, bearer(otherToken))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Secret", decodeEnvelope[RecipeDetail](t, resp).Data.Title)
}

func TestUpdateRecipe_PatchKeepsAbsentCollections(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, token := ts.createUser(t, "chef@example.com")

	r := ts.createRecipe(t, token, sampleRecipe("Soup", "Vegan"))
	path := fmt.Sprintf("/api/v1/recipes/%d", r.ID)

	resp := ts.api.Patch(path, bearer(token), map[string]any{"title": "Better soup"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	updated := decodeEnvelope[RecipeDetail](t, resp).Data
	assert.Equal(t, "Better soup", updated.Title)
	assert.Equal(t, "5.00", updated.Price)
	assert.Equal(t, []string{"Vegan"}, attributeNames(updated.Tags))
}

func TestUpdateRecipe_EmptyListClears(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, token := ts.createUser(t, "chef@example.com")

	r := ts.createRecipe(t, token, sampleRecipe("Soup", "Vegan"))
	path := fmt.Sprintf("/api/v1/recipes/%d", r.ID)

	resp := ts.api.Patch(path, bearer(token), map[string]any{"tags": []any{}})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Empty(t, decodeEnvelope[RecipeDetail](t, resp).Data.Tags)

	// The tag itself survives.
	resp = ts.api.Get("/api/v1/tags", bearer(token))
	assert.Len(t, decodeEnvelope[[]AttributeResponse](t, resp).Data, 1)
}

func TestUpdateRecipe_PatchReplacesTags(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, token := ts.createUser(t, "chef@example.com")

	r := ts.createRecipe(t, token, sampleRecipe("Soup", "Vegan"))
	path := fmt.Sprintf("/api/v1/recipes/%d", r.ID)

	resp := ts.api.Patch(path, bearer(token), map[string]any{
		"tags": []map[string]any{{"id": 99, "name": "Winter"}},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, []string{"Winter"}, attributeNames(decodeEnvelope[RecipeDetail](t, resp).Data.Tags))
}

func TestUpdateRecipe_PutRequiresFields(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, token := ts.createUser(t, "chef@example.com")

	r := ts.createRecipe(t, token, sampleRecipe("Soup"))
	path := fmt.Sprintf("/api/v1/recipes/%d", r.ID)

	resp := ts.api.Put(path, bearer(token), map[string]any{"title": "Only a title"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	details := decodeEnvelope[any](t, resp).Details
	assert.Contains(t, details, "time_minutes")
	assert.Contains(t, details, "price")
	assert.NotContains(t, details, "title")
}

func TestUpdateRecipe_Put(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, token := ts.createUser(t, "chef@example.com")

	r := ts.createRecipe(t, token, sampleRecipe("Soup", "Vegan"))
	path := fmt.Sprintf("/api/v1/recipes/%d", r.ID)

	resp := ts.api.Put(path, bearer(token), map[string]any{
		"id":           r.ID,
		"title":        "Stew",
		"time_minutes": 90,
		"price":        "8.25",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	updated := decodeEnvelope[RecipeDetail](t, resp).Data
	assert.Equal(t, "Stew", updated.Title)
	assert.Equal(t, 90, updated.TimeMinutes)
	assert.Equal(t, "8.25", updated.Price)
	assert.Equal(t, []string{"Vegan"}, attributeNames(updated.Tags), "absent tags are left alone on PUT too")
}

func TestDeleteRecipe(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, token := ts.createUser(t, "chef@example.com")

	r := ts.createRecipe(t, token, sampleRecipe("Soup"))
	path := fmt.Sprintf("/api/v1/recipes/%d", r.ID)

	resp := ts.api.Delete(path, bearer(token))
	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, http.StatusNotFound, ts.api.Get(path, bearer(token)).Code)
}

func TestSearchRecipes(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, token := ts.createUser(t, "chef@example.com")
	_, otherToken := ts.createUser(t, "other@example.com")

	curry := ts.createRecipe(t, token, sampleRecipe("Green curry", "Thai"))
	ts.createRecipe(t, token, sampleRecipe("Pancakes"))
	ts.createRecipe(t, otherToken, sampleRecipe("Red curry"))

	resp := ts.api.Get("/api/v1/recipes/search?q=curry", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	results := decodeEnvelope[SearchRecipesResponse](t, resp).Data
	assert.Equal(t, uint64(1), results.Total)
	require.Len(t, results.Recipes, 1)
	assert.Equal(t, curry.ID, results.Recipes[0].ID)
}

func TestSearchRecipes_RequiresQuery(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, token := ts.createUser(t, "chef@example.com")

	resp := ts.api.Get("/api/v1/recipes/search", bearer(token))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, decodeEnvelope[any](t, resp).Details, "q")
}
