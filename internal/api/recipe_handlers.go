package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/recipebox/recipebox-server/internal/domain"
	"github.com/recipebox/recipebox-server/internal/search"
	"github.com/recipebox/recipebox-server/internal/service"
	"github.com/recipebox/recipebox-server/internal/store"
)

func (s *Server) registerRecipeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listRecipes",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes",
		Summary:     "List recipes",
		Description: "Returns the current user's recipes, newest first, optionally filtered by tag and ingredient IDs",
		Tags:        []string{"Recipes"},
		Security:    bearerSecurity,
	}, s.handleListRecipes)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createRecipe",
		Method:        http.MethodPost,
		Path:          "/api/v1/recipes",
		Summary:       "Create recipe",
		Description:   "Creates a recipe; nested tags and ingredients are matched by name and created when new",
		Tags:          []string{"Recipes"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchRecipes",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes/search",
		Summary:     "Search recipes",
		Description: "Full-text search over title, description, tags and ingredients",
		Tags:        []string{"Recipes"},
		Security:    bearerSecurity,
	}, s.handleSearchRecipes)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRecipe",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Get recipe",
		Tags:        []string{"Recipes"},
		Security:    bearerSecurity,
	}, s.handleGetRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "replaceRecipe",
		Method:      http.MethodPut,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Update recipe",
		Description: "Full update; title, time_minutes and price are required",
		Tags:        []string{"Recipes"},
		Security:    bearerSecurity,
	}, s.handleReplaceRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateRecipe",
		Method:      http.MethodPatch,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Partially update recipe",
		Description: "Only the fields present are changed. A present tags or ingredients list replaces the current one",
		Tags:        []string{"Recipes"},
		Security:    bearerSecurity,
	}, s.handleUpdateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteRecipe",
		Method:        http.MethodDelete,
		Path:          "/api/v1/recipes/{id}",
		Summary:       "Delete recipe",
		Tags:          []string{"Recipes"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteRecipe)
}

// === DTOs ===

// AttributeResponse is a tag or ingredient.
type AttributeResponse struct {
	ID   int64  `json:"id" doc:"ID"`
	Name string `json:"name" doc:"Name"`
}

// RecipeSummary is a recipe as it appears in lists.
type RecipeSummary struct {
	ID          int64               `json:"id" doc:"Recipe ID"`
	Title       string              `json:"title" doc:"Title"`
	TimeMinutes int                 `json:"time_minutes" doc:"Preparation time in minutes"`
	Price       string              `json:"price" doc:"Price with two decimals" example:"5.50"`
	Link        string              `json:"link" doc:"External link"`
	Tags        []AttributeResponse `json:"tags" doc:"Tags, in the order they were first created"`
	Ingredients []AttributeResponse `json:"ingredients" doc:"Ingredients, in the order they were first created"`
}

// RecipeDetail is a single recipe.
type RecipeDetail struct {
	RecipeSummary
	Description   string  `json:"description" doc:"Description"`
	Image         *string `json:"image" nullable:"true" doc:"Image URL, null when none was uploaded"`
	ImageBlurHash string  `json:"image_blur_hash,omitempty" doc:"BlurHash placeholder for the image"`
}

// ListRecipesInput contains filters for listing recipes.
type ListRecipesInput struct {
	Tags        string `query:"tags" doc:"Comma separated tag IDs; a recipe matches if it has any of them" example:"1,3"`
	Ingredients string `query:"ingredients" doc:"Comma separated ingredient IDs; a recipe matches if it has any of them"`
}

// ListRecipesOutput wraps a recipe list for Huma.
type ListRecipesOutput struct {
	Body []RecipeSummary
}

// RecipeIDInput addresses one recipe.
type RecipeIDInput struct {
	ID int64 `path:"id" doc:"Recipe ID"`
}

// CreateRecipeInput wraps the create request for Huma.
type CreateRecipeInput struct {
	Body service.RecipeInput
}

// UpdateRecipeInput wraps the update request for Huma.
type UpdateRecipeInput struct {
	ID   int64 `path:"id" doc:"Recipe ID"`
	Body service.RecipeInput
}

// RecipeOutput wraps a recipe for Huma.
type RecipeOutput struct {
	Body RecipeDetail
}

// SearchRecipesInput contains search parameters.
type SearchRecipesInput struct {
	Query   string `query:"q" required:"true" minLength:"1" maxLength:"200" doc:"Search text"`
	MaxTime int    `query:"max_time" minimum:"0" doc:"Only recipes taking at most this many minutes"`
	Sort    string `query:"sort" enum:"relevance,recent,quickest" default:"relevance" doc:"Result order"`
	Limit   int    `query:"limit" minimum:"1" maximum:"100" default:"20" doc:"Maximum hits"`
	Offset  int    `query:"offset" minimum:"0" doc:"Hits to skip"`
}

// SearchRecipesResponse holds search hits, best first.
type SearchRecipesResponse struct {
	Total   uint64              `json:"total" doc:"Total matching recipes"`
	Recipes []RecipeSummary     `json:"recipes" doc:"Matching recipes"`
	Tags    []search.FacetCount `json:"tags" doc:"Tag counts over all matches"`
}

// SearchRecipesOutput wraps search results for Huma.
type SearchRecipesOutput struct {
	Body SearchRecipesResponse
}

func toAttributeResponses(attrs []domain.Attribute) []AttributeResponse {
	out := make([]AttributeResponse, len(attrs))
	for i, a := range attrs {
		out[i] = AttributeResponse{ID: a.ID, Name: a.Name}
	}
	return out
}

func toRecipeSummary(r *domain.Recipe) RecipeSummary {
	return RecipeSummary{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price.String(),
		Link:        r.Link,
		Tags:        toAttributeResponses(r.Tags),
		Ingredients: toAttributeResponses(r.Ingredients),
	}
}

func toRecipeSummaries(recipes []*domain.Recipe) []RecipeSummary {
	out := make([]RecipeSummary, len(recipes))
	for i, r := range recipes {
		out[i] = toRecipeSummary(r)
	}
	return out
}

func toRecipeDetail(r *domain.Recipe) RecipeDetail {
	return RecipeDetail{
		RecipeSummary: toRecipeSummary(r),
		Description:   r.Description,
		Image:         imageURL(r.Image),
		ImageBlurHash: r.ImageBlurHash,
	}
}

// === Handlers ===

func (s *Server) handleListRecipes(ctx context.Context, input *ListRecipesInput) (*ListRecipesOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	var filter store.RecipeFilter
	if filter.TagIDs, err = parseIDList("tags", input.Tags); err != nil {
		return nil, err
	}
	if filter.IngredientIDs, err = parseIDList("ingredients", input.Ingredients); err != nil {
		return nil, err
	}

	recipes, err := s.services.Recipe.List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	return &ListRecipesOutput{Body: toRecipeSummaries(recipes)}, nil
}

func (s *Server) handleCreateRecipe(ctx context.Context, input *CreateRecipeInput) (*RecipeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.Create(ctx, userID, input.Body)
	if err != nil {
		return nil, err
	}
	return &RecipeOutput{Body: toRecipeDetail(recipe)}, nil
}

func (s *Server) handleGetRecipe(ctx context.Context, input *RecipeIDInput) (*RecipeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}
	return &RecipeOutput{Body: toRecipeDetail(recipe)}, nil
}

func (s *Server) handleReplaceRecipe(ctx context.Context, input *UpdateRecipeInput) (*RecipeOutput, error) {
	return s.updateRecipe(ctx, input, false)
}

func (s *Server) handleUpdateRecipe(ctx context.Context, input *UpdateRecipeInput) (*RecipeOutput, error) {
	return s.updateRecipe(ctx, input, true)
}

func (s *Server) updateRecipe(ctx context.Context, input *UpdateRecipeInput, partial bool) (*RecipeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.Update(ctx, userID, input.ID, input.Body, partial)
	if err != nil {
		return nil, err
	}
	return &RecipeOutput{Body: toRecipeDetail(recipe)}, nil
}

func (s *Server) handleDeleteRecipe(ctx context.Context, input *RecipeIDInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Recipe.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleSearchRecipes(ctx context.Context, input *SearchRecipesInput) (*SearchRecipesOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	params := search.DefaultParams(userID, input.Query)
	params.MaxTimeMinutes = input.MaxTime
	params.SortBy = input.Sort
	params.Limit = input.Limit
	params.Offset = input.Offset
	params.Highlight = false

	results, err := s.services.Recipe.Search(ctx, params)
	if err != nil {
		return nil, err
	}

	tags := results.Tags
	if tags == nil {
		tags = []search.FacetCount{}
	}

	return &SearchRecipesOutput{Body: SearchRecipesResponse{
		Total:   results.Total,
		Recipes: toRecipeSummaries(results.Recipes),
		Tags:    tags,
	}}, nil
}
