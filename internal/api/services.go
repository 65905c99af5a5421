package api

import (
	"github.com/recipebox/recipebox-server/internal/search"
	"github.com/recipebox/recipebox-server/internal/service"
)

// Services groups all business logic services used by the API server.
type Services struct {
	Auth      *service.AuthService
	Recipe    *service.RecipeService
	Attribute *service.AttributeService
	Search    *search.Index // optional; reported by /health
}
