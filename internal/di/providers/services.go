package providers

import (
	"github.com/samber/do/v2"

	"github.com/recipebox/recipebox-server/internal/auth"
	"github.com/recipebox/recipebox-server/internal/logger"
	"github.com/recipebox/recipebox-server/internal/media/images"
	"github.com/recipebox/recipebox-server/internal/service"
)

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	revocation := do.MustInvoke[*RevocationHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, revocation.RevocationList, log.Logger), nil
}

// ProvideRecipeService provides the recipe service.
func ProvideRecipeService(i do.Injector) (*service.RecipeService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	processor := do.MustInvoke[*images.Processor](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRecipeService(storeHandle.Store, processor, indexHandle.Index, log.Logger), nil
}

// ProvideAttributeService provides the tag and ingredient service.
func ProvideAttributeService(i do.Injector) (*service.AttributeService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAttributeService(storeHandle.Store, indexHandle.Index, log.Logger), nil
}
