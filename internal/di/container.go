// Package di provides dependency injection configuration for the RecipeBox server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/recipebox/recipebox-server/internal/api"
	"github.com/recipebox/recipebox-server/internal/auth"
	"github.com/recipebox/recipebox-server/internal/config"
	"github.com/recipebox/recipebox-server/internal/di/providers"
	"github.com/recipebox/recipebox-server/internal/logger"
	"github.com/recipebox/recipebox-server/internal/media/images"
	"github.com/recipebox/recipebox-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
// Configuration is loaded from flags, environment and .env.
func NewContainer() *do.RootScope {
	injector := do.New()
	do.Provide(injector, providers.ProvideConfig)
	register(injector)
	return injector
}

// NewContainerWithConfig is NewContainer with an already loaded
// configuration, for tools that parse their own flags.
func NewContainerWithConfig(cfg *config.Config) *do.RootScope {
	injector := do.New()
	do.ProvideValue(injector, cfg)
	register(injector)
	return injector
}

func register(injector do.Injector) {
	// Core infrastructure
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Storage layer
	do.Provide(injector, providers.ProvideImageStorage)
	do.Provide(injector, providers.ProvideImageProcessor)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvideRevocationList)

	// Business services
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideRecipeService)
	do.Provide(injector, providers.ProvideAttributeService)

	// Server
	do.Provide(injector, providers.ProvideAPIServer)
	do.Provide(injector, providers.ProvideHTTPServer)
}

// Bootstrap initializes all services and starts the HTTP server.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}

	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*images.Storage](injector)
	_ = do.MustInvoke[*images.Processor](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)
	_ = do.MustInvoke[*providers.RevocationHandle](injector)

	// Business services
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.RecipeService](injector)
	_ = do.MustInvoke[*service.AttributeService](injector)

	// Server
	_ = do.MustInvoke[*api.Server](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Background maintenance
	providers.TriggerSearchReindexIfNeeded(injector)
	providers.BackfillBlurHashesIfNeeded(injector)

	return nil
}
