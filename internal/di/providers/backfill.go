package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/recipebox/recipebox-server/internal/logger"
	"github.com/recipebox/recipebox-server/internal/service"
)

// BackfillBlurHashesIfNeeded computes placeholders for images stored
// before BlurHash support, in the background.
func BackfillBlurHashesIfNeeded(i do.Injector) {
	log := do.MustInvoke[*logger.Logger](i)
	recipes := do.MustInvoke[*service.RecipeService](i)

	go func() {
		updated, err := recipes.BackfillBlurHashes(context.Background())
		if err != nil {
			log.Error("Failed to backfill image blurhashes", "error", err)
			return
		}
		if updated > 0 {
			log.Info("Backfilled image blurhashes", "recipes", updated)
		}
	}()
}
