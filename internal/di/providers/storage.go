package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/recipebox/recipebox-server/internal/config"
	"github.com/recipebox/recipebox-server/internal/logger"
	"github.com/recipebox/recipebox-server/internal/media/images"
)

// recipeImagesDir is the subdirectory of the images root holding recipe photos.
const recipeImagesDir = "recipes"

// ProvideImageStorage provides file storage for recipe images.
func ProvideImageStorage(i do.Injector) (*images.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	storage, err := images.NewStorage(cfg.Data.ImagesPath(), recipeImagesDir)
	if err != nil {
		return nil, fmt.Errorf("recipe image storage: %w", err)
	}

	log.Info("Image storage initialized", "path", cfg.Data.ImagesPath())

	return storage, nil
}

// ProvideImageProcessor provides the image processor for recipe uploads.
func ProvideImageProcessor(i do.Injector) (*images.Processor, error) {
	storage := do.MustInvoke[*images.Storage](i)
	log := do.MustInvoke[*logger.Logger](i)

	return images.NewProcessor(storage, log.Logger), nil
}
