package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/recipebox/recipebox-server/internal/config"
	"github.com/recipebox/recipebox-server/internal/logger"
	"github.com/recipebox/recipebox-server/internal/search"
	"github.com/recipebox/recipebox-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewIndex(search.Options{
		DataPath: cfg.Data.SearchPath(),
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{Index: index}, nil
}

// TriggerSearchReindexIfNeeded rebuilds an empty index in the background
// when the database already has users, e.g. after a mapping change.
// Should be called after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	recipes := do.MustInvoke[*service.RecipeService](i)
	log := do.MustInvoke[*logger.Logger](i)

	docCount, _ := indexHandle.DocumentCount()
	if docCount > 0 {
		return
	}

	ctx := context.Background()
	users, err := storeHandle.ListUsers(ctx)
	if err != nil || len(users) == 0 {
		return
	}

	log.Info("Search index is empty, triggering initial reindex",
		"user_count", len(users),
	)

	go func() {
		indexed, err := recipes.Reindex(context.Background())
		if err != nil {
			log.Error("Initial search reindex failed", "error", err)
			return
		}
		log.Info("Initial search reindex completed", "documents", indexed)
	}()
}
