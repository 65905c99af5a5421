package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/recipebox/recipebox-server/internal/domain"
)

// Index wraps a Bleve index of recipe documents.
//
// All methods are safe for concurrent use. The mutex is held exclusively
// only while Rebuild swaps the underlying index.
type Index struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the search index.
type Options struct {
	DataPath string       // Directory for index storage
	Logger   *slog.Logger // Uses a discard logger if nil
}

// mappingVersion is bumped whenever buildIndexMapping changes. A mismatch
// on startup drops the index so it can be rebuilt from the database.
const mappingVersion = "1"

// NewIndex creates or opens the recipe index under opts.DataPath.
// A corrupt index or one built with an older mapping is removed and
// recreated empty.
func NewIndex(opts Options) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if err := os.MkdirAll(opts.DataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create search dir: %w", err)
	}

	indexPath := filepath.Join(opts.DataPath, "recipes.bleve")
	versionPath := filepath.Join(opts.DataPath, "recipes.version")

	var (
		index        bleve.Index
		err          error
		needsRebuild bool
	)

	_, statErr := os.Stat(indexPath)
	indexExists := statErr == nil

	if indexExists {
		existing, readErr := os.ReadFile(versionPath)
		if readErr != nil || string(existing) != mappingVersion {
			logger.Info("search index mapping version changed, will rebuild",
				"old_version", string(existing),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	if indexExists && !needsRebuild {
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing index, will recreate", "path", indexPath, "error", err)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if err := os.RemoveAll(indexPath); err != nil {
			return nil, fmt.Errorf("remove old index: %w", err)
		}
		index = nil
	}

	if index == nil {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
			logger.Warn("failed to write search version file", "error", err)
		}
		logger.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing search index", "path", indexPath)
	}

	return &Index{index: index, path: indexPath, logger: logger}, nil
}

// Close closes the index.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexRecipe adds or replaces a recipe's document.
func (s *Index) IndexRecipe(r *domain.Recipe) error {
	doc := FromRecipe(r)

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(doc.ID, doc.ToMap())
}

// IndexRecipes indexes recipes in batches of 500.
func (s *Index) IndexRecipes(recipes []*domain.Recipe) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const batchSize = 500

	for i := 0; i < len(recipes); i += batchSize {
		end := min(i+batchSize, len(recipes))

		batch := s.index.NewBatch()
		for _, r := range recipes[i:end] {
			doc := FromRecipe(r)
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}

		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// DeleteRecipe removes a recipe's document. Deleting a missing document is not an error.
func (s *Index) DeleteRecipe(recipeID int64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(DocumentID(recipeID))
}

// DocumentCount returns the number of indexed recipes.
func (s *Index) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops every document and creates a fresh, empty index.
// Callers repopulate it with IndexRecipes. Blocks all other operations.
func (s *Index) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("remove index: %w", err)
	}

	index, err := bleve.New(s.path, buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	s.index = index
	s.logger.Info("rebuilt search index", "path", s.path)
	return nil
}
