package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/recipebox/recipebox-server/internal/domain"
	domainerrors "github.com/recipebox/recipebox-server/internal/errors"
	"github.com/recipebox/recipebox-server/internal/search"
	"github.com/recipebox/recipebox-server/internal/store"
)

// AttributeInput renames a tag or ingredient. Nil means absent.
type AttributeInput struct {
	_    struct{} `json:"-" additionalProperties:"true"`
	Name *string  `json:"name,omitempty" validate:"omitnil,notblank,max=255"`
}

// AttributeService lists, renames and deletes a user's tags and ingredients.
// Both kinds share one implementation keyed by domain.AttributeKind.
type AttributeService struct {
	store  store.Store
	logger *slog.Logger
	search indexer
}

// NewAttributeService creates an attribute service. index may be nil.
func NewAttributeService(store store.Store, index *search.Index, logger *slog.Logger) *AttributeService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AttributeService{
		store:  store,
		logger: logger,
		search: indexer{index: index, store: store, logger: logger},
	}
}

// List returns the user's attributes of kind ordered by name descending.
func (s *AttributeService) List(ctx context.Context, kind domain.AttributeKind, userID string, filter store.AttributeFilter) ([]*domain.Attribute, error) {
	attrs, err := s.store.ListAttributes(ctx, kind, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("list %ss: %w", kind, err)
	}
	return attrs, nil
}

// Update renames one of the user's attributes. A full update requires the
// name. Renaming onto a name the user already has is a validation error.
func (s *AttributeService) Update(ctx context.Context, kind domain.AttributeKind, userID string, id int64, in AttributeInput, partial bool) (*domain.Attribute, error) {
	var missing domainerrors.FieldErrors
	if !partial {
		missing = requireFields(map[string]bool{"name": in.Name != nil})
	}
	if err := validateInput(in, missing); err != nil {
		return nil, err
	}

	attr, err := s.store.GetAttribute(ctx, kind, userID, id)
	if err != nil {
		return nil, attributeError(kind, err)
	}
	if in.Name == nil {
		return attr, nil
	}

	name := normalizeName(*in.Name)
	if name == attr.Name {
		return attr, nil
	}
	attr.Name = name

	if err := s.store.UpdateAttribute(ctx, attr); err != nil {
		return nil, attributeError(kind, err)
	}

	ids, err := s.store.RecipeIDsWithAttribute(ctx, kind, userID, id)
	if err != nil {
		s.logger.Warn("failed to find recipes for reindex", "kind", kind, "id", id, "error", err)
	}
	s.search.refresh(ctx, userID, ids)

	s.logger.Info("Attribute renamed", "kind", kind, "id", id, "user_id", userID)
	return attr, nil
}

// Delete removes one of the user's attributes. Linked recipes are kept.
func (s *AttributeService) Delete(ctx context.Context, kind domain.AttributeKind, userID string, id int64) error {
	ids, err := s.store.RecipeIDsWithAttribute(ctx, kind, userID, id)
	if err != nil {
		return fmt.Errorf("find linked recipes: %w", err)
	}

	if err := s.store.DeleteAttribute(ctx, kind, userID, id); err != nil {
		return attributeError(kind, err)
	}

	s.search.refresh(ctx, userID, ids)

	s.logger.Info("Attribute deleted", "kind", kind, "id", id, "user_id", userID, "unlinked", len(ids))
	return nil
}

func attributeError(kind domain.AttributeKind, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFoundf("%s not found", kind.Label())
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.ValidationField("name", kind.Label()+" with this name already exists")
	case errors.Is(err, store.ErrInvalidInput):
		return domainerrors.Validation(err.Error())
	}
	return err
}
