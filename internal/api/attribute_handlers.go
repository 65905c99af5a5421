package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/recipebox/recipebox-server/internal/domain"
	"github.com/recipebox/recipebox-server/internal/service"
	"github.com/recipebox/recipebox-server/internal/store"
)

// attributeResource describes one of the two attribute collections.
type attributeResource struct {
	kind     domain.AttributeKind
	path     string // collection path under /api/v1
	singular string // OperationID stem, e.g. "Tag"
	plural   string // OpenAPI tag, e.g. "Tags"
}

var (
	tagResource        = attributeResource{kind: domain.KindTag, path: "/api/v1/tags", singular: "Tag", plural: "Tags"}
	ingredientResource = attributeResource{kind: domain.KindIngredient, path: "/api/v1/ingredients", singular: "Ingredient", plural: "Ingredients"}
)

func (s *Server) registerAttributeRoutes(res attributeResource) {
	huma.Register(s.api, huma.Operation{
		OperationID: "list" + res.plural,
		Method:      http.MethodGet,
		Path:        res.path,
		Summary:     "List " + res.kind.Label() + "s",
		Description: "Returns the current user's " + res.kind.Label() + "s ordered by name, descending",
		Tags:        []string{res.plural},
		Security:    bearerSecurity,
	}, s.listAttributes(res))

	huma.Register(s.api, huma.Operation{
		OperationID: "replace" + res.singular,
		Method:      http.MethodPut,
		Path:        res.path + "/{id}",
		Summary:     "Update " + res.kind.Label(),
		Tags:        []string{res.plural},
		Security:    bearerSecurity,
	}, s.updateAttribute(res, false))

	huma.Register(s.api, huma.Operation{
		OperationID: "update" + res.singular,
		Method:      http.MethodPatch,
		Path:        res.path + "/{id}",
		Summary:     "Partially update " + res.kind.Label(),
		Tags:        []string{res.plural},
		Security:    bearerSecurity,
	}, s.updateAttribute(res, true))

	huma.Register(s.api, huma.Operation{
		OperationID:   "delete" + res.singular,
		Method:        http.MethodDelete,
		Path:          res.path + "/{id}",
		Summary:       "Delete " + res.kind.Label(),
		Description:   "Deletes the " + res.kind.Label() + " and unlinks it from recipes",
		Tags:          []string{res.plural},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusNoContent,
	}, s.deleteAttribute(res))
}

// === DTOs ===

// ListAttributesInput contains parameters for listing tags or ingredients.
type ListAttributesInput struct {
	AssignedOnly int `query:"assigned_only" minimum:"0" maximum:"1" doc:"1 to return only entries used by at least one recipe"`
}

// ListAttributesOutput wraps an attribute list for Huma.
type ListAttributesOutput struct {
	Body []AttributeResponse
}

// UpdateAttributeInput wraps a rename request for Huma.
type UpdateAttributeInput struct {
	ID   int64 `path:"id" doc:"ID"`
	Body service.AttributeInput
}

// AttributeIDInput addresses one tag or ingredient.
type AttributeIDInput struct {
	ID int64 `path:"id" doc:"ID"`
}

// AttributeOutput wraps a single attribute for Huma.
type AttributeOutput struct {
	Body AttributeResponse
}

// === Handlers ===

func (s *Server) listAttributes(res attributeResource) func(context.Context, *ListAttributesInput) (*ListAttributesOutput, error) {
	return func(ctx context.Context, input *ListAttributesInput) (*ListAttributesOutput, error) {
		userID, err := GetUserID(ctx)
		if err != nil {
			return nil, err
		}

		attrs, err := s.services.Attribute.List(ctx, res.kind, userID, store.AttributeFilter{
			AssignedOnly: input.AssignedOnly == 1,
		})
		if err != nil {
			return nil, err
		}

		out := make([]AttributeResponse, len(attrs))
		for i, a := range attrs {
			out[i] = AttributeResponse{ID: a.ID, Name: a.Name}
		}
		return &ListAttributesOutput{Body: out}, nil
	}
}

func (s *Server) updateAttribute(res attributeResource, partial bool) func(context.Context, *UpdateAttributeInput) (*AttributeOutput, error) {
	return func(ctx context.Context, input *UpdateAttributeInput) (*AttributeOutput, error) {
		userID, err := GetUserID(ctx)
		if err != nil {
			return nil, err
		}

		attr, err := s.services.Attribute.Update(ctx, res.kind, userID, input.ID, input.Body, partial)
		if err != nil {
			return nil, err
		}
		return &AttributeOutput{Body: AttributeResponse{ID: attr.ID, Name: attr.Name}}, nil
	}
}

func (s *Server) deleteAttribute(res attributeResource) func(context.Context, *AttributeIDInput) (*struct{}, error) {
	return func(ctx context.Context, input *AttributeIDInput) (*struct{}, error) {
		userID, err := GetUserID(ctx)
		if err != nil {
			return nil, err
		}

		if err := s.services.Attribute.Delete(ctx, res.kind, userID, input.ID); err != nil {
			return nil, err
		}
		return nil, nil
	}
}
