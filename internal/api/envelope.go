package api

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/recipebox/recipebox-server/internal/http/response"
)

// EnvelopeVersion is the envelope format version sent as "v".
// Clients check it before reading data.
const EnvelopeVersion = response.Version

// APIEnvelope wraps every successful huma response body.
type APIEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int  `json:"v"`
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// APIErrorEnvelope wraps every error response body.
type APIErrorEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer is a huma transformer that wraps response bodies in
// the standard envelope. Errors produced by RegisterErrorHandler become
// APIErrorEnvelope; everything else lands under "data".
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	switch body := v.(type) {
	case *APIError:
		return APIErrorEnvelope{
			Version: EnvelopeVersion,
			Success: false,
			Code:    body.Code,
			Message: body.Message,
			Details: body.Details,
		}, nil
	case APIEnvelope, *APIEnvelope, APIErrorEnvelope, *APIErrorEnvelope:
		return v, nil
	}

	return APIEnvelope{
		Version: EnvelopeVersion,
		Success: true,
		Data:    v,
	}, nil
}
