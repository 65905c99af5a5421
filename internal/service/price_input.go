package service

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/danielgtaylor/huma/v2"
)

// PriceInput is a price as sent by clients. JSON strings ("5.50") and
// numbers (5.5) are both accepted; the text is parsed by domain.ParsePrice.
type PriceInput string

var errPriceType = errors.New("price must be a string or a number")

// UnmarshalJSON keeps the literal text of a number so no float rounding
// happens before the decimal is parsed.
func (p *PriceInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PriceInput(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errPriceType
	}
	*p = PriceInput(n.String())
	return nil
}

// Schema documents the string-or-number form for the OpenAPI spec and
// request validation.
func (PriceInput) Schema(huma.Registry) *huma.Schema {
	return &huma.Schema{
		Description: "Decimal price with at most 5 digits and 2 decimal places",
		OneOf: []*huma.Schema{
			{Type: huma.TypeString},
			{Type: huma.TypeNumber},
		},
		Examples: []any{"5.50"},
	}
}
